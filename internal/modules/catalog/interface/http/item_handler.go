package handler

import (
	"VectorOps/internal/modules/catalog/application/dto/request"
	"VectorOps/internal/modules/catalog/application/service"
	"VectorOps/pkg/back"
	"VectorOps/pkg/xerr"
	"VectorOps/pkg/zlog"

	"github.com/gin-gonic/gin"
)

type ItemHandler struct {
	svc service.ItemService
}

func NewItemHandler(svc service.ItemService) *ItemHandler {
	return &ItemHandler{svc: svc}
}

func (h *ItemHandler) List(c *gin.Context) {
	back.Success(c, h.svc.List(c.Request.Context()))
}

// SomeItems limit 默认 1
func (h *ItemHandler) SomeItems(c *gin.Context) {
	var req request.SomeItemsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		zlog.Error(err.Error())
		back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
		return
	}
	limit := 1
	if req.Limit != nil {
		limit = *req.Limit
	}
	back.Success(c, h.svc.Some(c.Request.Context(), limit))
}

func (h *ItemHandler) Decrement(c *gin.Context) {
	var req request.DecrementRequest
	if err := c.ShouldBindUri(&req); err != nil {
		zlog.Error(err.Error())
		back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
		return
	}
	data, err := h.svc.Decrement(c.Request.Context(), req.Id, req.Amount)
	back.Result(c, data, err)
}

func (h *ItemHandler) Recommendations(c *gin.Context) {
	var req request.RecommendationsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		zlog.Error(err.Error())
		back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
		return
	}
	amount := 3
	if req.Amount != nil {
		amount = *req.Amount
	}
	data, err := h.svc.Recommendations(c.Request.Context(), amount)
	back.Result(c, data, err)
}
