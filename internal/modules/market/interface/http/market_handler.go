package handler

import (
	"VectorOps/internal/modules/market/application/dto/request"
	"VectorOps/internal/modules/market/application/service"
	"VectorOps/pkg/back"
	"VectorOps/pkg/xerr"
	"VectorOps/pkg/zlog"

	"github.com/gin-gonic/gin"
)

type MarketHandler struct {
	svc service.MarketService
}

func NewMarketHandler(svc service.MarketService) *MarketHandler {
	return &MarketHandler{svc: svc}
}

func (h *MarketHandler) CreateStock(c *gin.Context) {
	var req request.CreateStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		zlog.Error(err.Error())
		back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
		return
	}
	data, err := h.svc.CreateStock(c.Request.Context(), req)
	if err != nil {
		back.Result(c, nil, err)
		return
	}
	back.Created(c, "Stock created successfully", data)
}

func (h *MarketHandler) ListStocks(c *gin.Context) {
	data, err := h.svc.ListStocks(c.Request.Context())
	back.Result(c, data, err)
}

func (h *MarketHandler) GetStock(c *gin.Context) {
	data, err := h.svc.GetStock(c.Request.Context(), c.Param("ticker"))
	back.Result(c, data, err)
}

func (h *MarketHandler) CreatePrice(c *gin.Context) {
	var req request.CreatePriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		zlog.Error(err.Error())
		back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
		return
	}
	data, err := h.svc.CreatePrice(c.Request.Context(), req)
	if err != nil {
		back.Result(c, nil, err)
		return
	}
	back.Created(c, "Stock price created successfully", data)
}

func (h *MarketHandler) GetPrice(c *gin.Context) {
	data, err := h.svc.GetPrice(c.Request.Context(), c.Param("ticker"))
	back.Result(c, data, err)
}
