package handler

import (
	chatRequest "VectorOps/internal/modules/chat/application/dto/request"
	"VectorOps/internal/modules/chat/application/service"
	"VectorOps/pkg/back"
	"VectorOps/pkg/xerr"
	"VectorOps/pkg/zlog"

	"github.com/gin-gonic/gin"
)

type ChatHandler struct {
	svc service.ChatService
}

func NewChatHandler(svc service.ChatService) *ChatHandler {
	return &ChatHandler{svc: svc}
}

func (h *ChatHandler) Chat(c *gin.Context) {
	var req chatRequest.ChatInputRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		zlog.Error(err.Error())
		back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
		return
	}
	data, err := h.svc.Chat(c.Request.Context(), req.Input)
	back.Result(c, data, err)
}

func (h *ChatHandler) ChatWithMemory(c *gin.Context) {
	var req chatRequest.ChatWithMemoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		zlog.Error(err.Error())
		back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
		return
	}
	data, err := h.svc.ChatWithMemory(c.Request.Context(), req.SessionId, req.Input)
	back.Result(c, data, err)
}

func (h *ChatHandler) TradingPhilosophy(c *gin.Context) {
	data, err := h.svc.SummarizeFile(c.Request.Context())
	back.Result(c, data, err)
}

func (h *ChatHandler) Recommendations(c *gin.Context) {
	data, err := h.svc.Recommend(c.Request.Context())
	back.Result(c, data, err)
}

func (h *ChatHandler) StockAnalysis(c *gin.Context) {
	var req chatRequest.ChatInputRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		zlog.Error(err.Error())
		back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
		return
	}
	data, err := h.svc.AnalyzeData(c.Request.Context(), req.Input)
	back.Result(c, data, err)
}

// Route 检索路由：返回 {route, answer, sources}
func (h *ChatHandler) Route(c *gin.Context) {
	var req chatRequest.ChatInputRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		zlog.Error(err.Error())
		back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
		return
	}
	data, err := h.svc.Route(c.Request.Context(), req.Input)
	back.Result(c, data, err)
}

// ClearSession 路由: DELETE /chatbot/sessions/:session
func (h *ChatHandler) ClearSession(c *gin.Context) {
	data, err := h.svc.ClearSession(c.Request.Context(), c.Param("session"))
	back.Result(c, data, err)
}
