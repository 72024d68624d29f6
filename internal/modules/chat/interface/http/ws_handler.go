package handler

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	chatRequest "VectorOps/internal/modules/chat/application/dto/request"
	"VectorOps/internal/modules/chat/application/service"
	"VectorOps/pkg/zlog"

	"github.com/cloudwego/eino/schema"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// 流式帧：delta 为增量，done 表示本轮结束
type streamFrame struct {
	Type    string `json:"type"`
	Content string `json:"content,omitempty"`
	Message string `json:"message,omitempty"`
}

type WsHandler struct {
	svc service.ChatService
}

func NewWsHandler(svc service.ChatService) *WsHandler {
	return &WsHandler{svc: svc}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Stream 每收到一个 {input} 帧就把模型增量逐帧写回
func (h *WsHandler) Stream(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		zlog.Error(err.Error())
		return
	}
	defer conn.Close()

	conn.SetReadLimit(1 << 20)
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Minute))

	ctx := c.Request.Context()
	for {
		var req chatRequest.ChatInputRequest
		if err := conn.ReadJSON(&req); err != nil {
			// 客户端断开
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Minute))

		if strings.TrimSpace(req.Input) == "" {
			_ = conn.WriteJSON(streamFrame{Type: "error", Message: "input cannot be empty"})
			continue
		}

		sr, err := h.svc.Stream(ctx, req.Input)
		if err != nil {
			_ = conn.WriteJSON(streamFrame{Type: "error", Message: err.Error()})
			continue
		}
		if err := pump(conn, sr); err != nil {
			zlog.Warn("chat stream aborted", zap.Error(err))
			sr.Close()
			return
		}
		sr.Close()
	}
}

func pump(conn *websocket.Conn, sr *schema.StreamReader[*schema.Message]) error {
	for {
		msg, err := sr.Recv()
		if errors.Is(err, io.EOF) {
			return conn.WriteJSON(streamFrame{Type: "done"})
		}
		if err != nil {
			return conn.WriteJSON(streamFrame{Type: "error", Message: err.Error()})
		}
		if msg != nil && msg.Content != "" {
			if err := conn.WriteJSON(streamFrame{Type: "delta", Content: msg.Content}); err != nil {
				return err
			}
		}
	}
}
