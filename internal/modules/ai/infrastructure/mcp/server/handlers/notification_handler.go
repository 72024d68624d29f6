package handlers

import (
	"context"
	"time"

	"VectorOps/pkg/ws"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

type NotificationToolHandler struct {
	hub *ws.Hub
}

func NewNotificationToolHandler(hub *ws.Hub) *NotificationToolHandler {
	return &NotificationToolHandler{hub: hub}
}

func (h *NotificationToolHandler) RegisterTools(s *server.MCPServer) {
	s.AddTool(mcp.NewTool("notify_subscribers",
		mcp.WithDescription("Push a message to websocket clients subscribed to a collection's ingest events."),
		mcp.WithString("collection", mcp.Required(), mcp.Description("Collection whose subscribers receive the message; use * for everyone")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Message content")),
	), h.handleNotify)
}

func (h *NotificationToolHandler) handleNotify(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("invalid arguments format"), nil
	}
	collection, _ := args["collection"].(string)
	content, _ := args["content"].(string)
	if collection == "" || content == "" {
		return mcp.NewToolResultError("collection and content cannot be empty"), nil
	}

	delivered := h.hub.Send(collection, mustJSON(map[string]interface{}{
		"type":       "notification",
		"collection": collection,
		"content":    content,
		"time":       time.Now().Unix(),
	}))
	if !delivered {
		return mcp.NewToolResultText("No subscribers for " + collection), nil
	}
	return mcp.NewToolResultText("Notification pushed successfully"), nil
}
