package server

import (
	mcpHandlers "VectorOps/internal/modules/ai/infrastructure/mcp/server/handlers"
	"VectorOps/pkg/ws"

	"github.com/mark3labs/mcp-go/server"
)

// ServerConfig MCP Server 配置
type ServerConfig struct {
	Name    string
	Version string
	// YearFormat 纯数字集合名的映射格式
	YearFormat string
}

// ServerDependencies MCP Server 依赖
type ServerDependencies struct {
	Vectors mcpHandlers.VectorTools
	WsHub   *ws.Hub
}

// NewVectorMCPServer 创建并注册向量库相关工具
func NewVectorMCPServer(conf ServerConfig, deps ServerDependencies) *server.MCPServer {
	s := server.NewMCPServer(
		conf.Name,
		conf.Version,
		server.WithToolCapabilities(true),
	)

	if deps.Vectors.Ingest != nil && deps.Vectors.Search != nil {
		vectorHandler := mcpHandlers.NewVectorToolHandler(deps.Vectors, conf.YearFormat)
		vectorHandler.RegisterTools(s)
	}

	if deps.WsHub != nil {
		notificationHandler := mcpHandlers.NewNotificationToolHandler(deps.WsHub)
		notificationHandler.RegisterTools(s)
	}

	return s
}
