package http

import (
	"strings"

	"VectorOps/internal/initial"
	jwtMiddleware "VectorOps/internal/middleware/jwt"
	"VectorOps/pkg/back"
	"VectorOps/pkg/ssl"

	cors "github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/mark3labs/mcp-go/server"
)

// NewRouter 注册全部路由；jwtConfig.enforce 为 true 时写接口需要 token
func NewRouter(app *initial.App) *gin.Engine {
	conf := app.Conf
	ge := gin.Default()
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"*"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Mcp-Session-Id"}
	ge.Use(cors.New(corsConfig))
	if conf.MainConfig.EnableTLS {
		ge.Use(ssl.TlsHandler(conf.MainConfig.Host, conf.MainConfig.Port))
	}

	h := app.Handlers
	guard := jwtMiddleware.Optional(app.Tokens, conf.JwtConfig.Enforce)

	ge.GET("/", func(c *gin.Context) {
		back.Success(c, gin.H{"app": conf.MainConfig.AppName, "engine": app.Registry.EngineName()})
	})

	// 认证
	ge.POST("/token", h.User.Token)
	ge.POST("/logout", h.User.Logout)
	ge.GET("/auth/me", jwtMiddleware.Auth(app.Tokens), h.User.Me)

	users := ge.Group("/users")
	users.GET("/", h.User.List)
	users.GET("/rag/usernames", h.User.UsernamesStory)
	users.POST("/", guard, h.User.Create)

	// 向量库
	vectors := ge.Group("/vectors")
	vectors.GET("/collections", h.Admin.Collections)
	vectors.GET("/events/ws", h.Admin.Events)
	vectors.GET("/:collection/search", h.Vector.Search)
	vectors.POST("/:collection/search", h.Vector.Search)
	vectors.GET("/:collection/compare/:other", h.Vector.Compare)
	write := vectors.Group("/", guard)
	write.POST("/:collection/ingest-text", h.Vector.IngestText)
	write.POST("/:collection/text", h.Vector.IngestText)
	write.POST("/:collection/document", h.Vector.IngestDocument)
	write.POST("/:collection/ingest-items", h.Vector.IngestItems)
	write.POST("/:collection/items", h.Vector.IngestItems)
	write.POST("/:collection/ingest", h.Vector.IngestItems)

	chatbot := ge.Group("/chatbot")
	chatbot.POST("/chat", h.Chat.Chat)
	chatbot.POST("/chat-with-memory", h.Chat.ChatWithMemory)
	chatbot.GET("/trading-philosophy", h.Chat.TradingPhilosophy)
	chatbot.GET("/Warren-Buffet-stock-recommendations", h.Chat.Recommendations)
	chatbot.POST("/stock-analysis", h.Chat.StockAnalysis)
	chatbot.POST("/route", h.Chat.Route)
	chatbot.DELETE("/sessions/:session", guard, h.Chat.ClearSession)
	chatbot.GET("/ws", h.ChatWs.Stream)

	stocks := ge.Group("/stocks")
	stocks.GET("/", h.Market.ListStocks)
	stocks.GET("/:ticker", h.Market.GetStock)
	stocks.POST("/", guard, h.Market.CreateStock)
	price := ge.Group("/price")
	price.GET("/:ticker", h.Market.GetPrice)
	price.POST("/", guard, h.Market.CreatePrice)

	items := ge.Group("/items")
	items.GET("/", h.Catalog.List)
	items.GET("/some_items", h.Catalog.SomeItems)
	items.GET("/recommendations", h.Catalog.Recommendations)
	items.PATCH("/:id/decrement_from_inventory/:amount", guard, h.Catalog.Decrement)

	if app.MCP != nil {
		path := strings.TrimSpace(conf.MCPConfig.Path)
		if path == "" {
			path = "/mcp"
		}
		ge.Any(path, gin.WrapH(server.NewStreamableHTTPServer(app.MCP)))
	}
	return ge
}
