package initial

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"VectorOps/internal/config"
	aiService "VectorOps/internal/modules/ai/application/service"
	"VectorOps/internal/modules/ai/infrastructure/chunking"
	"VectorOps/internal/modules/ai/infrastructure/embedding"
	"VectorOps/internal/modules/ai/infrastructure/llm"
	mcpServer "VectorOps/internal/modules/ai/infrastructure/mcp/server"
	mcpHandlers "VectorOps/internal/modules/ai/infrastructure/mcp/server/handlers"
	"VectorOps/internal/modules/ai/infrastructure/mq"
	"VectorOps/internal/modules/ai/infrastructure/mq/kafka"
	"VectorOps/internal/modules/ai/infrastructure/pipeline"
	"VectorOps/internal/modules/ai/infrastructure/queue"
	"VectorOps/internal/modules/ai/infrastructure/registry"
	aiHandler "VectorOps/internal/modules/ai/interface/http"
	catalogService "VectorOps/internal/modules/catalog/application/service"
	"VectorOps/internal/modules/catalog/infrastructure/memory"
	catalogHandler "VectorOps/internal/modules/catalog/interface/http"
	chatService "VectorOps/internal/modules/chat/application/service"
	chatPersistence "VectorOps/internal/modules/chat/infrastructure/persistence"
	chatHandler "VectorOps/internal/modules/chat/interface/http"
	marketService "VectorOps/internal/modules/market/application/service"
	marketPersistence "VectorOps/internal/modules/market/infrastructure/persistence"
	marketHandler "VectorOps/internal/modules/market/interface/http"
	userService "VectorOps/internal/modules/user/application/service"
	userPersistence "VectorOps/internal/modules/user/infrastructure/persistence"
	userHandler "VectorOps/internal/modules/user/interface/http"
	"VectorOps/pkg/util/myjwt"
	"VectorOps/pkg/ws"
	"VectorOps/pkg/zlog"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/retriever"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Handlers 路由层需要的全部 handler
type Handlers struct {
	Vector  *aiHandler.VectorHandler
	Admin   *aiHandler.AdminHandler
	Chat    *chatHandler.ChatHandler
	ChatWs  *chatHandler.WsHandler
	User    *userHandler.UserInfoHandler
	Market  *marketHandler.MarketHandler
	Catalog *catalogHandler.ItemHandler
}

// App 进程级依赖，由 NewApp 按配置装配
type App struct {
	Conf      *config.Config
	DB        *gorm.DB
	Registry  *registry.Registry
	ChatModel model.BaseChatModel
	Publisher mq.Publisher
	Hub       *ws.Hub
	Tokens    *myjwt.Issuer
	MCP       *server.MCPServer

	Ingest aiService.IngestService
	Search aiService.SearchService
	Answer aiService.AnswerService
	Async  aiService.AsyncIngestService

	Handlers Handlers
}

func NewApp(ctx context.Context, conf *config.Config) (*App, error) {
	if conf == nil {
		return nil, errors.New("nil config")
	}
	app := &App{Conf: conf, Hub: ws.NewHub()}

	db, err := NewGormDB(conf)
	if err != nil {
		return nil, err
	}
	app.DB = db

	embedder, meta, err := embedding.NewEmbedderFromConfig(ctx, conf)
	if err != nil {
		app.closeDB()
		return nil, fmt.Errorf("embedder: %w", err)
	}
	zlog.Info("embedder ready", zap.String("provider", meta.Provider), zap.String("model", meta.Model), zap.Int("dim", meta.Dim))

	engine, err := NewVectorEngine(ctx, conf, db, meta.Dim)
	if err != nil {
		app.closeDB()
		return nil, fmt.Errorf("vector engine: %w", err)
	}
	reg, err := registry.New(engine, embedder, conf.VectorConfig.DefaultCollection)
	if err != nil {
		_ = engine.Close()
		app.closeDB()
		return nil, err
	}
	if err := reg.Init(ctx); err != nil {
		_ = engine.Close()
		app.closeDB()
		return nil, err
	}
	app.Registry = reg

	app.Publisher = mq.NopPublisher{}
	var asyncPub mq.Publisher
	eventTopic := ""
	if kc := conf.KafkaConfig; len(kc.Brokers) > 0 {
		adminConf := kafka.TopicAdminConfig{Brokers: kc.Brokers, ClientID: kc.ClientID}
		if err := kafka.EnsureTopics(adminConf, kc.IngestTopic, kc.RequestTopic); err != nil {
			zlog.Warn("ensure kafka topics failed", zap.Error(err))
		}
		pub, err := kafka.NewSaramaPublisher(kafka.PublisherConfig{Brokers: kc.Brokers, ClientID: kc.ClientID})
		if err != nil {
			_ = app.Shutdown(ctx)
			return nil, fmt.Errorf("kafka publisher: %w", err)
		}
		app.Publisher = pub
		asyncPub = pub
		eventTopic = kc.IngestTopic
	}

	// chain 只在模型可用时赋值，保持 nil 接口以便各服务降级
	var chain chatService.Chain
	var router chatService.Router
	cm, cmMeta, err := llm.NewChatModelFromConfig(ctx, conf)
	switch {
	case errors.Is(err, llm.ErrNotConfigured):
		zlog.Info("chat model not configured, llm endpoints answer 503")
	case err != nil:
		zlog.Warn("chat model init failed, llm endpoints answer 503", zap.Error(err))
	default:
		app.ChatModel = cm
		gc, err := llm.NewGeneralChain(ctx, cm, conf.ChatConfig.SystemPrompt)
		if err != nil {
			_ = app.Shutdown(ctx)
			return nil, err
		}
		chain = gc
		rg, err := pipeline.NewRouterGraph(ctx, pipeline.RouterConfig{
			Routes:  routesFromConfig(conf.ChatConfig.Routes),
			TopK:    conf.ChatConfig.RouteTopK,
			Agentic: conf.ChatConfig.Agentic,
		}, registryOpener(reg), cm, gc)
		if err != nil {
			zlog.Warn("router graph disabled", zap.Error(err))
		} else {
			router = rg
		}
		zlog.Info("chat model ready", zap.String("provider", cmMeta.Provider), zap.String("model", cmMeta.Model))
	}

	notifier := mq.NewIngestNotifier(app.Publisher, eventTopic, app.Hub)
	splitter := chunking.NewFromMode(conf.VectorConfig.Chunker, conf.VectorConfig.ChunkSize, conf.VectorConfig.ChunkOverlap)
	app.Ingest = aiService.NewIngestService(reg, splitter, notifier)
	app.Search = aiService.NewSearchService(reg, conf.VectorConfig.MaxTopK)
	app.Answer = aiService.NewAnswerService(app.Search, chain)
	app.Async = aiService.NewAsyncIngestService(reg, asyncPub, conf.KafkaConfig.RequestTopic)

	tokens, err := myjwt.NewIssuer(conf.JwtConfig.Key, conf.JwtConfig.Issuer, conf.JwtConfig.ExpireHours)
	if err != nil {
		_ = app.Shutdown(ctx)
		return nil, fmt.Errorf("jwt: %w", err)
	}
	app.Tokens = tokens

	userSvc := userService.NewUserInfoService(userPersistence.NewUserInfoRepository(db), tokens, chain)
	if err := userSvc.SeedDemoUsers(ctx, conf.JwtConfig.DemoUsers); err != nil {
		zlog.Warn("seed demo users failed", zap.Error(err))
	}

	chatSvc := chatService.NewChatService(chain, router, chatPersistence.NewChatMessageRepository(db), chatService.Options{
		MemoryWindow:   conf.ChatConfig.MemoryWindow,
		DefaultSession: conf.ChatConfig.DefaultSession,
		FilesDir:       conf.ChatConfig.FilesDir,
		PhilosophyFile: conf.ChatConfig.PhilosophyFile,
		DataFile:       conf.ChatConfig.DataFile,
	})
	marketSvc := marketService.NewMarketService(marketPersistence.NewMarketRepository(db))
	itemSvc := catalogService.NewItemService(memory.NewItemStore(memory.DefaultItems()...), chain)

	yearFormat := conf.VectorConfig.YearCollectionFormat
	app.Handlers = Handlers{
		Vector:  aiHandler.NewVectorHandler(app.Ingest, app.Async, app.Answer, yearFormat),
		Admin:   aiHandler.NewAdminHandler(reg, app.Hub, yearFormat),
		Chat:    chatHandler.NewChatHandler(chatSvc),
		ChatWs:  chatHandler.NewWsHandler(chatSvc),
		User:    userHandler.NewUserInfoHandler(userSvc),
		Market:  marketHandler.NewMarketHandler(marketSvc),
		Catalog: catalogHandler.NewItemHandler(itemSvc),
	}

	if conf.MCPConfig.Enabled {
		app.MCP = mcpServer.NewVectorMCPServer(mcpServer.ServerConfig{
			Name:       conf.MCPConfig.Name,
			Version:    conf.MCPConfig.Version,
			YearFormat: yearFormat,
		}, mcpServer.ServerDependencies{
			Vectors: mcpHandlers.VectorTools{Ingest: app.Ingest, Search: app.Search},
			WsHub:   app.Hub,
		})
	}
	return app, nil
}

// NewIngestWorker 消费 requestTopic 上的异步写入请求
func (a *App) NewIngestWorker() (*queue.IngestConsumerWorker, error) {
	kc := a.Conf.KafkaConfig
	if len(kc.Brokers) == 0 {
		return nil, errors.New("kafkaConfig.brokers is empty")
	}
	consumer, err := kafka.NewConsumer(kafka.ConsumerConfig{
		Brokers:  kc.Brokers,
		GroupID:  kc.GroupID,
		Topics:   []string{kc.RequestTopic},
		ClientID: kc.ClientID,
	})
	if err != nil {
		return nil, err
	}
	return queue.NewIngestConsumerWorker(consumer, a.Ingest), nil
}

// Shutdown 依次关闭注册表、publisher 和数据库连接
func (a *App) Shutdown(ctx context.Context) error {
	var errs []error
	if a.Registry != nil {
		if err := a.Registry.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("registry: %w", err))
		}
	}
	if a.Publisher != nil {
		if err := a.Publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("publisher: %w", err))
		}
	}
	if err := a.closeDB(); err != nil {
		errs = append(errs, fmt.Errorf("db: %w", err))
	}
	return errors.Join(errs...)
}

func (a *App) closeDB() error {
	if a.DB == nil {
		return nil
	}
	sqlDB, err := a.DB.DB()
	if err != nil {
		return err
	}
	a.DB = nil
	return sqlDB.Close()
}

func routesFromConfig(rcs []config.RouteConfig) []pipeline.Route {
	routes := make([]pipeline.Route, 0, len(rcs))
	for _, rc := range rcs {
		if strings.TrimSpace(rc.Name) == "" || strings.TrimSpace(rc.Collection) == "" {
			zlog.Warn("skip route without name or collection", zap.String("name", rc.Name))
			continue
		}
		routes = append(routes, pipeline.Route{
			Name:        rc.Name,
			Collection:  rc.Collection,
			Description: rc.Description,
			Keywords:    rc.Keywords,
		})
	}
	return routes
}

func registryOpener(reg *registry.Registry) pipeline.RetrieverOpener {
	return func(ctx context.Context, collection string) (retriever.Retriever, error) {
		h, err := reg.GetOrCreate(ctx, collection)
		if err != nil {
			return nil, err
		}
		return h, nil
	}
}
