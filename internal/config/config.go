package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

const DefaultPath = "configs/config_local.toml"

type MainConfig struct {
	AppName         string `toml:"appName"`
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	EnableTLS       bool   `toml:"enableTLS"`
	CertFile        string `toml:"certFile"`
	KeyFile         string `toml:"keyFile"`
	ShutdownSeconds int    `toml:"shutdownSeconds"`
}

// DatabaseConfig driver 为 mysql 或 sqlite
type DatabaseConfig struct {
	Driver       string `toml:"driver"`
	Host         string `toml:"host"`
	Port         int    `toml:"port"`
	User         string `toml:"user"`
	Password     string `toml:"password"`
	DatabaseName string `toml:"databaseName"`
	SQLitePath   string `toml:"sqlitePath"`
}

type LogConfig struct {
	LogPath    string `toml:"logPath"`
	Level      string `toml:"level"`
	MaxSizeMB  int    `toml:"maxSizeMB"`
	MaxBackups int    `toml:"maxBackups"`
	MaxAgeDays int    `toml:"maxAgeDays"`
}

type DemoUser struct {
	Username string `toml:"username"`
	Password string `toml:"password"`
	Email    string `toml:"email"`
}

type JwtConfig struct {
	Key         string     `toml:"key"`
	ExpireHours int        `toml:"expireHours"`
	Issuer      string     `toml:"issuer"`
	Enforce     bool       `toml:"enforce"`
	DemoUsers   []DemoUser `toml:"demoUsers"`
}

// VectorConfig engine 为 memory | local | milvus | chroma
type VectorConfig struct {
	Engine               string `toml:"engine"`
	PersistDirectory     string `toml:"persistDirectory"`
	DefaultCollection    string `toml:"defaultCollection"`
	YearCollectionFormat string `toml:"yearCollectionFormat"`
	ChunkSize            int    `toml:"chunkSize"`
	ChunkOverlap         int    `toml:"chunkOverlap"`
	Chunker              string `toml:"chunker"`
	MaxTopK              int    `toml:"maxTopK"`
}

type MilvusConfig struct {
	Address          string `toml:"address"`
	Username         string `toml:"username"`
	Password         string `toml:"password"`
	DBName           string `toml:"dbName"`
	CollectionPrefix string `toml:"collectionPrefix"`
	MetricType       string `toml:"metricType"`
}

type ChromaConfig struct {
	URL      string `toml:"url"`
	Tenant   string `toml:"tenant"`
	Database string `toml:"database"`
}

// KafkaConfig brokers 为空时不启用 Kafka
type KafkaConfig struct {
	Brokers      []string `toml:"brokers"`
	ClientID     string   `toml:"clientID"`
	IngestTopic  string   `toml:"ingestTopic"`
	RequestTopic string   `toml:"requestTopic"`
	GroupID      string   `toml:"groupID"`
}

type AIEmbeddingConfig struct {
	Provider        string `toml:"provider"`
	APIKey          string `toml:"apiKey"`
	BaseURL         string `toml:"baseURL"`
	Model           string `toml:"model"`
	Dimensions      int    `toml:"dimensions"`
	TimeoutSeconds  int    `toml:"timeoutSeconds"`
	ByAzure         bool   `toml:"byAzure"`
	AzureAPIVersion string `toml:"azureApiVersion"`
}

type AIChatModelConfig struct {
	Provider        string  `toml:"provider"`
	APIKey          string  `toml:"apiKey"`
	AccessKey       string  `toml:"accessKey"`
	SecretKey       string  `toml:"secretKey"`
	BaseURL         string  `toml:"baseURL"`
	Region          string  `toml:"region"`
	Model           string  `toml:"model"`
	Temperature     float32 `toml:"temperature"`
	TimeoutSeconds  int     `toml:"timeoutSeconds"`
	RetryTimes      int     `toml:"retryTimes"`
	ByAzure         bool    `toml:"byAzure"`
	AzureAPIVersion string  `toml:"azureApiVersion"`
}

type AIConfig struct {
	Embedding AIEmbeddingConfig `toml:"embedding"`
	ChatModel AIChatModelConfig `toml:"chatModel"`
}

// RouteConfig 路由图中的一个检索工具
type RouteConfig struct {
	Name        string   `toml:"name"`
	Collection  string   `toml:"collection"`
	Description string   `toml:"description"`
	Keywords    []string `toml:"keywords"`
}

type ChatConfig struct {
	SystemPrompt   string        `toml:"systemPrompt"`
	MemoryWindow   int           `toml:"memoryWindow"`
	DefaultSession string        `toml:"defaultSession"`
	FilesDir       string        `toml:"filesDir"`
	PhilosophyFile string        `toml:"philosophyFile"`
	DataFile       string        `toml:"dataFile"`
	Agentic        bool          `toml:"agentic"`
	RouteTopK      int           `toml:"routeTopK"`
	Routes         []RouteConfig `toml:"routes"`
}

type MCPConfig struct {
	Enabled bool   `toml:"enabled"`
	Name    string `toml:"name"`
	Version string `toml:"version"`
	Path    string `toml:"path"`
}

type Config struct {
	MainConfig     `toml:"mainConfig"`
	DatabaseConfig `toml:"databaseConfig"`
	JwtConfig      `toml:"jwtConfig"`
	VectorConfig   `toml:"vectorConfig"`
	MilvusConfig   `toml:"milvusConfig"`
	ChromaConfig   `toml:"chromaConfig"`
	KafkaConfig    `toml:"kafkaConfig"`
	AIConfig       `toml:"aiConfig"`
	ChatConfig     `toml:"chatConfig"`
	MCPConfig      `toml:"mcpConfig"`
	LogConfig      `toml:"logConfig"`
}

// Default 返回可离线运行的默认配置（内存向量库 + 哈希向量 + sqlite）
func Default() *Config {
	return &Config{
		MainConfig: MainConfig{
			AppName:         "VectorOps",
			Host:            "0.0.0.0",
			Port:            8000,
			ShutdownSeconds: 10,
		},
		DatabaseConfig: DatabaseConfig{
			Driver:     "sqlite",
			SQLitePath: "data/vectorops.db",
		},
		JwtConfig: JwtConfig{
			Key:         "change-me",
			ExpireHours: 24,
		},
		VectorConfig: VectorConfig{
			Engine:               "local",
			PersistDirectory:     "data/vector_store",
			DefaultCollection:    "macro_reports",
			YearCollectionFormat: "macro_report_%s",
			ChunkSize:            600,
			ChunkOverlap:         100,
			Chunker:              "boundary",
			MaxTopK:              50,
		},
		MilvusConfig: MilvusConfig{
			DBName:           "vectorops",
			CollectionPrefix: "vo_",
			MetricType:       "COSINE",
		},
		ChromaConfig: ChromaConfig{
			Tenant:   "default_tenant",
			Database: "default_database",
		},
		KafkaConfig: KafkaConfig{
			ClientID:     "vectorops",
			IngestTopic:  "vectorops.ingest",
			RequestTopic: "vectorops.ingest.requests",
			GroupID:      "vectorops-ingest-workers",
		},
		AIConfig: AIConfig{
			Embedding: AIEmbeddingConfig{Provider: "hash", Dimensions: 256},
		},
		ChatConfig: ChatConfig{
			SystemPrompt:   "You are a helpful financial assistant. Answer concisely and say so when you are unsure.",
			MemoryWindow:   20,
			DefaultSession: "demo_thread",
			FilesDir:       "files",
			PhilosophyFile: "warren_buffet.txt",
			DataFile:       "tech_performance.csv",
			RouteTopK:      5,
		},
		MCPConfig: MCPConfig{
			Name:    "vectorops",
			Version: "1.0.0",
			Path:    "/mcp",
		},
		LogConfig: LogConfig{Level: "info"},
	}
}

// LoadConfig 在默认配置之上叠加 toml 文件
func LoadConfig(path string) (*Config, error) {
	conf := Default()
	path = strings.TrimSpace(path)
	if path == "" {
		path = DefaultPath
	}
	if _, err := toml.DecodeFile(path, conf); err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	conf.normalize()
	return conf, nil
}

// Decode 解析 toml 文本，测试与内嵌配置使用
func Decode(data string) (*Config, error) {
	conf := Default()
	if _, err := toml.Decode(data, conf); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	conf.normalize()
	return conf, nil
}

func (c *Config) normalize() {
	if c.VectorConfig.ChunkSize <= 0 {
		c.VectorConfig.ChunkSize = 600
	}
	if c.VectorConfig.ChunkOverlap < 0 || c.VectorConfig.ChunkOverlap >= c.VectorConfig.ChunkSize {
		c.VectorConfig.ChunkOverlap = c.VectorConfig.ChunkSize / 6
	}
	if c.VectorConfig.MaxTopK <= 0 {
		c.VectorConfig.MaxTopK = 50
	}
	if strings.TrimSpace(c.VectorConfig.DefaultCollection) == "" {
		c.VectorConfig.DefaultCollection = "macro_reports"
	}
	if !strings.Contains(c.VectorConfig.YearCollectionFormat, "%s") {
		c.VectorConfig.YearCollectionFormat = "macro_report_%s"
	}
	if c.ChatConfig.MemoryWindow <= 0 {
		c.ChatConfig.MemoryWindow = 20
	}
	if c.ChatConfig.RouteTopK <= 0 {
		c.ChatConfig.RouteTopK = 5
	}
	if strings.TrimSpace(c.ChatConfig.DefaultSession) == "" {
		c.ChatConfig.DefaultSession = "demo_thread"
	}
	if c.MainConfig.ShutdownSeconds <= 0 {
		c.MainConfig.ShutdownSeconds = 10
	}
}

// Addr 监听地址
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.MainConfig.Host, c.MainConfig.Port)
}
