package initial

import (
	"context"
	"fmt"
	"strings"

	"VectorOps/internal/config"
	"VectorOps/internal/modules/ai/domain/repository"
	"VectorOps/internal/modules/ai/infrastructure/vectordb"
	"VectorOps/pkg/zlog"

	"gorm.io/gorm"
)

// NewVectorEngine 按 vectorConfig.engine 选择存储后端，所有集合共用一个引擎
func NewVectorEngine(ctx context.Context, conf *config.Config, db *gorm.DB, dim int) (repository.VectorEngine, error) {
	switch strings.ToLower(strings.TrimSpace(conf.VectorConfig.Engine)) {
	case "memory":
		return vectordb.NewMemoryEngine(), nil

	case "", "local":
		if dir := strings.TrimSpace(conf.VectorConfig.PersistDirectory); dir != "" {
			return vectordb.NewLocalEngineAt(dir)
		}
		return vectordb.NewLocalEngine(db)

	case "milvus":
		cli, err := NewMilvusClient(ctx, conf.MilvusConfig)
		if err != nil {
			return nil, fmt.Errorf("milvus init failed: %w", err)
		}
		eng, err := vectordb.NewMilvusEngine(cli, conf.MilvusConfig.CollectionPrefix, dim, conf.MilvusConfig.MetricType)
		if err != nil {
			_ = cli.Close()
			return nil, err
		}
		return eng, nil

	case "chroma":
		return vectordb.NewChromaEngine(vectordb.ChromaConfig{
			URL:      conf.ChromaConfig.URL,
			Tenant:   conf.ChromaConfig.Tenant,
			Database: conf.ChromaConfig.Database,
		}, zlog.L())

	default:
		return nil, fmt.Errorf("unknown vector engine: %s", conf.VectorConfig.Engine)
	}
}
