package initial

import (
	"context"
	"errors"
	"strings"

	"VectorOps/internal/config"

	mclient "github.com/milvus-io/milvus-sdk-go/v2/client"
)

// NewMilvusClient 连接 milvus，目标库不存在时先在 default 库中创建
func NewMilvusClient(ctx context.Context, mc config.MilvusConfig) (mclient.Client, error) {
	addr := strings.TrimSpace(mc.Address)
	if addr == "" {
		return nil, errors.New("milvus address is empty")
	}
	dbName := strings.TrimSpace(mc.DBName)
	if dbName == "" {
		dbName = "vectorops"
	}

	defaultCli, err := mclient.NewClient(ctx, mclient.Config{
		Address:  addr,
		Username: strings.TrimSpace(mc.Username),
		Password: strings.TrimSpace(mc.Password),
		DBName:   "default",
	})
	if err != nil {
		return nil, err
	}
	defer defaultCli.Close()

	dbs, err := defaultCli.ListDatabases(ctx)
	if err != nil {
		return nil, err
	}
	exists := false
	for _, db := range dbs {
		if db.Name == dbName {
			exists = true
			break
		}
	}
	if !exists {
		if err := defaultCli.CreateDatabase(ctx, dbName); err != nil {
			return nil, err
		}
	}

	return mclient.NewClient(ctx, mclient.Config{
		Address:  addr,
		Username: strings.TrimSpace(mc.Username),
		Password: strings.TrimSpace(mc.Password),
		DBName:   dbName,
	})
}
