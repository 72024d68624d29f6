package repository

import (
	"context"

	"VectorOps/internal/modules/ai/domain/entity"
)

// VectorEngine 是 domain 层定义的“向量库能力抽象”。
//
// 所有集合共用一个引擎实例（同一个存储位置）；Open 对同名集合可能被调用多次，
// 实现需要保证幂等（已存在则直接打开）。application 层只通过 Registry 获取集合。
type VectorEngine interface {
	Name() string
	Open(ctx context.Context, collection string) (VectorCollection, error)
	Close() error
}

// VectorCollection 单个集合。Upsert 以 ID 去重：同 ID 覆盖旧记录，一批写入要么全部可见要么全部不可见。
type VectorCollection interface {
	Name() string
	Upsert(ctx context.Context, docs []entity.Document, vectors [][]float32) error
	Query(ctx context.Context, vector []float32, topK int) ([]entity.RawHit, error)
	Count(ctx context.Context) (int, error)
}
