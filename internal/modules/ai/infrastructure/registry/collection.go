package registry

import (
	"context"
	"fmt"

	"VectorOps/internal/modules/ai/domain/entity"
	"VectorOps/internal/modules/ai/domain/repository"
	aiEmbedding "VectorOps/internal/modules/ai/infrastructure/embedding"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/cloudwego/eino/components/retriever"
	"github.com/cloudwego/eino/schema"
)

const defaultRetrieveTopK = 4

// Collection 注册表持有的集合句柄：共享的 Embedder + 引擎集合
type Collection struct {
	name     string
	coll     repository.VectorCollection
	embedder embedding.Embedder
}

var _ retriever.Retriever = (*Collection)(nil)

func (c *Collection) Name() string { return c.name }

// Add 向量化并写入；批内重复 id 只保留最后一条
func (c *Collection) Add(ctx context.Context, docs []entity.Document) error {
	docs = entity.DedupeByID(docs)
	if len(docs) == 0 {
		return nil
	}

	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.Text
	}
	vecs, err := c.embedder.EmbedStrings(ctx, texts)
	if err != nil {
		return entity.NewEngineError("embed", c.name, err)
	}
	if len(vecs) != len(docs) {
		return entity.NewEngineError("embed", c.name, fmt.Errorf("got %d vectors for %d documents", len(vecs), len(docs)))
	}

	if err := c.coll.Upsert(ctx, docs, aiEmbedding.ToFloat32(vecs)); err != nil {
		return entity.NewEngineError("ingest", c.name, err)
	}
	return nil
}

// Similar 返回引擎原始命中，顺序即相似度顺序
func (c *Collection) Similar(ctx context.Context, query string, k int) ([]entity.RawHit, error) {
	vecs, err := c.embedder.EmbedStrings(ctx, []string{query})
	if err != nil {
		return nil, entity.NewEngineError("embed", c.name, err)
	}
	if len(vecs) == 0 {
		return nil, entity.NewEngineError("embed", c.name, fmt.Errorf("embedding result is empty"))
	}
	hits, err := c.coll.Query(ctx, aiEmbedding.ToFloat32(vecs)[0], k)
	if err != nil {
		return nil, entity.NewEngineError("search", c.name, err)
	}
	return hits, nil
}

func (c *Collection) Count(ctx context.Context) (int, error) {
	n, err := c.coll.Count(ctx)
	if err != nil {
		return 0, entity.NewEngineError("count", c.name, err)
	}
	return n, nil
}

// Retrieve 实现 eino retriever.Retriever，供 compose 图直接使用
func (c *Collection) Retrieve(ctx context.Context, query string, opts ...retriever.Option) ([]*schema.Document, error) {
	k := defaultRetrieveTopK
	o := retriever.GetCommonOptions(&retriever.Options{TopK: &k}, opts...)
	if o.TopK != nil && *o.TopK > 0 {
		k = *o.TopK
	}

	hits, err := c.Similar(ctx, query, k)
	if err != nil {
		return nil, err
	}
	results, err := entity.NormalizeAll(hits)
	if err != nil {
		return nil, err
	}

	docs := make([]*schema.Document, 0, len(results))
	for _, r := range results {
		d := &schema.Document{ID: r.ID, Content: r.Text, MetaData: map[string]any{}}
		for mk, mv := range r.Metadata {
			d.MetaData[mk] = mv
		}
		if r.Score != nil {
			d = d.WithScore(float64(*r.Score))
		}
		docs = append(docs, d)
	}
	return docs, nil
}
