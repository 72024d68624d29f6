package vectordb

import (
	"context"
	"sync"

	"VectorOps/internal/modules/ai/domain/entity"
	"VectorOps/internal/modules/ai/domain/repository"

	"github.com/cloudwego/eino/schema"
)

// MemoryEngine 进程内暴力检索，重启后数据丢失
type MemoryEngine struct {
	mu          sync.Mutex
	collections map[string]*memoryCollection
}

var _ repository.VectorEngine = (*MemoryEngine)(nil)

func NewMemoryEngine() *MemoryEngine {
	return &MemoryEngine{collections: make(map[string]*memoryCollection)}
}

func (e *MemoryEngine) Name() string { return "memory" }

func (e *MemoryEngine) Open(ctx context.Context, name string) (repository.VectorCollection, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	c, ok := e.collections[name]
	if !ok {
		c = &memoryCollection{name: name, index: make(map[string]int)}
		e.collections[name] = c
	}
	return c, nil
}

func (e *MemoryEngine) Close() error { return nil }

type memoryRecord struct {
	doc    entity.Document
	vector []float32
}

type memoryCollection struct {
	name    string
	mu      sync.RWMutex
	records []memoryRecord
	index   map[string]int // id -> records 下标
}

func (c *memoryCollection) Name() string { return c.name }

func (c *memoryCollection) Upsert(ctx context.Context, docs []entity.Document, vectors [][]float32) error {
	if err := checkBatch(len(docs), len(vectors)); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, d := range docs {
		rec := memoryRecord{doc: copyDocument(d), vector: append([]float32(nil), vectors[i]...)}
		if at, ok := c.index[d.ID]; ok {
			c.records[at] = rec
			continue
		}
		c.index[d.ID] = len(c.records)
		c.records = append(c.records, rec)
	}
	return nil
}

func (c *memoryCollection) Query(ctx context.Context, vector []float32, k int) ([]entity.RawHit, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	scores := make([]float32, len(c.records))
	for i, r := range c.records {
		scores[i] = cosineSimilarity(vector, r.vector)
	}

	best := topK(scores, k)
	hits := make([]entity.RawHit, 0, len(best))
	for _, s := range best {
		r := c.records[s.idx]
		doc := &schema.Document{ID: r.doc.ID, Content: r.doc.Text, MetaData: map[string]any{}}
		for mk, mv := range r.doc.Metadata {
			doc.MetaData[mk] = mv
		}
		hits = append(hits, entity.DocumentHit{Doc: entity.WithScore(doc, s.score)})
	}
	return hits, nil
}

func (c *memoryCollection) Count(ctx context.Context) (int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records), nil
}

func copyDocument(d entity.Document) entity.Document {
	meta := make(entity.Metadata, len(d.Metadata))
	for k, v := range d.Metadata {
		meta[k] = v
	}
	return entity.Document{ID: d.ID, Text: d.Text, Metadata: meta}
}
