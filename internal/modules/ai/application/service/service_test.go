package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"VectorOps/internal/modules/ai/domain/entity"
	"VectorOps/internal/modules/ai/domain/repository"
	"VectorOps/internal/modules/ai/infrastructure/chunking"
	"VectorOps/internal/modules/ai/infrastructure/embedding"
	"VectorOps/internal/modules/ai/infrastructure/registry"
	"VectorOps/internal/modules/ai/infrastructure/vectordb"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/require"
)

// spyEngine 统计引擎调用，可注入写入或查询失败
type spyEngine struct {
	repository.VectorEngine
	opens     atomic.Int32
	upserts   atomic.Int32
	upsertErr error
	queryErr  error
}

func (e *spyEngine) Open(ctx context.Context, name string) (repository.VectorCollection, error) {
	e.opens.Add(1)
	c, err := e.VectorEngine.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	return &spyCollection{VectorCollection: c, engine: e}, nil
}

type spyCollection struct {
	repository.VectorCollection
	engine *spyEngine
}

func (c *spyCollection) Upsert(ctx context.Context, docs []entity.Document, vectors [][]float32) error {
	c.engine.upserts.Add(1)
	if c.engine.upsertErr != nil {
		return c.engine.upsertErr
	}
	return c.VectorCollection.Upsert(ctx, docs, vectors)
}

func (c *spyCollection) Query(ctx context.Context, vector []float32, k int) ([]entity.RawHit, error) {
	if c.engine.queryErr != nil {
		return nil, c.engine.queryErr
	}
	return c.VectorCollection.Query(ctx, vector, k)
}

type recordingSink struct {
	mu     sync.Mutex
	events []entity.IngestEvent
}

func (s *recordingSink) IngestCompleted(ctx context.Context, ev entity.IngestEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
}

type fixture struct {
	engine *spyEngine
	reg    *registry.Registry
	sink   *recordingSink
	ingest IngestService
	search SearchService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	eng := &spyEngine{VectorEngine: vectordb.NewMemoryEngine()}
	reg, err := registry.New(eng, embedding.NewHashEmbedder(1024), "macro_reports")
	require.NoError(t, err)
	require.NoError(t, reg.Init(context.Background()))
	t.Cleanup(func() { _ = reg.Shutdown(context.Background()) })

	sink := &recordingSink{}
	return &fixture{
		engine: eng,
		reg:    reg,
		sink:   sink,
		ingest: NewIngestService(reg, chunking.NewTextChunker(600, 100), sink),
		search: NewSearchService(reg, 50),
	}
}

// scriptedChain 记录提示词，按需返回错误
type scriptedChain struct {
	reply   string
	err     error
	prompts []string
}

func (c *scriptedChain) Invoke(ctx context.Context, input string, _ []*schema.Message) (string, error) {
	c.prompts = append(c.prompts, input)
	if c.err != nil {
		return "", c.err
	}
	return c.reply, nil
}

var errBoom = errors.New("boom")

func longText(paragraphs int) string {
	var sb strings.Builder
	for i := 0; i < paragraphs; i++ {
		sb.WriteString(strings.Repeat("inflation growth rates policy ", 12))
		sb.WriteString("\n\n")
	}
	return sb.String()
}
