package vectordb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"VectorOps/internal/modules/ai/domain/entity"
	"VectorOps/internal/modules/ai/domain/repository"

	chroma "github.com/amikos-tech/chroma-go/pkg/api/v2"
	"github.com/amikos-tech/chroma-go/pkg/embeddings"
	"github.com/spf13/cast"
	"go.uber.org/zap"
)

type ChromaConfig struct {
	URL      string
	Tenant   string
	Database string
	Timeout  time.Duration
}

// ChromaEngine 通过 chroma-go v2 客户端读写，向量由本进程计算后一并提交
type ChromaEngine struct {
	client chroma.Client
	logger *zap.Logger
}

var _ repository.VectorEngine = (*ChromaEngine)(nil)

var errPrecomputedOnly = errors.New("chroma collections only accept precomputed embeddings")

// precomputedEmbeddings 占位的 embedding function，避免客户端加载默认的 ONNX 模型
type precomputedEmbeddings struct{}

func (precomputedEmbeddings) EmbedDocuments(context.Context, []string) ([]embeddings.Embedding, error) {
	return nil, errPrecomputedOnly
}

func (precomputedEmbeddings) EmbedQuery(context.Context, string) (embeddings.Embedding, error) {
	return nil, errPrecomputedOnly
}

func NewChromaEngine(cfg ChromaConfig, logger *zap.Logger) (*ChromaEngine, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.URL), "/")
	if base == "" {
		return nil, errors.New("chroma URL is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	tenant := cfg.Tenant
	if tenant == "" {
		tenant = chroma.DefaultTenant
	}
	database := cfg.Database
	if database == "" {
		database = chroma.DefaultDatabase
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	client, err := chroma.NewHTTPClient(
		chroma.WithBaseURL(base),
		chroma.WithDatabaseAndTenant(database, tenant),
		chroma.WithHTTPClient(&http.Client{Timeout: timeout}),
	)
	if err != nil {
		return nil, fmt.Errorf("creating chroma client: %w", err)
	}
	return &ChromaEngine{client: client, logger: logger}, nil
}

func (e *ChromaEngine) Name() string { return "chroma" }

func (e *ChromaEngine) Open(ctx context.Context, name string) (repository.VectorCollection, error) {
	coll, err := e.client.GetOrCreateCollection(ctx, name,
		chroma.WithEmbeddingFunctionCreate(precomputedEmbeddings{}))
	if err != nil {
		return nil, fmt.Errorf("getting or creating chroma collection %q: %w", name, err)
	}
	if coll.ID() == "" {
		return nil, fmt.Errorf("chroma returned no id for collection %q", name)
	}

	e.logger.Info("chroma collection ready",
		zap.String("collection", name),
		zap.String("collection_id", coll.ID()),
	)
	return &chromaVectorCollection{coll: coll, name: name, logger: e.logger}, nil
}

func (e *ChromaEngine) Close() error { return e.client.Close() }

type chromaVectorCollection struct {
	coll   chroma.Collection
	name   string
	logger *zap.Logger
}

func (c *chromaVectorCollection) Name() string { return c.name }

func (c *chromaVectorCollection) Upsert(ctx context.Context, docs []entity.Document, vectors [][]float32) error {
	if err := checkBatch(len(docs), len(vectors)); err != nil {
		return err
	}
	if len(docs) == 0 {
		return nil
	}

	ids := make([]chroma.DocumentID, len(docs))
	texts := make([]string, len(docs))
	metas := make([]chroma.DocumentMetadata, len(docs))
	embs := make([]embeddings.Embedding, len(docs))
	for i, d := range docs {
		ids[i] = chroma.DocumentID(d.ID)
		texts[i] = d.Text
		embs[i] = embeddings.NewEmbeddingFromFloat32(vectors[i])
		md, err := toChromaMetadata(d.Metadata)
		if err != nil {
			return fmt.Errorf("document %s: %w", d.ID, err)
		}
		metas[i] = md
	}

	err := c.coll.Upsert(ctx,
		chroma.WithIDs(ids...),
		chroma.WithTexts(texts...),
		chroma.WithMetadatas(metas...),
		chroma.WithEmbeddings(embs...),
	)
	if err != nil {
		return fmt.Errorf("upserting documents: %w", err)
	}
	c.logger.Debug("upserted documents to chroma",
		zap.String("collection", c.name),
		zap.Int("count", len(docs)),
	)
	return nil
}

func (c *chromaVectorCollection) Query(ctx context.Context, vector []float32, k int) ([]entity.RawHit, error) {
	res, err := c.coll.Query(ctx,
		chroma.WithQueryEmbeddings(embeddings.NewEmbeddingFromFloat32(vector)),
		chroma.WithNResults(k),
		chroma.WithIncludeQuery(chroma.IncludeDocuments, chroma.IncludeMetadatas, chroma.Include("distances")),
	)
	if err != nil {
		return nil, fmt.Errorf("querying: %w", err)
	}
	return chromaHits(res), nil
}

func (c *chromaVectorCollection) Count(ctx context.Context) (int, error) {
	n, err := c.coll.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("counting: %w", err)
	}
	return n, nil
}

// chromaHits 只查询了一个向量，取每个结果列表的第一组
func chromaHits(res chroma.QueryResult) []entity.RawHit {
	hits := []entity.RawHit{}
	idGroups := res.GetIDGroups()
	if len(idGroups) == 0 {
		return hits
	}
	docGroups := res.GetDocumentsGroups()
	metaGroups := res.GetMetadatasGroups()
	distGroups := res.GetDistancesGroups()

	for i, id := range idGroups[0] {
		fields := map[string]any{"id": string(id)}
		if len(docGroups) > 0 && i < len(docGroups[0]) && docGroups[0][i] != nil {
			fields["document"] = docGroups[0][i].ContentString()
		}
		if len(metaGroups) > 0 && i < len(metaGroups[0]) && metaGroups[0][i] != nil {
			if md := fromChromaMetadata(metaGroups[0][i]); md != nil {
				fields["metadata"] = md
			}
		}
		if len(distGroups) > 0 && i < len(distGroups[0]) {
			fields["distance"] = float32(distGroups[0][i])
		}
		hits = append(hits, entity.MappingHit{Fields: fields})
	}
	return hits
}

// toChromaMetadata Chroma 拒绝空 metadata 对象和 null 值，空时返回 nil
func toChromaMetadata(md entity.Metadata) (chroma.DocumentMetadata, error) {
	values := make(map[string]any, len(md))
	for k, v := range md {
		switch n := v.(type) {
		case nil:
		case int8, int16, uint, uint8, uint16, uint32, uint64:
			values[k] = cast.ToInt64(n)
		default:
			values[k] = v
		}
	}
	if len(values) == 0 {
		return nil, nil
	}
	return chroma.NewDocumentMetadataFromMap(values)
}

func fromChromaMetadata(md chroma.DocumentMetadata) map[string]any {
	raw, err := json.Marshal(md)
	if err != nil {
		return nil
	}
	out := map[string]any{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}
