package vectordb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"VectorOps/internal/modules/ai/domain/entity"
	"VectorOps/internal/modules/ai/domain/repository"

	mclient "github.com/milvus-io/milvus-sdk-go/v2/client"
	mentity "github.com/milvus-io/milvus-sdk-go/v2/entity"
)

const (
	milvusVectorField  = "vector"
	milvusContentLimit = 65535
)

var milvusNameReplacer = regexp.MustCompile(`[^A-Za-z0-9_]`)

// MilvusEngine 每个逻辑集合对应一个 Milvus collection，首次打开时建表建索引
type MilvusEngine struct {
	cli         mclient.Client
	prefix      string
	vectorDim   int
	metricType  mentity.MetricType
	searchParam mentity.SearchParam
}

var _ repository.VectorEngine = (*MilvusEngine)(nil)

func NewMilvusEngine(cli mclient.Client, prefix string, vectorDim int, metricType string) (*MilvusEngine, error) {
	if cli == nil {
		return nil, errors.New("milvus client is nil")
	}
	if vectorDim <= 0 {
		return nil, fmt.Errorf("invalid vectorDim: %d", vectorDim)
	}
	sp, err := mentity.NewIndexAUTOINDEXSearchParam(1)
	if err != nil {
		return nil, err
	}
	return &MilvusEngine{
		cli:         cli,
		prefix:      prefix,
		vectorDim:   vectorDim,
		metricType:  parseMetric(metricType),
		searchParam: sp,
	}, nil
}

func parseMetric(s string) mentity.MetricType {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "L2":
		return mentity.L2
	case "IP":
		return mentity.IP
	default:
		return mentity.COSINE
	}
}

// PhysicalName Milvus 只允许字母数字下划线，且不能以数字开头
func (e *MilvusEngine) PhysicalName(name string) string {
	n := milvusNameReplacer.ReplaceAllString(e.prefix+name, "_")
	if n == "" || (n[0] >= '0' && n[0] <= '9') {
		n = "c_" + n
	}
	return n
}

func (e *MilvusEngine) Name() string { return "milvus" }

func (e *MilvusEngine) Open(ctx context.Context, name string) (repository.VectorCollection, error) {
	physical := e.PhysicalName(name)
	exists, err := e.cli.HasCollection(ctx, physical)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err := e.createCollection(ctx, physical, name); err != nil {
			return nil, err
		}
	}
	if err := e.cli.LoadCollection(ctx, physical, false); err != nil {
		return nil, fmt.Errorf("load collection %s: %w", physical, err)
	}
	return &milvusCollection{engine: e, name: name, physical: physical}, nil
}

func (e *MilvusEngine) createCollection(ctx context.Context, physical, logical string) error {
	schema := &mentity.Schema{
		CollectionName: physical,
		Description:    "VectorOps collection " + logical,
		Fields: []*mentity.Field{
			{
				Name:       "id",
				DataType:   mentity.FieldTypeVarChar,
				PrimaryKey: true,
				TypeParams: map[string]string{"max_length": "256"},
			},
			{
				Name:       milvusVectorField,
				DataType:   mentity.FieldTypeFloatVector,
				TypeParams: map[string]string{mentity.TypeParamDim: strconv.Itoa(e.vectorDim)},
			},
			{
				Name:       "content",
				DataType:   mentity.FieldTypeVarChar,
				TypeParams: map[string]string{"max_length": strconv.Itoa(milvusContentLimit)},
			},
			{
				Name:     "metadata",
				DataType: mentity.FieldTypeJSON,
			},
		},
	}
	if err := e.cli.CreateCollection(ctx, schema, mentity.DefaultShardNumber); err != nil {
		return fmt.Errorf("create collection %s: %w", physical, err)
	}

	idx, err := mentity.NewIndexAUTOINDEX(e.metricType)
	if err != nil {
		return err
	}
	if err := e.cli.CreateIndex(ctx, physical, milvusVectorField, idx, false); err != nil {
		return fmt.Errorf("create index on %s: %w", physical, err)
	}
	return nil
}

func (e *MilvusEngine) Close() error {
	return e.cli.Close()
}

type milvusCollection struct {
	engine   *MilvusEngine
	name     string
	physical string
}

func (c *milvusCollection) Name() string { return c.name }

func (c *milvusCollection) Upsert(ctx context.Context, docs []entity.Document, vectors [][]float32) error {
	if err := checkBatch(len(docs), len(vectors)); err != nil {
		return err
	}
	if len(docs) == 0 {
		return nil
	}

	ids := make([]string, 0, len(docs))
	contents := make([]string, 0, len(docs))
	metas := make([][]byte, 0, len(docs))
	for i, d := range docs {
		if len(vectors[i]) != c.engine.vectorDim {
			return fmt.Errorf("vector dim mismatch for id=%s, got=%d want=%d", d.ID, len(vectors[i]), c.engine.vectorDim)
		}
		meta, err := json.Marshal(d.Metadata)
		if err != nil {
			return fmt.Errorf("encode metadata for %s: %w", d.ID, err)
		}
		ids = append(ids, d.ID)
		contents = append(contents, d.Text)
		metas = append(metas, meta)
	}

	_, err := c.engine.cli.Upsert(
		ctx,
		c.physical,
		"",
		mentity.NewColumnVarChar("id", ids),
		mentity.NewColumnFloatVector(milvusVectorField, c.engine.vectorDim, vectors),
		mentity.NewColumnVarChar("content", contents),
		mentity.NewColumnJSONBytes("metadata", metas),
	)
	return err
}

func (c *milvusCollection) Query(ctx context.Context, vector []float32, k int) ([]entity.RawHit, error) {
	if len(vector) != c.engine.vectorDim {
		return nil, fmt.Errorf("vector dim mismatch, got=%d want=%d", len(vector), c.engine.vectorDim)
	}
	res, err := c.engine.cli.Search(
		ctx,
		c.physical,
		[]string{},
		"",
		[]string{"content", "metadata"},
		[]mentity.Vector{mentity.FloatVector(vector)},
		milvusVectorField,
		c.engine.metricType,
		k,
		c.engine.searchParam,
	)
	if err != nil {
		return nil, err
	}
	if len(res) == 0 {
		return []entity.RawHit{}, nil
	}
	return parseSearchResult(res[0])
}

func (c *milvusCollection) Count(ctx context.Context) (int, error) {
	stats, err := c.engine.cli.GetCollectionStatistics(ctx, c.physical)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(stats["row_count"])
}

func parseSearchResult(sr mclient.SearchResult) ([]entity.RawHit, error) {
	if sr.Err != nil {
		return nil, sr.Err
	}
	hits := make([]entity.RawHit, 0, sr.ResultCount)

	contentCol := columnByName(sr.Fields, "content")
	metaCol := columnByName(sr.Fields, "metadata")

	for i := 0; i < sr.ResultCount; i++ {
		id, _ := sr.IDs.GetAsString(i)
		score := float32(0)
		if i < len(sr.Scores) {
			score = sr.Scores[i]
		}

		doc := entity.Document{ID: id, Metadata: entity.Metadata{}}
		if contentCol != nil {
			v, _ := contentCol.GetAsString(i)
			doc.Text = v
		}
		if metaCol != nil {
			v, _ := metaCol.Get(i)
			if bs, ok := v.([]byte); ok && len(bs) > 0 {
				_ = json.Unmarshal(bs, &doc.Metadata)
			}
		}
		hits = append(hits, entity.ScoredHit{Doc: doc, Score: score})
	}

	return hits, nil
}

func columnByName(cols mclient.ResultSet, name string) mentity.Column {
	for _, c := range cols {
		if c != nil && c.Name() == name {
			return c
		}
	}
	return nil
}
