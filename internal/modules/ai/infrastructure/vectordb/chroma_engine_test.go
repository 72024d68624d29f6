package vectordb

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"VectorOps/internal/modules/ai/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type chromaUpsertBody struct {
	IDs        []string         `json:"ids"`
	Documents  []string         `json:"documents"`
	Metadatas  []map[string]any `json:"metadatas"`
	Embeddings [][]float32      `json:"embeddings"`
}

// fakeChroma 只实现 chroma-go 客户端会调用到的几个端点
type fakeChroma struct {
	mu       sync.Mutex
	created  []string
	upserted chromaUpsertBody
}

func (f *fakeChroma) handler(t *testing.T) http.Handler {
	const base = "/api/v2/tenants/default_tenant/databases/default_database/collections"
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		switch {
		case r.URL.Path == "/api/v2/pre-flight-checks":
			_, _ = w.Write([]byte(`{"max_batch_size":100}`))
		case r.Method == http.MethodPost && r.URL.Path == base:
			var body struct {
				Name        string `json:"name"`
				GetOrCreate bool   `json:"get_or_create"`
			}
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.True(t, body.GetOrCreate)
			f.created = append(f.created, body.Name)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"id":       "id-" + body.Name,
				"name":     body.Name,
				"tenant":   "default_tenant",
				"database": "default_database",
			})
		case strings.HasSuffix(r.URL.Path, "/upsert"):
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&f.upserted))
			_, _ = w.Write([]byte("{}"))
		case strings.HasSuffix(r.URL.Path, "/count"):
			_, _ = w.Write([]byte(strconv.Itoa(len(f.upserted.IDs))))
		case strings.HasSuffix(r.URL.Path, "/query"):
			var body struct {
				QueryEmbeddings [][]float32 `json:"query_embeddings"`
				NResults        int         `json:"n_results"`
			}
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, [][]float32{{1, 0}}, body.QueryEmbeddings)
			assert.Equal(t, 1, body.NResults)
			_, _ = w.Write([]byte(`{"ids":[["a"]],"documents":[["alpha"]],"metadatas":[[{"tag":"x"}]],"distances":[[0.1]]}`))
		default:
			http.NotFound(w, r)
		}
	})
}

func TestChromaEngine(t *testing.T) {
	fake := &fakeChroma{}
	srv := httptest.NewServer(fake.handler(t))
	defer srv.Close()

	eng, err := NewChromaEngine(ChromaConfig{URL: srv.URL}, zap.NewNop())
	require.NoError(t, err)
	defer eng.Close()
	ctx := context.Background()

	coll, err := eng.Open(ctx, "evil_items")
	require.NoError(t, err)
	assert.Equal(t, "evil_items", coll.Name())
	assert.Equal(t, []string{"evil_items"}, fake.created)

	require.NoError(t, coll.Upsert(ctx,
		[]entity.Document{
			{ID: "a", Text: "alpha", Metadata: entity.Metadata{"tag": "x", "rank": uint8(3)}},
			{ID: "b", Text: "beta", Metadata: entity.Metadata{}},
		},
		[][]float32{{1, 0}, {0, 1}},
	))
	assert.Equal(t, []string{"a", "b"}, fake.upserted.IDs)
	assert.Equal(t, []string{"alpha", "beta"}, fake.upserted.Documents)
	assert.Equal(t, [][]float32{{1, 0}, {0, 1}}, fake.upserted.Embeddings)
	require.Len(t, fake.upserted.Metadatas, 2)
	assert.Equal(t, "x", fake.upserted.Metadatas[0]["tag"])
	assert.EqualValues(t, 3, fake.upserted.Metadatas[0]["rank"])
	assert.Nil(t, fake.upserted.Metadatas[1])

	n, err := coll.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	hits, err := coll.Query(ctx, []float32{1, 0}, 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	res, err := entity.Normalize(hits[0])
	require.NoError(t, err)
	assert.Equal(t, "a", res.ID)
	assert.Equal(t, "alpha", res.Text)
	assert.Equal(t, "x", res.Metadata["tag"])
	require.NotNil(t, res.Score)
}

func TestChromaEngineRequiresURL(t *testing.T) {
	_, err := NewChromaEngine(ChromaConfig{}, nil)
	assert.Error(t, err)
}

func TestChromaEngineOpenFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	eng, err := NewChromaEngine(ChromaConfig{URL: srv.URL}, nil)
	require.NoError(t, err)
	_, err = eng.Open(context.Background(), "reports")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reports")
}

func TestChromaEmbeddingFunctionRejectsText(t *testing.T) {
	_, err := precomputedEmbeddings{}.EmbedDocuments(context.Background(), []string{"x"})
	assert.ErrorIs(t, err, errPrecomputedOnly)
}
