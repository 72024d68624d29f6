package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"VectorOps/internal/modules/ai/application/service"
	"VectorOps/internal/modules/ai/domain/entity"
	"VectorOps/internal/modules/ai/infrastructure/chunking"
	"VectorOps/internal/modules/ai/infrastructure/embedding"
	"VectorOps/internal/modules/ai/infrastructure/mq"
	"VectorOps/internal/modules/ai/infrastructure/registry"
	"VectorOps/internal/modules/ai/infrastructure/vectordb"
	"VectorOps/pkg/ws"

	"github.com/cloudwego/eino/schema"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubChain struct {
	reply string
	err   error
}

func (s stubChain) Invoke(ctx context.Context, input string, _ []*schema.Message) (string, error) {
	return s.reply, s.err
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newRouter(t *testing.T, chain service.Completer) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	reg, err := registry.New(vectordb.NewMemoryEngine(), embedding.NewHashEmbedder(512), "macro_reports")
	require.NoError(t, err)
	require.NoError(t, reg.Init(context.Background()))
	t.Cleanup(func() { _ = reg.Shutdown(context.Background()) })

	ingest := service.NewIngestService(reg, chunking.NewTextChunker(600, 100), nil)
	search := service.NewSearchService(reg, 50)
	async := service.NewAsyncIngestService(reg, mq.NopPublisher{}, "vectorops.ingest.requests")
	vh := NewVectorHandler(ingest, async, service.NewAnswerService(search, chain), "macro_report_%s")
	ah := NewAdminHandler(reg, ws.NewHub(), "macro_report_%s")

	r := gin.New()
	g := r.Group("/vectors")
	g.GET("/collections", ah.Collections)
	g.POST("/:collection/ingest-text", vh.IngestText)
	g.POST("/:collection/text", vh.IngestText)
	g.POST("/:collection/document", vh.IngestDocument)
	g.POST("/:collection/ingest-items", vh.IngestItems)
	g.POST("/:collection/ingest", vh.IngestItems)
	g.GET("/:collection/search", vh.Search)
	g.POST("/:collection/search", vh.Search)
	g.GET("/:collection/compare/:other", vh.Compare)
	return r
}

func do(t *testing.T, r http.Handler, method, path, contentType string, body []byte) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w, env
}

func TestIngestItemsAndSearch(t *testing.T) {
	r := newRouter(t, stubChain{reply: "alpha it is"})

	body := []byte(`{"items":[{"id":"a","text":"alpha doc","metadata":{"tags":["x","y"]}},{"text":""}]}`)
	w, env := do(t, r, http.MethodPost, "/vectors/demo/ingest-items", "application/json", body)
	require.Equal(t, http.StatusCreated, w.Code)
	var ing struct {
		Ingested int      `json:"ingested"`
		IDs      []string `json:"ids"`
		Dropped  int      `json:"dropped"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &ing))
	assert.Equal(t, 1, ing.Ingested)
	assert.Equal(t, []string{"a"}, ing.IDs)
	assert.Equal(t, 1, ing.Dropped)

	w, env = do(t, r, http.MethodGet, "/vectors/demo/search?q=alpha&k=1", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var ans struct {
		SearchResults []entity.SearchResult `json:"search_results"`
		LLMAnswer     *string               `json:"llm_answer"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &ans))
	require.Len(t, ans.SearchResults, 1)
	assert.Equal(t, "alpha doc", ans.SearchResults[0].Text)
	assert.Equal(t, "x, y", ans.SearchResults[0].Metadata["tags"])
	require.NotNil(t, ans.LLMAnswer)
	assert.Equal(t, "alpha it is", *ans.LLMAnswer)

	w, _ = do(t, r, http.MethodPost, "/vectors/demo/search", "application/json", []byte(`{"query":"alpha"}`))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestIngestTextVariants(t *testing.T) {
	r := newRouter(t, nil)

	w, env := do(t, r, http.MethodPost, "/vectors/2023/ingest-text", "application/json", []byte(`{"text":"macro outlook"}`))
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, string(env.Data), `"ingested":1`)

	w, _ = do(t, r, http.MethodPost, "/vectors/2023/text", "text/plain", []byte("plain body report"))
	require.Equal(t, http.StatusCreated, w.Code)

	w, env = do(t, r, http.MethodPost, "/vectors/2023/text", "text/plain", []byte("   "))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 400, env.Code)

	w, env = do(t, r, http.MethodGet, "/vectors/collections", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), "macro_report_2023")
}

func TestParseTextBody(t *testing.T) {
	assert.Equal(t, "x", parseTextBody("application/json", []byte(`{"text":"x"}`)).Text)
	assert.Equal(t, "{broken", parseTextBody("application/json", []byte(`{broken`)).Text)
	assert.Equal(t, "raw", parseTextBody("text/plain", []byte("raw")).Text)
}

func TestSearchWithoutLLM(t *testing.T) {
	r := newRouter(t, stubChain{err: errors.New("model offline")})
	w, env := do(t, r, http.MethodGet, "/vectors/unseen/search?q=anything", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"search_results":[],"llm_answer":null,"llm_error":"model offline"}`, string(env.Data))
}

func TestSearchStatusMapping(t *testing.T) {
	r := newRouter(t, nil)

	w, _ := do(t, r, http.MethodGet, "/vectors/demo/search?q=a&k=0", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = do(t, r, http.MethodGet, "/vectors/demo/search?q=a&k=abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = do(t, r, http.MethodGet, "/vectors/bad.name/search?q=a", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env := do(t, r, http.MethodGet, "/vectors/2022/compare/2023", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, 503, env.Code)
}

func TestCompareEndpoint(t *testing.T) {
	r := newRouter(t, stubChain{reply: "different"})
	w, env := do(t, r, http.MethodGet, "/vectors/2022/compare/2023?k=2", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var out struct {
		CollectionA string `json:"collection_a"`
		CollectionB string `json:"collection_b"`
		Query       string `json:"query"`
		Comparison  string `json:"comparison"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &out))
	assert.Equal(t, "macro_report_2022", out.CollectionA)
	assert.Equal(t, "macro_report_2023", out.CollectionB)
	assert.Equal(t, "macro report", out.Query)
	assert.Equal(t, "different", out.Comparison)
}

func TestAsyncIngest(t *testing.T) {
	r := newRouter(t, nil)
	w, env := do(t, r, http.MethodPost, "/vectors/demo/ingest?async=true", "application/json", []byte(`{"items":[{"text":"later"}]}`))
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Contains(t, string(env.Data), `"collection":"demo"`)
}

func TestIngestDocumentEndpoint(t *testing.T) {
	r := newRouter(t, nil)
	w, env := do(t, r, http.MethodPost, "/vectors/2024/document", "application/json", []byte(`{"text":"full report","id":"r-2024"}`))
	require.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"id":"r-2024"}`, string(env.Data))

	w, _ = do(t, r, http.MethodPost, "/vectors/2024/document", "application/json", []byte(`{"text":""}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCollectionsReportsSubscribers(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reg, err := registry.New(vectordb.NewMemoryEngine(), embedding.NewHashEmbedder(64), "macro_reports")
	require.NoError(t, err)
	require.NoError(t, reg.Init(context.Background()))
	t.Cleanup(func() { _ = reg.Shutdown(context.Background()) })

	ah := NewAdminHandler(reg, ws.NewHub(), "macro_report_%s")
	r := gin.New()
	r.GET("/vectors/collections", ah.Collections)
	r.GET("/vectors/events/ws", ah.Events)
	srv := httptest.NewServer(r)
	defer srv.Close()

	// Eventually 在别的 goroutine 里跑条件，这里出错只返回 -1
	subscribers := func() int {
		resp, err := http.Get(srv.URL + "/vectors/collections")
		if err != nil {
			return -1
		}
		defer resp.Body.Close()
		var env envelope
		if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
			return -1
		}
		var data struct {
			Subscribers int `json:"subscribers"`
		}
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return -1
		}
		return data.Subscribers
	}
	assert.Equal(t, 0, subscribers())

	base := "ws" + strings.TrimPrefix(srv.URL, "http") + "/vectors/events/ws"
	all, _, err := websocket.DefaultDialer.Dial(base, nil)
	require.NoError(t, err)
	defer all.Close()
	one, _, err := websocket.DefaultDialer.Dial(base+"?collection=macro_reports", nil)
	require.NoError(t, err)
	defer one.Close()

	assert.Eventually(t, func() bool { return subscribers() == 2 }, 2*time.Second, 20*time.Millisecond)
}
