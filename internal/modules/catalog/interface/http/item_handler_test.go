package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"VectorOps/internal/modules/catalog/application/service"
	"VectorOps/internal/modules/catalog/infrastructure/memory"

	"github.com/cloudwego/eino/schema"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cannedChain struct {
	reply string
	err   error
}

func (c cannedChain) Invoke(ctx context.Context, input string, _ []*schema.Message) (string, error) {
	return c.reply, c.err
}

func newItemRouter(chain service.Completer) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewItemHandler(service.NewItemService(memory.NewItemStore(memory.DefaultItems()...), chain))
	r := gin.New()
	g := r.Group("/items")
	g.GET("/", h.List)
	g.GET("/some_items", h.SomeItems)
	g.GET("/recommendations", h.Recommendations)
	g.PATCH("/:id/decrement_from_inventory/:amount", h.Decrement)
	return r
}

func hit(t *testing.T, r http.Handler, method, path string) (int, map[string]any) {
	t.Helper()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return w.Code, out
}

func TestListAndSomeItems(t *testing.T) {
	r := newItemRouter(nil)

	code, out := hit(t, r, http.MethodGet, "/items/")
	assert.Equal(t, http.StatusOK, code)
	assert.Len(t, out["data"], 3)

	_, out = hit(t, r, http.MethodGet, "/items/some_items")
	assert.Len(t, out["data"], 1)

	_, out = hit(t, r, http.MethodGet, "/items/some_items?limit=2")
	items := out["data"].([]any)
	require.Len(t, items, 2)
	assert.Equal(t, "Cauliflowerizer", items[1].(map[string]any)["name"])

	code, _ = hit(t, r, http.MethodGet, "/items/some_items?limit=-1")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestDecrement(t *testing.T) {
	r := newItemRouter(nil)

	code, out := hit(t, r, http.MethodPatch, "/items/3/decrement_from_inventory/2")
	assert.Equal(t, http.StatusOK, code)
	data := out["data"].(map[string]any)
	assert.EqualValues(t, 0, data["inventory"])
	assert.Equal(t, "Item with ID Moon Vaporizer inventory successfully updated!", data["message"])

	code, out = hit(t, r, http.MethodPatch, "/items/3/decrement_from_inventory/1")
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "Item with ID 3 has insufficient inventory.", out["message"])

	code, _ = hit(t, r, http.MethodPatch, "/items/42/decrement_from_inventory/1")
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = hit(t, r, http.MethodPatch, "/items/abc/decrement_from_inventory/1")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestRecommendations(t *testing.T) {
	reply := "Sure!\n```json\n{\"items\":[{\"id\":7,\"name\":\"Freeze Ray\",\"description\":\"Freezes anything in sight\",\"inventory\":10,\"price\":999.5}]}\n```"
	code, out := hit(t, newItemRouter(cannedChain{reply: reply}), http.MethodGet, "/items/recommendations?amount=1")
	assert.Equal(t, http.StatusOK, code)
	items := out["data"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, "Freeze Ray", items[0].(map[string]any)["name"])

	bad := `{"items":[{"id":0,"name":"X","description":"short","inventory":500,"price":-1}]}`
	code, _ = hit(t, newItemRouter(cannedChain{reply: bad}), http.MethodGet, "/items/recommendations")
	assert.Equal(t, http.StatusServiceUnavailable, code)

	code, _ = hit(t, newItemRouter(cannedChain{err: errors.New("down")}), http.MethodGet, "/items/recommendations")
	assert.Equal(t, http.StatusServiceUnavailable, code)

	code, _ = hit(t, newItemRouter(nil), http.MethodGet, "/items/recommendations")
	assert.Equal(t, http.StatusServiceUnavailable, code)

	code, _ = hit(t, newItemRouter(nil), http.MethodGet, "/items/recommendations?amount=0")
	assert.Equal(t, http.StatusBadRequest, code)
}
