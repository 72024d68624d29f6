package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"VectorOps/internal/modules/market/application/service"
	"VectorOps/internal/modules/market/domain/entity"
	"VectorOps/internal/modules/market/infrastructure/persistence"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMarketRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "market.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&entity.Stock{}, &entity.StockPrice{}))

	h := NewMarketHandler(service.NewMarketService(persistence.NewMarketRepository(db)))
	r := gin.New()
	r.POST("/stocks/", h.CreateStock)
	r.GET("/stocks/", h.ListStocks)
	r.GET("/stocks/:ticker", h.GetStock)
	r.POST("/price/", h.CreatePrice)
	r.GET("/price/:ticker", h.GetPrice)
	return r
}

func call(t *testing.T, r http.Handler, method, path, body string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return w.Code, out
}

func TestStocks(t *testing.T) {
	r := newMarketRouter(t)

	code, out := call(t, r, http.MethodPost, "/stocks/", `{"ticker":"AAPL","company_name":"Apple","sector":"Tech","founded_year":1976}`)
	assert.Equal(t, http.StatusCreated, code)
	assert.Equal(t, "Stock created successfully", out["message"])

	code, out = call(t, r, http.MethodPost, "/stocks/", `{"ticker":"AAPL"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Ticker already exists", out["message"])

	code, _ = call(t, r, http.MethodPost, "/stocks/", `{"company_name":"nameless"}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, out = call(t, r, http.MethodGet, "/stocks/", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Len(t, out["data"], 1)

	code, out = call(t, r, http.MethodGet, "/stocks/AAPL", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Apple", out["data"].(map[string]any)["company_name"])

	code, _ = call(t, r, http.MethodGet, "/stocks/MSFT", "")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestPrices(t *testing.T) {
	r := newMarketRouter(t)

	code, out := call(t, r, http.MethodGet, "/price/AAPL", "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Stock not found", out["message"])

	call(t, r, http.MethodPost, "/stocks/", `{"ticker":"AAPL"}`)
	code, out = call(t, r, http.MethodGet, "/price/AAPL", "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Price not found for the given ticker", out["message"])

	code, _ = call(t, r, http.MethodPost, "/price/", `{"ticker":"AAPL","high":200,"low":150}`)
	assert.Equal(t, http.StatusCreated, code)
	code, _ = call(t, r, http.MethodPost, "/price/", `{"ticker":"AAPL","high":1,"low":1}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, out = call(t, r, http.MethodGet, "/price/AAPL", "")
	assert.Equal(t, http.StatusOK, code)
	data := out["data"].(map[string]any)
	assert.EqualValues(t, 200, data["high"])
	assert.EqualValues(t, 150, data["low"])
}
