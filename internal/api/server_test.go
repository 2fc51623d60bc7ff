package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quotewire/feedsim/internal/store"
)

type stubTCP struct {
	running bool
}

func (s stubTCP) IsRunning() bool { return s.running }

type stubPlugins struct {
	n int
}

func (s stubPlugins) Count() int { return s.n }

func seededStore(t *testing.T) *store.Store {
	t.Helper()

	st := store.New()
	now := time.Now().UTC()
	seeds := map[string]string{
		"AAPL":  "150.00",
		"MSFT":  "300.00",
		"GOOGL": "2500.00",
		"TSLA":  "800.00",
		"AMZN":  "3200.00",
	}
	for sym, price := range seeds {
		p := decimal.RequireFromString(price)
		st.Upsert(sym, p, now)
		st.AppendHistory(sym, p, now)
	}
	return st
}

func testRouter(st *store.Store, tcp BroadcasterStatus, plugins PluginStatus) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return NewServer(st, tcp, plugins, nil, 5, nil).Router()
}

func doRequest(router *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	router.ServeHTTP(w, req)
	return w
}

func TestGetCurrentPrices(t *testing.T) {
	router := testRouter(seededStore(t), stubTCP{running: true}, stubPlugins{n: 2})

	w := doRequest(router, "/api/stocks/current")
	require.Equal(t, http.StatusOK, w.Code)

	var prices []struct {
		Symbol string `json:"symbol"`
		Price  string `json:"price"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &prices))
	assert.Len(t, prices, 5)
}

func TestGetCurrentPrice(t *testing.T) {
	router := testRouter(seededStore(t), stubTCP{running: true}, stubPlugins{n: 2})

	// Lowercase symbols are normalized.
	w := doRequest(router, "/api/stocks/aapl/current")
	require.Equal(t, http.StatusOK, w.Code)

	var price struct {
		Symbol string `json:"symbol"`
		Price  string `json:"price"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &price))
	assert.Equal(t, "AAPL", price.Symbol)
	assert.Equal(t, "150", price.Price)
}

func TestGetCurrentPrice_NotFound(t *testing.T) {
	router := testRouter(seededStore(t), stubTCP{running: true}, stubPlugins{n: 2})

	w := doRequest(router, "/api/stocks/NOPE/current")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "NOPE")
}

func TestGetPriceHistory(t *testing.T) {
	router := testRouter(seededStore(t), stubTCP{running: true}, stubPlugins{n: 2})

	w := doRequest(router, "/api/stocks/MSFT/history")
	require.Equal(t, http.StatusOK, w.Code)

	var snap struct {
		Symbol  string `json:"symbol"`
		History []struct {
			Symbol string `json:"symbol"`
		} `json:"history"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.Equal(t, "MSFT", snap.Symbol)
	assert.Len(t, snap.History, 1)
}

func TestGetPriceHistory_NotFound(t *testing.T) {
	router := testRouter(seededStore(t), stubTCP{running: true}, stubPlugins{n: 2})

	w := doRequest(router, "/api/stocks/NOPE/history")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetHealth_OK(t *testing.T) {
	router := testRouter(seededStore(t), stubTCP{running: true}, stubPlugins{n: 2})

	w := doRequest(router, "/health")
	require.Equal(t, http.StatusOK, w.Code)

	var health struct {
		Status      string `json:"status"`
		StockCount  int    `json:"stock_count"`
		TCPRunning  bool   `json:"tcp_running"`
		PluginCount int    `json:"plugin_count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, 5, health.StockCount)
	assert.True(t, health.TCPRunning)
	assert.Equal(t, 2, health.PluginCount)
}

func TestGetHealth_Degraded(t *testing.T) {
	// No plugins loaded: degraded.
	router := testRouter(seededStore(t), stubTCP{running: true}, stubPlugins{n: 0})

	w := doRequest(router, "/health")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "degraded")
}
