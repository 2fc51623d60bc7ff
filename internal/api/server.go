// Package api exposes the read-only HTTP query surface over the price store,
// the health endpoint, and the websocket hub endpoint.
package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/quotewire/feedsim/internal/model"
	"github.com/quotewire/feedsim/internal/store"
)

// BroadcasterStatus reports whether the TCP fan-out is running.
type BroadcasterStatus interface {
	IsRunning() bool
}

// PluginStatus reports how many formatters are currently loaded.
type PluginStatus interface {
	Count() int
}

// Server wires the HTTP handlers.
type Server struct {
	store           *store.Store
	tcp             BroadcasterStatus
	pluginsStatus   PluginStatus
	hubHandler      http.HandlerFunc
	expectedSymbols int
	logger          *slog.Logger
}

// NewServer creates the API server. hubHandler may be nil when no push hub
// is wired.
func NewServer(st *store.Store, tcp BroadcasterStatus, plugins PluginStatus, hubHandler http.HandlerFunc, expectedSymbols int, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		store:           st,
		tcp:             tcp,
		pluginsStatus:   plugins,
		hubHandler:      hubHandler,
		expectedSymbols: expectedSymbols,
		logger:          logger,
	}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	stocks := r.Group("/api/stocks")
	{
		stocks.GET("/current", s.getCurrentPrices)
		stocks.GET("/:symbol/current", s.getCurrentPrice)
		stocks.GET("/:symbol/history", s.getPriceHistory)
	}

	r.GET("/health", s.getHealth)

	if s.hubHandler != nil {
		r.GET("/ws/prices", gin.WrapF(s.hubHandler))
	}

	return r
}

// getCurrentPrices returns the current price of every tracked instrument.
func (s *Server) getCurrentPrices(c *gin.Context) {
	instruments := s.store.All()
	prices := make([]model.PriceUpdate, 0, len(instruments))
	for _, inst := range instruments {
		prices = append(prices, model.PriceUpdate{
			Symbol:    inst.Symbol,
			Price:     inst.Price,
			Timestamp: inst.UpdatedAt,
		})
	}
	c.JSON(http.StatusOK, prices)
}

// getCurrentPrice returns one symbol's current price.
func (s *Server) getCurrentPrice(c *gin.Context) {
	symbol := strings.ToUpper(c.Param("symbol"))

	inst, ok := s.store.Get(symbol)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "stock " + symbol + " not found"})
		return
	}

	c.JSON(http.StatusOK, model.PriceUpdate{
		Symbol:    inst.Symbol,
		Price:     inst.Price,
		Timestamp: inst.UpdatedAt,
	})
}

// getPriceHistory returns one symbol's current price plus up to 10 most
// recent history entries.
func (s *Server) getPriceHistory(c *gin.Context) {
	symbol := strings.ToUpper(c.Param("symbol"))

	snap, err := s.store.Snapshot(symbol)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "stock " + symbol + " not found"})
		return
	}

	c.JSON(http.StatusOK, snap)
}

// getHealth reports component status: store seeded, TCP server running,
// plugins loaded.
func (s *Server) getHealth(c *gin.Context) {
	stockCount := s.store.Count()
	tcpRunning := s.tcp != nil && s.tcp.IsRunning()
	pluginCount := 0
	if s.pluginsStatus != nil {
		pluginCount = s.pluginsStatus.Count()
	}

	healthy := stockCount == s.expectedSymbols && tcpRunning && pluginCount > 0

	status := "ok"
	code := http.StatusOK
	if !healthy {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	c.JSON(code, gin.H{
		"status":       status,
		"stock_count":  stockCount,
		"tcp_running":  tcpRunning,
		"plugin_count": pluginCount,
	})
}
