// Package hub implements the websocket push hub for browser clients.
// It consumes the scheduler's batched update event and fans it out to every
// connected websocket, pruning clients whose writes fail.
package hub

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/quotewire/feedsim/internal/model"
)

// batchMessage is the wire envelope sent for each scheduler iteration.
type batchMessage struct {
	Type string              `json:"type"`
	Data []model.PriceUpdate `json:"data"`
}

// Hub maintains the set of connected websocket clients.
type Hub struct {
	logger       *slog.Logger
	upgrader     websocket.Upgrader
	writeTimeout time.Duration

	mu      sync.Mutex
	clients map[uuid.UUID]*websocket.Conn
}

// New creates a new Hub.
func New(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Browser clients connect from arbitrary origins.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		writeTimeout: 5 * time.Second,
		clients:      make(map[uuid.UUID]*websocket.Conn),
	}
}

// Handler upgrades an HTTP request to a websocket and registers the client.
func (h *Hub) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := h.upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.logger.Warn("websocket upgrade failed", "error", err)
			return
		}

		id := uuid.New()
		h.mu.Lock()
		h.clients[id] = conn
		h.mu.Unlock()

		h.logger.Info("hub client connected", "remote", conn.RemoteAddr().String())

		// Inbound messages are discarded; the read loop only detects
		// disconnects.
		go h.readLoop(id, conn)
	}
}

func (h *Hub) readLoop(id uuid.UUID, conn *websocket.Conn) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			h.remove(id)
			return
		}
	}
}

func (h *Hub) remove(id uuid.UUID) {
	h.mu.Lock()
	conn, ok := h.clients[id]
	delete(h.clients, id)
	h.mu.Unlock()
	if ok {
		conn.Close()
	}
}

// PublishBatch sends one batched update event to every connected client.
// Clients whose write fails are removed and closed after the pass.
func (h *Hub) PublishBatch(updates []model.PriceUpdate) error {
	payload, err := json.Marshal(batchMessage{Type: "batch_price_update", Data: updates})
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	var dead []uuid.UUID
	for id, conn := range h.clients {
		conn.SetWriteDeadline(time.Now().Add(h.writeTimeout))
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			h.logger.Warn("dropping hub client",
				"remote", conn.RemoteAddr().String(),
				"error", err,
			)
			dead = append(dead, id)
		}
	}

	for _, id := range dead {
		h.clients[id].Close()
		delete(h.clients, id)
	}
	return nil
}

// ClientCount returns the current number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, conn := range h.clients {
		conn.Close()
		delete(h.clients, id)
	}
}
