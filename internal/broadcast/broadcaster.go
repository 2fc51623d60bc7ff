// Package broadcast implements the line-oriented TCP fan-out server.
//
// Delivery is best effort: a client whose write fails is dropped from the
// live set and must reconnect. One client's failure never affects delivery
// to the others.
package broadcast

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Config holds broadcaster configuration.
type Config struct {
	Addr         string        // Listen address (e.g., ":8080")
	WriteTimeout time.Duration // Per-client write deadline
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Addr:         ":8080",
		WriteTimeout: 5 * time.Second,
	}
}

// Broadcaster accepts TCP connections and delivers formatted messages to
// every currently-connected client.
type Broadcaster struct {
	cfg    Config
	logger *slog.Logger

	ln      net.Listener
	running atomic.Bool

	mu      sync.Mutex
	clients map[uuid.UUID]net.Conn

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a new Broadcaster.
func New(cfg Config, logger *slog.Logger) *Broadcaster {
	if logger == nil {
		logger = slog.Default()
	}
	return &Broadcaster{
		cfg:     cfg,
		logger:  logger,
		clients: make(map[uuid.UUID]net.Conn),
	}
}

// Start binds the configured address and begins accepting clients.
// A bind failure is the only error surfaced to the caller.
func (b *Broadcaster) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", b.cfg.Addr)
	if err != nil {
		return fmt.Errorf("bind tcp listener on %s: %w", b.cfg.Addr, err)
	}
	b.ln = ln
	b.ctx, b.cancel = context.WithCancel(ctx)
	b.running.Store(true)

	b.wg.Add(1)
	go b.acceptLoop()

	b.logger.Info("tcp broadcaster started", "addr", ln.Addr().String())
	return nil
}

// acceptLoop accepts connections until the listener closes.
func (b *Broadcaster) acceptLoop() {
	defer b.wg.Done()

	for {
		conn, err := b.ln.Accept()
		if err != nil {
			// A closed listener ends the loop without raising an error.
			if errors.Is(err, net.ErrClosed) || b.ctx.Err() != nil {
				return
			}
			b.logger.Error("error accepting tcp client", "error", err)
			continue
		}

		id := uuid.New()
		b.mu.Lock()
		b.clients[id] = conn
		b.mu.Unlock()

		b.logger.Info("tcp client connected", "remote", conn.RemoteAddr().String())
	}
}

// Broadcast delivers payload, newline-terminated, to every live client.
// Clients whose write fails are removed from the set and closed after the
// write pass completes.
func (b *Broadcaster) Broadcast(payload string) {
	data := []byte(payload + "\n")

	b.mu.Lock()
	defer b.mu.Unlock()

	var dead []uuid.UUID
	for id, conn := range b.clients {
		if b.cfg.WriteTimeout > 0 {
			conn.SetWriteDeadline(time.Now().Add(b.cfg.WriteTimeout))
		}
		if _, err := conn.Write(data); err != nil {
			b.logger.Warn("dropping tcp client",
				"remote", conn.RemoteAddr().String(),
				"error", err,
			)
			dead = append(dead, id)
		}
	}

	for _, id := range dead {
		b.clients[id].Close()
		delete(b.clients, id)
	}
}

// Stop cancels the accept loop, closes the listener, and closes and clears
// every live client.
func (b *Broadcaster) Stop(ctx context.Context) error {
	b.running.Store(false)
	if b.cancel != nil {
		b.cancel()
	}
	if b.ln != nil {
		b.ln.Close()
	}

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	b.mu.Lock()
	for _, conn := range b.clients {
		conn.Close()
	}
	b.clients = make(map[uuid.UUID]net.Conn)
	b.mu.Unlock()

	b.logger.Info("tcp broadcaster stopped")
	return nil
}

// IsRunning reports whether the listener is open and the accept loop has not
// been cancelled.
func (b *Broadcaster) IsRunning() bool {
	return b.running.Load()
}

// Addr returns the bound listener address, or nil before Start.
func (b *Broadcaster) Addr() net.Addr {
	if b.ln == nil {
		return nil
	}
	return b.ln.Addr()
}

// ClientCount returns the current number of live clients.
func (b *Broadcaster) ClientCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.clients)
}
