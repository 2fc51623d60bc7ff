// Package scheduler drives the periodic price simulation: on each interval it
// mutates every tracked instrument, renders each update through the loaded
// formatters for TCP fan-out, and publishes one batched event for the push
// hub. Failures inside an iteration are logged and retried after a short
// backoff; nothing here is fatal to the process.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/quotewire/feedsim/internal/model"
	"github.com/quotewire/feedsim/internal/store"
	"github.com/quotewire/feedsim/pkg/formatter"
)

// FormatterSource provides the active formatter snapshot. Each iteration
// takes one snapshot and uses it for the whole iteration.
type FormatterSource interface {
	Formatters() []formatter.Formatter
}

// Sink receives formatted payloads for TCP fan-out.
type Sink interface {
	Broadcast(payload string)
}

// BatchSink receives the ordered batch of updates produced by one iteration.
type BatchSink interface {
	PublishBatch(updates []model.PriceUpdate) error
}

// BatchSinkFunc is a function adapter for BatchSink.
type BatchSinkFunc func([]model.PriceUpdate) error

func (f BatchSinkFunc) PublishBatch(updates []model.PriceUpdate) error {
	return f(updates)
}

// Seed is one tracked symbol and its startup price.
type Seed struct {
	Symbol       string
	InitialPrice decimal.Decimal
}

// Config holds scheduler configuration.
type Config struct {
	Interval time.Duration // Update interval (default: 5s)
	Backoff  time.Duration // Sleep after a failed iteration (default: 1s)
	Symbols  []Seed        // Tracked symbols, in iteration order
}

// DefaultConfig returns sensible defaults with the standard symbol table.
func DefaultConfig() Config {
	return Config{
		Interval: 5 * time.Second,
		Backoff:  1 * time.Second,
		Symbols:  DefaultSeeds(),
	}
}

// DefaultSeeds returns the fixed symbol→initial-price table.
func DefaultSeeds() []Seed {
	return []Seed{
		{Symbol: "AAPL", InitialPrice: decimal.RequireFromString("150.00")},
		{Symbol: "MSFT", InitialPrice: decimal.RequireFromString("300.00")},
		{Symbol: "GOOGL", InitialPrice: decimal.RequireFromString("2500.00")},
		{Symbol: "TSLA", InitialPrice: decimal.RequireFromString("800.00")},
		{Symbol: "AMZN", InitialPrice: decimal.RequireFromString("3200.00")},
	}
}

// Scheduler is the update orchestrator.
type Scheduler struct {
	cfg        Config
	store      *store.Store
	formatters FormatterSource
	tcp        Sink
	batch      BatchSink
	logger     *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a new Scheduler. batch may be nil when no push hub is wired.
func New(cfg Config, st *store.Store, formatters FormatterSource, tcp Sink, batch BatchSink, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		cfg:        cfg,
		store:      st,
		formatters: formatters,
		tcp:        tcp,
		batch:      batch,
		logger:     logger,
	}
}

// Start seeds the store and begins the update loop.
func (s *Scheduler) Start(ctx context.Context) error {
	s.ctx, s.cancel = context.WithCancel(ctx)

	s.initInstruments()

	s.wg.Add(1)
	go s.run()

	s.logger.Info("update scheduler started",
		"interval", s.cfg.Interval,
		"symbols", len(s.cfg.Symbols),
	)
	return nil
}

// Stop gracefully shuts down the scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("update scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// initInstruments seeds the store from the symbol table. Idempotent: symbols
// already present are left untouched.
func (s *Scheduler) initInstruments() {
	for _, seed := range s.cfg.Symbols {
		if _, ok := s.store.Get(seed.Symbol); ok {
			continue
		}
		s.store.Upsert(seed.Symbol, seed.InitialPrice, time.Now().UTC())
		s.logger.Info("initialized instrument",
			"symbol", seed.Symbol,
			"price", seed.InitialPrice,
		)
	}
}

// run is the main update loop. A failed iteration sleeps the backoff instead
// of the full interval, then the loop continues.
func (s *Scheduler) run() {
	defer s.wg.Done()

	for {
		if s.ctx.Err() != nil {
			return
		}

		delay := s.cfg.Interval
		if err := s.runOnce(); err != nil {
			s.logger.Error("error updating prices", "error", err)
			delay = s.cfg.Backoff
		}

		select {
		case <-s.ctx.Done():
			return
		case <-time.After(delay):
		}
	}
}

// runOnce performs one full iteration: mutate every symbol in fixed order,
// render and broadcast each update through every formatter in this
// iteration's snapshot, then publish the ordered batch.
func (s *Scheduler) runOnce() error {
	formatters := s.formatters.Formatters()

	updates := make([]model.PriceUpdate, 0, len(s.cfg.Symbols))
	for _, seed := range s.cfg.Symbols {
		update, err := s.advance(seed.Symbol)
		if err != nil {
			return err
		}
		updates = append(updates, update)

		for _, f := range formatters {
			rendered, err := f.Format(update.Symbol, update.Price, update.Timestamp)
			if err != nil {
				return fmt.Errorf("format %s via %s: %w", update.Symbol, f.Name(), err)
			}
			s.tcp.Broadcast(rendered)
		}

		s.logger.Debug("updated price", "symbol", update.Symbol, "price", update.Price)
	}

	if s.batch != nil {
		if err := s.batch.PublishBatch(updates); err != nil {
			return fmt.Errorf("publish batch: %w", err)
		}
	}
	return nil
}

// advance applies one random walk step to symbol: a uniform delta in
// (-2%, +2%), rounded to 2 decimal places.
func (s *Scheduler) advance(symbol string) (model.PriceUpdate, error) {
	inst, ok := s.store.Get(symbol)
	if !ok {
		return model.PriceUpdate{}, fmt.Errorf("advance %q: %w", symbol, store.ErrUnknownSymbol)
	}

	delta := (rand.Float64() - 0.5) * 0.04
	newPrice := inst.Price.Mul(decimal.NewFromFloat(1 + delta)).Round(2)
	now := time.Now().UTC()

	s.store.Upsert(symbol, newPrice, now)
	s.store.AppendHistory(symbol, newPrice, now)

	return model.PriceUpdate{Symbol: symbol, Price: newPrice, Timestamp: now}, nil
}
