// Package store provides the in-memory price store: current instrument state
// plus a bounded recent-history list per tracked symbol.
//
// The store is shared by the scheduler (writer) and the query API (reader).
// The top-level map lock only covers symbol lookup/insert; all per-symbol
// mutation is serialized on that symbol's own lock, so updates for different
// symbols never contend.
package store

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/quotewire/feedsim/internal/model"
	"github.com/shopspring/decimal"
)

// MaxHistory is the number of history entries retained per symbol.
const MaxHistory = 10

// ErrUnknownSymbol is returned for queries on symbols outside the tracked set.
var ErrUnknownSymbol = errors.New("unknown symbol")

// entry holds one symbol's state. Guarded by its own lock.
type entry struct {
	mu      sync.RWMutex
	inst    model.Instrument
	history []model.HistoryEntry // chronological append order
}

// Store is a thread-safe keyed price store.
type Store struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		entries: make(map[string]*entry),
	}
}

// getOrCreate returns the entry for symbol, creating it if absent.
func (s *Store) getOrCreate(symbol string) *entry {
	s.mu.RLock()
	e, ok := s.entries[symbol]
	s.mu.RUnlock()
	if ok {
		return e
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok = s.entries[symbol]; ok {
		return e
	}
	e = &entry{}
	s.entries[symbol] = e
	return e
}

// Upsert inserts or overwrites the instrument record for symbol.
// Last write wins; never fails.
func (s *Store) Upsert(symbol string, price decimal.Decimal, ts time.Time) {
	e := s.getOrCreate(symbol)
	e.mu.Lock()
	e.inst = model.Instrument{Symbol: symbol, Price: price, UpdatedAt: ts}
	e.mu.Unlock()
}

// Get returns the current instrument snapshot for symbol.
func (s *Store) Get(symbol string) (model.Instrument, bool) {
	s.mu.RLock()
	e, ok := s.entries[symbol]
	s.mu.RUnlock()
	if !ok {
		return model.Instrument{}, false
	}

	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.inst, true
}

// All returns a snapshot of every tracked instrument. Order is not significant.
func (s *Store) All() []model.Instrument {
	s.mu.RLock()
	entries := make([]*entry, 0, len(s.entries))
	for _, e := range s.entries {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	out := make([]model.Instrument, 0, len(entries))
	for _, e := range entries {
		e.mu.RLock()
		out = append(out, e.inst)
		e.mu.RUnlock()
	}
	return out
}

// Count returns the number of tracked instruments.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// AppendHistory appends a history entry for symbol, then trims from the
// oldest end until at most MaxHistory entries remain.
func (s *Store) AppendHistory(symbol string, price decimal.Decimal, ts time.Time) {
	e := s.getOrCreate(symbol)
	e.mu.Lock()
	e.history = append(e.history, model.HistoryEntry{Symbol: symbol, Price: price, Timestamp: ts})
	if excess := len(e.history) - MaxHistory; excess > 0 {
		e.history = append(e.history[:0], e.history[excess:]...)
	}
	e.mu.Unlock()
}

// History returns up to limit most recent entries for symbol, newest first.
func (s *Store) History(symbol string, limit int) []model.HistoryEntry {
	s.mu.RLock()
	e, ok := s.entries[symbol]
	s.mu.RUnlock()
	if !ok || limit <= 0 {
		return nil
	}

	e.mu.RLock()
	recent := make([]model.HistoryEntry, len(e.history))
	copy(recent, e.history)
	e.mu.RUnlock()

	// Stored order is chronological; return newest first.
	sort.Slice(recent, func(i, j int) bool {
		return recent[i].Timestamp.After(recent[j].Timestamp)
	})
	if len(recent) > limit {
		recent = recent[:limit]
	}
	return recent
}

// QuoteSnapshot is the combined current-price-plus-history view served by
// the query API.
type QuoteSnapshot struct {
	Symbol    string               `json:"symbol"`
	Price     decimal.Decimal      `json:"currentPrice"`
	UpdatedAt time.Time            `json:"lastUpdated"`
	History   []model.HistoryEntry `json:"history"`
}

// Snapshot returns the current price and up to MaxHistory most recent history
// entries for symbol. Returns ErrUnknownSymbol when the symbol is not tracked.
func (s *Store) Snapshot(symbol string) (QuoteSnapshot, error) {
	inst, ok := s.Get(symbol)
	if !ok {
		return QuoteSnapshot{}, ErrUnknownSymbol
	}
	return QuoteSnapshot{
		Symbol:    inst.Symbol,
		Price:     inst.Price,
		UpdatedAt: inst.UpdatedAt,
		History:   s.History(symbol, MaxHistory),
	}, nil
}
