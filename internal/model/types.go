// Package model holds the value types shared by the feed simulator components.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Instrument is a tracked symbol with its current price.
// Created once at startup per tracked symbol, mutated in place by the scheduler.
type Instrument struct {
	Symbol    string          // Primary key (e.g., "AAPL")
	Price     decimal.Decimal // Current price, 2 fractional digits, always > 0
	UpdatedAt time.Time       // Time of last price mutation
}

// HistoryEntry is one point in a symbol's bounded price history.
// Immutable once created.
type HistoryEntry struct {
	Symbol    string          `json:"symbol"`
	Price     decimal.Decimal `json:"price"`
	Timestamp time.Time       `json:"timestamp"`
}

// PriceUpdate is the per-symbol update record produced by one scheduler
// iteration, fanned out to TCP subscribers and batched for the push hub.
type PriceUpdate struct {
	Symbol    string          `json:"symbol"`
	Price     decimal.Decimal `json:"price"`
	Timestamp time.Time       `json:"timestamp"`
}
