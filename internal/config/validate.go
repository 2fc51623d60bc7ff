package config

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if c.TCP.Port < 1 || c.TCP.Port > 65535 {
		return fmt.Errorf("tcp.port must be between 1 and 65535, got %d", c.TCP.Port)
	}
	if c.HTTP.Port < 1 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.TCP.WriteTimeout <= 0 {
		return errors.New("tcp.write_timeout must be positive")
	}

	if c.Plugins.Dir == "" {
		return errors.New("plugins.dir is required")
	}

	if c.Scheduler.Interval <= 0 {
		return errors.New("scheduler.interval must be positive")
	}
	if c.Scheduler.Backoff <= 0 {
		return errors.New("scheduler.backoff must be positive")
	}

	if len(c.Symbols) == 0 {
		return errors.New("at least one tracked symbol is required")
	}
	seen := make(map[string]bool, len(c.Symbols))
	for _, sym := range c.Symbols {
		if sym.Symbol == "" {
			return errors.New("symbols[].symbol is required")
		}
		if seen[sym.Symbol] {
			return fmt.Errorf("duplicate symbol %q", sym.Symbol)
		}
		seen[sym.Symbol] = true

		price, err := decimal.NewFromString(sym.InitialPrice)
		if err != nil {
			return fmt.Errorf("symbols[%s].initial_price: %w", sym.Symbol, err)
		}
		if !price.IsPositive() {
			return fmt.Errorf("symbols[%s].initial_price must be > 0, got %s", sym.Symbol, sym.InitialPrice)
		}
	}

	return nil
}
