package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultTCPPort      = 8080
	DefaultHTTPPort     = 8090
	DefaultWriteTimeout = 5 * time.Second
	DefaultPluginDir    = "plugins"
	DefaultInterval     = 5 * time.Second
	DefaultBackoff      = 1 * time.Second
)

// defaultSymbols is the standard tracked-symbol table.
var defaultSymbols = []SymbolConfig{
	{Symbol: "AAPL", InitialPrice: "150.00"},
	{Symbol: "MSFT", InitialPrice: "300.00"},
	{Symbol: "GOOGL", InitialPrice: "2500.00"},
	{Symbol: "TSLA", InitialPrice: "800.00"},
	{Symbol: "AMZN", InitialPrice: "3200.00"},
}

func (c *Config) applyDefaults() {
	if c.TCP.Port == 0 {
		c.TCP.Port = DefaultTCPPort
	}
	if c.TCP.WriteTimeout == 0 {
		c.TCP.WriteTimeout = DefaultWriteTimeout
	}
	if c.HTTP.Port == 0 {
		c.HTTP.Port = DefaultHTTPPort
	}
	if c.Plugins.Dir == "" {
		c.Plugins.Dir = DefaultPluginDir
	}
	if c.Scheduler.Interval == 0 {
		c.Scheduler.Interval = DefaultInterval
	}
	if c.Scheduler.Backoff == 0 {
		c.Scheduler.Backoff = DefaultBackoff
	}
	if len(c.Symbols) == 0 {
		c.Symbols = append([]SymbolConfig(nil), defaultSymbols...)
	}
}

// Default returns a configuration with every default applied, for running
// without a config file.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}
