// Package config defines the simulator configuration.
package config

import "time"

// Config is the root configuration for a simulator instance.
type Config struct {
	TCP       TCPConfig       `yaml:"tcp"`
	HTTP      HTTPConfig      `yaml:"http"`
	Plugins   PluginsConfig   `yaml:"plugins"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Symbols   []SymbolConfig  `yaml:"symbols"`
}

// TCPConfig holds the broadcast server settings.
type TCPConfig struct {
	Port         int           `yaml:"port"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// HTTPConfig holds the query API server settings.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// PluginsConfig holds formatter plugin settings.
type PluginsConfig struct {
	Dir string `yaml:"dir"` // Plugin directory, relative to the working directory
}

// SchedulerConfig holds update scheduler settings.
type SchedulerConfig struct {
	Interval time.Duration `yaml:"interval"`
	Backoff  time.Duration `yaml:"backoff"`
}

// SymbolConfig is one tracked symbol and its startup price.
// The price is kept as a string and parsed during validation so config files
// never lose decimal scale.
type SymbolConfig struct {
	Symbol       string `yaml:"symbol"`
	InitialPrice string `yaml:"initial_price"`
}
