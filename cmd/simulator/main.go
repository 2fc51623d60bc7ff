// simulator runs the market-data feed simulator: the periodic price
// scheduler, the TCP broadcast server, the formatter plugin host, the
// websocket push hub, and the HTTP query API.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"

	"github.com/quotewire/feedsim/internal/api"
	"github.com/quotewire/feedsim/internal/broadcast"
	"github.com/quotewire/feedsim/internal/config"
	"github.com/quotewire/feedsim/internal/hub"
	"github.com/quotewire/feedsim/internal/plugins"
	"github.com/quotewire/feedsim/internal/scheduler"
	"github.com/quotewire/feedsim/internal/store"
	"github.com/quotewire/feedsim/internal/version"
)

func main() {
	configPath := flag.String("config", "", "path to config file (optional)")
	tcpPort := flag.Int("port", 0, "TCP broadcast port (overrides config)")
	pluginDir := flag.String("plugins", "", "plugin directory (overrides config)")
	flag.Parse()

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	logger.Info("starting simulator",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	// Load configuration
	cfg, err := loadConfig(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if *tcpPort != 0 {
		cfg.TCP.Port = *tcpPort
	}
	if *pluginDir != "" {
		cfg.Plugins.Dir = *pluginDir
	}

	seeds, err := buildSeeds(cfg)
	if err != nil {
		logger.Error("invalid symbol table", "error", err)
		os.Exit(1)
	}

	logger.Info("configuration loaded",
		"tcp_port", cfg.TCP.Port,
		"http_port", cfg.HTTP.Port,
		"plugin_dir", cfg.Plugins.Dir,
		"symbols", len(seeds),
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Price store
	priceStore := store.New()

	// Load formatter plugins
	registry := plugins.NewRegistry(cfg.Plugins.Dir, logger)
	if err := registry.Load(); err != nil {
		logger.Error("failed to load plugins", "error", err)
		os.Exit(1)
	}
	defer registry.Unload()
	logger.Info("plugins loaded", "formatters", registry.Count())

	// TCP broadcaster
	broadcaster := broadcast.New(broadcast.Config{
		Addr:         fmt.Sprintf(":%d", cfg.TCP.Port),
		WriteTimeout: cfg.TCP.WriteTimeout,
	}, logger)
	if err := broadcaster.Start(ctx); err != nil {
		logger.Error("failed to start tcp broadcaster", "error", err)
		os.Exit(1)
	}
	defer func() {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer stopCancel()
		broadcaster.Stop(stopCtx)
	}()

	// Websocket push hub
	pushHub := hub.New(logger)
	defer pushHub.Close()

	// Update scheduler
	sched := scheduler.New(scheduler.Config{
		Interval: cfg.Scheduler.Interval,
		Backoff:  cfg.Scheduler.Backoff,
		Symbols:  seeds,
	}, priceStore, registry, broadcaster, pushHub, logger)
	if err := sched.Start(ctx); err != nil {
		logger.Error("failed to start scheduler", "error", err)
		os.Exit(1)
	}
	defer func() {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer stopCancel()
		sched.Stop(stopCtx)
	}()

	// HTTP query API
	apiServer := api.NewServer(priceStore, broadcaster, registry, pushHub.Handler(), len(seeds), logger)
	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler: apiServer.Router(),
	}

	go func() {
		logger.Info("starting http server", "port", cfg.HTTP.Port)
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("http server error", "error", err)
		}
	}()

	logger.Info("simulator running",
		"tcp_addr", broadcaster.Addr().String(),
		"health_url", fmt.Sprintf("http://localhost:%d/health", cfg.HTTP.Port),
	)

	<-ctx.Done()

	logger.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	httpServer.Shutdown(shutdownCtx)
}

// loadConfig loads the config file when given, or the built-in defaults.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.LoadAndValidate(path)
}

// buildSeeds converts the config symbol table into scheduler seeds,
// preserving order.
func buildSeeds(cfg *config.Config) ([]scheduler.Seed, error) {
	seeds := make([]scheduler.Seed, 0, len(cfg.Symbols))
	for _, sym := range cfg.Symbols {
		price, err := decimal.NewFromString(sym.InitialPrice)
		if err != nil {
			return nil, fmt.Errorf("symbol %s: %w", sym.Symbol, err)
		}
		seeds = append(seeds, scheduler.Seed{Symbol: sym.Symbol, InitialPrice: price})
	}
	return seeds, nil
}
