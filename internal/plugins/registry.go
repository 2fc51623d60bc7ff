// Package plugins loads and unloads formatter plugins at runtime.
//
// Each plugin file is an executable launched as an isolated subprocess via
// go-plugin; the process handle is the unloadable unit, so killing one plugin
// can never corrupt another. The active formatter set is published as an
// immutable snapshot swapped atomically on load and unload.
package plugins

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/hashicorp/go-hclog"
	goplugin "github.com/hashicorp/go-plugin"

	"github.com/quotewire/feedsim/pkg/formatter"
)

// unit is one loaded plugin process. Destroyed only on a full Unload.
type unit struct {
	path   string
	client *goplugin.Client
}

// Registry discovers formatter plugins in a directory and exposes the
// current formatter set as an atomically-swappable snapshot.
type Registry struct {
	dir    string
	logger *slog.Logger

	mu    sync.Mutex // guards units and load/unload sequencing
	units []*unit

	snapshot atomic.Pointer[[]formatter.Formatter]
}

// NewRegistry creates a registry over the given plugin directory.
func NewRegistry(dir string, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Registry{
		dir:    dir,
		logger: logger,
	}
	empty := []formatter.Formatter{}
	r.snapshot.Store(&empty)
	return r
}

// Formatters returns the current formatter snapshot. Callers must treat the
// returned slice as immutable for the duration of their use.
func (r *Registry) Formatters() []formatter.Formatter {
	return *r.snapshot.Load()
}

// Count returns the number of formatters in the current snapshot.
func (r *Registry) Count() int {
	return len(r.Formatters())
}

// Load scans the plugin directory and publishes a new formatter snapshot.
//
// A missing directory is created and results in an empty snapshot, not an
// error. A failure to load any single file is logged and the scan continues;
// Load only returns an error when the directory itself cannot be read.
func (r *Registry) Load() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := os.Stat(r.dir); os.IsNotExist(err) {
		if err := os.MkdirAll(r.dir, 0o755); err != nil {
			return fmt.Errorf("create plugin directory: %w", err)
		}
		r.logger.Warn("plugin directory created", "path", r.dir)
		r.publish(nil)
		return nil
	}

	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return fmt.Errorf("read plugin directory: %w", err)
	}

	var loaded []formatter.Formatter
	for _, entry := range entries {
		path := filepath.Join(r.dir, entry.Name())

		info, err := entry.Info()
		if err != nil || entry.IsDir() || info.Mode()&0o111 == 0 {
			r.logger.Debug("skipping non-plugin entry", "path", path)
			continue
		}

		fs, u, err := r.loadUnit(path)
		if err != nil {
			r.logger.Error("failed to load plugin", "path", path, "error", err)
			continue
		}

		r.units = append(r.units, u)
		loaded = append(loaded, fs...)
		for _, f := range fs {
			r.logger.Info("loaded plugin formatter", "formatter", f.Name(), "path", path)
		}
	}

	r.publish(loaded)
	return nil
}

// loadUnit launches one plugin binary and collects its formatters.
// On any failure the subprocess is killed before returning.
func (r *Registry) loadUnit(path string) ([]formatter.Formatter, *unit, error) {
	client := goplugin.NewClient(&goplugin.ClientConfig{
		HandshakeConfig:  formatter.Handshake,
		Plugins:          formatter.PluginMap(nil),
		Cmd:              exec.Command(path),
		AllowedProtocols: []goplugin.Protocol{goplugin.ProtocolNetRPC},
		Logger:           hclog.NewNullLogger(),
	})

	rpcClient, err := client.Client()
	if err != nil {
		client.Kill()
		return nil, nil, fmt.Errorf("handshake: %w", err)
	}

	raw, err := rpcClient.Dispense(formatter.ProviderName)
	if err != nil {
		client.Kill()
		return nil, nil, fmt.Errorf("dispense: %w", err)
	}

	provider, ok := raw.(formatter.Provider)
	if !ok {
		client.Kill()
		return nil, nil, fmt.Errorf("plugin does not implement the formatter provider")
	}

	names, err := provider.Names()
	if err != nil {
		client.Kill()
		return nil, nil, fmt.Errorf("list formatters: %w", err)
	}
	if len(names) == 0 {
		client.Kill()
		return nil, nil, fmt.Errorf("plugin exposes no formatters")
	}

	fs := make([]formatter.Formatter, 0, len(names))
	for _, name := range names {
		fs = append(fs, formatter.Remote(provider, name))
	}
	return fs, &unit{path: path, client: client}, nil
}

// Unload atomically replaces the active snapshot with an empty one, then
// releases every loaded unit. Per-unit close failures are logged and do not
// stop the rest. Idempotent: unloading with nothing loaded is a no-op.
func (r *Registry) Unload() {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Swap first so new snapshot readers never see a dying unit.
	r.publish(nil)

	for _, u := range r.units {
		if c, err := u.client.Client(); err == nil {
			if err := c.Close(); err != nil {
				r.logger.Error("error closing plugin", "path", u.path, "error", err)
			}
		}
		u.client.Kill()
	}

	if len(r.units) > 0 {
		r.logger.Info("all plugins unloaded", "count", len(r.units))
	}
	r.units = nil
}

// publish swaps in a new snapshot. Must be called with r.mu held.
func (r *Registry) publish(fs []formatter.Formatter) {
	if fs == nil {
		fs = []formatter.Formatter{}
	}
	r.snapshot.Store(&fs)
}
