package plugins

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_MissingDirCreated(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "plugins")
	r := NewRegistry(dir, slog.Default())

	if err := r.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	info, err := os.Stat(dir)
	if err != nil {
		t.Fatalf("plugin directory was not created: %v", err)
	}
	if !info.IsDir() {
		t.Fatal("plugin path is not a directory")
	}
	if got := len(r.Formatters()); got != 0 {
		t.Errorf("len(Formatters()) = %d, want 0", got)
	}
}

func TestLoad_SkipsNonExecutableFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("not a plugin"), 0o644); err != nil {
		t.Fatal(err)
	}

	r := NewRegistry(dir, slog.Default())
	if err := r.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got := len(r.Formatters()); got != 0 {
		t.Errorf("len(Formatters()) = %d, want 0", got)
	}
}

func TestLoad_BadPluginDoesNotAbortScan(t *testing.T) {
	dir := t.TempDir()

	// An executable that exits immediately fails the plugin handshake.
	script := "#!/bin/sh\nexit 1\n"
	if err := os.WriteFile(filepath.Join(dir, "broken"), []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}

	r := NewRegistry(dir, slog.Default())
	if err := r.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got := len(r.Formatters()); got != 0 {
		t.Errorf("len(Formatters()) = %d, want 0", got)
	}
}

func TestUnload_Idempotent(t *testing.T) {
	r := NewRegistry(t.TempDir(), slog.Default())

	// Unloading with nothing loaded succeeds silently, repeatedly.
	r.Unload()
	r.Unload()

	if got := len(r.Formatters()); got != 0 {
		t.Errorf("len(Formatters()) = %d, want 0", got)
	}
}

func TestFormatters_EmptyBeforeLoad(t *testing.T) {
	r := NewRegistry(t.TempDir(), nil)
	if r.Formatters() == nil {
		t.Error("Formatters() = nil, want empty non-nil snapshot")
	}
	if r.Count() != 0 {
		t.Errorf("Count() = %d, want 0", r.Count())
	}
}
