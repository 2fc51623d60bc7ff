package formatter

import (
	"fmt"
	"net"
	"net/rpc"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

// stub is a trivial formatter for protocol tests.
type stub struct {
	name string
}

func (s stub) Name() string { return s.name }

func (s stub) Format(symbol string, price decimal.Decimal, ts time.Time) (string, error) {
	return fmt.Sprintf("%s|%s|%s|%d", s.name, symbol, price.StringFixed(2), ts.Unix()), nil
}

// newTestProvider serves the given formatters over an in-process net/rpc
// connection and returns the host-side provider.
func newTestProvider(t *testing.T, formatters ...Formatter) Provider {
	t.Helper()

	p := &providerPlugin{formatters: formatters}
	raw, err := p.Server(nil)
	if err != nil {
		t.Fatalf("Server failed: %v", err)
	}

	srv := rpc.NewServer()
	if err := srv.RegisterName("Plugin", raw); err != nil {
		t.Fatalf("RegisterName failed: %v", err)
	}

	hostConn, pluginConn := net.Pipe()
	go srv.ServeConn(pluginConn)
	t.Cleanup(func() { hostConn.Close() })

	return &ProviderRPC{client: rpc.NewClient(hostConn)}
}

func TestProvider_Names(t *testing.T) {
	provider := newTestProvider(t, stub{name: "csv"}, stub{name: "json"})

	names, err := provider.Names()
	if err != nil {
		t.Fatalf("Names failed: %v", err)
	}
	if len(names) != 2 {
		t.Fatalf("len(names) = %d, want 2", len(names))
	}
	if names[0] != "csv" || names[1] != "json" {
		t.Errorf("names = %v, want [csv json]", names)
	}
}

func TestProvider_Format(t *testing.T) {
	provider := newTestProvider(t, stub{name: "csv"})

	ts := time.Date(2024, 1, 15, 14, 45, 30, 0, time.UTC)
	got, err := provider.Format("csv", "MSFT", decimal.RequireFromString("300.50"), ts)
	if err != nil {
		t.Fatalf("Format failed: %v", err)
	}
	want := fmt.Sprintf("csv|MSFT|300.50|%d", ts.Unix())
	if got != want {
		t.Errorf("Format = %q, want %q", got, want)
	}
}

func TestProvider_FormatUnknownName(t *testing.T) {
	provider := newTestProvider(t, stub{name: "csv"})

	_, err := provider.Format("xml", "MSFT", decimal.RequireFromString("300.50"), time.Now())
	if err == nil {
		t.Fatal("expected error for unknown formatter name")
	}
	if !strings.Contains(err.Error(), "xml") {
		t.Errorf("err = %v, want mention of unknown name", err)
	}
}

func TestRemote(t *testing.T) {
	provider := newTestProvider(t, stub{name: "csv"})

	f := Remote(provider, "csv")
	if f.Name() != "csv" {
		t.Errorf("Name = %q, want csv", f.Name())
	}

	ts := time.Date(2024, 1, 15, 14, 45, 30, 0, time.UTC)
	got, err := f.Format("AAPL", decimal.RequireFromString("150.25"), ts)
	if err != nil {
		t.Fatalf("Format failed: %v", err)
	}
	if !strings.HasPrefix(got, "csv|AAPL|150.25") {
		t.Errorf("Format = %q, want csv|AAPL|150.25 prefix", got)
	}
}
