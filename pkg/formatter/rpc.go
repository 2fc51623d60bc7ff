package formatter

import (
	"fmt"
	"net/rpc"
	"time"

	goplugin "github.com/hashicorp/go-plugin"
	"github.com/shopspring/decimal"
)

// Provider is the host-side view of one loaded plugin binary: the set of
// formatters it exposes, addressable by name.
type Provider interface {
	// Names lists the formatters this plugin exposes, in registration order.
	Names() ([]string, error)

	// Format renders one update through the named formatter.
	Format(name, symbol string, price decimal.Decimal, ts time.Time) (string, error)
}

// providerPlugin wires the provider protocol into go-plugin.
type providerPlugin struct {
	formatters []Formatter
}

func (p *providerPlugin) Server(*goplugin.MuxBroker) (interface{}, error) {
	byName := make(map[string]Formatter, len(p.formatters))
	names := make([]string, 0, len(p.formatters))
	for _, f := range p.formatters {
		byName[f.Name()] = f
		names = append(names, f.Name())
	}
	return &ProviderRPCServer{byName: byName, names: names}, nil
}

func (p *providerPlugin) Client(_ *goplugin.MuxBroker, c *rpc.Client) (interface{}, error) {
	return &ProviderRPC{client: c}, nil
}

// FormatArgs is the net/rpc request for Provider.Format.
// decimal.Decimal and time.Time are both gob-encodable.
type FormatArgs struct {
	Name      string
	Symbol    string
	Price     decimal.Decimal
	Timestamp time.Time
}

// ProviderRPCServer runs inside the plugin process.
type ProviderRPCServer struct {
	byName map[string]Formatter
	names  []string
}

func (s *ProviderRPCServer) Names(_ struct{}, reply *[]string) error {
	*reply = s.names
	return nil
}

func (s *ProviderRPCServer) Format(args FormatArgs, reply *string) error {
	f, ok := s.byName[args.Name]
	if !ok {
		return fmt.Errorf("no formatter named %q", args.Name)
	}
	out, err := f.Format(args.Symbol, args.Price, args.Timestamp)
	if err != nil {
		return err
	}
	*reply = out
	return nil
}

// ProviderRPC runs inside the host and forwards over RPC.
type ProviderRPC struct {
	client *rpc.Client
}

func (c *ProviderRPC) Names() ([]string, error) {
	var names []string
	if err := c.client.Call("Plugin.Names", struct{}{}, &names); err != nil {
		return nil, err
	}
	return names, nil
}

func (c *ProviderRPC) Format(name, symbol string, price decimal.Decimal, ts time.Time) (string, error) {
	args := FormatArgs{Name: name, Symbol: symbol, Price: price, Timestamp: ts}
	var out string
	if err := c.client.Call("Plugin.Format", args, &out); err != nil {
		return "", err
	}
	return out, nil
}

// remote adapts one named formatter of a Provider to the Formatter interface.
type remote struct {
	provider Provider
	name     string
}

// Remote returns a Formatter that renders through the named formatter of the
// given provider.
func Remote(p Provider, name string) Formatter {
	return &remote{provider: p, name: name}
}

func (r *remote) Name() string { return r.name }

func (r *remote) Format(symbol string, price decimal.Decimal, ts time.Time) (string, error) {
	return r.provider.Format(r.name, symbol, price, ts)
}
