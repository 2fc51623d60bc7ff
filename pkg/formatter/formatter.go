// Package formatter defines the stable capability implemented by output
// formatter plugins, and the go-plugin protocol used to host them.
//
// A plugin binary implements one or more Formatters and hands them to Serve
// in its main. The host process launches each binary as an isolated
// subprocess and talks to it over net/rpc, so unloading one plugin can never
// corrupt another.
package formatter

import (
	"time"

	goplugin "github.com/hashicorp/go-plugin"
	"github.com/shopspring/decimal"
)

// Formatter renders one price update into a transport-specific string.
type Formatter interface {
	// Name identifies the formatter within its plugin (e.g., "csv").
	Name() string

	// Format renders one update. The rendered string carries no line
	// terminator; transports add their own framing.
	Format(symbol string, price decimal.Decimal, ts time.Time) (string, error)
}

// Handshake is the shared handshake between host and plugin binaries.
// The cookie is not a security measure; it only keeps users from launching
// plugin binaries by hand.
var Handshake = goplugin.HandshakeConfig{
	ProtocolVersion:  1,
	MagicCookieKey:   "FEEDSIM_PLUGIN",
	MagicCookieValue: "e9a2b8f4c1d7feed",
}

// ProviderName is the dispense key every plugin binary serves its
// formatters under.
const ProviderName = "formatters"

// PluginMap builds the go-plugin map served or consumed for a plugin binary.
// Host side passes nil formatters; the client half never uses them.
func PluginMap(formatters []Formatter) map[string]goplugin.Plugin {
	return map[string]goplugin.Plugin{
		ProviderName: &providerPlugin{formatters: formatters},
	}
}

// Serve runs the plugin side of the protocol. Called from a plugin binary's
// main; does not return.
func Serve(formatters ...Formatter) {
	goplugin.Serve(&goplugin.ServeConfig{
		HandshakeConfig: Handshake,
		Plugins:         PluginMap(formatters),
	})
}
