// json-formatter is the JSON output plugin.
// Build it and drop the binary into the simulator's plugin directory:
//
//	go build -o plugins/json-formatter ./plugins/json-formatter
package main

import (
	"github.com/quotewire/feedsim/internal/formatters"
	"github.com/quotewire/feedsim/pkg/formatter"
)

func main() {
	formatter.Serve(formatters.JSON{})
}
