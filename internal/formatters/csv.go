// Package formatters holds the reference formatter implementations shipped
// with the simulator. They are compiled into standalone plugin binaries
// (see plugins/) and loaded by the host at runtime like any third-party
// formatter.
package formatters

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// CSV renders updates as "{symbol},{price},{HH:mm:ss}",
// e.g. "MSFT,300.50,14:45:30".
type CSV struct{}

func (CSV) Name() string { return "csv" }

func (CSV) Format(symbol string, price decimal.Decimal, ts time.Time) (string, error) {
	return fmt.Sprintf("%s,%s,%s", symbol, price.StringFixed(2), ts.Format("15:04:05")), nil
}
