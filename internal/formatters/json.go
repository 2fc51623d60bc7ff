package formatters

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// JSON renders updates as a compact JSON object with the price as a plain
// 2-decimal number and an RFC3339 millisecond UTC timestamp,
// e.g. {"symbol":"AAPL","price":150.25,"timestamp":"2024-01-15T14:30:15.123Z"}.
type JSON struct{}

func (JSON) Name() string { return "json" }

func (JSON) Format(symbol string, price decimal.Decimal, ts time.Time) (string, error) {
	return fmt.Sprintf(`{"symbol":%q,"price":%s,"timestamp":%q}`,
		symbol,
		price.StringFixed(2),
		ts.UTC().Format("2006-01-02T15:04:05.000Z"),
	), nil
}
