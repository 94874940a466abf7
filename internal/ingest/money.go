package ingest

import (
	"strings"

	"github.com/shopspring/decimal"
)

var currencyCleaner = strings.NewReplacer(
	"₹", "",
	"$", "",
	"€", "",
	"£", "",
	"Rs.", "",
	"Rs", "",
	"INR", "",
	",", "",
	" ", "",
)

// ParseMoney strips currency symbols and thousands separators before numeric
// conversion. Unparseable input yields nil, never an error.
func ParseMoney(raw string) *decimal.Decimal {
	cleaned := currencyCleaner.Replace(strings.TrimSpace(raw))
	if cleaned == "" {
		return nil
	}
	value, err := decimal.NewFromString(cleaned)
	if err != nil {
		return nil
	}
	return &value
}
