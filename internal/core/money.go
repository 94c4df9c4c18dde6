package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount parses a decimal amount such as "12.34" or "-5". Surrounding
// whitespace is ignored.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// FormatAmount renders an amount with exactly two decimals, as in a ledger.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// FormatNumber renders a report figure the way it arrived, without padding.
func FormatNumber(d decimal.Decimal) string {
	return d.String()
}
