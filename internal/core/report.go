package core

import "github.com/shopspring/decimal"

// Report is the monthly summary returned by the API. Figures are display data
// and are never recomputed on the client.
type Report struct {
	Month            string          `json:"month"`
	Income           decimal.Decimal `json:"income"`
	Expenses         decimal.Decimal `json:"expenses"`
	Net              decimal.Decimal `json:"net"`
	BurnRate         decimal.Decimal `json:"burn_rate"`
	ForecastExpenses decimal.Decimal `json:"forecast_expenses"`
	Breakdown        []BreakdownRow  `json:"breakdown"`
}

// BreakdownRow is one category line of a report. Remaining is invalid when
// the category has no limit.
type BreakdownRow struct {
	Category  string              `json:"category"`
	Limit     decimal.Decimal     `json:"limit"`
	Actual    decimal.Decimal     `json:"actual"`
	Remaining decimal.NullDecimal `json:"remaining"`
}
