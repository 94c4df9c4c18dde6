package ui

import (
	"strings"

	"budgetui/internal/core"
)

// MaxDisplayedTransactions caps the transaction table. The newest entries,
// i.e. the tail of the API's ordering, are kept.
const MaxDisplayedTransactions = 200

// TransactionRows formats the last MaxDisplayedTransactions entries in the order given.
func TransactionRows(txs []core.Transaction) []TransactionRow {
	if len(txs) > MaxDisplayedTransactions {
		txs = txs[len(txs)-MaxDisplayedTransactions:]
	}
	rows := make([]TransactionRow, 0, len(txs))
	for _, t := range txs {
		rows = append(rows, TransactionRow{
			Date:        t.Date,
			Type:        t.Type,
			Category:    t.Category,
			Description: t.Description,
			Amount:      core.FormatAmount(t.Amount),
		})
	}
	return rows
}

// ReportText renders a report as the fixed-order plain text block shown in
// the report area. month is printed verbatim.
func ReportText(month string, r core.Report) string {
	var b strings.Builder
	line := func(parts ...string) {
		for _, p := range parts {
			b.WriteString(p)
		}
		b.WriteByte('\n')
	}

	line("Month: ", month)
	line("Income: ", core.FormatNumber(r.Income))
	line("Expenses: ", core.FormatNumber(r.Expenses))
	line("Net: ", core.FormatNumber(r.Net))
	line("Burn Rate: ", core.FormatNumber(r.BurnRate))
	line("Forecast Expenses: ", core.FormatNumber(r.ForecastExpenses))
	line()
	b.WriteString("Category Breakdown (limit / actual / remaining):")
	for _, row := range r.Breakdown {
		remaining := "-"
		if row.Remaining.Valid {
			remaining = core.FormatNumber(row.Remaining.Decimal)
		}
		b.WriteString("\n- " + row.Category + ": " +
			core.FormatNumber(row.Limit) + " / " + core.FormatNumber(row.Actual) + " / " + remaining)
	}
	return b.String()
}
