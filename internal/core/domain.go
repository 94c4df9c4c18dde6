package core

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	Expense TransactionType = "expense"
	Income  TransactionType = "income"
)

type (
	TransactionType string

	// NewTransaction is the body of a transaction submission. Fields travel
	// as typed (after trimming); the API owns parsing and sign handling.
	NewTransaction struct {
		Date        string `json:"date"`
		Amount      string `json:"amount"`
		Type        string `json:"type"`
		Category    string `json:"category"`
		Description string `json:"description"`
	}

	// Transaction is one entry of a transaction listing.
	Transaction struct {
		Date        string          `json:"date"`
		Amount      decimal.Decimal `json:"amount"`
		Type        string          `json:"type"`
		Category    string          `json:"category"`
		Description string          `json:"description,omitempty"`
	}

	// TransactionFilter narrows a listing. Empty fields are not sent.
	TransactionFilter struct {
		Month    string
		Category string
	}

	// Limits maps category to spending limit for one month.
	Limits map[string]string

	// BudgetRow is one category/limit pair as edited in the form.
	BudgetRow struct {
		Category string
		Limit    string
	}

	// Result is the acknowledgement of a write. Error carries the API's
	// message when OK is false.
	Result struct {
		OK    bool   `json:"ok"`
		Error string `json:"error,omitempty"`
	}
)

var ErrInvalidAmount = errors.New("invalid amount")

// DefaultErrorMessage is shown when the API rejects a write without saying why.
const DefaultErrorMessage = "Error"

func (t TransactionType) IsValid() bool {
	return t == Expense || t == Income
}

// Message is the text to show for a rejected write.
func (r Result) Message() string {
	if r.Error != "" {
		return r.Error
	}
	return DefaultErrorMessage
}

// CollectLimits builds the mapping submitted for a month. Rows whose trimmed
// category is empty are dropped; an empty limit becomes "0". When a category
// repeats, the last row wins.
func CollectLimits(rows []BudgetRow) Limits {
	limits := make(Limits, len(rows))
	for _, row := range rows {
		category := strings.TrimSpace(row.Category)
		if category == "" {
			continue
		}
		limit := strings.TrimSpace(row.Limit)
		if limit == "" {
			limit = "0"
		}
		limits[category] = limit
	}
	return limits
}
