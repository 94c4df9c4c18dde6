// Package memory serves the budget API port from process memory. It applies
// the same validation and report arithmetic as the budgeting server and is
// used for local runs and tests. With a Persister attached every accepted
// write is stored before it becomes visible, and the state is replayed on start.
package memory

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"budgetui/internal/budgetapi"
	"budgetui/internal/core"
)

const (
	isoDate     = "2006-01-02"
	displayDate = "02-01-2006"
	monthLayout = "2006-01"
)

// dateLayouts are tried in order. The short forms accept single-digit days
// and months.
var dateLayouts = []string{displayDate, isoDate, "2-1-2006", "2006-1-2"}

var errDateFormat = errors.New("Date must be DD-MM-YYYY or YYYY-MM-DD")

// Record is a stored transaction. Expense amounts are negative.
type Record struct {
	ID          string
	Date        time.Time
	Amount      decimal.Decimal
	Type        core.TransactionType
	Category    string
	Description string
}

// State is everything a Store holds.
type State struct {
	Budgets      map[string]map[string]decimal.Decimal
	Transactions []Record
}

// Persister keeps accepted writes across restarts.
type Persister interface {
	Load(ctx context.Context) (State, error)
	ReplaceBudget(ctx context.Context, month string, limits map[string]decimal.Decimal) error
	AppendTransaction(ctx context.Context, rec Record) error
}

type Store struct {
	mu        sync.Mutex
	budgets   map[string]map[string]decimal.Decimal
	txs       []Record
	now       func() time.Time
	persister Persister
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the clock used for the elapsed-days part of reports.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func New(opts ...Option) *Store {
	s := &Store{
		budgets: map[string]map[string]decimal.Decimal{},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// seedFile mirrors the state file layout of the budgeting server.
type seedFile struct {
	Budgets []struct {
		Month  string                     `json:"month"`
		Limits map[string]decimal.Decimal `json:"limits"`
	} `json:"budgets"`
	Transactions []struct {
		ID          string          `json:"id"`
		Date        string          `json:"date"`
		Amount      decimal.Decimal `json:"amount"`
		Type        string          `json:"type"`
		Category    string          `json:"category"`
		Description string          `json:"description"`
	} `json:"transactions"`
}

// NewPersistent returns a Store holding the state p has kept and storing
// every later write through p.
func NewPersistent(ctx context.Context, p Persister, opts ...Option) (*Store, error) {
	if p == nil {
		return nil, errors.New("persister is nil")
	}
	state, err := p.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load persisted state: %w", err)
	}

	s := New(opts...)
	s.persister = p
	for month, limits := range state.Budgets {
		s.budgets[month] = limits
	}
	s.txs = append(s.txs, state.Transactions...)
	return s, nil
}

// NewFromFile loads budgets and transactions from a server state file.
// The file is a seed: it is read once and never written back.
func NewFromFile(path string, opts ...Option) (*Store, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var seed seedFile
	if err := json.Unmarshal(raw, &seed); err != nil {
		return nil, fmt.Errorf("decode seed file %s: %w", path, err)
	}

	s := New(opts...)
	for _, b := range seed.Budgets {
		limits := make(map[string]decimal.Decimal, len(b.Limits))
		for category, limit := range b.Limits {
			limits[category] = limit
		}
		s.budgets[b.Month] = limits
	}
	for i, t := range seed.Transactions {
		date, err := parseDate(t.Date)
		if err != nil {
			return nil, fmt.Errorf("seed transaction %d: %w", i, err)
		}
		id := t.ID
		if id == "" {
			id = newID()
		}
		s.txs = append(s.txs, Record{
			ID:          id,
			Date:        date,
			Amount:      t.Amount,
			Type:        core.TransactionType(t.Type),
			Category:    t.Category,
			Description: t.Description,
		})
	}
	return s, nil
}

// SaveBudget validates every limit before replacing the month's budget.
func (s *Store) SaveBudget(ctx context.Context, month string, limits core.Limits) (core.Result, error) {
	parsed := make(map[string]decimal.Decimal, len(limits))
	for category, raw := range limits {
		if strings.TrimSpace(category) == "" {
			return rejected("Category names must be non-empty strings"), nil
		}
		limit, err := core.ParseAmount(raw)
		if err != nil {
			return rejected(fmt.Sprintf("Limit for %s must be a number", category)), nil
		}
		if limit.IsNegative() {
			return rejected(fmt.Sprintf("Limit for %s must be >= 0", category)), nil
		}
		parsed[category] = limit
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.persister != nil {
		if err := s.persister.ReplaceBudget(ctx, month, parsed); err != nil {
			return core.Result{}, fmt.Errorf("persist budget %s: %w", month, err)
		}
	}
	s.budgets[month] = parsed
	return core.Result{OK: true}, nil
}

func (s *Store) GetBudget(_ context.Context, month string) (core.Limits, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	limits := make(core.Limits, len(s.budgets[month]))
	for category, limit := range s.budgets[month] {
		limits[category] = core.FormatNumber(limit)
	}
	return limits, nil
}

// AddTransaction stores tx. Expenses are kept negative whatever sign was sent.
func (s *Store) AddTransaction(ctx context.Context, tx core.NewTransaction) (core.Result, error) {
	date, err := parseDate(tx.Date)
	if err != nil {
		return rejected(err.Error()), nil
	}
	amount, err := core.ParseAmount(tx.Amount)
	if err != nil {
		return rejected("Amount must be a number"), nil
	}
	kind := core.TransactionType(tx.Type)
	if !kind.IsValid() {
		return rejected("type must be 'expense' or 'income'"), nil
	}
	category := strings.TrimSpace(tx.Category)
	if category == "" {
		return rejected("category is required"), nil
	}
	if kind == core.Expense && amount.IsPositive() {
		amount = amount.Neg()
	}

	rec := Record{
		ID:          newID(),
		Date:        date,
		Amount:      amount,
		Type:        kind,
		Category:    category,
		Description: strings.TrimSpace(tx.Description),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.persister != nil {
		if err := s.persister.AppendTransaction(ctx, rec); err != nil {
			return core.Result{}, fmt.Errorf("persist transaction: %w", err)
		}
	}
	s.txs = append(s.txs, rec)
	return core.Result{OK: true}, nil
}

// ListTransactions returns matching transactions in insertion order with
// dates rendered DD-MM-YYYY. Category matching ignores case.
func (s *Store) ListTransactions(_ context.Context, filter core.TransactionFilter) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]core.Transaction, 0, len(s.txs))
	for _, r := range s.txs {
		if filter.Month != "" && r.Date.Format(monthLayout) != filter.Month {
			continue
		}
		if filter.Category != "" && !strings.EqualFold(r.Category, filter.Category) {
			continue
		}
		out = append(out, core.Transaction{
			Date:        r.Date.Format(displayDate),
			Amount:      r.Amount,
			Type:        string(r.Type),
			Category:    r.Category,
			Description: r.Description,
		})
	}
	return out, nil
}

// GetReport summarises month. Burn rate divides expenses by the days elapsed
// so far when month is the current month, by the whole month otherwise.
func (s *Store) GetReport(_ context.Context, month string) (core.Report, error) {
	start, err := time.Parse(monthLayout, month)
	if err != nil {
		return core.Report{}, &budgetapi.StatusError{StatusCode: http.StatusBadRequest, Message: "month must be YYYY-MM"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	income, expenses := decimal.Zero, decimal.Zero
	actual := map[string]decimal.Decimal{}
	var order []string
	for _, r := range s.txs {
		if r.Date.Format(monthLayout) != month {
			continue
		}
		switch {
		case r.Amount.IsPositive():
			income = income.Add(r.Amount)
		case r.Amount.IsNegative():
			spent := r.Amount.Neg()
			expenses = expenses.Add(spent)
			if _, seen := actual[r.Category]; !seen {
				order = append(order, r.Category)
			}
			actual[r.Category] = actual[r.Category].Add(spent)
		}
	}

	daysInMonth := start.AddDate(0, 1, -1).Day()
	daysElapsed := daysInMonth
	if today := s.now(); today.Year() == start.Year() && today.Month() == start.Month() {
		daysElapsed = min(today.Day(), daysInMonth)
	}
	burnRate := decimal.Zero
	if !expenses.IsZero() {
		burnRate = expenses.Div(decimal.NewFromInt(int64(max(daysElapsed, 1))))
	}
	forecast := burnRate.Mul(decimal.NewFromInt(int64(daysInMonth)))

	sort.SliceStable(order, func(i, j int) bool {
		return actual[order[i]].GreaterThan(actual[order[j]])
	})
	limits := s.budgets[month]
	breakdown := make([]core.BreakdownRow, 0, len(order))
	for _, category := range order {
		row := core.BreakdownRow{
			Category: category,
			Limit:    limits[category],
			Actual:   actual[category].Round(2),
		}
		if !row.Limit.IsZero() {
			row.Remaining = decimal.NewNullDecimal(row.Limit.Sub(actual[category]).Round(2))
		}
		breakdown = append(breakdown, row)
	}

	return core.Report{
		Month:            month,
		Income:           income.Round(2),
		Expenses:         expenses.Round(2),
		Net:              income.Sub(expenses).Round(2),
		BurnRate:         burnRate.Round(2),
		ForecastExpenses: forecast.Round(2),
		Breakdown:        breakdown,
	}, nil
}

func rejected(msg string) core.Result {
	return core.Result{Error: msg}
}

// parseDate accepts DD-MM-YYYY first, then YYYY-MM-DD, with or without
// zero padding.
func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if d, err := time.Parse(layout, s); err == nil {
			return d, nil
		}
	}
	return time.Time{}, errDateFormat
}

func newID() string {
	b := make([]byte, 4)
	_, _ = rand.Read(b)
	return "tx_" + hex.EncodeToString(b)
}

var _ budgetapi.API = (*Store)(nil)
