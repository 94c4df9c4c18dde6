// Package ui implements the budget client's behaviour against an abstract
// document: reading form fields, calling the budget API and writing results
// back into the page.
package ui

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"budgetui/internal/budgetapi"
	"budgetui/internal/convention"
	"budgetui/internal/core"
	applog "budgetui/internal/log"
)

// User-visible messages.
const (
	MsgBudgetSaved      = "Budget saved."
	MsgTransactionAdded = "Transaction added."
	MsgSelectDate       = "Please select a date"
	MsgInvalidDate      = "Invalid date format. Use YYYY-MM-DD"
	MsgRequestFailed    = "Request failed. Try again."
)

// ReportEcho selects which month the report's first line shows.
type ReportEcho string

const (
	// EchoInput prints the month as the user typed it.
	EchoInput ReportEcho = "input"
	// EchoServer prints the month returned by the API, converted for display.
	EchoServer ReportEcho = "server"
)

// Action results reported to the ActionRecorder.
const (
	ResultOK       = "ok"
	ResultInvalid  = "invalid"
	ResultRejected = "rejected"
	ResultFailed   = "failed"
)

var (
	// ErrMissingElement is returned by New when the document lacks a required element.
	ErrMissingElement = errors.New("document is missing a required element")
	// ErrRejected is returned when the API answered a write with an error.
	ErrRejected = errors.New("rejected by budget api")
)

// ActionRecorder counts controller actions by outcome.
type ActionRecorder interface {
	RecordAction(action, result string)
}

type noopRecorder struct{}

func (noopRecorder) RecordAction(string, string) {}

// Controller runs the client operations against one document.
type Controller struct {
	api      budgetapi.API
	dates    convention.Adapter
	echo     ReportEcho
	logger   *applog.Logger
	recorder ActionRecorder
	now      func() time.Time

	month          Input
	filterCategory Input
	txDate         Input
	txAmount       Input
	txType         Input
	txCategory     Input
	txDesc         Input

	budgetMsg Output
	txMsg     Output
	report    Output

	budgets      BudgetEditor
	transactions TransactionTable
}

// Option configures a Controller.
type Option func(*Controller)

// WithConvention sets the date adapter. The default is convention.MonthYear.
func WithConvention(a convention.Adapter) Option {
	return func(c *Controller) {
		if a != nil {
			c.dates = a
		}
	}
}

func WithReportEcho(e ReportEcho) Option {
	return func(c *Controller) { c.echo = e }
}

func WithLogger(l *applog.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l.WithComponent(applog.ComponentUI)
		}
	}
}

func WithRecorder(r ActionRecorder) Option {
	return func(c *Controller) {
		if r != nil {
			c.recorder = r
		}
	}
}

// WithClock sets the clock used for the default transaction date.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// New binds a controller to doc. Every element id the controller uses must
// resolve; otherwise New fails with ErrMissingElement naming the id.
func New(doc Document, api budgetapi.API, opts ...Option) (*Controller, error) {
	if doc == nil || api == nil {
		return nil, errors.New("ui: document and api are required")
	}

	c := &Controller{
		api:      api,
		dates:    convention.MonthYear{},
		echo:     EchoInput,
		logger:   applog.Discard(),
		recorder: noopRecorder{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	var missing []string
	input := func(id string) Input {
		in := doc.Input(id)
		if in == nil {
			missing = append(missing, id)
		}
		return in
	}
	output := func(id string) Output {
		out := doc.Output(id)
		if out == nil {
			missing = append(missing, id)
		}
		return out
	}

	c.month = input(IDMonth)
	c.filterCategory = input(IDFilterCategory)
	c.txDate = input(IDTxDate)
	c.txAmount = input(IDTxAmount)
	c.txType = input(IDTxType)
	c.txCategory = input(IDTxCategory)
	c.txDesc = input(IDTxDesc)
	c.budgetMsg = output(IDBudgetMsg)
	c.txMsg = output(IDTxMsg)
	c.report = output(IDReport)

	if c.budgets = doc.BudgetEditor(IDBudgets); c.budgets == nil {
		missing = append(missing, IDBudgets)
	}
	if c.transactions = doc.TransactionTable(IDTxTable); c.transactions == nil {
		missing = append(missing, IDTxTable)
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingElement, strings.Join(missing, ", "))
	}
	return c, nil
}

// Convention returns the date adapter in use.
func (c *Controller) Convention() convention.Adapter {
	return c.dates
}

// AddBudgetRow appends a row to the budget editor and returns its id.
func (c *Controller) AddBudgetRow(category, limit string) string {
	return c.budgets.Append(category, limit)
}

// RemoveBudgetRow drops a row from the editor. Nothing is sent to the API.
func (c *Controller) RemoveBudgetRow(id string) bool {
	return c.budgets.Remove(id)
}

// SetTodayAsDefault puts today's date in the transaction date field.
func (c *Controller) SetTodayAsDefault() {
	c.txDate.SetValue(c.dates.Today(c.now()))
}

// SaveBudget submits the editor rows as the selected month's budget.
func (c *Controller) SaveBudget(ctx context.Context) error {
	key, err := c.monthKey(c.budgetMsg)
	if err != nil {
		c.recorder.RecordAction(applog.OpSaveBudget, ResultInvalid)
		return err
	}

	rows := c.budgets.Rows()
	pairs := make([]core.BudgetRow, 0, len(rows))
	for _, r := range rows {
		pairs = append(pairs, core.BudgetRow{Category: r.Category, Limit: r.Limit})
	}
	limits := core.CollectLimits(pairs)

	res, err := c.api.SaveBudget(ctx, key, limits)
	if err != nil {
		c.failed(ctx, applog.OpSaveBudget, c.budgetMsg, err)
		return err
	}
	if !res.OK {
		c.budgetMsg.SetText(res.Message())
		c.recorder.RecordAction(applog.OpSaveBudget, ResultRejected)
		return fmt.Errorf("%w: %s", ErrRejected, res.Message())
	}

	c.budgetMsg.SetText(MsgBudgetSaved)
	c.recorder.RecordAction(applog.OpSaveBudget, ResultOK)
	c.logger.InfoContext(ctx, "Budget saved",
		applog.FieldMonthKey, key,
		applog.FieldCount, len(limits),
	)
	return nil
}

// AddTransaction submits the transaction form. On success the listing is
// reloaded once and the form is cleared except for the type selector.
func (c *Controller) AddTransaction(ctx context.Context) error {
	date, err := c.dates.TransactionDate(c.txDate.Value())
	if err != nil {
		if errors.Is(err, convention.ErrDateRequired) {
			c.txMsg.SetText(MsgSelectDate)
		} else {
			c.txMsg.SetText(MsgInvalidDate)
		}
		c.recorder.RecordAction(applog.OpAddTransaction, ResultInvalid)
		return err
	}

	tx := core.NewTransaction{
		Date:        date,
		Amount:      strings.TrimSpace(c.txAmount.Value()),
		Type:        c.txType.Value(),
		Category:    strings.TrimSpace(c.txCategory.Value()),
		Description: strings.TrimSpace(c.txDesc.Value()),
	}

	res, err := c.api.AddTransaction(ctx, tx)
	if err != nil {
		c.failed(ctx, applog.OpAddTransaction, c.txMsg, err)
		return err
	}
	if !res.OK {
		c.txMsg.SetText(res.Message())
		c.recorder.RecordAction(applog.OpAddTransaction, ResultRejected)
		return fmt.Errorf("%w: %s", ErrRejected, res.Message())
	}

	c.txMsg.SetText(MsgTransactionAdded)
	c.recorder.RecordAction(applog.OpAddTransaction, ResultOK)
	c.logger.InfoContext(ctx, "Transaction added",
		applog.FieldCategory, tx.Category,
		"type", tx.Type,
	)

	// A failed reload is reported in the table; the transaction itself was stored.
	_ = c.LoadTransactions(ctx)

	c.txDate.SetValue("")
	c.txAmount.SetValue("")
	c.txCategory.SetValue("")
	c.txDesc.SetValue("")
	return nil
}

// LoadTransactions replaces the table with the filtered listing. A month that
// does not convert is left out of the query rather than reported.
func (c *Controller) LoadTransactions(ctx context.Context) error {
	var filter core.TransactionFilter
	if m := strings.TrimSpace(c.month.Value()); m != "" {
		if key, err := c.dates.MonthKey(m); err == nil {
			filter.Month = key
		}
	}
	filter.Category = strings.TrimSpace(c.filterCategory.Value())

	txs, err := c.api.ListTransactions(ctx, filter)
	if err != nil {
		c.logFailure(ctx, applog.OpListTransactions, err)
		c.transactions.SetStatus(failureText(err))
		c.recorder.RecordAction(applog.OpListTransactions, ResultFailed)
		return err
	}

	c.transactions.Replace(TransactionRows(txs))
	c.recorder.RecordAction(applog.OpListTransactions, ResultOK)
	return nil
}

// LoadReport renders the selected month's report into the report area.
func (c *Controller) LoadReport(ctx context.Context) error {
	input := strings.TrimSpace(c.month.Value())
	key, err := c.monthKey(c.report)
	if err != nil {
		c.recorder.RecordAction(applog.OpLoadReport, ResultInvalid)
		return err
	}

	r, err := c.api.GetReport(ctx, key)
	if err != nil {
		c.failed(ctx, applog.OpLoadReport, c.report, err)
		return err
	}

	month := input
	if c.echo == EchoServer && r.Month != "" {
		month = c.dates.DisplayMonth(r.Month)
	}
	c.report.SetText(ReportText(month, r))
	c.recorder.RecordAction(applog.OpLoadReport, ResultOK)
	return nil
}

// MonthChanged reloads the budget editor for the new month and then the
// transaction listing. An empty or malformed month only clears the editor
// before the listing reload.
func (c *Controller) MonthChanged(ctx context.Context) error {
	c.budgets.Clear()

	if key, err := c.dates.MonthKey(c.month.Value()); err == nil {
		limits, err := c.api.GetBudget(ctx, key)
		switch {
		case err != nil:
			c.failed(ctx, applog.OpGetBudget, c.budgetMsg, err)
		case len(limits) == 0:
			c.AddBudgetRow("", "")
		default:
			categories := make([]string, 0, len(limits))
			for category := range limits {
				categories = append(categories, category)
			}
			sort.Strings(categories)
			for _, category := range categories {
				c.AddBudgetRow(category, limits[category])
			}
		}
	}

	c.recorder.RecordAction(applog.OpMonthChanged, ResultOK)
	return c.LoadTransactions(ctx)
}

// monthKey converts the month field, writing a prompt to out when it is
// missing or malformed.
func (c *Controller) monthKey(out Output) (string, error) {
	key, err := c.dates.MonthKey(c.month.Value())
	switch {
	case errors.Is(err, convention.ErrMonthRequired):
		out.SetText("Enter month (" + c.dates.MonthHint() + ")")
	case err != nil:
		out.SetText("Invalid month format. Use " + c.dates.MonthHint())
	}
	return key, err
}

func (c *Controller) failed(ctx context.Context, op string, out Output, err error) {
	c.logFailure(ctx, op, err)
	out.SetText(failureText(err))
	c.recorder.RecordAction(op, ResultFailed)
}

func (c *Controller) logFailure(ctx context.Context, op string, err error) {
	errorType := applog.ErrorTypeApplication
	if errors.Is(err, budgetapi.ErrTransport) {
		errorType = applog.ErrorTypeNetwork
	}
	c.logger.WarnContext(ctx, "Budget API request failed",
		applog.FieldOperation, op,
		applog.FieldError, err.Error(),
		applog.FieldErrorType, errorType,
	)
}

// failureText is the message shown for a call that returned an error.
func failureText(err error) string {
	var serr *budgetapi.StatusError
	if errors.As(err, &serr) {
		if serr.Message != "" {
			return serr.Message
		}
		return core.DefaultErrorMessage
	}
	return MsgRequestFailed
}
