package ui

// Element ids the controller binds to.
const (
	IDMonth          = "month"
	IDFilterCategory = "filter-category"
	IDTxDate         = "tx-date"
	IDTxAmount       = "tx-amount"
	IDTxType         = "tx-type"
	IDTxCategory     = "tx-category"
	IDTxDesc         = "tx-desc"
	IDBudgetMsg      = "budget-msg"
	IDTxMsg          = "tx-msg"
	IDReport         = "report"
	IDBudgets        = "budgets"
	IDTxTable        = "tx-table"

	// IDTxStatus is the note shown under the transaction table.
	IDTxStatus = "tx-status"
)

// InputIDs and OutputIDs list the form fields and text areas in page order.
var (
	InputIDs  = []string{IDMonth, IDFilterCategory, IDTxDate, IDTxAmount, IDTxType, IDTxCategory, IDTxDesc}
	OutputIDs = []string{IDBudgetMsg, IDTxMsg, IDReport}
)

// Input is a form field.
type Input interface {
	Value() string
	SetValue(v string)
}

// Output is a text area whose content is replaced wholesale.
type Output interface {
	Text() string
	SetText(text string)
}

// BudgetRow is one editable category/limit row.
type BudgetRow struct {
	ID       string
	Category string
	Limit    string
}

// BudgetEditor is the list of budget rows for the selected month.
type BudgetEditor interface {
	Clear()
	// Append adds a row at the end and returns its id.
	Append(category, limit string) string
	// Remove deletes the row with id and reports whether it existed.
	Remove(id string) bool
	Rows() []BudgetRow
}

// TransactionRow is one formatted line of the transaction table.
type TransactionRow struct {
	Date        string
	Type        string
	Category    string
	Description string
	Amount      string
}

// TransactionTable is the rendered transaction list.
type TransactionTable interface {
	// Replace clears the table and renders rows in order.
	Replace(rows []TransactionRow)
	// SetStatus shows a note in place of a listing that could not be loaded.
	SetStatus(text string)
}

// Document gives the controller access to the page by element id. Lookups
// for unknown ids return nil.
type Document interface {
	Input(id string) Input
	Output(id string) Output
	BudgetEditor(id string) BudgetEditor
	TransactionTable(id string) TransactionTable
}
