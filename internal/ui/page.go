package ui

import (
	"crypto/rand"
	"encoding/hex"
	"net/url"
	"slices"
)

// Form keys used for budget rows. Each row submits one value per key, in order.
const (
	FormRowID    = "budget-row"
	FormCategory = "budget-category"
	FormLimit    = "budget-limit"
)

// Page is an in-memory Document built from one browser request. Elements
// remember whether an operation touched them so only those are re-rendered.
type Page struct {
	fields  map[string]*Field
	outputs map[string]*Text
	budgets *BudgetList
	table   *TransactionList
}

// NewPage returns a page with every element the controller expects, all empty.
func NewPage() *Page {
	p := &Page{
		fields:  make(map[string]*Field, len(InputIDs)),
		outputs: make(map[string]*Text, len(OutputIDs)),
		budgets: &BudgetList{},
		table:   &TransactionList{},
	}
	for _, id := range InputIDs {
		p.fields[id] = &Field{}
	}
	for _, id := range OutputIDs {
		p.outputs[id] = &Text{}
	}
	return p
}

// Fill loads submitted values without marking anything changed. Budget rows
// are rebuilt from the parallel row/category/limit values.
func (p *Page) Fill(form url.Values) {
	for _, id := range InputIDs {
		if values, ok := form[id]; ok && len(values) > 0 {
			p.fields[id].value = values[0]
		}
	}

	categories := form[FormCategory]
	limits := form[FormLimit]
	ids := form[FormRowID]
	for i, category := range categories {
		row := BudgetRow{Category: category}
		if i < len(limits) {
			row.Limit = limits[i]
		}
		if i < len(ids) && ids[i] != "" {
			row.ID = ids[i]
		} else {
			row.ID = newRowID()
		}
		p.budgets.rows = append(p.budgets.rows, row)
	}
}

func (p *Page) Input(id string) Input {
	if f, ok := p.fields[id]; ok {
		return f
	}
	return nil
}

func (p *Page) Output(id string) Output {
	if t, ok := p.outputs[id]; ok {
		return t
	}
	return nil
}

func (p *Page) BudgetEditor(id string) BudgetEditor {
	if id == IDBudgets {
		return p.budgets
	}
	return nil
}

func (p *Page) TransactionTable(id string) TransactionTable {
	if id == IDTxTable {
		return p.table
	}
	return nil
}

// Value returns the current value of a field, or "" for unknown ids.
func (p *Page) Value(id string) string {
	if f, ok := p.fields[id]; ok {
		return f.value
	}
	return ""
}

// Text returns the current content of an output, or "" for unknown ids.
func (p *Page) Text(id string) string {
	if t, ok := p.outputs[id]; ok {
		return t.text
	}
	return ""
}

func (p *Page) BudgetRows() []BudgetRow {
	return p.budgets.Rows()
}

// BudgetRow looks up a row by id.
func (p *Page) BudgetRow(id string) (BudgetRow, bool) {
	i := p.budgets.index(id)
	if i < 0 {
		return BudgetRow{}, false
	}
	return p.budgets.rows[i], true
}

func (p *Page) TransactionRows() []TransactionRow {
	return slices.Clone(p.table.rows)
}

func (p *Page) TableStatus() string {
	return p.table.status
}

// Changed lists the ids of elements modified since the page was filled, in
// page order.
func (p *Page) Changed() []string {
	var ids []string
	for _, id := range InputIDs {
		if p.fields[id].dirty {
			ids = append(ids, id)
		}
	}
	if p.budgets.dirty {
		ids = append(ids, IDBudgets)
	}
	for _, id := range OutputIDs {
		if p.outputs[id].dirty {
			ids = append(ids, id)
		}
	}
	if p.table.dirty {
		ids = append(ids, IDTxTable)
	}
	if p.table.statusDirty {
		ids = append(ids, IDTxStatus)
	}
	return ids
}

// IsChanged reports whether the element with id was modified.
func (p *Page) IsChanged(id string) bool {
	return slices.Contains(p.Changed(), id)
}

// Field is a form input.
type Field struct {
	value string
	dirty bool
}

func (f *Field) Value() string { return f.value }

func (f *Field) SetValue(v string) {
	f.value = v
	f.dirty = true
}

// Text is an output area.
type Text struct {
	text  string
	dirty bool
}

func (t *Text) Text() string { return t.text }

func (t *Text) SetText(text string) {
	t.text = text
	t.dirty = true
}

// BudgetList is the budget editor.
type BudgetList struct {
	rows  []BudgetRow
	dirty bool
}

func (b *BudgetList) Clear() {
	b.rows = nil
	b.dirty = true
}

func (b *BudgetList) Append(category, limit string) string {
	id := newRowID()
	b.rows = append(b.rows, BudgetRow{ID: id, Category: category, Limit: limit})
	b.dirty = true
	return id
}

func (b *BudgetList) Remove(id string) bool {
	i := b.index(id)
	if i < 0 {
		return false
	}
	b.rows = slices.Delete(b.rows, i, i+1)
	b.dirty = true
	return true
}

func (b *BudgetList) Rows() []BudgetRow {
	return slices.Clone(b.rows)
}

func (b *BudgetList) index(id string) int {
	return slices.IndexFunc(b.rows, func(r BudgetRow) bool { return r.ID == id })
}

// TransactionList is the transaction table. Rows and the status note are
// tracked apart so a failed reload leaves the listed rows in place.
type TransactionList struct {
	rows        []TransactionRow
	status      string
	dirty       bool
	statusDirty bool
}

func (t *TransactionList) Replace(rows []TransactionRow) {
	t.rows = slices.Clone(rows)
	t.dirty = true
	t.status = ""
	t.statusDirty = true
}

func (t *TransactionList) SetStatus(text string) {
	t.status = text
	t.statusDirty = true
}

// newRowID returns an id that is unique across requests, since rows created
// by different requests end up in the same browser document.
func newRowID() string {
	b := make([]byte, 6)
	_, _ = rand.Read(b)
	return "row-" + hex.EncodeToString(b)
}
