package http

import (
	"bytes"
	"fmt"
	"slices"

	"budgetui/internal/convention"
	"budgetui/internal/ui"
)

// Template data for the page elements. Each element has a template named
// "el_<id>" in web/templates/fragments.html; OOB marks it for an htmx
// out-of-band swap.

type fieldView struct {
	Value    string
	Hint     string
	DateType string
	OOB      bool
}

type textView struct {
	Text string
	OOB  bool
}

type budgetsView struct {
	Rows []ui.BudgetRow
	OOB  bool
}

type tableView struct {
	Rows []ui.TransactionRow
	OOB  bool
}

// elementTemplate is the template that renders the element with id.
func elementTemplate(id string) string {
	return "el_" + id
}

// elementView builds the template data for one element of page.
func (s *Server) elementView(page *ui.Page, id string, oob bool) any {
	switch {
	case slices.Contains(ui.InputIDs, id):
		return fieldView{
			Value:    page.Value(id),
			Hint:     s.dates.MonthHint(),
			DateType: dateInputType(s.dates),
			OOB:      oob,
		}
	case id == ui.IDBudgets:
		return budgetsView{Rows: page.BudgetRows(), OOB: oob}
	case id == ui.IDTxTable:
		return tableView{Rows: page.TransactionRows(), OOB: oob}
	case id == ui.IDTxStatus:
		return textView{Text: page.TableStatus(), OOB: oob}
	default:
		return textView{Text: page.Text(id), OOB: oob}
	}
}

// pageElements returns the data for every element, keyed by id, for the
// full page render.
func (s *Server) pageElements(page *ui.Page) map[string]any {
	ids := slices.Concat(ui.InputIDs, ui.OutputIDs, []string{ui.IDBudgets, ui.IDTxTable, ui.IDTxStatus})
	elements := make(map[string]any, len(ids))
	for _, id := range ids {
		elements[id] = s.elementView(page, id, false)
	}
	return elements
}

// renderChanged renders every element the operation touched as an
// out-of-band fragment.
func (s *Server) renderChanged(page *ui.Page) ([]byte, error) {
	if s.templates == nil {
		return nil, errTemplatesMissing
	}
	var buf bytes.Buffer
	for _, id := range page.Changed() {
		if err := s.templates.ExecuteTemplate(&buf, elementTemplate(id), s.elementView(page, id, true)); err != nil {
			return nil, fmt.Errorf("render %s: %w", id, err)
		}
	}
	return buf.Bytes(), nil
}

// renderBudgetRow renders a single editor row for appending to the list.
func (s *Server) renderBudgetRow(row ui.BudgetRow) ([]byte, error) {
	if s.templates == nil {
		return nil, errTemplatesMissing
	}
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, "budget_row", row); err != nil {
		return nil, fmt.Errorf("render budget row: %w", err)
	}
	return buf.Bytes(), nil
}

// dateInputType is "date" when the convention reads a date picker value.
func dateInputType(a convention.Adapter) string {
	if a.Name() == convention.NameMonthYear {
		return "date"
	}
	return "text"
}
