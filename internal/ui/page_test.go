package ui

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPage_FillIsNotAChange(t *testing.T) {
	p := NewPage()
	p.Fill(url.Values{
		IDMonth:      {"03-2024"},
		IDTxType:     {"income"},
		FormRowID:    {"row-a", "row-b"},
		FormCategory: {"Food", "Rent"},
		FormLimit:    {"50", ""},
		"unrelated":  {"x"},
	})

	assert.Equal(t, "03-2024", p.Value(IDMonth))
	assert.Equal(t, "income", p.Value(IDTxType))
	assert.Empty(t, p.Changed())

	rows := p.BudgetRows()
	require.Len(t, rows, 2)
	assert.Equal(t, BudgetRow{ID: "row-a", Category: "Food", Limit: "50"}, rows[0])
	assert.Equal(t, BudgetRow{ID: "row-b", Category: "Rent", Limit: ""}, rows[1])
}

func TestPage_FillGeneratesMissingRowIDs(t *testing.T) {
	p := NewPage()
	p.Fill(url.Values{FormCategory: {"Food", "Rent"}, FormLimit: {"1"}})

	rows := p.BudgetRows()
	require.Len(t, rows, 2)
	assert.NotEmpty(t, rows[0].ID)
	assert.NotEqual(t, rows[0].ID, rows[1].ID)
	assert.Empty(t, rows[1].Limit)
}

func TestPage_ChangedInPageOrder(t *testing.T) {
	p := NewPage()
	p.Output(IDReport).SetText("r")
	p.Input(IDTxAmount).SetValue("")
	p.BudgetEditor(IDBudgets).Append("Food", "1")
	p.Input(IDMonth).SetValue("03-2024")
	p.TransactionTable(IDTxTable).Replace(nil)

	assert.Equal(t, []string{IDMonth, IDTxAmount, IDBudgets, IDReport, IDTxTable, IDTxStatus}, p.Changed())
}

func TestPage_UnknownIDs(t *testing.T) {
	p := NewPage()
	assert.Nil(t, p.Input("nope"))
	assert.Nil(t, p.Output("nope"))
	assert.Nil(t, p.BudgetEditor(IDTxTable))
	assert.Nil(t, p.TransactionTable(IDBudgets))
	assert.Empty(t, p.Value("nope"))
	assert.Empty(t, p.Text("nope"))
}

func TestPage_BudgetRowLookup(t *testing.T) {
	p := NewPage()
	id := p.BudgetEditor(IDBudgets).Append("Food", "50")

	row, ok := p.BudgetRow(id)
	require.True(t, ok)
	assert.Equal(t, "Food", row.Category)

	_, ok = p.BudgetRow("missing")
	assert.False(t, ok)
}
