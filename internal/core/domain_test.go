package core

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestCollectLimits(t *testing.T) {
	tests := []struct {
		name string
		rows []BudgetRow
		want Limits
	}{
		{
			name: "empty limit becomes zero",
			rows: []BudgetRow{{Category: "Food", Limit: "200"}, {Category: "Rent", Limit: ""}},
			want: Limits{"Food": "200", "Rent": "0"},
		},
		{
			name: "blank categories are dropped",
			rows: []BudgetRow{{Category: "  ", Limit: "50"}, {Category: "", Limit: ""}, {Category: " Fun ", Limit: " 10 "}},
			want: Limits{"Fun": "10"},
		},
		{
			name: "last duplicate wins",
			rows: []BudgetRow{{Category: "Food", Limit: "1"}, {Category: "Food", Limit: "2"}},
			want: Limits{"Food": "2"},
		},
		{
			name: "no rows",
			rows: nil,
			want: Limits{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CollectLimits(tt.rows); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("CollectLimits() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResultMessage(t *testing.T) {
	if got := (Result{}).Message(); got != "Error" {
		t.Errorf("empty result message = %q, want Error", got)
	}
	if got := (Result{Error: "Limit for Food must be >= 0"}).Message(); got != "Limit for Food must be >= 0" {
		t.Errorf("result message = %q", got)
	}
}

func TestReportDecode(t *testing.T) {
	body := `{"month":"2024-03","income":1500.0,"expenses":320.5,"net":1179.5,"burn_rate":10.34,
		"forecast_expenses":320.5,"breakdown":[
		{"category":"Food","limit":200.0,"actual":250.5,"remaining":-50.5},
		{"category":"Misc","limit":0,"actual":70,"remaining":null}]}`

	var r Report
	if err := json.Unmarshal([]byte(body), &r); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if r.Income.String() != "1500" || r.Expenses.String() != "320.5" {
		t.Errorf("unexpected totals: income=%s expenses=%s", r.Income, r.Expenses)
	}
	if len(r.Breakdown) != 2 {
		t.Fatalf("breakdown rows = %d, want 2", len(r.Breakdown))
	}
	if !r.Breakdown[0].Remaining.Valid || r.Breakdown[0].Remaining.Decimal.String() != "-50.5" {
		t.Errorf("Food remaining = %+v", r.Breakdown[0].Remaining)
	}
	if r.Breakdown[1].Remaining.Valid {
		t.Errorf("Misc remaining should be null")
	}
}

func TestTransactionType(t *testing.T) {
	if !Expense.IsValid() || !Income.IsValid() {
		t.Error("expense and income must be valid")
	}
	if TransactionType("transfer").IsValid() {
		t.Error("transfer must not be valid")
	}
}
