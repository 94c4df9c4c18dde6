package ui

import (
	"context"
	"sync"

	"budgetui/internal/core"
)

// fakeAPI records every call and answers with canned values.
type fakeAPI struct {
	mu sync.Mutex

	saved     []savedBudget
	added     []core.NewTransaction
	listed    []core.TransactionFilter
	budgetFor []string
	reportFor []string

	saveResult core.Result
	addResult  core.Result
	limits     core.Limits
	txs        []core.Transaction
	report     core.Report

	saveErr   error
	addErr    error
	budgetErr error
	listErr   error
	reportErr error
}

type savedBudget struct {
	month  string
	limits core.Limits
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		saveResult: core.Result{OK: true},
		addResult:  core.Result{OK: true},
	}
}

func (f *fakeAPI) SaveBudget(_ context.Context, month string, limits core.Limits) (core.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = append(f.saved, savedBudget{month, limits})
	return f.saveResult, f.saveErr
}

func (f *fakeAPI) GetBudget(_ context.Context, month string) (core.Limits, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.budgetFor = append(f.budgetFor, month)
	return f.limits, f.budgetErr
}

func (f *fakeAPI) AddTransaction(_ context.Context, tx core.NewTransaction) (core.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.added = append(f.added, tx)
	return f.addResult, f.addErr
}

func (f *fakeAPI) ListTransactions(_ context.Context, filter core.TransactionFilter) ([]core.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listed = append(f.listed, filter)
	return f.txs, f.listErr
}

func (f *fakeAPI) GetReport(_ context.Context, month string) (core.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reportFor = append(f.reportFor, month)
	return f.report, f.reportErr
}

func (f *fakeAPI) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.saved) + len(f.added) + len(f.listed) + len(f.budgetFor) + len(f.reportFor)
}
