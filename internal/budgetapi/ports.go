// Package budgetapi is the client side of the budgeting JSON API.
//
// API is the port the UI controller talks to. Client reaches a remote server
// over HTTP; the memory subpackage serves the same port in-process.
package budgetapi

import (
	"context"
	"errors"
	"fmt"
	"time"

	"budgetui/internal/core"
)

// API is the set of calls the client makes. Write calls report application
// failures through core.Result and reserve the error return for requests that
// did not produce a usable response.
type API interface {
	SaveBudget(ctx context.Context, month string, limits core.Limits) (core.Result, error)
	GetBudget(ctx context.Context, month string) (core.Limits, error)
	AddTransaction(ctx context.Context, tx core.NewTransaction) (core.Result, error)
	ListTransactions(ctx context.Context, filter core.TransactionFilter) ([]core.Transaction, error)
	GetReport(ctx context.Context, month string) (core.Report, error)
}

// CallObserver receives the outcome and latency of every API call.
type CallObserver interface {
	ObserveAPICall(endpoint, outcome string, elapsed time.Duration)
}

// Endpoint labels.
const (
	EndpointSaveBudget       = "save_budget"
	EndpointGetBudget        = "get_budget"
	EndpointAddTransaction   = "add_transaction"
	EndpointListTransactions = "list_transactions"
	EndpointGetReport        = "get_report"
)

// Call outcomes.
const (
	OutcomeOK        = "ok"
	OutcomeRejected  = "rejected"
	OutcomeTransport = "transport_error"
	OutcomeDecode    = "decode_error"
)

// ErrTransport marks calls that failed before a well-formed response arrived:
// connection errors, timeouts and undecodable bodies.
var ErrTransport = errors.New("budget api unreachable")

// StatusError is returned by read calls when the API answers with an error status.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("budget api returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("budget api returned status %d: %s", e.StatusCode, e.Message)
}

type noopObserver struct{}

func (noopObserver) ObserveAPICall(string, string, time.Duration) {}
