package http

import (
	"context"
	"net/http"

	applog "budgetui/internal/log"
	"budgetui/internal/ui"
)

// operation runs one controller action against the submitted page. The
// response is always 200 with the touched elements as out-of-band swaps;
// validation messages and API failures are part of those elements.
func (s *Server) operation(w http.ResponseWriter, r *http.Request, op string,
	run func(context.Context, *ui.Controller) error,
	onSuccess func(*HTMXResponseBuilder, *ui.Controller, *ui.Page),
) {
	page, resp := pageFromRequest(w, r)
	if resp != nil {
		resp.Write(w)
		return
	}

	ctrl, err := s.controller(r, page)
	if err != nil {
		s.internalError(w, r, op, err)
		return
	}

	out := NewHTMXResponse()
	if err := run(r.Context(), ctrl); err != nil {
		applog.FromContext(r.Context()).DebugContext(r.Context(), "Operation did not complete",
			applog.FieldOperation, op,
			applog.FieldError, err.Error())
	} else if onSuccess != nil {
		onSuccess(out, ctrl, page)
	}

	body, err := s.renderChanged(page)
	if err != nil {
		s.internalError(w, r, op, err)
		return
	}
	out.BodyHTML(body).Write(w)
}

// handleBudgetRow returns one empty (or prefilled) editor row to append.
func (s *Server) handleBudgetRow(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}

	page := ui.NewPage()
	ctrl, err := s.controller(r, page)
	if err != nil {
		s.internalError(w, r, applog.OpRender, err)
		return
	}

	q := r.URL.Query()
	id := ctrl.AddBudgetRow(sanitizeInput(q.Get("category")), sanitizeInput(q.Get("limit")))
	row, _ := page.BudgetRow(id)

	body, err := s.renderBudgetRow(row)
	if err != nil {
		s.internalError(w, r, applog.OpRender, err)
		return
	}
	NewHTMXResponse().BodyHTML(body).Write(w)
}

func (s *Server) handleSaveBudget(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	s.operation(w, r, applog.OpSaveBudget,
		func(ctx context.Context, c *ui.Controller) error { return c.SaveBudget(ctx) },
		func(b *HTMXResponseBuilder, c *ui.Controller, p *ui.Page) {
			key, _ := c.Convention().MonthKey(p.Value(ui.IDMonth))
			b.TriggerBudgetSaved(key)
		})
}

func (s *Server) handleMonthChanged(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	s.operation(w, r, applog.OpMonthChanged,
		func(ctx context.Context, c *ui.Controller) error { return c.MonthChanged(ctx) },
		func(b *HTMXResponseBuilder, _ *ui.Controller, p *ui.Page) {
			b.TriggerMonthChanged(p.Value(ui.IDMonth))
		})
}

// handleTransactions lists transactions on GET and adds one on POST.
func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.operation(w, r, applog.OpListTransactions,
			func(ctx context.Context, c *ui.Controller) error { return c.LoadTransactions(ctx) },
			func(b *HTMXResponseBuilder, _ *ui.Controller, p *ui.Page) {
				b.TriggerTransactionsLoaded(len(p.TransactionRows()))
			})
	case http.MethodPost:
		s.operation(w, r, applog.OpAddTransaction,
			func(ctx context.Context, c *ui.Controller) error { return c.AddTransaction(ctx) },
			func(b *HTMXResponseBuilder, _ *ui.Controller, _ *ui.Page) {
				b.TriggerTransactionAdded()
			})
	default:
		MethodNotAllowedError("GET, POST").Write(w)
	}
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	s.operation(w, r, applog.OpLoadReport,
		func(ctx context.Context, c *ui.Controller) error { return c.LoadReport(ctx) },
		func(b *HTMXResponseBuilder, _ *ui.Controller, _ *ui.Page) {
			b.TriggerReportLoaded()
		})
}
