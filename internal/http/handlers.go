package http

import (
	"encoding/json"
	"net/http"
	"time"

	applog "budgetui/internal/log"
	"budgetui/internal/ui"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := map[string]any{
		"status":    "ok",
		"timestamp": s.now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	}
	writeJSON(w, http.StatusOK, health)
}

// handleReady reports whether the server can render pages and reach a backend.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	if s.api == nil {
		checks["budget_api"] = "not_configured"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["budget_api"] = "ok"
	}

	checks["rate_limiter"] = map[string]any{
		"active_clients": s.limiter.ActiveClients(),
		"status":         "ok",
	}
	checks["convention"] = s.dates.Name()

	writeJSON(w, httpStatus, map[string]any{
		"status":    status,
		"timestamp": s.now().Format(time.RFC3339),
		"checks":    checks,
	})
}

// handleIndex renders the full page with today's date preselected.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if resp := RequireMethod(r, http.MethodGet, http.MethodHead); resp != nil {
		resp.Write(w)
		return
	}
	if s.templates == nil {
		s.logger.ErrorContext(r.Context(), "Templates not loaded",
			applog.FieldPath, r.URL.Path,
			applog.FieldErrorType, applog.ErrorTypeConfiguration)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	page := ui.NewPage()
	ctrl, err := s.controller(r, page)
	if err != nil {
		s.internalError(w, r, applog.OpRender, err)
		return
	}
	ctrl.SetTodayAsDefault()

	data := struct {
		Elements map[string]any
		Hint     string
	}{
		Elements: s.pageElements(page),
		Hint:     s.dates.MonthHint(),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, "index.html", data); err != nil {
		s.logger.ErrorContext(r.Context(), "Index template execution failed",
			applog.FieldError, err.Error(),
			"template", "index.html")
		http.Error(w, "template error", http.StatusInternalServerError)
	}
}

// internalError logs err and answers 500. It is only used when the page
// itself cannot be built; API failures are rendered inline instead.
func (s *Server) internalError(w http.ResponseWriter, r *http.Request, op string, err error) {
	s.logger.ErrorContext(r.Context(), "Request could not be handled",
		applog.FieldOperation, op,
		applog.FieldError, err.Error(),
		applog.FieldErrorType, applog.ErrorTypeInternal)
	InternalServerError("Something went wrong").Write(w)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
