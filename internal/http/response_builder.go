// Package http provides HTTP server and handler implementations.
//
// This file implements the Builder Pattern for constructing HTMX responses.
// It provides a type-safe, fluent API for building HX-Trigger headers and
// consistent response formatting.

package http

import (
	"encoding/json"
	"html/template"
	"net/http"
)

// Client-side events fired through HX-Trigger.
const (
	EventBudgetSaved       = "budget:saved"
	EventTransactionAdded  = "transaction:added"
	EventTransactionsShown = "transactions:loaded"
	EventMonthChanged      = "month:changed"
	EventReportLoaded      = "report:loaded"
)

// HTMXResponseBuilder provides a fluent API for building HTMX responses.
// It encapsulates the construction of HX-Trigger headers and response bodies.
type HTMXResponseBuilder struct {
	triggers   map[string]any
	statusCode int
	body       []byte
	headers    map[string]string
}

// NewHTMXResponse creates a new response builder with default 200 status.
func NewHTMXResponse() *HTMXResponseBuilder {
	return &HTMXResponseBuilder{
		triggers:   make(map[string]any),
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

// Status sets the HTTP status code for the response.
func (b *HTMXResponseBuilder) Status(code int) *HTMXResponseBuilder {
	b.statusCode = code
	return b
}

// Trigger adds a named trigger with optional data to the HX-Trigger header.
func (b *HTMXResponseBuilder) Trigger(name string, data any) *HTMXResponseBuilder {
	b.triggers[name] = data
	return b
}

// TriggerBudgetSaved adds the budget:saved trigger with the backend month key.
func (b *HTMXResponseBuilder) TriggerBudgetSaved(monthKey string) *HTMXResponseBuilder {
	return b.Trigger(EventBudgetSaved, map[string]string{"month": monthKey})
}

// TriggerTransactionAdded adds the transaction:added trigger.
func (b *HTMXResponseBuilder) TriggerTransactionAdded() *HTMXResponseBuilder {
	return b.Trigger(EventTransactionAdded, struct{}{})
}

// TriggerTransactionsLoaded adds the transactions:loaded trigger with the row count.
func (b *HTMXResponseBuilder) TriggerTransactionsLoaded(count int) *HTMXResponseBuilder {
	return b.Trigger(EventTransactionsShown, map[string]int{"count": count})
}

// TriggerMonthChanged adds the month:changed trigger with the month as typed.
func (b *HTMXResponseBuilder) TriggerMonthChanged(month string) *HTMXResponseBuilder {
	return b.Trigger(EventMonthChanged, map[string]string{"month": month})
}

// TriggerReportLoaded adds the report:loaded trigger.
func (b *HTMXResponseBuilder) TriggerReportLoaded() *HTMXResponseBuilder {
	return b.Trigger(EventReportLoaded, struct{}{})
}

// Header adds a custom header to the response.
func (b *HTMXResponseBuilder) Header(name, value string) *HTMXResponseBuilder {
	b.headers[name] = value
	return b
}

// BodyHTML sets the response body as HTML content.
func (b *HTMXResponseBuilder) BodyHTML(html []byte) *HTMXResponseBuilder {
	b.headers["Content-Type"] = "text/html; charset=utf-8"
	b.body = html
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *HTMXResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}

	if len(b.triggers) > 0 {
		triggerJSON, err := json.Marshal(b.triggers)
		if err == nil {
			w.Header().Set("HX-Trigger", string(triggerJSON))
		}
	}

	w.WriteHeader(b.statusCode)
	if len(b.body) > 0 {
		_, _ = w.Write(b.body)
	}
}

// ErrorResponse creates a standard error response with HTML formatting.
// The message is HTML-escaped for safety.
func ErrorResponse(statusCode int, message string) *HTMXResponseBuilder {
	escapedMsg := template.HTMLEscapeString(message)
	return NewHTMXResponse().
		Status(statusCode).
		BodyHTML([]byte(`<div class="error">` + escapedMsg + `</div>`))
}

// BadRequestError creates a 400 Bad Request error response.
func BadRequestError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

// InternalServerError creates a 500 Internal Server Error response.
func InternalServerError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, message)
}

// TooManyRequestsError creates a 429 response. Retry-After is set by the limiter.
func TooManyRequestsError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusTooManyRequests, message)
}

// MethodNotAllowedError creates a 405 Method Not Allowed error response.
func MethodNotAllowedError(allowedMethods string) *HTMXResponseBuilder {
	return NewHTMXResponse().
		Status(http.StatusMethodNotAllowed).
		Header("Allow", allowedMethods)
}
