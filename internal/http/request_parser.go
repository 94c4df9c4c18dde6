// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for reading submitted page state. htmx
// posts the whole page as form data; JSON bodies (hx json-enc) are accepted
// too and flattened to the same form values.

package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"budgetui/internal/ui"
)

// maxBodyBytes bounds a submitted page.
const maxBodyBytes = 1 << 20

// RequestBodyParser handles different content types for request body parsing.
// It supports both JSON and form-encoded data, commonly used with HTMX.
type RequestBodyParser struct {
	body        []byte
	contentType string
	values      url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser creates a parser for the given request.
// It reads the body once and stores it for subsequent parsing.
func NewRequestBodyParser(w http.ResponseWriter, r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
	}
	p.body, p.err = io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	return p
}

// Parse attempts to parse the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	if len(p.body) == 0 {
		p.values = url.Values{}
		return nil
	}

	if strings.HasPrefix(p.contentType, "application/json") || p.body[0] == '{' {
		p.values, p.err = jsonValues(p.body)
		return p.err
	}

	p.values, p.err = url.ParseQuery(string(p.body))
	return p.err
}

// Values returns the parsed body as form values.
func (p *RequestBodyParser) Values() url.Values {
	if p.values == nil {
		return url.Values{}
	}
	return p.values
}

// jsonValues flattens a JSON object into form values. Arrays become repeated
// values, which is how budget rows arrive.
func jsonValues(body []byte) (url.Values, error) {
	var obj map[string]any
	if err := json.Unmarshal(body, &obj); err != nil {
		return nil, err
	}
	values := url.Values{}
	for key, raw := range obj {
		switch v := raw.(type) {
		case []any:
			for _, item := range v {
				values.Add(key, stringValue(item))
			}
		default:
			values.Set(key, stringValue(v))
		}
	}
	return values, nil
}

// stringValue converts a decoded JSON value to string.
func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// pageFromRequest builds the page the browser submitted: query values first,
// then the body for writes, which wins on conflicts.
func pageFromRequest(w http.ResponseWriter, r *http.Request) (*ui.Page, *HTMXResponseBuilder) {
	values := r.URL.Query()
	if r.Method == http.MethodPost {
		p := NewRequestBodyParser(w, r)
		if err := p.Parse(); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				return nil, ErrorResponse(http.StatusRequestEntityTooLarge, "Request too large")
			}
			return nil, BadRequestError("Malformed request")
		}
		for key, vs := range p.Values() {
			values[key] = vs
		}
	}

	page := ui.NewPage()
	page.Fill(sanitizeForm(values))
	return page, nil
}

// RequireMethod checks if the request method matches the expected method(s).
// Returns an error response builder if the method doesn't match.
func RequireMethod(r *http.Request, methods ...string) *HTMXResponseBuilder {
	for _, m := range methods {
		if r.Method == m {
			return nil
		}
	}
	return MethodNotAllowedError(strings.Join(methods, ", "))
}

// RequirePOST is a convenience function for POST-only handlers.
func RequirePOST(r *http.Request) *HTMXResponseBuilder {
	return RequireMethod(r, http.MethodPost)
}

// RequireGET is a convenience function for read-only partials.
func RequireGET(r *http.Request) *HTMXResponseBuilder {
	return RequireMethod(r, http.MethodGet)
}
