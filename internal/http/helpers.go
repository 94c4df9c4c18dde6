package http

import (
	"errors"
	"net/url"
	"strings"
)

var errTemplatesMissing = errors.New("templates not loaded")

// sanitizeInput removes control characters other than tab and newlines.
// Surrounding whitespace is left alone; the controller trims what it needs.
func sanitizeInput(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// sanitizeForm applies sanitizeInput to every submitted value.
func sanitizeForm(form url.Values) url.Values {
	clean := make(url.Values, len(form))
	for key, values := range form {
		out := make([]string, len(values))
		for i, v := range values {
			out[i] = sanitizeInput(v)
		}
		clean[key] = out
	}
	return clean
}
