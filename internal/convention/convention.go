// Package convention converts between the month and date formats typed into
// the form and the formats the budget API expects.
//
// Exactly one Adapter is chosen when the client is built. Nothing else in the
// client inspects or rewrites date strings.
package convention

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Names accepted by New.
const (
	NameMonthYear   = "mm-yyyy"
	NamePassthrough = "yyyy-mm"
)

var (
	ErrMonthRequired = errors.New("month is required")
	ErrMonthFormat   = errors.New("invalid month format")
	ErrDateRequired  = errors.New("date is required")
	ErrDateFormat    = errors.New("invalid date format")
	ErrUnknown       = errors.New("unknown month convention")
)

// Adapter owns every conversion between user-facing and backend date formats.
type Adapter interface {
	// Name is the convention identifier, as accepted by New.
	Name() string
	// MonthKey converts typed month input to the backend YYYY-MM key.
	MonthKey(input string) (string, error)
	// DisplayMonth converts a backend key back to the user-facing form.
	DisplayMonth(key string) string
	// TransactionDate converts the date field value to the form sent on POST.
	TransactionDate(input string) (string, error)
	// Today is the date field value for now.
	Today(now time.Time) string
	// MonthHint is the month format shown in prompts.
	MonthHint() string
}

// New returns the adapter registered under name.
func New(name string) (Adapter, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case NameMonthYear, "":
		return MonthYear{}, nil
	case NamePassthrough, "passthrough":
		return Passthrough{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknown, name)
	}
}

// MonthYear accepts months as MM-YYYY and dates from a YYYY-MM-DD picker.
type MonthYear struct{}

func (MonthYear) Name() string      { return NameMonthYear }
func (MonthYear) MonthHint() string { return "MM-YYYY" }

// MonthKey reorders "3-2024" into "2024-03". Only the shape is checked: exactly
// two non-empty dash-separated parts. The month part is left-padded to two digits.
func (MonthYear) MonthKey(input string) (string, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return "", ErrMonthRequired
	}
	parts := strings.Split(s, "-")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", fmt.Errorf("%w: %q", ErrMonthFormat, s)
	}
	month := parts[0]
	if len(month) < 2 {
		month = "0" + month
	}
	return parts[1] + "-" + month, nil
}

// DisplayMonth turns "2024-03" into "03-2024". Keys of any other shape are returned as is.
func (MonthYear) DisplayMonth(key string) string {
	parts := strings.Split(key, "-")
	if len(parts) != 2 {
		return key
	}
	return parts[1] + "-" + parts[0]
}

// TransactionDate reorders the picker's YYYY-MM-DD into DD-MM-YYYY.
func (MonthYear) TransactionDate(input string) (string, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return "", ErrDateRequired
	}
	parts := strings.Split(s, "-")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return "", fmt.Errorf("%w: %q", ErrDateFormat, s)
	}
	return parts[2] + "-" + parts[1] + "-" + parts[0], nil
}

func (MonthYear) Today(now time.Time) string {
	return now.Format(time.DateOnly)
}

// Passthrough sends whatever was typed. The month is expected as YYYY-MM and
// the date is free text the backend interprets.
type Passthrough struct{}

func (Passthrough) Name() string      { return NamePassthrough }
func (Passthrough) MonthHint() string { return "YYYY-MM" }

func (Passthrough) MonthKey(input string) (string, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return "", ErrMonthRequired
	}
	return s, nil
}

func (Passthrough) DisplayMonth(key string) string { return key }

// TransactionDate returns the raw field value without checks.
func (Passthrough) TransactionDate(input string) (string, error) {
	return input, nil
}

func (Passthrough) Today(now time.Time) string {
	return now.Format(time.DateOnly)
}
