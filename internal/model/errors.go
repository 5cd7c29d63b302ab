package model

import (
	"errors"
	"fmt"
	"time"
)

// Error classes. Concrete errors below unwrap to one of these so callers can
// branch with errors.Is.
var (
	ErrInsufficientData     = errors.New("insufficient data")
	ErrDegenerateInput      = errors.New("degenerate input")
	ErrInvalidConfiguration = errors.New("invalid configuration")
	ErrInvalidSeries        = errors.New("invalid series")
)

// InsufficientDataError is returned when a series is empty or shorter than
// the warm-up window.
type InsufficientDataError struct {
	Need int
	Have int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data: need at least %d returns, have %d", e.Need, e.Have)
}

func (e *InsufficientDataError) Unwrap() error { return ErrInsufficientData }

// DegenerateInputError reports an input for which a quantity is undefined,
// e.g. zero volatility in the sizing model or zero-variance returns in Sharpe.
// Index is -1 when the error is not tied to a single step.
type DegenerateInputError struct {
	Index     int
	Timestamp time.Time
	Reason    string
}

func (e *DegenerateInputError) Error() string {
	if e.Index < 0 {
		return "degenerate input: " + e.Reason
	}
	return fmt.Sprintf("degenerate input at index %d (%s): %s", e.Index, fmtTimestamp(e.Timestamp), e.Reason)
}

func (e *DegenerateInputError) Unwrap() error { return ErrDegenerateInput }

// InvalidConfigurationError names the offending option.
type InvalidConfigurationError struct {
	Field  string
	Reason string
}

func (e *InvalidConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s %s", e.Field, e.Reason)
}

func (e *InvalidConfigurationError) Unwrap() error { return ErrInvalidConfiguration }

// InvalidSeriesError reports an unusable observation in an input series.
type InvalidSeriesError struct {
	Index     int
	Timestamp time.Time
	Reason    string
}

func (e *InvalidSeriesError) Error() string {
	return fmt.Sprintf("invalid series at index %d (%s): %s", e.Index, fmtTimestamp(e.Timestamp), e.Reason)
}

func (e *InvalidSeriesError) Unwrap() error { return ErrInvalidSeries }

func fmtTimestamp(t time.Time) string {
	if t.IsZero() {
		return "no timestamp"
	}
	return t.Format("2006-01-02")
}
