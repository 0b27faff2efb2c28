package model

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation reports bad caller input: a malformed symbol, an
	// unparsable date or a start date after the end date.
	ErrValidation = errors.New("validation error")
	// ErrNotFound reports a symbol unknown to the quote source or catalog.
	ErrNotFound = errors.New("not found")
	// ErrUnavailable reports a transient quote source failure.
	ErrUnavailable = errors.New("source unavailable")
	// ErrStorage reports an unreachable store or a failed write.
	ErrStorage = errors.New("storage error")
	// ErrInsufficientData reports a series too short for an estimator.
	ErrInsufficientData = errors.New("insufficient data")
	// ErrDegenerateResult reports an estimate with no meaningful value,
	// e.g. a half-life for a non mean-reverting slope.
	ErrDegenerateResult = errors.New("degenerate result")
)

// InsufficientData builds an ErrInsufficientData error with the counts.
func InsufficientData(what string, got, need int) error {
	return fmt.Errorf("%s: got %d observations, need at least %d: %w", what, got, need, ErrInsufficientData)
}

// ErrorKind maps err to the short reason used in reports.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrUnavailable):
		return "unavailable"
	case errors.Is(err, ErrStorage):
		return "storage"
	case errors.Is(err, ErrInsufficientData):
		return "insufficient_data"
	case errors.Is(err, ErrDegenerateResult):
		return "degenerate"
	default:
		return "other"
	}
}
