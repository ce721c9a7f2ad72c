package budget

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - use with errors.Is()
// =============================================================================

var (
	// ErrPropertyRequired is returned when a projection is requested
	// without a property selected. No upstream call is attempted.
	ErrPropertyRequired = errors.New("property is required")

	// ErrClosingMonthRequired is returned when a projection is requested
	// without a closing month. No upstream call is attempted.
	ErrClosingMonthRequired = errors.New("closing month is required")

	// ErrSuperseded is returned when a projection finished after the
	// operator had already started a newer one. Last request wins; the
	// stale result is discarded.
	ErrSuperseded = errors.New("projection superseded by a newer request")

	// ErrNoProjection is returned by operations that need a generated
	// projection (setters, apportionment) before one exists.
	ErrNoProjection = errors.New("no projection generated yet")
)

// IsValidationError reports whether the error is caller input, as
// opposed to an upstream or internal failure.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrPropertyRequired) ||
		errors.Is(err, ErrClosingMonthRequired) ||
		errors.Is(err, ErrNoProjection)
}

// =============================================================================
// DEGRADATION WARNINGS
// =============================================================================

// PeriodWarning records one period whose ledger fetch failed and was
// degraded to zero entries. The other eleven periods proceed.
type PeriodWarning struct {
	PeriodLabel string
	Err         error
}

func (w PeriodWarning) String() string {
	return fmt.Sprintf("período %s indisponível: %v", w.PeriodLabel, w.Err)
}
