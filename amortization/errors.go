/*
errors.go - Error types for loan parameter validation

PURPOSE:
  Calculation itself never fails: degenerate inputs produce an empty plan
  and an out-of-range grace period is recovered locally. Errors only exist
  at the boundary, when caller-supplied LoanParameters break an invariant.

ERROR CATEGORIES:
  1. Sentinel errors - one per violated invariant, use with errors.Is()
  2. ParameterError  - names the offending field and value, unwraps to a sentinel

USAGE:
  if err := params.Validate(); err != nil {
      var pe *amortization.ParameterError
      if errors.As(err, &pe) {
          log.Printf("bad %s: %v", pe.Field, pe.Value)
      }
  }

SEE ALSO:
  - types.go: LoanParameters.Validate
  - planner/service.go: Rejects invalid parameters before scheduling
*/
package amortization

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidAmount is returned for a negative principal.
	ErrInvalidAmount = errors.New("amount must not be negative")

	// ErrInvalidRate is returned when the nominal, opening or monthly rate is negative.
	ErrInvalidRate = errors.New("rate must not be negative")

	// ErrInvalidDuration is returned when the loan runs for less than one month.
	ErrInvalidDuration = errors.New("duration must be at least one month")

	// ErrInvalidRepaymentDay is returned for a repayment day outside 0..31.
	ErrInvalidRepaymentDay = errors.New("repayment day must be between 1 and 31")

	// ErrInvalidGracePeriod is returned for a negative grace period.
	ErrInvalidGracePeriod = errors.New("grace period must not be negative")

	// ErrMissingStartDate is returned when no start date is set.
	ErrMissingStartDate = errors.New("start date is required")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ParameterError reports which loan parameter broke which invariant.
type ParameterError struct {
	Field string
	Value any
	Err   error
}

func (e *ParameterError) Error() string {
	return fmt.Sprintf("invalid %s (%v): %v", e.Field, e.Value, e.Err)
}

func (e *ParameterError) Unwrap() error {
	return e.Err
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrInvalidRate) ||
		errors.Is(err, ErrInvalidDuration) ||
		errors.Is(err, ErrInvalidRepaymentDay) ||
		errors.Is(err, ErrInvalidGracePeriod) ||
		errors.Is(err, ErrMissingStartDate)
}
