/*
Package amortization computes fixed-rate loan repayment plans.

PURPOSE:
  Turns a repayment calendar (see package calendar) plus loan parameters
  into one cash-flow record per period and an aggregate record, then solves
  for the effective annual rate of the resulting cash flows.

KEY CONCEPTS IN THIS FILE (types.go):
  - LoanParameters: caller-supplied, read-only input
  - PeriodKind:     disbursement / first / middle / last
  - PeriodRecord:   one row of the plan
  - Totals:         aggregate row, built by folding the period rows

DESIGN PRINCIPLES:
  1. Precision: money is decimal.Decimal, rounded half-up to cents as it is produced
  2. Sequential: period n starts from period n-1's closing balance
  3. Full amortization: the last period repays whatever balance remains
  4. Rebuildable: Calculate() always starts from scratch

SEE ALSO:
  - engine.go: Per-period computation and aggregation
  - effective_rate.go: Effective annual rate search
  - calendar/scheduler.go: Produces the ScheduledDate sequence
*/
package amortization

import (
	"github.com/shopspring/decimal"

	"github.com/warp/amortization-engine/calendar"
)

// =============================================================================
// LOAN PARAMETERS - Input
// =============================================================================

type LoanParameters struct {
	Amount decimal.Decimal

	// Rate is the nominal annual rate in percent.
	Rate decimal.Decimal

	// OpeningRate is the one-time fee in percent of Amount.
	OpeningRate decimal.Decimal

	// MonthlyRate is the recurring fee in percent of Amount.
	MonthlyRate decimal.Decimal

	// Duration in months.
	Duration int

	StartDate    calendar.Date
	RepaymentDay int

	// GracePeriod is the number of initial periods paying the bare annuity
	// without the recurring fee. Nil means no grace period.
	GracePeriod *int

	// Carried through to the output unchanged.
	TotalPrice decimal.Decimal
	CoreAmount decimal.Decimal
}

// Validate checks the parameter invariants. Degenerate but valid inputs
// (zero rate, zero amount) pass; Calculate handles them.
func (p LoanParameters) Validate() error {
	switch {
	case p.Amount.IsNegative():
		return &ParameterError{Field: "amount", Value: p.Amount, Err: ErrInvalidAmount}
	case p.Rate.IsNegative():
		return &ParameterError{Field: "rate", Value: p.Rate, Err: ErrInvalidRate}
	case p.OpeningRate.IsNegative():
		return &ParameterError{Field: "opening_rate", Value: p.OpeningRate, Err: ErrInvalidRate}
	case p.MonthlyRate.IsNegative():
		return &ParameterError{Field: "monthly_rate", Value: p.MonthlyRate, Err: ErrInvalidRate}
	case p.Duration < 1:
		return &ParameterError{Field: "duration", Value: p.Duration, Err: ErrInvalidDuration}
	case p.RepaymentDay < 0 || p.RepaymentDay > 31:
		return &ParameterError{Field: "repayment_day", Value: p.RepaymentDay, Err: ErrInvalidRepaymentDay}
	case p.GracePeriod != nil && *p.GracePeriod < 0:
		return &ParameterError{Field: "grace_period", Value: *p.GracePeriod, Err: ErrInvalidGracePeriod}
	case p.StartDate.IsZero():
		return &ParameterError{Field: "start_date", Value: p.StartDate, Err: ErrMissingStartDate}
	}
	return nil
}

// InGrace reports whether the 1-based period falls inside the grace period.
func (p LoanParameters) InGrace(period int) bool {
	return p.GracePeriod != nil && period >= 1 && period <= *p.GracePeriod
}

// IsDegenerate reports whether the rate or the amount is effectively zero.
// Such loans produce an empty plan.
func (p LoanParameters) IsDegenerate() bool {
	return p.Rate.LessThan(degenerateEdge) || p.Amount.LessThan(degenerateEdge)
}

// BuildSchedule runs the calendar scheduler for p.
func BuildSchedule(p LoanParameters) calendar.Schedule {
	return calendar.Build(p.StartDate, p.RepaymentDay, p.Duration)
}

// =============================================================================
// PERIOD RECORD - One row of the plan
// =============================================================================

type PeriodKind string

const (
	KindDisbursement PeriodKind = "disbursement"
	KindFirst        PeriodKind = "first"
	KindMiddle       PeriodKind = "middle"
	KindLast         PeriodKind = "last"
)

type PeriodRecord struct {
	Index int
	Kind  PeriodKind
	Grace bool

	Date        calendar.Date
	Days        int
	DaysInMonth int

	// TotalPayment is negative for the disbursement, positive afterwards.
	TotalPayment    decimal.Decimal
	CapitalPayment  decimal.Decimal
	InterestPayment decimal.Decimal

	// TotalInterestPayment is interest plus the recurring fee amount.
	TotalInterestPayment decimal.Decimal

	OpeningFee decimal.Decimal
	MonthlyFee decimal.Decimal

	BalanceIn  decimal.Decimal
	BalanceOut decimal.Decimal

	// NetValue is the discounted contribution of this cash flow at the
	// effective rate. Set by the last refinement pass of the rate search.
	NetValue float64

	NominalRate       decimal.Decimal
	OpeningFeeRate    decimal.Decimal
	MonthlyFeeRate    decimal.Decimal
	InstallmentAmount decimal.Decimal
	CoreAmount        decimal.Decimal
}

// =============================================================================
// TOTALS - Aggregate row
// =============================================================================

type Totals struct {
	Date     calendar.Date
	Duration int

	// Sums over periods 1..Duration, rounded to cents.
	TotalPayment    decimal.Decimal
	CapitalPayment  decimal.Decimal
	InterestPayment decimal.Decimal
	MonthlyFee      decimal.Decimal

	// TotalInterestPayment is TotalPayment - CapitalPayment, never a sum.
	TotalInterestPayment decimal.Decimal

	OpeningFee        decimal.Decimal
	AnnuityAmount     decimal.Decimal
	InstallmentAmount decimal.Decimal
	MonthlyFeeAmount  decimal.Decimal
	LoanCost          decimal.Decimal

	NominalRate    decimal.Decimal
	OpeningFeeRate decimal.Decimal
	MonthlyFeeRate decimal.Decimal

	// EffectiveRate is the annual effective rate in percent.
	EffectiveRate         float64
	RateSearchEvaluations int

	CoreAmount decimal.Decimal
	TotalPrice decimal.Decimal
}
