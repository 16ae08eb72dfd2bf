/*
dto.go - Serializable view of a plan

PURPOSE:
  Decouples the JSON output from the internal PeriodRecord / Totals types.
  Money is rendered as fixed two-decimal strings so no precision is lost
  and consumers never see float artifacts.

TYPES:
  PlanDTO    - whole plan: loan echo, periods, totals
  PeriodDTO  - one row
  TotalsDTO  - aggregate row

SEE ALSO:
  - render.go: Uses these types
  - factory/loan.go: LoanJSON echoed back in PlanDTO.Loan
*/
package report

import (
	"github.com/shopspring/decimal"

	"github.com/warp/amortization-engine/amortization"
	"github.com/warp/amortization-engine/factory"
	"github.com/warp/amortization-engine/planner"
)

// =============================================================================
// RESPONSE TYPES
// =============================================================================

type PlanDTO struct {
	RunID          string           `json:"run_id"`
	Loan           factory.LoanJSON `json:"loan"`
	Degenerate     bool             `json:"degenerate,omitempty"`
	Deferred       bool             `json:"first_payment_deferred,omitempty"`
	EndGracePeriod string           `json:"end_grace_period,omitempty"`
	Periods        []PeriodDTO      `json:"periods"`
	Totals         *TotalsDTO       `json:"totals,omitempty"`
}

type PeriodDTO struct {
	Index                int     `json:"index"`
	Kind                 string  `json:"kind"`
	Grace                bool    `json:"grace,omitempty"`
	Date                 string  `json:"date"`
	Days                 int     `json:"days"`
	TotalPayment         string  `json:"total_payment"`
	CapitalPayment       string  `json:"capital_payment"`
	InterestPayment      string  `json:"interest_payment"`
	TotalInterestPayment string  `json:"total_interest_payment"`
	OpeningFee           string  `json:"opening_fee"`
	MonthlyFee           string  `json:"monthly_fee"`
	BalanceIn            string  `json:"balance_in"`
	BalanceOut           string  `json:"balance_out"`
	NetValue             float64 `json:"net_value"`
}

type TotalsDTO struct {
	Date                 string  `json:"date"`
	Duration             int     `json:"duration"`
	TotalPayment         string  `json:"total_payment"`
	CapitalPayment       string  `json:"capital_payment"`
	InterestPayment      string  `json:"interest_payment"`
	MonthlyFee           string  `json:"monthly_fee"`
	TotalInterestPayment string  `json:"total_interest_payment"`
	OpeningFee           string  `json:"opening_fee"`
	AnnuityAmount        string  `json:"annuity_amount"`
	InstallmentAmount    string  `json:"installment_amount"`
	LoanCost             string  `json:"loan_cost"`
	NominalRate          string  `json:"nominal_rate"`
	EffectiveRate        float64 `json:"effective_rate"`
}

// =============================================================================
// CONVERSION
// =============================================================================

// NewPlanDTO converts a plan. A degenerate plan has no totals.
func NewPlanDTO(plan *planner.Plan) PlanDTO {
	dto := PlanDTO{
		RunID:      plan.RunID,
		Loan:       factory.NewLoanFactory().ToJSON(plan.Params),
		Degenerate: plan.Degenerate,
		Deferred:   plan.Schedule.Deferred,
		Periods:    make([]PeriodDTO, 0, len(plan.Periods)),
	}
	if plan.EndGracePeriod != nil {
		dto.EndGracePeriod = plan.EndGracePeriod.String()
	}
	for _, p := range plan.Periods {
		dto.Periods = append(dto.Periods, newPeriodDTO(p))
	}
	if !plan.Degenerate {
		totals := newTotalsDTO(plan.Totals)
		dto.Totals = &totals
	}
	return dto
}

func newPeriodDTO(p amortization.PeriodRecord) PeriodDTO {
	return PeriodDTO{
		Index:                p.Index,
		Kind:                 string(p.Kind),
		Grace:                p.Grace,
		Date:                 p.Date.String(),
		Days:                 p.Days,
		TotalPayment:         money(p.TotalPayment),
		CapitalPayment:       money(p.CapitalPayment),
		InterestPayment:      money(p.InterestPayment),
		TotalInterestPayment: money(p.TotalInterestPayment),
		OpeningFee:           money(p.OpeningFee),
		MonthlyFee:           money(p.MonthlyFee),
		BalanceIn:            money(p.BalanceIn),
		BalanceOut:           money(p.BalanceOut),
		NetValue:             p.NetValue,
	}
}

func newTotalsDTO(t amortization.Totals) TotalsDTO {
	return TotalsDTO{
		Date:                 t.Date.String(),
		Duration:             t.Duration,
		TotalPayment:         money(t.TotalPayment),
		CapitalPayment:       money(t.CapitalPayment),
		InterestPayment:      money(t.InterestPayment),
		MonthlyFee:           money(t.MonthlyFee),
		TotalInterestPayment: money(t.TotalInterestPayment),
		OpeningFee:           money(t.OpeningFee),
		AnnuityAmount:        money(t.AnnuityAmount),
		InstallmentAmount:    money(t.InstallmentAmount),
		LoanCost:             money(t.LoanCost),
		NominalRate:          t.NominalRate.String(),
		EffectiveRate:        t.EffectiveRate,
	}
}

func money(d decimal.Decimal) string { return d.StringFixed(2) }
