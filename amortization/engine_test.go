package amortization_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/warp/amortization-engine/amortization"
	"github.com/warp/amortization-engine/calendar"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func intPtr(n int) *int { return &n }

type loan struct {
	amount, rate, opening, monthly string
	duration, day                  int
	grace                          *int
}

func (l loan) params() amortization.LoanParameters {
	return amortization.LoanParameters{
		Amount:       dec(l.amount),
		Rate:         dec(l.rate),
		OpeningRate:  dec(l.opening),
		MonthlyRate:  dec(l.monthly),
		Duration:     l.duration,
		StartDate:    calendar.NewDate(2024, time.January, 15),
		RepaymentDay: l.day,
		GracePeriod:  l.grace,
	}
}

func newEngine(l loan, opts ...amortization.Option) *amortization.Engine {
	p := l.params()
	return amortization.NewEngine(amortization.BuildSchedule(p).Dates, p, opts...)
}

// Standard consumer loan: 10000 at 12% for a year, 1% opening fee, 0.5% monthly fee.
var consumerLoan = loan{amount: "10000", rate: "12", opening: "1", monthly: "0.5", duration: 12, day: 5}

// Small loan with a heavy monthly fee.
var feeLoan = loan{amount: "1000", rate: "10", opening: "0", monthly: "3.5", duration: 10, day: 5}

func assertDec(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	if !dec(want).Equal(got) {
		assert.Fail(t, fmt.Sprintf("want %s, got %s", want, got), msgAndArgs...)
	}
}

// =============================================================================
// ANNUITY AND INSTALLMENT
// =============================================================================

func TestAnnuityAmount(t *testing.T) {
	assertDec(t, "104.64", amortization.AnnuityAmount(dec("1000"), dec("10"), 10))
	assertDec(t, "100", amortization.AnnuityAmount(dec("1000"), dec("0"), 10))
	assertDec(t, "0", amortization.AnnuityAmount(dec("1000"), dec("10"), 0))
}

func TestEngine_AnnuityAndInstallment(t *testing.T) {
	tests := []struct {
		name        string
		round       bool
		annuity     string
		installment string
	}{
		{"unrounded", false, "104.64", "139.64"},
		{"rounded up to whole units", true, "105", "140"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEngine(feeLoan, amortization.WithRoundValues(tt.round))
			assertDec(t, tt.annuity, e.AnnuityAmount())
			assertDec(t, tt.installment, e.MonthlyInstallment())
			assertDec(t, "35", e.MonthlyFee())
		})
	}
}

func TestEngine_SetRoundValuesRecomputes(t *testing.T) {
	e := newEngine(feeLoan)
	assertDec(t, "140", e.MonthlyInstallment())

	e.SetRoundValues(false)
	assertDec(t, "104.64", e.AnnuityAmount())
	assertDec(t, "139.64", e.MonthlyInstallment())

	e.SetRoundValues(true)
	assertDec(t, "105", e.AnnuityAmount())
	assertDec(t, "140", e.MonthlyInstallment())
}

func TestEngine_InstallmentIsCeilOfAnnuityPlusFee(t *testing.T) {
	e := newEngine(consumerLoan, amortization.WithRoundValues(false))
	raw := e.AnnuityAmount().Add(e.MonthlyFee())

	e.SetRoundValues(true)
	assertDec(t, raw.Ceil().String(), e.MonthlyInstallment())
	assertDec(t, "889", e.AnnuityAmount())
	assertDec(t, "939", e.MonthlyInstallment())
	assertDec(t, "100", e.OpeningFee())
}

func TestInterest_30_360(t *testing.T) {
	assertDec(t, "100", amortization.Interest(dec("10000"), dec("12"), 30))
	assertDec(t, "70", amortization.Interest(dec("10000"), dec("12"), 21))
}

// =============================================================================
// PERIOD RECORDS
// =============================================================================

func TestCalculate_ConsumerLoanRows(t *testing.T) {
	e := newEngine(consumerLoan)
	e.Calculate()
	periods := e.Periods()
	require.Len(t, periods, 13)

	// Disbursement
	d := periods[0]
	assert.Equal(t, amortization.KindDisbursement, d.Kind)
	assertDec(t, "-10000", d.TotalPayment)
	assertDec(t, "100", d.OpeningFee)
	assert.True(t, d.CapitalPayment.IsZero())

	// First period: 21 days of interest (Jan 15 -> Feb 5)
	first := periods[1]
	assert.Equal(t, amortization.KindFirst, first.Kind)
	assert.Equal(t, "2024-02-05", first.Date.String())
	assert.Equal(t, 21, first.Days)
	assertDec(t, "70", first.InterestPayment)
	assertDec(t, "819", first.CapitalPayment)
	assertDec(t, "50", first.MonthlyFee)
	assertDec(t, "939", first.TotalPayment)
	assertDec(t, "120", first.TotalInterestPayment)
	assertDec(t, "100", first.OpeningFee)
	assertDec(t, "9181", first.BalanceOut)

	// Middle period uses 30 days regardless of the calendar gap (29 days in Feb 2024)
	second := periods[2]
	assert.Equal(t, amortization.KindMiddle, second.Kind)
	assert.Equal(t, 29, second.Days)
	assertDec(t, "9181", second.BalanceIn)
	assertDec(t, "91.81", second.InterestPayment)
	assertDec(t, "797.19", second.CapitalPayment)
	assertDec(t, "8383.81", second.BalanceOut)
	assert.True(t, second.OpeningFee.IsZero(), "opening fee only on disbursement and first period")

	// Last period absorbs the residue
	last := periods[12]
	assert.Equal(t, amortization.KindLast, last.Kind)
	assert.Equal(t, "2025-01-05", last.Date.String())
	assertDec(t, "840.64", last.BalanceIn)
	assertDec(t, "840.64", last.CapitalPayment)
	assertDec(t, "8.41", last.InterestPayment)
	assertDec(t, "899.05", last.TotalPayment)
	assert.True(t, last.BalanceOut.IsZero())

	for _, p := range periods[1:] {
		assertDec(t, "12", p.NominalRate)
		assertDec(t, "939", p.InstallmentAmount)
	}
}

func TestCalculate_PerPeriodIdentity(t *testing.T) {
	for _, l := range []loan{consumerLoan, feeLoan, withGrace(consumerLoan, 6), withGrace(feeLoan, 10)} {
		e := newEngine(l)
		e.Calculate()
		for _, p := range e.Periods()[1:] {
			sum := p.CapitalPayment.Add(p.InterestPayment).Add(p.MonthlyFee)
			assert.True(t, p.TotalPayment.Sub(sum).Abs().LessThanOrEqual(dec("0.01")),
				"period %d: total %s != %s", p.Index, p.TotalPayment, sum)
		}
	}
}

func TestCalculate_FullAmortization(t *testing.T) {
	for _, l := range []loan{consumerLoan, feeLoan, withGrace(consumerLoan, 3)} {
		e := newEngine(l)
		e.Calculate()
		periods := e.Periods()

		last := periods[len(periods)-1]
		prev := periods[len(periods)-2]
		assert.True(t, last.CapitalPayment.Equal(prev.BalanceOut))
		assert.True(t, last.BalanceOut.IsZero())

		for i := 2; i < len(periods); i++ {
			assert.True(t, periods[i].BalanceIn.Equal(periods[i-1].BalanceOut), "period %d", i)
		}
	}
}

func TestCalculate_SingleMonthLoanIsFirstAndLast(t *testing.T) {
	l := loan{amount: "5000", rate: "9", opening: "2", monthly: "0.3", duration: 1, day: 20}
	e := newEngine(l)
	e.Calculate()
	periods := e.Periods()
	require.Len(t, periods, 2)

	p := periods[1]
	assert.Equal(t, amortization.KindLast, p.Kind)
	assert.Equal(t, 36, p.Days, "Jan 15 -> Feb 20")
	assertDec(t, "37.5", p.InterestPayment, "day count capped at 30")
	assertDec(t, "5000", p.CapitalPayment)
	assertDec(t, "15", p.MonthlyFee)
	assertDec(t, "5052.5", p.TotalPayment)
	assertDec(t, "100", p.OpeningFee)
	assert.True(t, p.BalanceOut.IsZero())
}

// =============================================================================
// GRACE PERIOD
// =============================================================================

func withGrace(l loan, n int) loan {
	l.grace = intPtr(n)
	return l
}

func TestCalculate_GracePeriodPaysBareAnnuity(t *testing.T) {
	e := newEngine(withGrace(consumerLoan, 6))
	e.Calculate()
	periods := e.Periods()

	for _, p := range periods[1:7] {
		assert.True(t, p.Grace, "period %d", p.Index)
		assertDec(t, "889", p.TotalPayment, "period %d", p.Index)
		assert.True(t, p.MonthlyFee.IsZero(), "period %d", p.Index)
	}
	for _, p := range periods[7:12] {
		assert.False(t, p.Grace)
		assertDec(t, "939", p.TotalPayment, "period %d", p.Index)
		assertDec(t, "50", p.MonthlyFee)
	}

	// Capital is unchanged by the grace period: only the fee is waived.
	assertDec(t, "819", periods[1].CapitalPayment)
	assertDec(t, "840.64", periods[12].CapitalPayment)

	end, ok := e.EndGracePeriodDate()
	require.True(t, ok)
	assert.Equal(t, "2024-07-05", end.String())
}

func TestCalculate_GraceCoveringLastPeriodWaivesFee(t *testing.T) {
	e := newEngine(withGrace(feeLoan, 10))
	e.Calculate()
	last := e.Periods()[10]
	assert.True(t, last.Grace)
	assert.True(t, last.MonthlyFee.IsZero())
	assertDec(t, last.CapitalPayment.Add(last.InterestPayment).String(), last.TotalPayment)
}

func TestCalculate_GraceBeyondDurationLeavesEndDateUnset(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	e := newEngine(withGrace(feeLoan, 15), amortization.WithLogger(zap.New(core)))
	e.Calculate()

	_, ok := e.EndGracePeriodDate()
	assert.False(t, ok)
	assert.Len(t, e.Periods(), 11, "schedule itself is unaffected")
	assert.Equal(t, 1, logs.Len())
}

// =============================================================================
// TOTALS
// =============================================================================

func TestCalculate_Totals(t *testing.T) {
	p := consumerLoan.params()
	p.CoreAmount = dec("9500")
	p.TotalPrice = dec("12000")
	e := amortization.NewEngine(amortization.BuildSchedule(p).Dates, p)
	e.Calculate()
	totals := e.Totals()

	assertDec(t, "11228.05", totals.TotalPayment)
	assertDec(t, "10000", totals.CapitalPayment)
	assertDec(t, "628.05", totals.InterestPayment)
	assertDec(t, "600", totals.MonthlyFee)
	assertDec(t, "1228.05", totals.TotalInterestPayment)
	assertDec(t, "11228.05", totals.LoanCost)
	assertDec(t, "100", totals.OpeningFee)
	assertDec(t, "889", totals.AnnuityAmount)
	assertDec(t, "939", totals.InstallmentAmount)
	assertDec(t, "50", totals.MonthlyFeeAmount)
	assert.Equal(t, 12, totals.Duration)
	assert.Equal(t, "2025-01-05", totals.Date.String())

	// Carried through unchanged.
	assertDec(t, "9500", totals.CoreAmount)
	assertDec(t, "12000", totals.TotalPrice)
	assertDec(t, "9500", e.Periods()[1].CoreAmount)
}

func TestCalculate_NetValuesDiscountToZero(t *testing.T) {
	e := newEngine(consumerLoan)
	e.Calculate()
	periods := e.Periods()

	assert.Equal(t, -10000.0, periods[0].NetValue, "disbursement is not discounted")
	sum := 0.0
	for _, p := range periods {
		assert.NotZero(t, p.NetValue, "period %d", p.Index)
		sum += p.NetValue
	}
	assert.InDelta(t, 0, sum, 1e-6)

	// Later flows are discounted harder.
	assert.Less(t, periods[2].NetValue, periods[1].NetValue)
	assert.Greater(t, e.Totals().RateSearchEvaluations, 0)
}

func TestCalculate_AggregateIdentity(t *testing.T) {
	for _, l := range []loan{consumerLoan, feeLoan} {
		for _, grace := range []*int{nil, intPtr(6)} {
			l.grace = grace
			e := newEngine(l)
			e.Calculate()
			tot := e.Totals()

			residue := tot.TotalPayment.Sub(tot.InterestPayment).Sub(tot.MonthlyFee).Sub(tot.CapitalPayment)
			assert.True(t, residue.Abs().LessThan(dec("0.0001")), "residue %s", residue)
			assert.True(t, tot.TotalInterestPayment.Equal(tot.TotalPayment.Sub(tot.CapitalPayment)))
		}
	}
}

func TestCalculate_GraceReducesTotalByWaivedFees(t *testing.T) {
	plain := newEngine(consumerLoan)
	plain.Calculate()
	grace := newEngine(withGrace(consumerLoan, 6))
	grace.Calculate()

	assertDec(t, "10928.05", grace.Totals().TotalPayment)
	assertDec(t, "300", plain.Totals().TotalPayment.Sub(grace.Totals().TotalPayment))
}

// =============================================================================
// LIFECYCLE
// =============================================================================

func TestCalculate_Idempotent(t *testing.T) {
	e := newEngine(withGrace(consumerLoan, 4))
	e.Calculate()
	firstPeriods, firstTotals := e.Periods(), e.Totals()

	e.Calculate()
	assert.Equal(t, firstPeriods, e.Periods())
	assert.Equal(t, firstTotals, e.Totals())
}

func TestCalculate_DegenerateInputsYieldEmptyPlan(t *testing.T) {
	tests := []struct {
		name string
		l    loan
	}{
		{"zero rate", loan{amount: "1000", rate: "0", opening: "0", monthly: "0", duration: 12, day: 5}},
		{"tiny rate", loan{amount: "1000", rate: "0.0000001", opening: "0", monthly: "0", duration: 12, day: 5}},
		{"zero amount", loan{amount: "0", rate: "10", opening: "0", monthly: "0", duration: 12, day: 5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEngine(tt.l)
			e.Calculate()
			assert.Empty(t, e.Periods())
			assert.Equal(t, amortization.Totals{}, e.Totals())
		})
	}
}

func TestCalculate_PeriodsReturnsCopy(t *testing.T) {
	e := newEngine(feeLoan)
	e.Calculate()
	periods := e.Periods()
	periods[1].TotalPayment = decimal.Zero

	assertDec(t, "140", e.Periods()[1].TotalPayment)
}

// =============================================================================
// VALIDATION
// =============================================================================

func TestLoanParameters_Validate(t *testing.T) {
	valid := consumerLoan.params()
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*amortization.LoanParameters)
		field  string
		target error
	}{
		{"negative amount", func(p *amortization.LoanParameters) { p.Amount = dec("-1") }, "amount", amortization.ErrInvalidAmount},
		{"negative rate", func(p *amortization.LoanParameters) { p.Rate = dec("-0.5") }, "rate", amortization.ErrInvalidRate},
		{"negative opening rate", func(p *amortization.LoanParameters) { p.OpeningRate = dec("-1") }, "opening_rate", amortization.ErrInvalidRate},
		{"negative monthly rate", func(p *amortization.LoanParameters) { p.MonthlyRate = dec("-1") }, "monthly_rate", amortization.ErrInvalidRate},
		{"zero duration", func(p *amortization.LoanParameters) { p.Duration = 0 }, "duration", amortization.ErrInvalidDuration},
		{"day 32", func(p *amortization.LoanParameters) { p.RepaymentDay = 32 }, "repayment_day", amortization.ErrInvalidRepaymentDay},
		{"negative grace", func(p *amortization.LoanParameters) { p.GracePeriod = intPtr(-1) }, "grace_period", amortization.ErrInvalidGracePeriod},
		{"no start date", func(p *amortization.LoanParameters) { p.StartDate = calendar.Date{} }, "start_date", amortization.ErrMissingStartDate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid
			tt.mutate(&p)
			err := p.Validate()

			var pe *amortization.ParameterError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, tt.field, pe.Field)
			assert.ErrorIs(t, err, tt.target)
			assert.True(t, amortization.IsClientError(err))
		})
	}
}

func TestLoanParameters_InGrace(t *testing.T) {
	p := withGrace(consumerLoan, 2).params()
	assert.False(t, p.InGrace(0))
	assert.True(t, p.InGrace(1))
	assert.True(t, p.InGrace(2))
	assert.False(t, p.InGrace(3))
	assert.False(t, consumerLoan.params().InGrace(1))
}
