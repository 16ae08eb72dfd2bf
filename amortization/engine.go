/*
engine.go - Period-by-period amortization

PURPOSE:
  Walks the repayment calendar once and emits one PeriodRecord per entry,
  then folds the records into Totals and runs the effective rate search.

PERIOD STATES:
  Disbursement -> First -> Middle* -> Last
  Every state except Disbursement is additionally flagged Grace when its
  1-based index is within the configured grace period.

  Disbursement: total = -amount, carries the opening fee
  First:        interest on the principal for min(days, 30) days
  Middle:       interest on the previous closing balance for 30 days
  Last:         capital = whole remaining balance, so the loan fully amortizes

  A one-month loan has a single period that is both First and Last.

GRACE PERIODS:
  A grace period pays the bare annuity: capital = annuity - interest and no
  recurring fee. Interest is never forgiven.

ROUNDING:
  Every computed amount except the forced last capital is rounded to cents
  as soon as it is produced. Later balances derive from rounded
  predecessors; the residue lands in the last period.

  With round values on (the default) the annuity and the installment are
  rounded up to whole units before any period is computed.

USAGE:
  sched := amortization.BuildSchedule(params)
  engine := amortization.NewEngine(sched.Dates, params, amortization.WithLogger(logger))
  engine.Calculate()
  for _, p := range engine.Periods() { ... }
  totals := engine.Totals()

SEE ALSO:
  - effective_rate.go: Root finding on the finished cash flows
  - calendar/scheduler.go: Builds the ScheduledDate sequence
*/
package amortization

import (
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/warp/amortization-engine/calendar"
)

// =============================================================================
// ENGINE
// =============================================================================

// Engine computes the plan for one set of loan parameters.
// It is not safe for concurrent use.
type Engine struct {
	calendar []calendar.ScheduledDate
	params   LoanParameters
	logger   *zap.Logger

	roundValues bool

	annuity     decimal.Decimal
	monthlyFee  decimal.Decimal
	installment decimal.Decimal
	openingFee  decimal.Decimal

	periods     []PeriodRecord
	totals      Totals
	endGrace    calendar.Date
	hasEndGrace bool
}

type Option func(*Engine)

// WithLogger sets the logger used for debug tracing. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithRoundValues sets the round-values flag at construction time.
func WithRoundValues(round bool) Option {
	return func(e *Engine) { e.roundValues = round }
}

// NewEngine creates an engine for the given calendar and parameters.
// The calendar is normally BuildSchedule(params).Dates.
func NewEngine(dates []calendar.ScheduledDate, params LoanParameters, opts ...Option) *Engine {
	e := &Engine{
		calendar:    dates,
		params:      params,
		logger:      zap.NewNop(),
		roundValues: true,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.init()
	return e
}

// init derives the fixed amounts shared by every period.
func (e *Engine) init() {
	p := e.params
	e.annuity = AnnuityAmount(p.Amount, p.Rate, p.Duration)
	e.monthlyFee = Round2(p.MonthlyRate.Div(hundred).Mul(p.Amount))
	e.openingFee = p.OpeningRate.Div(hundred).Mul(p.Amount)
	e.installment = e.annuity.Add(e.monthlyFee)
	if e.roundValues {
		e.annuity = e.annuity.Ceil()
		e.installment = e.installment.Ceil()
	}
}

// SetRoundValues switches rounding of the annuity and installment up to
// whole units. Takes effect on the next Calculate.
func (e *Engine) SetRoundValues(round bool) {
	if e.roundValues == round {
		return
	}
	e.roundValues = round
	e.init()
}

func (e *Engine) AnnuityAmount() decimal.Decimal      { return e.annuity }
func (e *Engine) MonthlyInstallment() decimal.Decimal { return e.installment }
func (e *Engine) MonthlyFee() decimal.Decimal         { return e.monthlyFee }
func (e *Engine) OpeningFee() decimal.Decimal         { return e.openingFee }

// Periods returns a copy of the records built by the last Calculate.
func (e *Engine) Periods() []PeriodRecord {
	out := make([]PeriodRecord, len(e.periods))
	copy(out, e.periods)
	return out
}

// Totals returns the aggregate built by the last Calculate.
func (e *Engine) Totals() Totals { return e.totals }

// EndGracePeriodDate returns the due date closing the grace period, if any.
func (e *Engine) EndGracePeriodDate() (calendar.Date, bool) {
	return e.endGrace, e.hasEndGrace
}

// =============================================================================
// CALCULATE
// =============================================================================

// Calculate rebuilds all period records and totals from scratch.
func (e *Engine) Calculate() {
	e.periods = nil
	e.totals = Totals{}
	e.endGrace, e.hasEndGrace = calendar.Date{}, false

	if e.params.IsDegenerate() || len(e.calendar) == 0 {
		e.logger.Debug("degenerate loan, nothing to amortize",
			zap.String("op", "amortization.Calculate"),
			zap.Stringer("amount", e.params.Amount),
			zap.Stringer("rate", e.params.Rate),
		)
		return
	}

	last := len(e.calendar) - 1
	periods := make([]PeriodRecord, 0, len(e.calendar))
	periods = append(periods, e.disbursement(e.calendar[0]))

	var acc accumulator
	balance := Round2(e.params.Amount)
	for i := 1; i <= last; i++ {
		var p PeriodRecord
		switch {
		case i == last:
			p = e.lastInstallment(i, balance)
		case i == 1:
			p = e.firstInstallment(i)
		default:
			p = e.installmentAt(i, balance)
		}
		e.stampMetadata(&p)
		balance = p.BalanceOut
		acc = acc.add(p)
		periods = append(periods, p)
	}

	totals := acc.totals()
	e.completeTotals(&totals, periods[last].Date)
	totals.EffectiveRate, totals.RateSearchEvaluations = effectiveRate(periods)

	e.periods = periods
	e.totals = totals
	e.resolveEndGrace()

	e.logger.Debug("plan calculated",
		zap.String("op", "amortization.Calculate"),
		zap.Int("periods", len(periods)),
		zap.Stringer("total", totals.TotalPayment),
		zap.Float64("effective_rate", totals.EffectiveRate),
	)
}

// =============================================================================
// PERIOD STATES
// =============================================================================

func (e *Engine) disbursement(sd calendar.ScheduledDate) PeriodRecord {
	return PeriodRecord{
		Index:        0,
		Kind:         KindDisbursement,
		Date:         sd.Date,
		DaysInMonth:  sd.DaysInMonth,
		TotalPayment: e.params.Amount.Neg(),
		OpeningFee:   e.openingFee,
		BalanceOut:   Round2(e.params.Amount),
	}
}

func (e *Engine) firstInstallment(period int) PeriodRecord {
	sd := e.calendar[period]
	p := e.newPeriod(period, KindFirst, sd)
	p.OpeningFee = e.openingFee
	p.BalanceIn = Round2(e.params.Amount)

	interest := Round2(Interest(p.BalanceIn, e.params.Rate, firstPeriodDays(sd)))
	p.InterestPayment = interest
	p.TotalInterestPayment = interest.Add(e.monthlyFee)

	if p.Grace {
		p.CapitalPayment = e.annuity.Sub(interest)
		p.TotalPayment = e.annuity
	} else {
		p.MonthlyFee = e.monthlyFee
		p.CapitalPayment = e.installment.Sub(interest.Add(e.monthlyFee))
		p.TotalPayment = e.installment
	}
	p.BalanceOut = p.BalanceIn.Sub(p.CapitalPayment)
	return p
}

func (e *Engine) installmentAt(period int, balance decimal.Decimal) PeriodRecord {
	p := e.newPeriod(period, KindMiddle, e.calendar[period])
	p.BalanceIn = Round2(balance)

	interest := Round2(Interest(p.BalanceIn, e.params.Rate, InterestDays30))
	p.InterestPayment = interest
	p.TotalInterestPayment = interest.Add(e.monthlyFee)

	if p.Grace {
		p.CapitalPayment = Round2(e.annuity.Sub(interest))
		p.TotalPayment = e.annuity
	} else {
		p.MonthlyFee = e.monthlyFee
		p.CapitalPayment = Round2(e.installment.Sub(interest).Sub(e.monthlyFee))
		p.TotalPayment = e.installment
	}
	p.BalanceOut = p.BalanceIn.Sub(p.CapitalPayment)
	return p
}

// lastInstallment repays the whole remaining balance. For a one-month loan
// it is also the first period and uses the first-period day count.
func (e *Engine) lastInstallment(period int, balance decimal.Decimal) PeriodRecord {
	sd := e.calendar[period]
	p := e.newPeriod(period, KindLast, sd)
	p.BalanceIn = balance

	days := InterestDays30
	if period == 1 {
		days = firstPeriodDays(sd)
		p.OpeningFee = e.openingFee
	}

	interest := Round2(Interest(balance, e.params.Rate, days))
	if !p.Grace {
		p.MonthlyFee = e.monthlyFee
	}
	p.CapitalPayment = balance
	p.InterestPayment = interest
	p.TotalInterestPayment = interest.Add(p.MonthlyFee)
	p.TotalPayment = balance.Add(interest).Add(p.MonthlyFee)
	p.BalanceOut = decimal.Zero
	return p
}

func (e *Engine) newPeriod(period int, kind PeriodKind, sd calendar.ScheduledDate) PeriodRecord {
	return PeriodRecord{
		Index:       period,
		Kind:        kind,
		Grace:       e.params.InGrace(period),
		Date:        sd.Date,
		Days:        sd.DaysBefore,
		DaysInMonth: sd.DaysInMonth,
	}
}

func (e *Engine) stampMetadata(p *PeriodRecord) {
	p.NominalRate = e.params.Rate
	p.OpeningFeeRate = e.params.OpeningRate
	p.MonthlyFeeRate = e.params.MonthlyRate
	p.InstallmentAmount = e.installment
	p.CoreAmount = e.params.CoreAmount
}

// firstPeriodDays caps the first period's day count at 30.
func firstPeriodDays(sd calendar.ScheduledDate) int {
	if sd.DaysBefore < InterestDays30 {
		return sd.DaysBefore
	}
	return InterestDays30
}

// =============================================================================
// AGGREGATION
// =============================================================================

// accumulator is the fold state for Totals. It is a value: add returns a new one.
type accumulator struct {
	total    decimal.Decimal
	capital  decimal.Decimal
	interest decimal.Decimal
	fee      decimal.Decimal
}

func (a accumulator) add(p PeriodRecord) accumulator {
	return accumulator{
		total:    a.total.Add(p.TotalPayment),
		capital:  a.capital.Add(p.CapitalPayment),
		interest: a.interest.Add(p.InterestPayment),
		fee:      a.fee.Add(p.MonthlyFee),
	}
}

func (a accumulator) totals() Totals {
	t := Totals{
		TotalPayment:    Round2(a.total),
		CapitalPayment:  Round2(a.capital),
		InterestPayment: Round2(a.interest),
		MonthlyFee:      Round2(a.fee),
	}
	t.TotalInterestPayment = t.TotalPayment.Sub(t.CapitalPayment)
	t.LoanCost = t.TotalPayment
	return t
}

func (e *Engine) completeTotals(t *Totals, lastDate calendar.Date) {
	p := e.params
	t.Date = lastDate
	t.Duration = p.Duration
	t.OpeningFee = Round2(e.openingFee)
	t.AnnuityAmount = e.annuity
	t.InstallmentAmount = e.installment
	t.MonthlyFeeAmount = e.monthlyFee
	t.NominalRate = Round2(p.Rate)
	t.OpeningFeeRate = p.OpeningRate
	t.MonthlyFeeRate = p.MonthlyRate
	t.CoreAmount = p.CoreAmount
	t.TotalPrice = p.TotalPrice
}

// resolveEndGrace looks up the due date closing the grace period. A grace
// period longer than the plan leaves the date unset.
func (e *Engine) resolveEndGrace() {
	if e.params.GracePeriod == nil || *e.params.GracePeriod <= 0 {
		return
	}
	idx := *e.params.GracePeriod
	if idx >= len(e.periods) {
		e.logger.Warn("grace period exceeds plan length, end of grace period left unset",
			zap.String("op", "amortization.Calculate"),
			zap.Int("grace_period", idx),
			zap.Int("periods", len(e.periods)-1),
		)
		return
	}
	e.endGrace, e.hasEndGrace = e.periods[idx].Date, true
}
