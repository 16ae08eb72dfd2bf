/*
Package planner runs the full repayment-plan pipeline for one loan.

PURPOSE:
  The application-level entry point: validates LoanParameters, builds the
  repayment calendar, runs the amortization engine and records the outcome
  in logs and metrics. The CLI and tests both go through Service.Plan.

PIPELINE:
  1. Validate      - invalid parameters are rejected with a ParameterError
  2. Schedule      - calendar.Build via amortization.BuildSchedule
  3. Calculate     - fresh Engine per call, so concurrent Plans share nothing
  4. Observe       - one log line and one metrics sample per call

  A degenerate loan (rate or amount effectively zero) is not an error: the
  returned Plan has no periods and Degenerate set.

EXAMPLE:
  svc := planner.NewService(
      planner.WithLogger(logger),
      planner.WithMetrics(observability.NewMetrics()),
  )
  plan, err := svc.Plan(ctx, params)
  if err != nil {
      // amortization.IsClientError(err) for bad input
  }

SEE ALSO:
  - amortization/engine.go: Period computation
  - report/render.go: Plan output
*/
package planner

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/warp/amortization-engine/amortization"
	"github.com/warp/amortization-engine/calendar"
	"github.com/warp/amortization-engine/observability"
)

// =============================================================================
// PLAN - Result of one run
// =============================================================================

type Plan struct {
	RunID  string
	Params amortization.LoanParameters

	Schedule calendar.Schedule
	Periods  []amortization.PeriodRecord
	Totals   amortization.Totals

	AnnuityAmount      decimal.Decimal
	MonthlyInstallment decimal.Decimal
	MonthlyFee         decimal.Decimal
	OpeningFee         decimal.Decimal

	// EndGracePeriod is the due date closing the grace period, nil when
	// there is none or it lies beyond the plan.
	EndGracePeriod *calendar.Date

	Degenerate bool
}

// =============================================================================
// SERVICE
// =============================================================================

type Service struct {
	logger      *zap.Logger
	metrics     *observability.Metrics
	roundValues bool
	newRunID    func() string
}

type Option func(*Service)

func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics enables metrics recording. Without it nothing is recorded.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithRoundValues sets whether annuity and installment are rounded up to
// whole units. Defaults to true.
func WithRoundValues(round bool) Option {
	return func(s *Service) { s.roundValues = round }
}

func NewService(opts ...Option) *Service {
	s := &Service{
		logger:      zap.NewNop(),
		roundValues: true,
		newRunID:    func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Plan validates params and computes the full repayment plan.
func (s *Service) Plan(ctx context.Context, params amortization.LoanParameters) (*Plan, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	runID := s.newRunID()
	logger := s.logger.With(zap.String("run_id", runID))
	started := time.Now()

	if err := params.Validate(); err != nil {
		logger.Warn("rejected loan parameters",
			zap.String("op", "planner.Plan"),
			zap.Error(err),
		)
		s.observe(observability.OutcomeInvalid, started, 0)
		return nil, fmt.Errorf("plan %s: %w", runID, err)
	}

	schedule := amortization.BuildSchedule(params)
	if schedule.Deferred {
		logger.Debug("first due date deferred by one month",
			zap.String("op", "planner.Plan"),
			zap.Stringer("first_payment", schedule.FirstPaymentDate),
		)
	}

	engine := amortization.NewEngine(schedule.Dates, params,
		amortization.WithLogger(logger),
		amortization.WithRoundValues(s.roundValues),
	)
	engine.Calculate()

	plan := &Plan{
		RunID:              runID,
		Params:             params,
		Schedule:           schedule,
		Periods:            engine.Periods(),
		Totals:             engine.Totals(),
		AnnuityAmount:      engine.AnnuityAmount(),
		MonthlyInstallment: engine.MonthlyInstallment(),
		MonthlyFee:         engine.MonthlyFee(),
		OpeningFee:         engine.OpeningFee(),
		Degenerate:         params.IsDegenerate(),
	}
	if end, ok := engine.EndGracePeriodDate(); ok {
		plan.EndGracePeriod = &end
	}

	if plan.Degenerate {
		logger.Info("degenerate loan, empty plan",
			zap.String("op", "planner.Plan"),
			zap.Stringer("amount", params.Amount),
			zap.Stringer("rate", params.Rate),
		)
		s.observe(observability.OutcomeDegenerate, started, 0)
		return plan, nil
	}

	logger.Info("plan calculated",
		zap.String("op", "planner.Plan"),
		zap.Int("duration", params.Duration),
		zap.Stringer("total_payment", plan.Totals.TotalPayment),
		zap.Float64("effective_rate", plan.Totals.EffectiveRate),
		zap.Int("rate_search_evaluations", plan.Totals.RateSearchEvaluations),
	)
	s.observe(observability.OutcomeOK, started, plan.Totals.RateSearchEvaluations)
	return plan, nil
}

func (s *Service) observe(outcome string, started time.Time, evaluations int) {
	if s.metrics == nil {
		return
	}
	s.metrics.ObserveCalculation(outcome, time.Since(started), evaluations)
}
