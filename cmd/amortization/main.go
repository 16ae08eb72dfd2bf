/*
main.go - Command-line entry point

PURPOSE:
  Computes a repayment plan from command-line flags or a loan file and
  prints it to stdout. Logs go to stderr.

STARTUP SEQUENCE:
  1. Parse command-line flags (no arguments prints usage)
  2. Load configuration (defaults, config file, .env, environment)
  3. Build the logger and metrics
  4. Resolve loan parameters: loan file, then flags on top
  5. Run the planner and render the plan
  6. Dump metrics to a textfile if requested

COMMAND-LINE FLAGS:
  -amount        principal
  -rate          nominal annual rate in percent (default: 0.01)
  -duration      months (default: 12)
  -openingrate   one-time opening fee, percent of amount
  -monthlyrate   recurring monthly fee, percent of amount
  -start         start date, YYYY-MM-DD (default: today)
  -day           repayment day of month (default: start day)
  -grace         grace period in months
  -round         round annuity and installment up to whole units (default: true)
  -input         loan file (.json or .yaml)
  -config        config file
  -format        text | json
  -metrics-file  prometheus textfile to write
  -log-level     debug | info | warn | error

EXIT CODES:
  0  plan printed (or usage shown)
  1  invalid parameters or I/O failure
  2  malformed flags

EXAMPLES:
  amortization -amount=10000 -rate=12 -duration=12 -openingrate=1 -monthlyrate=0.5
  amortization -input=loan.yaml -format=json
  amortization --amount=5000 --rate=9 --duration=1 --day=20

SEE ALSO:
  - planner/service.go: Plan pipeline
  - report/render.go: Output formats
  - config/config.go: Environment variables
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/warp/amortization-engine/amortization"
	"github.com/warp/amortization-engine/calendar"
	"github.com/warp/amortization-engine/config"
	"github.com/warp/amortization-engine/factory"
	"github.com/warp/amortization-engine/observability"
	"github.com/warp/amortization-engine/planner"
	"github.com/warp/amortization-engine/report"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

// decimalValue is a flag.Value parsing a decimal.
type decimalValue struct{ d *decimal.Decimal }

func (v decimalValue) String() string {
	if v.d == nil {
		return ""
	}
	return v.d.String()
}

func (v decimalValue) Set(s string) error {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return err
	}
	*v.d = d
	return nil
}

type options struct {
	amount, rate, openingRate, monthlyRate decimal.Decimal

	duration    int
	start       string
	day         int
	grace       int
	round       bool
	input       string
	configPath  string
	format      string
	metricsFile string
	logLevel    string
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("amortization", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var opts options
	opts.rate = decimal.RequireFromString("0.01")
	fs.Var(decimalValue{&opts.amount}, "amount", "principal")
	fs.Var(decimalValue{&opts.rate}, "rate", "nominal annual rate in percent")
	fs.Var(decimalValue{&opts.openingRate}, "openingrate", "one-time opening fee, percent of amount")
	fs.Var(decimalValue{&opts.monthlyRate}, "monthlyrate", "recurring monthly fee, percent of amount")
	fs.IntVar(&opts.duration, "duration", 12, "duration in months")
	fs.StringVar(&opts.start, "start", "", "start date YYYY-MM-DD (default today)")
	fs.IntVar(&opts.day, "day", 0, "repayment day of month (default start day)")
	fs.IntVar(&opts.grace, "grace", 0, "grace period in months")
	fs.BoolVar(&opts.round, "round", true, "round annuity and installment up to whole units")
	fs.StringVar(&opts.input, "input", "", "loan file (.json or .yaml)")
	fs.StringVar(&opts.configPath, "config", "", "config file")
	fs.StringVar(&opts.format, "format", "", "output format: text or json")
	fs.StringVar(&opts.metricsFile, "metrics-file", "", "write prometheus metrics to this textfile")
	fs.StringVar(&opts.logLevel, "log-level", "", "debug, info, warn or error")

	if len(args) == 0 {
		fmt.Fprintln(stdout, "Usage: amortization -amount=<principal> [flags]")
		fs.SetOutput(stdout)
		fs.PrintDefaults()
		return 0
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(stderr, "config: %v\n", err)
		return 1
	}
	applyConfig(cfg, &opts, set)

	logger := observability.NewLogger(cfg.Log, stderr)
	defer func() { _ = logger.Sync() }()

	params, err := resolveParams(opts, set)
	if err != nil {
		logger.Error("cannot build loan parameters", zap.String("op", "main.run"), zap.Error(err))
		return 1
	}

	metrics := observability.NewMetrics()
	svc := planner.NewService(
		planner.WithLogger(logger),
		planner.WithMetrics(metrics),
		planner.WithRoundValues(opts.round),
	)

	plan, err := svc.Plan(ctx, params)
	if err != nil {
		logger.Error("plan failed", zap.String("op", "main.run"), zap.Error(err))
		return 1
	}
	if err := report.Write(stdout, plan, opts.format); err != nil {
		logger.Error("cannot write plan", zap.String("op", "main.run"), zap.Error(err))
		return 1
	}

	if opts.metricsFile != "" {
		if err := metrics.WriteTextfile(opts.metricsFile); err != nil {
			logger.Error("cannot write metrics", zap.String("op", "main.run"), zap.Error(err))
			return 1
		}
	}
	return 0
}

// applyConfig fills options the user did not pass explicitly.
func applyConfig(cfg *config.Config, opts *options, set map[string]bool) {
	if !set["rate"] {
		opts.rate = decimal.NewFromFloat(cfg.Loan.Rate)
	}
	if !set["duration"] {
		opts.duration = cfg.Loan.Duration
	}
	if !set["round"] {
		opts.round = cfg.Loan.RoundValues
	}
	if !set["format"] {
		opts.format = cfg.Output.Format
	}
	if !set["metrics-file"] {
		opts.metricsFile = cfg.Output.MetricsFile
	}
	if set["log-level"] {
		cfg.Log.Level = opts.logLevel
	}
}

// resolveParams starts from the loan file, if any, and applies explicit
// flags on top. Without a loan file every flag applies. The file may be
// partial: validation is left to the planner, after flags and defaults.
func resolveParams(opts options, set map[string]bool) (amortization.LoanParameters, error) {
	var p amortization.LoanParameters
	fromFile := opts.input != ""
	if fromFile {
		f := factory.NewLoanFactory()
		lj, err := f.DecodeLoanFile(opts.input)
		if err != nil {
			return p, err
		}
		if p, err = f.Bind(lj); err != nil {
			return p, err
		}
	}
	use := func(name string) bool { return !fromFile || set[name] }

	if use("amount") {
		p.Amount = opts.amount
	}
	if use("rate") {
		p.Rate = opts.rate
	}
	if use("openingrate") {
		p.OpeningRate = opts.openingRate
	}
	if use("monthlyrate") {
		p.MonthlyRate = opts.monthlyRate
	}
	if use("duration") || p.Duration == 0 {
		p.Duration = opts.duration
	}
	if use("day") {
		p.RepaymentDay = opts.day
	}
	if set["grace"] {
		grace := opts.grace
		p.GracePeriod = &grace
	}

	switch {
	case set["start"]:
		start, err := calendar.ParseDate(opts.start)
		if err != nil {
			return p, err
		}
		p.StartDate = start
	case p.StartDate.IsZero():
		p.StartDate = calendar.Today()
	}
	return p, nil
}
