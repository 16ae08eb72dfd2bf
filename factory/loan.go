/*
Package factory binds structured loan definitions to amortization inputs.

PURPOSE:
  Converts JSON or YAML loan definitions into amortization.LoanParameters.
  Loan files, CLI input and test fixtures all go through the same binding,
  keyed by field name, so a definition means the same thing everywhere.

JSON SCHEMA:
  {
    "amount": 10000,
    "rate": 12,
    "opening_rate": 1,
    "monthly_rate": 0.5,
    "duration": 12,
    "start_date": "2024-01-15",
    "repayment_day": 5,
    "grace_period": 6
  }

  Amounts and rates accept both numbers and quoted strings. start_date
  accepts YYYY-MM-DD or the legacy DDMMYYYY form.

FIXTURES:
  A fixture file is YAML with a top-level "fixtures" list. Each entry holds
  a loan and the values a correct plan must reproduce:

  fixtures:
    - name: consumer loan
      loan: { amount: 10000, rate: 12, duration: 12, ... }
      expect:
        annuity_amount: 889
        total_payment: 11228.05
        effective_rate: 22.0103203585

USAGE:
  f := factory.NewLoanFactory()
  params, err := f.ParseLoan(jsonString)
  params, err := f.LoadLoanFile("loan.yaml")
  lj, err := f.DecodeLoanFile("partial.yaml") // unvalidated, complete then Bind
  fixtures, err := factory.LoadFixtureFile("testdata/fixtures.yaml")

SEE ALSO:
  - amortization/types.go: LoanParameters and its invariants
  - cmd/amortization/main.go: -input flag
*/
package factory

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/warp/amortization-engine/amortization"
	"github.com/warp/amortization-engine/calendar"
)

// =============================================================================
// SCHEMA TYPES
// =============================================================================

// LoanJSON is the serialized form of a loan definition.
type LoanJSON struct {
	Amount       decimal.Decimal `json:"amount" yaml:"amount"`
	Rate         decimal.Decimal `json:"rate" yaml:"rate"`
	OpeningRate  decimal.Decimal `json:"opening_rate,omitempty" yaml:"opening_rate,omitempty"`
	MonthlyRate  decimal.Decimal `json:"monthly_rate,omitempty" yaml:"monthly_rate,omitempty"`
	Duration     int             `json:"duration" yaml:"duration"`
	StartDate    string          `json:"start_date" yaml:"start_date"`
	RepaymentDay int             `json:"repayment_day,omitempty" yaml:"repayment_day,omitempty"`
	GracePeriod  *int            `json:"grace_period,omitempty" yaml:"grace_period,omitempty"`
	TotalPrice   decimal.Decimal `json:"total_price,omitempty" yaml:"total_price,omitempty"`
	CoreAmount   decimal.Decimal `json:"core_amount,omitempty" yaml:"core_amount,omitempty"`
}

// Fixture pairs a loan with the plan values it must produce.
type Fixture struct {
	Name        string   `yaml:"name"`
	Loan        LoanJSON `yaml:"loan"`
	RoundValues *bool    `yaml:"round_values,omitempty"`
	Expect      Expected `yaml:"expect"`
}

// Expected holds the checked subset of a plan.
type Expected struct {
	AnnuityAmount     decimal.Decimal `yaml:"annuity_amount"`
	InstallmentAmount decimal.Decimal `yaml:"installment_amount"`
	TotalPayment      decimal.Decimal `yaml:"total_payment"`
	CapitalPayment    decimal.Decimal `yaml:"capital_payment"`
	InterestPayment   decimal.Decimal `yaml:"interest_payment"`
	MonthlyFee        decimal.Decimal `yaml:"monthly_fee"`
	LastPayment       decimal.Decimal `yaml:"last_payment"`
	EffectiveRate     float64         `yaml:"effective_rate"`
	Periods           int             `yaml:"periods"`
}

// Round reports the round-values flag for the fixture, defaulting to true.
func (f Fixture) Round() bool {
	return f.RoundValues == nil || *f.RoundValues
}

type fixtureFile struct {
	Fixtures []Fixture `yaml:"fixtures"`
}

// =============================================================================
// LOAN FACTORY
// =============================================================================

// LoanFactory converts loan definitions to LoanParameters.
type LoanFactory struct{}

// NewLoanFactory creates a new loan factory.
func NewLoanFactory() *LoanFactory {
	return &LoanFactory{}
}

// ParseLoan parses a JSON string into validated LoanParameters.
func (f *LoanFactory) ParseLoan(jsonStr string) (amortization.LoanParameters, error) {
	var lj LoanJSON
	if err := json.Unmarshal([]byte(jsonStr), &lj); err != nil {
		return amortization.LoanParameters{}, fmt.Errorf("failed to parse loan JSON: %w", err)
	}
	return f.FromJSON(lj)
}

// ParseLoanYAML parses a YAML document into validated LoanParameters.
func (f *LoanFactory) ParseLoanYAML(data []byte) (amortization.LoanParameters, error) {
	var lj LoanJSON
	if err := yaml.Unmarshal(data, &lj); err != nil {
		return amortization.LoanParameters{}, fmt.Errorf("failed to parse loan YAML: %w", err)
	}
	return f.FromJSON(lj)
}

// LoadLoanFile reads and validates a loan definition. See DecodeLoanFile.
func (f *LoanFactory) LoadLoanFile(path string) (amortization.LoanParameters, error) {
	lj, err := f.DecodeLoanFile(path)
	if err != nil {
		return amortization.LoanParameters{}, err
	}
	return f.FromJSON(lj)
}

// DecodeLoanFile reads a loan definition without validating it, choosing
// the decoder by extension: .json is decoded as JSON, anything else as YAML.
// Callers completing a partial definition validate afterwards.
func (f *LoanFactory) DecodeLoanFile(path string) (LoanJSON, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return LoanJSON{}, fmt.Errorf("failed to read loan file: %w", err)
	}
	var lj LoanJSON
	if strings.EqualFold(filepath.Ext(path), ".json") {
		if err := json.Unmarshal(data, &lj); err != nil {
			return LoanJSON{}, fmt.Errorf("failed to parse loan JSON: %w", err)
		}
		return lj, nil
	}
	if err := yaml.Unmarshal(data, &lj); err != nil {
		return LoanJSON{}, fmt.Errorf("failed to parse loan YAML: %w", err)
	}
	return lj, nil
}

// FromJSON converts LoanJSON to LoanParameters and validates the result.
func (f *LoanFactory) FromJSON(lj LoanJSON) (amortization.LoanParameters, error) {
	p, err := f.Bind(lj)
	if err != nil {
		return amortization.LoanParameters{}, err
	}
	if err := p.Validate(); err != nil {
		return amortization.LoanParameters{}, fmt.Errorf("invalid loan: %w", err)
	}
	return p, nil
}

// ToJSON converts LoanParameters back to their serialized form.
func (f *LoanFactory) ToJSON(p amortization.LoanParameters) LoanJSON {
	lj := LoanJSON{
		Amount:       p.Amount,
		Rate:         p.Rate,
		OpeningRate:  p.OpeningRate,
		MonthlyRate:  p.MonthlyRate,
		Duration:     p.Duration,
		RepaymentDay: p.RepaymentDay,
		GracePeriod:  p.GracePeriod,
		TotalPrice:   p.TotalPrice,
		CoreAmount:   p.CoreAmount,
	}
	if !p.StartDate.IsZero() {
		lj.StartDate = p.StartDate.String()
	}
	return lj
}

// Bind converts LoanJSON to LoanParameters without checking invariants.
// Only a malformed start_date is an error.
func (f *LoanFactory) Bind(lj LoanJSON) (amortization.LoanParameters, error) {
	p := amortization.LoanParameters{
		Amount:       lj.Amount,
		Rate:         lj.Rate,
		OpeningRate:  lj.OpeningRate,
		MonthlyRate:  lj.MonthlyRate,
		Duration:     lj.Duration,
		RepaymentDay: lj.RepaymentDay,
		GracePeriod:  lj.GracePeriod,
		TotalPrice:   lj.TotalPrice,
		CoreAmount:   lj.CoreAmount,
	}
	if lj.StartDate != "" {
		start, err := calendar.ParseDate(lj.StartDate)
		if err != nil {
			return amortization.LoanParameters{}, fmt.Errorf("invalid start_date: %w", err)
		}
		p.StartDate = start
	}
	return p, nil
}

// =============================================================================
// FIXTURES
// =============================================================================

// LoadFixtures decodes a YAML fixture document.
func LoadFixtures(r io.Reader) ([]Fixture, error) {
	var ff fixtureFile
	if err := yaml.NewDecoder(r).Decode(&ff); err != nil {
		return nil, fmt.Errorf("failed to decode fixtures: %w", err)
	}
	for i, fx := range ff.Fixtures {
		if fx.Name == "" {
			return nil, fmt.Errorf("fixture %d: missing name", i)
		}
	}
	return ff.Fixtures, nil
}

// LoadFixtureFile opens path and decodes it with LoadFixtures.
func LoadFixtureFile(path string) ([]Fixture, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open fixtures: %w", err)
	}
	defer file.Close()
	return LoadFixtures(file)
}
