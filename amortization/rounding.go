package amortization

import (
	"math"

	"github.com/shopspring/decimal"
)

// =============================================================================
// MONEY HELPERS
// =============================================================================

var (
	hundred        = decimal.NewFromInt(100)
	dayCountBase   = decimal.NewFromInt(100 * 360)
	degenerateEdge = decimal.NewFromFloat(0.000001)
)

// InterestDays30 is the day count of every period after the first (30/360).
const InterestDays30 = 30

// Round2 rounds half away from zero to two decimal places.
func Round2(v decimal.Decimal) decimal.Decimal { return v.Round(2) }

// Interest is the simple interest on balance for days at an annual rate in
// percent, on a 360-day year.
func Interest(balance, ratePercent decimal.Decimal, days int) decimal.Decimal {
	return balance.Mul(ratePercent).Mul(decimal.NewFromInt(int64(days))).Div(dayCountBase)
}

// AnnuityAmount is the level payment repaying amount over duration months at
// a nominal annual rate in percent, rounded to cents.
//
//	m = rate / 12 / 100
//	A = ((1+m)^n * m) / ((1+m)^n - 1) * amount
//
// The power is evaluated in float64, the result is returned as a decimal.
func AnnuityAmount(amount, ratePercent decimal.Decimal, duration int) decimal.Decimal {
	if duration < 1 {
		return decimal.Zero
	}
	if !ratePercent.IsPositive() {
		return Round2(amount.Div(decimal.NewFromInt(int64(duration))))
	}
	m := ratePercent.InexactFloat64() / 12 / 100
	factor := math.Pow(1+m, float64(duration))
	sum := ((factor * m) / (factor - 1)) * amount.InexactFloat64()
	return Round2(decimal.NewFromFloat(sum))
}
