package amortization

import "math"

// =============================================================================
// EFFECTIVE RATE - Decade bisection on the net present value
// =============================================================================
//
// The effective rate r makes the net present value of the signed cash flows
// zero when discounted monthly at r/12:
//
//	NPV(r) = sum_i cashflow[i] / (1 + r/12)^i
//
// NPV falls as r grows. The search brackets the root from above on whole
// units (100%, 200%, ...) and then walks down in steps of 0.1, 0.01, ...
// restarting each finer pass from the lowest rate still known to be too high.
// Iteration count is bounded; the last evaluated rate is returned.

const (
	ratePrecision   = 1e-14
	precisionDigits = 14
	maxRefinements  = precisionDigits - 2

	// maxBracketSteps bounds phase 1 at a 100000% annual rate.
	maxBracketSteps = 1000
)

// effectiveRate returns the effective annual rate in percent and the number
// of NPV evaluations made. The final refinement pass stores each period's
// discounted cash flow in NetValue.
func effectiveRate(periods []PeriodRecord) (float64, int) {
	flows := make([]float64, len(periods))
	for i, p := range periods {
		flows[i] = p.TotalPayment.InexactFloat64()
	}

	evaluations := 0
	npv := func(rate float64, earlyExit, record bool) float64 {
		evaluations++
		sum := 0.0
		for i, cf := range flows {
			v := cf / math.Pow(1+rate/12, float64(i))
			sum += v
			if record {
				periods[i].NetValue = v
			}
			if earlyExit && sum > -ratePrecision {
				break
			}
		}
		return sum
	}

	// Phase 1: first whole-unit rate at which the NPV stays negative.
	current := 1.0
	for step := 0; step < maxBracketSteps; step++ {
		if npv(current, true, false) < -ratePrecision {
			break
		}
		current += 1.0
	}

	// Phase 2: step down by decades.
	left := current
	for offset, n := 0.10, 0; offset > ratePrecision && n < maxRefinements; offset, n = offset/10, n+1 {
		final := offset/10 < ratePrecision || n == maxRefinements-1
		for current = left; current > ratePrecision; current -= offset {
			if npv(current, !final, final) > -ratePrecision {
				break
			}
			left = current
		}
	}

	return current * 100, evaluations
}
