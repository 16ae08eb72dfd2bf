package report

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/warp/amortization-engine/planner"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Write renders plan in the given format.
func Write(w io.Writer, plan *planner.Plan, format string) error {
	switch format {
	case FormatJSON:
		return WriteJSON(w, plan)
	case FormatText, "":
		return WriteText(w, plan)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

// WriteJSON writes the plan as indented JSON.
func WriteJSON(w io.Writer, plan *planner.Plan) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(NewPlanDTO(plan))
}

// WriteText writes one line per repayment (date, total, capital, interest,
// fee), then a summary. The disbursement row is not printed.
func WriteText(w io.Writer, plan *planner.Plan) error {
	if plan.Degenerate {
		_, err := fmt.Fprintln(w, "nothing to amortize: rate or amount is zero")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "date\ttotal\tcapital\tinterest\tfee\t")
	for _, p := range plan.Periods[1:] {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t\n",
			p.Date, money(p.TotalPayment), money(p.CapitalPayment),
			money(p.InterestPayment), money(p.MonthlyFee))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	t := plan.Totals
	_, err := fmt.Fprintf(w, "\ntotal %s  capital %s  interest %s  fees %s  opening fee %s\neffective rate %.4f%%\n",
		money(t.TotalPayment), money(t.CapitalPayment), money(t.InterestPayment),
		money(t.MonthlyFee), money(t.OpeningFee), t.EffectiveRate)
	return err
}
