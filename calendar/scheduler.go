package calendar

// =============================================================================
// SCHEDULER - Repayment calendar construction
// =============================================================================

// MinDaysFromStart is the shortest allowed gap between the start date and the
// first due date. A closer first due date is pushed one month further out.
const MinDaysFromStart = 20

// ScheduledDate is one entry of the repayment calendar.
type ScheduledDate struct {
	Date Date

	// DaysBefore is the number of days since the previous entry.
	// Zero for the disbursement entry.
	DaysBefore int

	// DaysInMonth is the length of Date's month. Metadata only.
	DaysInMonth int
}

// Schedule is the full calendar for one loan: the disbursement entry
// followed by one entry per repayment month.
type Schedule struct {
	Dates []ScheduledDate

	// RepaymentDay is the day-of-month actually requested for due dates.
	RepaymentDay int

	FinancedDate     Date
	FirstPaymentDate Date
	EndPaymentDate   Date

	// Deferred is true when the first due date was pushed out by the
	// minimum-lead-time rule.
	Deferred bool
}

// Len returns the number of entries, disbursement included.
func (s Schedule) Len() int { return len(s.Dates) }

// Build produces the repayment calendar for a loan starting on start with
// repayments on repaymentDay for months months. The result always has
// months+1 entries. A repaymentDay below 1 means "same day as start".
func Build(start Date, repaymentDay, months int) Schedule {
	day := repaymentDay
	if day < 1 {
		day = start.Day()
	}
	if months < 0 {
		months = 0
	}

	sched := Schedule{
		Dates:        make([]ScheduledDate, 0, months+1),
		RepaymentDay: day,
		FinancedDate: start,
	}
	sched.Dates = append(sched.Dates, ScheduledDate{
		Date:        start,
		DaysInMonth: start.DaysInMonth(),
	})

	shift := 0
	previous := start
	for i := 1; i <= months; i++ {
		due := start.MonthOffset(i+shift, day)
		if i == 1 {
			if DaysBetween(start, due) < MinDaysFromStart {
				shift = 1
				due = start.MonthOffset(i+shift, day)
				sched.Deferred = true
			}
			sched.FirstPaymentDate = due
		}

		sched.Dates = append(sched.Dates, ScheduledDate{
			Date:        due,
			DaysBefore:  DaysBetween(previous, due),
			DaysInMonth: due.DaysInMonth(),
		})
		previous = due
	}

	if months > 0 {
		sched.EndPaymentDate = previous
	}
	return sched
}
