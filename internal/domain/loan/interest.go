package loan

import (
	"math"
	"time"
)

// DailyPenaltyRate is the flat late penalty: 1% of the principal per day of
// delay, simple interest. It is the single source of truth for accrual; the
// configurable LateInterestRate on the record is contract metadata only.
const DailyPenaltyRate = 0.01

type Accrual struct {
	DaysLate       int     `json:"days_late"`
	InterestAmount float64 `json:"interest_amount"`
	TotalDue       float64 `json:"total_due"`
	IsOverdue      bool    `json:"is_overdue"`
	DaysRemaining  int     `json:"days_remaining"`
	DailyCost      float64 `json:"daily_cost"`
}

// CalculateDueAmount derives the amount owed on a loan at a given instant.
// Both now and the due date are truncated to the start of their calendar day
// in now's location, so a loan is never late on its due date and partial
// days of delay round up. A paid loan short-circuits: the penalty freezes at
// zero whatever the dates say.
func CalculateDueAmount(amount float64, repaymentDate time.Time, status Status, now time.Time) Accrual {
	a := Accrual{TotalDue: amount, DailyCost: amount * DailyPenaltyRate}
	if status == StatusPaid {
		return a
	}

	today := startOfDay(now)
	due := startOfDay(repaymentDate.In(now.Location()))

	if !today.After(due) {
		a.DaysRemaining = int(math.Ceil(due.Sub(today).Hours() / 24))
		return a
	}

	a.DaysLate = int(math.Ceil(today.Sub(due).Hours() / 24))
	a.InterestAmount = amount * DailyPenaltyRate * float64(a.DaysLate)
	a.TotalDue = amount + a.InterestAmount
	a.IsOverdue = true
	return a
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
