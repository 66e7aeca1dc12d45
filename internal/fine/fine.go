// Package fine holds the fine policy: how overdue days are counted and priced.
// Everything here is pure; callers capture "now" once and pass it in so a
// calculation never straddles a day boundary mid-call.
package fine

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Policy is a snapshot of the settings a fine computation needs. Loans keep
// the fine computed at return time even if the policy changes afterward.
type Policy struct {
	PerDay    decimal.Decimal
	GraceDays int
	// MaxFine caps the computed fine when positive. Zero or negative disables
	// the cap.
	MaxFine decimal.Decimal
}

// dateOf truncates t to its UTC calendar date.
func dateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysOverdue counts whole calendar days between the due date and end date.
// Partial days never count: a loan due today is not overdue until tomorrow.
func DaysOverdue(due, end time.Time) int {
	days := int(dateOf(end).Sub(dateOf(due)).Hours() / 24)
	if days < 0 {
		return 0
	}

	return days
}

// ChargeableDays is the overdue count after the grace period. The grace period
// absorbs the first GraceDays entirely; it is an exemption, not a discount.
func ChargeableDays(due, end time.Time, graceDays int) int {
	chargeable := DaysOverdue(due, end) - graceDays
	if chargeable < 0 {
		return 0
	}

	return chargeable
}

// Calculate prices the overdue span under the policy, rounded to two decimal
// places and clamped to the policy cap. Monotonically non-decreasing in the
// number of overdue days.
func Calculate(due, end time.Time, p Policy) decimal.Decimal {
	chargeable := ChargeableDays(due, end, p.GraceDays)
	if chargeable == 0 {
		return decimal.Zero
	}

	amount := p.PerDay.Mul(decimal.NewFromInt(int64(chargeable))).Round(2)

	if p.MaxFine.IsPositive() && amount.GreaterThan(p.MaxFine) {
		return p.MaxFine
	}

	return amount
}

// Breakdown is the fully derived view of a loan's fine, for display alongside
// the stored amount. Computed and Stored can differ when the fine was waived
// or the policy changed after return.
type Breakdown struct {
	DueAt          time.Time       `json:"due_at"`
	EndAt          time.Time       `json:"end_at"`
	DaysOverdue    int             `json:"days_overdue"`
	GraceDays      int             `json:"grace_days"`
	ChargeableDays int             `json:"chargeable_days"`
	PerDay         decimal.Decimal `json:"per_day"`
	Computed       decimal.Decimal `json:"computed"`
	Stored         decimal.Decimal `json:"stored"`
	Paid           bool            `json:"paid"`
	Formula        string          `json:"formula"`
}

// Explain derives the breakdown for a loan whose fine currently stands at
// stored/paid. No mutation; end is the return date if set, else now.
func Explain(due, end time.Time, p Policy, stored decimal.Decimal, paid bool) Breakdown {
	days := DaysOverdue(due, end)
	chargeable := ChargeableDays(due, end, p.GraceDays)
	computed := Calculate(due, end, p)

	return Breakdown{
		DueAt:          due,
		EndAt:          end,
		DaysOverdue:    days,
		GraceDays:      p.GraceDays,
		ChargeableDays: chargeable,
		PerDay:         p.PerDay,
		Computed:       computed,
		Stored:         stored,
		Paid:           paid,
		Formula: fmt.Sprintf("max(0, %d days overdue - %d grace) x %s/day = %s",
			days, p.GraceDays, p.PerDay.StringFixed(2), computed.StringFixed(2)),
	}
}
