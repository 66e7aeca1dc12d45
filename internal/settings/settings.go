package settings

import "github.com/shopspring/decimal"

// Setting is a single key/value configuration row. Values are stored as text
// and cast by the typed accessors on Service.
type Setting struct {
	Key         string
	Value       string
	Description string
}

// Keys the circulation engine reads on every operation.
const (
	KeyMaxBooksPerStudent = "max_books_per_student"
	KeyBorrowingPeriod    = "borrowing_period"
	KeyFinePerDay         = "fine_per_day"
	KeyGracePeriod        = "grace_period"
	KeyMaxFineAmount      = "max_fine_amount"
	KeyAllowRenewals      = "allow_renewals"
	KeyMaxRenewals        = "max_renewals"
)

// Defaults used when a key has no row yet. A freshly initialized store must
// still produce a working policy.
const (
	DefaultMaxBooksPerStudent = 3
	DefaultBorrowingPeriod    = 7
	DefaultGracePeriod        = 1
	DefaultAllowRenewals      = true
	DefaultMaxRenewals        = 1
)

var (
	DefaultFinePerDay    = decimal.New(500, -2)   // 5.00
	DefaultMaxFineAmount = decimal.New(10000, -2) // 100.00
)

// Seed returns the full default row set, used to populate a fresh database.
func Seed() []Setting {
	return []Setting{
		{Key: KeyMaxBooksPerStudent, Value: "3", Description: "Maximum simultaneous loans per student"},
		{Key: KeyBorrowingPeriod, Value: "7", Description: "Loan period in days"},
		{Key: KeyFinePerDay, Value: "5.00", Description: "Fine charged per chargeable overdue day"},
		{Key: KeyGracePeriod, Value: "1", Description: "Overdue days fully exempt from fines"},
		{Key: KeyMaxFineAmount, Value: "100.00", Description: "Ceiling on a single loan's fine"},
		{Key: KeyAllowRenewals, Value: "true", Description: "Whether loans may be renewed"},
		{Key: KeyMaxRenewals, Value: "1", Description: "Maximum renewals per loan"},
	}
}
