package loan

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound = errors.New("loan not found")
	// ErrNoCopies is the atomic-borrow failure: the conditional decrement on
	// copies_available matched no row.
	ErrNoCopies = errors.New("book is not available - all copies are borrowed")
	// ErrAlreadyReturned guards the terminal state; a returned loan never
	// changes again.
	ErrAlreadyReturned = errors.New("loan has already been returned")
)

// IneligibleError carries the first failed eligibility rule as a
// human-readable reason callers render verbatim.
type IneligibleError struct {
	Reason string
}

func (e *IneligibleError) Error() string {
	return fmt.Sprintf("student cannot borrow: %s", e.Reason)
}

// Status is the loan state machine: borrowed -> overdue -> returned, or
// borrowed -> returned directly. Returned is terminal.
type Status string

const (
	StatusBorrowed Status = "borrowed"
	StatusOverdue  Status = "overdue"
	StatusReturned Status = "returned"
)

// Loan is one circulation record tying a student to a book copy. FineAmount
// is fixed at return or waiver time and never recomputed afterward.
type Loan struct {
	ID         uuid.UUID
	StudentID  uuid.UUID
	BookID     uuid.UUID
	OperatorID uuid.UUID
	BorrowedAt time.Time
	DueAt      time.Time
	ReturnedAt *time.Time
	Status     Status
	FineAmount decimal.Decimal
	FinePaid   bool
	Notes      string
	CreatedAt  time.Time
	UpdatedAt  *time.Time
}

// Active reports whether the loan still holds a copy.
func (l *Loan) Active() bool {
	return l.Status == StatusBorrowed || l.Status == StatusOverdue
}

// IsOverdue reports whether the loan is past due at now. Always false once
// returned, regardless of how late the return was.
func (l *Loan) IsOverdue(now time.Time) bool {
	if l.Status == StatusReturned {
		return false
	}

	return now.After(l.DueAt)
}

// HasUnpaidFine reports an outstanding fine balance.
func (l *Loan) HasUnpaidFine() bool {
	return l.FineAmount.IsPositive() && !l.FinePaid
}

// appendNote adds a timestamped audit line to the loan's notes.
func appendNote(notes, line string) string {
	if notes == "" {
		return line
	}

	return notes + "\n" + line
}
