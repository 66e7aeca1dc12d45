// Package report is the read-only query layer behind dashboards and the
// sweeper CLI's report commands. It never mutates circulation state.
package report

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OverdueRow is one overdue loan joined with its student and book.
type OverdueRow struct {
	LoanID          uuid.UUID       `db:"loan_id" json:"loan_id"`
	StudentCode     string          `db:"student_code" json:"student_code"`
	StudentName     string          `db:"student_name" json:"student_name"`
	Title           string          `db:"title" json:"title"`
	AccessionNumber string          `db:"accession_number" json:"accession_number"`
	DueAt           time.Time       `db:"due_at" json:"due_at"`
	FineAmount      decimal.Decimal `db:"fine_amount" json:"fine_amount"`
}

// UnpaidFineRow totals a student's outstanding fines.
type UnpaidFineRow struct {
	StudentID   uuid.UUID       `db:"student_id" json:"student_id"`
	StudentCode string          `db:"student_code" json:"student_code"`
	StudentName string          `db:"student_name" json:"student_name"`
	Loans       int             `db:"loans" json:"loans"`
	Total       decimal.Decimal `db:"total" json:"total"`
}

// TopBookRow counts how often a title has circulated.
type TopBookRow struct {
	BookID  uuid.UUID `db:"book_id" json:"book_id"`
	Title   string    `db:"title" json:"title"`
	Author  string    `db:"author" json:"author"`
	Borrows int       `db:"borrows" json:"borrows"`
}

// ActivityRow is one line of a student's loan history.
type ActivityRow struct {
	LoanID     uuid.UUID       `db:"loan_id" json:"loan_id"`
	Title      string          `db:"title" json:"title"`
	BorrowedAt time.Time       `db:"borrowed_at" json:"borrowed_at"`
	DueAt      time.Time       `db:"due_at" json:"due_at"`
	ReturnedAt *time.Time      `db:"returned_at" json:"returned_at,omitempty"`
	Status     string          `db:"status" json:"status"`
	FineAmount decimal.Decimal `db:"fine_amount" json:"fine_amount"`
}

// Snapshot is the dashboard headline: current circulation counts.
type Snapshot struct {
	ActiveLoans     int             `db:"active_loans" json:"active_loans"`
	OverdueLoans    int             `db:"overdue_loans" json:"overdue_loans"`
	UnpaidFineTotal decimal.Decimal `db:"unpaid_fine_total" json:"unpaid_fine_total"`
}
