package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"libris/internal/catalog"
	"libris/internal/loan"
)

// maxAttempts bounds retries of the atomic borrow/return transactions on
// transient contention. Business-rule failures are never retried.
const maxAttempts = 3

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

const selectLoanColumns = `
	l.id, l.student_id, l.book_id, l.operator_id, l.borrowed_at, l.due_at,
	l.returned_at, l.status, l.fine_amount, l.fine_paid, l.notes,
	l.created_at, l.updated_at
`

func scanLoan(s scanner) (*loan.Loan, error) {
	var l loan.Loan

	var statusStr string

	var notes sql.NullString

	if err := s.Scan(
		&l.ID, &l.StudentID, &l.BookID, &l.OperatorID, &l.BorrowedAt, &l.DueAt,
		&l.ReturnedAt, &statusStr, &l.FineAmount, &l.FinePaid, &notes,
		&l.CreatedAt, &l.UpdatedAt,
	); err != nil {
		return nil, err
	}

	l.Status = loan.Status(statusStr)
	l.Notes = notes.String

	return &l, nil
}

// retryable reports whether the error is a transient contention failure
// (serialization failure or deadlock) worth one more attempt.
func retryable(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}

	return pgErr.Code == "40001" || pgErr.Code == "40P01"
}

// CreateLoan pairs the loan insert with a conditional decrement of the
// book's available copies. The guard `copies_available > 0` serializes
// concurrent borrows of the last copy: the loser matches zero rows and gets
// ErrNoCopies, never a negative count.
func (s *Store) CreateLoan(ctx context.Context, l *loan.Loan) error {
	var err error

	for attempt := 0; attempt < maxAttempts; attempt++ {
		err = s.createLoanOnce(ctx, l)
		if err == nil || !retryable(err) {
			return err
		}
	}

	return fmt.Errorf("creating loan after %d attempts: %w", maxAttempts, err)
}

func (s *Store) createLoanOnce(ctx context.Context, l *loan.Loan) error {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning borrow tx: %w", err)
	}
	defer dbTx.Rollback()

	decrement := `
		UPDATE books
		SET copies_available = copies_available - 1, updated_at = NOW()
		WHERE id = $1 AND copies_available > 0
	`

	res, err := dbTx.ExecContext(ctx, decrement, l.BookID)
	if err != nil {
		return fmt.Errorf("decrementing availability: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking decrement: %w", err)
	}

	if affected == 0 {
		return loan.ErrNoCopies
	}

	insert := `
		INSERT INTO loans (id, student_id, book_id, operator_id, borrowed_at, due_at, status, fine_amount, fine_paid, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
		RETURNING created_at, updated_at
	`

	err = dbTx.QueryRowContext(ctx, insert,
		l.ID,
		l.StudentID,
		l.BookID,
		l.OperatorID,
		l.BorrowedAt,
		l.DueAt,
		l.Status,
		l.FineAmount,
		l.FinePaid,
		l.Notes,
	).Scan(&l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting loan: %w", err)
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("committing borrow tx: %w", err)
	}

	return nil
}

// FinalizeReturn closes the loan and gives the copy back in one transaction.
// The status guard makes a double return lose cleanly, and the
// `copies_available < copies_total` guard keeps the count inside its bounds
// even if the book row was edited concurrently.
func (s *Store) FinalizeReturn(ctx context.Context, l *loan.Loan, condition *catalog.Condition) error {
	var err error

	for attempt := 0; attempt < maxAttempts; attempt++ {
		err = s.finalizeReturnOnce(ctx, l, condition)
		if err == nil || !retryable(err) {
			return err
		}
	}

	return fmt.Errorf("finalizing return after %d attempts: %w", maxAttempts, err)
}

func (s *Store) finalizeReturnOnce(ctx context.Context, l *loan.Loan, condition *catalog.Condition) error {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning return tx: %w", err)
	}
	defer dbTx.Rollback()

	update := `
		UPDATE loans
		SET status = $1, returned_at = $2, fine_amount = $3, fine_paid = $4, notes = $5, updated_at = NOW()
		WHERE id = $6 AND status <> 'returned'
	`

	res, err := dbTx.ExecContext(ctx, update,
		l.Status,
		l.ReturnedAt,
		l.FineAmount,
		l.FinePaid,
		l.Notes,
		l.ID,
	)
	if err != nil {
		return fmt.Errorf("closing loan: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking loan close: %w", err)
	}

	if affected == 0 {
		return loan.ErrAlreadyReturned
	}

	increment := `
		UPDATE books
		SET copies_available = copies_available + 1, updated_at = NOW()
		WHERE id = $1 AND copies_available < copies_total
	`

	if _, err := dbTx.ExecContext(ctx, increment, l.BookID); err != nil {
		return fmt.Errorf("incrementing availability: %w", err)
	}

	if condition != nil {
		conditionUpdate := `UPDATE books SET condition = $1, updated_at = NOW() WHERE id = $2`
		if _, err := dbTx.ExecContext(ctx, conditionUpdate, *condition, l.BookID); err != nil {
			return fmt.Errorf("updating book condition: %w", err)
		}
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("committing return tx: %w", err)
	}

	return nil
}

func (s *Store) GetLoan(ctx context.Context, id uuid.UUID) (*loan.Loan, error) {
	query := `SELECT ` + selectLoanColumns + ` FROM loans l WHERE l.id = $1`

	l, err := scanLoan(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, loan.ErrNotFound
		}

		return nil, fmt.Errorf("getting loan: %w", err)
	}

	return l, nil
}

func (s *Store) UpdateFine(ctx context.Context, id uuid.UUID, amount decimal.Decimal, paid bool, notes string) error {
	query := `
		UPDATE loans
		SET fine_amount = $1, fine_paid = $2, notes = $3, updated_at = NOW()
		WHERE id = $4
	`

	_, err := s.db.ExecContext(ctx, query, amount, paid, notes, id)
	if err != nil {
		return fmt.Errorf("updating fine: %w", err)
	}

	return nil
}

func (s *Store) ListLoans(ctx context.Context, filter loan.ListFilter) ([]*loan.Loan, error) {
	query := `SELECT ` + selectLoanColumns + ` FROM loans l WHERE 1=1`

	var args []any

	argIdx := 1

	if filter.StudentID != nil {
		query += fmt.Sprintf(" AND l.student_id = $%d", argIdx)

		args = append(args, *filter.StudentID)
		argIdx++
	}

	if filter.BookID != nil {
		query += fmt.Sprintf(" AND l.book_id = $%d", argIdx)

		args = append(args, *filter.BookID)
		argIdx++
	}

	if filter.Status != nil {
		query += fmt.Sprintf(" AND l.status = $%d", argIdx)

		args = append(args, *filter.Status)
		argIdx++
	}

	if filter.From != nil {
		query += fmt.Sprintf(" AND l.borrowed_at >= $%d", argIdx)

		args = append(args, *filter.From)
		argIdx++
	}

	if filter.To != nil {
		query += fmt.Sprintf(" AND l.borrowed_at <= $%d", argIdx)

		args = append(args, *filter.To)
		argIdx++
	}

	query += " ORDER BY l.borrowed_at DESC"

	return s.queryLoans(ctx, query, args...)
}

// ActiveLoans orders by due date ascending so "due soon" displays read
// top-down.
func (s *Store) ActiveLoans(ctx context.Context, studentID uuid.UUID) ([]*loan.Loan, error) {
	query := `SELECT ` + selectLoanColumns + `
		FROM loans l
		WHERE l.student_id = $1 AND l.status IN ('borrowed', 'overdue')
		ORDER BY l.due_at ASC`

	return s.queryLoans(ctx, query, studentID)
}

func (s *Store) CountActive(ctx context.Context, studentID uuid.UUID) (int, error) {
	query := `SELECT COUNT(*) FROM loans WHERE student_id = $1 AND status IN ('borrowed', 'overdue')`

	var count int
	if err := s.db.QueryRowContext(ctx, query, studentID).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting active loans: %w", err)
	}

	return count, nil
}

func (s *Store) HasOverdue(ctx context.Context, studentID uuid.UUID) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM loans WHERE student_id = $1 AND status = 'overdue')`

	var exists bool
	if err := s.db.QueryRowContext(ctx, query, studentID).Scan(&exists); err != nil {
		return false, fmt.Errorf("checking overdue loans: %w", err)
	}

	return exists, nil
}

func (s *Store) HasUnpaidFines(ctx context.Context, studentID uuid.UUID) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM loans WHERE student_id = $1 AND fine_amount > 0 AND NOT fine_paid)`

	var exists bool
	if err := s.db.QueryRowContext(ctx, query, studentID).Scan(&exists); err != nil {
		return false, fmt.Errorf("checking unpaid fines: %w", err)
	}

	return exists, nil
}

// MarkOverdue is the sweep's bulk update. The status predicate keeps it
// idempotent and lets a concurrent return win: returned rows no longer
// match.
func (s *Store) MarkOverdue(ctx context.Context, before time.Time) ([]uuid.UUID, error) {
	query := `
		UPDATE loans
		SET status = 'overdue', updated_at = NOW()
		WHERE status = 'borrowed' AND due_at < $1
		RETURNING id
	`

	rows, err := s.db.QueryContext(ctx, query, before)
	if err != nil {
		return nil, fmt.Errorf("marking overdue loans: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID

	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning overdue id: %w", err)
		}

		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating overdue ids: %w", err)
	}

	return ids, nil
}

func (s *Store) OverdueCandidates(ctx context.Context, before time.Time) ([]*loan.Loan, error) {
	query := `SELECT ` + selectLoanColumns + `
		FROM loans l
		WHERE l.status = 'borrowed' AND l.due_at < $1
		ORDER BY l.due_at ASC`

	return s.queryLoans(ctx, query, before)
}

func (s *Store) queryLoans(ctx context.Context, query string, args ...any) ([]*loan.Loan, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing loans: %w", err)
	}
	defer rows.Close()

	var loans []*loan.Loan

	for rows.Next() {
		l, err := scanLoan(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning loan: %w", err)
		}

		loans = append(loans, l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating loan rows: %w", err)
	}

	return loans, nil
}
