package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"libris/internal/report"
)

// Store runs the aggregation queries over sqlx so rows scan straight into
// the report structs.
type Store struct {
	db *sqlx.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: sqlx.NewDb(db, "pgx")}
}

func (s *Store) OverdueLoans(ctx context.Context) ([]report.OverdueRow, error) {
	query := `
		SELECT l.id AS loan_id,
		       st.student_code,
		       st.first_name || ' ' || st.last_name AS student_name,
		       b.title,
		       b.accession_number,
		       l.due_at,
		       l.fine_amount
		FROM loans l
		JOIN students st ON st.id = l.student_id
		JOIN books b ON b.id = l.book_id
		WHERE l.status = 'overdue'
		ORDER BY l.due_at ASC
	`

	var rows []report.OverdueRow
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("listing overdue loans: %w", err)
	}

	return rows, nil
}

func (s *Store) UnpaidFines(ctx context.Context) ([]report.UnpaidFineRow, error) {
	query := `
		SELECT st.id AS student_id,
		       st.student_code,
		       st.first_name || ' ' || st.last_name AS student_name,
		       COUNT(*) AS loans,
		       SUM(l.fine_amount) AS total
		FROM loans l
		JOIN students st ON st.id = l.student_id
		WHERE l.fine_amount > 0 AND NOT l.fine_paid
		GROUP BY st.id, st.student_code, st.first_name, st.last_name
		ORDER BY total DESC
	`

	var rows []report.UnpaidFineRow
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("listing unpaid fines: %w", err)
	}

	return rows, nil
}

func (s *Store) TopBooks(ctx context.Context, limit int) ([]report.TopBookRow, error) {
	query := `
		SELECT b.id AS book_id, b.title, b.author, COUNT(*) AS borrows
		FROM loans l
		JOIN books b ON b.id = l.book_id
		GROUP BY b.id, b.title, b.author
		ORDER BY borrows DESC, b.title ASC
		LIMIT $1
	`

	var rows []report.TopBookRow
	if err := s.db.SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, fmt.Errorf("listing top books: %w", err)
	}

	return rows, nil
}

func (s *Store) StudentActivity(ctx context.Context, studentID uuid.UUID) ([]report.ActivityRow, error) {
	query := `
		SELECT l.id AS loan_id, b.title, l.borrowed_at, l.due_at, l.returned_at, l.status, l.fine_amount
		FROM loans l
		JOIN books b ON b.id = l.book_id
		WHERE l.student_id = $1
		ORDER BY l.borrowed_at DESC
	`

	var rows []report.ActivityRow
	if err := s.db.SelectContext(ctx, &rows, query, studentID); err != nil {
		return nil, fmt.Errorf("listing student activity: %w", err)
	}

	return rows, nil
}

func (s *Store) Snapshot(ctx context.Context) (report.Snapshot, error) {
	query := `
		SELECT COUNT(*) FILTER (WHERE status IN ('borrowed', 'overdue')) AS active_loans,
		       COUNT(*) FILTER (WHERE status = 'overdue') AS overdue_loans,
		       COALESCE(SUM(fine_amount) FILTER (WHERE fine_amount > 0 AND NOT fine_paid), 0) AS unpaid_fine_total
		FROM loans
	`

	var snap report.Snapshot
	if err := s.db.GetContext(ctx, &snap, query); err != nil {
		return report.Snapshot{}, fmt.Errorf("building snapshot: %w", err)
	}

	return snap, nil
}
