package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"libris/internal/patron"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

const selectStudentColumns = `
	s.id, s.student_code, s.first_name, s.last_name, s.grade_level, s.section,
	s.status, s.created_at, s.updated_at, s.deleted_at
`

func scanStudent(sc scanner) (*patron.Student, error) {
	var st patron.Student

	var statusStr string

	if err := sc.Scan(
		&st.ID, &st.StudentCode, &st.FirstName, &st.LastName, &st.GradeLevel, &st.Section,
		&statusStr, &st.CreatedAt, &st.UpdatedAt, &st.DeletedAt,
	); err != nil {
		return nil, err
	}

	st.Status = patron.Status(statusStr)

	return &st, nil
}

func (s *Store) CreateStudent(ctx context.Context, st *patron.Student) error {
	query := `
		INSERT INTO students (student_code, first_name, last_name, grade_level, section, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`

	err := s.db.QueryRowContext(ctx, query,
		st.StudentCode,
		st.FirstName,
		st.LastName,
		st.GradeLevel,
		st.Section,
		st.Status,
	).Scan(&st.ID, &st.CreatedAt, &st.UpdatedAt)
	if err != nil {
		return fmt.Errorf("creating student: %w", err)
	}

	return nil
}

func (s *Store) GetStudent(ctx context.Context, id uuid.UUID) (*patron.Student, error) {
	query := `SELECT ` + selectStudentColumns + ` FROM students s WHERE s.id = $1 AND s.deleted_at IS NULL`

	st, err := scanStudent(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, patron.ErrNotFound
		}

		return nil, fmt.Errorf("getting student: %w", err)
	}

	return st, nil
}

func (s *Store) ListStudents(ctx context.Context, filter patron.ListFilter) ([]*patron.Student, error) {
	query := `SELECT ` + selectStudentColumns + ` FROM students s WHERE s.deleted_at IS NULL`

	var args []any

	argIdx := 1

	if filter.Search != "" {
		query += fmt.Sprintf(" AND (s.first_name ILIKE $%d OR s.last_name ILIKE $%d OR s.student_code ILIKE $%d)", argIdx, argIdx, argIdx)

		args = append(args, "%"+filter.Search+"%")
		argIdx++
	}

	if filter.GradeLevel != "" {
		query += fmt.Sprintf(" AND s.grade_level = $%d", argIdx)

		args = append(args, filter.GradeLevel)
		argIdx++
	}

	if filter.Status != nil {
		query += fmt.Sprintf(" AND s.status = $%d", argIdx)

		args = append(args, *filter.Status)
		argIdx++
	}

	query += " ORDER BY s.last_name ASC, s.first_name ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing students: %w", err)
	}
	defer rows.Close()

	var students []*patron.Student

	for rows.Next() {
		st, err := scanStudent(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning student: %w", err)
		}

		students = append(students, st)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating student rows: %w", err)
	}

	return students, nil
}

func (s *Store) UpdateStudent(ctx context.Context, st *patron.Student) error {
	query := `
		UPDATE students
		SET student_code = $1, first_name = $2, last_name = $3, grade_level = $4,
		    section = $5, status = $6, updated_at = NOW()
		WHERE id = $7 AND deleted_at IS NULL
	`

	_, err := s.db.ExecContext(ctx, query,
		st.StudentCode,
		st.FirstName,
		st.LastName,
		st.GradeLevel,
		st.Section,
		st.Status,
		st.ID,
	)
	if err != nil {
		return fmt.Errorf("updating student: %w", err)
	}

	return nil
}

func (s *Store) DeleteStudent(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE students
		SET deleted_at = NOW()
		WHERE id = $1
	`

	if _, err := s.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("deleting student: %w", err)
	}

	return nil
}
