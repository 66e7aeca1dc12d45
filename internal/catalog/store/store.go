package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"libris/internal/catalog"
)

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

const selectBookColumns = `
	b.id, b.accession_number, b.title, b.author, b.category_id,
	b.copies_total, b.copies_available, b.condition, b.status,
	b.created_at, b.updated_at
`

func scanBook(s scanner) (*catalog.Book, error) {
	var b catalog.Book

	var condStr, statusStr string

	if err := s.Scan(
		&b.ID, &b.AccessionNumber, &b.Title, &b.Author, &b.CategoryID,
		&b.CopiesTotal, &b.CopiesAvailable, &condStr, &statusStr,
		&b.CreatedAt, &b.UpdatedAt,
	); err != nil {
		return nil, err
	}

	b.Condition = catalog.Condition(condStr)
	b.Status = catalog.Status(statusStr)

	return &b, nil
}

func (s *Store) CreateBook(ctx context.Context, b *catalog.Book) error {
	query := `
		INSERT INTO books (accession_number, title, author, category_id, copies_total, copies_available, condition, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`

	err := s.db.QueryRowContext(ctx, query,
		b.AccessionNumber,
		b.Title,
		b.Author,
		b.CategoryID,
		b.CopiesTotal,
		b.CopiesAvailable,
		b.Condition,
		b.Status,
	).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("creating book: %w", err)
	}

	return nil
}

func (s *Store) GetBook(ctx context.Context, id uuid.UUID) (*catalog.Book, error) {
	query := `SELECT ` + selectBookColumns + ` FROM books b WHERE b.id = $1`

	b, err := scanBook(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, catalog.ErrNotFound
		}

		return nil, fmt.Errorf("getting book: %w", err)
	}

	return b, nil
}

func (s *Store) ListBooks(ctx context.Context, filter catalog.ListFilter) ([]*catalog.Book, error) {
	query := `SELECT ` + selectBookColumns + ` FROM books b WHERE 1=1`

	var args []any

	argIdx := 1

	if filter.Search != "" {
		query += fmt.Sprintf(" AND (b.title ILIKE $%d OR b.author ILIKE $%d OR b.accession_number ILIKE $%d)", argIdx, argIdx, argIdx)

		args = append(args, "%"+filter.Search+"%")
		argIdx++
	}

	if filter.CategoryID != nil {
		query += fmt.Sprintf(" AND b.category_id = $%d", argIdx)

		args = append(args, *filter.CategoryID)
		argIdx++
	}

	if filter.Status != nil {
		query += fmt.Sprintf(" AND b.status = $%d", argIdx)

		args = append(args, *filter.Status)
		argIdx++
	}

	query += " ORDER BY b.title ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing books: %w", err)
	}
	defer rows.Close()

	var books []*catalog.Book

	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning book: %w", err)
		}

		books = append(books, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating book rows: %w", err)
	}

	return books, nil
}

func (s *Store) UpdateBook(ctx context.Context, b *catalog.Book) error {
	query := `
		UPDATE books
		SET accession_number = $1, title = $2, author = $3, category_id = $4,
		    copies_total = $5, copies_available = $6, condition = $7, status = $8, updated_at = NOW()
		WHERE id = $9
	`

	_, err := s.db.ExecContext(ctx, query,
		b.AccessionNumber,
		b.Title,
		b.Author,
		b.CategoryID,
		b.CopiesTotal,
		b.CopiesAvailable,
		b.Condition,
		b.Status,
		b.ID,
	)
	if err != nil {
		return fmt.Errorf("updating book: %w", err)
	}

	return nil
}

func (s *Store) DeleteBook(ctx context.Context, id uuid.UUID) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM books WHERE id = $1`, id); err != nil {
		return fmt.Errorf("deleting book: %w", err)
	}

	return nil
}

func (s *Store) ListCategories(ctx context.Context) ([]catalog.Category, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	defer rows.Close()

	var cats []catalog.Category

	for rows.Next() {
		var c catalog.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("scanning category: %w", err)
		}

		cats = append(cats, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating category rows: %w", err)
	}

	return cats, nil
}
