package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"libris/internal/settings"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) GetValue(ctx context.Context, key string) (string, error) {
	var value string

	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = $1`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", settings.ErrNotFound
		}

		return "", fmt.Errorf("getting setting: %w", err)
	}

	return value, nil
}

func (s *Store) Upsert(ctx context.Context, setting settings.Setting) error {
	query := `
		INSERT INTO settings (key, value, description, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
	`

	if _, err := s.db.ExecContext(ctx, query, setting.Key, setting.Value, setting.Description); err != nil {
		return fmt.Errorf("upserting setting: %w", err)
	}

	return nil
}

func (s *Store) List(ctx context.Context) ([]settings.Setting, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value, description FROM settings ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("listing settings: %w", err)
	}
	defer rows.Close()

	var out []settings.Setting

	for rows.Next() {
		var st settings.Setting
		if err := rows.Scan(&st.Key, &st.Value, &st.Description); err != nil {
			return nil, fmt.Errorf("scanning setting: %w", err)
		}

		out = append(out, st)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating settings: %w", err)
	}

	return out, nil
}

// EnsureDefaults inserts any missing default rows without overwriting values
// an administrator has already changed.
func (s *Store) EnsureDefaults(ctx context.Context) error {
	query := `
		INSERT INTO settings (key, value, description, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (key) DO NOTHING
	`

	for _, st := range settings.Seed() {
		if _, err := s.db.ExecContext(ctx, query, st.Key, st.Value, st.Description); err != nil {
			return fmt.Errorf("seeding setting %q: %w", st.Key, err)
		}
	}

	return nil
}
