package report

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	OverdueLoans(ctx context.Context) ([]OverdueRow, error)
	UnpaidFines(ctx context.Context) ([]UnpaidFineRow, error)
	TopBooks(ctx context.Context, limit int) ([]TopBookRow, error)
	StudentActivity(ctx context.Context, studentID uuid.UUID) ([]ActivityRow, error)
	Snapshot(ctx context.Context) (Snapshot, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) OverdueLoans(ctx context.Context) ([]OverdueRow, error) {
	return s.repo.OverdueLoans(ctx)
}

func (s *Service) UnpaidFines(ctx context.Context) ([]UnpaidFineRow, error) {
	return s.repo.UnpaidFines(ctx)
}

func (s *Service) TopBooks(ctx context.Context, limit int) ([]TopBookRow, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}

	return s.repo.TopBooks(ctx, limit)
}

func (s *Service) StudentActivity(ctx context.Context, studentID uuid.UUID) ([]ActivityRow, error) {
	return s.repo.StudentActivity(ctx, studentID)
}

func (s *Service) Snapshot(ctx context.Context) (Snapshot, error) {
	return s.repo.Snapshot(ctx)
}
