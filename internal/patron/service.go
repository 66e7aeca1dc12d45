package patron

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=patron
type Repository interface {
	CreateStudent(ctx context.Context, st *Student) error
	GetStudent(ctx context.Context, id uuid.UUID) (*Student, error)
	UpdateStudent(ctx context.Context, st *Student) error
	DeleteStudent(ctx context.Context, id uuid.UUID) error
	ListStudents(ctx context.Context, filter ListFilter) ([]*Student, error)
}

type ListFilter struct {
	Search     string
	GradeLevel string
	Status     *Status
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

type CreateParams struct {
	StudentCode string
	FirstName   string
	LastName    string
	GradeLevel  string
	Section     string
}

func (s *Service) Create(ctx context.Context, params CreateParams) (*Student, error) {
	if params.StudentCode == "" {
		return nil, fmt.Errorf("student code is required")
	}

	st := &Student{
		StudentCode: params.StudentCode,
		FirstName:   params.FirstName,
		LastName:    params.LastName,
		GradeLevel:  params.GradeLevel,
		Section:     params.Section,
		Status:      StatusActive,
	}
	if err := s.repo.CreateStudent(ctx, st); err != nil {
		return nil, err
	}

	return st, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Student, error) {
	return s.repo.GetStudent(ctx, id)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Student, error) {
	return s.repo.ListStudents(ctx, filter)
}

func (s *Service) Update(ctx context.Context, st *Student) error {
	if !st.Status.Valid() {
		return fmt.Errorf("invalid student status %q", st.Status)
	}

	return s.repo.UpdateStudent(ctx, st)
}

// Delete retires the student record; loan history stays intact.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteStudent(ctx, id)
}
