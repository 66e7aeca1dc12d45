package catalog

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=catalog
type Repository interface {
	CreateBook(ctx context.Context, b *Book) error
	GetBook(ctx context.Context, id uuid.UUID) (*Book, error)
	UpdateBook(ctx context.Context, b *Book) error
	DeleteBook(ctx context.Context, id uuid.UUID) error
	ListBooks(ctx context.Context, filter ListFilter) ([]*Book, error)
	ListCategories(ctx context.Context) ([]Category, error)
}

// ListFilter narrows book listings; Search matches title, author, or
// accession number.
type ListFilter struct {
	Search     string
	CategoryID *uuid.UUID
	Status     *Status
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

type CreateParams struct {
	AccessionNumber string
	Title           string
	Author          string
	CategoryID      *uuid.UUID
	CopiesTotal     int
	Condition       Condition
}

func (s *Service) Create(ctx context.Context, params CreateParams) (*Book, error) {
	if params.CopiesTotal < 1 {
		return nil, fmt.Errorf("a title needs at least one copy")
	}

	if !params.Condition.Valid() {
		params.Condition = ConditionGood
	}

	b := &Book{
		AccessionNumber: params.AccessionNumber,
		Title:           params.Title,
		Author:          params.Author,
		CategoryID:      params.CategoryID,
		CopiesTotal:     params.CopiesTotal,
		CopiesAvailable: params.CopiesTotal,
		Condition:       params.Condition,
		Status:          StatusAvailable,
	}
	if err := s.repo.CreateBook(ctx, b); err != nil {
		return nil, err
	}

	return b, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Book, error) {
	return s.repo.GetBook(ctx, id)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Book, error) {
	return s.repo.ListBooks(ctx, filter)
}

// Update applies catalog edits. Shrinking CopiesTotal below the number of
// copies currently on loan is rejected so availability can never exceed the
// stock again.
func (s *Service) Update(ctx context.Context, b *Book) error {
	current, err := s.repo.GetBook(ctx, b.ID)
	if err != nil {
		return err
	}

	onLoan := current.CopiesTotal - current.CopiesAvailable
	if b.CopiesTotal < onLoan {
		return ErrCopiesExceeded
	}

	b.CopiesAvailable = b.CopiesTotal - onLoan

	return s.repo.UpdateBook(ctx, b)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteBook(ctx, id)
}

func (s *Service) Categories(ctx context.Context) ([]Category, error) {
	return s.repo.ListCategories(ctx)
}
