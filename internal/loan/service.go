package loan

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"libris/internal/catalog"
	"libris/internal/fine"
	"libris/internal/patron"
	"libris/internal/settings"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=loan
type Repository interface {
	// CreateLoan inserts the loan and decrements the book's available copies
	// in one storage transaction. Returns ErrNoCopies when no copy is free.
	CreateLoan(ctx context.Context, l *Loan) error
	// FinalizeReturn closes the loan and increments available copies in one
	// storage transaction, optionally updating the book's condition. Returns
	// ErrAlreadyReturned when a concurrent return won.
	FinalizeReturn(ctx context.Context, l *Loan, condition *catalog.Condition) error

	GetLoan(ctx context.Context, id uuid.UUID) (*Loan, error)
	UpdateFine(ctx context.Context, id uuid.UUID, amount decimal.Decimal, paid bool, notes string) error
	ListLoans(ctx context.Context, filter ListFilter) ([]*Loan, error)

	ActiveLoans(ctx context.Context, studentID uuid.UUID) ([]*Loan, error)
	CountActive(ctx context.Context, studentID uuid.UUID) (int, error)
	HasOverdue(ctx context.Context, studentID uuid.UUID) (bool, error)
	HasUnpaidFines(ctx context.Context, studentID uuid.UUID) (bool, error)

	// MarkOverdue flips every borrowed loan due before the cutoff to overdue
	// and returns the affected IDs.
	MarkOverdue(ctx context.Context, before time.Time) ([]uuid.UUID, error)
	// OverdueCandidates lists the loans MarkOverdue would affect, without
	// mutating them.
	OverdueCandidates(ctx context.Context, before time.Time) ([]*Loan, error)
}

// StudentDirectory is the slice of the patron service circulation needs.
type StudentDirectory interface {
	Get(ctx context.Context, id uuid.UUID) (*patron.Student, error)
}

type ListFilter struct {
	StudentID *uuid.UUID
	BookID    *uuid.UUID
	Status    *Status
	From      *time.Time
	To        *time.Time
}

type Service struct {
	repo     Repository
	students StudentDirectory
	settings *settings.Service
}

func NewService(repo Repository, students StudentDirectory, settings *settings.Service) *Service {
	return &Service{
		repo:     repo,
		students: students,
		settings: settings,
	}
}

func (s *Service) policy(ctx context.Context) fine.Policy {
	return fine.Policy{
		PerDay:    s.settings.GetDecimal(ctx, settings.KeyFinePerDay, settings.DefaultFinePerDay),
		GraceDays: s.settings.GetInt(ctx, settings.KeyGracePeriod, settings.DefaultGracePeriod),
		MaxFine:   s.settings.GetDecimal(ctx, settings.KeyMaxFineAmount, settings.DefaultMaxFineAmount),
	}
}

func (s *Service) maxBooks(ctx context.Context) int {
	return s.settings.GetInt(ctx, settings.KeyMaxBooksPerStudent, settings.DefaultMaxBooksPerStudent)
}

// Eligibility is the verdict of CanBorrow. Reason is empty when eligible.
type Eligibility struct {
	Eligible bool
	Reason   string
}

// CanBorrow applies the borrowing rules in fixed order, short-circuiting on
// the first failure: capacity, then overdue loans, then unpaid fines.
// Capacity goes first so the most common rejection surfaces first.
func (s *Service) CanBorrow(ctx context.Context, studentID uuid.UUID) (Eligibility, error) {
	student, err := s.students.Get(ctx, studentID)
	if err != nil {
		return Eligibility{}, err
	}

	if student.Status != patron.StatusActive {
		return Eligibility{Reason: fmt.Sprintf("student is %s and may not borrow", student.Status)}, nil
	}

	max := s.maxBooks(ctx)

	active, err := s.repo.CountActive(ctx, studentID)
	if err != nil {
		return Eligibility{}, fmt.Errorf("counting active loans: %w", err)
	}

	if active >= max {
		return Eligibility{Reason: fmt.Sprintf("borrowing limit of %d books reached", max)}, nil
	}

	overdue, err := s.repo.HasOverdue(ctx, studentID)
	if err != nil {
		return Eligibility{}, fmt.Errorf("checking overdue loans: %w", err)
	}

	if overdue {
		return Eligibility{Reason: "has overdue books that must be returned first"}, nil
	}

	unpaid, err := s.repo.HasUnpaidFines(ctx, studentID)
	if err != nil {
		return Eligibility{}, fmt.Errorf("checking unpaid fines: %w", err)
	}

	if unpaid {
		return Eligibility{Reason: "has unpaid fines"}, nil
	}

	return Eligibility{Eligible: true}, nil
}

type BorrowParams struct {
	StudentID  uuid.UUID
	BookID     uuid.UUID
	OperatorID uuid.UUID
	// DueAt overrides the default of now + borrowing_period days.
	DueAt *time.Time
}

// Borrow creates the loan. The loan insert and the availability decrement
// commit together or not at all; ErrNoCopies surfaces when the last copy was
// taken first.
func (s *Service) Borrow(ctx context.Context, params BorrowParams, now time.Time) (*Loan, error) {
	elig, err := s.CanBorrow(ctx, params.StudentID)
	if err != nil {
		return nil, err
	}

	if !elig.Eligible {
		return nil, &IneligibleError{Reason: elig.Reason}
	}

	dueAt := now.AddDate(0, 0, s.settings.GetInt(ctx, settings.KeyBorrowingPeriod, settings.DefaultBorrowingPeriod))
	if params.DueAt != nil {
		dueAt = *params.DueAt
	}

	l := &Loan{
		ID:         uuid.New(),
		StudentID:  params.StudentID,
		BookID:     params.BookID,
		OperatorID: params.OperatorID,
		BorrowedAt: now,
		DueAt:      dueAt,
		Status:     StatusBorrowed,
		FineAmount: decimal.Zero,
	}

	if err := s.repo.CreateLoan(ctx, l); err != nil {
		return nil, err
	}

	return l, nil
}

type ReturnParams struct {
	LoanID    uuid.UUID
	Condition *catalog.Condition
	Notes     string
}

// Return closes the loan. When the loan comes back late the fine is computed
// once, under the policy in force right now, and is durable from then on -
// later settings changes never touch it.
func (s *Service) Return(ctx context.Context, params ReturnParams, now time.Time) (*Loan, error) {
	l, err := s.repo.GetLoan(ctx, params.LoanID)
	if err != nil {
		return nil, err
	}

	if l.Status == StatusReturned {
		return nil, ErrAlreadyReturned
	}

	if l.Status == StatusOverdue || now.After(l.DueAt) {
		l.FineAmount = fine.Calculate(l.DueAt, now, s.policy(ctx))
	}

	returnedAt := now
	l.ReturnedAt = &returnedAt
	l.Status = StatusReturned

	if params.Notes != "" {
		l.Notes = appendNote(l.Notes, params.Notes)
	}

	if err := s.repo.FinalizeReturn(ctx, l, params.Condition); err != nil {
		return nil, err
	}

	return l, nil
}

// CurrentLoans lists the student's active loans, soonest due first.
func (s *Service) CurrentLoans(ctx context.Context, studentID uuid.UUID) ([]*Loan, error) {
	return s.repo.ActiveLoans(ctx, studentID)
}

// RemainingCapacity is how many more books the student may take out, floored
// at zero.
func (s *Service) RemainingCapacity(ctx context.Context, studentID uuid.UUID) (int, error) {
	active, err := s.repo.CountActive(ctx, studentID)
	if err != nil {
		return 0, fmt.Errorf("counting active loans: %w", err)
	}

	remaining := s.maxBooks(ctx) - active
	if remaining < 0 {
		return 0, nil
	}

	return remaining, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Loan, error) {
	return s.repo.GetLoan(ctx, id)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Loan, error) {
	return s.repo.ListLoans(ctx, filter)
}
