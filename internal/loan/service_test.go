package loan_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"libris/internal/loan"
	"libris/internal/patron"
	"libris/internal/settings"
)

// staticSettings is an in-memory settings.Repository so tests can pin policy
// values without a database.
type staticSettings map[string]string

func (s staticSettings) GetValue(_ context.Context, key string) (string, error) {
	v, ok := s[key]
	if !ok {
		return "", settings.ErrNotFound
	}

	return v, nil
}

func (s staticSettings) Upsert(_ context.Context, st settings.Setting) error {
	s[st.Key] = st.Value
	return nil
}

func (s staticSettings) List(_ context.Context) ([]settings.Setting, error) {
	return nil, nil
}

func newService(repo loan.Repository, students loan.StudentDirectory, cfg map[string]string) *loan.Service {
	return loan.NewService(repo, students, settings.NewService(staticSettings(cfg)))
}

func activeStudent(id uuid.UUID) *patron.Student {
	return &patron.Student{
		ID:          id,
		StudentCode: "S-0042",
		FirstName:   "Mina",
		LastName:    "Reyes",
		Status:      patron.StatusActive,
	}
}

func TestService_CanBorrow(t *testing.T) {
	studentID := uuid.New()

	type testCase struct {
		name       string
		cfg        map[string]string
		setupMocks func(repo *loan.MockRepository, students *loan.MockStudentDirectory)
		wantElig   bool
		wantReason string
		wantErr    bool
	}

	tests := []testCase{
		{
			name: "Eligible",
			setupMocks: func(repo *loan.MockRepository, students *loan.MockStudentDirectory) {
				students.EXPECT().Get(gomock.Any(), studentID).Return(activeStudent(studentID), nil)
				repo.EXPECT().CountActive(gomock.Any(), studentID).Return(1, nil)
				repo.EXPECT().HasOverdue(gomock.Any(), studentID).Return(false, nil)
				repo.EXPECT().HasUnpaidFines(gomock.Any(), studentID).Return(false, nil)
			},
			wantElig: true,
		},
		{
			// At the default limit of 3 active loans the capacity rule fires
			// before any other check runs.
			name: "LimitReached",
			setupMocks: func(repo *loan.MockRepository, students *loan.MockStudentDirectory) {
				students.EXPECT().Get(gomock.Any(), studentID).Return(activeStudent(studentID), nil)
				repo.EXPECT().CountActive(gomock.Any(), studentID).Return(3, nil)
			},
			wantReason: "borrowing limit of 3 books reached",
		},
		{
			name: "ConfiguredLimit",
			cfg:  map[string]string{settings.KeyMaxBooksPerStudent: "5"},
			setupMocks: func(repo *loan.MockRepository, students *loan.MockStudentDirectory) {
				students.EXPECT().Get(gomock.Any(), studentID).Return(activeStudent(studentID), nil)
				repo.EXPECT().CountActive(gomock.Any(), studentID).Return(5, nil)
			},
			wantReason: "borrowing limit of 5 books reached",
		},
		{
			// The overdue rule fires before the fine rule: no HasUnpaidFines
			// expectation is set, so the mock controller enforces the order.
			name: "OverdueCheckedBeforeFines",
			setupMocks: func(repo *loan.MockRepository, students *loan.MockStudentDirectory) {
				students.EXPECT().Get(gomock.Any(), studentID).Return(activeStudent(studentID), nil)
				repo.EXPECT().CountActive(gomock.Any(), studentID).Return(1, nil)
				repo.EXPECT().HasOverdue(gomock.Any(), studentID).Return(true, nil)
			},
			wantReason: "has overdue books that must be returned first",
		},
		{
			name: "UnpaidFines",
			setupMocks: func(repo *loan.MockRepository, students *loan.MockStudentDirectory) {
				students.EXPECT().Get(gomock.Any(), studentID).Return(activeStudent(studentID), nil)
				repo.EXPECT().CountActive(gomock.Any(), studentID).Return(0, nil)
				repo.EXPECT().HasOverdue(gomock.Any(), studentID).Return(false, nil)
				repo.EXPECT().HasUnpaidFines(gomock.Any(), studentID).Return(true, nil)
			},
			wantReason: "has unpaid fines",
		},
		{
			name: "GraduatedStudent",
			setupMocks: func(repo *loan.MockRepository, students *loan.MockStudentDirectory) {
				st := activeStudent(studentID)
				st.Status = patron.StatusGraduated
				students.EXPECT().Get(gomock.Any(), studentID).Return(st, nil)
			},
			wantReason: "student is graduated and may not borrow",
		},
		{
			name: "StudentMissing",
			setupMocks: func(repo *loan.MockRepository, students *loan.MockStudentDirectory) {
				students.EXPECT().Get(gomock.Any(), studentID).Return(nil, patron.ErrNotFound)
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := loan.NewMockRepository(ctrl)
			students := loan.NewMockStudentDirectory(ctrl)
			tt.setupMocks(repo, students)

			svc := newService(repo, students, tt.cfg)
			got, err := svc.CanBorrow(context.Background(), studentID)

			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantElig, got.Eligible)
			assert.Equal(t, tt.wantReason, got.Reason)
		})
	}
}

func TestService_Borrow(t *testing.T) {
	var (
		studentID  = uuid.New()
		bookID     = uuid.New()
		operatorID = uuid.New()
		now        = time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)
	)

	expectEligible := func(repo *loan.MockRepository, students *loan.MockStudentDirectory) {
		students.EXPECT().Get(gomock.Any(), studentID).Return(activeStudent(studentID), nil)
		repo.EXPECT().CountActive(gomock.Any(), studentID).Return(0, nil)
		repo.EXPECT().HasOverdue(gomock.Any(), studentID).Return(false, nil)
		repo.EXPECT().HasUnpaidFines(gomock.Any(), studentID).Return(false, nil)
	}

	t.Run("Success", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		repo := loan.NewMockRepository(ctrl)
		students := loan.NewMockStudentDirectory(ctrl)
		expectEligible(repo, students)

		var created *loan.Loan

		repo.EXPECT().
			CreateLoan(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, l *loan.Loan) error {
				created = l
				l.CreatedAt = now
				return nil
			})

		svc := newService(repo, students, nil)
		got, err := svc.Borrow(context.Background(), loan.BorrowParams{
			StudentID:  studentID,
			BookID:     bookID,
			OperatorID: operatorID,
		}, now)

		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, created, got)
		assert.Equal(t, loan.StatusBorrowed, got.Status)
		assert.Equal(t, now, got.BorrowedAt)
		// Default borrowing period is 7 days.
		assert.Equal(t, now.AddDate(0, 0, 7), got.DueAt)
		assert.True(t, got.FineAmount.IsZero())
		assert.False(t, got.FinePaid)
	})

	t.Run("ConfiguredBorrowingPeriod", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		repo := loan.NewMockRepository(ctrl)
		students := loan.NewMockStudentDirectory(ctrl)
		expectEligible(repo, students)
		repo.EXPECT().CreateLoan(gomock.Any(), gomock.Any()).Return(nil)

		svc := newService(repo, students, map[string]string{settings.KeyBorrowingPeriod: "14"})
		got, err := svc.Borrow(context.Background(), loan.BorrowParams{
			StudentID:  studentID,
			BookID:     bookID,
			OperatorID: operatorID,
		}, now)

		require.NoError(t, err)
		assert.Equal(t, now.AddDate(0, 0, 14), got.DueAt)
	})

	t.Run("ExplicitDueDate", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		repo := loan.NewMockRepository(ctrl)
		students := loan.NewMockStudentDirectory(ctrl)
		expectEligible(repo, students)
		repo.EXPECT().CreateLoan(gomock.Any(), gomock.Any()).Return(nil)

		dueAt := now.AddDate(0, 0, 3)

		svc := newService(repo, students, nil)
		got, err := svc.Borrow(context.Background(), loan.BorrowParams{
			StudentID:  studentID,
			BookID:     bookID,
			OperatorID: operatorID,
			DueAt:      &dueAt,
		}, now)

		require.NoError(t, err)
		assert.Equal(t, dueAt, got.DueAt)
	})

	t.Run("Ineligible", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		repo := loan.NewMockRepository(ctrl)
		students := loan.NewMockStudentDirectory(ctrl)
		students.EXPECT().Get(gomock.Any(), studentID).Return(activeStudent(studentID), nil)
		repo.EXPECT().CountActive(gomock.Any(), studentID).Return(3, nil)

		svc := newService(repo, students, nil)
		got, err := svc.Borrow(context.Background(), loan.BorrowParams{
			StudentID: studentID,
			BookID:    bookID,
		}, now)

		assert.Nil(t, got)

		var ineligible *loan.IneligibleError
		require.ErrorAs(t, err, &ineligible)
		assert.Contains(t, ineligible.Reason, "borrowing limit")
	})

	t.Run("NoCopiesAvailable", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		repo := loan.NewMockRepository(ctrl)
		students := loan.NewMockStudentDirectory(ctrl)
		expectEligible(repo, students)
		repo.EXPECT().CreateLoan(gomock.Any(), gomock.Any()).Return(loan.ErrNoCopies)

		svc := newService(repo, students, nil)
		got, err := svc.Borrow(context.Background(), loan.BorrowParams{
			StudentID: studentID,
			BookID:    bookID,
		}, now)

		assert.Nil(t, got)
		assert.ErrorIs(t, err, loan.ErrNoCopies)
	})
}

func TestService_Return(t *testing.T) {
	var (
		loanID = uuid.New()
		bookID = uuid.New()
		now    = time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC)
	)

	cfg := map[string]string{
		settings.KeyFinePerDay:  "5.00",
		settings.KeyGracePeriod: "1",
	}

	t.Run("AlreadyReturned", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		repo := loan.NewMockRepository(ctrl)
		returnedAt := now.AddDate(0, 0, -1)
		repo.EXPECT().GetLoan(gomock.Any(), loanID).Return(&loan.Loan{
			ID:         loanID,
			Status:     loan.StatusReturned,
			ReturnedAt: &returnedAt,
		}, nil)

		svc := newService(repo, loan.NewMockStudentDirectory(ctrl), cfg)
		got, err := svc.Return(context.Background(), loan.ReturnParams{LoanID: loanID}, now)

		assert.Nil(t, got)
		assert.ErrorIs(t, err, loan.ErrAlreadyReturned)
	})

	t.Run("OnTimeNoFine", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		repo := loan.NewMockRepository(ctrl)
		repo.EXPECT().GetLoan(gomock.Any(), loanID).Return(&loan.Loan{
			ID:     loanID,
			BookID: bookID,
			DueAt:  now.AddDate(0, 0, 2),
			Status: loan.StatusBorrowed,
		}, nil)
		repo.EXPECT().FinalizeReturn(gomock.Any(), gomock.Any(), nil).Return(nil)

		svc := newService(repo, loan.NewMockStudentDirectory(ctrl), cfg)
		got, err := svc.Return(context.Background(), loan.ReturnParams{LoanID: loanID}, now)

		require.NoError(t, err)
		assert.Equal(t, loan.StatusReturned, got.Status)
		require.NotNil(t, got.ReturnedAt)
		assert.Equal(t, now, *got.ReturnedAt)
		assert.True(t, got.FineAmount.IsZero())
	})

	t.Run("SameDayRoundTripNoFine", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		repo := loan.NewMockRepository(ctrl)
		repo.EXPECT().GetLoan(gomock.Any(), loanID).Return(&loan.Loan{
			ID:         loanID,
			BookID:     bookID,
			BorrowedAt: now,
			DueAt:      now.AddDate(0, 0, 7),
			Status:     loan.StatusBorrowed,
		}, nil)
		repo.EXPECT().FinalizeReturn(gomock.Any(), gomock.Any(), nil).Return(nil)

		svc := newService(repo, loan.NewMockStudentDirectory(ctrl), cfg)
		got, err := svc.Return(context.Background(), loan.ReturnParams{LoanID: loanID}, now)

		require.NoError(t, err)
		assert.True(t, got.FineAmount.IsZero())
	})

	t.Run("LateReturnComputesFine", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		repo := loan.NewMockRepository(ctrl)
		// Due 5 days ago with a 1-day grace at 5.00/day: (5-1) x 5.00 = 20.00.
		repo.EXPECT().GetLoan(gomock.Any(), loanID).Return(&loan.Loan{
			ID:     loanID,
			BookID: bookID,
			DueAt:  now.AddDate(0, 0, -5),
			Status: loan.StatusOverdue,
		}, nil)

		var finalized *loan.Loan

		repo.EXPECT().
			FinalizeReturn(gomock.Any(), gomock.Any(), nil).
			DoAndReturn(func(_ context.Context, l *loan.Loan, _ any) error {
				finalized = l
				return nil
			})

		svc := newService(repo, loan.NewMockStudentDirectory(ctrl), cfg)
		got, err := svc.Return(context.Background(), loan.ReturnParams{
			LoanID: loanID,
			Notes:  "returned at front desk",
		}, now)

		require.NoError(t, err)
		assert.Equal(t, "20.00", got.FineAmount.StringFixed(2))
		assert.Equal(t, got, finalized)
		assert.Contains(t, got.Notes, "returned at front desk")
	})
}

func TestService_CurrentLoans(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	studentID := uuid.New()

	ordered := []*loan.Loan{
		{ID: uuid.New(), DueAt: time.Date(2024, time.March, 11, 0, 0, 0, 0, time.UTC)},
		{ID: uuid.New(), DueAt: time.Date(2024, time.March, 14, 0, 0, 0, 0, time.UTC)},
	}

	repo := loan.NewMockRepository(ctrl)
	repo.EXPECT().ActiveLoans(gomock.Any(), studentID).Return(ordered, nil)

	svc := newService(repo, loan.NewMockStudentDirectory(ctrl), nil)
	got, err := svc.CurrentLoans(context.Background(), studentID)

	require.NoError(t, err)
	assert.Equal(t, ordered, got)
}

func TestService_RemainingCapacity(t *testing.T) {
	studentID := uuid.New()

	tests := []struct {
		name    string
		cfg     map[string]string
		active  int
		want    int
		repoErr error
		wantErr bool
	}{
		{name: "UnderLimit", active: 1, want: 2},
		{name: "AtLimit", active: 3, want: 0},
		// A lowered limit can leave students over it; capacity floors at zero.
		{name: "OverLimitFloorsAtZero", cfg: map[string]string{settings.KeyMaxBooksPerStudent: "2"}, active: 5, want: 0},
		{name: "RepoError", repoErr: errors.New("db down"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := loan.NewMockRepository(ctrl)
			repo.EXPECT().CountActive(gomock.Any(), studentID).Return(tt.active, tt.repoErr)

			svc := newService(repo, loan.NewMockStudentDirectory(ctrl), tt.cfg)
			got, err := svc.RemainingCapacity(context.Background(), studentID)

			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
