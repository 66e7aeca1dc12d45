package loan_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"libris/internal/loan"
	"libris/internal/settings"
)

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestService_RecordPayment(t *testing.T) {
	var (
		loanID = uuid.New()
		now    = time.Date(2024, time.March, 20, 9, 30, 0, 0, time.UTC)
	)

	type testCase struct {
		name          string
		loan          *loan.Loan
		amount        decimal.Decimal
		expectUpdate  func(repo *loan.MockRepository)
		wantOK        bool
		wantMessage   string
		wantRemaining string
		wantFullyPaid bool
	}

	tests := []testCase{
		{
			name:        "NoFineToPay",
			loan:        &loan.Loan{ID: loanID, FineAmount: decimal.Zero},
			amount:      money("5.00"),
			wantMessage: "no fine to pay on this loan",
		},
		{
			name:        "AlreadyPaid",
			loan:        &loan.Loan{ID: loanID, FineAmount: money("20.00"), FinePaid: true},
			amount:      money("20.00"),
			wantMessage: "fine has already been paid",
		},
		{
			name:   "PartialPayment",
			loan:   &loan.Loan{ID: loanID, FineAmount: money("20.00")},
			amount: money("5.00"),
			expectUpdate: func(repo *loan.MockRepository) {
				repo.EXPECT().
					UpdateFine(gomock.Any(), loanID, money("20.00"), false, gomock.Any()).
					DoAndReturn(func(_ context.Context, _ uuid.UUID, _ decimal.Decimal, _ bool, notes string) error {
						assert.Contains(t, notes, "Payment received: 5.00 via cash")
						return nil
					})
			},
			wantOK:        true,
			wantMessage:   "payment recorded",
			wantRemaining: "15.00",
		},
		{
			name:   "ExactPayment",
			loan:   &loan.Loan{ID: loanID, FineAmount: money("20.00")},
			amount: money("20.00"),
			expectUpdate: func(repo *loan.MockRepository) {
				repo.EXPECT().UpdateFine(gomock.Any(), loanID, money("20.00"), true, gomock.Any()).Return(nil)
			},
			wantOK:        true,
			wantMessage:   "payment recorded",
			wantRemaining: "0.00",
			wantFullyPaid: true,
		},
		{
			// Overpayment caps at fully paid; remaining never goes negative.
			name:   "Overpayment",
			loan:   &loan.Loan{ID: loanID, FineAmount: money("20.00")},
			amount: money("100.00"),
			expectUpdate: func(repo *loan.MockRepository) {
				repo.EXPECT().UpdateFine(gomock.Any(), loanID, money("20.00"), true, gomock.Any()).Return(nil)
			},
			wantOK:        true,
			wantMessage:   "payment recorded",
			wantRemaining: "0.00",
			wantFullyPaid: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := loan.NewMockRepository(ctrl)
			repo.EXPECT().GetLoan(gomock.Any(), loanID).Return(tt.loan, nil)

			if tt.expectUpdate != nil {
				tt.expectUpdate(repo)
			}

			svc := newService(repo, loan.NewMockStudentDirectory(ctrl), nil)
			got, err := svc.RecordPayment(context.Background(), loanID, tt.amount, "cash", now)

			require.NoError(t, err)
			assert.Equal(t, tt.wantOK, got.OK)
			assert.Equal(t, tt.wantMessage, got.Message)
			assert.Equal(t, tt.wantFullyPaid, got.FullyPaid)

			if tt.wantRemaining != "" {
				assert.Equal(t, tt.wantRemaining, got.Remaining.StringFixed(2))
			}

			assert.False(t, got.Remaining.IsNegative())
		})
	}
}

func TestService_WaiveFine(t *testing.T) {
	var (
		loanID = uuid.New()
		now    = time.Date(2024, time.March, 20, 9, 30, 0, 0, time.UTC)
	)

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := loan.NewMockRepository(ctrl)
	repo.EXPECT().GetLoan(gomock.Any(), loanID).Return(&loan.Loan{
		ID:         loanID,
		FineAmount: money("35.00"),
	}, nil)
	repo.EXPECT().
		UpdateFine(gomock.Any(), loanID, decimal.Zero, true, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ uuid.UUID, _ decimal.Decimal, _ bool, notes string) error {
			assert.Contains(t, notes, "Fine of 35.00 waived")
			assert.Contains(t, notes, "book damaged in flood")
			return nil
		})

	svc := newService(repo, loan.NewMockStudentDirectory(ctrl), nil)
	got, err := svc.WaiveFine(context.Background(), loanID, "book damaged in flood", now)

	require.NoError(t, err)
	assert.True(t, got.FineAmount.IsZero())
	assert.True(t, got.FinePaid)
	assert.Contains(t, got.Notes, "book damaged in flood")
}

func TestService_MarkFinePaid(t *testing.T) {
	loanID := uuid.New()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := loan.NewMockRepository(ctrl)
	repo.EXPECT().GetLoan(gomock.Any(), loanID).Return(&loan.Loan{
		ID:         loanID,
		FineAmount: money("12.50"),
	}, nil)
	repo.EXPECT().UpdateFine(gomock.Any(), loanID, money("12.50"), true, gomock.Any()).Return(nil)

	svc := newService(repo, loan.NewMockStudentDirectory(ctrl), nil)
	got, err := svc.MarkFinePaid(context.Background(), loanID)

	require.NoError(t, err)
	// Amount is untouched; only the paid flag flips.
	assert.Equal(t, "12.50", got.FineAmount.StringFixed(2))
	assert.True(t, got.FinePaid)
}

func TestService_FineBreakdown(t *testing.T) {
	var (
		loanID = uuid.New()
		dueAt  = time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC)
		now    = time.Date(2024, time.March, 15, 16, 45, 0, 0, time.UTC)
	)

	cfg := map[string]string{
		settings.KeyFinePerDay:  "5.00",
		settings.KeyGracePeriod: "1",
	}

	t.Run("OpenLoanUsesNow", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		repo := loan.NewMockRepository(ctrl)
		repo.EXPECT().GetLoan(gomock.Any(), loanID).Return(&loan.Loan{
			ID:     loanID,
			DueAt:  dueAt,
			Status: loan.StatusOverdue,
		}, nil)

		svc := newService(repo, loan.NewMockStudentDirectory(ctrl), cfg)
		got, err := svc.FineBreakdown(context.Background(), loanID, now)

		require.NoError(t, err)
		assert.Equal(t, 5, got.DaysOverdue)
		assert.Equal(t, 4, got.ChargeableDays)
		assert.Equal(t, "20.00", got.Computed.StringFixed(2))
	})

	t.Run("ReturnedLoanUsesReturnDate", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		returnedAt := dueAt.AddDate(0, 0, 2)

		repo := loan.NewMockRepository(ctrl)
		repo.EXPECT().GetLoan(gomock.Any(), loanID).Return(&loan.Loan{
			ID:         loanID,
			DueAt:      dueAt,
			Status:     loan.StatusReturned,
			ReturnedAt: &returnedAt,
			FineAmount: money("5.00"),
		}, nil)

		svc := newService(repo, loan.NewMockStudentDirectory(ctrl), cfg)
		got, err := svc.FineBreakdown(context.Background(), loanID, now)

		require.NoError(t, err)
		assert.Equal(t, 2, got.DaysOverdue)
		assert.Equal(t, 1, got.ChargeableDays)
		assert.Equal(t, "5.00", got.Computed.StringFixed(2))
		assert.Equal(t, "5.00", got.Stored.StringFixed(2))
	})
}
