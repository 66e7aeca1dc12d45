package loan_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"libris/internal/loan"
)

func TestService_Sweep(t *testing.T) {
	now := time.Date(2024, time.March, 15, 14, 25, 0, 0, time.UTC)
	midnight := time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)

	t.Run("DryRunDoesNotUpdate", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		candidates := []*loan.Loan{
			{ID: uuid.New(), Status: loan.StatusBorrowed},
			{ID: uuid.New(), Status: loan.StatusBorrowed},
		}

		repo := loan.NewMockRepository(ctrl)
		repo.EXPECT().OverdueCandidates(gomock.Any(), midnight).Return(candidates, nil)

		svc := newService(repo, loan.NewMockStudentDirectory(ctrl), nil)
		got, err := svc.Sweep(context.Background(), now, true)

		require.NoError(t, err)
		assert.True(t, got.DryRun)
		assert.Equal(t, 2, got.Count)
		assert.Len(t, got.Loans, 2)
		assert.Empty(t, got.UpdatedIDs)
	})

	t.Run("LiveRunMarksOverdue", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}

		repo := loan.NewMockRepository(ctrl)
		repo.EXPECT().MarkOverdue(gomock.Any(), midnight).Return(ids, nil)

		svc := newService(repo, loan.NewMockStudentDirectory(ctrl), nil)
		got, err := svc.Sweep(context.Background(), now, false)

		require.NoError(t, err)
		assert.False(t, got.DryRun)
		assert.Equal(t, 3, got.Count)
		assert.Equal(t, ids, got.UpdatedIDs)
		assert.Empty(t, got.Loans)
	})

	t.Run("SecondRunFindsNothing", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		repo := loan.NewMockRepository(ctrl)
		gomock.InOrder(
			repo.EXPECT().MarkOverdue(gomock.Any(), midnight).Return([]uuid.UUID{uuid.New()}, nil),
			repo.EXPECT().MarkOverdue(gomock.Any(), midnight).Return(nil, nil),
		)

		svc := newService(repo, loan.NewMockStudentDirectory(ctrl), nil)

		first, err := svc.Sweep(context.Background(), now, false)
		require.NoError(t, err)
		assert.Equal(t, 1, first.Count)

		second, err := svc.Sweep(context.Background(), now, false)
		require.NoError(t, err)
		assert.Zero(t, second.Count)
	})

	t.Run("CutoffIsStartOfDay", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		var gotCutoff time.Time

		repo := loan.NewMockRepository(ctrl)
		repo.EXPECT().
			MarkOverdue(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, before time.Time) ([]uuid.UUID, error) {
				gotCutoff = before
				return nil, nil
			})

		svc := newService(repo, loan.NewMockStudentDirectory(ctrl), nil)

		lateEvening := time.Date(2024, time.March, 15, 23, 59, 59, 0, time.UTC)
		_, err := svc.Sweep(context.Background(), lateEvening, false)

		require.NoError(t, err)
		// Loans due earlier today stay untouched until tomorrow's run.
		assert.Equal(t, midnight, gotCutoff)
	})
}
