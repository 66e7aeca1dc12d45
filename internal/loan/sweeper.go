package loan

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SweepResult reports one run of the overdue sweep. Loans is populated only
// on dry runs; UpdatedIDs only on live runs.
type SweepResult struct {
	DryRun     bool
	Count      int
	Loans      []*Loan
	UpdatedIDs []uuid.UUID
}

// Sweep reclassifies borrowed loans whose due date has passed as overdue.
// The cutoff is the start of now's calendar day, so a loan due earlier today
// is not swept until tomorrow's run. Idempotent: swept rows no longer match
// the status predicate.
func (s *Service) Sweep(ctx context.Context, now time.Time, dryRun bool) (SweepResult, error) {
	y, m, d := now.UTC().Date()
	cutoff := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)

	if dryRun {
		candidates, err := s.repo.OverdueCandidates(ctx, cutoff)
		if err != nil {
			return SweepResult{}, err
		}

		return SweepResult{DryRun: true, Count: len(candidates), Loans: candidates}, nil
	}

	ids, err := s.repo.MarkOverdue(ctx, cutoff)
	if err != nil {
		return SweepResult{}, err
	}

	return SweepResult{Count: len(ids), UpdatedIDs: ids}, nil
}
