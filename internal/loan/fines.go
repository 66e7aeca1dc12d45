package loan

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"libris/internal/fine"
)

// PaymentResult reports the outcome of a payment attempt. A rejected payment
// is a result, not an error: the caller renders Message as-is.
type PaymentResult struct {
	OK        bool
	Message   string
	Remaining decimal.Decimal
	FullyPaid bool
}

// RecordPayment applies a payment toward the loan's fine. Overpayment is not
// tracked or refunded; the remaining balance simply caps at zero. Every
// accepted payment leaves an audit note.
func (s *Service) RecordPayment(ctx context.Context, id uuid.UUID, amount decimal.Decimal, method string, now time.Time) (PaymentResult, error) {
	l, err := s.repo.GetLoan(ctx, id)
	if err != nil {
		return PaymentResult{}, err
	}

	if !l.FineAmount.IsPositive() {
		return PaymentResult{Message: "no fine to pay on this loan"}, nil
	}

	if l.FinePaid {
		return PaymentResult{Message: "fine has already been paid"}, nil
	}

	remaining := l.FineAmount.Sub(amount)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}

	fullyPaid := remaining.IsZero()

	notes := appendNote(l.Notes, fmt.Sprintf("Payment received: %s via %s on %s",
		amount.StringFixed(2), method, now.Format(time.RFC3339)))

	if err := s.repo.UpdateFine(ctx, id, l.FineAmount, fullyPaid, notes); err != nil {
		return PaymentResult{}, err
	}

	return PaymentResult{
		OK:        true,
		Message:   "payment recorded",
		Remaining: remaining,
		FullyPaid: fullyPaid,
	}, nil
}

// WaiveFine zeroes the fine and marks it settled, keeping the reason in the
// audit trail. Whether the caller is allowed to waive is the caller's
// problem.
func (s *Service) WaiveFine(ctx context.Context, id uuid.UUID, reason string, now time.Time) (*Loan, error) {
	l, err := s.repo.GetLoan(ctx, id)
	if err != nil {
		return nil, err
	}

	l.Notes = appendNote(l.Notes, fmt.Sprintf("Fine of %s waived on %s: %s",
		l.FineAmount.StringFixed(2), now.Format(time.RFC3339), reason))
	l.FineAmount = decimal.Zero
	l.FinePaid = true

	if err := s.repo.UpdateFine(ctx, id, l.FineAmount, l.FinePaid, l.Notes); err != nil {
		return nil, err
	}

	return l, nil
}

// MarkFinePaid settles the fine in full without changing the amount - the
// return flow's "pay now" shortcut.
func (s *Service) MarkFinePaid(ctx context.Context, id uuid.UUID) (*Loan, error) {
	l, err := s.repo.GetLoan(ctx, id)
	if err != nil {
		return nil, err
	}

	l.FinePaid = true

	if err := s.repo.UpdateFine(ctx, id, l.FineAmount, true, l.Notes); err != nil {
		return nil, err
	}

	return l, nil
}

// FineBreakdown derives the full fine arithmetic for display. Uses the
// return date when set, otherwise now; no mutation.
func (s *Service) FineBreakdown(ctx context.Context, id uuid.UUID, now time.Time) (fine.Breakdown, error) {
	l, err := s.repo.GetLoan(ctx, id)
	if err != nil {
		return fine.Breakdown{}, err
	}

	end := now
	if l.ReturnedAt != nil {
		end = *l.ReturnedAt
	}

	return fine.Explain(l.DueAt, end, s.policy(ctx), l.FineAmount, l.FinePaid), nil
}
