package loan

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"libris/internal/loan"
)

type loanResponse struct {
	ID         uuid.UUID       `json:"id"`
	StudentID  uuid.UUID       `json:"student_id"`
	BookID     uuid.UUID       `json:"book_id"`
	OperatorID uuid.UUID       `json:"operator_id"`
	BorrowedAt time.Time       `json:"borrowed_at"`
	DueAt      time.Time       `json:"due_at"`
	ReturnedAt *time.Time      `json:"returned_at,omitempty"`
	Status     loan.Status     `json:"status"`
	FineAmount decimal.Decimal `json:"fine_amount"`
	FinePaid   bool            `json:"fine_paid"`
	Notes      string          `json:"notes,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  *time.Time      `json:"updated_at,omitempty"`
}

func toResponse(l *loan.Loan) loanResponse {
	return loanResponse{
		ID:         l.ID,
		StudentID:  l.StudentID,
		BookID:     l.BookID,
		OperatorID: l.OperatorID,
		BorrowedAt: l.BorrowedAt,
		DueAt:      l.DueAt,
		ReturnedAt: l.ReturnedAt,
		Status:     l.Status,
		FineAmount: l.FineAmount,
		FinePaid:   l.FinePaid,
		Notes:      l.Notes,
		CreatedAt:  l.CreatedAt,
		UpdatedAt:  l.UpdatedAt,
	}
}

func toResponseList(loans []*loan.Loan) []loanResponse {
	resp := make([]loanResponse, len(loans))
	for i, l := range loans {
		resp[i] = toResponse(l)
	}

	return resp
}
