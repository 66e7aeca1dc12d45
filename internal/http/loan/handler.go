package loan

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"libris/internal/catalog"
	"libris/internal/loan"
)

type Handler struct {
	svc *loan.Service
}

func NewHandler(svc *loan.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.borrow)
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.Post("/{id}/return", h.returnLoan)
	r.Get("/{id}/fine", h.fineBreakdown)
	r.Post("/{id}/payments", h.recordPayment)
	r.Post("/{id}/waive", h.waiveFine)
	r.Post("/{id}/mark-paid", h.markPaid)
}

// SweepRoutes mounts the batch sweep separately from the loan collection.
func (h *Handler) SweepRoutes(r chi.Router) {
	r.Post("/", h.sweep)
}

// writeDomainError maps circulation failures to statuses: business-rule
// rejections are 422 with the reason verbatim, missing records 404.
func writeDomainError(w http.ResponseWriter, err error) {
	var ineligible *loan.IneligibleError
	if errors.As(err, &ineligible) {
		http.Error(w, ineligible.Reason, http.StatusUnprocessableEntity)
		return
	}

	switch {
	case errors.Is(err, loan.ErrNotFound):
		http.Error(w, "loan not found", http.StatusNotFound)
	case errors.Is(err, loan.ErrNoCopies), errors.Is(err, loan.ErrAlreadyReturned):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

type borrowRequest struct {
	StudentID  uuid.UUID  `json:"student_id"`
	BookID     uuid.UUID  `json:"book_id"`
	OperatorID uuid.UUID  `json:"operator_id"`
	DueAt      *time.Time `json:"due_at,omitempty"`
}

func (h *Handler) borrow(w http.ResponseWriter, r *http.Request) {
	var req borrowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	l, err := h.svc.Borrow(r.Context(), loan.BorrowParams{
		StudentID:  req.StudentID,
		BookID:     req.BookID,
		OperatorID: req.OperatorID,
		DueAt:      req.DueAt,
	}, time.Now())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toResponse(l))
}

type returnRequest struct {
	Condition *catalog.Condition `json:"condition,omitempty"`
	Notes     string             `json:"notes,omitempty"`
}

func (h *Handler) returnLoan(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	var req returnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if req.Condition != nil && !req.Condition.Valid() {
		http.Error(w, "invalid condition", http.StatusBadRequest)
		return
	}

	l, err := h.svc.Return(r.Context(), loan.ReturnParams{
		LoanID:    id,
		Condition: req.Condition,
		Notes:     req.Notes,
	}, time.Now())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toResponse(l))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	l, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toResponse(l))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filter := loan.ListFilter{}

	if s := r.URL.Query().Get("student_id"); s != "" {
		if id, err := uuid.Parse(s); err == nil {
			filter.StudentID = &id
		}
	}

	if s := r.URL.Query().Get("book_id"); s != "" {
		if id, err := uuid.Parse(s); err == nil {
			filter.BookID = &id
		}
	}

	if s := r.URL.Query().Get("status"); s != "" {
		status := loan.Status(s)
		filter.Status = &status
	}

	if s := r.URL.Query().Get("from"); s != "" {
		if t, err := time.Parse(time.DateOnly, s); err == nil {
			filter.From = &t
		}
	}

	if s := r.URL.Query().Get("to"); s != "" {
		if t, err := time.Parse(time.DateOnly, s); err == nil {
			filter.To = &t
		}
	}

	loans, err := h.svc.List(r.Context(), filter)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, toResponseList(loans))
}

func (h *Handler) fineBreakdown(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	breakdown, err := h.svc.FineBreakdown(r.Context(), id, time.Now())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, breakdown)
}

type paymentRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Method string          `json:"method"`
}

type paymentResponse struct {
	OK        bool            `json:"ok"`
	Message   string          `json:"message"`
	Remaining decimal.Decimal `json:"remaining"`
	FullyPaid bool            `json:"fully_paid"`
}

func (h *Handler) recordPayment(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	var req paymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if !req.Amount.IsPositive() {
		http.Error(w, "amount must be positive", http.StatusBadRequest)
		return
	}

	if req.Method == "" {
		req.Method = "cash"
	}

	result, err := h.svc.RecordPayment(r.Context(), id, req.Amount, req.Method, time.Now())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	status := http.StatusOK
	if !result.OK {
		status = http.StatusUnprocessableEntity
	}

	writeJSON(w, status, paymentResponse{
		OK:        result.OK,
		Message:   result.Message,
		Remaining: result.Remaining,
		FullyPaid: result.FullyPaid,
	})
}

type waiveRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) waiveFine(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	var req waiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if req.Reason == "" {
		http.Error(w, "reason is required", http.StatusBadRequest)
		return
	}

	l, err := h.svc.WaiveFine(r.Context(), id, req.Reason, time.Now())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toResponse(l))
}

func (h *Handler) markPaid(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	l, err := h.svc.MarkFinePaid(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toResponse(l))
}

type sweepResponse struct {
	DryRun     bool           `json:"dry_run"`
	Count      int            `json:"count"`
	Loans      []loanResponse `json:"loans,omitempty"`
	UpdatedIDs []uuid.UUID    `json:"updated_ids,omitempty"`
}

func (h *Handler) sweep(w http.ResponseWriter, r *http.Request) {
	dryRun := r.URL.Query().Get("dry_run") == "true"

	result, err := h.svc.Sweep(r.Context(), time.Now(), dryRun)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	resp := sweepResponse{
		DryRun:     result.DryRun,
		Count:      result.Count,
		UpdatedIDs: result.UpdatedIDs,
	}
	if result.DryRun {
		resp.Loans = toResponseList(result.Loans)
	}

	writeJSON(w, http.StatusOK, resp)
}
