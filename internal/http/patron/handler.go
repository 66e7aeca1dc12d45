package patron

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"libris/internal/loan"
	"libris/internal/patron"
)

// Handler serves student CRUD plus the circulation views scoped to one
// student (eligibility, active loans, remaining capacity).
type Handler struct {
	svc   *patron.Service
	loans *loan.Service
}

func NewHandler(svc *patron.Service, loans *loan.Service) *Handler {
	return &Handler{svc: svc, loans: loans}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.Patch("/{id}", h.update)
	r.Delete("/{id}", h.delete)
	r.Get("/{id}/eligibility", h.eligibility)
	r.Get("/{id}/loans", h.currentLoans)
	r.Get("/{id}/capacity", h.capacity)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

type studentResponse struct {
	ID          uuid.UUID     `json:"id"`
	StudentCode string        `json:"student_code"`
	FirstName   string        `json:"first_name"`
	LastName    string        `json:"last_name"`
	GradeLevel  string        `json:"grade_level"`
	Section     string        `json:"section"`
	Status      patron.Status `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   *time.Time    `json:"updated_at,omitempty"`
}

func toResponse(st *patron.Student) studentResponse {
	return studentResponse{
		ID:          st.ID,
		StudentCode: st.StudentCode,
		FirstName:   st.FirstName,
		LastName:    st.LastName,
		GradeLevel:  st.GradeLevel,
		Section:     st.Section,
		Status:      st.Status,
		CreatedAt:   st.CreatedAt,
		UpdatedAt:   st.UpdatedAt,
	}
}

type createStudentRequest struct {
	StudentCode string `json:"student_code"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	GradeLevel  string `json:"grade_level"`
	Section     string `json:"section"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createStudentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	st, err := h.svc.Create(r.Context(), patron.CreateParams{
		StudentCode: req.StudentCode,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		GradeLevel:  req.GradeLevel,
		Section:     req.Section,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusCreated, toResponse(st))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filter := patron.ListFilter{
		Search:     r.URL.Query().Get("search"),
		GradeLevel: r.URL.Query().Get("grade_level"),
	}

	if s := r.URL.Query().Get("status"); s != "" {
		status := patron.Status(s)
		filter.Status = &status
	}

	students, err := h.svc.List(r.Context(), filter)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	resp := make([]studentResponse, len(students))
	for i, st := range students {
		resp[i] = toResponse(st)
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	st, err := h.svc.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, patron.ErrNotFound) {
			http.Error(w, "student not found", http.StatusNotFound)
			return
		}

		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	writeJSON(w, http.StatusOK, toResponse(st))
}

type updateStudentRequest struct {
	StudentCode *string        `json:"student_code,omitempty"`
	FirstName   *string        `json:"first_name,omitempty"`
	LastName    *string        `json:"last_name,omitempty"`
	GradeLevel  *string        `json:"grade_level,omitempty"`
	Section     *string        `json:"section,omitempty"`
	Status      *patron.Status `json:"status,omitempty"`
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	var req updateStudentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	st, err := h.svc.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, patron.ErrNotFound) {
			http.Error(w, "student not found", http.StatusNotFound)
			return
		}

		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	if req.StudentCode != nil {
		st.StudentCode = *req.StudentCode
	}

	if req.FirstName != nil {
		st.FirstName = *req.FirstName
	}

	if req.LastName != nil {
		st.LastName = *req.LastName
	}

	if req.GradeLevel != nil {
		st.GradeLevel = *req.GradeLevel
	}

	if req.Section != nil {
		st.Section = *req.Section
	}

	if req.Status != nil {
		st.Status = *req.Status
	}

	if err := h.svc.Update(r.Context(), st); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, toResponse(st))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type eligibilityResponse struct {
	Eligible bool   `json:"eligible"`
	Reason   string `json:"reason,omitempty"`
}

func (h *Handler) eligibility(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	elig, err := h.loans.CanBorrow(r.Context(), id)
	if err != nil {
		if errors.Is(err, patron.ErrNotFound) {
			http.Error(w, "student not found", http.StatusNotFound)
			return
		}

		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	writeJSON(w, http.StatusOK, eligibilityResponse{Eligible: elig.Eligible, Reason: elig.Reason})
}

func (h *Handler) currentLoans(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	loans, err := h.loans.CurrentLoans(r.Context(), id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, loans)
}

type capacityResponse struct {
	Remaining int `json:"remaining"`
}

func (h *Handler) capacity(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	remaining, err := h.loans.RemainingCapacity(r.Context(), id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, capacityResponse{Remaining: remaining})
}
