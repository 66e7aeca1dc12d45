package catalog

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"libris/internal/catalog"
)

type Handler struct {
	svc *catalog.Service
}

func NewHandler(svc *catalog.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Get("/categories", h.categories)
	r.Get("/{id}", h.get)
	r.Patch("/{id}", h.update)
	r.Delete("/{id}", h.delete)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

type bookResponse struct {
	ID              uuid.UUID         `json:"id"`
	AccessionNumber string            `json:"accession_number"`
	Title           string            `json:"title"`
	Author          string            `json:"author"`
	CategoryID      *uuid.UUID        `json:"category_id,omitempty"`
	CopiesTotal     int               `json:"copies_total"`
	CopiesAvailable int               `json:"copies_available"`
	Condition       catalog.Condition `json:"condition"`
	Status          catalog.Status    `json:"status"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       *time.Time        `json:"updated_at,omitempty"`
}

func toResponse(b *catalog.Book) bookResponse {
	return bookResponse{
		ID:              b.ID,
		AccessionNumber: b.AccessionNumber,
		Title:           b.Title,
		Author:          b.Author,
		CategoryID:      b.CategoryID,
		CopiesTotal:     b.CopiesTotal,
		CopiesAvailable: b.CopiesAvailable,
		Condition:       b.Condition,
		Status:          b.Status,
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
	}
}

type createBookRequest struct {
	AccessionNumber string            `json:"accession_number"`
	Title           string            `json:"title"`
	Author          string            `json:"author"`
	CategoryID      *uuid.UUID        `json:"category_id,omitempty"`
	CopiesTotal     int               `json:"copies_total"`
	Condition       catalog.Condition `json:"condition,omitempty"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	b, err := h.svc.Create(r.Context(), catalog.CreateParams{
		AccessionNumber: req.AccessionNumber,
		Title:           req.Title,
		Author:          req.Author,
		CategoryID:      req.CategoryID,
		CopiesTotal:     req.CopiesTotal,
		Condition:       req.Condition,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusCreated, toResponse(b))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filter := catalog.ListFilter{
		Search: r.URL.Query().Get("search"),
	}

	if s := r.URL.Query().Get("category_id"); s != "" {
		if id, err := uuid.Parse(s); err == nil {
			filter.CategoryID = &id
		}
	}

	if s := r.URL.Query().Get("status"); s != "" {
		status := catalog.Status(s)
		filter.Status = &status
	}

	books, err := h.svc.List(r.Context(), filter)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	resp := make([]bookResponse, len(books))
	for i, b := range books {
		resp[i] = toResponse(b)
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	b, err := h.svc.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			http.Error(w, "book not found", http.StatusNotFound)
			return
		}

		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	writeJSON(w, http.StatusOK, toResponse(b))
}

type updateBookRequest struct {
	AccessionNumber *string            `json:"accession_number,omitempty"`
	Title           *string            `json:"title,omitempty"`
	Author          *string            `json:"author,omitempty"`
	CategoryID      *uuid.UUID         `json:"category_id,omitempty"`
	CopiesTotal     *int               `json:"copies_total,omitempty"`
	Condition       *catalog.Condition `json:"condition,omitempty"`
	Status          *catalog.Status    `json:"status,omitempty"`
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	var req updateBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	b, err := h.svc.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			http.Error(w, "book not found", http.StatusNotFound)
			return
		}

		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	if req.AccessionNumber != nil {
		b.AccessionNumber = *req.AccessionNumber
	}

	if req.Title != nil {
		b.Title = *req.Title
	}

	if req.Author != nil {
		b.Author = *req.Author
	}

	if req.CategoryID != nil {
		b.CategoryID = req.CategoryID
	}

	if req.CopiesTotal != nil {
		b.CopiesTotal = *req.CopiesTotal
	}

	if req.Condition != nil {
		b.Condition = *req.Condition
	}

	if req.Status != nil {
		b.Status = *req.Status
	}

	if err := h.svc.Update(r.Context(), b); err != nil {
		if errors.Is(err, catalog.ErrCopiesExceeded) {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}

		http.Error(w, err.Error(), http.StatusInternalServerError)

		return
	}

	writeJSON(w, http.StatusOK, toResponse(b))
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

func (h *Handler) categories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.svc.Categories(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, cats)
}
