package http

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Omillo-Charles/New-Testament-Backend/internal/service"
	"github.com/Omillo-Charles/New-Testament-Backend/pkg/middleware"
	"github.com/Omillo-Charles/New-Testament-Backend/pkg/pagination"
	"github.com/Omillo-Charles/New-Testament-Backend/pkg/validator"
)

// ContactHandler handles the public contact form and its admin moderation
// endpoints.
type ContactHandler struct {
	service *service.ContactService
	devMode bool
}

// NewContactHandler creates a new contact HTTP handler.
func NewContactHandler(svc *service.ContactService, devMode bool) *ContactHandler {
	return &ContactHandler{service: svc, devMode: devMode}
}

// CreateContactRequest is the JSON request body for a contact submission.
type CreateContactRequest struct {
	Name    string `json:"name" validate:"required,min=1,max=200"`
	Email   string `json:"email" validate:"required,email"`
	Phone   string `json:"phone" validate:"omitempty,max=20"`
	Subject string `json:"subject" validate:"omitempty,max=50"`
	Message string `json:"message" validate:"required,min=1,max=5000"`
}

// UpdateContactStatusRequest is the JSON request body for a status change.
type UpdateContactStatusRequest struct {
	Status       string `json:"status" validate:"required"`
	ResponseNote string `json:"responseNote" validate:"omitempty,max=2000"`
}

// clientIP extracts the originating client address, honouring proxy headers.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			fwd = fwd[:i]
		}
		return strings.TrimSpace(fwd)
	}
	if real := r.Header.Get("X-Real-IP"); real != "" {
		return real
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Create handles POST /api/contact
func (h *ContactHandler) Create(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)

	var req CreateContactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w, err)
		return
	}

	if err := validator.Validate(req); err != nil {
		writeValidationError(w, err)
		return
	}

	contact, err := h.service.Create(r.Context(), service.CreateContactInput{
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		Subject:   req.Subject,
		Message:   req.Message,
		IPAddress: clientIP(r),
		UserAgent: r.UserAgent(),
	})
	if err != nil {
		writeAppError(w, r, err, h.devMode)
		return
	}

	writeSuccess(w, http.StatusCreated, "message received, we will get back to you soon", map[string]any{"contact": contact})
}

// List handles GET /api/contact
func (h *ContactHandler) List(w http.ResponseWriter, r *http.Request) {
	params := pagination.FromRequest(r)
	status := r.URL.Query().Get("status")

	result, err := h.service.List(r.Context(), status, params)
	if err != nil {
		writeAppError(w, r, err, h.devMode)
		return
	}

	writeSuccess(w, http.StatusOK, "contacts retrieved", result)
}

// Get handles GET /api/contact/{id}
func (h *ContactHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	contact, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		writeAppError(w, r, err, h.devMode)
		return
	}

	writeSuccess(w, http.StatusOK, "contact retrieved", map[string]any{"contact": contact})
}

// UpdateStatus handles PATCH /api/contact/{id}/status
func (h *ContactHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)

	var req UpdateContactStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w, err)
		return
	}

	if err := validator.Validate(req); err != nil {
		writeValidationError(w, err)
		return
	}

	contact, err := h.service.UpdateStatus(r.Context(), id, req.Status, middleware.UserIDFromContext(r.Context()), req.ResponseNote)
	if err != nil {
		writeAppError(w, r, err, h.devMode)
		return
	}

	writeSuccess(w, http.StatusOK, "contact status updated", map[string]any{"contact": contact})
}

// Delete handles DELETE /api/contact/{id}
func (h *ContactHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.Delete(r.Context(), id); err != nil {
		writeAppError(w, r, err, h.devMode)
		return
	}

	writeSuccess(w, http.StatusOK, "contact deleted", nil)
}

// Stats handles GET /api/contact/stats
func (h *ContactHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		writeAppError(w, r, err, h.devMode)
		return
	}

	writeSuccess(w, http.StatusOK, "contact stats retrieved", map[string]any{"stats": stats})
}
