package http

import (
	"encoding/json"
	"net/http"

	"github.com/Omillo-Charles/New-Testament-Backend/internal/service"
	"github.com/Omillo-Charles/New-Testament-Backend/pkg/middleware"
	"github.com/Omillo-Charles/New-Testament-Backend/pkg/validator"
)

// UserHandler handles HTTP requests for the user profile endpoints.
type UserHandler struct {
	service *service.AuthService
	devMode bool
}

// NewUserHandler creates a new user profile HTTP handler.
func NewUserHandler(svc *service.AuthService, devMode bool) *UserHandler {
	return &UserHandler{service: svc, devMode: devMode}
}

// UpdateProfileRequest is the JSON request body for updating a profile.
type UpdateProfileRequest struct {
	FirstName   *string `json:"firstName" validate:"omitempty,min=1,max=100"`
	LastName    *string `json:"lastName" validate:"omitempty,min=1,max=100"`
	Phone       *string `json:"phone" validate:"omitempty,max=20"`
	Affiliation *string `json:"affiliation" validate:"omitempty,max=200"`
	Newsletter  *bool   `json:"newsletter"`
}

// GetProfile handles GET /api/auth/profile
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "user not authenticated")
		return
	}

	user, err := h.service.GetProfile(r.Context(), userID)
	if err != nil {
		writeAppError(w, r, err, h.devMode)
		return
	}

	writeSuccess(w, http.StatusOK, "profile retrieved", map[string]any{"user": user})
}

// UpdateProfile handles PUT /api/auth/profile
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "user not authenticated")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w, err)
		return
	}

	if err := validator.Validate(req); err != nil {
		writeValidationError(w, err)
		return
	}

	user, err := h.service.UpdateProfile(r.Context(), userID, service.UpdateProfileInput{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Phone:       req.Phone,
		Affiliation: req.Affiliation,
		Newsletter:  req.Newsletter,
	})
	if err != nil {
		writeAppError(w, r, err, h.devMode)
		return
	}

	writeSuccess(w, http.StatusOK, "profile updated", map[string]any{"user": user})
}
