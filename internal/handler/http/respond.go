package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	apperrors "github.com/Omillo-Charles/New-Testament-Backend/pkg/errors"
	"github.com/Omillo-Charles/New-Testament-Backend/pkg/logger"
	"github.com/Omillo-Charles/New-Testament-Backend/pkg/validator"
)

// response is the envelope shared by every endpoint. Error carries the raw
// internal message and is populated only in development mode; Fields carries
// per-field validation failures.
type response struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Data    any               `json:"data,omitempty"`
	Error   string            `json:"error,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are already sent; nothing meaningful can be done if encoding fails.
	_ = json.NewEncoder(w).Encode(v)
}

func writeSuccess(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, response{Success: true, Message: message, Data: data})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, response{Success: false, Message: message})
}

// writeAppError translates a service error into the response envelope. Known
// taxonomy errors surface their own message; bare sentinels (repositories
// return them without an AppError wrapper) map to their status with the
// sentinel text; anything else is logged in full and reported generically,
// with the raw message attached only in development mode. Logging uses the
// request-scoped logger so entries carry correlation and user fields.
func writeAppError(w http.ResponseWriter, r *http.Request, err error, devMode bool) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && !errors.Is(err, apperrors.ErrInternal) {
		writeError(w, appErr.Status, appErr.Message)
		return
	}

	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		writeError(w, http.StatusNotFound, apperrors.ErrNotFound.Error())
		return
	case errors.Is(err, apperrors.ErrAlreadyExists):
		writeError(w, http.StatusBadRequest, apperrors.ErrAlreadyExists.Error())
		return
	case errors.Is(err, apperrors.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, apperrors.ErrInvalidInput.Error())
		return
	case errors.Is(err, apperrors.ErrInvalidToken):
		writeError(w, http.StatusBadRequest, apperrors.ErrInvalidToken.Error())
		return
	case errors.Is(err, apperrors.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, apperrors.ErrUnauthorized.Error())
		return
	case errors.Is(err, apperrors.ErrForbidden):
		writeError(w, http.StatusForbidden, apperrors.ErrForbidden.Error())
		return
	case errors.Is(err, apperrors.ErrLocked):
		writeError(w, http.StatusLocked, apperrors.ErrLocked.Error())
		return
	}

	logger.FromContext(r.Context()).ErrorContext(r.Context(), "request failed",
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)

	resp := response{Success: false, Message: "an internal error occurred"}
	if devMode {
		resp.Error = err.Error()
	}
	writeJSON(w, http.StatusInternalServerError, resp)
}

func writeValidationError(w http.ResponseWriter, err error) {
	var valErr *validator.ValidationError
	if errors.As(err, &valErr) {
		writeJSON(w, http.StatusBadRequest, response{
			Success: false,
			Message: "request validation failed",
			Fields:  valErr.Fields(),
		})
		return
	}

	writeError(w, http.StatusBadRequest, err.Error())
}

func writeInvalidBody(w http.ResponseWriter, err error) {
	writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
}
