package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/newit5s/tablebook/internal/domain"
	"github.com/newit5s/tablebook/pkg/logger"
)

// ErrorResponse represents a structured JSON error response
type ErrorResponse struct {
	Error       string   `json:"error"`
	Code        string   `json:"code,omitempty"`
	Details     string   `json:"details,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// WriteError writes a structured JSON error response
func WriteError(w http.ResponseWriter, statusCode int, message string, code string) {
	writeJSON(w, statusCode, ErrorResponse{Error: message, Code: code})
}

func WriteJSON(w http.ResponseWriter, statusCode int, payload any) {
	writeJSON(w, statusCode, payload)
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}

// Common error codes
const (
	CodeInvalidInput     = "INVALID_INPUT"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeForbidden        = "FORBIDDEN"
	CodeNotFound         = "NOT_FOUND"
	CodeConflict         = "CONFLICT"
	CodeInternalError    = "INTERNAL_ERROR"
	CodeNoAvailability   = "NO_AVAILABILITY"
	CodeAlreadyConfirmed = "ALREADY_CONFIRMED"
	CodeExpiredToken     = "EXPIRED_TOKEN"
	CodeInvalidToken     = "INVALID_TOKEN"
)

// Convenience functions for common errors
func BadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, message, CodeInvalidInput)
}

func Unauthorized(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnauthorized, message, CodeUnauthorized)
}

func NotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, message, CodeNotFound)
}

func InternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, message, CodeInternalError)
}

func Conflict(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusConflict, message, CodeConflict)
}

// FromDomain maps service-layer errors onto HTTP status codes and error
// codes. Unknown errors become opaque 500s.
func FromDomain(w http.ResponseWriter, err error) {
	var (
		vErr  *domain.ValidationError
		aErr  *domain.AvailabilityError
		nfErr *domain.NotFoundError
		tErr  *domain.TokenError
	)
	switch {
	case errors.Is(err, domain.ErrAlreadyConfirmed):
		WriteError(w, http.StatusConflict, err.Error(), CodeAlreadyConfirmed)
	case errors.As(err, &vErr):
		BadRequest(w, vErr.Error())
	case errors.As(err, &aErr):
		writeJSON(w, http.StatusConflict, ErrorResponse{
			Error:       aErr.Reason,
			Code:        CodeNoAvailability,
			Suggestions: aErr.Suggestions,
		})
	case errors.As(err, &nfErr):
		NotFound(w, nfErr.Error())
	case errors.As(err, &tErr):
		code := CodeInvalidToken
		if tErr.Expired {
			code = CodeExpiredToken
		}
		WriteError(w, http.StatusUnauthorized, tErr.Error(), code)
	default:
		logger.Error("unhandled service error", "error", err)
		InternalError(w, "internal error")
	}
}
