// Package http exposes the storefront services over a JSON REST API.
package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/mkraev/storefront/internal/apperr"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// handleServiceError maps the shared error kinds to HTTP status codes.
func handleServiceError(w http.ResponseWriter, err error) {
	var httpStatus int
	var code string

	switch {
	case errors.Is(err, apperr.ErrNotFound):
		httpStatus = http.StatusNotFound
		code = "not_found"
	case errors.Is(err, apperr.ErrValidation):
		httpStatus = http.StatusBadRequest
		code = "validation_failed"
	case errors.Is(err, apperr.ErrInvalidState):
		httpStatus = http.StatusConflict
		code = "invalid_state"
	case errors.Is(err, apperr.ErrInsufficientStock):
		httpStatus = http.StatusConflict
		code = "insufficient_stock"
	case errors.Is(err, apperr.ErrMergeConflict):
		httpStatus = http.StatusConflict
		code = "merge_conflict"
	case errors.Is(err, apperr.ErrDuplicate):
		httpStatus = http.StatusConflict
		code = "duplicate"
	default:
		log.Printf("internal error: %v", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}

	respondError(w, httpStatus, code, err.Error())
}
