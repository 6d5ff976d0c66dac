// Package api provides HTTP handlers for the charette REST API.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/charetteworks/charette/internal/session"
	"github.com/charetteworks/charette/internal/store"
)

// Handler provides common handler utilities.
type Handler struct {
	svc *session.Service
}

// NewHandler creates a new Handler with common dependencies.
func NewHandler(svc *session.Service) *Handler {
	return &Handler{svc: svc}
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// writeDomainError maps service errors to the API's minimal error surface:
// not-found conditions are 404, rejected inputs are 400, anything else 500.
// Every not-found condition shares one body so clients need a single check.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound), errors.Is(err, store.ErrRoomNotFound):
		Error(w, http.StatusNotFound, "Charette not found")
	case errors.Is(err, session.ErrValidation):
		Error(w, http.StatusBadRequest, err.Error())
	default:
		Error(w, http.StatusInternalServerError, "internal error")
	}
}

// decode reads a JSON request body into v. A 400 is written on failure and
// false is returned.
func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		Error(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}
