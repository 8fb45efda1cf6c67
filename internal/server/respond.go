package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/cleared-dev/tally/internal/diag"
	"github.com/cleared-dev/tally/internal/engine"
)

// ProblemDetail represents RFC 7807 problem details.
type ProblemDetail struct {
	Type   string `json:"type,omitempty"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// writeJSON sends a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// problem sends an RFC 7807 problem details response.
func problem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ProblemDetail{
		Title:  title,
		Status: status,
		Detail: detail,
	})
}

// respondError maps pipeline errors to problem responses.
func respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, engine.ErrBadRequest):
		problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
	case errors.Is(err, diag.ErrInvalidAccountRecord):
		problem(w, http.StatusUnprocessableEntity, "Invalid Chart of Accounts", err.Error())
	case errors.Is(err, diag.ErrImbalancedBatch):
		problem(w, http.StatusInternalServerError, "Imbalanced Ledger", err.Error())
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		problem(w, http.StatusServiceUnavailable, "Request Timeout", "")
	default:
		problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
