package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"gastos/internal/core"
	"gastos/internal/store"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeDomainError maps domain and storage errors onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case isValidationError(err):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func isValidationError(err error) bool {
	for _, sentinel := range []error{
		core.ErrInvalidAmount,
		core.ErrInvalidDate,
		core.ErrInvalidInstallments,
		core.ErrInvalidKind,
		core.ErrEmptyDescription,
		core.ErrMissingAccount,
		core.ErrTransferAccount,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	// Validate() returns a few ad hoc errors for length and reference rules
	msg := err.Error()
	return strings.Contains(msg, "too long") ||
		strings.Contains(msg, "only valid for transfers") ||
		strings.Contains(msg, "not both") ||
		strings.Contains(msg, "empty account name") ||
		strings.Contains(msg, "no sub-transactions")
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// sanitizeInput removes control characters and trims whitespace
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
