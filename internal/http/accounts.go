package http

import (
	"net/http"

	"github.com/google/uuid"

	"gastos/internal/core"
	"gastos/internal/log"
)

type accountRequest struct {
	Name              string `json:"name"`
	InitialValueCents int64  `json:"initial_value_cents"`
	GroupID           string `json:"group_id,omitempty"`
	GroupName         string `json:"group_name,omitempty"`
}

type accountResponse struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	InitialValueCents int64  `json:"initial_value_cents"`
	GroupID           string `json:"group_id,omitempty"`
	GroupName         string `json:"group_name,omitempty"`
}

func toAccountResponse(a core.Account) accountResponse {
	return accountResponse{
		ID:                a.ID,
		Name:              a.Name,
		InitialValueCents: a.InitialValue.Cents,
		GroupID:           a.GroupID,
		GroupName:         a.GroupName,
	}
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.store.ListAccounts(r.Context())
	if err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "List accounts failed", log.FieldError, err)
		writeDomainError(w, err)
		return
	}

	out := make([]accountResponse, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, toAccountResponse(a))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	a, err := s.store.GetAccount(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountResponse(a))
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var req accountRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	account := core.Account{
		ID:           uuid.NewString(),
		Name:         sanitizeInput(req.Name),
		InitialValue: core.Money{Cents: req.InitialValueCents},
		GroupID:      req.GroupID,
		GroupName:    sanitizeInput(req.GroupName),
	}
	if err := account.Validate(); err != nil {
		writeDomainError(w, err)
		return
	}

	if err := s.store.CreateAccount(r.Context(), account); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Create account failed", log.FieldError, err)
		writeDomainError(w, err)
		return
	}

	s.invalidateDashboard()
	writeJSON(w, http.StatusCreated, toAccountResponse(account))
}

func (s *Server) handleUpdateAccount(w http.ResponseWriter, r *http.Request) {
	var req accountRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	account := core.Account{
		ID:           r.PathValue("id"),
		Name:         sanitizeInput(req.Name),
		InitialValue: core.Money{Cents: req.InitialValueCents},
		GroupID:      req.GroupID,
		GroupName:    sanitizeInput(req.GroupName),
	}
	if err := account.Validate(); err != nil {
		writeDomainError(w, err)
		return
	}

	if err := s.store.UpdateAccount(r.Context(), account); err != nil {
		writeDomainError(w, err)
		return
	}

	s.invalidateDashboard()
	writeJSON(w, http.StatusOK, toAccountResponse(account))
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteAccount(r.Context(), r.PathValue("id")); err != nil {
		writeDomainError(w, err)
		return
	}
	s.invalidateDashboard()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListAccountGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := s.store.ListAccountGroups(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	type groupResponse struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	out := make([]groupResponse, 0, len(groups))
	for _, g := range groups {
		out = append(out, groupResponse{ID: g.ID, Name: g.Name})
	}
	writeJSON(w, http.StatusOK, out)
}
