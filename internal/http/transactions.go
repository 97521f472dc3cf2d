package http

import (
	"net/http"

	"gastos/internal/core"
	"gastos/internal/log"
)

type transactionRequest struct {
	Description  string `json:"description"`
	TypeID       int    `json:"type_id"`
	AccountID    string `json:"account_id"`
	AccountOutID string `json:"account_out_id,omitempty"`
	ValueCents   int64  `json:"value_cents"`
	StartDate    string `json:"start_date"`
	Installments int    `json:"installments"`
}

type transactionResponse struct {
	ID           string `json:"id"`
	Description  string `json:"description"`
	TypeID       int    `json:"type_id"`
	TypeName     string `json:"type_name"`
	AccountID    string `json:"account_id"`
	AccountOutID string `json:"account_out_id,omitempty"`
	ValueCents   int64  `json:"value_cents"`
	StartDate    string `json:"start_date"`
	Installments int    `json:"installments"`
}

type installmentResponse struct {
	ID                string   `json:"id"`
	TransactionID     string   `json:"transaction_id"`
	Description       string   `json:"description"`
	Date              string   `json:"date"`
	ValueCents        int64    `json:"value_cents"`
	TypeName          string   `json:"type_name"`
	AccountName       string   `json:"account_name"`
	AccountOutName    string   `json:"account_out_name,omitempty"`
	InstallmentNumber int      `json:"installment_number"`
	SyncStatus        string   `json:"sync_status"`
	Categories        []string `json:"categories"`
}

type subTransactionRequest struct {
	ValueCents    int64  `json:"value_cents"`
	CategoryID    string `json:"category_id,omitempty"`
	SubCategoryID string `json:"sub_category_id,omitempty"`
}

func typeIDForKind(kind core.TransactionKind) int {
	for _, t := range core.TransactionTypes() {
		if t.Kind == kind {
			return t.ID
		}
	}
	return 0
}

func toTransactionResponse(tx core.Transaction) transactionResponse {
	return transactionResponse{
		ID:           tx.ID,
		Description:  tx.Description,
		TypeID:       typeIDForKind(tx.Kind),
		TypeName:     tx.Kind.DisplayName(),
		AccountID:    tx.AccountID,
		AccountOutID: tx.AccountOutID,
		ValueCents:   tx.Value.Cents,
		StartDate:    tx.StartDate.String(),
		Installments: tx.Installments,
	}
}

// parseTransactionRequest turns the wire form into a domain input.
// Validation proper happens in the service; only shape errors are
// reported here.
func parseTransactionRequest(req transactionRequest) (core.NewTransaction, error) {
	kind, ok := core.KindFromID(req.TypeID)
	if !ok {
		return core.NewTransaction{}, core.ErrInvalidKind
	}
	startDate, err := core.ParseDate(req.StartDate)
	if err != nil {
		return core.NewTransaction{}, core.ErrInvalidDate
	}
	return core.NewTransaction{
		Description:  sanitizeInput(req.Description),
		Kind:         kind,
		AccountID:    req.AccountID,
		AccountOutID: req.AccountOutID,
		Value:        core.Money{Cents: req.ValueCents},
		StartDate:    startDate,
		Installments: req.Installments,
	}, nil
}

// handleListTransactions returns the expanded installment rows, with
// account and category names resolved for display.
func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	installments, err := s.store.ListInstallments(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	accounts, err := s.store.ListAccounts(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	categories, err := s.store.ListCategories(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	accountNames := make(map[string]string, len(accounts))
	for _, a := range accounts {
		accountNames[a.ID] = a.Name
	}

	out := make([]installmentResponse, 0, len(installments))
	for _, inst := range installments {
		out = append(out, toInstallmentResponse(inst, accountNames, categories))
	}
	writeJSON(w, http.StatusOK, out)
}

func toInstallmentResponse(inst core.Installment, accountNames map[string]string, categories []core.Category) installmentResponse {
	return installmentResponse{
		ID:                inst.ID,
		TransactionID:     inst.TransactionID,
		Description:       inst.Description,
		Date:              inst.Date.String(),
		ValueCents:        inst.Value.Cents,
		TypeName:          inst.Kind.DisplayName(),
		AccountName:       accountNames[inst.AccountID],
		AccountOutName:    accountNames[inst.AccountOutID],
		InstallmentNumber: inst.Number,
		SyncStatus:        inst.SyncStatus,
		Categories:        core.ResolveCategoryNames(inst, categories),
	}
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	input, err := parseTransactionRequest(req)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	tx, err := s.transactions.Create(r.Context(), input)
	if err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Create transaction failed", log.FieldError, err)
		writeDomainError(w, err)
		return
	}

	s.invalidateDashboard()
	writeJSON(w, http.StatusCreated, toTransactionResponse(tx))
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	input, err := parseTransactionRequest(req)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	tx, err := s.transactions.Update(r.Context(), r.PathValue("id"), input)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	s.invalidateDashboard()
	writeJSON(w, http.StatusOK, toTransactionResponse(tx))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := s.transactions.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeDomainError(w, err)
		return
	}
	s.invalidateDashboard()
	w.WriteHeader(http.StatusNoContent)
}

// handleCategorize attaches sub-transactions to one installment.
func (s *Server) handleCategorize(w http.ResponseWriter, r *http.Request) {
	var reqs []subTransactionRequest
	if err := decodeJSON(r, &reqs); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	subs := make([]core.SubTransaction, 0, len(reqs))
	for _, sub := range reqs {
		subs = append(subs, core.SubTransaction{
			Value:         core.Money{Cents: sub.ValueCents},
			CategoryID:    sub.CategoryID,
			SubCategoryID: sub.SubCategoryID,
		})
	}

	if err := s.transactions.Categorize(r.Context(), r.PathValue("id"), subs); err != nil {
		writeDomainError(w, err)
		return
	}

	s.invalidateDashboard()
	w.WriteHeader(http.StatusNoContent)
}
