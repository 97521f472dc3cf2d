package http

import (
	"net/http"

	"gastos/internal/log"
	"gastos/internal/services"
)

type dashboardAccountResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	GroupName    string `json:"group_name,omitempty"`
	BalanceCents int64  `json:"balance_cents"`
}

type categoryTotalResponse struct {
	Category    string `json:"category"`
	AmountCents int64  `json:"amount_cents"`
}

type dashboardResponse struct {
	Accounts       []dashboardAccountResponse `json:"accounts"`
	TotalCents     int64                      `json:"total_cents"`
	CategoryTotals []categoryTotalResponse    `json:"category_totals"`
	Recent         []installmentResponse      `json:"recent"`
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if cached, ok := s.dashboardCache.Get(dashboardCacheKey); ok {
		writeJSON(w, http.StatusOK, s.toDashboardResponse(r, cached))
		return
	}

	snapshot, err := s.dashboard.Snapshot(r.Context())
	if err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Dashboard snapshot failed", log.FieldError, err)
		writeDomainError(w, err)
		return
	}
	s.dashboardCache.Set(dashboardCacheKey, snapshot)

	writeJSON(w, http.StatusOK, s.toDashboardResponse(r, snapshot))
}

func (s *Server) toDashboardResponse(r *http.Request, d services.Dashboard) dashboardResponse {
	accounts := make([]dashboardAccountResponse, 0, len(d.Accounts))
	accountNames := make(map[string]string, len(d.Accounts))
	for _, a := range d.Accounts {
		accountNames[a.ID] = a.Name
		accounts = append(accounts, dashboardAccountResponse{
			ID:           a.ID,
			Name:         a.Name,
			GroupName:    a.GroupName,
			BalanceCents: d.Balances[a.ID].Cents,
		})
	}

	totals := make([]categoryTotalResponse, 0, len(d.CategoryTotals))
	for _, row := range d.CategoryTotals {
		totals = append(totals, categoryTotalResponse{
			Category:    row.Category,
			AmountCents: row.Amount.Cents,
		})
	}

	categories, err := s.store.ListCategories(r.Context())
	if err != nil {
		categories = nil
	}
	recent := make([]installmentResponse, 0, len(d.Recent))
	for _, inst := range d.Recent {
		recent = append(recent, toInstallmentResponse(inst, accountNames, categories))
	}

	return dashboardResponse{
		Accounts:       accounts,
		TotalCents:     d.Total.Cents,
		CategoryTotals: totals,
		Recent:         recent,
	}
}
