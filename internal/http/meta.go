package http

import (
	"net/http"

	"gastos/internal/core"
)

type transactionTypeResponse struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Kind string `json:"kind"`
}

type subCategoryResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type categoryResponse struct {
	ID            string                `json:"id"`
	Name          string                `json:"name"`
	SubCategories []subCategoryResponse `json:"sub_categories"`
}

func (s *Server) handleListTransactionTypes(w http.ResponseWriter, _ *http.Request) {
	types := core.TransactionTypes()
	out := make([]transactionTypeResponse, 0, len(types))
	for _, t := range types {
		out = append(out, transactionTypeResponse{ID: t.ID, Name: t.Name, Kind: string(t.Kind)})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.store.ListCategories(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	out := make([]categoryResponse, 0, len(categories))
	for _, c := range categories {
		subs := make([]subCategoryResponse, 0, len(c.SubCategories))
		for _, sc := range c.SubCategories {
			subs = append(subs, subCategoryResponse{ID: sc.ID, Name: sc.Name})
		}
		out = append(out, categoryResponse{ID: c.ID, Name: c.Name, SubCategories: subs})
	}
	writeJSON(w, http.StatusOK, out)
}
