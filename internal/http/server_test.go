package http

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"gastos/internal/log"
	"gastos/internal/services"
	"gastos/internal/store/memory"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	st := memory.New()
	logger := log.New(log.Config{Level: slog.LevelError, Component: "test"})
	tx := services.NewTransactionService(st, nil, logger)
	dash := services.NewDashboardService(st, logger)
	srv := NewServer(":0", st, tx, dash, logger)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv
}

func doJSON(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func decodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response %q: %v", rr.Body.String(), err)
	}
	return v
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t)
	for _, path := range []string{"/healthz", "/readyz"} {
		rr := doJSON(t, srv, http.MethodGet, path, nil)
		if rr.Code != http.StatusOK {
			t.Errorf("%s status = %d, want 200", path, rr.Code)
		}
	}
}

func TestAccountLifecycle(t *testing.T) {
	srv := newTestServer(t)

	rr := doJSON(t, srv, http.MethodPost, "/api/accounts", accountRequest{
		Name: "Nubank", InitialValueCents: 150000, GroupName: "Bancos",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rr.Code, rr.Body.String())
	}
	created := decodeBody[accountResponse](t, rr)
	if created.ID == "" || created.Name != "Nubank" {
		t.Fatalf("created = %+v", created)
	}

	rr = doJSON(t, srv, http.MethodGet, "/api/accounts", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("list status = %d", rr.Code)
	}
	if got := decodeBody[[]accountResponse](t, rr); len(got) != 1 {
		t.Fatalf("list = %+v, want 1 account", got)
	}

	rr = doJSON(t, srv, http.MethodPut, "/api/accounts/"+created.ID, accountRequest{
		Name: "Nubank PJ", InitialValueCents: 150000,
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("update status = %d, body %s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, srv, http.MethodGet, "/api/accounts/"+created.ID, nil)
	if got := decodeBody[accountResponse](t, rr); got.Name != "Nubank PJ" {
		t.Errorf("after update name = %q, want Nubank PJ", got.Name)
	}

	rr = doJSON(t, srv, http.MethodDelete, "/api/accounts/"+created.ID, nil)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rr.Code)
	}
	rr = doJSON(t, srv, http.MethodGet, "/api/accounts/"+created.ID, nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want 404", rr.Code)
	}
}

func TestCreateAccountValidation(t *testing.T) {
	srv := newTestServer(t)

	rr := doJSON(t, srv, http.MethodPost, "/api/accounts", accountRequest{Name: "   "})
	if rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("blank name status = %d, want 422", rr.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/accounts", strings.NewReader("{not json"))
	rr2 := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr2, req)
	if rr2.Code != http.StatusBadRequest {
		t.Errorf("malformed body status = %d, want 400", rr2.Code)
	}
}

func TestCreateTransactionExpandsInstallments(t *testing.T) {
	srv := newTestServer(t)

	rr := doJSON(t, srv, http.MethodPost, "/api/accounts", accountRequest{Name: "Carteira"})
	account := decodeBody[accountResponse](t, rr)

	rr = doJSON(t, srv, http.MethodPost, "/api/transactions", transactionRequest{
		Description:  "Aluguel",
		TypeID:       2,
		AccountID:    account.ID,
		ValueCents:   100000,
		StartDate:    "2024-01-31",
		Installments: 2,
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rr.Code, rr.Body.String())
	}
	tx := decodeBody[transactionResponse](t, rr)
	if tx.TypeName != "Despesa" || tx.Installments != 2 {
		t.Fatalf("created = %+v", tx)
	}

	rr = doJSON(t, srv, http.MethodGet, "/api/transactions", nil)
	rows := decodeBody[[]installmentResponse](t, rr)
	if len(rows) != 2 {
		t.Fatalf("installment rows = %d, want 2", len(rows))
	}
	if rows[0].Description != "Aluguel - Parcela 1/2" || rows[0].Date != "2024-01-31" {
		t.Errorf("first row = %+v", rows[0])
	}
	// January 31st rolls into February's last day
	if rows[1].Date != "2024-02-29" {
		t.Errorf("second row date = %s, want 2024-02-29", rows[1].Date)
	}
	for _, row := range rows {
		if row.ValueCents != 100000 {
			t.Errorf("row %s value = %d, want full value on each installment", row.ID, row.ValueCents)
		}
		if row.AccountName != "Carteira" {
			t.Errorf("row %s account = %q", row.ID, row.AccountName)
		}
		if len(row.Categories) != 1 || row.Categories[0] != "Outros" {
			t.Errorf("row %s categories = %v, want [Outros]", row.ID, row.Categories)
		}
	}
}

func TestCreateTransactionValidation(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name string
		req  transactionRequest
	}{
		{"unknown type id", transactionRequest{Description: "x", TypeID: 9, AccountID: "a", ValueCents: 100, StartDate: "2024-01-01", Installments: 1}},
		{"bad date", transactionRequest{Description: "x", TypeID: 2, AccountID: "a", ValueCents: 100, StartDate: "31/01/2024", Installments: 1}},
		{"empty description", transactionRequest{Description: " ", TypeID: 2, AccountID: "a", ValueCents: 100, StartDate: "2024-01-01", Installments: 1}},
		{"zero installments", transactionRequest{Description: "x", TypeID: 2, AccountID: "a", ValueCents: 100, StartDate: "2024-01-01", Installments: 0}},
		{"transfer to itself", transactionRequest{Description: "x", TypeID: 3, AccountID: "a", AccountOutID: "a", ValueCents: 100, StartDate: "2024-01-01", Installments: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doJSON(t, srv, http.MethodPost, "/api/transactions", tt.req)
			if rr.Code != http.StatusUnprocessableEntity {
				t.Errorf("status = %d, want 422 (body %s)", rr.Code, rr.Body.String())
			}
		})
	}
}

func TestDashboard(t *testing.T) {
	srv := newTestServer(t)

	rr := doJSON(t, srv, http.MethodPost, "/api/accounts", accountRequest{Name: "Carteira", InitialValueCents: 500000})
	account := decodeBody[accountResponse](t, rr)

	rr = doJSON(t, srv, http.MethodPost, "/api/transactions", transactionRequest{
		Description: "Mercado", TypeID: 2, AccountID: account.ID,
		ValueCents: 20000, StartDate: "2024-03-10", Installments: 1,
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create transaction status = %d", rr.Code)
	}

	rr = doJSON(t, srv, http.MethodGet, "/api/dashboard", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("dashboard status = %d", rr.Code)
	}
	dash := decodeBody[dashboardResponse](t, rr)
	if len(dash.Accounts) != 1 || dash.Accounts[0].BalanceCents != 480000 {
		t.Fatalf("accounts = %+v, want balance 480000", dash.Accounts)
	}
	if dash.TotalCents != 480000 {
		t.Errorf("total = %d, want 480000", dash.TotalCents)
	}
	if len(dash.CategoryTotals) != 1 || dash.CategoryTotals[0].Category != "Outros" || dash.CategoryTotals[0].AmountCents != 20000 {
		t.Errorf("category totals = %+v", dash.CategoryTotals)
	}
	if len(dash.Recent) != 1 || dash.Recent[0].Description != "Mercado" {
		t.Errorf("recent = %+v", dash.Recent)
	}

	// A second read must reflect new writes despite the cache
	rr = doJSON(t, srv, http.MethodPost, "/api/transactions", transactionRequest{
		Description: "Salário", TypeID: 1, AccountID: account.ID,
		ValueCents: 300000, StartDate: "2024-03-15", Installments: 1,
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create income status = %d", rr.Code)
	}
	rr = doJSON(t, srv, http.MethodGet, "/api/dashboard", nil)
	dash = decodeBody[dashboardResponse](t, rr)
	if dash.TotalCents != 780000 {
		t.Errorf("total after income = %d, want 780000", dash.TotalCents)
	}
}

func TestCategorizeInstallment(t *testing.T) {
	srv := newTestServer(t)

	rr := doJSON(t, srv, http.MethodPost, "/api/accounts", accountRequest{Name: "Carteira"})
	account := decodeBody[accountResponse](t, rr)

	rr = doJSON(t, srv, http.MethodPost, "/api/transactions", transactionRequest{
		Description: "Compras", TypeID: 2, AccountID: account.ID,
		ValueCents: 30000, StartDate: "2024-04-01", Installments: 1,
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status = %d", rr.Code)
	}

	rr = doJSON(t, srv, http.MethodGet, "/api/transactions", nil)
	rows := decodeBody[[]installmentResponse](t, rr)
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}

	rr = doJSON(t, srv, http.MethodPost, "/api/installments/"+rows[0].ID+"/sub-transactions", []subTransactionRequest{
		{ValueCents: 20000, SubCategoryID: "sub-mercado"},
		{ValueCents: 10000, CategoryID: "cat-lazer"},
	})
	if rr.Code != http.StatusNoContent {
		t.Fatalf("categorize status = %d, body %s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, srv, http.MethodGet, "/api/transactions", nil)
	rows = decodeBody[[]installmentResponse](t, rr)
	want := []string{"Comida", "Lazer"}
	if len(rows[0].Categories) != 2 || rows[0].Categories[0] != want[0] || rows[0].Categories[1] != want[1] {
		t.Errorf("categories = %v, want %v", rows[0].Categories, want)
	}

	rr = doJSON(t, srv, http.MethodPost, "/api/installments/"+rows[0].ID+"/sub-transactions", []subTransactionRequest{
		{ValueCents: 100, CategoryID: "cat-lazer", SubCategoryID: "sub-cinema"},
	})
	if rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("both references status = %d, want 422", rr.Code)
	}
}

func TestUpdateAndDeleteTransaction(t *testing.T) {
	srv := newTestServer(t)

	rr := doJSON(t, srv, http.MethodPost, "/api/accounts", accountRequest{Name: "Carteira"})
	account := decodeBody[accountResponse](t, rr)

	rr = doJSON(t, srv, http.MethodPost, "/api/transactions", transactionRequest{
		Description: "Notebook", TypeID: 2, AccountID: account.ID,
		ValueCents: 400000, StartDate: "2024-05-01", Installments: 4,
	})
	tx := decodeBody[transactionResponse](t, rr)

	rr = doJSON(t, srv, http.MethodPut, "/api/transactions/"+tx.ID, transactionRequest{
		Description: "Notebook usado", TypeID: 2, AccountID: account.ID,
		ValueCents: 200000, StartDate: "2024-05-01", Installments: 2,
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("update status = %d, body %s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, srv, http.MethodGet, "/api/transactions", nil)
	rows := decodeBody[[]installmentResponse](t, rr)
	if len(rows) != 2 {
		t.Fatalf("rows after update = %d, want 2", len(rows))
	}
	if rows[0].Description != "Notebook usado - Parcela 1/2" {
		t.Errorf("row description = %q", rows[0].Description)
	}

	rr = doJSON(t, srv, http.MethodDelete, "/api/transactions/"+tx.ID, nil)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rr.Code)
	}
	rr = doJSON(t, srv, http.MethodGet, "/api/transactions", nil)
	if rows = decodeBody[[]installmentResponse](t, rr); len(rows) != 0 {
		t.Errorf("rows after delete = %d, want 0", len(rows))
	}

	rr = doJSON(t, srv, http.MethodDelete, "/api/transactions/"+tx.ID, nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("double delete status = %d, want 404", rr.Code)
	}
}

func TestMetaEndpoints(t *testing.T) {
	srv := newTestServer(t)

	rr := doJSON(t, srv, http.MethodGet, "/api/transaction-types", nil)
	types := decodeBody[[]transactionTypeResponse](t, rr)
	if len(types) != 3 || types[0].Name != "Receita" || types[2].Kind != "transfer" {
		t.Errorf("types = %+v", types)
	}

	rr = doJSON(t, srv, http.MethodGet, "/api/categories", nil)
	categories := decodeBody[[]categoryResponse](t, rr)
	if len(categories) == 0 {
		t.Fatal("categories should be seeded")
	}
	for _, c := range categories {
		if c.Name == "Comida" && len(c.SubCategories) != 3 {
			t.Errorf("Comida sub-categories = %d, want 3", len(c.SubCategories))
		}
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		forwarded  string
		realIP     string
		remoteAddr string
		want       string
	}{
		{"remote addr only", "", "", "192.0.2.1:1234", "192.0.2.1"},
		{"real ip header", "", "203.0.113.7", "192.0.2.1:1234", "203.0.113.7"},
		{"single forwarded hop", "198.51.100.4", "", "192.0.2.1:1234", "198.51.100.4"},
		{"only first forwarded hop counts", "198.51.100.4, 10.0.0.9, 10.0.0.1", "", "192.0.2.1:1234", "198.51.100.4"},
		{"blank forwarded falls through", "  ", "203.0.113.7", "192.0.2.1:1234", "203.0.113.7"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			if tt.realIP != "" {
				req.Header.Set("X-Real-IP", tt.realIP)
			}
			if got := clientIP(req); got != tt.want {
				t.Errorf("clientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSecurityHeaders(t *testing.T) {
	srv := newTestServer(t)

	rr := doJSON(t, srv, http.MethodGet, "/api/accounts", nil)
	if got := rr.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
	if got := rr.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q", got)
	}
}
