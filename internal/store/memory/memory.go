package memory

import (
	"context"
	"sort"
	"sync"

	"gastos/internal/core"
	"gastos/internal/store"
)

// Store keeps everything in process memory. Default backend for local
// runs and the test double for the services and HTTP layers.
type Store struct {
	mu            sync.Mutex
	accounts      map[string]core.Account
	groups        map[string]core.AccountGroup
	transactions  map[string]core.Transaction
	installments  map[string]core.Installment
	installmentOf map[string]string // installment id -> transaction id
	categories    []core.Category

	// insertion counters keep list order deterministic
	accountOrder     []string
	transactionOrder []string
	installmentOrder []string
}

func New() *Store {
	return &Store{
		accounts:      make(map[string]core.Account),
		groups:        make(map[string]core.AccountGroup),
		transactions:  make(map[string]core.Transaction),
		installments:  make(map[string]core.Installment),
		installmentOf: make(map[string]string),
		categories:    SeedCategories(),
	}
}

// SeedCategories returns the starter two-level taxonomy, mirroring the
// rows the sqlite migrations seed.
func SeedCategories() []core.Category {
	return []core.Category{
		{ID: "cat-comida", Name: "Comida", SubCategories: []core.SubCategory{
			{ID: "sub-mercado", Name: "Mercado", CategoryID: "cat-comida"},
			{ID: "sub-restaurante", Name: "Restaurante", CategoryID: "cat-comida"},
			{ID: "sub-lanche", Name: "Lanche", CategoryID: "cat-comida"},
		}},
		{ID: "cat-lazer", Name: "Lazer", SubCategories: []core.SubCategory{
			{ID: "sub-cinema", Name: "Cinema", CategoryID: "cat-lazer"},
			{ID: "sub-viagem", Name: "Viagem", CategoryID: "cat-lazer"},
		}},
		{ID: "cat-casa", Name: "Casa", SubCategories: []core.SubCategory{
			{ID: "sub-aluguel", Name: "Aluguel", CategoryID: "cat-casa"},
			{ID: "sub-contas", Name: "Contas", CategoryID: "cat-casa"},
		}},
		{ID: "cat-transporte", Name: "Transporte", SubCategories: []core.SubCategory{
			{ID: "sub-combustivel", Name: "Combustível", CategoryID: "cat-transporte"},
			{ID: "sub-onibus", Name: "Ônibus", CategoryID: "cat-transporte"},
		}},
	}
}

func (s *Store) CreateAccount(_ context.Context, a core.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.accounts[a.ID]; !exists {
		s.accountOrder = append(s.accountOrder, a.ID)
	}
	s.accounts[a.ID] = a
	if a.GroupID != "" {
		s.groups[a.GroupID] = core.AccountGroup{ID: a.GroupID, Name: a.GroupName}
	}
	return nil
}

func (s *Store) GetAccount(_ context.Context, id string) (core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return core.Account{}, store.ErrNotFound
	}
	return a, nil
}

func (s *Store) ListAccounts(_ context.Context) ([]core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Account, 0, len(s.accounts))
	for _, id := range s.accountOrder {
		if a, ok := s.accounts[id]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *Store) UpdateAccount(_ context.Context, a core.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[a.ID]; !ok {
		return store.ErrNotFound
	}
	s.accounts[a.ID] = a
	return nil
}

func (s *Store) DeleteAccount(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.accounts, id)
	return nil
}

func (s *Store) ListAccountGroups(_ context.Context) ([]core.AccountGroup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.AccountGroup, 0, len(s.groups))
	for _, g := range s.groups {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) CreateTransaction(_ context.Context, t core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.transactions[t.ID]; !exists {
		s.transactionOrder = append(s.transactionOrder, t.ID)
	}
	s.transactions[t.ID] = t
	return nil
}

func (s *Store) GetTransaction(_ context.Context, id string) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.transactions[id]
	if !ok {
		return core.Transaction{}, store.ErrNotFound
	}
	return t, nil
}

func (s *Store) ListTransactions(_ context.Context) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Transaction, 0, len(s.transactions))
	for _, id := range s.transactionOrder {
		if t, ok := s.transactions[id]; ok {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *Store) DeleteTransaction(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.transactions[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.transactions, id)
	return nil
}

func (s *Store) CreateInstallments(_ context.Context, installments []core.Installment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, inst := range installments {
		if _, exists := s.installments[inst.ID]; !exists {
			s.installmentOrder = append(s.installmentOrder, inst.ID)
		}
		if inst.SyncStatus == "" {
			inst.SyncStatus = core.SyncPending
		}
		s.installments[inst.ID] = inst
		s.installmentOf[inst.ID] = inst.TransactionID
	}
	return nil
}

func (s *Store) ListInstallments(_ context.Context) ([]core.Installment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Installment, 0, len(s.installments))
	for _, id := range s.installmentOrder {
		if inst, ok := s.installments[id]; ok {
			out = append(out, inst)
		}
	}
	return out, nil
}

func (s *Store) ListInstallmentsByTransaction(_ context.Context, transactionID string) ([]core.Installment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Installment
	for _, id := range s.installmentOrder {
		if inst, ok := s.installments[id]; ok && inst.TransactionID == transactionID {
			out = append(out, inst)
		}
	}
	return out, nil
}

func (s *Store) DeleteInstallmentsByTransaction(_ context.Context, transactionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, inst := range s.installments {
		if inst.TransactionID == transactionID {
			delete(s.installments, id)
			delete(s.installmentOf, id)
		}
	}
	return nil
}

func (s *Store) CreateSubTransactions(_ context.Context, installmentID string, subs []core.SubTransaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	inst, ok := s.installments[installmentID]
	if !ok {
		return store.ErrNotFound
	}
	inst.SubTransactions = append(inst.SubTransactions, subs...)
	inst.Value = core.SumSubTransactions(inst.SubTransactions)
	s.installments[installmentID] = inst
	return nil
}

func (s *Store) DeleteSubTransactionsByTransaction(_ context.Context, transactionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, inst := range s.installments {
		if inst.TransactionID == transactionID {
			inst.SubTransactions = nil
			s.installments[id] = inst
		}
	}
	return nil
}

func (s *Store) ListPendingInstallments(_ context.Context, limit int) ([]core.Installment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Installment
	for _, id := range s.installmentOrder {
		inst, ok := s.installments[id]
		if !ok || inst.SyncStatus != core.SyncPending {
			continue
		}
		out = append(out, inst)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *Store) MarkSynced(_ context.Context, installmentID string) error {
	return s.setSyncStatus(installmentID, core.SyncSynced)
}

func (s *Store) MarkSyncError(_ context.Context, installmentID string) error {
	return s.setSyncStatus(installmentID, core.SyncError)
}

func (s *Store) setSyncStatus(installmentID, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	inst, ok := s.installments[installmentID]
	if !ok {
		return store.ErrNotFound
	}
	inst.SyncStatus = status
	s.installments[installmentID] = inst
	return nil
}

func (s *Store) ListCategories(_ context.Context) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Category, len(s.categories))
	copy(out, s.categories)
	return out, nil
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }
