package services

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"gastos/internal/core"
	"gastos/internal/store"
	"gastos/internal/store/memory"
	"gastos/internal/store/sqlite"
)

type failingStore struct {
	store.Store
	failInstallments bool
}

func (f *failingStore) CreateInstallments(ctx context.Context, installments []core.Installment) error {
	if f.failInstallments {
		return errors.New("disk full")
	}
	return f.Store.CreateInstallments(ctx, installments)
}

// flakyStore fails the next n CreateInstallments calls, then recovers.
type flakyStore struct {
	store.Store
	failures int
}

func (f *flakyStore) CreateInstallments(ctx context.Context, installments []core.Installment) error {
	if f.failures > 0 {
		f.failures--
		return errors.New("disk full")
	}
	return f.Store.CreateInstallments(ctx, installments)
}

type fakePublisher struct {
	syncs   []string
	deletes []string
	err     error
}

func (p *fakePublisher) PublishLedgerSync(_ context.Context, id string) error {
	if p.err != nil {
		return p.err
	}
	p.syncs = append(p.syncs, id)
	return nil
}

func (p *fakePublisher) PublishLedgerDelete(_ context.Context, id string) error {
	if p.err != nil {
		return p.err
	}
	p.deletes = append(p.deletes, id)
	return nil
}

func newTransactionInput() core.NewTransaction {
	return core.NewTransaction{
		Description:  "Notebook",
		Kind:         core.Expense,
		AccountID:    "acc-1",
		Value:        core.Money{Cents: 300000},
		StartDate:    core.NewDate(2024, 1, 31),
		Installments: 3,
	}
}

func TestTransactionService_Create(t *testing.T) {
	st := memory.New()
	pub := &fakePublisher{}
	svc := NewTransactionService(st, pub, testLogger())
	ctx := context.Background()

	tx, err := svc.Create(ctx, newTransactionInput())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if tx.ID == "" {
		t.Error("Create() returned empty transaction id")
	}

	installments, _ := st.ListInstallmentsByTransaction(ctx, tx.ID)
	if len(installments) != 3 {
		t.Fatalf("created %d installments, want 3", len(installments))
	}
	if installments[1].Date.String() != "2024-02-29" {
		t.Errorf("second installment date = %s, want 2024-02-29", installments[1].Date)
	}
	if installments[0].Description != "Notebook - Parcela 1/3" {
		t.Errorf("first installment description = %q", installments[0].Description)
	}
	for _, inst := range installments {
		if inst.SyncStatus != core.SyncPending {
			t.Errorf("installment %s sync status = %q, want pending", inst.ID, inst.SyncStatus)
		}
	}

	if len(pub.syncs) != 1 || pub.syncs[0] != tx.ID {
		t.Errorf("published syncs = %v, want [%s]", pub.syncs, tx.ID)
	}
}

func TestTransactionService_Create_ValidationFails(t *testing.T) {
	svc := NewTransactionService(memory.New(), nil, testLogger())

	input := newTransactionInput()
	input.Description = ""
	if _, err := svc.Create(context.Background(), input); !errors.Is(err, core.ErrEmptyDescription) {
		t.Errorf("Create() error = %v, want ErrEmptyDescription", err)
	}
}

func TestTransactionService_Create_CompensatesOnInstallmentFailure(t *testing.T) {
	mem := memory.New()
	st := &failingStore{Store: mem, failInstallments: true}
	svc := NewTransactionService(st, nil, testLogger())
	ctx := context.Background()

	_, err := svc.Create(ctx, newTransactionInput())
	if err == nil {
		t.Fatal("Create() expected error when installment insert fails")
	}

	// The compensating delete must have removed the transaction row
	transactions, _ := mem.ListTransactions(ctx)
	if len(transactions) != 0 {
		t.Errorf("found %d orphaned transactions after failed create, want 0", len(transactions))
	}
}

func TestTransactionService_Create_PublishFailureIsNonFatal(t *testing.T) {
	svc := NewTransactionService(memory.New(), &fakePublisher{err: errors.New("broker down")}, testLogger())

	if _, err := svc.Create(context.Background(), newTransactionInput()); err != nil {
		t.Errorf("Create() error = %v, want nil despite publish failure", err)
	}
}

func TestTransactionService_Update(t *testing.T) {
	st := memory.New()
	svc := NewTransactionService(st, nil, testLogger())
	ctx := context.Background()

	tx, err := svc.Create(ctx, newTransactionInput())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	updated := newTransactionInput()
	updated.Description = "Notebook usado"
	updated.Installments = 2
	got, err := svc.Update(ctx, tx.ID, updated)
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if got.ID != tx.ID {
		t.Errorf("Update() id = %s, want %s (id is stable)", got.ID, tx.ID)
	}

	installments, _ := st.ListInstallmentsByTransaction(ctx, tx.ID)
	if len(installments) != 2 {
		t.Fatalf("after update %d installments, want 2", len(installments))
	}
	if installments[0].Description != "Notebook usado - Parcela 1/2" {
		t.Errorf("installment description = %q", installments[0].Description)
	}
}

func TestTransactionService_Update_RestoresFragmentsOnFailure(t *testing.T) {
	repo, err := sqlite.New(filepath.Join(t.TempDir(), "gastos.db"))
	if err != nil {
		t.Fatalf("sqlite.New() error = %v", err)
	}
	defer repo.Close()

	st := &flakyStore{Store: repo}
	svc := NewTransactionService(st, nil, testLogger())
	ctx := context.Background()

	if err := repo.CreateAccount(ctx, core.Account{ID: "acc-1", Name: "Corrente"}); err != nil {
		t.Fatalf("CreateAccount() error = %v", err)
	}

	input := newTransactionInput()
	input.Installments = 1
	tx, err := svc.Create(ctx, input)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	installments, _ := st.ListInstallmentsByTransaction(ctx, tx.ID)
	if err := svc.Categorize(ctx, installments[0].ID, []core.SubTransaction{
		{Value: core.Money{Cents: 200000}, CategoryID: "cat-casa"},
		{Value: core.Money{Cents: 50000}, SubCategoryID: "sub-mercado"},
	}); err != nil {
		t.Fatalf("Categorize() error = %v", err)
	}

	// Fail the "insert new installments" step; the compensation pass
	// that restores the old rows must still go through.
	st.failures = 1
	updated := newTransactionInput()
	updated.Description = "Notebook usado"
	if _, err := svc.Update(ctx, tx.ID, updated); err == nil {
		t.Fatal("Update() expected error when installment insert fails")
	}

	after, err := st.ListInstallmentsByTransaction(ctx, tx.ID)
	if err != nil {
		t.Fatalf("ListInstallmentsByTransaction() error = %v", err)
	}
	if len(after) != 1 {
		t.Fatalf("restored %d installments, want 1", len(after))
	}
	if len(after[0].SubTransactions) != 2 {
		t.Fatalf("restored installment has %d fragments, want 2", len(after[0].SubTransactions))
	}
	if after[0].Value.Cents != 250000 {
		t.Errorf("restored installment value = %d, want 250000 (fragment sum)", after[0].Value.Cents)
	}
}

func TestTransactionService_Update_NotFound(t *testing.T) {
	svc := NewTransactionService(memory.New(), nil, testLogger())

	_, err := svc.Update(context.Background(), "missing", newTransactionInput())
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Update() error = %v, want ErrNotFound", err)
	}
}

func TestTransactionService_Delete(t *testing.T) {
	st := memory.New()
	pub := &fakePublisher{}
	svc := NewTransactionService(st, pub, testLogger())
	ctx := context.Background()

	tx, err := svc.Create(ctx, newTransactionInput())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := svc.Delete(ctx, tx.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	if _, err := st.GetTransaction(ctx, tx.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("GetTransaction() after delete error = %v, want ErrNotFound", err)
	}
	installments, _ := st.ListInstallments(ctx)
	if len(installments) != 0 {
		t.Errorf("found %d installments after delete, want 0", len(installments))
	}
	if len(pub.deletes) != 1 || pub.deletes[0] != tx.ID {
		t.Errorf("published deletes = %v, want [%s]", pub.deletes, tx.ID)
	}
}

func TestTransactionService_Categorize(t *testing.T) {
	st := memory.New()
	svc := NewTransactionService(st, nil, testLogger())
	ctx := context.Background()

	input := newTransactionInput()
	input.Installments = 1
	tx, err := svc.Create(ctx, input)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	installments, _ := st.ListInstallmentsByTransaction(ctx, tx.ID)

	subs := []core.SubTransaction{
		{Value: core.Money{Cents: 200000}, CategoryID: "cat-casa"},
		{Value: core.Money{Cents: 50000}, SubCategoryID: "sub-mercado"},
	}
	if err := svc.Categorize(ctx, installments[0].ID, subs); err != nil {
		t.Fatalf("Categorize() error = %v", err)
	}

	after, _ := st.ListInstallmentsByTransaction(ctx, tx.ID)
	if after[0].Value.Cents != 250000 {
		t.Errorf("installment value = %d, want 250000 (fragment sum)", after[0].Value.Cents)
	}
	if len(after[0].SubTransactions) != 2 {
		t.Errorf("fragments = %d, want 2", len(after[0].SubTransactions))
	}

	if err := svc.Categorize(ctx, installments[0].ID, []core.SubTransaction{
		{Value: core.Money{Cents: 100}, CategoryID: "a", SubCategoryID: "b"},
	}); err == nil {
		t.Error("Categorize() with both references should fail")
	}
	if err := svc.Categorize(ctx, installments[0].ID, []core.SubTransaction{
		{Value: core.Money{}},
	}); !errors.Is(err, core.ErrInvalidAmount) {
		t.Errorf("Categorize() with zero value error = %v, want ErrInvalidAmount", err)
	}
}
