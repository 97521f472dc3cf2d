package core

import (
	"errors"
	"strings"
	"testing"
)

func validTransaction() NewTransaction {
	return NewTransaction{
		Description:  "Mercado",
		Kind:         Expense,
		AccountID:    "acc-1",
		Value:        Money{Cents: 1500},
		StartDate:    NewDate(2024, 3, 1),
		Installments: 1,
	}
}

func TestNewTransactionValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*NewTransaction)
		wantErr error
	}{
		{"valid", func(tx *NewTransaction) {}, nil},
		{"empty description", func(tx *NewTransaction) { tx.Description = "  " }, ErrEmptyDescription},
		{"description too long", func(tx *NewTransaction) { tx.Description = strings.Repeat("a", 201) }, nil},
		{"invalid kind", func(tx *NewTransaction) { tx.Kind = "loan" }, ErrInvalidKind},
		{"missing account", func(tx *NewTransaction) { tx.AccountID = "" }, ErrMissingAccount},
		{"transfer without destination", func(tx *NewTransaction) { tx.Kind = Transfer }, ErrTransferAccount},
		{"transfer to same account", func(tx *NewTransaction) {
			tx.Kind = Transfer
			tx.AccountOutID = tx.AccountID
		}, ErrTransferAccount},
		{"destination on non-transfer", func(tx *NewTransaction) { tx.AccountOutID = "acc-2" }, nil},
		{"zero value", func(tx *NewTransaction) { tx.Value = Money{} }, ErrInvalidAmount},
		{"zero date", func(tx *NewTransaction) { tx.StartDate = Date{} }, ErrInvalidDate},
		{"zero installments", func(tx *NewTransaction) { tx.Installments = 0 }, ErrInvalidInstallments},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := validTransaction()
			tt.mutate(&tx)
			err := tx.Validate()
			switch {
			case tt.name == "valid":
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
			case tt.wantErr != nil:
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
				}
			default:
				if err == nil {
					t.Error("Validate() expected error")
				}
			}
		})
	}
}

func TestTransferValidates(t *testing.T) {
	tx := validTransaction()
	tx.Kind = Transfer
	tx.AccountOutID = "acc-2"
	if err := tx.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}

func TestKindFromID(t *testing.T) {
	tests := []struct {
		id   int
		want TransactionKind
		ok   bool
	}{
		{1, Income, true},
		{2, Expense, true},
		{3, Transfer, true},
		{4, "", false},
		{0, "", false},
	}
	for _, tt := range tests {
		got, ok := KindFromID(tt.id)
		if got != tt.want || ok != tt.ok {
			t.Errorf("KindFromID(%d) = (%q, %v), want (%q, %v)", tt.id, got, ok, tt.want, tt.ok)
		}
	}
}

func TestSumSubTransactions(t *testing.T) {
	subs := []SubTransaction{
		{Value: Money{Cents: 3000}},
		{Value: Money{Cents: -500}},
		{Value: Money{Cents: 200}},
	}
	if got := SumSubTransactions(subs); got.Cents != 2700 {
		t.Errorf("SumSubTransactions() = %d, want 2700", got.Cents)
	}
	if got := SumSubTransactions(nil); got.Cents != 0 {
		t.Errorf("SumSubTransactions(nil) = %d, want 0", got.Cents)
	}
}
