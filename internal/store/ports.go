package store

import (
	"context"
	"errors"

	"gastos/internal/core"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// Ports for storage adapters. The sqlite adapter is the durable backend;
// the memory adapter serves local runs and tests.
type (
	AccountStore interface {
		CreateAccount(ctx context.Context, a core.Account) error
		GetAccount(ctx context.Context, id string) (core.Account, error)
		ListAccounts(ctx context.Context) ([]core.Account, error)
		UpdateAccount(ctx context.Context, a core.Account) error
		DeleteAccount(ctx context.Context, id string) error
		ListAccountGroups(ctx context.Context) ([]core.AccountGroup, error)
	}

	TransactionStore interface {
		CreateTransaction(ctx context.Context, t core.Transaction) error
		GetTransaction(ctx context.Context, id string) (core.Transaction, error)
		ListTransactions(ctx context.Context) ([]core.Transaction, error)
		DeleteTransaction(ctx context.Context, id string) error

		CreateInstallments(ctx context.Context, installments []core.Installment) error
		ListInstallments(ctx context.Context) ([]core.Installment, error)
		ListInstallmentsByTransaction(ctx context.Context, transactionID string) ([]core.Installment, error)
		DeleteInstallmentsByTransaction(ctx context.Context, transactionID string) error

		CreateSubTransactions(ctx context.Context, installmentID string, subs []core.SubTransaction) error
		DeleteSubTransactionsByTransaction(ctx context.Context, transactionID string) error
	}

	// ExportQueue tracks which installments still need to reach the
	// backup spreadsheet.
	ExportQueue interface {
		ListPendingInstallments(ctx context.Context, limit int) ([]core.Installment, error)
		MarkSynced(ctx context.Context, installmentID string) error
		MarkSyncError(ctx context.Context, installmentID string) error
	}

	CategoryStore interface {
		ListCategories(ctx context.Context) ([]core.Category, error)
	}

	Store interface {
		AccountStore
		TransactionStore
		ExportQueue
		CategoryStore
		Ping(ctx context.Context) error
		Close() error
	}
)
