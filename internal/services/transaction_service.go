package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"gastos/internal/core"
	"gastos/internal/log"
	"gastos/internal/store"
)

// Publisher is the outbound queue port. Nil publisher means the export
// pipeline is disabled; writes still succeed.
type Publisher interface {
	PublishLedgerSync(ctx context.Context, transactionID string) error
	PublishLedgerDelete(ctx context.Context, transactionID string) error
}

// TransactionService orchestrates transaction writes: validation,
// installment expansion, and the multi-table insert under a saga so a
// failed installment write never leaves an orphaned transaction row.
type TransactionService struct {
	store     store.Store
	publisher Publisher
	logger    *log.Logger
}

func NewTransactionService(st store.Store, publisher Publisher, logger *log.Logger) *TransactionService {
	return &TransactionService{
		store:     st,
		publisher: publisher,
		logger:    logger.WithComponent(log.ComponentLedger),
	}
}

// Create validates and persists a new logical transaction with all its
// installments. Returns the persisted transaction.
func (s *TransactionService) Create(ctx context.Context, input core.NewTransaction) (core.Transaction, error) {
	if err := input.Validate(); err != nil {
		return core.Transaction{}, err
	}

	installments, err := core.ExpandInstallments(input)
	if err != nil {
		return core.Transaction{}, err
	}

	tx := core.Transaction{
		ID:           uuid.NewString(),
		Description:  input.Description,
		Kind:         input.Kind,
		AccountID:    input.AccountID,
		AccountOutID: input.AccountOutID,
		Value:        input.Value,
		StartDate:    input.StartDate,
		Installments: input.Installments,
	}
	for i := range installments {
		installments[i].ID = uuid.NewString()
		installments[i].TransactionID = tx.ID
		installments[i].SyncStatus = core.SyncPending
	}

	saga := NewSaga(s.logger)
	saga.AddStep("insert transaction",
		func(ctx context.Context) error { return s.store.CreateTransaction(ctx, tx) },
		func(ctx context.Context) error { return s.store.DeleteTransaction(ctx, tx.ID) })
	saga.AddStep("insert installments",
		func(ctx context.Context) error { return s.store.CreateInstallments(ctx, installments) },
		func(ctx context.Context) error { return s.store.DeleteInstallmentsByTransaction(ctx, tx.ID) })

	if err := saga.Run(ctx); err != nil {
		return core.Transaction{}, err
	}

	s.logger.InfoContext(ctx, "Transaction created",
		log.FieldTransactionID, tx.ID,
		log.FieldDescription, tx.Description,
		log.FieldKind, string(tx.Kind),
		log.FieldAmountCents, tx.Value.Cents,
		log.FieldInstallments, tx.Installments)

	s.publishSync(ctx, tx.ID)
	return tx, nil
}

// Update replaces a transaction and regenerates its installments. The
// old rows are kept restorable until the new ones are in place.
func (s *TransactionService) Update(ctx context.Context, id string, input core.NewTransaction) (core.Transaction, error) {
	if err := input.Validate(); err != nil {
		return core.Transaction{}, err
	}

	oldTx, err := s.store.GetTransaction(ctx, id)
	if err != nil {
		return core.Transaction{}, err
	}
	oldInstallments, err := s.store.ListInstallmentsByTransaction(ctx, id)
	if err != nil {
		return core.Transaction{}, err
	}

	installments, err := core.ExpandInstallments(input)
	if err != nil {
		return core.Transaction{}, err
	}

	newTx := core.Transaction{
		ID:           id,
		Description:  input.Description,
		Kind:         input.Kind,
		AccountID:    input.AccountID,
		AccountOutID: input.AccountOutID,
		Value:        input.Value,
		StartDate:    input.StartDate,
		Installments: input.Installments,
	}
	for i := range installments {
		installments[i].ID = uuid.NewString()
		installments[i].TransactionID = id
		installments[i].SyncStatus = core.SyncPending
	}

	saga := NewSaga(s.logger)
	saga.AddStep("remove old installments",
		func(ctx context.Context) error {
			if err := s.store.DeleteSubTransactionsByTransaction(ctx, id); err != nil {
				return err
			}
			return s.store.DeleteInstallmentsByTransaction(ctx, id)
		},
		func(ctx context.Context) error { return s.restoreInstallments(ctx, oldInstallments) })
	saga.AddStep("replace transaction",
		func(ctx context.Context) error {
			if err := s.store.DeleteTransaction(ctx, id); err != nil {
				return err
			}
			return s.store.CreateTransaction(ctx, newTx)
		},
		func(ctx context.Context) error {
			if err := s.store.DeleteTransaction(ctx, id); err != nil && !errors.Is(err, store.ErrNotFound) {
				return err
			}
			return s.store.CreateTransaction(ctx, oldTx)
		})
	saga.AddStep("insert new installments",
		func(ctx context.Context) error { return s.store.CreateInstallments(ctx, installments) },
		func(ctx context.Context) error { return s.store.DeleteInstallmentsByTransaction(ctx, id) })

	if err := saga.Run(ctx); err != nil {
		return core.Transaction{}, err
	}

	s.logger.InfoContext(ctx, "Transaction updated", log.FieldTransactionID, id)
	s.publishSync(ctx, id)
	return newTx, nil
}

// Delete removes a transaction with its installments and fragments.
func (s *TransactionService) Delete(ctx context.Context, id string) error {
	if _, err := s.store.GetTransaction(ctx, id); err != nil {
		return err
	}

	if err := s.store.DeleteSubTransactionsByTransaction(ctx, id); err != nil {
		return fmt.Errorf("delete sub-transactions: %w", err)
	}
	if err := s.store.DeleteInstallmentsByTransaction(ctx, id); err != nil {
		return fmt.Errorf("delete installments: %w", err)
	}
	if err := s.store.DeleteTransaction(ctx, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}

	s.logger.InfoContext(ctx, "Transaction deleted", log.FieldTransactionID, id)

	if s.publisher != nil {
		if err := s.publisher.PublishLedgerDelete(ctx, id); err != nil {
			s.logger.WarnContext(ctx, "Failed to publish delete message",
				log.FieldTransactionID, id, log.FieldError, err)
		}
	}
	return nil
}

// Categorize attaches fragments to an installment. Each fragment must
// carry a non-zero value and at most one category reference; the parent
// installment value is recomputed from the fragment sum.
func (s *TransactionService) Categorize(ctx context.Context, installmentID string, subs []core.SubTransaction) error {
	if len(subs) == 0 {
		return fmt.Errorf("no sub-transactions given")
	}
	for i := range subs {
		if subs[i].Value.Cents == 0 {
			return core.ErrInvalidAmount
		}
		if subs[i].CategoryID != "" && subs[i].SubCategoryID != "" {
			return fmt.Errorf("sub-transaction may reference a category or a sub-category, not both")
		}
		if subs[i].ID == "" {
			subs[i].ID = uuid.NewString()
		}
	}
	return s.store.CreateSubTransactions(ctx, installmentID, subs)
}

// restoreInstallments re-creates installment rows together with their
// fragments. Fragments live in their own table on the sqlite backend,
// so re-inserting the installment rows alone would drop categorization.
func (s *TransactionService) restoreInstallments(ctx context.Context, installments []core.Installment) error {
	bare := make([]core.Installment, len(installments))
	copy(bare, installments)
	for i := range bare {
		bare[i].SubTransactions = nil
	}
	if err := s.store.CreateInstallments(ctx, bare); err != nil {
		return err
	}
	for _, inst := range installments {
		if len(inst.SubTransactions) == 0 {
			continue
		}
		if err := s.store.CreateSubTransactions(ctx, inst.ID, inst.SubTransactions); err != nil {
			return err
		}
	}
	return nil
}

func (s *TransactionService) publishSync(ctx context.Context, transactionID string) {
	if s.publisher == nil {
		return
	}
	// Export is best effort; the worker's catch-up pass covers misses
	if err := s.publisher.PublishLedgerSync(ctx, transactionID); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish sync message",
			log.FieldTransactionID, transactionID, log.FieldError, err)
	}
}
