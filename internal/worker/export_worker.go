package worker

import (
	"context"
	"fmt"

	"gastos/internal/amqp"
	"gastos/internal/core"
	"gastos/internal/log"
	"gastos/internal/store"
)

// RowAppender is the outbound spreadsheet port.
type RowAppender interface {
	AppendInstallment(ctx context.Context, inst core.Installment) (string, error)
}

// ExportWorker drains the export queue: it appends pending installments
// to the backup spreadsheet and records the outcome per installment.
type ExportWorker struct {
	store     store.Store
	appender  RowAppender
	batchSize int
	logger    *log.Logger
}

func NewExportWorker(st store.Store, appender RowAppender, batchSize int, logger *log.Logger) *ExportWorker {
	return &ExportWorker{
		store:     st,
		appender:  appender,
		batchSize: batchSize,
		logger:    logger.WithComponent(log.ComponentWorker),
	}
}

// HandleMessage processes one queue message. Sync messages export the
// transaction's pending installments; delete messages only log, since
// the rows are already gone from the database.
func (w *ExportWorker) HandleMessage(ctx context.Context, msg *amqp.LedgerMessage) error {
	switch msg.Action {
	case amqp.ActionSync:
		return w.exportTransaction(ctx, msg.TransactionID)
	case amqp.ActionDelete:
		w.logger.InfoContext(ctx, "Transaction removed, nothing to export",
			log.FieldTransactionID, msg.TransactionID)
		return nil
	default:
		return fmt.Errorf("unknown message action %q", msg.Action)
	}
}

func (w *ExportWorker) exportTransaction(ctx context.Context, transactionID string) error {
	installments, err := w.store.ListInstallmentsByTransaction(ctx, transactionID)
	if err != nil {
		return fmt.Errorf("list installments: %w", err)
	}

	for _, inst := range installments {
		if inst.SyncStatus != core.SyncPending {
			continue
		}
		if err := w.exportInstallment(ctx, inst); err != nil {
			return err
		}
	}
	return nil
}

// ProcessPending is the periodic catch-up pass for installments whose
// queue message was lost.
func (w *ExportWorker) ProcessPending(ctx context.Context) error {
	pending, err := w.store.ListPendingInstallments(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("list pending installments: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	w.logger.InfoContext(ctx, "Processing pending installments",
		log.FieldBatchSize, len(pending))

	for _, inst := range pending {
		if err := w.exportInstallment(ctx, inst); err != nil {
			w.logger.ErrorContext(ctx, "Failed to export installment",
				log.FieldInstallmentID, inst.ID, log.FieldError, err)
		}
	}
	return nil
}

func (w *ExportWorker) exportInstallment(ctx context.Context, inst core.Installment) error {
	ref, err := w.appender.AppendInstallment(ctx, inst)
	if err != nil {
		if markErr := w.store.MarkSyncError(ctx, inst.ID); markErr != nil {
			w.logger.ErrorContext(ctx, "Failed to mark sync error",
				log.FieldInstallmentID, inst.ID, log.FieldError, markErr)
		}
		return fmt.Errorf("append installment %s: %w", inst.ID, err)
	}

	if err := w.store.MarkSynced(ctx, inst.ID); err != nil {
		return fmt.Errorf("mark synced: %w", err)
	}

	w.logger.InfoContext(ctx, "Installment exported",
		log.FieldInstallmentID, inst.ID,
		log.FieldSheetsRef, ref)
	return nil
}
