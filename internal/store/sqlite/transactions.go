package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"gastos/internal/core"
	"gastos/internal/store"
)

func (r *Repository) CreateTransaction(ctx context.Context, t core.Transaction) error {
	typeID, err := typeIDForKind(t.Kind)
	if err != nil {
		return err
	}
	accountOut := sql.NullString{String: t.AccountOutID, Valid: t.AccountOutID != ""}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO transactions (id, description, type_id, account_id, account_out_id, value_cents, start_date, installments)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Description, typeID, t.AccountID, accountOut, t.Value.Cents, t.StartDate.String(), t.Installments)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

func (r *Repository) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, description, type_id, account_id, COALESCE(account_out_id, ''), value_cents, start_date, installments
		 FROM transactions WHERE id = ?`, id)

	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, store.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

func (r *Repository) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, description, type_id, account_id, COALESCE(account_out_id, ''), value_cents, start_date, installments
		 FROM transactions ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var transactions []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		transactions = append(transactions, t)
	}
	return transactions, rows.Err()
}

func (r *Repository) DeleteTransaction(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return checkAffected(res)
}

func (r *Repository) CreateInstallments(ctx context.Context, installments []core.Installment) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin installments tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO transactions_installments
		 (id, transaction_id, account_id, account_out_id, type_id, value_cents, date, description, installment_number, sync_status)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare installment insert: %w", err)
	}
	defer stmt.Close()

	for _, inst := range installments {
		typeID, err := typeIDForKind(inst.Kind)
		if err != nil {
			return err
		}
		status := inst.SyncStatus
		if status == "" {
			status = core.SyncPending
		}
		accountOut := sql.NullString{String: inst.AccountOutID, Valid: inst.AccountOutID != ""}
		if _, err := stmt.ExecContext(ctx,
			inst.ID, inst.TransactionID, inst.AccountID, accountOut, typeID,
			inst.Value.Cents, inst.Date.String(), inst.Description, inst.Number, status); err != nil {
			return fmt.Errorf("insert installment %d: %w", inst.Number, err)
		}
	}

	return tx.Commit()
}

func (r *Repository) ListInstallments(ctx context.Context) ([]core.Installment, error) {
	return r.queryInstallments(ctx,
		`SELECT id, transaction_id, account_id, COALESCE(account_out_id, ''), type_id, value_cents, date, description, installment_number, sync_status
		 FROM transactions_installments ORDER BY date, installment_number`)
}

func (r *Repository) ListInstallmentsByTransaction(ctx context.Context, transactionID string) ([]core.Installment, error) {
	return r.queryInstallments(ctx,
		`SELECT id, transaction_id, account_id, COALESCE(account_out_id, ''), type_id, value_cents, date, description, installment_number, sync_status
		 FROM transactions_installments WHERE transaction_id = ? ORDER BY installment_number`, transactionID)
}

func (r *Repository) DeleteInstallmentsByTransaction(ctx context.Context, transactionID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM transactions_installments WHERE transaction_id = ?`, transactionID)
	if err != nil {
		return fmt.Errorf("delete installments: %w", err)
	}
	return nil
}

func (r *Repository) CreateSubTransactions(ctx context.Context, installmentID string, subs []core.SubTransaction) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin sub-transactions tx: %w", err)
	}
	defer tx.Rollback()

	var total int64
	for _, st := range subs {
		categoryID := sql.NullString{String: st.CategoryID, Valid: st.CategoryID != ""}
		subCategoryID := sql.NullString{String: st.SubCategoryID, Valid: st.SubCategoryID != ""}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO transactions_sub (id, installment_id, value_cents, category_id, sub_category_id)
			 VALUES (?, ?, ?, ?, ?)`,
			st.ID, installmentID, st.Value.Cents, categoryID, subCategoryID); err != nil {
			return fmt.Errorf("insert sub-transaction: %w", err)
		}
		total += st.Value.Cents
	}

	// Keep the parent value in sync with its fragments
	res, err := tx.ExecContext(ctx,
		`UPDATE transactions_installments
		 SET value_cents = (SELECT COALESCE(SUM(value_cents), 0) FROM transactions_sub WHERE installment_id = ?)
		 WHERE id = ?`, installmentID, installmentID)
	if err != nil {
		return fmt.Errorf("resync installment value: %w", err)
	}
	if err := checkAffected(res); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *Repository) DeleteSubTransactionsByTransaction(ctx context.Context, transactionID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM transactions_sub WHERE installment_id IN
		 (SELECT id FROM transactions_installments WHERE transaction_id = ?)`, transactionID)
	if err != nil {
		return fmt.Errorf("delete sub-transactions: %w", err)
	}
	return nil
}

func (r *Repository) ListPendingInstallments(ctx context.Context, limit int) ([]core.Installment, error) {
	return r.queryInstallments(ctx,
		`SELECT id, transaction_id, account_id, COALESCE(account_out_id, ''), type_id, value_cents, date, description, installment_number, sync_status
		 FROM transactions_installments WHERE sync_status = 'pending'
		 ORDER BY created_at, installment_number LIMIT ?`, limit)
}

func (r *Repository) MarkSynced(ctx context.Context, installmentID string) error {
	return r.setSyncStatus(ctx, installmentID, core.SyncSynced)
}

func (r *Repository) MarkSyncError(ctx context.Context, installmentID string) error {
	return r.setSyncStatus(ctx, installmentID, core.SyncError)
}

func (r *Repository) setSyncStatus(ctx context.Context, installmentID, status string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE transactions_installments SET sync_status = ? WHERE id = ?`, status, installmentID)
	if err != nil {
		return fmt.Errorf("set sync status: %w", err)
	}
	return checkAffected(res)
}

func (r *Repository) queryInstallments(ctx context.Context, query string, args ...any) ([]core.Installment, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query installments: %w", err)
	}
	defer rows.Close()

	var installments []core.Installment
	for rows.Next() {
		var (
			inst    core.Installment
			typeID  int
			rawDate string
		)
		if err := rows.Scan(&inst.ID, &inst.TransactionID, &inst.AccountID, &inst.AccountOutID,
			&typeID, &inst.Value.Cents, &rawDate, &inst.Description, &inst.Number, &inst.SyncStatus); err != nil {
			return nil, fmt.Errorf("scan installment: %w", err)
		}
		kind, err := kindForTypeID(typeID)
		if err != nil {
			return nil, err
		}
		inst.Kind = kind
		date, err := core.ParseDate(rawDate)
		if err != nil {
			return nil, fmt.Errorf("installment %s: %w", inst.ID, err)
		}
		inst.Date = date
		installments = append(installments, inst)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.attachSubTransactions(ctx, installments); err != nil {
		return nil, err
	}
	return installments, nil
}

func (r *Repository) attachSubTransactions(ctx context.Context, installments []core.Installment) error {
	if len(installments) == 0 {
		return nil
	}

	byID := make(map[string]int, len(installments))
	for i, inst := range installments {
		byID[inst.ID] = i
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, installment_id, value_cents, COALESCE(category_id, ''), COALESCE(sub_category_id, '')
		 FROM transactions_sub ORDER BY id`)
	if err != nil {
		return fmt.Errorf("query sub-transactions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			st            core.SubTransaction
			installmentID string
		)
		if err := rows.Scan(&st.ID, &installmentID, &st.Value.Cents, &st.CategoryID, &st.SubCategoryID); err != nil {
			return fmt.Errorf("scan sub-transaction: %w", err)
		}
		if i, ok := byID[installmentID]; ok {
			installments[i].SubTransactions = append(installments[i].SubTransactions, st)
		}
	}
	return rows.Err()
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		t       core.Transaction
		typeID  int
		rawDate string
	)
	err := row.Scan(&t.ID, &t.Description, &typeID, &t.AccountID, &t.AccountOutID,
		&t.Value.Cents, &rawDate, &t.Installments)
	if err != nil {
		return core.Transaction{}, err
	}
	kind, err := kindForTypeID(typeID)
	if err != nil {
		return core.Transaction{}, err
	}
	t.Kind = kind
	date, err := core.ParseDate(rawDate)
	if err != nil {
		return core.Transaction{}, err
	}
	t.StartDate = date
	return t, nil
}
