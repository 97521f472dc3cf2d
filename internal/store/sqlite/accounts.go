package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"gastos/internal/core"
	"gastos/internal/store"
)

func (r *Repository) CreateAccount(ctx context.Context, a core.Account) error {
	if a.GroupID != "" {
		_, err := r.db.ExecContext(ctx,
			`INSERT INTO account_group (id, name) VALUES (?, ?)
			 ON CONFLICT(id) DO UPDATE SET name = excluded.name`,
			a.GroupID, a.GroupName)
		if err != nil {
			return fmt.Errorf("upsert account group: %w", err)
		}
	}

	groupID := sql.NullString{String: a.GroupID, Valid: a.GroupID != ""}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO account (id, name, initial_value_cents, group_id) VALUES (?, ?, ?, ?)`,
		a.ID, a.Name, a.InitialValue.Cents, groupID)
	if err != nil {
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

func (r *Repository) GetAccount(ctx context.Context, id string) (core.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT a.id, a.name, a.initial_value_cents, COALESCE(a.group_id, ''), COALESCE(g.name, '')
		 FROM account a LEFT JOIN account_group g ON g.id = a.group_id
		 WHERE a.id = ?`, id)

	a, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Account{}, store.ErrNotFound
	}
	if err != nil {
		return core.Account{}, fmt.Errorf("get account: %w", err)
	}
	return a, nil
}

func (r *Repository) ListAccounts(ctx context.Context) ([]core.Account, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT a.id, a.name, a.initial_value_cents, COALESCE(a.group_id, ''), COALESCE(g.name, '')
		 FROM account a LEFT JOIN account_group g ON g.id = a.group_id
		 ORDER BY a.created_at, a.id`)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []core.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (r *Repository) UpdateAccount(ctx context.Context, a core.Account) error {
	groupID := sql.NullString{String: a.GroupID, Valid: a.GroupID != ""}
	res, err := r.db.ExecContext(ctx,
		`UPDATE account SET name = ?, initial_value_cents = ?, group_id = ? WHERE id = ?`,
		a.Name, a.InitialValue.Cents, groupID, a.ID)
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	return checkAffected(res)
}

func (r *Repository) DeleteAccount(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM account WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	return checkAffected(res)
}

func (r *Repository) ListAccountGroups(ctx context.Context) ([]core.AccountGroup, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM account_group ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list account groups: %w", err)
	}
	defer rows.Close()

	var groups []core.AccountGroup
	for rows.Next() {
		var g core.AccountGroup
		if err := rows.Scan(&g.ID, &g.Name); err != nil {
			return nil, fmt.Errorf("scan account group: %w", err)
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (core.Account, error) {
	var a core.Account
	err := row.Scan(&a.ID, &a.Name, &a.InitialValue.Cents, &a.GroupID, &a.GroupName)
	return a, err
}

func checkAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
