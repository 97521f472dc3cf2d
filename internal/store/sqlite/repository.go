package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"gastos/internal/core"

	_ "modernc.org/sqlite"
)

type Repository struct {
	db *sql.DB
}

func New(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func typeIDForKind(kind core.TransactionKind) (int, error) {
	for _, t := range core.TransactionTypes() {
		if t.Kind == kind {
			return t.ID, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", core.ErrInvalidKind, kind)
}

func kindForTypeID(id int) (core.TransactionKind, error) {
	kind, ok := core.KindFromID(id)
	if !ok {
		return "", fmt.Errorf("%w: type id %d", core.ErrInvalidKind, id)
	}
	return kind, nil
}
