package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"rideshare/internal/repository"
)

// Transactor runs callbacks inside a PostgreSQL transaction.
type Transactor struct {
	db *sql.DB
}

// NewTransactor creates a new Transactor.
func NewTransactor(db *sql.DB) *Transactor {
	return &Transactor{db: db}
}

// WithinTx begins a transaction, hands fn repositories bound to it and
// commits when fn succeeds.
func (t *Transactor) WithinTx(ctx context.Context, fn func(ctx context.Context, repos repository.TxRepos) error) error {
	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := fn(ctx, txRepos{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	committed = true

	return nil
}

type txRepos struct {
	tx *sql.Tx
}

func (r txRepos) Trips() repository.TripRepository {
	return NewTripRepositoryWithTx(r.tx)
}

func (r txRepos) Requests() repository.RequestRepository {
	return NewRequestRepositoryWithTx(r.tx)
}

// Ensure Transactor implements repository.Transactor.
var _ repository.Transactor = (*Transactor)(nil)
