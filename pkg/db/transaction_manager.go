// pkg/db/transaction_manager.go
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
)

// TxController defines methods for controlling a database transaction.
// *sqlx.Tx implicitly implements this interface.
type TxController interface {
	Commit() error
	Rollback() error
}

// DBTxBeginner defines the interface for beginning transactions.
// *sqlx.DB implements this.
type DBTxBeginner interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// Function types injected into TxManager; tests swap them for mocks.
type (
	BeginTxFunc    func(ctx context.Context, dbConn DBTxBeginner) (TxController, error)
	CommitTxFunc   func(tx TxController) error
	RollbackTxFunc func(tx TxController)
)

// BeginTx starts a new database transaction.
func BeginTx(ctx context.Context, dbConn DBTxBeginner) (TxController, error) {
	tx, err := dbConn.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return tx, nil // *sqlx.Tx implicitly implements TxController
}

// CommitTx commits the transaction.
func CommitTx(tx TxController) error {
	return tx.Commit()
}

// RollbackTx rolls back the transaction. Rolling back a finished
// transaction is not an error.
func RollbackTx(tx TxController) {
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		slog.Default().Error("Error rolling back transaction", "error", err)
	}
}

// TxFunc is the body of a unit of work.
type TxFunc func(ctx context.Context, tx TxController) error

// UnitOfWork runs a function inside one commit-or-rollback boundary.
type UnitOfWork interface {
	Do(ctx context.Context, fn TxFunc) error
}

// TxManager is the database-backed UnitOfWork.
type TxManager struct {
	dbBeginner DBTxBeginner
	beginTx    BeginTxFunc
	commitTx   CommitTxFunc
	rollbackTx RollbackTxFunc
}

// NewTxManager creates a TxManager using the given transaction functions.
func NewTxManager(dbBeginner DBTxBeginner, beginTx BeginTxFunc, commitTx CommitTxFunc, rollbackTx RollbackTxFunc) *TxManager {
	return &TxManager{
		dbBeginner: dbBeginner,
		beginTx:    beginTx,
		commitTx:   commitTx,
		rollbackTx: rollbackTx,
	}
}

// NewDefaultTxManager creates a TxManager backed by BeginTx, CommitTx and RollbackTx.
func NewDefaultTxManager(dbBeginner DBTxBeginner) *TxManager {
	return NewTxManager(dbBeginner, BeginTx, CommitTx, RollbackTx)
}

// Do begins a transaction, runs fn and commits when fn succeeds.
// The transaction is rolled back when fn returns an error or panics.
func (m *TxManager) Do(ctx context.Context, fn TxFunc) error {
	tx, err := m.beginTx(ctx, m.dbBeginner)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			m.rollbackTx(tx)
		}
	}()

	if err := fn(ctx, tx); err != nil {
		return err
	}

	if err := m.commitTx(tx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	committed = true
	return nil
}
