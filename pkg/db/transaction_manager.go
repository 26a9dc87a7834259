// pkg/db/transaction_manager.go
package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
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

// Function types injected into services so tests can replace the transaction lifecycle.
type (
	BeginTxFunc    func(ctx context.Context, dbConn DBTxBeginner) (TxController, error)
	CommitTxFunc   func(tx TxController) error
	RollbackTxFunc func(tx TxController)
)

// BeginTx starts a new database transaction at READ COMMITTED, which together with
// row locks taken by SELECT ... FOR UPDATE gives the isolation the ledger relies on.
func BeginTx(ctx context.Context, dbConn DBTxBeginner) (TxController, error) {
	tx, err := dbConn.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, err
	}
	return tx, nil
}

// CommitTx commits the transaction.
func CommitTx(tx TxController) error {
	return tx.Commit()
}

// NewRollbackTx returns a RollbackTxFunc that reports rollback failures to logger.
// The returned func is safe to defer after a successful commit.
func NewRollbackTx(logger *zap.Logger) RollbackTxFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(tx TxController) {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			logger.Error("Error rolling back transaction", zap.Error(err))
		}
	}
}
