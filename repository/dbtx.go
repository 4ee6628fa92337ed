package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// QueriesTx is a postgres order store with transactional helpers.
type QueriesTx struct {
	*Queries
	dbConn *sql.DB
}

// NewWithConnection creates a new QueriesTx with a database connection to use for transactions.
// It is the caller's responsibility to close the connection.
func NewWithConnection(ctx context.Context, dbConn *sql.DB) (*QueriesTx, error) {
	if err := dbConn.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &QueriesTx{
		Queries: New(dbConn),
		dbConn:  dbConn,
	}, nil
}

const lockOrder = `-- name: LockOrder :one
SELECT id FROM orders WHERE id = $1 FOR UPDATE
`

// WithOrderTx runs fn in a transaction holding a row-level lock on the order.
// Concurrent calls for the same order are serialized; fn's changes are committed
// only when it returns nil.
func (q *QueriesTx) WithOrderTx(ctx context.Context, orderID string, fn TxFunc) error {
	tx, err := q.dbConn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var id string
	if err := tx.QueryRowContext(ctx, lockOrder, orderID).Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrOrderNotFound
		}
		return fmt.Errorf("failed to lock order: %w", err)
	}

	if err := fn(ctx, q.WithTx(tx)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
