package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

const getOrder = `-- name: GetOrder :one
SELECT id, currency, total, email, status, paid_at, created_at, updated_at
FROM orders
WHERE id = $1
`

const getOrderItems = `-- name: GetOrderItems :many
SELECT product_id, rro_id, name, quantity, price, total
FROM order_items
WHERE order_id = $1
ORDER BY id
`

// GetOrder returns the order with its items.
func (q *Queries) GetOrder(ctx context.Context, orderID string) (Order, error) {
	var (
		o      Order
		status string
	)
	err := q.db.QueryRowContext(ctx, getOrder, orderID).Scan(
		&o.ID,
		&o.Currency,
		&o.Total,
		&o.Email,
		&status,
		&o.PaidAt,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Order{}, ErrOrderNotFound
		}
		return Order{}, fmt.Errorf("failed to get order: %w", err)
	}
	o.Status = OrderStatus(status)

	rows, err := q.db.QueryContext(ctx, getOrderItems, orderID)
	if err != nil {
		return Order{}, fmt.Errorf("failed to get order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var i OrderItem
		if err := rows.Scan(&i.ProductID, &i.RROID, &i.Name, &i.Quantity, &i.Price, &i.Total); err != nil {
			return Order{}, fmt.Errorf("failed to scan order item: %w", err)
		}
		o.Items = append(o.Items, i)
	}
	if err := rows.Err(); err != nil {
		return Order{}, fmt.Errorf("failed to get order items: %w", err)
	}

	return o, nil
}

const updateStatus = `-- name: UpdateStatus :one
WITH upd AS (
	UPDATE orders SET status = $2, updated_at = now()
	WHERE id = $1
	RETURNING id
), note AS (
	INSERT INTO order_notes (order_id, note)
	SELECT id, $3::text FROM upd WHERE $3::text <> ''
)
SELECT id FROM upd
`

// UpdateStatus sets the order status and records the note in one statement.
func (q *Queries) UpdateStatus(ctx context.Context, orderID string, status OrderStatus, note string) error {
	var id string
	if err := q.db.QueryRowContext(ctx, updateStatus, orderID, string(status), note).Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrOrderNotFound
		}
		return fmt.Errorf("failed to update order status: %w", err)
	}
	return nil
}

const markPaymentComplete = `-- name: MarkPaymentComplete :one
UPDATE orders SET paid_at = now(), updated_at = now()
WHERE id = $1 AND paid_at IS NULL
RETURNING id
`

const orderExists = `-- name: OrderExists :one
SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)
`

// MarkPaymentComplete records the payment completion once.
// The paid_at IS NULL guard makes it a compare-and-set.
func (q *Queries) MarkPaymentComplete(ctx context.Context, orderID string) error {
	var id string
	err := q.db.QueryRowContext(ctx, markPaymentComplete, orderID).Scan(&id)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("failed to mark payment complete: %w", err)
	}

	var exists bool
	if err := q.db.QueryRowContext(ctx, orderExists, orderID).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check order: %w", err)
	}
	if !exists {
		return ErrOrderNotFound
	}
	return ErrPaymentAlreadyComplete
}

const createRefund = `-- name: CreateRefund :one
INSERT INTO refunds (id, order_id, amount, reason)
VALUES ($1, $2, $3, $4)
RETURNING created_at
`

// foreignKeyViolation is the postgres error code for a missing referenced row.
const foreignKeyViolation = "23503"

// CreateRefund records a refund. It does not contact the payment processor.
func (q *Queries) CreateRefund(ctx context.Context, orderID string, amount decimal.Decimal, reason string) (Refund, error) {
	r := Refund{
		ID:      uuid.New(),
		OrderID: orderID,
		Amount:  amount,
		Reason:  reason,
	}
	if err := q.db.QueryRowContext(ctx, createRefund, r.ID, orderID, amount, reason).Scan(&r.CreatedAt); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == foreignKeyViolation {
			return Refund{}, ErrOrderNotFound
		}
		return Refund{}, fmt.Errorf("failed to create refund: %w", err)
	}
	return r, nil
}
