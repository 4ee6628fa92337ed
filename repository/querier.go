package repository

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// ErrOrderNotFound is returned when there is no order with the given id.
var ErrOrderNotFound = errors.New("order not found")

// Querier is the order store interface consumed by the payment service.
// Every method is atomic on its own.
type Querier interface {
	GetOrder(ctx context.Context, orderID string) (Order, error)
	UpdateStatus(ctx context.Context, orderID string, status OrderStatus, note string) error
	MarkPaymentComplete(ctx context.Context, orderID string) error
	CreateRefund(ctx context.Context, orderID string, amount decimal.Decimal, reason string) (Refund, error)
}

// TxFunc runs against an order store while the order is exclusively locked.
type TxFunc func(ctx context.Context, q Querier) error

// NonTx adapts a store without transactions. WithOrderTx runs fn directly against it,
// so the caller must hold an order-scoped lock.
func NonTx(q Querier) interface {
	Querier
	WithOrderTx(ctx context.Context, orderID string, fn TxFunc) error
} {
	return nonTx{q}
}

type nonTx struct{ Querier }

func (n nonTx) WithOrderTx(ctx context.Context, _ string, fn TxFunc) error {
	return fn(ctx, n.Querier)
}

// ErrPaymentAlreadyComplete is returned by MarkPaymentComplete when the order is already paid.
var ErrPaymentAlreadyComplete = errors.New("payment is already completed")
