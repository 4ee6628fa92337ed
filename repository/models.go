package repository

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus is the status of an order as the e-commerce platform knows it.
type OrderStatus string

// Predefined order statuses.
const (
	OrderStatusPending       OrderStatus = "pending"
	OrderStatusProcessing    OrderStatus = "processing"
	OrderStatusCompleted     OrderStatus = "completed"
	OrderStatusOnHold        OrderStatus = "on-hold"
	OrderStatusFailed        OrderStatus = "failed"
	OrderStatusRefunded      OrderStatus = "refunded"
	OrderStatusCancelled     OrderStatus = "cancelled"
	OrderStatusCheckoutDraft OrderStatus = "checkout-draft"
)

// Valid reports whether the status is one of the predefined ones.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusCompleted, OrderStatusOnHold,
		OrderStatusFailed, OrderStatusRefunded, OrderStatusCancelled, OrderStatusCheckoutDraft:
		return true
	}
	return false
}

type (
	// Order is an order placed on the platform.
	Order struct {
		ID        string
		Currency  string
		Total     decimal.Decimal
		Email     string
		Status    OrderStatus
		PaidAt    sql.NullTime // set once by MarkPaymentComplete
		CreatedAt time.Time
		UpdatedAt sql.NullTime

		Items []OrderItem
	}

	// OrderItem is an order line.
	OrderItem struct {
		ProductID string
		RROID     sql.NullString // product id registered with the fiscal receipt service
		Name      string
		Quantity  int
		Price     decimal.Decimal
		Total     decimal.Decimal
	}

	// OrderNote is a status change note attached to an order.
	OrderNote struct {
		OrderID   string
		Note      string
		CreatedAt time.Time
	}

	// Refund is a bookkeeping refund record.
	Refund struct {
		ID        uuid.UUID
		OrderID   string
		Amount    decimal.Decimal
		Reason    string
		CreatedAt time.Time
	}
)

// IsPaymentComplete reports whether the payment completion side effect already ran.
func (o Order) IsPaymentComplete() bool {
	return o.PaidAt.Valid
}
