package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"

	"github.com/shopspring/decimal"
)

type (
	orderFixture struct {
		ID       string          `json:"id"`
		Currency string          `json:"currency"`
		Total    decimal.Decimal `json:"total"`
		Email    string          `json:"email"`
		Status   OrderStatus     `json:"status"`
		Items    []itemFixture   `json:"items"`
	}

	itemFixture struct {
		ProductID string          `json:"product_id"`
		RROID     string          `json:"rro_id"`
		Name      string          `json:"name"`
		Quantity  int             `json:"quantity"`
		Price     decimal.Decimal `json:"price"`
		Total     decimal.Decimal `json:"total"`
	}
)

// LoadOrders reads a JSON array of orders, used to seed a MemoryStore.
func LoadOrders(r io.Reader) ([]Order, error) {
	var fixtures []orderFixture
	if err := json.NewDecoder(r).Decode(&fixtures); err != nil {
		return nil, fmt.Errorf("failed to decode orders: %w", err)
	}

	orders := make([]Order, 0, len(fixtures))
	for i, f := range fixtures {
		if f.ID == "" {
			return nil, fmt.Errorf("order #%d: id is required", i)
		}
		if f.Currency == "" || !f.Total.IsPositive() {
			return nil, fmt.Errorf("order %s: currency and positive total are required", f.ID)
		}
		if f.Status == "" {
			f.Status = OrderStatusPending
		}
		if !f.Status.Valid() {
			return nil, fmt.Errorf("order %s: unknown status %q", f.ID, f.Status)
		}

		o := Order{
			ID:       f.ID,
			Currency: f.Currency,
			Total:    f.Total,
			Email:    f.Email,
			Status:   f.Status,
		}
		for _, it := range f.Items {
			o.Items = append(o.Items, OrderItem{
				ProductID: it.ProductID,
				RROID:     sql.NullString{String: it.RROID, Valid: it.RROID != ""},
				Name:      it.Name,
				Quantity:  it.Quantity,
				Price:     it.Price,
				Total:     it.Total,
			})
		}
		orders = append(orders, o)
	}

	return orders, nil
}
