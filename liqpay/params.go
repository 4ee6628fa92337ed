package liqpay

import (
	"encoding/json"
	"fmt"

	emailaddress "github.com/mcnijman/go-emailaddress"
	"github.com/shopspring/decimal"
)

type (
	// PaymentRequest describes one checkout attempt.
	// Build it once per attempt and do not change it after it is signed.
	PaymentRequest struct {
		Version     int             `json:"version"`
		Action      string          `json:"action"`
		Amount      decimal.Decimal `json:"amount"` // encoded as a string with two fractional digits
		Currency    string          `json:"currency"`
		Description string          `json:"description"`
		OrderID     string          `json:"order_id"`
		Email       string          `json:"email,omitempty"`
		ResultURL   string          `json:"result_url,omitempty"` // where the customer's browser returns
		ServerURL   string          `json:"server_url,omitempty"` // where notifications are posted
		Language    string          `json:"language,omitempty"`
		RROInfo     *RROInfo        `json:"rro_info,omitempty"` // fiscal receipt line items
	}

	// RROInfo carries fiscal receipt (RRO) metadata.
	RROInfo struct {
		Items          []RROItem `json:"items"`
		DeliveryEmails []string  `json:"delivery_emails,omitempty"`
	}

	// RROItem is a single receipt line.
	RROItem struct {
		Amount int             // quantity
		Price  decimal.Decimal // unit price
		Cost   decimal.Decimal // line total
		ID     string          // processor side product id
	}

	// StatusRequest asks the processor for the current status of an order.
	StatusRequest struct {
		Version int    `json:"version"`
		Action  string `json:"action"`
		OrderID string `json:"order_id"`
	}
)

// NewStatusRequest returns a status request for the order.
func NewStatusRequest(orderID string) StatusRequest {
	return StatusRequest{Version: Version, Action: ActionStatus, OrderID: orderID}
}

// MarshalJSON encodes the amount as a fixed two digit decimal string.
func (r PaymentRequest) MarshalJSON() ([]byte, error) {
	type alias PaymentRequest
	return json.Marshal(struct {
		alias
		Amount string `json:"amount"`
	}{
		alias:  alias(r),
		Amount: r.Amount.StringFixed(2),
	})
}

// MarshalJSON encodes prices as JSON numbers, the way the receipt service expects them.
func (i RROItem) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Amount int         `json:"amount"`
		Price  json.Number `json:"price"`
		Cost   json.Number `json:"cost"`
		ID     string      `json:"id"`
	}{
		Amount: i.Amount,
		Price:  json.Number(i.Price.StringFixed(2)),
		Cost:   json.Number(i.Cost.StringFixed(2)),
		ID:     i.ID,
	})
}

// Validate runs the pre-flight checks that do not depend on client configuration.
// The currency allow-list is checked by the client.
func (r PaymentRequest) Validate() error {
	if r.Version == 0 {
		return fmt.Errorf("%w: version is required", ErrConfiguration)
	}
	if !IsCheckoutAction(r.Action) {
		return fmt.Errorf("%w: action %q can not be used for checkout", ErrConfiguration, r.Action)
	}
	if !r.Amount.IsPositive() {
		return fmt.Errorf("%w: amount must be greater than 0", ErrConfiguration)
	}
	if r.Currency == "" {
		return fmt.Errorf("%w: currency is required", ErrConfiguration)
	}
	if r.Description == "" {
		return fmt.Errorf("%w: description is required", ErrConfiguration)
	}
	if r.OrderID == "" {
		return fmt.Errorf("%w: order_id is required", ErrConfiguration)
	}
	if r.Email != "" {
		if _, err := emailaddress.Parse(r.Email); err != nil {
			return fmt.Errorf("%w: invalid email: %v", ErrConfiguration, err)
		}
	}
	if r.Language != "" && !IsSupportedLanguage(r.Language) {
		return fmt.Errorf("%w: language %q is not supported", ErrConfiguration, r.Language)
	}
	return nil
}
