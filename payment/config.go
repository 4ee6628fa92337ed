package payment

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/easypmnt/liqpay-gateway/liqpay"
	"github.com/easypmnt/liqpay-gateway/repository"
)

// OrderNumberPlaceholder is replaced with the order id in the payment description.
const OrderNumberPlaceholder = "[order_number]"

// Config is the immutable payment configuration.
type Config struct {
	PaidStatus       repository.OrderStatus // status of an order after a confirmed payment
	Language         string                 // hosted page language: uk, en or ru
	OrderDescription string                 // payment description template, may contain [order_number]
	ResultURL        string                 // return endpoint, the order id is added as a query param
	ServerURL        string                 // notification endpoint

	RROEnabled             bool // attach fiscal receipt line items
	RROFallbackToProductID bool // use the product id for items without a receipt id
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	return Config{
		PaidStatus:       repository.OrderStatusProcessing,
		Language:         liqpay.LangUK,
		OrderDescription: "Payment for order #" + OrderNumberPlaceholder,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if !c.PaidStatus.Valid() || forbiddenPaidStatuses[c.PaidStatus] {
		return fmt.Errorf("%w: order status %q can not be used for paid orders", ErrInvalidConfig, c.PaidStatus)
	}
	if !liqpay.IsSupportedLanguage(c.Language) {
		return fmt.Errorf("%w: language %q is not supported", ErrInvalidConfig, c.Language)
	}
	if strings.TrimSpace(c.OrderDescription) == "" {
		return fmt.Errorf("%w: order description is required", ErrInvalidConfig)
	}
	for name, u := range map[string]string{"result url": c.ResultURL, "server url": c.ServerURL} {
		if u == "" {
			continue
		}
		if _, err := url.ParseRequestURI(u); err != nil {
			return fmt.Errorf("%w: invalid %s: %v", ErrInvalidConfig, name, err)
		}
	}
	return nil
}

func (c Config) description(orderID string) string {
	return strings.ReplaceAll(c.OrderDescription, OrderNumberPlaceholder, orderID)
}

func (c Config) resultURL(orderID string) string {
	if c.ResultURL == "" {
		return ""
	}
	u, err := url.Parse(c.ResultURL)
	if err != nil {
		return ""
	}
	q := u.Query()
	q.Set("order_id", orderID)
	u.RawQuery = q.Encode()
	return u.String()
}
