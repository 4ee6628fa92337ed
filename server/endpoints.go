package server

import (
	"context"
	"errors"
	"net/url"

	"github.com/easypmnt/liqpay-gateway/internal/validator"
	"github.com/easypmnt/liqpay-gateway/liqpay"
	"github.com/easypmnt/liqpay-gateway/payment"
	"github.com/go-kit/kit/endpoint"
)

type (
	// Endpoints is a collection of all the endpoints that comprise a server.
	Endpoints struct {
		Callback     endpoint.Endpoint
		Return       endpoint.Endpoint
		Pay          endpoint.Endpoint
		Checkout     endpoint.Endpoint
		CheckoutForm endpoint.Endpoint
		CheckStatus  endpoint.Endpoint
	}

	// Config holds the merchant pages the customer is redirected to.
	Config struct {
		HomeURL     string // unknown order
		ThankYouURL string // payment confirmed, the order id is added as a query param
		ErrorURL    string // payment failed
		CartURL     string // payment failed and no error page is set
	}

	paymentService interface {
		BuildPaymentRedirect(ctx context.Context, orderID string) (string, error)
		BuildPaymentForm(ctx context.Context, orderID string) (liqpay.CheckoutForm, error)
		HandleNotification(ctx context.Context, data, signature string) (payment.Result, error)
		CheckStatus(ctx context.Context, orderID string) (payment.Result, error)
	}

	statusEnqueuer interface {
		EnqueueStatusCheck(ctx context.Context, orderID string) error
	}

	logger interface {
		Log(keyvals ...interface{}) error
	}
)

// MakeEndpoints returns an Endpoints struct where each field is an endpoint
// that comprises the server. enq may be nil.
func MakeEndpoints(ps paymentService, enq statusEnqueuer, log logger, cfg Config) Endpoints {
	return Endpoints{
		Callback:     makeCallbackEndpoint(ps),
		Return:       makeReturnEndpoint(ps, enq, log, cfg),
		Pay:          makePayEndpoint(ps),
		Checkout:     makeCheckoutEndpoint(ps),
		CheckoutForm: makeCheckoutFormEndpoint(ps),
		CheckStatus:  makeCheckStatusEndpoint(ps),
	}
}

// CallbackRequest is the processor notification.
type CallbackRequest struct {
	Data      string
	Signature string
}

// makeCallbackEndpoint returns an endpoint function for processor notifications.
// Once the notification is dispatched it is acknowledged whatever the outcome.
func makeCallbackEndpoint(ps paymentService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req, ok := request.(CallbackRequest)
		if !ok {
			return nil, ErrInvalidRequest
		}

		if _, err := ps.HandleNotification(ctx, req.Data, req.Signature); err != nil {
			return nil, err
		}

		return nil, nil
	}
}

// RedirectResponse sends the browser to URL.
type RedirectResponse struct {
	URL string
}

// makeReturnEndpoint returns an endpoint function for the customer's return from the checkout page.
// It always redirects.
func makeReturnEndpoint(ps paymentService, enq statusEnqueuer, log logger, cfg Config) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		orderID, _ := request.(string)
		if orderID == "" {
			return RedirectResponse{URL: cfg.HomeURL}, nil
		}

		_, err := ps.CheckStatus(ctx, orderID)
		switch {
		case err == nil:
			return RedirectResponse{URL: withOrderID(cfg.ThankYouURL, orderID)}, nil
		case errors.Is(err, payment.ErrOrderNotFound):
			return RedirectResponse{URL: cfg.HomeURL}, nil
		case errors.Is(err, liqpay.ErrNetwork) && enq != nil:
			if err := enq.EnqueueStatusCheck(ctx, orderID); err != nil {
				_ = log.Log("level", "error", "msg", "failed to schedule status check", "order_id", orderID, "error", err)
			}
		}

		if cfg.ErrorURL != "" {
			return RedirectResponse{URL: withOrderID(cfg.ErrorURL, orderID)}, nil
		}
		return RedirectResponse{URL: cfg.CartURL}, nil
	}
}

// makePayEndpoint returns an endpoint function redirecting the browser to the checkout page.
func makePayEndpoint(ps paymentService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		orderID, ok := request.(string)
		if !ok || orderID == "" {
			return nil, ErrInvalidRequest
		}

		link, err := ps.BuildPaymentRedirect(ctx, orderID)
		if err != nil {
			return nil, err
		}

		return RedirectResponse{URL: link}, nil
	}
}

type (
	// CheckoutRequest is the request type for the checkout endpoints.
	CheckoutRequest struct {
		OrderID string `json:"order_id" validate:"required"`
	}

	// CheckoutResponse is the response type for the Checkout method.
	CheckoutResponse struct {
		Link string `json:"link"`
	}

	// CheckoutFormResponse is the response type for the CheckoutForm method.
	CheckoutFormResponse struct {
		URL       string `json:"url"`
		Data      string `json:"data"`
		Signature string `json:"signature"`
	}
)

// makeCheckoutEndpoint returns an endpoint function for the Checkout method.
func makeCheckoutEndpoint(ps paymentService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req, ok := request.(CheckoutRequest)
		if !ok {
			return nil, ErrInvalidRequest
		}
		if v := validator.ValidateStruct(&req); len(v) > 0 {
			return nil, validator.NewValidationError(v)
		}

		link, err := ps.BuildPaymentRedirect(ctx, req.OrderID)
		if err != nil {
			return nil, err
		}

		return CheckoutResponse{Link: link}, nil
	}
}

// makeCheckoutFormEndpoint returns an endpoint function for the CheckoutForm method.
func makeCheckoutFormEndpoint(ps paymentService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req, ok := request.(CheckoutRequest)
		if !ok {
			return nil, ErrInvalidRequest
		}
		if v := validator.ValidateStruct(&req); len(v) > 0 {
			return nil, validator.NewValidationError(v)
		}

		form, err := ps.BuildPaymentForm(ctx, req.OrderID)
		if err != nil {
			return nil, err
		}

		return CheckoutFormResponse{
			URL:       form.URL,
			Data:      form.Data,
			Signature: form.Signature,
		}, nil
	}
}

// makeCheckStatusEndpoint returns an endpoint function for the CheckStatus method.
func makeCheckStatusEndpoint(ps paymentService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req, ok := request.(CheckoutRequest)
		if !ok {
			return nil, ErrInvalidRequest
		}
		if v := validator.ValidateStruct(&req); len(v) > 0 {
			return nil, validator.NewValidationError(v)
		}

		res, err := ps.CheckStatus(ctx, req.OrderID)
		if err != nil {
			return nil, err
		}

		return res, nil
	}
}

func withOrderID(base, orderID string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	q := u.Query()
	q.Set("order_id", orderID)
	u.RawQuery = q.Encode()
	return u.String()
}
