package server

import (
	"errors"
	"net/http"

	"github.com/easypmnt/liqpay-gateway/internal/httpencoder"
	"github.com/easypmnt/liqpay-gateway/liqpay"
	"github.com/easypmnt/liqpay-gateway/payment"
)

// Predefined http encoder errors
var (
	ErrInvalidRequest   = errors.New("invalid request")
	ErrInvalidParameter = errors.New("invalid parameter")
)

// Error is an HTTP error response.
type Error = httpencoder.ErrorResponse

// errorCodes maps errors to http status codes. The first match wins.
var errorCodes = []struct {
	err  error
	code int
}{
	{ErrInvalidRequest, http.StatusBadRequest},
	{ErrInvalidParameter, http.StatusBadRequest},
	{payment.ErrInvalidNotification, http.StatusBadRequest},
	{payment.ErrOrderNotFound, http.StatusNotFound},
	{payment.ErrOrderAlreadyPaid, http.StatusConflict},
	{payment.ErrPaymentNotConfirmed, http.StatusPaymentRequired},
	{liqpay.ErrUnsupportedCurrency, http.StatusUnprocessableEntity},
	{liqpay.ErrConfiguration, http.StatusInternalServerError},
	{liqpay.ErrNetwork, http.StatusBadGateway},
	{liqpay.ErrProcessor, http.StatusBadGateway},
}

// NewError returns the error response for known errors, nil otherwise.
func NewError(err error) *Error {
	for _, e := range errorCodes {
		if errors.Is(err, e.err) {
			resp := httpencoder.NewErrorResponse(e.code, err)
			return &resp
		}
	}
	return nil
}
