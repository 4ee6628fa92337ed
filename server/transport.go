package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/easypmnt/liqpay-gateway/internal/httpencoder"
	"github.com/easypmnt/liqpay-gateway/internal/validator"
	"github.com/go-chi/chi/v5"
	"github.com/go-kit/kit/transport"
	httptransport "github.com/go-kit/kit/transport/http"
)

// maxCallbackBodySize limits the notification body.
const maxCallbackBodySize = 64 << 10

type middlewareFunc func(http.Handler) http.Handler

// MakeHTTPHandler returns an http.Handler that can be used to serve the API.
// authMdw protects the merchant endpoints, it may be nil.
func MakeHTTPHandler(e Endpoints, log logger, authMdw middlewareFunc) http.Handler {
	r := chi.NewRouter()

	options := []httptransport.ServerOption{
		httptransport.ServerErrorHandler(transport.NewLogErrorHandler(log)),
		httptransport.ServerErrorEncoder(httpencoder.EncodeError(log, codeAndMessageFrom)),
	}

	// Processor facing endpoints answer with a plain text reason.
	textOptions := []httptransport.ServerOption{
		httptransport.ServerErrorHandler(transport.NewLogErrorHandler(log)),
		httptransport.ServerErrorEncoder(httpencoder.EncodeTextError(log, codeAndMessageFrom)),
	}

	r.Route("/liqpay", func(r chi.Router) {
		r.Post("/callback", httptransport.NewServer(
			e.Callback,
			decodeCallbackRequest,
			httpencoder.EncodeEmptyResponse,
			textOptions...,
		).ServeHTTP)

		r.Get("/return", httptransport.NewServer(
			e.Return,
			decodeReturnRequest,
			encodeRedirectResponse,
			options...,
		).ServeHTTP)

		r.Get("/pay/{order_id}", httptransport.NewServer(
			e.Pay,
			decodeOrderIDRequest,
			encodeRedirectResponse,
			options...,
		).ServeHTTP)
	})

	r.Group(func(r chi.Router) {
		if authMdw != nil {
			r.Use(authMdw)
		}

		r.Post("/orders/{order_id}/checkout", httptransport.NewServer(
			e.Checkout,
			decodeCheckoutRequest,
			httpencoder.EncodeResponse,
			options...,
		).ServeHTTP)

		r.Post("/orders/{order_id}/checkout/form", httptransport.NewServer(
			e.CheckoutForm,
			decodeCheckoutRequest,
			httpencoder.EncodeResponse,
			options...,
		).ServeHTTP)

		r.Post("/orders/{order_id}/status", httptransport.NewServer(
			e.CheckStatus,
			decodeCheckoutRequest,
			httpencoder.EncodeResponse,
			options...,
		).ServeHTTP)
	})

	return r
}

// returns http error code by error type
func codeAndMessageFrom(err error) (int, interface{}) {
	if errors.Is(err, validator.ErrValidation) {
		return http.StatusPreconditionFailed, httpencoder.NewErrorResponse(http.StatusPreconditionFailed, err)
	}
	if resp := NewError(err); resp != nil {
		return resp.Code, *resp
	}

	return httpencoder.CodeAndMessageFrom(err)
}

// decodeCallbackRequest is a transport/http.DecodeRequestFunc that decodes a
// form-encoded notification from the HTTP request body.
func decodeCallbackRequest(_ context.Context, r *http.Request) (interface{}, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, maxCallbackBodySize)
	if err := r.ParseForm(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	return CallbackRequest{
		Data:      r.PostForm.Get("data"),
		Signature: r.PostForm.Get("signature"),
	}, nil
}

// decodeReturnRequest is a transport/http.DecodeRequestFunc that decodes the
// order id from the query string.
func decodeReturnRequest(_ context.Context, r *http.Request) (interface{}, error) {
	return r.URL.Query().Get("order_id"), nil
}

// decodeOrderIDRequest is a transport/http.DecodeRequestFunc that decodes the
// order id from the URL path.
func decodeOrderIDRequest(_ context.Context, r *http.Request) (interface{}, error) {
	return chi.URLParam(r, "order_id"), nil
}

// decodeCheckoutRequest is a transport/http.DecodeRequestFunc that decodes the
// order id from the URL path.
func decodeCheckoutRequest(_ context.Context, r *http.Request) (interface{}, error) {
	return CheckoutRequest{OrderID: chi.URLParam(r, "order_id")}, nil
}

// encodeRedirectResponse is a transport/http.EncodeResponseFunc that redirects the browser.
func encodeRedirectResponse(_ context.Context, w http.ResponseWriter, response interface{}) error {
	resp, ok := response.(RedirectResponse)
	if !ok || resp.URL == "" {
		return fmt.Errorf("%w: missing redirect url", ErrInvalidRequest)
	}

	w.Header().Set("Location", resp.URL)
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusFound)

	return nil
}
