// Package httpencoder holds go-kit response and error encoders shared by HTTP handlers.
package httpencoder

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/easypmnt/liqpay-gateway/internal/validator"
	httptransport "github.com/go-kit/kit/transport/http"
)

type (
	logger interface {
		Log(keyvals ...interface{}) error
	}

	// Response is the JSON envelope of a successful response.
	Response struct {
		Data interface{} `json:"data"`
	}

	// ErrorResponse is the JSON envelope of an error response.
	ErrorResponse struct {
		Code       int                 `json:"code"`
		Error      string              `json:"error"`
		Validation map[string][]string `json:"validation,omitempty"`
	}

	// CodeAndMessageFunc maps an error to an HTTP code and a response body.
	CodeAndMessageFunc func(err error) (int, interface{})
)

// EncodeResponse writes response as JSON.
// A nil response is written as 204 No Content.
func EncodeResponse(_ context.Context, w http.ResponseWriter, response interface{}) error {
	if response == nil {
		w.WriteHeader(http.StatusNoContent)
		return nil
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	return json.NewEncoder(w).Encode(Response{Data: response})
}

// EncodeEmptyResponse writes 200 OK with an empty body.
func EncodeEmptyResponse(_ context.Context, w http.ResponseWriter, _ interface{}) error {
	w.WriteHeader(http.StatusOK)
	return nil
}

// EncodeError returns a JSON error encoder.
func EncodeError(l logger, codeAndMessageFrom CodeAndMessageFunc) httptransport.ErrorEncoder {
	return func(_ context.Context, err error, w http.ResponseWriter) {
		if err == nil {
			_ = l.Log("level", "error", "msg", "encode error called with nil error")
			err = errors.New("unknown error")
		}

		code, msg := codeAndMessageFrom(err)
		if code >= http.StatusInternalServerError {
			_ = l.Log("level", "error", "msg", "request failed", "error", err)
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(code)

		_ = json.NewEncoder(w).Encode(msg)
	}
}

// EncodeTextError returns an error encoder writing a plain text reason.
func EncodeTextError(l logger, codeAndMessageFrom CodeAndMessageFunc) httptransport.ErrorEncoder {
	return func(_ context.Context, err error, w http.ResponseWriter) {
		code, msg := codeAndMessageFrom(err)
		if code >= http.StatusInternalServerError {
			_ = l.Log("level", "error", "msg", "request failed", "error", err)
		}

		text := http.StatusText(code)
		if e, ok := msg.(ErrorResponse); ok && code < http.StatusInternalServerError {
			text = e.Error
		}

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.WriteHeader(code)

		_, _ = w.Write([]byte(text))
	}
}

// CodeAndMessageFrom maps the common errors. Unknown errors are 500.
func CodeAndMessageFrom(err error) (int, interface{}) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, validator.ErrValidation):
		code = http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		code = http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		code = http.StatusRequestTimeout
	}

	return code, NewErrorResponse(code, err)
}

// NewErrorResponse builds the error body. Internal errors are not exposed.
func NewErrorResponse(code int, err error) ErrorResponse {
	resp := ErrorResponse{Code: code, Error: http.StatusText(code)}
	if code < http.StatusInternalServerError && err != nil {
		resp.Error = err.Error()
	}

	var verr *validator.ValidationError
	if errors.As(err, &verr) {
		resp.Validation = verr.Values
	}

	return resp
}
