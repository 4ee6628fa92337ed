package liqpay

import (
	"errors"
	"fmt"
)

// Predefined errors.
var (
	// ErrConfiguration is returned when credentials or required request fields are missing.
	// No network call is made.
	ErrConfiguration = errors.New("liqpay: configuration error")
	// ErrUnsupportedCurrency is a configuration error for currencies outside the allow-list.
	ErrUnsupportedCurrency = fmt.Errorf("%w: currency is not supported", ErrConfiguration)
	// ErrNetwork means the processor could not be reached, so the payment status is unknown.
	ErrNetwork = errors.New("liqpay: network error")
	// ErrProcessor means the processor responded but reported an API level failure.
	ErrProcessor = errors.New("liqpay: processor error")
	// ErrInvalidSignature means the envelope signature does not match the recomputed one.
	ErrInvalidSignature = errors.New("liqpay: invalid signature")
	// ErrMalformedPayload means the envelope data or an API response is not well-formed JSON.
	ErrMalformedPayload = errors.New("liqpay: malformed payload")
)

// NetworkError wraps a transport failure: timeout, DNS, refused connection, TLS handshake
// or an open circuit breaker.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("liqpay: network error: %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrNetwork) match any NetworkError.
func (e *NetworkError) Is(target error) bool { return target == ErrNetwork }

// ProcessorError is an API level failure reported by the processor.
type ProcessorError struct {
	Code        string
	Description string
}

func (e *ProcessorError) Error() string {
	if e.Code == "" && e.Description == "" {
		return "liqpay: processor error: response has no status"
	}
	return fmt.Sprintf("liqpay: processor error: %s: %s", e.Code, e.Description)
}

// Is makes errors.Is(err, ErrProcessor) match any ProcessorError.
func (e *ProcessorError) Is(target error) bool { return target == ErrProcessor }
