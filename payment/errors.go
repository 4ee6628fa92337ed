package payment

import "errors"

// Predefined errors.
var (
	ErrInvalidNotification = errors.New("invalid notification")
	ErrOrderNotFound       = errors.New("order not found")
	ErrOrderAlreadyPaid    = errors.New("order is already paid")
	ErrPaymentNotConfirmed = errors.New("payment is not confirmed")
	ErrInvalidConfig       = errors.New("invalid payment config")
)
