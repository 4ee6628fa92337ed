package validator_test

import (
	"testing"

	"github.com/easypmnt/liqpay-gateway/internal/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type checkoutRequest struct {
	OrderID  string `json:"order_id" validate:"required"`
	Language string `json:"language" validate:"in:uk,en,ru"`
}

func TestValidateStruct(t *testing.T) {
	assert.Empty(t, validator.ValidateStruct(&checkoutRequest{OrderID: "42"}))
	assert.Empty(t, validator.ValidateStruct(&checkoutRequest{OrderID: "42", Language: "en"}))

	v := validator.ValidateStruct(&checkoutRequest{Language: "de"})
	assert.Contains(t, v, "order_id")
	assert.Contains(t, v, "language")

	err := validator.NewValidationError(v)
	require.ErrorIs(t, err, validator.ErrValidation)
	assert.Contains(t, err.Error(), "order_id")
}
