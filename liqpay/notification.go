package liqpay

import (
	"bytes"
	"encoding/json"

	"github.com/shopspring/decimal"
)

type (
	// Notification is the decoded data of a processor callback.
	// The status API returns the same shape.
	Notification struct {
		Action         string          `json:"action"`
		Status         string          `json:"status"`
		OrderID        FlexString      `json:"order_id"`
		PaymentID      FlexString      `json:"payment_id"`
		LiqpayOrderID  string          `json:"liqpay_order_id"`
		TransactionID  FlexString      `json:"transaction_id"`
		Amount         decimal.Decimal `json:"amount"`
		Currency       string          `json:"currency"`
		Description    string          `json:"description"`
		PublicKey      string          `json:"public_key"`
		ErrCode        FlexString      `json:"err_code"`
		ErrDescription string          `json:"err_description"`
	}

	// Response is a generic API response.
	Response struct {
		Notification
		Result string `json:"result"`

		// Raw keeps every field of the response, including the ones not mapped above.
		Raw map[string]json.RawMessage `json:"-"`
	}

	// FlexString accepts both JSON strings and numbers.
	// The processor echoes order ids in whatever form the merchant sent them.
	FlexString string
)

// UnmarshalJSON implements json.Unmarshaler.
func (s *FlexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*s = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = FlexString(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*s = FlexString(n.String())
	return nil
}

// String returns the plain string value.
func (s FlexString) String() string { return string(s) }

// DecodeNotification decodes the data field of a callback envelope.
// It does not check the signature.
func DecodeNotification(data string) (Notification, error) {
	var n Notification
	if err := DecodeParams(data, &n); err != nil {
		return Notification{}, err
	}
	return n, nil
}
