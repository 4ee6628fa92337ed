package liqpay_test

import (
	"crypto/sha256"
	"encoding/base64"
	"testing"

	"github.com/easypmnt/liqpay-gateway/liqpay"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPrivateKey = "sandbox_priv"

func TestEncodeParams_Canonical(t *testing.T) {
	data, err := liqpay.EncodeParams(map[string]interface{}{
		"version": 3,
		"amount":  "1.00",
		"action":  "pay",
	})
	require.NoError(t, err)
	assert.Equal(t, "eyJhY3Rpb24iOiJwYXkiLCJhbW91bnQiOiIxLjAwIiwidmVyc2lvbiI6M30=", data)

	// same content built from a struct with a different field order
	data2, err := liqpay.EncodeParams(struct {
		Version int    `json:"version"`
		Amount  string `json:"amount"`
		Action  string `json:"action"`
	}{3, "1.00", "pay"})
	require.NoError(t, err)
	assert.Equal(t, data, data2)
}

func TestEncodeParams_KeepsNumbersAndSlashes(t *testing.T) {
	data, err := liqpay.EncodeParams(map[string]interface{}{
		"price":      12.5,
		"result_url": "https://shop.example/return?order_id=1&x=<y>",
	})
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(data)
	require.NoError(t, err)
	assert.Equal(t, `{"price":12.5,"result_url":"https://shop.example/return?order_id=1&x=<y>"}`, string(raw))
}

func TestSign_KnownVector(t *testing.T) {
	data := "eyJhY3Rpb24iOiJwYXkiLCJhbW91bnQiOiIxLjAwIiwidmVyc2lvbiI6M30="
	assert.Equal(t, "FT2vytXuO7xhXYg0PXUJZJS/gKc=", liqpay.Sign(testPrivateKey, data))
}

func TestVerify_RoundTrip(t *testing.T) {
	payloads := []string{
		"",
		"eyJhY3Rpb24iOiJwYXkifQ==",
		base64.StdEncoding.EncodeToString([]byte(`{"order_id":"42","status":"success"}`)),
	}
	secrets := []string{"a", testPrivateKey, "ключ з юнікодом"}

	for _, secret := range secrets {
		for _, p := range payloads {
			sig := liqpay.Sign(secret, p)
			if p == "" {
				assert.False(t, liqpay.Verify(secret, p, sig), "empty data is never accepted")
				continue
			}
			assert.True(t, liqpay.Verify(secret, p, sig))
		}
	}
}

func TestVerify_RejectsAnyBitFlip(t *testing.T) {
	data := base64.StdEncoding.EncodeToString([]byte(`{"order_id":"42","status":"success"}`))
	sig := liqpay.Sign(testPrivateKey, data)

	raw, err := base64.StdEncoding.DecodeString(sig)
	require.NoError(t, err)

	for i := 0; i < len(raw)*8; i++ {
		flipped := make([]byte, len(raw))
		copy(flipped, raw)
		flipped[i/8] ^= 1 << (i % 8)
		assert.False(t, liqpay.Verify(testPrivateKey, data, base64.StdEncoding.EncodeToString(flipped)), "bit %d", i)
	}
}

func TestVerify_WrongSecretOrData(t *testing.T) {
	data := base64.StdEncoding.EncodeToString([]byte(`{"order_id":"42","status":"success"}`))
	sig := liqpay.Sign(testPrivateKey, data)

	assert.False(t, liqpay.Verify("other", data, sig))
	tampered := base64.StdEncoding.EncodeToString([]byte(`{"order_id":"43","status":"success"}`))
	assert.False(t, liqpay.Verify(testPrivateKey, tampered, sig))
	assert.False(t, liqpay.Verify(testPrivateKey, data, ""))
}

func TestSigner_WithDigest(t *testing.T) {
	s := liqpay.NewSigner(testPrivateKey, liqpay.WithDigest(sha256.New))
	sig := s.Sign("ZGF0YQ==")

	raw, err := base64.StdEncoding.DecodeString(sig)
	require.NoError(t, err)
	assert.Len(t, raw, sha256.Size)
	assert.True(t, s.Verify("ZGF0YQ==", sig))
	assert.False(t, liqpay.Verify(testPrivateKey, "ZGF0YQ==", sig))
}

func TestSigner_SealOpen(t *testing.T) {
	s := liqpay.NewSigner(testPrivateKey)

	env, err := s.Seal(map[string]interface{}{"order_id": "42", "status": "success"})
	require.NoError(t, err)

	var n liqpay.Notification
	require.NoError(t, s.Open(env, &n))
	assert.Equal(t, "42", n.OrderID.String())
	assert.Equal(t, liqpay.StatusSuccess, n.Status)

	env.Signature = liqpay.Sign("other", env.Data)
	require.ErrorIs(t, s.Open(env, &n), liqpay.ErrInvalidSignature)
}

func TestDecodeNotification(t *testing.T) {
	t.Run("numeric order id", func(t *testing.T) {
		data := base64.StdEncoding.EncodeToString([]byte(`{"order_id":1042,"status":"sandbox","amount":12.5}`))
		n, err := liqpay.DecodeNotification(data)
		require.NoError(t, err)
		assert.Equal(t, "1042", n.OrderID.String())
		assert.Equal(t, "12.5", n.Amount.String())
	})

	t.Run("not base64", func(t *testing.T) {
		_, err := liqpay.DecodeNotification("%%%")
		require.ErrorIs(t, err, liqpay.ErrMalformedPayload)
	})

	t.Run("not json", func(t *testing.T) {
		_, err := liqpay.DecodeNotification(base64.StdEncoding.EncodeToString([]byte("nope")))
		require.ErrorIs(t, err, liqpay.ErrMalformedPayload)
	})
}
