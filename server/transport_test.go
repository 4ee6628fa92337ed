package server_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/easypmnt/liqpay-gateway/liqpay"
	"github.com/easypmnt/liqpay-gateway/payment"
	"github.com/easypmnt/liqpay-gateway/repository"
	"github.com/easypmnt/liqpay-gateway/server"
	"github.com/go-kit/log"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testPublicKey  = "sandbox_pub"
	testPrivateKey = "sandbox_priv"
)

var testConfig = server.Config{
	HomeURL:     "https://shop.example.com/",
	ThankYouURL: "https://shop.example.com/checkout/thank-you",
	ErrorURL:    "https://shop.example.com/checkout/error",
	CartURL:     "https://shop.example.com/cart",
}

func newHandler(t *testing.T, store *repository.MemoryStore) http.Handler {
	t.Helper()
	lp, err := liqpay.NewClient(testPublicKey, testPrivateKey)
	require.NoError(t, err)
	svc, err := payment.NewService(store, lp, payment.DefaultConfig())
	require.NoError(t, err)
	return server.MakeHTTPHandler(server.MakeEndpoints(svc, nil, log.NewNopLogger(), testConfig), log.NewNopLogger(), nil)
}

func postCallback(t *testing.T, h http.Handler, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/liqpay/callback", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func signed(t *testing.T, params map[string]interface{}) url.Values {
	t.Helper()
	env, err := liqpay.NewSigner(testPrivateKey).Seal(params)
	require.NoError(t, err)
	v, err := env.Values()
	require.NoError(t, err)
	return v
}

func testOrder() repository.Order {
	return repository.Order{
		ID:       "42",
		Currency: "UAH",
		Total:    decimal.RequireFromString("99.90"),
		Status:   repository.OrderStatusPending,
	}
}

func TestCallback(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		store := repository.NewMemoryStore(testOrder())
		h := newHandler(t, store)

		w := postCallback(t, h, signed(t, map[string]interface{}{"order_id": "42", "status": "success"}))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Body.String())

		order, err := store.GetOrder(context.Background(), "42")
		require.NoError(t, err)
		assert.Equal(t, repository.OrderStatusProcessing, order.Status)
	})

	t.Run("failure is acknowledged", func(t *testing.T) {
		store := repository.NewMemoryStore(testOrder())
		h := newHandler(t, store)

		w := postCallback(t, h, signed(t, map[string]interface{}{"order_id": "42", "status": "failure"}))
		assert.Equal(t, http.StatusOK, w.Code)

		order, err := store.GetOrder(context.Background(), "42")
		require.NoError(t, err)
		assert.Equal(t, repository.OrderStatusFailed, order.Status)
	})

	t.Run("tampered data", func(t *testing.T) {
		store := repository.NewMemoryStore(testOrder())
		h := newHandler(t, store)

		form := signed(t, map[string]interface{}{"order_id": "42", "status": "failure"})
		form.Set("data", signed(t, map[string]interface{}{"order_id": "42", "status": "success"}).Get("data"))

		w := postCallback(t, h, form)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "invalid signature")
		assert.Contains(t, w.Header().Get("Content-Type"), "text/plain")

		order, err := store.GetOrder(context.Background(), "42")
		require.NoError(t, err)
		assert.Equal(t, repository.OrderStatusPending, order.Status)
		assert.Empty(t, store.Notes("42"))
	})

	t.Run("missing signature", func(t *testing.T) {
		h := newHandler(t, repository.NewMemoryStore(testOrder()))

		form := signed(t, map[string]interface{}{"order_id": "42", "status": "success"})
		form.Del("signature")

		w := postCallback(t, h, form)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("missing status", func(t *testing.T) {
		h := newHandler(t, repository.NewMemoryStore(testOrder()))

		w := postCallback(t, h, signed(t, map[string]interface{}{"order_id": "42"}))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown order", func(t *testing.T) {
		h := newHandler(t, repository.NewMemoryStore())

		w := postCallback(t, h, signed(t, map[string]interface{}{"order_id": "42", "status": "success"}))
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "order not found")
	})

	t.Run("side effect failure", func(t *testing.T) {
		store := repository.NewMemoryStore(testOrder())
		store.FailOn(repository.OpMarkPaymentComplete, errors.New("connection reset"))
		h := newHandler(t, store)

		w := postCallback(t, h, signed(t, map[string]interface{}{"order_id": "42", "status": "success"}))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "connection reset")
	})
}

type fakePayments struct {
	checkStatus func(ctx context.Context, orderID string) (payment.Result, error)
}

func (f *fakePayments) BuildPaymentRedirect(_ context.Context, orderID string) (string, error) {
	if orderID == "404" {
		return "", payment.ErrOrderNotFound
	}
	return liqpay.DefaultCheckoutURL + "?data=d&signature=s", nil
}

func (f *fakePayments) BuildPaymentForm(_ context.Context, _ string) (liqpay.CheckoutForm, error) {
	return liqpay.CheckoutForm{URL: liqpay.DefaultCheckoutURL, Data: "d", Signature: "s"}, nil
}

func (f *fakePayments) HandleNotification(context.Context, string, string) (payment.Result, error) {
	return payment.Result{}, nil
}

func (f *fakePayments) CheckStatus(ctx context.Context, orderID string) (payment.Result, error) {
	return f.checkStatus(ctx, orderID)
}

type fakeEnqueuer struct {
	orders []string
}

func (f *fakeEnqueuer) EnqueueStatusCheck(_ context.Context, orderID string) error {
	f.orders = append(f.orders, orderID)
	return nil
}

func TestReturn(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		err      error
		location string
		enqueued bool
	}{
		{
			name:     "confirmed",
			query:    "?order_id=42",
			location: "https://shop.example.com/checkout/thank-you?order_id=42",
		},
		{
			name:     "not confirmed",
			query:    "?order_id=42",
			err:      payment.ErrPaymentNotConfirmed,
			location: "https://shop.example.com/checkout/error?order_id=42",
		},
		{
			name:     "network error",
			query:    "?order_id=42",
			err:      &liqpay.NetworkError{Op: "status", Err: context.DeadlineExceeded},
			location: "https://shop.example.com/checkout/error?order_id=42",
			enqueued: true,
		},
		{
			name:     "unknown order",
			query:    "?order_id=42",
			err:      payment.ErrOrderNotFound,
			location: "https://shop.example.com/",
		},
		{
			name:     "missing order id",
			location: "https://shop.example.com/",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ps := &fakePayments{checkStatus: func(_ context.Context, orderID string) (payment.Result, error) {
				return payment.Result{OrderID: orderID}, tt.err
			}}
			enq := &fakeEnqueuer{}
			h := server.MakeHTTPHandler(server.MakeEndpoints(ps, enq, log.NewNopLogger(), testConfig), log.NewNopLogger(), nil)

			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/liqpay/return"+tt.query, nil))

			assert.Equal(t, http.StatusFound, w.Code)
			assert.Equal(t, tt.location, w.Header().Get("Location"))
			assert.Equal(t, tt.enqueued, len(enq.orders) == 1)
		})
	}

	t.Run("cart url without error page", func(t *testing.T) {
		cfg := testConfig
		cfg.ErrorURL = ""
		ps := &fakePayments{checkStatus: func(context.Context, string) (payment.Result, error) {
			return payment.Result{}, payment.ErrPaymentNotConfirmed
		}}
		h := server.MakeHTTPHandler(server.MakeEndpoints(ps, nil, log.NewNopLogger(), cfg), log.NewNopLogger(), nil)

		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/liqpay/return?order_id=42", nil))
		assert.Equal(t, "https://shop.example.com/cart", w.Header().Get("Location"))
	})
}

func TestCheckout(t *testing.T) {
	ps := &fakePayments{}
	h := server.MakeHTTPHandler(server.MakeEndpoints(ps, nil, log.NewNopLogger(), testConfig), log.NewNopLogger(), nil)

	t.Run("link", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/orders/42/checkout", nil))
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Data server.CheckoutResponse `json:"data"`
		}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Equal(t, liqpay.DefaultCheckoutURL+"?data=d&signature=s", resp.Data.Link)
	})

	t.Run("form", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/orders/42/checkout/form", nil))
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"data":{"url":"`+liqpay.DefaultCheckoutURL+`","data":"d","signature":"s"}}`, w.Body.String())
	})

	t.Run("pay redirect", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/liqpay/pay/42", nil))
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, liqpay.DefaultCheckoutURL+"?data=d&signature=s", w.Header().Get("Location"))
	})

	t.Run("unknown order", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/orders/404/checkout", nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
