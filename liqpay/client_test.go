package liqpay_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/easypmnt/liqpay-gateway/liqpay"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPublicKey = "sandbox_pub"

func newPaymentRequest() liqpay.PaymentRequest {
	return liqpay.PaymentRequest{
		Version:     liqpay.Version,
		Action:      liqpay.ActionPay,
		Amount:      decimal.RequireFromString("12.5"),
		Currency:    "UAH",
		Description: "Payment for order #42",
		OrderID:     "42",
		Email:       "buyer@example.com",
		Language:    liqpay.LangUK,
	}
}

func TestNewClient_RequiresCredentials(t *testing.T) {
	_, err := liqpay.NewClient("", testPrivateKey)
	require.ErrorIs(t, err, liqpay.ErrConfiguration)

	_, err = liqpay.NewClient(testPublicKey, "")
	require.ErrorIs(t, err, liqpay.ErrConfiguration)
}

func TestClient_CheckoutLink(t *testing.T) {
	c, err := liqpay.NewClient(testPublicKey, testPrivateKey)
	require.NoError(t, err)

	link, err := c.CheckoutLink(newPaymentRequest())
	require.NoError(t, err)

	u, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "https://www.liqpay.ua/api/3/checkout", u.Scheme+"://"+u.Host+u.Path)

	data, sig := u.Query().Get("data"), u.Query().Get("signature")
	require.True(t, liqpay.Verify(testPrivateKey, data, sig))

	var params map[string]interface{}
	require.NoError(t, liqpay.DecodeParams(data, &params))
	assert.Equal(t, testPublicKey, params["public_key"])
	assert.Equal(t, "12.50", params["amount"])
	assert.Equal(t, "UAH", params["currency"])
	assert.Equal(t, "42", params["order_id"])
	assert.EqualValues(t, 3, params["version"])
}

func TestClient_CheckoutForm(t *testing.T) {
	c, err := liqpay.NewClient(testPublicKey, testPrivateKey, liqpay.WithCheckoutURL("https://checkout.example/pay"))
	require.NoError(t, err)

	form, err := c.CheckoutForm(newPaymentRequest())
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.example/pay", form.URL)
	assert.True(t, c.Verify(form.Data, form.Signature))
}

func TestClient_CheckoutLink_Validation(t *testing.T) {
	c, err := liqpay.NewClient(testPublicKey, testPrivateKey, liqpay.WithSupportedCurrencies("EUR", "USD", "UAH"))
	require.NoError(t, err)

	cases := map[string]func(r *liqpay.PaymentRequest){
		"unsupported currency": func(r *liqpay.PaymentRequest) { r.Currency = "GBP" },
		"missing currency":     func(r *liqpay.PaymentRequest) { r.Currency = "" },
		"missing description":  func(r *liqpay.PaymentRequest) { r.Description = "" },
		"missing version":      func(r *liqpay.PaymentRequest) { r.Version = 0 },
		"missing action":       func(r *liqpay.PaymentRequest) { r.Action = "" },
		"status action":        func(r *liqpay.PaymentRequest) { r.Action = liqpay.ActionStatus },
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			r := newPaymentRequest()
			mutate(&r)
			_, err := c.CheckoutLink(r)
			require.ErrorIs(t, err, liqpay.ErrConfiguration)
		})
	}

	r := newPaymentRequest()
	r.Currency = "GBP"
	_, err = c.CheckoutLink(r)
	require.ErrorIs(t, err, liqpay.ErrUnsupportedCurrency)
}

func TestPaymentRequest_Validate(t *testing.T) {
	require.NoError(t, newPaymentRequest().Validate())

	r := newPaymentRequest()
	r.Email = "not an email"
	require.ErrorIs(t, r.Validate(), liqpay.ErrConfiguration)

	r = newPaymentRequest()
	r.Amount = decimal.Zero
	require.ErrorIs(t, r.Validate(), liqpay.ErrConfiguration)

	r = newPaymentRequest()
	r.Language = "de"
	require.ErrorIs(t, r.Validate(), liqpay.ErrConfiguration)
}

func TestPaymentRequest_RROInfo(t *testing.T) {
	r := newPaymentRequest()
	r.RROInfo = &liqpay.RROInfo{
		Items: []liqpay.RROItem{{
			Amount: 2,
			Price:  decimal.RequireFromString("6.25"),
			Cost:   decimal.RequireFromString("12.5"),
			ID:     "1001",
		}},
		DeliveryEmails: []string{"buyer@example.com"},
	}

	b, err := json.Marshal(r)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"rro_info":{"items":[{"amount":2,"price":6.25,"cost":12.50,"id":"1001"}],"delivery_emails":["buyer@example.com"]}`)
	assert.Contains(t, string(b), `"amount":"12.50"`)
}

// newTLSServer starts a processor stub and returns a client that trusts it.
func newTLSServer(t *testing.T, h http.HandlerFunc, opts ...liqpay.ClientOption) (*liqpay.Client, *httptest.Server) {
	t.Helper()

	srv := httptest.NewTLSServer(h)
	t.Cleanup(srv.Close)

	opts = append([]liqpay.ClientOption{
		liqpay.WithAPIURL(srv.URL + "/api/"),
		liqpay.WithHTTPClient(srv.Client()),
	}, opts...)

	c, err := liqpay.NewClient(testPublicKey, testPrivateKey, opts...)
	require.NoError(t, err)

	return c, srv
}

func TestClient_Status(t *testing.T) {
	c, _ := newTLSServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/request", r.URL.Path)
		assert.Contains(t, r.Header.Get("Content-Type"), "application/x-www-form-urlencoded")
		require.NoError(t, r.ParseForm())

		data, sig := r.PostForm.Get("data"), r.PostForm.Get("signature")
		assert.True(t, liqpay.Verify(testPrivateKey, data, sig))

		var params map[string]interface{}
		require.NoError(t, liqpay.DecodeParams(data, &params))
		assert.Equal(t, testPublicKey, params["public_key"])
		assert.Equal(t, liqpay.ActionStatus, params["action"])
		assert.Equal(t, "42", params["order_id"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"result":"ok","status":"success","order_id":"42","amount":12.5,"currency":"UAH","payment_id":165629}`))
	})

	resp, err := c.Status(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, liqpay.StatusSuccess, resp.Status)
	assert.Equal(t, "42", resp.OrderID.String())
	assert.Equal(t, "165629", resp.PaymentID.String())
	assert.Contains(t, resp.Raw, "currency")
}

func TestClient_Send_RequiresVersionAndAction(t *testing.T) {
	var calls int32
	c, _ := newTLSServer(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	})

	_, err := c.Send(context.Background(), liqpay.PathRequest, map[string]interface{}{"action": "status"})
	require.ErrorIs(t, err, liqpay.ErrConfiguration)

	_, err = c.Send(context.Background(), liqpay.PathRequest, map[string]interface{}{"version": 3})
	require.ErrorIs(t, err, liqpay.ErrConfiguration)

	assert.EqualValues(t, 0, atomic.LoadInt32(&calls))
}

func TestClient_Send_ProcessorError(t *testing.T) {
	c, _ := newTLSServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"result":"error","err_code":"public_key_not_found","err_description":"public key not found"}`))
	})

	_, err := c.Status(context.Background(), "42")
	require.ErrorIs(t, err, liqpay.ErrProcessor)
	assert.NotErrorIs(t, err, liqpay.ErrNetwork)

	var perr *liqpay.ProcessorError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "public_key_not_found", perr.Code)
}

func TestClient_Send_FailureStatusIsNotAnError(t *testing.T) {
	c, _ := newTLSServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"result":"ok","status":"failure","order_id":"42"}`))
	})

	resp, err := c.Status(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, liqpay.StatusFailure, resp.Status)
}

func TestClient_Send_NetworkErrors(t *testing.T) {
	t.Run("timeout", func(t *testing.T) {
		c, _ := newTLSServer(t, func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		}, liqpay.WithTimeout(50*time.Millisecond))

		_, err := c.Status(context.Background(), "42")
		require.ErrorIs(t, err, liqpay.ErrNetwork)
		assert.NotErrorIs(t, err, liqpay.ErrProcessor)
	})

	t.Run("server error", func(t *testing.T) {
		c, _ := newTLSServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})

		_, err := c.Status(context.Background(), "42")
		require.ErrorIs(t, err, liqpay.ErrNetwork)
	})

	t.Run("unreadable body", func(t *testing.T) {
		for code, body := range map[int]string{
			http.StatusTooManyRequests: "<html>rate limited</html>",
			http.StatusForbidden:       "",
			http.StatusOK:              `{"status":"succ`,
		} {
			c, _ := newTLSServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "text/html")
				w.WriteHeader(code)
				_, _ = w.Write([]byte(body))
			})

			_, err := c.Status(context.Background(), "42")
			require.ErrorIs(t, err, liqpay.ErrNetwork, code)
			assert.NotErrorIs(t, err, liqpay.ErrProcessor, code)
		}
	})

	t.Run("not an object", func(t *testing.T) {
		c, _ := newTLSServer(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`["success"]`))
		})

		_, err := c.Status(context.Background(), "42")
		require.ErrorIs(t, err, liqpay.ErrNetwork)
		assert.ErrorIs(t, err, liqpay.ErrMalformedPayload)
	})

	t.Run("untrusted certificate", func(t *testing.T) {
		srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"status":"success"}`))
		}))
		defer srv.Close()

		c, err := liqpay.NewClient(testPublicKey, testPrivateKey, liqpay.WithAPIURL(srv.URL+"/api/"))
		require.NoError(t, err)

		_, err = c.Status(context.Background(), "42")
		require.ErrorIs(t, err, liqpay.ErrNetwork)
	})

	t.Run("connection refused", func(t *testing.T) {
		srv := httptest.NewTLSServer(http.NotFoundHandler())
		addr := srv.URL
		srv.Close()

		c, err := liqpay.NewClient(testPublicKey, testPrivateKey, liqpay.WithAPIURL(addr+"/api/"))
		require.NoError(t, err)

		_, err = c.Status(context.Background(), "42")
		require.ErrorIs(t, err, liqpay.ErrNetwork)
	})
}

func TestClient_CircuitBreaker(t *testing.T) {
	var calls int32
	c, _ := newTLSServer(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}, liqpay.WithCircuitBreaker("liqpay-test", nil))

	for i := 0; i < 10; i++ {
		_, err := c.Status(context.Background(), "42")
		require.ErrorIs(t, err, liqpay.ErrNetwork)
	}

	assert.EqualValues(t, 5, atomic.LoadInt32(&calls), "breaker opens after 5 consecutive failures")
}

func TestClient_RequestObserver(t *testing.T) {
	var observed string
	c, _ := newTLSServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"success"}`))
	}, liqpay.WithRequestObserver(func(action string, took time.Duration, err error) {
		observed = action
		assert.NoError(t, err)
	}))

	_, err := c.Status(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, liqpay.ActionStatus, observed)
}
