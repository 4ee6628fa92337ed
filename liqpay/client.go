package liqpay

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker"
)

// DefaultTimeout bounds every outbound call.
const DefaultTimeout = 5 * time.Second

type (
	// Client talks to the processor: it signs server-to-server requests and
	// builds links to the hosted checkout page.
	Client struct {
		http    *resty.Client
		signer  *Signer
		breaker *gobreaker.CircuitBreaker

		publicKey   string
		apiURL      string
		checkoutURL string
		timeout     time.Duration
		currencies  map[string]bool

		signerOpts []SignerOption
		observe    RequestObserver
	}

	// ClientOption is a function that can be used to configure a Client.
	ClientOption func(*Client)

	// RequestObserver is called after every API call with the action, duration and error.
	RequestObserver func(action string, took time.Duration, err error)

	// CheckoutForm holds the values to embed in a form posted to the hosted checkout page.
	CheckoutForm struct {
		URL       string `json:"url"`
		Data      string `json:"data"`
		Signature string `json:"signature"`
	}
)

// NewClient returns a client bound to the merchant credentials.
func NewClient(publicKey, privateKey string, opts ...ClientOption) (*Client, error) {
	if publicKey == "" {
		return nil, fmt.Errorf("%w: public key is empty", ErrConfiguration)
	}
	if privateKey == "" {
		return nil, fmt.Errorf("%w: private key is empty", ErrConfiguration)
	}

	c := &Client{
		http: resty.New().
			SetRetryCount(0).
			SetTLSClientConfig(&tls.Config{MinVersion: tls.VersionTLS12}),

		publicKey:   publicKey,
		apiURL:      DefaultAPIURL,
		checkoutURL: DefaultCheckoutURL,
		timeout:     DefaultTimeout,
		currencies:  toSet(DefaultCurrencies),
	}

	for _, opt := range opts {
		opt(c)
	}

	c.signer = NewSigner(privateKey, c.signerOpts...)

	return c, nil
}

// PublicKey returns the merchant public key.
func (c *Client) PublicKey() string {
	return c.publicKey
}

// Verify checks an inbound envelope signature with the merchant private key.
func (c *Client) Verify(data, signature string) bool {
	return c.signer.Verify(data, signature)
}

// Send signs params and posts them to the API path as a form-encoded {data, signature} pair.
// The public key is added to params; version and action must be set.
// Transport failures are reported as *NetworkError, API level failures as *ProcessorError.
func (c *Client) Send(ctx context.Context, path string, params interface{}) (*Response, error) {
	m, err := c.requestParams(params)
	if err != nil {
		return nil, err
	}

	env, err := c.signer.Seal(m)
	if err != nil {
		return nil, err
	}
	form, err := env.Values()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	body, err := c.post(ctx, c.apiURL+path, form)
	if err == nil {
		var resp *Response
		resp, err = parseResponse(body)
		if err == nil {
			c.report(m, start, nil)
			return resp, nil
		}
	}
	c.report(m, start, err)

	return nil, err
}

// Status asks the processor for the status of the order.
func (c *Client) Status(ctx context.Context, orderID string) (*Response, error) {
	if orderID == "" {
		return nil, fmt.Errorf("%w: order_id is required", ErrConfiguration)
	}
	return c.Send(ctx, PathRequest, NewStatusRequest(orderID))
}

// CheckoutLink returns the hosted checkout page URL with the signed request in its query.
// No network call is made.
func (c *Client) CheckoutLink(params interface{}) (string, error) {
	form, err := c.CheckoutForm(params)
	if err != nil {
		return "", err
	}

	v, err := Envelope{Data: form.Data, Signature: form.Signature}.Values()
	if err != nil {
		return "", err
	}

	return form.URL + "?" + v.Encode(), nil
}

// CheckoutForm returns the signed request to embed in a form posted to the checkout page.
func (c *Client) CheckoutForm(params interface{}) (CheckoutForm, error) {
	m, err := c.checkoutParams(params)
	if err != nil {
		return CheckoutForm{}, err
	}

	env, err := c.signer.Seal(m)
	if err != nil {
		return CheckoutForm{}, err
	}

	return CheckoutForm{
		URL:       c.checkoutURL,
		Data:      env.Data,
		Signature: env.Signature,
	}, nil
}

// requestParams attaches the public key and checks the fields every request needs.
func (c *Client) requestParams(params interface{}) (map[string]interface{}, error) {
	m, err := canonicalize(params)
	if err != nil {
		return nil, err
	}

	m["public_key"] = c.publicKey

	if !present(m, "version") {
		return nil, fmt.Errorf("%w: version is null", ErrConfiguration)
	}
	if !present(m, "action") {
		return nil, fmt.Errorf("%w: action is null", ErrConfiguration)
	}

	return m, nil
}

// checkoutParams adds the checkout specific checks to requestParams.
func (c *Client) checkoutParams(params interface{}) (map[string]interface{}, error) {
	m, err := c.requestParams(params)
	if err != nil {
		return nil, err
	}

	if action, _ := m["action"].(string); !IsCheckoutAction(action) {
		return nil, fmt.Errorf("%w: action %v can not be used for checkout", ErrConfiguration, m["action"])
	}
	if !present(m, "amount") {
		return nil, fmt.Errorf("%w: amount is null", ErrConfiguration)
	}
	if !present(m, "currency") {
		return nil, fmt.Errorf("%w: currency is null", ErrConfiguration)
	}
	if currency, _ := m["currency"].(string); !c.currencies[currency] {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedCurrency, m["currency"])
	}
	if !present(m, "description") {
		return nil, fmt.Errorf("%w: description is null", ErrConfiguration)
	}

	return m, nil
}

// post makes a form POST through the circuit breaker.
func (c *Client) post(ctx context.Context, endpoint string, form url.Values) ([]byte, error) {
	call := func() (interface{}, error) {
		resp, err := c.http.R().
			SetContext(ctx).
			SetHeader("Accept", "application/json").
			SetFormDataFromValues(form).
			Post(endpoint)
		if err != nil {
			return nil, &NetworkError{Op: "POST " + endpoint, Err: err}
		}
		if resp.StatusCode() >= http.StatusInternalServerError {
			return nil, &NetworkError{
				Op:  "POST " + endpoint,
				Err: fmt.Errorf("unexpected status code: %d", resp.StatusCode()),
			}
		}
		// Rate limit and firewall pages carry no API response, the status stays unknown.
		if !json.Valid(resp.Body()) {
			return nil, &NetworkError{
				Op:  "POST " + endpoint,
				Err: fmt.Errorf("unreadable response with status code %d", resp.StatusCode()),
			}
		}
		return resp.Body(), nil
	}

	if c.breaker == nil {
		body, err := call()
		if err != nil {
			return nil, err
		}
		return body.([]byte), nil
	}

	body, err := c.breaker.Execute(call)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, &NetworkError{Op: "POST " + endpoint, Err: err}
		}
		return nil, err
	}

	return body.([]byte), nil
}

func (c *Client) report(params map[string]interface{}, start time.Time, err error) {
	if c.observe == nil {
		return
	}
	action, _ := params["action"].(string)
	c.observe(action, time.Since(start), err)
}

// parseResponse decodes an API response. A response without status is an API level error,
// a body that is not a JSON object leaves the status unknown.
func parseResponse(body []byte) (*Response, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, &NetworkError{Op: "decode response", Err: fmt.Errorf("%w: %v", ErrMalformedPayload, err)}
	}

	resp := &Response{Raw: raw}
	if err := json.Unmarshal(body, resp); err != nil {
		return nil, &NetworkError{Op: "decode response", Err: fmt.Errorf("%w: %v", ErrMalformedPayload, err)}
	}

	if resp.Status == "" {
		return nil, &ProcessorError{Code: resp.ErrCode.String(), Description: resp.ErrDescription}
	}

	return resp, nil
}

func present(m map[string]interface{}, key string) bool {
	v, ok := m[key]
	if !ok || v == nil {
		return false
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) != ""
	}
	if n, ok := v.(json.Number); ok {
		return n.String() != "0"
	}
	return true
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[strings.ToUpper(strings.TrimSpace(v))] = true
	}
	return set
}
