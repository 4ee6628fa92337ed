package liqpay

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker"
)

// WithAPIURL sets the API base URL. It must end with a slash.
func WithAPIURL(apiURL string) ClientOption {
	return func(c *Client) {
		if !strings.HasSuffix(apiURL, "/") {
			apiURL += "/"
		}
		c.apiURL = apiURL
	}
}

// WithCheckoutURL sets the hosted checkout page URL.
func WithCheckoutURL(checkoutURL string) ClientOption {
	return func(c *Client) {
		c.checkoutURL = checkoutURL
	}
}

// WithTimeout sets the timeout applied to every API call.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithHTTPClient sets the underlying HTTP client.
// Its TLS configuration is used as is, certificate verification must stay enabled.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.http = resty.NewWithClient(hc).SetRetryCount(0)
	}
}

// WithSupportedCurrencies replaces the currency allow-list.
func WithSupportedCurrencies(currencies ...string) ClientOption {
	return func(c *Client) {
		if len(currencies) > 0 {
			c.currencies = toSet(currencies)
		}
	}
}

// WithSignerOptions configures the envelope signer.
func WithSignerOptions(opts ...SignerOption) ClientOption {
	return func(c *Client) {
		c.signerOpts = append(c.signerOpts, opts...)
	}
}

// WithRequestObserver sets a hook called after every API call.
func WithRequestObserver(fn RequestObserver) ClientOption {
	return func(c *Client) {
		c.observe = fn
	}
}

// WithCircuitBreaker makes API calls fail fast with a network error after repeated
// transport failures, so a stuck processor does not hold inbound requests.
func WithCircuitBreaker(name string, onStateChange func(name string, from, to gobreaker.State)) ClientOption {
	return func(c *Client) {
		c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        name,
			MaxRequests: 1,
			Interval:    30 * time.Second,
			Timeout:     15 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			OnStateChange: onStateChange,
		})
	}
}
