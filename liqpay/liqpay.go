// Package liqpay implements the LiqPay checkout protocol: signed {data, signature}
// envelopes, the server-to-server API client and checkout link construction.
package liqpay

// Protocol defaults.
const (
	DefaultAPIURL      = "https://www.liqpay.ua/api/"
	DefaultCheckoutURL = "https://www.liqpay.ua/api/3/checkout"
	Version            = 3

	// PathRequest is the API path for server-to-server requests such as status checks.
	PathRequest = "request"
)

// Actions.
const (
	ActionPay       = "pay"
	ActionHold      = "hold"
	ActionSubscribe = "subscribe"
	ActionPayDonate = "paydonate"
	ActionStatus    = "status"
)

// Payment statuses reported by the processor.
// The list is not exhaustive, anything unknown is treated as a failure.
const (
	StatusSuccess    = "success"
	StatusSandbox    = "sandbox"
	StatusWaitAccept = "wait_accept"
	StatusFailure    = "failure"
	StatusError      = "error"
	StatusReversed   = "reversed"
	StatusWait       = "wait"
	StatusProcessing = "processing"
)

// Languages supported by the hosted checkout page.
const (
	LangUK = "uk"
	LangEN = "en"
	LangRU = "ru"
)

var (
	// checkoutActions are the actions allowed in a checkout link.
	checkoutActions = map[string]bool{
		ActionPay:       true,
		ActionHold:      true,
		ActionSubscribe: true,
		ActionPayDonate: true,
	}

	// DefaultCurrencies is the currency allow-list used when none is configured.
	DefaultCurrencies = []string{"EUR", "USD", "UAH"}

	supportedLanguages = map[string]bool{LangUK: true, LangEN: true, LangRU: true}
)

// IsCheckoutAction reports whether the action can be used to build a checkout link.
func IsCheckoutAction(action string) bool {
	return checkoutActions[action]
}

// IsSupportedLanguage reports whether the hosted page can be rendered in the given language.
func IsSupportedLanguage(lang string) bool {
	return supportedLanguages[lang]
}
