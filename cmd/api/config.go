package main

import (
	"time"

	"github.com/dmitrymomot/go-env"
	_ "github.com/joho/godotenv/autoload" // Load .env file automatically
)

var (
	appName         = env.GetString("APP_NAME", "liqpay-gateway")
	buildTagRuntime = env.GetString("COMMIT_HASH", "undefined")
	appDebug        = env.GetBool("DEBUG", false)

	// HTTP Router
	httpPort           = env.GetInt("HTTP_PORT", 8080)
	httpRequestTimeout = env.GetDuration("HTTP_REQUEST_TIMEOUT", 30*time.Second)
	corsAllowedOrigins = env.GetString("CORS_ALLOWED_ORIGINS", "*")

	// DB. Orders are kept in memory when the connection string is empty.
	dbConnString   = env.GetString("DATABASE_URL", "")
	dbMaxOpenConns = env.GetInt("DATABASE_MAX_OPEN_CONNS", 20)
	dbMaxIdleConns = env.GetInt("DATABASE_IDLE_CONNS", 2)
	// JSON array of orders seeded into the in-memory store, for local runs.
	ordersFixtureFile = env.GetString("ORDERS_FIXTURE_FILE", "")

	// Redis. Locks are in-process and deferred status checks are off when the address is empty.
	redisConnAddr     = env.GetString("REDIS_ADDR", "")
	redisPoolSize     = env.GetInt("REDIS_POOL_SIZE", 10)
	workerConcurrency = env.GetInt("WORKER_CONCURRENCY", 10)

	// Deferred status check
	statusCheckDelay    = env.GetDuration("STATUS_CHECK_DELAY", 30*time.Second)
	statusCheckMaxRetry = env.GetInt("STATUS_CHECK_MAX_RETRY", 10)

	// LiqPay
	liqpayPublicKey           = env.GetString("LIQPAY_PUBLIC_KEY", "")
	liqpayPrivateKey          = env.GetString("LIQPAY_PRIVATE_KEY", "")
	liqpayAPIURL              = env.GetString("LIQPAY_API_URL", "https://www.liqpay.ua/api/")
	liqpayCheckoutURL         = env.GetString("LIQPAY_CHECKOUT_URL", "https://www.liqpay.ua/api/3/checkout")
	liqpayTimeout             = env.GetDuration("LIQPAY_TIMEOUT", 5*time.Second)
	liqpayLanguage            = env.GetString("LIQPAY_LANGUAGE", "uk")
	liqpaySupportedCurrencies = env.GetString("LIQPAY_SUPPORTED_CURRENCIES", "EUR,USD,UAH")

	// Orders
	orderPaidStatus      = env.GetString("ORDER_PAID_STATUS", "processing")
	orderDescription     = env.GetString("ORDER_DESCRIPTION", "Payment for order #[order_number]")
	rroEnabled           = env.GetBool("RRO_ENABLED", false)
	rroFallbackProductID = env.GetBool("RRO_FALLBACK_PRODUCT_ID", false)

	// Merchant site
	publicBaseURL = env.GetString("PUBLIC_BASE_URL", "http://localhost:8080")
	homeURL       = env.GetString("HOME_URL", "/")
	thankYouURL   = env.GetString("THANK_YOU_URL", "/checkout/thank-you")
	errorURL      = env.GetString("ERROR_URL", "")
	cartURL       = env.GetString("CART_URL", "/cart")

	// OAuth2 for the merchant API. The API is open when the signing key is empty.
	oauthSigningKey = env.GetString("OAUTH_SIGNING_KEY", "")
	oauthClientID   = env.GetString("OAUTH_CLIENT_ID", "")
	oauthClientSec  = env.GetString("OAUTH_CLIENT_SECRET", "")
	accessTokenTTL  = env.GetDuration("OAUTH_ACCESS_TOKEN_TTL", time.Hour)
)

// appConfig holds the settings checked at startup.
type appConfig struct {
	PublicKey     string `json:"LIQPAY_PUBLIC_KEY" validate:"required"`
	PrivateKey    string `json:"LIQPAY_PRIVATE_KEY" validate:"required"`
	APIURL        string `json:"LIQPAY_API_URL" validate:"required|fullUrl"`
	CheckoutURL   string `json:"LIQPAY_CHECKOUT_URL" validate:"required|fullUrl"`
	PublicBaseURL string `json:"PUBLIC_BASE_URL" validate:"required|fullUrl"`
	HTTPPort      int    `json:"HTTP_PORT" validate:"required|min:1|max:65535"`
}

func loadAppConfig() appConfig {
	return appConfig{
		PublicKey:     liqpayPublicKey,
		PrivateKey:    liqpayPrivateKey,
		APIURL:        liqpayAPIURL,
		CheckoutURL:   liqpayCheckoutURL,
		PublicBaseURL: publicBaseURL,
		HTTPPort:      httpPort,
	}
}
