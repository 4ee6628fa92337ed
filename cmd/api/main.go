package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/easypmnt/liqpay-gateway/events"
	"github.com/easypmnt/liqpay-gateway/internal/auth"
	"github.com/easypmnt/liqpay-gateway/internal/locker"
	"github.com/easypmnt/liqpay-gateway/internal/metrics"
	"github.com/easypmnt/liqpay-gateway/internal/validator"
	"github.com/easypmnt/liqpay-gateway/liqpay"
	"github.com/easypmnt/liqpay-gateway/payment"
	"github.com/easypmnt/liqpay-gateway/repository"
	"github.com/easypmnt/liqpay-gateway/server"
	kitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	migrate "github.com/rubenv/sql-migrate"
	"golang.org/x/sync/errgroup"

	_ "github.com/lib/pq" // init pg driver
)

type (
	orderStore interface {
		GetOrder(ctx context.Context, orderID string) (repository.Order, error)
		WithOrderTx(ctx context.Context, orderID string, fn repository.TxFunc) error
	}

	statusEnqueuer interface {
		EnqueueStatusCheck(ctx context.Context, orderID string) error
	}
)

func main() {
	// Setup go-kit logger
	var logger kitlog.Logger
	{
		logger = kitlog.NewJSONLogger(kitlog.NewSyncWriter(os.Stdout))
		logger = kitlog.With(logger, "ts", kitlog.DefaultTimestampUTC)
		logger = kitlog.With(logger, "caller", kitlog.DefaultCaller)
		logger = kitlog.With(logger, "build", buildTagRuntime)
		logger = kitlog.With(logger, "app", appName)
		if appDebug {
			logger = level.NewFilter(logger, level.AllowDebug())
		} else {
			logger = level.NewFilter(logger, level.AllowInfo())
		}

		log.SetOutput(kitlog.NewStdlibAdapter(logger))
	}

	if v := validator.ValidateStruct(ptr(loadAppConfig())); len(v) > 0 {
		level.Error(logger).Log("msg", "invalid configuration", "error", validator.NewValidationError(v))
		os.Exit(1)
	}

	// Global app context
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Init order store
	var repo orderStore
	if dbConnString != "" {
		db, err := sql.Open("postgres", dbConnString)
		if err != nil {
			level.Error(logger).Log("error", err, "msg", "failed to open db connection")
			os.Exit(1)
		}
		defer db.Close()

		db.SetMaxOpenConns(dbMaxOpenConns)
		db.SetMaxIdleConns(dbMaxIdleConns)

		n, err := repository.Migrate(db, migrate.Up)
		if err != nil {
			level.Error(logger).Log("error", err, "msg", "failed to apply migrations")
			os.Exit(1)
		}
		level.Info(logger).Log("msg", "migrations applied", "count", n)

		pg, err := repository.NewWithConnection(ctx, db)
		if err != nil {
			level.Error(logger).Log("error", err, "msg", "failed to init repository")
			os.Exit(1)
		}
		repo = pg
	} else {
		level.Warn(logger).Log("msg", "DATABASE_URL is not set, orders are kept in memory")
		orders, err := loadOrderFixtures(ordersFixtureFile)
		if err != nil {
			level.Error(logger).Log("error", err, "msg", "failed to load order fixtures")
			os.Exit(1)
		}
		level.Info(logger).Log("msg", "orders seeded", "count", len(orders))
		repo = repository.NewMemoryStore(orders...)
	}

	// Init LiqPay client
	lp, err := liqpay.NewClient(liqpayPublicKey, liqpayPrivateKey,
		liqpay.WithAPIURL(liqpayAPIURL),
		liqpay.WithCheckoutURL(liqpayCheckoutURL),
		liqpay.WithTimeout(liqpayTimeout),
		liqpay.WithSupportedCurrencies(splitList(liqpaySupportedCurrencies)...),
		liqpay.WithRequestObserver(metrics.ObserveAPIRequest),
		liqpay.WithCircuitBreaker("liqpay", metrics.ObserveBreakerState),
	)
	if err != nil {
		level.Error(logger).Log("error", err, "msg", "failed to init liqpay client")
		os.Exit(1)
	}

	serviceOpts := []payment.ServiceOption{
		payment.WithLogger(kitlog.With(logger, "component", "payment")),
	}

	// Init redis backed components
	var (
		enq       statusEnqueuer
		redisOpt  asynq.RedisClientOpt
		withRedis = redisConnAddr != ""
	)
	if withRedis {
		rdb := redis.NewClient(&redis.Options{
			Addr:     redisConnAddr,
			PoolSize: redisPoolSize,
		})
		defer rdb.Close()

		if err := rdb.Ping(ctx).Err(); err != nil {
			level.Error(logger).Log("error", err, "msg", "failed to ping redis")
			os.Exit(1)
		}
		serviceOpts = append(serviceOpts, payment.WithLocker(locker.NewRedis(rdb)))

		redisOpt = asynq.RedisClientOpt{
			Addr:     redisConnAddr,
			PoolSize: redisPoolSize,
		}
		asynqClient := asynq.NewClient(redisOpt)
		defer asynqClient.Close()

		enq = payment.NewEnqueuer(asynqClient, statusCheckDelay, statusCheckMaxRetry)
	} else {
		level.Warn(logger).Log("msg", "REDIS_ADDR is not set, deferred status checks are disabled")
	}

	// Init payment service
	svc, err := payment.NewService(repo, lp, payment.Config{
		PaidStatus:             repository.OrderStatus(orderPaidStatus),
		Language:               liqpayLanguage,
		OrderDescription:       orderDescription,
		ResultURL:              strings.TrimRight(publicBaseURL, "/") + "/liqpay/return",
		ServerURL:              strings.TrimRight(publicBaseURL, "/") + "/liqpay/callback",
		RROEnabled:             rroEnabled,
		RROFallbackToProductID: rroFallbackProductID,
	}, serviceOpts...)
	if err != nil {
		level.Error(logger).Log("error", err, "msg", "failed to init payment service")
		os.Exit(1)
	}

	// Init event dispatcher
	eventLogger := kitlog.With(logger, "component", "events")
	dispatcher := events.NewDispatcher(eventLogger, 100)
	defer dispatcher.Close()
	for _, name := range []events.EventName{
		events.OrderPaid,
		events.OrderFailed,
		events.OrderRefunded,
		events.NotificationRejected,
		events.SignatureMismatch,
		events.CheckoutLinkGenerated,
		events.StatusCheckFailed,
	} {
		dispatcher.On(name, logEventListener(eventLogger, name))
	}

	paymentSvc := payment.NewServiceEvents(svc, dispatcher.Fire)

	// Init HTTP router
	r := initRouter(logger)

	// OAuth2 Middleware
	var authMdw func(next http.Handler) http.Handler
	if oauthSigningKey != "" {
		r.Mount("/oauth", auth.MakeHTTPHandler(
			auth.NewOAuth2Server(
				oauthSigningKey,
				accessTokenTTL,
				auth.NewVerifier(oauthClientID, oauthClientSec),
			),
		))
		authMdw = auth.Middleware(oauthSigningKey)
	} else {
		level.Warn(logger).Log("msg", "OAUTH_SIGNING_KEY is not set, merchant endpoints are not protected")
	}

	// Mount HTTP endpoints
	r.Mount("/", server.MakeHTTPHandler(
		server.MakeEndpoints(paymentSvc, enq, logger, server.Config{
			HomeURL:     homeURL,
			ThankYouURL: thankYouURL,
			ErrorURL:    errorURL,
			CartURL:     cartURL,
		}),
		logger, authMdw,
	))

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error { return dispatcher.Run(ctx) })
	if withRedis {
		eg.Go(runWorker(ctx, redisOpt, payment.NewWorker(paymentSvc)))
	}
	eg.Go(runServer(ctx, httpPort, r, logger))

	if err := eg.Wait(); err != nil {
		level.Error(logger).Log("error", err, "msg", "server stopped")
		os.Exit(1)
	}
}

// logEventListener logs every fired event.
func logEventListener(logger kitlog.Logger, name events.EventName) events.Listener {
	return func(payload ...interface{}) error {
		var p interface{}
		if len(payload) > 0 {
			p = payload[0]
		}
		lvl := level.Info
		if name == events.SignatureMismatch {
			lvl = level.Warn
		}
		return lvl(logger).Log("msg", "event fired", "event", name, "payload", p)
	}
}

// loadOrderFixtures reads the orders to seed the in-memory store with.
func loadOrderFixtures(path string) ([]repository.Order, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	return repository.LoadOrders(f)
}

func splitList(s string) []string {
	var result []string
	for _, v := range strings.Split(s, ",") {
		if v = strings.TrimSpace(v); v != "" {
			result = append(result, strings.ToUpper(v))
		}
	}
	return result
}

func ptr[T any](v T) *T { return &v }
