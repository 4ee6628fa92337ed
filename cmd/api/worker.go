package main

import (
	"context"
	"fmt"

	"github.com/easypmnt/liqpay-gateway/payment"
	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"
)

// newWorkerLogger returns the logger used by the asynq server.
func newWorkerLogger() *logrus.Logger {
	l := logrus.New()
	l.SetFormatter(&logrus.JSONFormatter{})
	l.SetLevel(logrus.InfoLevel)
	if appDebug {
		l.SetLevel(logrus.DebugLevel)
	}
	return l
}

// runWorker runs the deferred status check worker until ctx is done.
func runWorker(ctx context.Context, redisOpt asynq.RedisClientOpt, w *payment.Worker) func() error {
	return func() error {
		logLevel := asynq.InfoLevel
		if appDebug {
			logLevel = asynq.DebugLevel
		}

		srv := asynq.NewServer(redisOpt, asynq.Config{
			Concurrency: workerConcurrency,
			Logger:      newWorkerLogger(),
			LogLevel:    logLevel,
			Queues:      map[string]int{"default": 1},
		})

		mux := asynq.NewServeMux()
		w.Register(mux)

		if err := srv.Start(mux); err != nil {
			return fmt.Errorf("worker: %w", err)
		}

		<-ctx.Done()
		srv.Shutdown()

		return nil
	}
}
