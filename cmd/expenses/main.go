package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"expenses/internal/adapters"
	"expenses/internal/amqp"
	"expenses/internal/cli"
	apphttp "expenses/internal/http"
	applog "expenses/internal/log"
	"expenses/internal/middleware/auth"
)

func main() {
	cfg, logger := cli.Bootstrap(applog.ComponentApp, nil)
	defer logger.Close()

	ctx, stop := cli.SignalContext(context.Background(), logger)
	defer stop()

	l, store, err := cli.OpenLedger(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to open ledger", applog.FieldError, err, applog.FieldBackend, cfg.DataBackend)
		os.Exit(1)
	}
	defer store.Close()

	var publisher *adapters.EventPublisher
	if cfg.AMQPEnabled() {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger.Logger)
		if err != nil {
			// Notifications are optional; the ledger works without them.
			logger.Error("AMQP unavailable, change notifications disabled", applog.FieldError, err)
		} else {
			defer client.Close()
			publisher = adapters.NewEventPublisher(client, logger.Logger, 0)
			publisher.Attach(l)
			logger.Info("Publishing ledger events", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	srv := apphttp.NewServer(":"+cfg.Port, l, apphttp.Options{
		Logger:             logger,
		Auth:               auth.New(cfg.AuthJWTSecret),
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		SummaryCacheSize:   cfg.SummaryCacheSize,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting expenses server", "port", cfg.Port, applog.FieldBackend, cfg.DataBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		logger.Info("Shutting down server", "timeout", cfg.ShutdownTimeout)
		err := srv.Shutdown(shutdownCtx)
		if publisher != nil {
			if perr := publisher.Close(shutdownCtx); perr != nil {
				logger.Warn("Event publisher did not drain", applog.FieldError, perr)
			}
		}
		return err
	})

	start := time.Now()
	if err := g.Wait(); err != nil {
		logger.Error("Server error", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully", "uptime", time.Since(start).Round(time.Second))
}
