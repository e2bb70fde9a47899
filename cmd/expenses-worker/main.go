package main

import (
	"context"
	"errors"
	"os"

	"golang.org/x/sync/errgroup"

	"expenses/internal/amqp"
	"expenses/internal/cli"
	applog "expenses/internal/log"
	"expenses/internal/worker"
)

func main() {
	cfg, logger := cli.Bootstrap(applog.ComponentWorker, nil)
	defer logger.Close()

	if !cfg.AMQPEnabled() {
		logger.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}

	ctx, stop := cli.SignalContext(context.Background(), logger)
	defer stop()

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger.Logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
		os.Exit(1)
	}
	defer client.Close()

	audit := worker.NewAuditWorker(logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting expenses-worker", "queue", cfg.AMQPQueue)
		return client.Consume(gctx, audit.Handle)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete", "events", audit.Count())
}
