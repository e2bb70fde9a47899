package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"expenses/internal/cli"
	"expenses/internal/config"
	"expenses/internal/core"
	applog "expenses/internal/log"
	"expenses/internal/middleware/auth"
	"expenses/internal/storage"
)

// ledgerAPI is the part of the ledger the commands drive.
type ledgerAPI interface {
	List() ([]core.Expense, error)
	Get(ctx context.Context, id string) (core.Expense, error)
	Add(ctx context.Context, d core.Draft) (core.Expense, error)
	Update(ctx context.Context, id string, d core.Draft) (core.Expense, error)
	Remove(ctx context.Context, id string) error
	Revision() uint64
}

// app carries what commands need. Everything is resolved lazily so that
// commands like "categories" work without a configured backend.
type app struct {
	openLedger func(ctx context.Context) (ledgerAPI, func() error, error)
	authSecret func() (string, error)
	now        func() time.Time

	ledger ledgerAPI
	closer func() error
}

func newEnvApp() *app {
	var (
		cfg    *config.Config
		logger *applog.Logger
	)
	setup := func() error {
		if cfg != nil {
			return nil
		}
		cli.LoadEnvFile()
		c, err := cli.LoadConfig()
		if err != nil {
			return fmt.Errorf("configuration error:\n%w", err)
		}
		// Logs go to stderr so tables on stdout stay clean.
		l, err := cli.SetupLogger(c, applog.ComponentCLI, os.Stderr)
		if err != nil {
			return err
		}
		cfg, logger = c, l
		return nil
	}

	return &app{
		openLedger: func(ctx context.Context) (ledgerAPI, func() error, error) {
			if err := setup(); err != nil {
				return nil, nil, err
			}
			l, res, err := cli.OpenLedger(ctx, cfg, logger)
			if err != nil {
				return nil, nil, err
			}
			return l, func() error {
				err := res.Close()
				_ = logger.Close()
				return err
			}, nil
		},
		authSecret: func() (string, error) {
			if err := setup(); err != nil {
				return "", err
			}
			return cfg.AuthJWTSecret, nil
		},
		now: time.Now,
	}
}

// use opens the ledger on first call.
func (a *app) use(cmd *cobra.Command) (ledgerAPI, error) {
	if a.ledger != nil {
		return a.ledger, nil
	}
	l, closer, err := a.openLedger(cmd.Context())
	if err != nil {
		return nil, err
	}
	a.ledger, a.closer = l, closer
	return l, nil
}

func (a *app) close() error {
	if a.closer == nil {
		return nil
	}
	err := a.closer()
	a.ledger, a.closer = nil, nil
	return err
}

// checkSaved turns a persistence warning into a command error: a one-shot
// process has no later chance to write the change.
func checkSaved(err error) error {
	if errors.Is(err, storage.ErrPersistenceWrite) {
		return fmt.Errorf("change was not saved: %w", err)
	}
	return err
}

func (a *app) signToken(subject string, ttl time.Duration) (string, error) {
	secret, err := a.authSecret()
	if err != nil {
		return "", err
	}
	if secret == "" {
		return "", errors.New("AUTH_JWT_SECRET is not set; the API accepts unauthenticated requests")
	}
	return auth.New(secret).Sign(subject, ttl)
}
