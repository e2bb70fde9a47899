// Package cli holds the start-up steps shared by the binaries under cmd/.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"expenses/internal/backend"
	"expenses/internal/config"
	"expenses/internal/ledger"
	applog "expenses/internal/log"
	"expenses/internal/storage"
)

// LoadEnvFile loads .env for local development. A missing file is fine.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadConfig reads the environment and validates the result.
func LoadConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SetupLogger builds the process logger from cfg and installs it as the
// slog default. A nil out writes to stdout or the configured log file.
func SetupLogger(cfg *config.Config, component string, out io.Writer) (*applog.Logger, error) {
	level, err := applog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	lc := applog.DefaultConfig()
	lc.Level = level
	lc.Format = cfg.LogFormat
	lc.Component = component
	lc.File = cfg.LogFile
	if cfg.LogFile == "" {
		lc.Output = out
	}

	logger := applog.New(lc)
	applog.SetDefault(logger)
	return logger, nil
}

// Bootstrap runs the common start-up sequence: .env, config, logger. Config
// errors are printed to stderr since no logger exists yet.
func Bootstrap(component string, logOut io.Writer) (*config.Config, *applog.Logger) {
	LoadEnvFile()
	cfg, err := LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error:\n%v\n", err)
		os.Exit(1)
	}
	logger, err := SetupLogger(cfg, component, logOut)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging setup: %v\n", err)
		os.Exit(1)
	}
	return cfg, logger
}

// OpenLedger creates the configured slot and returns an initialized ledger
// over it. The caller closes the returned backend.
func OpenLedger(ctx context.Context, cfg *config.Config, logger *applog.Logger) (*ledger.Ledger, *backend.BackendResult, error) {
	bc, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("backend config: %w", err)
	}
	res, err := backend.NewFactory(logger.Logger).CreateBackend(ctx, bc)
	if err != nil {
		return nil, nil, fmt.Errorf("create %s backend: %w", bc.Type, err)
	}

	l := ledger.New(storage.NewAdapter(res.Slot, logger.Logger), ledger.WithLogger(logger.Logger))
	if err := l.Initialize(ctx); err != nil {
		_ = res.Close()
		return nil, nil, fmt.Errorf("initialize ledger: %w", err)
	}
	return l, res, nil
}

// SignalContext is cancelled on SIGINT or SIGTERM. The signal is logged.
func SignalContext(parent context.Context, logger *applog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
