package backend

import (
	"context"
	"fmt"
	"log/slog"

	applog "expenses/internal/log"
	"expenses/internal/storage/file"
	"expenses/internal/storage/memory"
	redisslot "expenses/internal/storage/redis"
	"expenses/internal/storage/sqlite"
)

type DefaultFactory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger.With(applog.FieldComponent, applog.ComponentBackend),
	}
}

func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case MemoryBackend:
		return f.createMemoryBackend(config)
	case FileBackend:
		return f.createFileBackend(config)
	case SQLiteBackend:
		return f.createSQLiteBackend(config)
	case RedisBackend:
		return f.createRedisBackend(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createMemoryBackend(config Config) (*BackendResult, error) {
	f.logger.Warn("Using in-memory slot, data will not survive a restart", applog.FieldSlot, config.Slot)
	return &BackendResult{Slot: memory.New(config.Slot)}, nil
}

func (f *DefaultFactory) createFileBackend(config Config) (*BackendResult, error) {
	slot, err := file.New(config.DataDirectory, config.Slot)
	if err != nil {
		return nil, fmt.Errorf("initialize file slot: %w", err)
	}
	f.logger.Info("Initialized file backend", "path", slot.Path(), applog.FieldSlot, config.Slot)
	return &BackendResult{Slot: slot}, nil
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	slot, err := sqlite.Open(config.SQLiteDBPath, config.Slot)
	if err != nil {
		return nil, fmt.Errorf("initialize sqlite slot: %w", err)
	}
	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath, applog.FieldSlot, config.Slot)
	return &BackendResult{Slot: slot, Cleanup: slot.Close}, nil
}

func (f *DefaultFactory) createRedisBackend(ctx context.Context, config Config) (*BackendResult, error) {
	slot, err := redisslot.New(ctx, redisslot.Options{
		Addr:      config.RedisAddress,
		Password:  config.RedisPassword,
		DB:        config.RedisDB,
		KeyPrefix: config.RedisKeyPrefix,
	}, config.Slot)
	if err != nil {
		return nil, fmt.Errorf("initialize redis slot: %w", err)
	}
	f.logger.Info("Initialized Redis backend", "address", config.RedisAddress, "key", slot.Key())
	return &BackendResult{Slot: slot, Cleanup: slot.Close}, nil
}
