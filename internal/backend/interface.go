package backend

import (
	"context"

	"expenses/internal/storage"
)

// CleanupFunc releases resources held by a backend.
type CleanupFunc func() error

// BackendResult is the slot chosen by configuration plus its cleanup hook.
type BackendResult struct {
	Slot    storage.Slot
	Cleanup CleanupFunc
}

// Close runs Cleanup if there is one.
func (r *BackendResult) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

type Config struct {
	Type BackendType
	Slot string

	// file
	DataDirectory string

	// sqlite
	SQLiteDBPath string

	// redis
	RedisAddress   string
	RedisPassword  string
	RedisDB        int
	RedisKeyPrefix string
}

type BackendType string

const (
	MemoryBackend BackendType = "memory"
	FileBackend   BackendType = "file"
	SQLiteBackend BackendType = "sqlite"
	RedisBackend  BackendType = "redis"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, FileBackend, SQLiteBackend, RedisBackend:
		return true
	default:
		return false
	}
}
