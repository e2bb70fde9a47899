// Package redis keeps slot payloads under plain string keys in Redis.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"expenses/internal/storage"
)

const defaultKeyPrefix = "expenses"

type Options struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

type Slot struct {
	client *goredis.Client
	name   string
	key    string
	owned  bool
}

// New connects to Redis and verifies the connection before returning.
func New(ctx context.Context, opts Options, name string) (*Slot, error) {
	if name == "" {
		return nil, errors.New("slot name is required")
	}
	client := goredis.NewClient(&goredis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", opts.Addr, err)
	}

	s := NewWithClient(client, opts.KeyPrefix, name)
	s.owned = true
	return s, nil
}

// NewWithClient wraps an existing client. Close leaves the client open.
func NewWithClient(client *goredis.Client, prefix, name string) *Slot {
	return &Slot{client: client, name: name, key: Key(prefix, name)}
}

// Key returns the Redis key used for the named slot.
func Key(prefix, name string) string {
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return prefix + ":" + name
}

func (s *Slot) Name() string { return s.name }

func (s *Slot) Key() string { return s.key }

func (s *Slot) Read(ctx context.Context) ([]byte, error) {
	b, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, storage.ErrSlotEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", s.key, err)
	}
	if len(b) == 0 {
		return nil, storage.ErrSlotEmpty
	}
	return b, nil
}

func (s *Slot) Write(ctx context.Context, payload []byte) error {
	if err := s.client.Set(ctx, s.key, payload, 0).Err(); err != nil {
		return fmt.Errorf("set %s: %w", s.key, err)
	}
	return nil
}

func (s *Slot) Close() error {
	if s.owned {
		return s.client.Close()
	}
	return nil
}
