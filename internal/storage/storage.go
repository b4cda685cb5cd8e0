// Package storage holds the durable key/value backends used for the
// persisted organizer session.
package storage

import (
	"context"
	"errors"
	"fmt"

	"storefront/utils"

	"github.com/rs/zerolog"
)

// ErrNotConfigured is returned by operations on a nil or closed store.
var ErrNotConfigured = errors.New("storage is not configured")

// Store is a small string key/value store. Get reports absence with ok=false
// and a nil error.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
	Ping(ctx context.Context) error
	Close() error
}

type Config struct {
	Driver     string
	SQLitePath string
	RedisURL   string
	KeyPrefix  string
}

// Open builds the store selected by cfg.Driver.
func Open(ctx context.Context, cfg Config, log zerolog.Logger) (Store, error) {
	switch cfg.Driver {
	case "", "sqlite":
		return OpenSQLite(cfg.SQLitePath)
	case "redis":
		client, err := utils.NewRedisClient(ctx, cfg.RedisURL, log)
		if err != nil {
			return nil, err
		}
		return NewRedisStore(client, cfg.KeyPrefix), nil
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
