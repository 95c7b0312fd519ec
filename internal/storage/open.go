// Package storage picks the session snapshot backend named in the config.
package storage

import (
	"context"
	"fmt"

	"github.com/sheikh-saqib/session-bank-ledger/internal/config"
	interfaces "github.com/sheikh-saqib/session-bank-ledger/internal/interfaces"
	"github.com/sheikh-saqib/session-bank-ledger/internal/storage/memory"
	"github.com/sheikh-saqib/session-bank-ledger/internal/storage/postgres"
	"github.com/sheikh-saqib/session-bank-ledger/internal/storage/redis"
)

// Open returns the configured store and a function that releases it.
func Open(ctx context.Context, cfg config.Config) (interfaces.SessionStore, func() error, error) {
	noop := func() error { return nil }

	switch cfg.StoreBackend {
	case config.BackendMemory:
		return memory.NewMemorySessionStore(cfg.SessionTTL), noop, nil

	case config.BackendRedis:
		store, err := redis.Open(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.SessionTTL)
		if err != nil {
			return nil, noop, err
		}
		return store, store.Close, nil

	case config.BackendPostgres:
		store, err := postgres.Open(ctx, cfg.DatabaseURL, cfg.SessionTTL)
		if err != nil {
			return nil, noop, err
		}
		return store, store.Close, nil
	}

	return nil, noop, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
}
