package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	interfaces "github.com/sheikh-saqib/session-bank-ledger/internal/interfaces"
	"github.com/sheikh-saqib/session-bank-ledger/internal/models"
)

const keyPrefix = "bank:session:"

// RedisSessionStore keeps each session snapshot as a JSON string with a TTL.
type RedisSessionStore struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewRedisSessionStore(client redis.UniversalClient, ttl time.Duration) *RedisSessionStore {
	return &RedisSessionStore{client: client, ttl: ttl}
}

// Open dials a standalone redis and checks the connection.
func Open(ctx context.Context, addr, password string, db int, ttl time.Duration) (*RedisSessionStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	return NewRedisSessionStore(client, ttl), nil
}

func (r *RedisSessionStore) Load(ctx context.Context, sessionID string) (models.SessionState, bool, error) {
	var state models.SessionState

	data, err := r.client.Get(ctx, keyPrefix+sessionID).Bytes()
	if errors.Is(err, redis.Nil) {
		return state, false, nil
	}
	if err != nil {
		return state, false, err
	}

	if err := json.Unmarshal(data, &state); err != nil {
		return models.SessionState{}, false, fmt.Errorf("decode session %s: %w", sessionID, err)
	}
	return state, true, nil
}

// Save overwrites the snapshot and refreshes its TTL.
func (r *RedisSessionStore) Save(ctx context.Context, sessionID string, state models.SessionState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", sessionID, err)
	}
	return r.client.Set(ctx, keyPrefix+sessionID, data, r.ttl).Err()
}

func (r *RedisSessionStore) Delete(ctx context.Context, sessionID string) error {
	return r.client.Del(ctx, keyPrefix+sessionID).Err()
}

func (r *RedisSessionStore) Close() error {
	return r.client.Close()
}

var _ interfaces.SessionStore = (*RedisSessionStore)(nil)
