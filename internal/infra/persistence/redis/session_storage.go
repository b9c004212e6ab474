package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	domsession "example.com/storefront/internal/domain/session"
)

// SessionStorage maps each session to a redis hash under "session:<id>".
// The hash expires after ttl of inactivity; zero keeps it forever.
type SessionStorage struct {
	client *goredis.Client
	ttl    time.Duration
}

func NewSessionStorage(client *goredis.Client, ttl time.Duration) *SessionStorage {
	return &SessionStorage{client: client, ttl: ttl}
}

func hashKey(sessionID string) string {
	return "session:" + sessionID
}

func (r *SessionStorage) Get(ctx context.Context, sessionID, key string) (string, bool, error) {
	if sessionID == "" {
		return "", false, domsession.ErrMissingSession
	}
	v, err := r.client.HGet(ctx, hashKey(sessionID), key).Result()
	if errors.Is(err, goredis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("client.HGet: %w", err)
	}
	return v, true, nil
}

func (r *SessionStorage) Set(ctx context.Context, sessionID, key, value string) error {
	if sessionID == "" {
		return domsession.ErrMissingSession
	}
	hk := hashKey(sessionID)
	_, err := r.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.HSet(ctx, hk, key, value)
		if r.ttl > 0 {
			pipe.Expire(ctx, hk, r.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("client.TxPipelined: %w", err)
	}
	return nil
}

func (r *SessionStorage) Delete(ctx context.Context, sessionID string, keys ...string) error {
	if sessionID == "" {
		return domsession.ErrMissingSession
	}
	if len(keys) == 0 {
		return nil
	}
	if err := r.client.HDel(ctx, hashKey(sessionID), keys...).Err(); err != nil {
		return fmt.Errorf("client.HDel: %w", err)
	}
	return nil
}
