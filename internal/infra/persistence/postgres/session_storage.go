package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	domsession "example.com/storefront/internal/domain/session"
)

const schema = `
CREATE TABLE IF NOT EXISTS session_values (
    session_id TEXT        NOT NULL,
    k          TEXT        NOT NULL,
    v          TEXT        NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    PRIMARY KEY (session_id, k)
)`

type SessionStorage struct {
	pool *pgxpool.Pool
}

func NewSessionStorage(pool *pgxpool.Pool) *SessionStorage {
	return &SessionStorage{pool: pool}
}

func (r *SessionStorage) Migrate(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("pool.Exec: %w", err)
	}
	return nil
}

func (r *SessionStorage) Get(ctx context.Context, sessionID, key string) (string, bool, error) {
	if sessionID == "" {
		return "", false, domsession.ErrMissingSession
	}

	var v string
	err := r.pool.QueryRow(ctx,
		`SELECT v FROM session_values WHERE session_id = $1 AND k = $2`,
		sessionID, key,
	).Scan(&v)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("pool.QueryRow: %w", err)
	}
	return v, true, nil
}

func (r *SessionStorage) Set(ctx context.Context, sessionID, key, value string) error {
	if sessionID == "" {
		return domsession.ErrMissingSession
	}

	_, err := r.pool.Exec(ctx, `
        INSERT INTO session_values (session_id, k, v)
        VALUES ($1, $2, $3)
        ON CONFLICT (session_id, k) DO UPDATE SET v = EXCLUDED.v, updated_at = now()
    `, sessionID, key, value)
	if err != nil {
		return fmt.Errorf("pool.Exec: %w", err)
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

	_, err := r.pool.Exec(ctx,
		`DELETE FROM session_values WHERE session_id = $1 AND k = ANY($2)`,
		sessionID, keys,
	)
	if err != nil {
		return fmt.Errorf("pool.Exec: %w", err)
	}
	return nil
}
