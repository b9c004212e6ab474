package mysql

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	domsession "example.com/storefront/internal/domain/session"
)

const schema = `
CREATE TABLE IF NOT EXISTS session_values (
    session_id VARCHAR(64)  NOT NULL,
    k          VARCHAR(128) NOT NULL,
    v          MEDIUMTEXT   NOT NULL,
    updated_at TIMESTAMP    NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
    PRIMARY KEY (session_id, k)
)`

type SessionStorage struct {
	db *sql.DB
}

func NewSessionStorage(db *sql.DB) *SessionStorage {
	return &SessionStorage{db: db}
}

func (r *SessionStorage) Migrate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, schema)
	return err
}

func (r *SessionStorage) Get(ctx context.Context, sessionID, key string) (string, bool, error) {
	if sessionID == "" {
		return "", false, domsession.ErrMissingSession
	}
	row := r.db.QueryRowContext(ctx, `
        SELECT v FROM session_values
        WHERE session_id = ? AND k = ?
    `, sessionID, key)

	var v string
	if err := row.Scan(&v); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return v, true, nil
}

func (r *SessionStorage) Set(ctx context.Context, sessionID, key, value string) error {
	if sessionID == "" {
		return domsession.ErrMissingSession
	}
	_, err := r.db.ExecContext(ctx, `
        INSERT INTO session_values (session_id, k, v)
        VALUES (?, ?, ?)
        ON DUPLICATE KEY UPDATE v = VALUES(v)
    `, sessionID, key, value)
	return err
}

func (r *SessionStorage) Delete(ctx context.Context, sessionID string, keys ...string) error {
	if sessionID == "" {
		return domsession.ErrMissingSession
	}
	if len(keys) == 0 {
		return nil
	}
	query := `DELETE FROM session_values WHERE session_id = ? AND k IN (?` + strings.Repeat(",?", len(keys)-1) + `)`
	args := make([]any, 0, len(keys)+1)
	args = append(args, sessionID)
	for _, k := range keys {
		args = append(args, k)
	}
	_, err := r.db.ExecContext(ctx, query, args...)
	return err
}
