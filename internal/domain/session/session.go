package session

import (
	"context"
	"strconv"
	"strings"
)

// Storage keys shared with the login flow and the cart.
const (
	KeyCart      = "shoplane_cart"
	KeyUserEmail = "userEmail"
	KeyUserID    = "userId"
	KeyUserName  = "userName"
)

// Storage is a per-session key-value store, the server-side counterpart
// of the browser's localStorage.
type Storage interface {
	Get(ctx context.Context, sessionID, key string) (string, bool, error)
	Set(ctx context.Context, sessionID, key, value string) error
	Delete(ctx context.Context, sessionID string, keys ...string) error
}

type Identity struct {
	Email  string
	UserID string
	Name   string
}

func (i Identity) LoggedIn() bool {
	return strings.TrimSpace(i.Email) != ""
}

// NumericUserID parses the stored user id, falling back to def when the
// value is missing or not a positive integer.
func (i Identity) NumericUserID(def int64) int64 {
	id, err := strconv.ParseInt(strings.TrimSpace(i.UserID), 10, 64)
	if err != nil || id <= 0 {
		return def
	}
	return id
}

// DisplayName falls back to def for anonymous names.
func (i Identity) DisplayName(def string) string {
	if strings.TrimSpace(i.Name) == "" {
		return def
	}
	return i.Name
}
