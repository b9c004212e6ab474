package session

import "errors"

var (
	ErrMissingSession = errors.New("session id is empty")
	ErrInvalidToken   = errors.New("invalid login token")
)
