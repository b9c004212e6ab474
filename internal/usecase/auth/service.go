package auth

import (
	"context"
	"strconv"
	"strings"

	domsession "example.com/storefront/internal/domain/session"
)

// Claims is what the external login service vouches for.
type Claims struct {
	UserID int64
	Email  string
	Name   string
}

type TokenService interface {
	ParseToken(token string) (*Claims, error)
}

// Service hands a login over to the storefront session and reads it back.
type Service struct {
	storage domsession.Storage
	tokens  TokenService
}

func NewService(storage domsession.Storage, tokens TokenService) *Service {
	return &Service{
		storage: storage,
		tokens:  tokens,
	}
}

// Login verifies token and writes the identity into the session.
func (s *Service) Login(ctx context.Context, sessionID, token string) (domsession.Identity, error) {
	if sessionID == "" {
		return domsession.Identity{}, domsession.ErrMissingSession
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return domsession.Identity{}, domsession.ErrInvalidToken
	}

	claims, err := s.tokens.ParseToken(token)
	if err != nil || claims == nil {
		return domsession.Identity{}, domsession.ErrInvalidToken
	}
	email := strings.TrimSpace(strings.ToLower(claims.Email))
	if email == "" {
		return domsession.Identity{}, domsession.ErrInvalidToken
	}

	id := domsession.Identity{Email: email, Name: strings.TrimSpace(claims.Name)}
	if claims.UserID > 0 {
		id.UserID = strconv.FormatInt(claims.UserID, 10)
	}

	values := []struct{ key, value string }{
		{domsession.KeyUserEmail, id.Email},
		{domsession.KeyUserID, id.UserID},
		{domsession.KeyUserName, id.Name},
	}
	for _, kv := range values {
		if kv.value == "" {
			if err := s.storage.Delete(ctx, sessionID, kv.key); err != nil {
				return domsession.Identity{}, err
			}
			continue
		}
		if err := s.storage.Set(ctx, sessionID, kv.key, kv.value); err != nil {
			return domsession.Identity{}, err
		}
	}
	return id, nil
}

// Logout forgets the identity; the cart stays with the session.
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return domsession.ErrMissingSession
	}
	return s.storage.Delete(ctx, sessionID, domsession.KeyUserEmail, domsession.KeyUserID, domsession.KeyUserName)
}

func (s *Service) Identity(ctx context.Context, sessionID string) (domsession.Identity, error) {
	if sessionID == "" {
		return domsession.Identity{}, domsession.ErrMissingSession
	}

	var id domsession.Identity
	for key, dst := range map[string]*string{
		domsession.KeyUserEmail: &id.Email,
		domsession.KeyUserID:    &id.UserID,
		domsession.KeyUserName:  &id.Name,
	} {
		v, ok, err := s.storage.Get(ctx, sessionID, key)
		if err != nil {
			return domsession.Identity{}, err
		}
		if ok {
			*dst = v
		}
	}
	return id, nil
}
