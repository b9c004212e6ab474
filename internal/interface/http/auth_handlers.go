package http

import (
	"errors"
	"net/http"
	"strings"

	domsession "example.com/storefront/internal/domain/session"
)

var errMissingBearer = errors.New("missing bearer token")

// handleLogin takes over a login performed by the external login service:
// the bearer token it issued becomes the session identity.
func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
		respondError(w, http.StatusUnauthorized, errMissingBearer)
		return
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))

	id, err := a.authSvc.Login(r.Context(), getSessionID(r.Context()), token)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapIdentity(id))
}

func (a *API) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id, err := a.authSvc.Identity(r.Context(), getSessionID(r.Context()))
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapIdentity(id))
}

func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := a.authSvc.Logout(r.Context(), getSessionID(r.Context())); err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapIdentity(domsession.Identity{}))
}
