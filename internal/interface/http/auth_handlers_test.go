package http

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	domsession "example.com/storefront/internal/domain/session"
)

func TestSession_LoginAndLogout(t *testing.T) {
	env := setupAPI(t)
	env.login(t)

	rec := env.do(t, http.MethodGet, "/api/v1/session", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody(t, rec)
	require.Equal(t, "asha@example.com", resp["email"])
	require.Equal(t, "42", resp["user_id"])
	require.Equal(t, true, resp["logged_in"])

	email, ok, err := env.storage.Get(t.Context(), testSID, domsession.KeyUserEmail)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "asha@example.com", email)

	rec = env.do(t, http.MethodDelete, "/api/v1/session", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, false, decodeBody(t, rec)["logged_in"])

	_, ok, err = env.storage.Get(t.Context(), testSID, domsession.KeyUserEmail)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestSession_LoginRejected(t *testing.T) {
	env := setupAPI(t)

	rec := env.do(t, http.MethodPost, "/api/v1/session", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/session", nil, "Authorization", "Bearer not-a-token")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, domsession.ErrInvalidToken.Error(), decodeBody(t, rec)["error"])
}
