package security

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	authuc "example.com/storefront/internal/usecase/auth"
)

func TestJWTService_RoundTrip(t *testing.T) {
	svc := NewJWTService("secret", time.Hour)

	token, err := svc.GenerateToken(authuc.Claims{UserID: 42, Email: "asha@example.com", Name: "Asha"})
	require.NoError(t, err)

	claims, err := svc.ParseToken(token)
	require.NoError(t, err)
	require.Equal(t, &authuc.Claims{UserID: 42, Email: "asha@example.com", Name: "Asha"}, claims)
}

func TestJWTService_Rejects(t *testing.T) {
	svc := NewJWTService("secret", time.Hour)

	other, err := NewJWTService("other", time.Hour).GenerateToken(authuc.Claims{Email: "a@b.c"})
	require.NoError(t, err)
	expired, err := NewJWTService("secret", -time.Minute).GenerateToken(authuc.Claims{Email: "a@b.c"})
	require.NoError(t, err)
	noEmail, err := svc.GenerateToken(authuc.Claims{UserID: 1})
	require.NoError(t, err)
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"email": "a@b.c"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	for name, token := range map[string]string{
		"wrong secret": other,
		"expired":      expired,
		"no email":     noEmail,
		"alg none":     none,
		"garbage":      "not-a-token",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.ParseToken(token)
			require.Error(t, err)
		})
	}
}

func TestJWTService_RequiresSecret(t *testing.T) {
	svc := NewJWTService("", time.Hour)

	_, err := svc.GenerateToken(authuc.Claims{Email: "a@b.c"})
	require.ErrorIs(t, err, errNoSecret)
	_, err = svc.ParseToken("anything")
	require.ErrorIs(t, err, errNoSecret)
}
