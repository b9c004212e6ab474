// Package storagetest holds the behaviour every session storage driver must share.
package storagetest

import (
	"context"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/stretchr/testify/require"

	domsession "example.com/storefront/internal/domain/session"
)

func Run(t *testing.T, s domsession.Storage) {
	t.Helper()

	t.Run("missing key", func(t *testing.T) {
		_, ok, err := s.Get(context.Background(), gofakeit.UUID(), domsession.KeyCart)
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("set overwrites", func(t *testing.T) {
		ctx := context.Background()
		sid := gofakeit.UUID()

		require.NoError(t, s.Set(ctx, sid, domsession.KeyCart, `[]`))
		require.NoError(t, s.Set(ctx, sid, domsession.KeyCart, `[{"id":1,"quantity":2}]`))

		v, ok, err := s.Get(ctx, sid, domsession.KeyCart)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, `[{"id":1,"quantity":2}]`, v)
	})

	t.Run("sessions are isolated", func(t *testing.T) {
		ctx := context.Background()
		a, b := gofakeit.UUID(), gofakeit.UUID()
		emailA, emailB := gofakeit.Email(), gofakeit.Email()

		require.NoError(t, s.Set(ctx, a, domsession.KeyUserEmail, emailA))
		require.NoError(t, s.Set(ctx, b, domsession.KeyUserEmail, emailB))

		v, _, err := s.Get(ctx, a, domsession.KeyUserEmail)
		require.NoError(t, err)
		require.Equal(t, emailA, v)
		v, _, err = s.Get(ctx, b, domsession.KeyUserEmail)
		require.NoError(t, err)
		require.Equal(t, emailB, v)
	})

	t.Run("delete several keys", func(t *testing.T) {
		ctx := context.Background()
		sid := gofakeit.UUID()

		require.NoError(t, s.Set(ctx, sid, domsession.KeyUserEmail, gofakeit.Email()))
		require.NoError(t, s.Set(ctx, sid, domsession.KeyUserID, "7"))
		require.NoError(t, s.Set(ctx, sid, domsession.KeyCart, `[]`))

		require.NoError(t, s.Delete(ctx, sid, domsession.KeyUserEmail, domsession.KeyUserID))

		_, ok, err := s.Get(ctx, sid, domsession.KeyUserEmail)
		require.NoError(t, err)
		require.False(t, ok)
		_, ok, err = s.Get(ctx, sid, domsession.KeyUserID)
		require.NoError(t, err)
		require.False(t, ok)
		_, ok, err = s.Get(ctx, sid, domsession.KeyCart)
		require.NoError(t, err)
		require.True(t, ok)

		require.NoError(t, s.Delete(ctx, sid))
	})

	t.Run("empty session id", func(t *testing.T) {
		ctx := context.Background()
		_, _, err := s.Get(ctx, "", domsession.KeyCart)
		require.ErrorIs(t, err, domsession.ErrMissingSession)
		require.ErrorIs(t, s.Set(ctx, "", domsession.KeyCart, "[]"), domsession.ErrMissingSession)
		require.ErrorIs(t, s.Delete(ctx, "", domsession.KeyCart), domsession.ErrMissingSession)
	})
}
