package auth_test

import (
	"testing"
	"time"

	"go-ems/internal/auth"
	autherrors "go-ems/internal/auth/errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenManager(t *testing.T) {
	user := auth.User{ID: uuid.New(), Username: "ada", Email: "ada@x.com"}

	t.Run("round trip", func(t *testing.T) {
		m := auth.NewTokenManager("secret", "go-ems", time.Hour)

		token, exp, err := m.Issue(user)
		require.NoError(t, err)
		assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

		p, err := m.Verify(token)
		require.NoError(t, err)
		assert.Equal(t, user.ID.String(), p.UserID)
		assert.Equal(t, "ada", p.Username)
		assert.Equal(t, "ada@x.com", p.Email)
	})

	t.Run("expired", func(t *testing.T) {
		token, _, err := auth.NewTokenManager("secret", "go-ems", -time.Minute).Issue(user)
		require.NoError(t, err)

		_, err = auth.NewTokenManager("secret", "go-ems", time.Hour).Verify(token)

		assert.ErrorIs(t, err, autherrors.ErrTokenExpired)
	})

	t.Run("wrong secret", func(t *testing.T) {
		token, _, err := auth.NewTokenManager("other", "go-ems", time.Hour).Issue(user)
		require.NoError(t, err)

		_, err = auth.NewTokenManager("secret", "go-ems", time.Hour).Verify(token)

		assert.ErrorIs(t, err, autherrors.ErrInvalidToken)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		token, _, err := auth.NewTokenManager("secret", "someone-else", time.Hour).Issue(user)
		require.NoError(t, err)

		_, err = auth.NewTokenManager("secret", "go-ems", time.Hour).Verify(token)

		assert.ErrorIs(t, err, autherrors.ErrInvalidToken)
	})

	t.Run("unsigned token", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, auth.Claims{UserID: "x"}).
			SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = auth.NewTokenManager("secret", "go-ems", time.Hour).Verify(token)

		assert.ErrorIs(t, err, autherrors.ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := auth.NewTokenManager("secret", "go-ems", time.Hour).Verify("not-a-jwt")

		assert.ErrorIs(t, err, autherrors.ErrInvalidToken)
	})
}
