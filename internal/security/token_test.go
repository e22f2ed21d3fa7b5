package security

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenManager(t *testing.T) {
	manager := NewTokenManager("test-secret")

	t.Run("Round trip", func(t *testing.T) {
		token, err := manager.GenerateAccessToken(42, "alice@example.com", []string{"sales"}, time.Hour)
		require.NoError(t, err)

		claims, err := manager.ValidateToken(token)
		require.NoError(t, err)
		assert.Equal(t, int32(42), claims.UserID)
		assert.Equal(t, "alice@example.com", claims.Email)
		assert.Equal(t, []string{"sales"}, claims.Roles)
	})

	t.Run("Expired token", func(t *testing.T) {
		token, err := manager.GenerateAccessToken(42, "alice@example.com", nil, -time.Minute)
		require.NoError(t, err)

		_, err = manager.ValidateToken(token)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("Wrong secret", func(t *testing.T) {
		other := NewTokenManager("other-secret")
		token, err := other.GenerateAccessToken(42, "alice@example.com", nil, time.Hour)
		require.NoError(t, err)

		_, err = manager.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("Garbage token", func(t *testing.T) {
		_, err := manager.ValidateToken("not-a-jwt")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
