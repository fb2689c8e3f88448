package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	svc := NewJWTService("test-secret", time.Hour, 24*time.Hour)
	userID := uuid.New()

	pair, err := svc.GenerateTokenPair(userID, "admin@example.com", "admin")
	require.NoError(t, err)
	require.Equal(t, "Bearer", pair.TokenType)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)

	claims, err := svc.ValidateToken(pair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, userID, claims.UserID)
	require.Equal(t, "admin@example.com", claims.Email)
	require.Equal(t, "admin", claims.Role)
}

func TestValidateTokenFailures(t *testing.T) {
	svc := NewJWTService("test-secret", time.Hour, 24*time.Hour)

	t.Run("garbage token", func(t *testing.T) {
		_, err := svc.ValidateToken("not.a.jwt")
		require.Error(t, err)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewJWTService("other-secret", time.Hour, 24*time.Hour)
		pair, err := other.GenerateTokenPair(uuid.New(), "x@example.com", "admin")
		require.NoError(t, err)

		_, err = svc.ValidateToken(pair.AccessToken)
		require.Error(t, err)
	})

	t.Run("expired token", func(t *testing.T) {
		short := NewJWTService("test-secret", time.Nanosecond, 24*time.Hour)
		pair, err := short.GenerateTokenPair(uuid.New(), "x@example.com", "admin")
		require.NoError(t, err)

		time.Sleep(10 * time.Millisecond)
		_, err = short.ValidateToken(pair.AccessToken)
		require.Error(t, err)
	})
}

func TestRefreshAccessToken(t *testing.T) {
	svc := NewJWTService("test-secret", time.Hour, 24*time.Hour)
	userID := uuid.New()

	pair, err := svc.GenerateTokenPair(userID, "admin@example.com", "admin")
	require.NoError(t, err)

	renewed, err := svc.RefreshAccessToken(pair.RefreshToken, "admin@example.com", "admin")
	require.NoError(t, err)

	claims, err := svc.ValidateToken(renewed.AccessToken)
	require.NoError(t, err)
	require.Equal(t, userID, claims.UserID)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("sup3r-secret")
	require.NoError(t, err)
	require.NotEqual(t, "sup3r-secret", hash)

	require.True(t, CheckPassword("sup3r-secret", hash))
	require.False(t, CheckPassword("wrong", hash))
}
