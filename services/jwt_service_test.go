package services

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTService_RoundTrip(t *testing.T) {
	svc := NewJWTService("test-secret")

	token, err := svc.GenerateToken(42, "jane@example.com", time.Hour)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, 42, claims.UserID)
	assert.Equal(t, "jane@example.com", claims.Email)
	assert.Equal(t, "42", claims.Subject)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, 5*time.Second)
}

func TestJWTService_DefaultTTL(t *testing.T) {
	svc := NewJWTService("test-secret")
	token, err := svc.GenerateToken(1, "", 0)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(DefaultTokenTTL), claims.ExpiresAt.Time, 5*time.Second)
}

func TestJWTService_Rejects(t *testing.T) {
	svc := NewJWTService("test-secret")

	other, err := NewJWTService("other-secret").GenerateToken(1, "", time.Hour)
	require.NoError(t, err)
	_, err = svc.ValidateToken(other)
	assert.Error(t, err)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID:           1,
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute))},
	})
	signed, err := expired.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, err = svc.ValidateToken(signed)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)

	noUser, err := svc.GenerateToken(0, "", time.Hour)
	require.NoError(t, err)
	_, err = svc.ValidateToken(noUser)
	assert.EqualError(t, err, "token has no user")

	_, err = svc.ValidateToken("not.a.token")
	assert.Error(t, err)
}
