package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager() *JWTManager {
	return NewJWTManager("test-secret-key-with-enough-bytes!", "notification-hub", "notification-hub-clients", 15*time.Minute, 24*time.Hour)
}

func TestAccessTokenRoundTrip(t *testing.T) {
	m := newTestManager()

	token, expiresAt, err := m.GenerateAccessToken("user-1", "USER")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), expiresAt, 5*time.Second)

	claims, err := m.ParseToken(token, TokenTypeAccess)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "USER", claims.Role)
}

func TestTokenTypeIsEnforced(t *testing.T) {
	m := newTestManager()

	appToken, _, err := m.GenerateAppToken("billing-app")
	require.NoError(t, err)

	_, err = m.ParseToken(appToken, TokenTypeAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)

	claims, err := m.ParseToken(appToken, TokenTypeApp)
	require.NoError(t, err)
	assert.Equal(t, "billing-app", claims.Subject)
}

func TestExpiredTokenIsRejected(t *testing.T) {
	m := newTestManager()
	m.now = func() time.Time { return time.Now().Add(-time.Hour) }
	token, _, err := m.GenerateAccessToken("user-1", "USER")
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.ParseToken(token, TokenTypeAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestForeignSignatureIsRejected(t *testing.T) {
	other := NewJWTManager("another-secret-key-with-enough-bytes", "notification-hub", "notification-hub-clients", time.Minute, time.Minute)
	token, _, err := other.GenerateAccessToken("user-1", "USER")
	require.NoError(t, err)

	_, err = newTestManager().ParseToken(token, TokenTypeAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestGarbageIsRejected(t *testing.T) {
	_, err := newTestManager().ParseToken("not-a-jwt", TokenTypeAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
