package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testManager() *TokenManager {
	return NewTokenManager("access-secret", "refresh-secret",
		15*time.Minute, 7*24*time.Hour)
}

func testPayload() TokenPayload {
	return TokenPayload{UserID: 42, Username: "budi", Email: "budi@example.com", IsAdmin: true}
}

func TestTokenRoundTrip(t *testing.T) {
	m := testManager()

	access, err := m.GenerateAccessToken(testPayload())
	require.NoError(t, err)

	claims, err := m.ParseAccessToken(access)
	require.NoError(t, err)
	require.Equal(t, uint(42), claims.UserID)
	require.Equal(t, "budi", claims.Username)
	require.Equal(t, "budi@example.com", claims.Email)
	require.True(t, claims.IsAdmin)
	require.Equal(t, testPayload(), claims.Payload())
}

func TestTokenClassesUseSeparateSecrets(t *testing.T) {
	m := testManager()

	pair, err := m.GeneratePair(testPayload())
	require.NoError(t, err)

	// An access token must not verify as a refresh token, and vice versa.
	_, err = m.ParseRefreshToken(pair.AccessToken)
	require.Error(t, err)
	_, err = m.ParseAccessToken(pair.RefreshToken)
	require.Error(t, err)

	_, err = m.ParseAccessToken(pair.AccessToken)
	require.NoError(t, err)
	_, err = m.ParseRefreshToken(pair.RefreshToken)
	require.NoError(t, err)
}

func TestBackToBackTokensAreDistinct(t *testing.T) {
	m := testManager()

	// Same identity, same second: the jti still has to make the tokens
	// differ, otherwise rotating a refresh token would hand back the old
	// string and never revoke it.
	first, err := m.GenerateRefreshToken(testPayload())
	require.NoError(t, err)
	second, err := m.GenerateRefreshToken(testPayload())
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	pair, err := m.GeneratePair(testPayload())
	require.NoError(t, err)
	require.NotEqual(t, pair.AccessToken, pair.RefreshToken)
}

func TestExpiredTokenRejected(t *testing.T) {
	m := NewTokenManager("access-secret", "refresh-secret",
		-time.Minute, -time.Minute)

	access, err := m.GenerateAccessToken(testPayload())
	require.NoError(t, err)

	_, err = m.ParseAccessToken(access)
	require.Error(t, err)
}

func TestTamperedTokenRejected(t *testing.T) {
	m := testManager()

	access, err := m.GenerateAccessToken(testPayload())
	require.NoError(t, err)

	_, err = m.ParseAccessToken(access + "x")
	require.Error(t, err)
}

func TestForeignSecretRejected(t *testing.T) {
	m := testManager()
	other := NewTokenManager("other-access", "other-refresh",
		15*time.Minute, 7*24*time.Hour)

	access, err := other.GenerateAccessToken(testPayload())
	require.NoError(t, err)

	_, err = m.ParseAccessToken(access)
	require.Error(t, err)
}
