package helpers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTokenConfig() TokenConfig {
	return TokenConfig{
		AccessSecret:  "access-secret",
		AccessTTL:     15 * time.Minute,
		RefreshSecret: "refresh-secret",
		RefreshTTL:    240 * time.Hour,
	}
}

func TestNewJWTManagerMissingSecret(t *testing.T) {
	for name, cfg := range map[string]TokenConfig{
		"no access secret":  {RefreshSecret: "x", AccessTTL: time.Minute, RefreshTTL: time.Minute},
		"no refresh secret": {AccessSecret: "x", AccessTTL: time.Minute, RefreshTTL: time.Minute},
		"no secrets at all": {AccessTTL: time.Minute, RefreshTTL: time.Minute},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := NewJWTManager(cfg)
			assert.ErrorIs(t, err, ErrMissingSecret)
		})
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	m, err := NewJWTManager(testTokenConfig())
	require.NoError(t, err)

	token, exp, err := m.GenerateAccessToken("u1", "alice", "Alice A", "a@x.com")
	require.NoError(t, err)
	require.NotEmpty(t, token, "the signed token must be returned to the caller")
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), exp, 5*time.Second)

	claims, err := m.ParseAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "Alice A", claims.FullName)
	assert.Equal(t, "a@x.com", claims.Email)
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	m, err := NewJWTManager(testTokenConfig())
	require.NoError(t, err)

	token, exp, err := m.GenerateRefreshToken("u1")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(240*time.Hour), exp, 5*time.Second)

	claims, err := m.ParseRefreshToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
}

func TestTokensAreNotInterchangeable(t *testing.T) {
	m, err := NewJWTManager(testTokenConfig())
	require.NoError(t, err)

	access, _, err := m.GenerateAccessToken("u1", "alice", "Alice A", "a@x.com")
	require.NoError(t, err)
	refresh, _, err := m.GenerateRefreshToken("u1")
	require.NoError(t, err)

	// Signed with different secrets, so cross-parsing must fail.
	_, err = m.ParseRefreshToken(access)
	assert.Error(t, err)
	_, err = m.ParseAccessToken(refresh)
	assert.Error(t, err)
}

func TestParseRejectsForeignSignature(t *testing.T) {
	m1, err := NewJWTManager(testTokenConfig())
	require.NoError(t, err)
	cfg := testTokenConfig()
	cfg.AccessSecret = "different-secret"
	m2, err := NewJWTManager(cfg)
	require.NoError(t, err)

	token, _, err := m1.GenerateAccessToken("u1", "alice", "Alice A", "a@x.com")
	require.NoError(t, err)

	_, err = m2.ParseAccessToken(token)
	assert.Error(t, err)
}
