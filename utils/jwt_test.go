package utils

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avdeevm/blogapi/config"
)

func TestMain(m *testing.M) {
	os.Setenv("JWT_SECRET", "test-secret-key")
	config.Load()
	os.Exit(m.Run())
}

func TestGenerateAndParseAccessToken(t *testing.T) {
	token, err := GenerateAccessToken(42, "alice")
	require.NoError(t, err)

	claims, err := ParseToken(token)
	require.NoError(t, err)
	assert.EqualValues(t, 42, claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, TokenTypeAccess, claims.TokenType)
	assert.NotEmpty(t, claims.ID, "each token carries a unique jti")
}

func TestGenerateRefreshToken(t *testing.T) {
	token, err := GenerateRefreshToken(42, "alice")
	require.NoError(t, err)

	claims, err := ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, TokenTypeRefresh, claims.TokenType)
}

func TestTokenIDsAreUnique(t *testing.T) {
	a, err := GenerateAccessToken(1, "alice")
	require.NoError(t, err)
	b, err := GenerateAccessToken(1, "alice")
	require.NoError(t, err)

	ca, err := ParseToken(a)
	require.NoError(t, err)
	cb, err := ParseToken(b)
	require.NoError(t, err)
	assert.NotEqual(t, ca.ID, cb.ID)
}

func TestParseTokenRejectsTampering(t *testing.T) {
	token, err := GenerateAccessToken(42, "alice")
	require.NoError(t, err)

	tampered := token[:len(token)-2] + "xx"
	_, err = ParseToken(tampered)
	assert.Error(t, err)

	_, err = ParseToken("not-a-jwt")
	assert.Error(t, err)
}
