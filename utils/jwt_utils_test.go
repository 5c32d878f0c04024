package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidateToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	token, err := GenerateToken("64f1c2a9e4b0a1b2c3d4e5f6")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "64f1c2a9e4b0a1b2c3d4e5f6", claims.UserID)
	require.NotNil(t, claims.ExpiresAt)
	assert.True(t, claims.ExpiresAt.After(time.Now()))
}

func TestValidateTokenRejectsTampered(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	token, err := GenerateToken("64f1c2a9e4b0a1b2c3d4e5f6")
	require.NoError(t, err)

	_, err = ValidateToken(token + "x")
	assert.Error(t, err)
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret-one")
	token, err := GenerateToken("64f1c2a9e4b0a1b2c3d4e5f6")
	require.NoError(t, err)

	t.Setenv("JWT_SECRET", "secret-two")
	_, err = ValidateToken(token)
	assert.Error(t, err)
}

func TestTokenLifetimeFromEnv(t *testing.T) {
	t.Setenv("JWT_EXPIRES_IN", "2h")
	assert.Equal(t, 2*time.Hour, tokenLifetime())

	t.Setenv("JWT_EXPIRES_IN", "bogus")
	assert.Equal(t, defaultTokenLifetime, tokenLifetime())

	t.Setenv("JWT_EXPIRES_IN", "")
	assert.Equal(t, defaultTokenLifetime, tokenLifetime())
}
