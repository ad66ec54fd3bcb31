package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setSecret(t *testing.T, secret string) {
	t.Helper()
	viper.Set("auth.jwt_secret", secret)
	t.Cleanup(func() { viper.Set("auth.jwt_secret", "") })
}

func TestSignAndParseToken(t *testing.T) {
	setSecret(t, "test-secret")

	userID := uuid.New()
	token, err := SignToken(userID, "owner@example.com", time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.UserID)
	assert.Equal(t, "owner@example.com", claims.Email)
}

func TestParseToken_WrongSecret(t *testing.T) {
	setSecret(t, "test-secret")
	token, err := SignToken(uuid.New(), "owner@example.com", time.Hour)
	require.NoError(t, err)

	viper.Set("auth.jwt_secret", "other-secret")
	_, err = ParseToken(token)
	assert.Error(t, err)
}

func TestParseToken_Expired(t *testing.T) {
	setSecret(t, "test-secret")
	token, err := SignToken(uuid.New(), "owner@example.com", -time.Minute)
	require.NoError(t, err)

	_, err = ParseToken(token)
	assert.Error(t, err)
}

func TestParseToken_Garbage(t *testing.T) {
	setSecret(t, "test-secret")

	_, err := ParseToken("not.a.token")
	assert.Error(t, err)
}
