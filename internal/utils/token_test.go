package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "unit-test-secret"

func TestSessionTokenRoundTrip(t *testing.T) {
	tok, err := NewSessionToken(testSecret, 42, 60)
	require.NoError(t, err)
	require.NotEmpty(t, tok.Token)

	userID, issuedAt, err := ParseSessionToken(testSecret, tok.Token)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), userID)
	// iat travels with second precision
	assert.Equal(t, tok.IssuedAt.Unix(), issuedAt.Unix())
}

func TestSessionTokenWrongSecret(t *testing.T) {
	tok, err := NewSessionToken(testSecret, 42, 60)
	require.NoError(t, err)

	_, _, err = ParseSessionToken("another-secret", tok.Token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestSessionTokenExpired(t *testing.T) {
	tok, err := NewSessionToken(testSecret, 42, -1)
	require.NoError(t, err)

	_, _, err = ParseSessionToken(testSecret, tok.Token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestSessionTokenGarbage(t *testing.T) {
	_, _, err := ParseSessionToken(testSecret, "not-a-jwt")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestNewResetToken(t *testing.T) {
	reset, err := NewResetToken(10 * time.Minute)
	require.NoError(t, err)

	assert.Len(t, reset.Raw, 64) // 32 random bytes hex encoded
	assert.Equal(t, HashResetRaw(reset.Raw), reset.Hash)
	assert.NotEqual(t, reset.Raw, reset.Hash)
	assert.WithinDuration(t, time.Now().UTC().Add(10*time.Minute), reset.Exp, 5*time.Second)

	again, err := NewResetToken(10 * time.Minute)
	require.NoError(t, err)
	assert.NotEqual(t, reset.Raw, again.Raw)
}

func TestHashResetRawDeterministic(t *testing.T) {
	assert.Equal(t, HashResetRaw("abc"), HashResetRaw("abc"))
	assert.NotEqual(t, HashResetRaw("abc"), HashResetRaw("abd"))
}
