package auth_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/putrawicaksono/minibank/internal/auth"
)

func TestBcryptHasher(t *testing.T) {
	hasher := auth.NewBcryptHasher(bcrypt.MinCost)

	hash, err := hasher.Hash("rahasia-1")
	require.NoError(t, err)
	assert.NotEqual(t, "rahasia-1", hash)

	assert.NoError(t, hasher.Verify(hash, "rahasia-1"))
	assert.ErrorIs(t, hasher.Verify(hash, "salah"), auth.ErrSecretMismatch)
}

func TestTokenManagerRoundTrip(t *testing.T) {
	tokens := auth.NewTokenManager("test-secret", "minibank-test", time.Hour)

	token, err := tokens.Issue("1111111111")
	require.NoError(t, err)

	subject, err := tokens.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "1111111111", subject)
}

func TestTokenManagerRejectsBadTokens(t *testing.T) {
	tokens := auth.NewTokenManager("test-secret", "minibank-test", time.Hour)

	_, err := tokens.Verify("not-a-token")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	// Token signed with a different secret.
	other := auth.NewTokenManager("other-secret", "minibank-test", time.Hour)
	forged, err := other.Issue("1111111111")
	require.NoError(t, err)
	_, err = tokens.Verify(forged)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	// Expired token.
	expired := auth.NewTokenManager("test-secret", "minibank-test", -time.Minute)
	stale, err := expired.Issue("1111111111")
	require.NoError(t, err)
	_, err = tokens.Verify(stale)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}
