package myjwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssuerRoundTrip(t *testing.T) {
	iss, err := NewIssuer("secret", "VectorOps", 1)
	require.NoError(t, err)

	tok, err := iss.GenerateToken("u-1", "alice")
	require.NoError(t, err)

	claims, err := iss.ParseToken(tok)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.Uuid)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "VectorOps", claims.Issuer)
}

func TestIssuerRejectsOtherKey(t *testing.T) {
	a, err := NewIssuer("key-a", "", 1)
	require.NoError(t, err)
	b, err := NewIssuer("key-b", "", 1)
	require.NoError(t, err)

	tok, err := a.GenerateToken("u-1", "alice")
	require.NoError(t, err)

	_, err = b.ParseToken(tok)
	assert.Error(t, err)
}

func TestIssuerExpiry(t *testing.T) {
	iss, err := NewIssuer("secret", "", 1)
	require.NoError(t, err)

	base := time.Now()
	iss.now = func() time.Time { return base }
	tok, err := iss.GenerateToken("u-1", "alice")
	require.NoError(t, err)

	iss.now = func() time.Time { return base.Add(2 * time.Hour) }
	_, err = iss.ParseToken(tok)
	assert.Error(t, err)
}

func TestRevoke(t *testing.T) {
	iss, err := NewIssuer("secret", "", 1)
	require.NoError(t, err)

	tok, err := iss.GenerateToken("u-1", "alice")
	require.NoError(t, err)
	require.NoError(t, iss.Revoke(tok))

	_, err = iss.ParseToken(tok)
	assert.ErrorIs(t, err, ErrRevokedToken)

	assert.ErrorIs(t, iss.Revoke(tok), ErrRevokedToken)
}

func TestNewIssuerEmptyKey(t *testing.T) {
	_, err := NewIssuer("  ", "", 1)
	assert.ErrorIs(t, err, ErrEmptyKey)
}
