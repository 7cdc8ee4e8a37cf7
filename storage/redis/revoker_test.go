package redisstore

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*Revoker, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	r, err := NewRevoker(context.Background(), "redis://"+mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r, mr
}

func TestRevoker(t *testing.T) {
	ctx := context.Background()
	r, mr := setup(t)

	revoked, err := r.IsTokenRevoked(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, r.RevokeToken(ctx, "abc", time.Now().Add(time.Hour)))
	revoked, err = r.IsTokenRevoked(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, revoked)
	assert.True(t, mr.Exists(keyPrefix+"abc"))

	// gone once the token would have expired
	mr.FastForward(2 * time.Hour)
	revoked, err = r.IsTokenRevoked(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestRevoker_expiredToken(t *testing.T) {
	ctx := context.Background()
	r, mr := setup(t)

	require.NoError(t, r.RevokeToken(ctx, "old", time.Now().Add(-time.Minute)))
	assert.False(t, mr.Exists(keyPrefix+"old"))
}

func TestNewRevoker_badURL(t *testing.T) {
	_, err := NewRevoker(context.Background(), "not-a-url")
	assert.Error(t, err)
}
