package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplayGuard_Seen(t *testing.T) {
	client := setupTestClient(t)
	guard := NewReplayGuard(client)
	ctx := context.Background()

	sig := "v0=a2114d57b48eac39b9ad189dd8316235a7b4a8d21a10bd27519666489c69b503"

	// First delivery: not seen
	seen, err := guard.Seen(ctx, sig, time.Minute)
	require.NoError(t, err)
	assert.False(t, seen)

	// Redelivery: seen
	seen, err = guard.Seen(ctx, sig, time.Minute)
	require.NoError(t, err)
	assert.True(t, seen)

	// Different signature: not seen
	seen, err = guard.Seen(ctx, "v0=00", time.Minute)
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestReplayGuard_KeyExpires(t *testing.T) {
	client := setupTestClient(t)
	guard := NewReplayGuard(client)
	ctx := context.Background()

	_, err := guard.Seen(ctx, "v0=ff", 5*time.Second)
	require.NoError(t, err)

	ttl, err := client.PTTL(ctx, replayKey("v0=ff")).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
	assert.LessOrEqual(t, ttl, 5*time.Second)
}

func TestReplayGuard_BackendError(t *testing.T) {
	client := setupTestClient(t)
	guard := NewReplayGuard(client)
	require.NoError(t, client.Close())

	_, err := guard.Seen(context.Background(), "v0=ff", time.Minute)
	assert.Error(t, err)
}
