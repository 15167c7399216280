package domain

import (
	"context"
	"time"
)

// ReplayGuard remembers webhook signatures that were already accepted.
type ReplayGuard interface {
	// Seen records signature for ttl and reports whether it was recorded before.
	Seen(ctx context.Context, signature string, ttl time.Duration) (bool, error)
}

// NoopReplayGuard never reports a duplicate. Used when no Redis is configured.
type NoopReplayGuard struct{}

func (NoopReplayGuard) Seen(context.Context, string, time.Duration) (bool, error) {
	return false, nil
}
