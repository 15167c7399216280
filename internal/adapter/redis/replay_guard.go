package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/pscheid92/slackbridge/internal/domain"
	goredis "github.com/redis/go-redis/v9"
)

const replayKeyPrefix = "webhook:seen:"

type ReplayGuard struct {
	rdb *goredis.Client
}

var _ domain.ReplayGuard = (*ReplayGuard)(nil)

func NewReplayGuard(rdb *goredis.Client) *ReplayGuard {
	return &ReplayGuard{rdb: rdb}
}

// Seen returns true if signature was already recorded within ttl,
// false if this is the first sighting (and records it).
func (g *ReplayGuard) Seen(ctx context.Context, signature string, ttl time.Duration) (bool, error) {
	args := goredis.SetArgs{TTL: ttl, Mode: "NX"}
	_, err := g.rdb.SetArgs(ctx, replayKey(signature), "1", args).Result()
	if errors.Is(err, goredis.Nil) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to record webhook signature: %w", err)
	}
	return false, nil
}

// replayKey hashes the signature into a fixed-length key.
func replayKey(signature string) string {
	sum := sha256.Sum256([]byte(signature))
	return replayKeyPrefix + hex.EncodeToString(sum[:])
}
