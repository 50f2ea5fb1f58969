package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// LivenessCache tracks per-player liveness in Redis. A player is online
// while their key exists; the TTL on the key is the offline threshold,
// so a missed heartbeat window flips them offline with no sweeper.
type LivenessCache interface {
	Beat(ctx context.Context, matchID, playerID string) error
	IsOnline(ctx context.Context, matchID, playerID string) (bool, error)
	LastBeat(ctx context.Context, matchID, playerID string) (time.Time, error)
}

type livenessCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewLivenessCache creates a new liveness cache
func NewLivenessCache(client *redis.Client, ttl time.Duration) LivenessCache {
	return &livenessCache{
		client: client,
		ttl:    ttl,
	}
}

func (c *livenessCache) key(matchID, playerID string) string {
	return fmt.Sprintf("match:%s:beat:%s", matchID, playerID)
}

func (c *livenessCache) Beat(ctx context.Context, matchID, playerID string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	return c.client.Set(ctx, c.key(matchID, playerID), now, c.ttl).Err()
}

func (c *livenessCache) IsOnline(ctx context.Context, matchID, playerID string) (bool, error) {
	n, err := c.client.Exists(ctx, c.key(matchID, playerID)).Result()
	return n > 0, err
}

func (c *livenessCache) LastBeat(ctx context.Context, matchID, playerID string) (time.Time, error) {
	val, err := c.client.Get(ctx, c.key(matchID, playerID)).Result()
	if err == redis.Nil {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	return time.Parse(time.RFC3339Nano, val)
}
