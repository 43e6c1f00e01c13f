package presence

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// cacheKey returns the Redis key holding one user's online flag.
func cacheKey(userID uint) string {
	return fmt.Sprintf("presence:online:%d", userID)
}

// Cache mirrors the presence flag into Redis so read-heavy surfaces can
// check who is online without touching the database. Entries carry a TTL
// as a safety net: if the process dies without cleaning up, stale
// "online" entries age out on their own.
type Cache struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewCache creates a presence cache. ttl bounds how long an online entry
// survives without being refreshed.
func NewCache(client redis.Cmdable, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// SetOnline records or clears a user's online flag.
func (c *Cache) SetOnline(ctx context.Context, userID uint, online bool) error {
	if online {
		return c.client.Set(ctx, cacheKey(userID), "1", c.ttl).Err()
	}
	return c.client.Del(ctx, cacheKey(userID)).Err()
}

// IsOnline reports whether a user has a live presence entry.
func (c *Cache) IsOnline(ctx context.Context, userID uint) (bool, error) {
	n, err := c.client.Exists(ctx, cacheKey(userID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Snapshot returns the online flag for a batch of users in one round
// trip.
func (c *Cache) Snapshot(ctx context.Context, userIDs []uint) (map[uint]bool, error) {
	if len(userIDs) == 0 {
		return map[uint]bool{}, nil
	}

	keys := make([]string, len(userIDs))
	for i, id := range userIDs {
		keys[i] = cacheKey(id)
	}
	vals, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	online := make(map[uint]bool, len(userIDs))
	for i, id := range userIDs {
		online[id] = vals[i] != nil
	}
	return online, nil
}
