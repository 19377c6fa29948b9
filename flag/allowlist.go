package flag

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Static is a fixed in-process allowlist.
type Static map[string]struct{}

// NewStatic builds a Static allowlist from user IDs.
func NewStatic(userIDs ...string) Static {
	s := make(Static, len(userIDs))
	for _, id := range userIDs {
		s[id] = struct{}{}
	}
	return s
}

// Contains implements Allowlist.
func (s Static) Contains(_ context.Context, userID string) (bool, error) {
	_, ok := s[userID]
	return ok, nil
}

// setReader is the subset of redis.Client the allowlist uses. Tests
// substitute a scripted reader.
type setReader interface {
	SMembers(ctx context.Context, key string) *redis.StringSliceCmd
}

// RedisAllowlist reads the privileged-user set from a Redis set key with
// a lazily initialized read-through cache. The allowlist changes rarely,
// so members are fetched once and refreshed after TTL expires.
type RedisAllowlist struct {
	rdb setReader
	key string
	ttl time.Duration

	mu        sync.Mutex
	members   map[string]struct{}
	fetchedAt time.Time
}

// NewRedisAllowlist creates a Redis-backed allowlist. ttl bounds how
// stale the cached member set may get; zero means one minute.
func NewRedisAllowlist(rdb *redis.Client, key string, ttl time.Duration) *RedisAllowlist {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &RedisAllowlist{rdb: rdb, key: key, ttl: ttl}
}

// Contains implements Allowlist.
func (a *RedisAllowlist) Contains(ctx context.Context, userID string) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.members == nil || time.Since(a.fetchedAt) > a.ttl {
		ids, err := a.rdb.SMembers(ctx, a.key).Result()
		if err != nil {
			// Serve the stale set if we have one.
			if a.members != nil {
				_, ok := a.members[userID]
				return ok, nil
			}
			return false, err
		}
		members := make(map[string]struct{}, len(ids))
		for _, id := range ids {
			members[id] = struct{}{}
		}
		a.members = members
		a.fetchedAt = time.Now()
	}

	_, ok := a.members[userID]
	return ok, nil
}
