package relay

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Guard admits at most one delivery chain per key within its TTL.
type Guard interface {
	Claim(ctx context.Context, key string) (bool, error)
}

const memoryGuardSweepAt = 10000

// MemoryGuard is a process-local Guard.
type MemoryGuard struct {
	mu     sync.Mutex
	claims map[string]time.Time
	ttl    time.Duration
	now    func() time.Time
}

func NewMemoryGuard(ttl time.Duration) *MemoryGuard {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &MemoryGuard{
		claims: make(map[string]time.Time),
		ttl:    ttl,
		now:    time.Now,
	}
}

func (g *MemoryGuard) Claim(_ context.Context, key string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	if expires, ok := g.claims[key]; ok && now.Before(expires) {
		return false, nil
	}
	if len(g.claims) >= memoryGuardSweepAt {
		for k, expires := range g.claims {
			if !now.Before(expires) {
				delete(g.claims, k)
			}
		}
	}
	g.claims[key] = now.Add(g.ttl)
	return true, nil
}

// RedisGuard shares claims between relay instances with SET NX.
type RedisGuard struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

func NewRedisGuard(client *redis.Client, ttl time.Duration) *RedisGuard {
	return &RedisGuard{
		client: client,
		ttl:    ttl,
		prefix: "botrelay:delivery:",
	}
}

// NewRedisClient parses a redis:// URL and checks the connection.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

func (g *RedisGuard) Claim(ctx context.Context, key string) (bool, error) {
	ok, err := g.client.SetNX(ctx, g.prefix+key, time.Now().Unix(), g.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("delivery guard: %w", err)
	}
	return ok, nil
}
