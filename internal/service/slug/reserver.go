package slug

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Reserver claims a slug for a short window so concurrent items cannot pick
// the same candidate before either is persisted.
type Reserver interface {
	Reserve(ctx context.Context, slug string) (bool, error)
	Release(ctx context.Context, slug string)
}

// LocalReserver keeps reservations in process memory.
type LocalReserver struct {
	ttl   time.Duration
	mu    sync.Mutex
	slugs map[string]time.Time
	now   func() time.Time
}

func NewLocalReserver(ttl time.Duration) *LocalReserver {
	return &LocalReserver{
		ttl:   ttl,
		slugs: make(map[string]time.Time),
		now:   time.Now,
	}
}

func (l *LocalReserver) Reserve(_ context.Context, slug string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for s, expires := range l.slugs {
		if now.After(expires) {
			delete(l.slugs, s)
		}
	}
	if _, taken := l.slugs[slug]; taken {
		return false, nil
	}
	l.slugs[slug] = now.Add(l.ttl)
	return true, nil
}

func (l *LocalReserver) Release(_ context.Context, slug string) {
	l.mu.Lock()
	delete(l.slugs, slug)
	l.mu.Unlock()
}

// RedisReserver shares reservations between service instances.
type RedisReserver struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisReserver(client *redis.Client, ttl time.Duration) *RedisReserver {
	return &RedisReserver{client: client, prefix: "scribe:slug:", ttl: ttl}
}

// ConnectRedis creates a Redis client and verifies connectivity.
func ConnectRedis(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	rdb := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return rdb, nil
}

func (r *RedisReserver) Reserve(ctx context.Context, slug string) (bool, error) {
	return r.client.SetNX(ctx, r.prefix+slug, 1, r.ttl).Result()
}

func (r *RedisReserver) Release(ctx context.Context, slug string) {
	_ = r.client.Del(ctx, r.prefix+slug).Err()
}
