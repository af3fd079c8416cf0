package tenant

import (
	"context"
	"encoding/json"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

// Cache stores tenants by id.
type Cache interface {
	Get(ctx context.Context, key string) (*Tenant, bool)
	Set(ctx context.Context, key string, t *Tenant, ttl time.Duration)
	Delete(ctx context.Context, key string)
}

type memoryCache struct {
	c *gocache.Cache
}

// NewMemoryCache creates a process-local cache. Expired entries are purged
// every cleanupInterval.
func NewMemoryCache(defaultTTL, cleanupInterval time.Duration) Cache {
	return &memoryCache{c: gocache.New(defaultTTL, cleanupInterval)}
}

func (m *memoryCache) Get(_ context.Context, key string) (*Tenant, bool) {
	v, ok := m.c.Get(key)
	if !ok {
		return nil, false
	}
	t, ok := v.(*Tenant)
	return t, ok
}

func (m *memoryCache) Set(_ context.Context, key string, t *Tenant, ttl time.Duration) {
	m.c.Set(key, t, ttl)
}

func (m *memoryCache) Delete(_ context.Context, key string) {
	m.c.Delete(key)
}

// RedisClient is the subset of *redis.Client used by the redis cache.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

type redisCache struct {
	client RedisClient
	prefix string
}

// NewRedisCache creates a cache shared between processes. Entries are stored
// as JSON under prefix+key. Redis errors degrade to cache misses.
func NewRedisCache(client RedisClient, prefix string) Cache {
	return &redisCache{client: client, prefix: prefix}
}

func (r *redisCache) Get(ctx context.Context, key string) (*Tenant, bool) {
	data, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if err != nil {
		return nil, false
	}
	var t Tenant
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, false
	}
	return &t, true
}

func (r *redisCache) Set(ctx context.Context, key string, t *Tenant, ttl time.Duration) {
	data, err := json.Marshal(t)
	if err != nil {
		return
	}
	_ = r.client.Set(ctx, r.prefix+key, data, ttl).Err()
}

func (r *redisCache) Delete(ctx context.Context, key string) {
	_ = r.client.Del(ctx, r.prefix+key).Err()
}

// CachedStore serves tenants from a Cache and falls back to the wrapped Store.
// Only successful lookups are cached.
type CachedStore struct {
	next  Store
	cache Cache
	ttl   time.Duration
}

// NewCachedStore wraps next with cache.
func NewCachedStore(next Store, cache Cache, ttl time.Duration) *CachedStore {
	return &CachedStore{next: next, cache: cache, ttl: ttl}
}

// FindByID implements Store.
func (s *CachedStore) FindByID(ctx context.Context, id string) (*Tenant, error) {
	parsed, err := ParseID(id)
	if err != nil {
		return nil, err
	}
	key := parsed.String()

	if t, ok := s.cache.Get(ctx, key); ok {
		return t, nil
	}

	t, err := s.next.FindByID(ctx, key)
	if err != nil {
		return nil, err
	}
	s.cache.Set(ctx, key, t, s.ttl)
	return t, nil
}

// Invalidate drops a cached tenant.
func (s *CachedStore) Invalidate(ctx context.Context, id string) {
	s.cache.Delete(ctx, id)
}
