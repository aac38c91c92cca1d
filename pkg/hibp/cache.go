package hibp

import (
	"context"
	"errors"
	"fmt"
	"github.com/dgraph-io/ristretto"
	"github.com/redis/go-redis/v9"
	"time"
)

// RangeCache keeps raw range responses by prefix. Ranges are shared by every password with
// the same prefix, so a hit avoids the round trip for all of them.
type RangeCache interface {
	Get(ctx context.Context, prefix string) ([]byte, bool, error)
	Set(ctx context.Context, prefix string, body []byte) error
}

// MemoryCache is an in-process cache bounded by the total size of the stored bodies.
type MemoryCache struct {
	cache *ristretto.Cache
	ttl   time.Duration
}

// NewMemoryCache creates a cache holding up to maxBytes of range bodies, each for ttl.
func NewMemoryCache(maxBytes int64, ttl time.Duration) (*MemoryCache, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		// A range is ~30 KiB, so this is generous for the counters.
		NumCounters: 10 * (maxBytes/(30*1024) + 1),
		MaxCost:     maxBytes,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}

	return &MemoryCache{cache: cache, ttl: ttl}, nil
}

func (m *MemoryCache) Get(_ context.Context, prefix string) ([]byte, bool, error) {
	v, ok := m.cache.Get(prefix)
	if !ok {
		return nil, false, nil
	}

	body, ok := v.([]byte)
	return body, ok, nil
}

func (m *MemoryCache) Set(_ context.Context, prefix string, body []byte) error {
	m.cache.SetWithTTL(prefix, body, int64(len(body)), m.ttl)
	// Sets are buffered, wait so the next lookup sees it.
	m.cache.Wait()
	return nil
}

func (m *MemoryCache) Close() {
	m.cache.Close()
}

const rangeKeyPrefix = "hibp:range:"

// RedisCache shares ranges between instances.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func (r *RedisCache) Get(ctx context.Context, prefix string) ([]byte, bool, error) {
	body, err := r.client.Get(ctx, rangeKeyPrefix+prefix).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get range %s: %w", prefix, err)
	}

	return body, true, nil
}

func (r *RedisCache) Set(ctx context.Context, prefix string, body []byte) error {
	if err := r.client.Set(ctx, rangeKeyPrefix+prefix, body, r.ttl).Err(); err != nil {
		return fmt.Errorf("set range %s: %w", prefix, err)
	}
	return nil
}
