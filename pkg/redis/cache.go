package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// TTLResponse is the default lifetime of a cached API response
const TTLResponse = 1 * time.Hour

// backend is the key/value surface the cache needs
type backend interface {
	get(ctx context.Context, key string) ([]byte, error)
	set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	del(ctx context.Context, key string) error
}

// errMiss is returned by a backend when the key does not exist
var errMiss = errors.New("cache miss")

type redisBackend struct {
	rdb *redis.Client
}

func (b redisBackend) get(ctx context.Context, key string) ([]byte, error) {
	data, err := b.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, errMiss
	}
	return data, err
}

func (b redisBackend) set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return b.rdb.Set(ctx, key, value, ttl).Err()
}

func (b redisBackend) del(ctx context.Context, key string) error {
	return b.rdb.Del(ctx, key).Err()
}

// Cache stores JSON-encoded computation results under a key prefix.
// With a disabled client every lookup is a miss and writes are dropped.
// ⭐ SSOT: 응답 캐시 헬퍼는 여기서만
type Cache struct {
	b      backend
	prefix string
}

// NewCache creates a cache over the client
func NewCache(client *Client, prefix string) *Cache {
	c := &Cache{prefix: prefix}
	if client != nil && client.Enabled() {
		c.b = redisBackend{rdb: client.rdb}
	}
	return c
}

// Enabled reports whether lookups can hit
func (c *Cache) Enabled() bool {
	return c.b != nil
}

// Key builds the full key of a cache entry
func (c *Cache) Key(key string) string {
	return fmt.Sprintf("%s:cache:%s", c.prefix, key)
}

// Get returns the cached JSON of key; found is false on a miss
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if c.b == nil {
		return nil, false, nil
	}
	data, err := c.b.get(ctx, c.Key(key))
	if errors.Is(err, errMiss) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache get %s: %w", key, err)
	}
	return data, true, nil
}

// Set stores value as JSON with a TTL
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if c.b == nil {
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal failed: %w", err)
	}
	return c.b.set(ctx, c.Key(key), data, ttl)
}

// Delete removes a cached value
func (c *Cache) Delete(ctx context.Context, key string) error {
	if c.b == nil {
		return nil
	}
	return c.b.del(ctx, c.Key(key))
}

// Lookup results, also used as metric labels
const (
	LookupHit      = "hit"
	LookupMiss     = "miss"
	LookupDisabled = "disabled"
	LookupError    = "error"
)

// Lookup is the outcome of GetOrSet.
// Err holds a cache failure that did not fail the request; Result is then LookupError.
type Lookup struct {
	Data   []byte
	Result string
	Err    error
}

// GetOrSet returns the cached JSON of key, or runs fn, stores its result and
// returns the fresh JSON. A failing cache never fails the request: the fresh
// JSON comes back with the cache error in Lookup.Err. fn errors are returned
// as is and nothing is stored.
func (c *Cache) GetOrSet(ctx context.Context, key string, ttl time.Duration, fn func() (interface{}, error)) (Lookup, error) {
	if c.b == nil {
		data, err := marshalResult(fn)
		if err != nil {
			return Lookup{}, err
		}
		return Lookup{Data: data, Result: LookupDisabled}, nil
	}

	cached, found, getErr := c.Get(ctx, key)
	if getErr == nil && found {
		return Lookup{Data: cached, Result: LookupHit}, nil
	}

	data, err := marshalResult(fn)
	if err != nil {
		return Lookup{}, err
	}

	var setErr error
	if err := c.b.set(ctx, c.Key(key), data, ttl); err != nil {
		setErr = fmt.Errorf("cache set %s: %w", key, err)
	}

	res := Lookup{Data: data, Result: LookupMiss}
	if err := errors.Join(getErr, setErr); err != nil {
		res.Result = LookupError
		res.Err = err
	}
	return res, nil
}

func marshalResult(fn func() (interface{}, error)) ([]byte, error) {
	value, err := fn()
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("cache marshal failed: %w", err)
	}
	return data, nil
}
