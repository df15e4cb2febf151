// Package rescache memoizes aggregated results per query shape for a bounded time.
package rescache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/smallgiants/internal/db"
	"github.com/kailas-cloud/smallgiants/internal/domain/result"
)

// DefaultKeyPrefix namespaces cache keys in a shared store.
const DefaultKeyPrefix = "smallgiants:rescache:"

// store is the consumer interface for the response cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

// entry is the stored form: insertion time plus the cached result.
type entry struct {
	TS    int64         `json:"ts"`
	Value result.Result `json:"value"`
}

// Cache is a TTL cache over a key-value store. Entries are evicted lazily on
// read; nothing sweeps them and the key space is unbounded.
type Cache struct {
	store      store
	ttl        time.Duration
	prefix     string
	now        func() time.Time
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a cache. ttl <= 0 disables it: Get always misses and Set does nothing.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"), may be nil.
func New(s store, ttl time.Duration, cacheTotal *prometheus.CounterVec, logger *zap.Logger) *Cache {
	return &Cache{
		store:      s,
		ttl:        ttl,
		prefix:     DefaultKeyPrefix,
		now:        time.Now,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

// WithClock replaces the wall clock used to age entries.
func (c *Cache) WithClock(now func() time.Time) *Cache {
	c.now = now
	return c
}

// WithKeyPrefix sets the namespace prepended to every store key.
func (c *Cache) WithKeyPrefix(prefix string) *Cache {
	c.prefix = prefix
	return c
}

// Enabled reports whether the cache stores anything.
func (c *Cache) Enabled() bool {
	return c.ttl > 0 && c.store != nil
}

// TTL returns the configured time-to-live.
func (c *Cache) TTL() time.Duration { return c.ttl }

// Get returns the cached result for key when it is younger than the TTL.
// A stale or unreadable entry is deleted and reported as a miss.
func (c *Cache) Get(ctx context.Context, key string) (result.Result, bool) {
	if !c.Enabled() {
		return result.Result{}, false
	}

	storeKey := c.storeKey(key)
	data, err := c.store.Get(ctx, storeKey)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to read cached result", zap.String("key", storeKey), zap.Error(err))
		}
		c.inc("miss")
		return result.Result{}, false
	}

	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		c.logger.Warn("Failed to decode cached result", zap.String("key", storeKey), zap.Error(err))
		c.evict(ctx, storeKey)
		c.inc("miss")
		return result.Result{}, false
	}

	if c.now().Sub(time.Unix(0, e.TS)) > c.ttl {
		c.evict(ctx, storeKey)
		c.inc("miss")
		return result.Result{}, false
	}

	c.inc("hit")
	return e.Value, true
}

// Set stores res under key stamped with the current time, replacing any entry.
func (c *Cache) Set(ctx context.Context, key string, res result.Result) {
	if !c.Enabled() {
		return
	}

	storeKey := c.storeKey(key)
	data, err := json.Marshal(entry{TS: c.now().UnixNano(), Value: res})
	if err != nil {
		c.logger.Warn("Failed to encode result for cache", zap.String("key", storeKey), zap.Error(err))
		return
	}
	if err := c.store.SetWithTTL(ctx, storeKey, data, c.ttl); err != nil {
		c.logger.Warn("Failed to cache result", zap.String("key", storeKey), zap.Error(err))
	}
}

func (c *Cache) evict(ctx context.Context, storeKey string) {
	if err := c.store.Del(ctx, storeKey); err != nil {
		c.logger.Warn("Failed to evict cached result", zap.String("key", storeKey), zap.Error(err))
	}
}

func (c *Cache) inc(res string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(res).Inc()
	}
}

// storeKey hashes the serialized query shape so keys have bounded length.
func (c *Cache) storeKey(key string) string {
	h := sha256.Sum256([]byte(key))
	return fmt.Sprintf("%s%s", c.prefix, hex.EncodeToString(h[:]))
}
