package topology

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/ecampos-dev/epinet/pkg/config"
	pkgredis "github.com/ecampos-dev/epinet/pkg/redis"
	"github.com/ecampos-dev/epinet/pkg/resilience"
	"golang.org/x/sync/singleflight"
)

const keyPrefix = "topology:"

// ResultCache stores serialized topology analysis results in Redis, keyed by
// the analysis kind, day, weight transforms, and dataset version. Bumping the
// dataset version leaves stale entries behind to expire via TTL rather than
// deleting them eagerly.
//
// A nil Redis client is allowed: every Get misses and every Set is a no-op,
// so the analyzer works without Redis, just slower.
type ResultCache struct {
	client  *pkgredis.Client
	cfg     config.RedisConfig
	group   singleflight.Group
	breaker *resilience.CircuitBreaker
	logger  *slog.Logger
	hits    atomic.Int64
	misses  atomic.Int64
}

// NewResultCache creates a ResultCache backed by the given Redis client,
// which may be nil. A circuit breaker trips after repeated Redis failures so
// a flapping instance is skipped instead of probed on every request.
func NewResultCache(client *pkgredis.Client, cfg config.RedisConfig) *ResultCache {
	return &ResultCache{
		client:  client,
		cfg:     cfg,
		breaker: resilience.NewCircuitBreaker("topology-cache", resilience.CircuitBreakerConfig{}),
		logger:  slog.Default().With("component", "topology-cache"),
	}
}

// ResultKey identifies one analysis result. MSTMode is empty for analyses
// that do not take an MST transform.
type ResultKey struct {
	Analysis string
	Day      string
	Mode     string
	MSTMode  string
	Version  int64
}

func (k ResultKey) redisKey() string {
	raw := fmt.Sprintf("%s|%s|%s|%s|%d", k.Analysis, k.Day, k.Mode, k.MSTMode, k.Version)
	hash := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%s%x", keyPrefix, hash[:16])
}

// Get unmarshals the cached result for key into out, reporting whether a
// cached entry was found.
func (c *ResultCache) Get(ctx context.Context, key ResultKey, out any) bool {
	if c.client == nil {
		c.misses.Add(1)
		return false
	}
	redisKey := key.redisKey()
	var data string
	err := c.breaker.Execute(func() error {
		var getErr error
		data, getErr = c.client.Get(ctx, redisKey)
		if pkgredis.IsNilError(getErr) {
			return nil
		}
		return getErr
	})
	if err != nil || data == "" {
		if err != nil && !errors.Is(err, resilience.ErrCircuitOpen) {
			c.logger.Error("cache get failed", "key", redisKey, "error", err)
		}
		c.misses.Add(1)
		return false
	}
	if err := json.Unmarshal([]byte(data), out); err != nil {
		c.logger.Error("cache unmarshal failed", "key", redisKey, "error", err)
		c.misses.Add(1)
		return false
	}
	c.hits.Add(1)
	c.logger.Debug("cache hit", "analysis", key.Analysis, "day", key.Day)
	return true
}

// Set stores a result under key with the configured TTL. Failures are logged
// and swallowed; a broken cache never fails an analysis.
func (c *ResultCache) Set(ctx context.Context, key ResultKey, result any) {
	if c.client == nil {
		return
	}
	redisKey := key.redisKey()
	data, err := json.Marshal(result)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", redisKey, "error", err)
		return
	}
	err = c.breaker.Execute(func() error {
		return c.client.Set(ctx, redisKey, data, c.cfg.CacheTTL)
	})
	if err != nil && !errors.Is(err, resilience.ErrCircuitOpen) {
		c.logger.Error("cache set failed", "key", redisKey, "error", err)
	}
}

// Do runs computeFn with single-flight deduplication per key, consulting the
// cache before and after joining the flight. out must be a pointer to the
// result type; on a cache hit it is filled from the cached JSON, otherwise
// computeFn's result is returned directly.
func (c *ResultCache) Do(ctx context.Context, key ResultKey, out any, computeFn func() (any, error)) (any, bool, error) {
	if c.Get(ctx, key, out) {
		return out, true, nil
	}
	val, err, _ := c.group.Do(key.redisKey(), func() (any, error) {
		if c.Get(ctx, key, out) {
			return out, nil
		}
		result, err := computeFn()
		if err != nil {
			return nil, err
		}
		c.Set(ctx, key, result)
		return result, nil
	})
	if err != nil {
		return nil, false, err
	}
	return val, false, nil
}

// Invalidate removes every cached topology result.
func (c *ResultCache) Invalidate(ctx context.Context) error {
	if c.client == nil {
		return nil
	}
	deleted, err := c.client.FlushByPattern(ctx, keyPrefix+"*")
	if err != nil {
		return fmt.Errorf("invalidating topology cache: %w", err)
	}
	c.logger.Info("cache invalidate", "keys_deleted", deleted)
	return nil
}

// Stats returns the hit and miss counters.
func (c *ResultCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}
