package travel

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// Cache wraps an Estimator with a redis-backed TTL cache. Estimates are
// keyed by rounded coordinates and the departure hour, so repeated scoring
// passes over the same staff/patient pairs hit the cache.
type Cache struct {
	inner  Estimator
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCache creates a caching decorator around inner
func NewCache(inner Estimator, client *redis.Client, ttl time.Duration, logger *zap.Logger) *Cache {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &Cache{
		inner:  inner,
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

// EstimateMinutes returns a cached estimate when available, otherwise
// delegates to the inner estimator and stores the result. Cache failures
// fall through to the inner estimator rather than failing the scoring pass.
func (c *Cache) EstimateMinutes(ctx context.Context, from, to Coord, departAt time.Time) (float64, error) {
	key := cacheKey(from, to, departAt)

	val, err := c.client.Get(ctx, key).Result()
	if err == nil {
		minutes, parseErr := strconv.ParseFloat(val, 64)
		if parseErr == nil {
			return minutes, nil
		}
		c.logger.Warn("Discarding unparseable travel cache entry", zap.String("key", key))
	} else if err != redis.Nil {
		c.logger.Warn("Travel cache read failed", zap.String("key", key), zap.Error(err))
	}

	minutes, err := c.inner.EstimateMinutes(ctx, from, to, departAt)
	if err != nil {
		return 0, err
	}

	if setErr := c.client.Set(ctx, key, strconv.FormatFloat(minutes, 'f', 2, 64), c.ttl).Err(); setErr != nil {
		c.logger.Warn("Travel cache write failed", zap.String("key", key), zap.Error(setErr))
	}

	return minutes, nil
}

// cacheKey rounds coordinates to ~11m precision and buckets departures by
// hour; finer granularity would make cache hits vanishingly rare.
func cacheKey(from, to Coord, departAt time.Time) string {
	return fmt.Sprintf("travel:%.4f,%.4f:%.4f,%.4f:%s",
		from.Lat, from.Lon, to.Lat, to.Lon,
		departAt.Truncate(time.Hour).UTC().Format("2006010215"))
}
