// Package cache puts a Redis read-through cache in front of catalogue lookups.
// Order settlement reads products inside its transaction and never goes
// through this cache.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"coffee-pos/internal/model"
	"coffee-pos/internal/repository"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

const (
	notFoundMarker = "notfound"
	notFoundTTL    = time.Minute
)

// CachedProductRepository wraps a ProductRepository, caching GetByID and
// invalidating on writes. All other methods go straight to the wrapped repository.
type CachedProductRepository struct {
	repository.ProductRepository

	redis  *redis.Client
	ttl    time.Duration
	group  singleflight.Group
	logger zerolog.Logger
}

// NewCachedProductRepository wraps repo with a Redis cache of the given TTL.
func NewCachedProductRepository(repo repository.ProductRepository, rdb *redis.Client, ttl time.Duration, logger zerolog.Logger) *CachedProductRepository {
	return &CachedProductRepository{
		ProductRepository: repo,
		redis:             rdb,
		ttl:               ttl,
		logger:            logger.With().Str("component", "product_cache").Logger(),
	}
}

func productKey(id int64) string {
	return fmt.Sprintf("coffeepos:product:%d", id)
}

// GetByID serves a product from Redis, falling back to the database on a miss.
// Concurrent misses for the same id share one database query. Redis failures
// are logged and never fail the lookup.
func (c *CachedProductRepository) GetByID(ctx context.Context, id int64) (*model.Product, error) {
	key := productKey(id)

	data, err := c.redis.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		if string(data) == notFoundMarker {
			return nil, nil
		}
		var p model.Product
		if err := json.Unmarshal(data, &p); err == nil {
			return &p, nil
		}
		c.logger.Warn().Str("key", key).Msg("discarding unreadable cache entry")
	case errors.Is(err, redis.Nil):
	default:
		c.logger.Warn().Err(err).Str("key", key).Msg("redis get failed, reading database")
	}

	v, err, _ := c.group.Do(strconv.FormatInt(id, 10), func() (interface{}, error) {
		p, err := c.ProductRepository.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		c.store(ctx, key, p)
		return p, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*model.Product), nil
}

func (c *CachedProductRepository) store(ctx context.Context, key string, p *model.Product) {
	if p == nil {
		if err := c.redis.Set(ctx, key, notFoundMarker, notFoundTTL).Err(); err != nil {
			c.logger.Warn().Err(err).Str("key", key).Msg("failed to cache missing product")
		}
		return
	}

	data, err := json.Marshal(p)
	if err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("failed to encode product for cache")
		return
	}

	if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("failed to cache product")
	}
}

// Create stores the product and drops any negative cache entry for its id.
func (c *CachedProductRepository) Create(ctx context.Context, input *model.ProductInput) (*model.Product, error) {
	p, err := c.ProductRepository.Create(ctx, input)
	if err != nil {
		return nil, err
	}
	c.invalidate(ctx, p.ID)
	return p, nil
}

// Update writes through and invalidates the cached entry.
func (c *CachedProductRepository) Update(ctx context.Context, id int64, input *model.ProductInput) (*model.Product, error) {
	p, err := c.ProductRepository.Update(ctx, id, input)
	c.invalidate(ctx, id)
	return p, err
}

// Delete writes through and invalidates the cached entry.
func (c *CachedProductRepository) Delete(ctx context.Context, id int64) (bool, error) {
	ok, err := c.ProductRepository.Delete(ctx, id)
	c.invalidate(ctx, id)
	return ok, err
}

func (c *CachedProductRepository) invalidate(ctx context.Context, id int64) {
	key := productKey(id)
	if err := c.redis.Del(ctx, key).Err(); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("failed to invalidate cached product")
	}
}
