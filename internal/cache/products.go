package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"sales-backoffice/internal/core"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	// ProductsKey holds the JSON-encoded product listing.
	ProductsKey = "sales:products"
	// GenerationKey counts invalidations. A listing is served only while its
	// generation matches, so a load that raced a stock write is never returned.
	GenerationKey = "sales:products:gen"
)

// cachedListing is the value stored under ProductsKey.
type cachedListing struct {
	Generation int64          `json:"generation"`
	Products   []core.Product `json:"products"`
}

// Connect opens a Redis client from a redis:// URL and pings it.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("unable to parse REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("unable to ping redis: %w", err)
	}
	return client, nil
}

// ProductCache is a cache-aside store for the product listing.
// It implements core.ProductCache so stock writes drop the cached listing.
type ProductCache struct {
	client *redis.Client
	ttl    time.Duration
	group  singleflight.Group
	logger *zap.Logger
}

func NewProductCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *ProductCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProductCache{client: client, ttl: ttl, logger: logger}
}

// Products returns the cached listing, calling load on a miss.
// Concurrent misses share a single load. Redis failures fall back to load.
func (c *ProductCache) Products(ctx context.Context, load func(context.Context) ([]core.Product, error)) ([]core.Product, error) {
	if products, _, ok := c.get(ctx); ok {
		return products, nil
	}

	v, err, _ := c.group.Do(ProductsKey, func() (interface{}, error) {
		products, generation, ok := c.get(ctx)
		if ok {
			return products, nil
		}
		// generation was read before load, so an invalidation landing in
		// between leaves this entry with a stale generation.
		fresh, err := load(ctx)
		if err != nil {
			return nil, err
		}
		c.set(ctx, generation, fresh)
		return fresh, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]core.Product), nil
}

// InvalidateProducts bumps the listing generation and drops the cached listing.
func (c *ProductCache) InvalidateProducts(ctx context.Context) error {
	if err := c.client.Incr(ctx, GenerationKey).Err(); err != nil {
		return fmt.Errorf("failed to bump product cache generation: %w", err)
	}
	if err := c.client.Del(ctx, ProductsKey).Err(); err != nil {
		return fmt.Errorf("failed to invalidate product cache: %w", err)
	}
	return nil
}

// get returns the cached listing if it belongs to the current generation.
// The current generation is returned either way.
func (c *ProductCache) get(ctx context.Context) ([]core.Product, int64, bool) {
	vals, err := c.client.MGet(ctx, ProductsKey, GenerationKey).Result()
	if err != nil {
		c.logger.Warn("product cache read failed", zap.Error(err))
		return nil, 0, false
	}

	var generation int64
	if raw, ok := vals[1].(string); ok {
		generation, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.logger.Warn("discarding undecodable product cache generation", zap.Error(err))
			return nil, 0, false
		}
	}

	raw, ok := vals[0].(string)
	if !ok {
		return nil, generation, false
	}
	var entry cachedListing
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		c.logger.Warn("discarding undecodable product cache entry", zap.Error(err))
		return nil, generation, false
	}
	if entry.Generation != generation {
		return nil, generation, false
	}
	return entry.Products, generation, true
}

func (c *ProductCache) set(ctx context.Context, generation int64, products []core.Product) {
	data, err := json.Marshal(cachedListing{Generation: generation, Products: products})
	if err != nil {
		c.logger.Warn("failed to encode product listing", zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, ProductsKey, string(data), c.ttl).Err(); err != nil {
		c.logger.Warn("product cache write failed", zap.Error(err))
	}
}

// CachedLedger serves GetProducts from a ProductCache and delegates everything else.
type CachedLedger struct {
	core.StockLedger
	cache *ProductCache
}

func NewCachedLedger(ledger core.StockLedger, cache *ProductCache) *CachedLedger {
	return &CachedLedger{StockLedger: ledger, cache: cache}
}

func (l *CachedLedger) GetProducts(ctx context.Context) ([]core.Product, error) {
	return l.cache.Products(ctx, l.StockLedger.GetProducts)
}
