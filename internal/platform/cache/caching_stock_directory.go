// Package cache provides caching implementations for repository interfaces.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"stock_ingest/internal/feature/prices/usecase"
)

// CachingStockDirectory decorates a StockDirectory with Redis caching.
// The active ticker set changes at most once a day (listings and
// delistings), so repeated runs within one day reuse the cached map.
type CachingStockDirectory struct {
	inner     usecase.StockDirectory
	rdb       *redis.Client
	ttl       time.Duration
	namespace string
}

// NewCachingStockDirectory decorates a StockDirectory with Redis caching.
// If ttl is 0, it defaults to 1 hour. If namespace is empty, it uses "tickers".
func NewCachingStockDirectory(rdb *redis.Client, ttl time.Duration, inner usecase.StockDirectory, namespace string) *CachingStockDirectory {
	if ttl <= 0 {
		ttl = time.Hour
	}
	if namespace == "" {
		namespace = "tickers"
	}
	return &CachingStockDirectory{
		inner:     inner,
		rdb:       rdb,
		ttl:       ttl,
		namespace: namespace,
	}
}

// ActiveTickers retrieves the ticker map, checking cache first then
// falling back to the database.
func (c *CachingStockDirectory) ActiveTickers(ctx context.Context, marketCodes []string) (map[string]uint, error) {
	// Bypass cache if Redis is not configured
	if c.rdb == nil {
		return c.inner.ActiveTickers(ctx, marketCodes)
	}

	key := c.cacheKey(marketCodes)

	// 1) Check cache
	if b, err := c.rdb.Get(ctx, key).Bytes(); err == nil && len(b) > 0 {
		var out map[string]uint
		if err := json.Unmarshal(b, &out); err == nil {
			return out, nil
		}
		// Delete corrupted cache entry
		_ = c.rdb.Del(ctx, key).Err()
	}

	// 2) Fallback to database
	out, err := c.inner.ActiveTickers(ctx, marketCodes)
	if err != nil {
		return nil, err
	}

	// 3) Store in cache (best effort)
	if b, err := json.Marshal(out); err == nil {
		_ = c.rdb.Set(ctx, key, b, c.ttl).Err()
	}

	return out, nil
}

// Invalidate drops the cached map for a market set, for use after
// manual listing changes.
func (c *CachingStockDirectory) Invalidate(ctx context.Context, marketCodes []string) error {
	if c.rdb == nil {
		return nil
	}
	return c.rdb.Del(ctx, c.cacheKey(marketCodes)).Err()
}

// cacheKey generates a cache key for a market set. The codes are
// sorted so that the key is order-independent.
func (c *CachingStockDirectory) cacheKey(marketCodes []string) string {
	codes := make([]string, 0, len(marketCodes))
	for _, m := range marketCodes {
		codes = append(codes, safe(m))
	}
	sort.Strings(codes)
	return fmt.Sprintf("%s:%s", c.namespace, strings.Join(codes, ","))
}

// safe escapes characters that are problematic for Redis keys.
func safe(s string) string {
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, ":", "_")
	return s
}
