package di

import (
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"stock_ingest/internal/config"
	pricesadapters "stock_ingest/internal/feature/prices/adapters"
	priceskis "stock_ingest/internal/feature/prices/adapters/kis"
	pricesusecase "stock_ingest/internal/feature/prices/usecase"
	stocksadapters "stock_ingest/internal/feature/stocks/adapters"
	"stock_ingest/internal/platform/cache"
	"stock_ingest/internal/platform/kisclient"
	"stock_ingest/internal/shared/ratelimiter"
)

// NewStockDirectory creates the active-ticker directory.
// If Redis is available, the database lookup is wrapped in a cache that
// expires at the next midnight of the given timezone. Otherwise, every
// run reads the database directly.
func NewStockDirectory(rdb *redis.Client, db *gorm.DB, tz *time.Location) pricesusecase.StockDirectory {
	repo := stocksadapters.NewStockRepository(db)
	if rdb != nil {
		return cache.NewCachingStockDirectory(rdb, cache.TimeUntilNextMidnight(tz), repo, "tickers")
	}
	return repo
}

// NewIngestUsecase creates a fully configured ingestion pipeline.
func NewIngestUsecase(cfg config.Config, db *gorm.DB, stockDir pricesusecase.StockDirectory, kis *kisclient.Client) *pricesusecase.IngestUsecase {
	return pricesusecase.NewIngestUsecase(
		stockDir,
		priceskis.NewPriceAPI(kis),
		pricesadapters.NewPriceRepository(db),
		pricesadapters.NewPartitionRepository(db),
		ratelimiter.NewRateLimiter(cfg.RateLimitCalls, cfg.RateLimitWindow),
		pricesusecase.IngestConfig{BatchSize: cfg.BatchSize, FetchConcurrency: cfg.FetchConcurrency},
	)
}
