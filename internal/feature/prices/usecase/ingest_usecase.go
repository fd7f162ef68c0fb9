// Package usecase implements the business logic for the prices feature.
package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"stock_ingest/internal/feature/prices/domain/entity"
	"stock_ingest/internal/shared/ratelimiter"
)

const (
	defaultBatchSize        = 1000 // records buffered before a flush
	defaultFetchConcurrency = 4    // concurrent per-ticker fetches
)

// StockDirectory resolves the active ticker → stock_id mapping for a market set.
// Following Go convention: interfaces are defined by the consumer (usecase), not the provider (adapters).
type StockDirectory interface {
	ActiveTickers(ctx context.Context, marketCodes []string) (map[string]uint, error)
}

// PriceFetcher retrieves a date-bounded daily series from the external API.
type PriceFetcher interface {
	FetchDaily(ctx context.Context, ticker string, start, end time.Time) ([]entity.DailyPrice, error)
}

// PriceRepository applies idempotent batch upserts of daily prices.
type PriceRepository interface {
	UpsertBatch(ctx context.Context, prices []entity.DailyPrice) (int, error)
}

// PartitionRepository prepares the monthly partitions for a write window.
type PartitionRepository interface {
	EnsurePartitions(ctx context.Context, start, end time.Time) (int, error)
}

// IngestConfig tunes the pipeline. Zero values fall back to defaults.
type IngestConfig struct {
	BatchSize        int
	FetchConcurrency int
}

// IngestUsecase fetches daily prices for every active ticker of the
// requested markets and persists them in batches. A fetch failure for
// one ticker never aborts the run; a flush failure always does.
type IngestUsecase struct {
	stocks      StockDirectory
	fetcher     PriceFetcher
	prices      PriceRepository
	partitions  PartitionRepository
	rateLimiter ratelimiter.RateLimiterInterface

	batchSize   int
	concurrency int
}

// NewIngestUsecase creates a new IngestUsecase.
func NewIngestUsecase(
	stocks StockDirectory,
	fetcher PriceFetcher,
	prices PriceRepository,
	partitions PartitionRepository,
	rateLimiter ratelimiter.RateLimiterInterface,
	cfg IngestConfig,
) *IngestUsecase {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}
	if cfg.FetchConcurrency <= 0 {
		cfg.FetchConcurrency = defaultFetchConcurrency
	}
	return &IngestUsecase{
		stocks:      stocks,
		fetcher:     fetcher,
		prices:      prices,
		partitions:  partitions,
		rateLimiter: rateLimiter,
		batchSize:   cfg.BatchSize,
		concurrency: cfg.FetchConcurrency,
	}
}

// Run ingests the daily series for [start, end] across the given market
// codes and returns the total number of records upserted.
func (u *IngestUsecase) Run(ctx context.Context, marketCodes []string, start, end time.Time) (int, error) {
	tickers, err := u.stocks.ActiveTickers(ctx, marketCodes)
	if err != nil {
		return 0, fmt.Errorf("resolve active tickers: %w", err)
	}
	if len(tickers) == 0 {
		slog.Warn("no active tickers, nothing to ingest", "markets", marketCodes)
		return 0, nil
	}

	// Partitions must exist before the first write into their range.
	if _, err := u.partitions.EnsurePartitions(ctx, start, end); err != nil {
		return 0, fmt.Errorf("ensure partitions: %w", err)
	}

	buf := &flushBuffer{prices: u.prices, threshold: u.batchSize}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(u.concurrency)

	for ticker, stockID := range tickers {
		g.Go(func() error {
			u.rateLimiter.WaitIfNeeded()

			records, err := u.fetcher.FetchDaily(gctx, ticker, start, end)
			if err != nil {
				// One failing ticker does not abort the run.
				slog.Error("daily price fetch failed, skipping ticker", "ticker", ticker, "error", err)
				return nil
			}
			if len(records) == 0 {
				slog.Info("no daily prices returned", "ticker", ticker,
					"start", start.Format("2006-01-02"), "end", end.Format("2006-01-02"))
				return nil
			}

			for i := range records {
				records[i].StockID = stockID
			}
			// A flush failure is fatal to the run, unlike a fetch failure.
			return buf.add(gctx, records)
		})
	}

	if err := g.Wait(); err != nil {
		return buf.flushed(), err
	}

	// Remainder below the batch threshold
	if err := buf.flush(ctx); err != nil {
		return buf.flushed(), err
	}

	total := buf.flushed()
	slog.Info("daily price ingest finished", "markets", marketCodes, "upserted", total)
	return total, nil
}

// flushBuffer accumulates records across concurrent fetchers and flushes
// them through the repository whenever the threshold is reached. All
// access happens under the mutex, so a flush also serializes appends.
type flushBuffer struct {
	mu        sync.Mutex
	prices    PriceRepository
	threshold int
	pending   []entity.DailyPrice
	total     int
}

func (b *flushBuffer) add(ctx context.Context, records []entity.DailyPrice) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.pending = append(b.pending, records...)
	if len(b.pending) < b.threshold {
		return nil
	}
	return b.flushLocked(ctx)
}

func (b *flushBuffer) flush(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.flushLocked(ctx)
}

func (b *flushBuffer) flushLocked(ctx context.Context) error {
	if len(b.pending) == 0 {
		return nil
	}

	n, err := b.prices.UpsertBatch(ctx, b.pending)
	if err != nil {
		return fmt.Errorf("flush price batch: %w", err)
	}
	b.total += n
	b.pending = b.pending[:0]
	slog.Info("flushed price batch", "records", n, "total", b.total)
	return nil
}

func (b *flushBuffer) flushed() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.total
}
