// Package jobs declares every scheduled job of the service in one
// explicit registration table.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	pricesusecase "stock_ingest/internal/feature/prices/usecase"
	tokenusecase "stock_ingest/internal/feature/token/usecase"
	"stock_ingest/internal/platform/scheduler"
)

// Job identifiers. Stable names: they appear in logs and in the
// /scheduler/status response.
const (
	TokenRefreshJobID = "kis_token.refresh"
	DailyIngestJobID  = "daily_price.ingest"
)

// Cron specs, evaluated in the scheduler timezone (seconds field first).
const (
	// Every midnight, ahead of the broker's own token expiry.
	tokenRefreshSpec = "0 0 0 * * *"
	// Weekdays at 18:10, after the KRX close.
	dailyIngestSpec = "0 10 18 * * 1-5"
)

// Deps carries everything the scheduled jobs need. No package-level
// state: the caller owns every dependency.
type Deps struct {
	Token  *tokenusecase.TokenUsecase
	Ingest *pricesusecase.IngestUsecase

	// Markets are the market codes each ingestion run covers.
	Markets []string

	// LookbackDays is the trailing window each ingestion run refetches,
	// so that runs missed over weekends or outages self-heal.
	LookbackDays int
}

// Register installs the job table on the scheduler. Jobs only run once
// the caller starts the scheduler.
func Register(s *scheduler.Scheduler, deps Deps) error {
	if err := s.RegisterCron(TokenRefreshJobID, tokenRefreshSpec, func(ctx context.Context) error {
		if _, err := deps.Token.IssueAndCache(ctx); err != nil {
			return err
		}
		if ttl, err := deps.Token.TTL(ctx); err == nil {
			slog.Info("access token refreshed", "job", TokenRefreshJobID, "ttl", ttl)
		}
		return nil
	}); err != nil {
		return fmt.Errorf("register %s: %w", TokenRefreshJobID, err)
	}

	// The ingestion body holds a DB connection and the rate limiter for
	// minutes at a time, so it runs on the worker pool.
	if err := s.RegisterCron(DailyIngestJobID, dailyIngestSpec, func(ctx context.Context) error {
		start, end := ingestWindow(time.Now().In(s.Timezone()), deps.LookbackDays)
		n, err := deps.Ingest.Run(ctx, deps.Markets, start, end)
		if err != nil {
			return err
		}
		slog.Info("daily price ingestion finished", "job", DailyIngestJobID, "records", n,
			"start", start.Format("2006-01-02"), "end", end.Format("2006-01-02"))
		return nil
	}, scheduler.WithBlocking()); err != nil {
		return fmt.Errorf("register %s: %w", DailyIngestJobID, err)
	}

	return nil
}

// ingestWindow returns the trailing [start, end] date window ending on
// the current day.
func ingestWindow(now time.Time, lookbackDays int) (time.Time, time.Time) {
	if lookbackDays < 0 {
		lookbackDays = 0
	}
	end := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	start := end.AddDate(0, 0, -lookbackDays)
	return start, end
}
