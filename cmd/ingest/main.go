// Command ingest runs one daily-price ingestion pass for an explicit
// date range. Intended for backfills and manual reruns outside the
// scheduled job.
package main

import (
	"context"
	"flag"
	"log"
	"strings"
	"time"

	"stock_ingest/internal/app/di"
	"stock_ingest/internal/config"
	infradb "stock_ingest/internal/platform/db"
	infraredis "stock_ingest/internal/platform/redis"
)

func main() {
	var (
		startStr = flag.String("start", "", "range start, YYYY-MM-DD (required)")
		endStr   = flag.String("end", "", "range end, YYYY-MM-DD (required)")
		markets  = flag.String("markets", "KOSPI,KOSDAQ", "comma-separated market codes")
	)
	flag.Parse()

	start, err := time.Parse("2006-01-02", *startStr)
	if err != nil {
		log.Fatalf("invalid -start: %v", err)
	}
	end, err := time.Parse("2006-01-02", *endStr)
	if err != nil {
		log.Fatalf("invalid -end: %v", err)
	}
	if end.Before(start) {
		log.Fatal("-end must not precede -start")
	}

	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	db := infradb.OpenDB(cfg.DB)
	if err := infradb.Ping(ctx, db); err != nil {
		log.Fatal("database ping failed:", err)
	}

	rdb, err := infraredis.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		log.Fatal("redis connection failed:", err)
	}
	defer rdb.Close()

	kis := di.NewKISClient(cfg.KIS)
	di.NewTokenUsecase(rdb, cfg.KIS, kis)

	// バックフィルではキャッシュを使わず常にDBから銘柄を取得する
	uc := di.NewIngestUsecase(cfg, db, di.NewStockDirectory(nil, db, time.UTC), kis)

	n, err := uc.Run(ctx, strings.Split(*markets, ","), start, end)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("ingest ok: %d records", n)
}
