package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stock_ingest/internal/app/di"
	"stock_ingest/internal/app/jobs"
	"stock_ingest/internal/app/router"
	"stock_ingest/internal/config"
	infradb "stock_ingest/internal/platform/db"
	"stock_ingest/internal/platform/http/handler"
	infraredis "stock_ingest/internal/platform/redis"
	"stock_ingest/internal/platform/scheduler"
)

func main() {
	cfg := config.Load()
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// db
	db := infradb.OpenDB(cfg.DB)
	if err := infradb.Ping(ctx, db); err != nil {
		slog.Error("database ping failed", "error", err)
		os.Exit(1)
	}

	// Redis。トークンキャッシュに必須のため、接続失敗は起動失敗とする
	rdb, err := infraredis.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		slog.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			slog.Error("failed to close redis client", "error", err)
		}
	}()

	// KIS client and broker token cache
	kis := di.NewKISClient(cfg.KIS)
	tokenUC := di.NewTokenUsecase(rdb, cfg.KIS, kis)

	// トークンのウォームアップ。初回ジョブを待たずに取得しておく
	if _, err := tokenUC.GetToken(ctx); err != nil {
		slog.Error("token warm-up failed", "error", err)
		os.Exit(1)
	}

	// Ingestion pipeline
	tz, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		slog.Error("invalid timezone", "timezone", cfg.Timezone, "error", err)
		os.Exit(1)
	}
	ingestUC := di.NewIngestUsecase(cfg, db, di.NewStockDirectory(rdb, db, tz), kis)

	// Scheduler and job table
	sched, err := scheduler.New(cfg.Timezone)
	if err != nil {
		slog.Error("scheduler init failed", "error", err)
		os.Exit(1)
	}
	if err := jobs.Register(sched, jobs.Deps{
		Token:        tokenUC,
		Ingest:       ingestUC,
		Markets:      cfg.Markets,
		LookbackDays: cfg.IngestLookbackDays,
	}); err != nil {
		slog.Error("job registration failed", "error", err)
		os.Exit(1)
	}
	sched.Start()

	// 診断用HTTPサーバ
	r := router.NewRouter(handler.NewSchedulerHandler(sched))
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: r}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server failed", "error", err)
			os.Exit(1)
		}
	}()
	slog.Info("service started", "addr", cfg.HTTPAddr, "timezone", cfg.Timezone)

	// SIGINT/SIGTERMで停止。実行中のジョブ本体は中断しない
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down")
	sched.Shutdown()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http shutdown failed", "error", err)
	}
}
