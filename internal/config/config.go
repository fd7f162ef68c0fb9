// Package config はプロセス全体の設定を環境変数から読み込みます。
package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"stock_ingest/internal/platform/db"
	"stock_ingest/internal/platform/kisclient"
	"stock_ingest/internal/platform/redis"
)

// Config holds every setting the process reads at startup. All values
// come from environment variables; a local .env file is loaded first
// when present.
type Config struct {
	DB    db.Config
	Redis redis.Config
	KIS   kisclient.Config

	// HTTPAddr is the listen address of the diagnostic HTTP surface.
	HTTPAddr string

	// Timezone is the scheduler timezone (IANA name).
	Timezone string

	// Markets are the market codes whose tickers are ingested.
	Markets []string

	// BatchSize is the number of rows per upsert batch.
	BatchSize int

	// FetchConcurrency is the number of concurrent per-ticker fetches.
	FetchConcurrency int

	// RateLimitCalls / RateLimitWindow bound outbound broker calls.
	RateLimitCalls  int
	RateLimitWindow time.Duration

	// IngestLookbackDays is the trailing window fetched on each run.
	IngestLookbackDays int
}

// Load reads the configuration. A missing .env file is not an error:
// in containers everything arrives through real environment variables.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug(".env not loaded", "error", err)
	}

	return Config{
		DB: db.Config{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: os.Getenv("DB_PASSWORD"),
			Name:     getEnv("DB_NAME", "stock"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: redis.Config{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		KIS:                kisclient.LoadConfig(),
		HTTPAddr:           getEnv("HTTP_ADDR", ":8080"),
		Timezone:           getEnv("SCHEDULER_TZ", "Asia/Seoul"),
		Markets:            []string{"KOSPI", "KOSDAQ"},
		BatchSize:          getEnvInt("INGEST_BATCH_SIZE", 1000),
		FetchConcurrency:   getEnvInt("INGEST_CONCURRENCY", 4),
		RateLimitCalls:     getEnvInt("KIS_RATE_LIMIT_CALLS", 8),
		RateLimitWindow:    time.Second,
		IngestLookbackDays: getEnvInt("INGEST_LOOKBACK_DAYS", 7),
	}
}

// getEnv は環境変数を取得し、未設定の場合はデフォルト値を返します。
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getEnvInt は整数の環境変数を取得します。不正な値はデフォルトに落とします。
func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("invalid integer in environment, using default", "key", key, "value", v, "default", fallback)
		return fallback
	}
	return n
}
