package redis

import (
	"context"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// Config はRedis接続の設定を保持します。
type Config struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisClient はRedisに接続したクライアントを返します。
// 接続確認（ping）に失敗した場合はエラーを返します。
func NewRedisClient(ctx context.Context, cfg Config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// 接続確認
	if err := rdb.Ping(ctx).Err(); err != nil {
		slog.Error("Redis connection failed", "address", cfg.Addr, "error", err)
		return nil, err
	}

	slog.Info("Redis connection successful", "address", cfg.Addr)
	return rdb, nil
}
