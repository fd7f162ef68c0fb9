// Package di provides dependency injection factories for creating application components.
package di

import (
	"github.com/redis/go-redis/v9"

	tokenadapters "stock_ingest/internal/feature/token/adapters"
	tokenusecase "stock_ingest/internal/feature/token/usecase"
	infrahttp "stock_ingest/internal/platform/http"
	"stock_ingest/internal/platform/kisclient"
)

// NewKISClient creates a fully configured KIS client with HTTP client.
// The token provider is attached separately once the token usecase exists.
func NewKISClient(cfg kisclient.Config) *kisclient.Client {
	httpClient := infrahttp.NewHTTPClient(cfg.Timeout)
	return kisclient.New(cfg, httpClient, nil)
}

// NewTokenUsecase wires the Redis-backed token cache, the broker issuer
// and the KIS client together. The client receives the usecase as its
// token provider so that authenticated calls reuse the cached token.
func NewTokenUsecase(rdb *redis.Client, cfg kisclient.Config, kis *kisclient.Client) *tokenusecase.TokenUsecase {
	store := tokenadapters.NewTokenRedis(rdb, tokenadapters.TokenKey)
	uc := tokenusecase.NewTokenUsecase(store, tokenadapters.NewKISAuth(cfg, kis))
	kis.SetTokenProvider(uc.GetToken)
	return uc
}
