package adapters

import (
	"context"
	"log/slog"
	"time"

	"stock_ingest/internal/feature/token/usecase"
	"stock_ingest/internal/platform/kisclient"
)

// tokenPath is the KIS OAuth2 issuance endpoint.
const tokenPath = "/oauth2/tokenP"

// KISAuth implements usecase.TokenIssuer against the KIS OAuth2 endpoint.
type KISAuth struct {
	cfg    kisclient.Config
	client *kisclient.Client
}

var _ usecase.TokenIssuer = (*KISAuth)(nil)

// NewKISAuth creates a new KISAuth issuer.
func NewKISAuth(cfg kisclient.Config, client *kisclient.Client) *KISAuth {
	return &KISAuth{cfg: cfg, client: client}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

// Issue requests a fresh access token with the application key/secret.
// A response without an access_token is a hard failure.
func (a *KISAuth) Issue(ctx context.Context) (usecase.IssuedToken, error) {
	body := map[string]string{
		"grant_type": "client_credentials",
		"appkey":     a.cfg.AppKey,
		"appsecret":  a.cfg.AppSecret,
	}

	var res tokenResponse
	if err := a.client.Post(ctx, tokenPath, kisclient.RequestOptions{Body: body}, &res); err != nil {
		return usecase.IssuedToken{}, err
	}

	if res.AccessToken == "" {
		slog.Error("token issuance returned no access_token", "expires_in", res.ExpiresIn)
		return usecase.IssuedToken{}, usecase.ErrNoAccessToken
	}

	return usecase.IssuedToken{
		AccessToken: res.AccessToken,
		ExpiresIn:   time.Duration(res.ExpiresIn) * time.Second,
	}, nil
}
