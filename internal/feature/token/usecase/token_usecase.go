package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// TokenStore persists the cached access token with a TTL.
// Following Go convention: interfaces are defined by the consumer (usecase), not the provider (adapters).
type TokenStore interface {
	Get(ctx context.Context) (string, error)
	Set(ctx context.Context, token string, ttl time.Duration) error
	TTL(ctx context.Context) (time.Duration, error)
}

// IssuedToken is the broker's issuance result.
type IssuedToken struct {
	AccessToken string
	ExpiresIn   time.Duration
}

// TokenIssuer requests a fresh credential from the broker.
type TokenIssuer interface {
	Issue(ctx context.Context) (IssuedToken, error)
}

// TokenUsecase caches the broker access token so it is not re-issued on
// every API call. Two concurrent cache misses may both issue a token;
// the broker tolerates re-issuance, so the miss path is intentionally
// not serialized.
type TokenUsecase struct {
	store  TokenStore
	issuer TokenIssuer
}

// NewTokenUsecase creates a new TokenUsecase.
func NewTokenUsecase(store TokenStore, issuer TokenIssuer) *TokenUsecase {
	return &TokenUsecase{store: store, issuer: issuer}
}

// GetToken returns the cached token, issuing and caching a new one on a miss.
func (u *TokenUsecase) GetToken(ctx context.Context) (string, error) {
	token, err := u.store.Get(ctx)
	if err == nil {
		slog.Debug("using cached access token")
		return token, nil
	}
	if !errors.Is(err, ErrTokenNotCached) {
		// A cache read failure is treated as a miss: the broker can
		// always issue a replacement.
		slog.Warn("token cache lookup failed", "error", err)
	}
	return u.IssueAndCache(ctx)
}

// IssueAndCache requests a new token from the broker and stores it with
// the exact validity duration the broker returned.
func (u *TokenUsecase) IssueAndCache(ctx context.Context) (string, error) {
	slog.Info("issuing new access token")

	issued, err := u.issuer.Issue(ctx)
	if err != nil {
		return "", err
	}

	if err := u.store.Set(ctx, issued.AccessToken, issued.ExpiresIn); err != nil {
		// The token itself is valid; a cache write failure only means
		// the next call issues again.
		slog.Warn("failed to cache access token", "error", err)
	}
	return issued.AccessToken, nil
}

// TTL reports the remaining validity of the cached token. Diagnostics
// only; correctness never depends on it.
func (u *TokenUsecase) TTL(ctx context.Context) (time.Duration, error) {
	return u.store.TTL(ctx)
}
