// Package usecase implements the business logic for the token feature.
package usecase

import "errors"

var (
	// ErrTokenNotCached is returned when no access token is stored in the cache.
	ErrTokenNotCached = errors.New("access token not cached")

	// ErrNoAccessToken is returned when the broker's issuance response
	// carries no usable access_token field.
	ErrNoAccessToken = errors.New("token issuance response has no access_token")
)
