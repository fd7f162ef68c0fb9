// Package kisclient provides the shared HTTP client for the KIS open API.
// It sets the broker's required headers (appkey/appsecret/custtype/tr_id)
// and injects a bearer token for authenticated endpoints.
package kisclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// ErrNoTokenProvider is returned when an authenticated request is made
// without a token provider configured.
var ErrNoTokenProvider = errors.New("kisclient: token provider required for authenticated request")

// TokenProvider supplies a valid access token for authenticated requests.
type TokenProvider func(ctx context.Context) (string, error)

// Client is an HTTP client for the KIS open API.
type Client struct {
	cfg           Config
	http          *http.Client
	tokenProvider TokenProvider
}

// RequestOptions carries per-request settings.
type RequestOptions struct {
	TrID  string     // transaction id header, required by most endpoints
	Auth  bool       // inject Authorization: Bearer <token>
	Query url.Values // query parameters (GET)
	Body  any        // JSON-encoded request body (POST)
}

// New creates a Client. The token provider may be nil as long as only
// unauthenticated endpoints (token issuance) are called.
func New(cfg Config, httpClient *http.Client, tokenProvider TokenProvider) *Client {
	return &Client{cfg: cfg, http: httpClient, tokenProvider: tokenProvider}
}

// SetTokenProvider wires the token provider after construction. The token
// service itself needs a Client to issue tokens, so the provider is
// attached once the service exists.
func (c *Client) SetTokenProvider(p TokenProvider) {
	c.tokenProvider = p
}

// Get issues a GET request against path and decodes the JSON response into out.
func (c *Client) Get(ctx context.Context, path string, opts RequestOptions, out any) error {
	return c.do(ctx, http.MethodGet, path, opts, out)
}

// Post issues a POST request against path and decodes the JSON response into out.
func (c *Client) Post(ctx context.Context, path string, opts RequestOptions, out any) error {
	return c.do(ctx, http.MethodPost, path, opts, out)
}

func (c *Client) do(ctx context.Context, method, path string, opts RequestOptions, out any) error {
	u := strings.TrimRight(c.cfg.BaseURL, "/") + path
	if len(opts.Query) > 0 {
		u += "?" + opts.Query.Encode()
	}

	var body io.Reader
	if opts.Body != nil {
		b, err := json.Marshal(opts.Body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("appkey", c.cfg.AppKey)
	req.Header.Set("appsecret", c.cfg.AppSecret)
	req.Header.Set("custtype", "P") // personal account
	if opts.TrID != "" {
		req.Header.Set("tr_id", opts.TrID)
	}

	if opts.Auth {
		if c.tokenProvider == nil {
			return ErrNoTokenProvider
		}
		token, err := c.tokenProvider(ctx)
		if err != nil {
			return fmt.Errorf("get access token: %w", err)
		}
		req.Header.Set("authorization", "Bearer "+token)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode >= 400 {
		return fmt.Errorf("kis http %d: %s %s", res.StatusCode, method, path)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
