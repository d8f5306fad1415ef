// Copyright 2026 The ConveyAI Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package registry integrates with the third-party land-registry API that
// generates contracts and title searches. The OAuth credential is process
// scoped: one upstream account serves all tenants.
package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/conveyai/conveyai/internal/observability/logger"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// ProductCodeTitleSearch orders a title search from the registry
const ProductCodeTitleSearch = "LRSTLS"

// Config holds the upstream endpoints and credentials
type Config struct {
	AuthURL      string
	TokenURL     string
	OrderURL     string
	ClientID     string
	ClientSecret string
	Username     string
	Timeout      time.Duration
	TokenTTL     time.Duration
}

// DocumentRef is the registry's answer to a successful order
type DocumentRef struct {
	OrderID     string
	DocumentURL string
	Raw         json.RawMessage
}

// Client talks to the registry. The bearer token is cached in process
// memory; refresh is single-flight so concurrent cold-cache callers share
// one authorization round-trip.
type Client struct {
	cfg  Config
	http *http.Client

	group singleflight.Group

	mu      sync.Mutex
	token   string
	expiry  time.Time
	lastTms int64 // last order-id timestamp, for monotonicity
}

// New creates a registry client with a bounded request timeout
func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	if cfg.TokenTTL <= 0 {
		// Conservative default when the issuer declares no expiry
		cfg.TokenTTL = 10 * time.Minute
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}
}

// cachedToken returns the token if it is still fresh. A small margin keeps
// us from presenting a token that expires mid-flight.
func (c *Client) cachedToken() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" && time.Now().Add(30*time.Second).Before(c.expiry) {
		return c.token, true
	}
	return "", false
}

func (c *Client) invalidateToken() {
	c.mu.Lock()
	c.token = ""
	c.expiry = time.Time{}
	c.mu.Unlock()
}

// acquireToken returns a valid bearer token, running the two-step
// authorization exchange at most once across concurrent callers.
func (c *Client) acquireToken(ctx context.Context) (string, error) {
	if token, ok := c.cachedToken(); ok {
		return token, nil
	}

	v, err, _ := c.group.Do("token", func() (any, error) {
		// Re-check under the flight: a caller that lost the race reuses
		// the token the winner just cached.
		if token, ok := c.cachedToken(); ok {
			return token, nil
		}
		return c.exchangeToken(ctx)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// exchangeToken performs the authorization-grant and token requests
func (c *Client) exchangeToken(ctx context.Context) (string, error) {
	// Step 1: authorization grant
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.cfg.AuthURL+"?client_id="+url.QueryEscape(c.cfg.ClientID), nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: authorization request: %v", ErrAuthFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: authorization endpoint returned %d", ErrAuthFailed, resp.StatusCode)
	}

	var grant struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&grant); err != nil || grant.Code == "" {
		return "", fmt.Errorf("%w: malformed authorization response", ErrAuthFailed)
	}

	// Step 2: exchange the grant code for a bearer token
	form := url.Values{
		"username":  {c.cfg.Username},
		"code":      {grant.Code},
		"client_id": {c.cfg.ClientID},
	}
	tokenReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.TokenURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}
	tokenReq.SetBasicAuth(c.cfg.ClientID, c.cfg.ClientSecret)
	tokenReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	tokenReq.Header.Set("X-Correlation-ID", uuid.NewString())

	tokenResp, err := c.http.Do(tokenReq)
	if err != nil {
		return "", fmt.Errorf("%w: token request: %v", ErrAuthFailed, err)
	}
	defer tokenResp.Body.Close()

	if tokenResp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: token endpoint returned %d", ErrAuthFailed, tokenResp.StatusCode)
	}

	var token struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.NewDecoder(tokenResp.Body).Decode(&token); err != nil || token.AccessToken == "" {
		return "", fmt.Errorf("%w: malformed token response", ErrAuthFailed)
	}

	ttl := c.cfg.TokenTTL
	if token.ExpiresIn > 0 {
		ttl = time.Duration(token.ExpiresIn) * time.Second
	}

	c.mu.Lock()
	c.token = token.AccessToken
	c.expiry = time.Now().Add(ttl)
	c.mu.Unlock()

	slog.InfoContext(ctx, "registry token acquired",
		logger.Component("registry"),
		slog.Duration("ttl", ttl),
	)

	return token.AccessToken, nil
}

// NewOrderID generates a time-based order identifier, monotonic within the
// process even when two orders land on the same millisecond.
func (c *Client) NewOrderID() string {
	c.mu.Lock()
	ms := time.Now().UnixMilli()
	if ms <= c.lastTms {
		ms = c.lastTms + 1
	}
	c.lastTms = ms
	c.mu.Unlock()

	return "CONVEYAI_" + strings.ToUpper(strconv.FormatInt(ms, 36))
}

// SubmitOrder submits a product order for a folio. The client does not
// retry: a transient failure surfaces as ErrUnavailable and the caller
// decides whether to resubmit with backoff.
func (c *Client) SubmitOrder(ctx context.Context, folioIdentifier, productCode string) (*DocumentRef, error) {
	token, err := c.acquireToken(ctx)
	if err != nil {
		return nil, err
	}

	orderID := c.NewOrderID()
	body, err := json.Marshal(map[string]string{
		"orderId":         orderID,
		"productCode":     productCode,
		"folioIdentifier": folioIdentifier,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode order: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.OrderURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Correlation-ID", uuid.NewString())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: order submission: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		c.invalidateToken()
		return nil, fmt.Errorf("%w: order submission returned %d", ErrAuthFailed, resp.StatusCode)
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: order submission returned %d", ErrUnavailable, resp.StatusCode)
	case resp.StatusCode >= 400:
		return nil, fmt.Errorf("%w: order submission returned %d", ErrRejected, resp.StatusCode)
	}

	var raw json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: malformed order response", ErrUnavailable)
	}

	var parsed struct {
		ProductDetails []struct {
			Document string `json:"document"`
		} `json:"productDetails"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil || len(parsed.ProductDetails) == 0 {
		return nil, fmt.Errorf("%w: order response missing product details", ErrRejected)
	}

	slog.InfoContext(ctx, "registry order submitted",
		logger.Component("registry"),
		logger.OrderID(orderID),
		logger.Folio(folioIdentifier),
	)

	return &DocumentRef{
		OrderID:     orderID,
		DocumentURL: parsed.ProductDetails[0].Document,
		Raw:         raw,
	}, nil
}
