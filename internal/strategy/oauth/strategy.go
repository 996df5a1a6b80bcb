// Package oauth implements the authenticated transport strategy using
// the official API with client-credentials OAuth.
package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/reddit-archiver/internal/collector"
)

const (
	defaultTokenURL = "https://www.reddit.com/api/v1/access_token"
	defaultAPIBase  = "https://oauth.reddit.com"
	defaultLimit    = 25

	// tokenRefreshMargin renews the token this long before it expires.
	tokenRefreshMargin = 5 * time.Minute
)

// Config holds the credentials and endpoints for the OAuth strategy.
type Config struct {
	ClientID     string
	ClientSecret string
	UserAgent    string
	TokenURL     string
	APIBase      string
	Limit        int
}

// Strategy fetches listings from the authenticated API. The access
// token is acquired on first use and cached for the process lifetime;
// it is never persisted across runs.
type Strategy struct {
	cfg    Config
	client *http.Client
	logger *zap.Logger

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

// New builds the strategy. Both credentials must be present; callers
// should skip this strategy entirely when they are not.
func New(cfg Config, client *http.Client, logger *zap.Logger) (*Strategy, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("client id and secret are required")
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = defaultTokenURL
	}
	if cfg.APIBase == "" {
		cfg.APIBase = defaultAPIBase
	}
	if cfg.Limit <= 0 {
		cfg.Limit = defaultLimit
	}
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Strategy{cfg: cfg, client: client, logger: logger}, nil
}

// Name implements collector.Strategy.
func (s *Strategy) Name() string { return "oauth_api" }

// Format implements collector.Strategy.
func (s *Strategy) Format() collector.PayloadFormat { return collector.FormatJSON }

// Fetch retrieves the hot listing for forum via the OAuth API.
func (s *Strategy) Fetch(ctx context.Context, forum collector.ForumID) (collector.RawResponse, error) {
	token, err := s.accessToken(ctx)
	if err != nil {
		return collector.RawResponse{}, err
	}

	endpoint := fmt.Sprintf("%s/r/%s/hot.json?limit=%d", s.cfg.APIBase, forum, s.cfg.Limit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return collector.RawResponse{}, fmt.Errorf("build listing request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("User-Agent", s.cfg.UserAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return collector.RawResponse{}, collector.TransportError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		// Drop the cached token; it may simply have been revoked.
		s.invalidateToken()
		return collector.RawResponse{}, collector.AuthError(resp.StatusCode, nil)
	case resp.StatusCode != http.StatusOK:
		return collector.RawResponse{}, collector.StatusError(resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return collector.RawResponse{}, collector.TransportError(err)
	}
	if len(body) == 0 {
		return collector.RawResponse{}, &collector.FetchError{Cause: collector.CauseEmpty}
	}
	return collector.RawResponse{
		Forum:     forum,
		Strategy:  s.Name(),
		Format:    s.Format(),
		Body:      body,
		FetchedAt: time.Now().UTC(),
	}, nil
}

func (s *Strategy) accessToken(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token != "" && time.Now().Before(s.expiresAt) {
		return s.token, nil
	}

	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build token request: %w", err)
	}
	req.SetBasicAuth(s.cfg.ClientID, s.cfg.ClientSecret)
	req.Header.Set("User-Agent", s.cfg.UserAgent)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", collector.TransportError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", collector.AuthError(resp.StatusCode, fmt.Errorf("token endpoint rejected credentials"))
	}

	var payload struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", collector.AuthError(resp.StatusCode, fmt.Errorf("decode token response: %w", err))
	}
	if payload.AccessToken == "" {
		return "", collector.AuthError(resp.StatusCode, fmt.Errorf("token response missing access_token"))
	}

	s.token = payload.AccessToken
	s.expiresAt = time.Now().Add(time.Duration(payload.ExpiresIn)*time.Second - tokenRefreshMargin)
	s.logger.Debug("obtained access token", zap.Int("expires_in", payload.ExpiresIn))
	return s.token, nil
}

func (s *Strategy) invalidateToken() {
	s.mu.Lock()
	s.token = ""
	s.mu.Unlock()
}
