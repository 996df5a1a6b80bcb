// Package plainjson implements the unauthenticated JSON transport
// strategy against the public listing endpoint.
package plainjson

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/reddit-archiver/internal/collector"
)

// defaultBaseURLs are tried in order within one attempt; the old
// frontend host is sometimes less restrictive than the main one.
var defaultBaseURLs = []string{
	"https://www.reddit.com",
	"https://old.reddit.com",
}

// Config controls the unauthenticated JSON strategy.
type Config struct {
	BaseURLs  []string
	UserAgent string
}

// Strategy fetches /r/<forum>.json without authentication.
type Strategy struct {
	cfg    Config
	client *http.Client
	logger *zap.Logger
}

// New builds the strategy.
func New(cfg Config, client *http.Client, logger *zap.Logger) *Strategy {
	if len(cfg.BaseURLs) == 0 {
		cfg.BaseURLs = defaultBaseURLs
	}
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Strategy{cfg: cfg, client: client, logger: logger}
}

// Name implements collector.Strategy.
func (s *Strategy) Name() string { return "plain_json" }

// Format implements collector.Strategy.
func (s *Strategy) Format() collector.PayloadFormat { return collector.FormatJSON }

// Fetch tries each configured host in order and returns the first
// successful body; the last host's error is surfaced otherwise.
func (s *Strategy) Fetch(ctx context.Context, forum collector.ForumID) (collector.RawResponse, error) {
	var lastErr error
	for _, base := range s.cfg.BaseURLs {
		body, err := s.get(ctx, fmt.Sprintf("%s/r/%s.json", base, forum))
		if err != nil {
			s.logger.Debug("host failed",
				zap.String("base", base),
				zap.String("forum", string(forum)),
				zap.Error(err),
			)
			lastErr = err
			continue
		}
		return collector.RawResponse{
			Forum:     forum,
			Strategy:  s.Name(),
			Format:    s.Format(),
			Body:      body,
			FetchedAt: time.Now().UTC(),
		}, nil
	}
	return collector.RawResponse{}, lastErr
}

func (s *Strategy) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", s.cfg.UserAgent)
	req.Header.Set("Accept", "application/json, text/javascript, */*; q=0.01")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, collector.TransportError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, collector.StatusError(resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, collector.TransportError(err)
	}
	if len(body) == 0 {
		return nil, &collector.FetchError{Cause: collector.CauseEmpty}
	}
	return body, nil
}
