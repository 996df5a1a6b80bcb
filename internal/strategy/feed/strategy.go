// Package feed implements the syndication transport strategy: the
// per-forum RSS/Atom feed, which tends to stay reachable when the
// JSON endpoints are blocked.
package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/reddit-archiver/internal/collector"
)

var defaultBaseURLs = []string{
	"https://old.reddit.com",
	"https://www.reddit.com",
}

// Config controls the syndication strategy.
type Config struct {
	BaseURLs  []string
	UserAgent string
}

// Strategy fetches /r/<forum>.rss. The raw artifact is the feed XML;
// parsing happens in the validator.
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
func (s *Strategy) Name() string { return "syndication_feed" }

// Format implements collector.Strategy.
func (s *Strategy) Format() collector.PayloadFormat { return collector.FormatFeed }

// Fetch tries each configured host in order.
func (s *Strategy) Fetch(ctx context.Context, forum collector.ForumID) (collector.RawResponse, error) {
	var lastErr error
	for _, base := range s.cfg.BaseURLs {
		body, err := s.get(ctx, fmt.Sprintf("%s/r/%s.rss", base, forum))
		if err != nil {
			s.logger.Debug("feed host failed",
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
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml, text/xml, */*")

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
