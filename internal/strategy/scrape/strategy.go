// Package scrape implements the last-resort transport strategy: a
// Colly fetch of the old-frontend HTML listing page.
package scrape

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/JakeFAU/reddit-archiver/internal/collector"
)

const defaultBaseURL = "https://old.reddit.com"

// Config controls the HTML scrape strategy.
type Config struct {
	BaseURL   string
	UserAgent string
}

// Strategy fetches the listing HTML with a Colly collector. Each fetch
// clones the base collector so per-run state never leaks between
// forums.
type Strategy struct {
	cfg    Config
	base   *colly.Collector
	logger *zap.Logger
}

// New builds the strategy.
func New(cfg Config, logger *zap.Logger) *Strategy {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	c := colly.NewCollector(colly.Async(false))
	c.IgnoreRobotsTxt = true
	return &Strategy{cfg: cfg, base: c, logger: logger}
}

// Name implements collector.Strategy.
func (s *Strategy) Name() string { return "html_scrape" }

// Format implements collector.Strategy.
func (s *Strategy) Format() collector.PayloadFormat { return collector.FormatHTML }

// Fetch retrieves the forum's listing page.
func (s *Strategy) Fetch(ctx context.Context, forum collector.ForumID) (collector.RawResponse, error) {
	var (
		body     []byte
		fetchErr error
	)

	c := s.base.Clone()
	if s.cfg.UserAgent != "" {
		c.UserAgent = s.cfg.UserAgent
	}
	if deadline, ok := ctx.Deadline(); ok {
		c.SetRequestTimeout(time.Until(deadline))
	}
	c.OnResponse(func(r *colly.Response) {
		body = r.Body
	})
	c.OnError(func(r *colly.Response, err error) {
		if r != nil && r.StatusCode > 0 {
			fetchErr = collector.StatusError(r.StatusCode)
			return
		}
		fetchErr = collector.TransportError(err)
	})

	endpoint := fmt.Sprintf("%s/r/%s/", s.cfg.BaseURL, forum)
	if err := c.Visit(endpoint); err != nil && fetchErr == nil {
		fetchErr = collector.TransportError(err)
	}
	if fetchErr != nil {
		s.logger.Debug("scrape failed",
			zap.String("forum", string(forum)),
			zap.Error(fetchErr),
		)
		return collector.RawResponse{}, fetchErr
	}
	if len(bytes.TrimSpace(body)) == 0 {
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
