package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/JakeFAU/reddit-archiver/internal/archive"
	"github.com/JakeFAU/reddit-archiver/internal/collector"
	"github.com/JakeFAU/reddit-archiver/internal/config"
	"github.com/JakeFAU/reddit-archiver/internal/logging"
	"github.com/JakeFAU/reddit-archiver/internal/strategy/feed"
	"github.com/JakeFAU/reddit-archiver/internal/strategy/oauth"
	"github.com/JakeFAU/reddit-archiver/internal/strategy/plainjson"
	"github.com/JakeFAU/reddit-archiver/internal/strategy/scrape"
)

// newCollectCmd creates the 'collect' subcommand: one batch pass over
// the configured forum list, then exit.
func newCollectCmd() *cobra.Command {
	var forumsPath string
	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Runs one collection pass over the configured forum list",
		Long: `Resolves the enabled forum entries, fetches each forum through the
fallback chain, and writes dated archive files. Exits non-zero if any
forum could not be archived.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCollect(cmd.Context(), forumsPath)
		},
	}
	cmd.Flags().StringVar(&forumsPath, "forums", "", "forum list file (overrides config)")
	return cmd
}

func runCollect(ctx context.Context, forumsOverride string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.Logging.Development, cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	forums, err := resolveForumList(cfg, forumsOverride)
	if err != nil {
		logger.Error("forum list resolution failed", zap.Error(err))
		return err
	}

	writer, err := archive.NewWriter(cfg.Archive.Root, logger)
	if err != nil {
		return fmt.Errorf("init archive writer: %w", err)
	}

	retry := collector.RetryPolicy{
		MaxAttempts:    cfg.Retry.MaxAttempts,
		BaseDelay:      cfg.RetryBaseDelay(),
		MaxDelay:       cfg.RetryMaxDelay(),
		AttemptTimeout: cfg.HTTPTimeout(),
	}
	pacer := rate.NewLimiter(rate.Every(cfg.ForumDelay()), 1)

	orch := collector.NewOrchestrator(
		buildStrategies(cfg, logger),
		retry,
		collector.NewListingValidator(),
		writer,
		pacer,
		logger,
	)

	if _, err := orch.Run(ctx, forums); err != nil {
		return err
	}
	return nil
}

func resolveForumList(cfg config.Config, override string) ([]collector.ForumID, error) {
	path := cfg.Forums.Path
	if override != "" {
		path = override
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open forum list %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()
	return collector.ResolveForums(f)
}

// buildStrategies assembles the fallback chain in priority order.
// Missing credentials disable the authenticated strategy only.
func buildStrategies(cfg config.Config, logger *zap.Logger) []collector.Strategy {
	client := &http.Client{Timeout: cfg.HTTPTimeout()}
	var strategies []collector.Strategy

	if cfg.HasCredentials() {
		authed, err := oauth.New(oauth.Config{
			ClientID:     cfg.Reddit.ClientID,
			ClientSecret: cfg.Reddit.ClientSecret,
			UserAgent:    cfg.Reddit.UserAgent,
			Limit:        cfg.Reddit.ListingLimit,
		}, client, logger)
		if err != nil {
			logger.Warn("authenticated strategy unavailable", zap.Error(err))
		} else {
			strategies = append(strategies, authed)
		}
	} else {
		logger.Warn("reddit credentials not set; authenticated strategy disabled")
	}

	strategies = append(strategies,
		plainjson.New(plainjson.Config{UserAgent: cfg.HTTP.UserAgent}, client, logger),
		feed.New(feed.Config{UserAgent: cfg.HTTP.UserAgent}, client, logger),
		scrape.New(scrape.Config{UserAgent: cfg.HTTP.UserAgent}, logger),
	)
	return strategies
}
