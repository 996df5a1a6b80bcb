// Package archive persists accepted payloads as a dated, per-forum
// file set under the repository data directory.
package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/reddit-archiver/internal/collector"
)

// topPostsCount is how many entries the popularity view keeps.
const topPostsCount = 10

// Writer serializes accepted payloads. The raw artifact is the
// authoritative record and is written atomically; derived views are
// best-effort and never fail the write.
type Writer struct {
	root   string
	logger *zap.Logger
}

// NewWriter returns a writer rooted at dir, creating it if needed.
func NewWriter(root string, logger *zap.Logger) (*Writer, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("archive root is required")
	}
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("create archive dir %s: %w", root, err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Writer{root: root, logger: logger}, nil
}

// Write stores the payload for (forum, date). Filenames are a
// deterministic function of forum and date, so a same-day rerun
// overwrites the previous entry even when it arrived through a
// different transport. It returns the raw artifact path.
func (w *Writer) Write(ctx context.Context, payload collector.AcceptedPayload, date time.Time) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("context canceled: %w", err)
	}
	forum := string(payload.Raw.Forum)
	dir := filepath.Join(w.root, forum)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("create forum dir %s: %w", dir, err)
	}

	stem := fmt.Sprintf("%s_%s", forum, date.Format("2006-01-02"))
	rawPath := filepath.Join(dir, stem+"."+payload.Raw.Format.Ext())
	if err := removeStaleRaws(dir, stem, rawPath); err != nil {
		return "", err
	}
	if err := writeFileAtomic(rawPath, payload.Raw.Body); err != nil {
		return "", fmt.Errorf("write raw artifact %s: %w", rawPath, err)
	}
	w.logger.Info("saved raw artifact",
		zap.String("path", rawPath),
		zap.Int("bytes", len(payload.Raw.Body)),
	)

	// Derived views are best-effort: the raw file is already safe.
	base := filepath.Join(dir, stem)
	if err := w.writeProcessed(base+"_processed.json", payload.Posts); err != nil {
		w.logger.Warn("failed to write processed view", zap.Error(err))
	}
	if err := w.writeReadable(base+"_readable.txt", payload, date); err != nil {
		w.logger.Warn("failed to write readable view", zap.Error(err))
	}
	if err := w.writeTopPosts(base+"_TOP10.txt", payload, date); err != nil {
		w.logger.Warn("failed to write top posts view", zap.Error(err))
	}
	return rawPath, nil
}

// removeStaleRaws drops raw artifacts left by an earlier same-day run
// that succeeded through a different transport, so (forum, date) always
// maps to exactly one raw file.
func removeStaleRaws(dir, stem, keep string) error {
	formats := []collector.PayloadFormat{collector.FormatJSON, collector.FormatFeed, collector.FormatHTML}
	for _, format := range formats {
		path := filepath.Join(dir, stem+"."+format.Ext())
		if path == keep {
			continue
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove stale raw artifact %s: %w", path, err)
		}
	}
	return nil
}

func (w *Writer) writeProcessed(path string, posts []collector.Post) error {
	data, err := json.MarshalIndent(posts, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal processed posts: %w", err)
	}
	return writeFileAtomic(path, data)
}

func (w *Writer) writeReadable(path string, payload collector.AcceptedPayload, date time.Time) error {
	var b strings.Builder
	rule := strings.Repeat("=", 70)
	fmt.Fprintf(&b, "Reddit r/%s - %s\n", payload.Raw.Forum, date.Format("2006-01-02"))
	fmt.Fprintf(&b, "%s\n", rule)
	fmt.Fprintf(&b, "Source: %s\n", payload.Raw.Strategy)
	fmt.Fprintf(&b, "Posts: %d\n", len(payload.Posts))
	fmt.Fprintf(&b, "%s\n\n", rule)

	for _, post := range payload.Posts {
		fmt.Fprintf(&b, "%s\n", rule)
		fmt.Fprintf(&b, "POST #%d: %s\n", post.Rank, post.Title)
		fmt.Fprintf(&b, "%s\n", rule)
		fmt.Fprintf(&b, "Author: u/%s\n", post.Author)
		fmt.Fprintf(&b, "Score: %d | Comments: %d\n", post.Score, post.NumComments)
		if post.PostedDate != "" {
			fmt.Fprintf(&b, "Posted: %s UTC\n", post.PostedDate)
		}
		fmt.Fprintf(&b, "Link: %s\n", post.Permalink)
		if post.URL != "" && post.URL != post.Permalink {
			fmt.Fprintf(&b, "URL: %s\n", post.URL)
		}
		fmt.Fprintf(&b, "\nCONTENT:\n%s\n\n", post.Content)
	}
	return writeFileAtomic(path, []byte(b.String()))
}

func (w *Writer) writeTopPosts(path string, payload collector.AcceptedPayload, date time.Time) error {
	ranked := make([]collector.Post, len(payload.Posts))
	copy(ranked, payload.Posts)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })
	if len(ranked) > topPostsCount {
		ranked = ranked[:topPostsCount]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "r/%s - TOP %d MOST POPULAR - %s\n", payload.Raw.Forum, topPostsCount, date.Format("2006-01-02"))
	fmt.Fprintf(&b, "%s\n\n", strings.Repeat("=", 70))
	for i, post := range ranked {
		title := post.Title
		if runes := []rune(title); len(runes) > 60 {
			title = string(runes[:60])
		}
		fmt.Fprintf(&b, "%2d. [%4d pts | %3d comments] %s\n", i+1, post.Score, post.NumComments, title)
		fmt.Fprintf(&b, "    %s\n\n", post.Permalink)
	}
	return writeFileAtomic(path, []byte(b.String()))
}

// writeFileAtomic writes via a temp file in the target directory and
// renames it into place, so an interrupted run never leaves a
// half-written artifact.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o640); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}
