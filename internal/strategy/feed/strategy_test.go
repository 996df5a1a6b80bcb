package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/reddit-archiver/internal/collector"
)

const atomBody = `<?xml version="1.0"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>posts from macapps</title>
  <entry><title>Test Post</title></entry>
</feed>`

func TestFetch_ReturnsFeedXML(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/r/macapps.rss", r.URL.Path)
		require.Contains(t, r.Header.Get("Accept"), "application/rss+xml")
		w.Header().Set("Content-Type", "application/atom+xml")
		_, _ = w.Write([]byte(atomBody))
	}))
	t.Cleanup(srv.Close)

	s := New(Config{BaseURLs: []string{srv.URL}, UserAgent: "test-agent"}, http.DefaultClient, zap.NewNop())

	raw, err := s.Fetch(context.Background(), "macapps")
	require.NoError(t, err)
	require.Equal(t, "syndication_feed", raw.Strategy)
	require.Equal(t, collector.FormatFeed, raw.Format)
	require.Contains(t, string(raw.Body), "Test Post")
	require.False(t, raw.FetchedAt.IsZero())
}

func TestFetch_RateLimitedIsTransient(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	t.Cleanup(srv.Close)

	s := New(Config{BaseURLs: []string{srv.URL}}, http.DefaultClient, zap.NewNop())

	_, err := s.Fetch(context.Background(), "macapps")
	var fe *collector.FetchError
	require.ErrorAs(t, err, &fe)
	require.Equal(t, collector.CauseHTTPStatus, fe.Cause)
	require.True(t, fe.Retryable())
}
