package plainjson

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/reddit-archiver/internal/collector"
)

func TestFetch_FallsBackToSecondHost(t *testing.T) {
	t.Parallel()

	blocked := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	t.Cleanup(blocked.Close)

	open := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/r/macapps.json", r.URL.Path)
		require.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(`{"data":{"children":[]}}`))
	}))
	t.Cleanup(open.Close)

	s := New(Config{
		BaseURLs:  []string{blocked.URL, open.URL},
		UserAgent: "test-agent",
	}, http.DefaultClient, zap.NewNop())

	raw, err := s.Fetch(context.Background(), "macapps")
	require.NoError(t, err)
	require.Equal(t, "plain_json", raw.Strategy)
	require.Equal(t, collector.FormatJSON, raw.Format)
	require.Equal(t, collector.ForumID("macapps"), raw.Forum)
	require.Contains(t, string(raw.Body), "children")
}

func TestFetch_SurfacesLastHostError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)

	s := New(Config{BaseURLs: []string{srv.URL, srv.URL}}, http.DefaultClient, zap.NewNop())

	_, err := s.Fetch(context.Background(), "nosuchforum")
	var fe *collector.FetchError
	require.ErrorAs(t, err, &fe)
	require.Equal(t, collector.CauseHTTPStatus, fe.Cause)
	require.Equal(t, http.StatusNotFound, fe.StatusCode)
	require.False(t, fe.Retryable())
}

func TestFetch_EmptyBodyRejected(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	t.Cleanup(srv.Close)

	s := New(Config{BaseURLs: []string{srv.URL}}, http.DefaultClient, zap.NewNop())

	_, err := s.Fetch(context.Background(), "macapps")
	var fe *collector.FetchError
	require.ErrorAs(t, err, &fe)
	require.Equal(t, collector.CauseEmpty, fe.Cause)
}

func TestFetch_UnreachableHostIsTransient(t *testing.T) {
	t.Parallel()

	s := New(Config{BaseURLs: []string{"http://127.0.0.1:1"}}, http.DefaultClient, zap.NewNop())

	_, err := s.Fetch(context.Background(), "macapps")
	require.True(t, collector.IsRetryable(err))
}
