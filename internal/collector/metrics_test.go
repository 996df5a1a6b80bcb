package collector

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGatherCounters(t *testing.T) {
	before, err := GatherCounters()
	require.NoError(t, err)

	expected := []string{
		"archiver_fetch_attempts_total",
		"archiver_strategy_fallbacks_total",
		"archiver_payloads_accepted_total",
		"archiver_forums_exhausted_total",
		"archiver_archive_write_failures_total",
	}
	for _, name := range expected {
		require.Contains(t, before, name)
	}

	TotalAttempts.Inc()

	// Other tests in the package may bump counters concurrently, so
	// only the lower bound is stable.
	after, err := GatherCounters()
	require.NoError(t, err)
	require.GreaterOrEqual(t,
		after["archiver_fetch_attempts_total"],
		before["archiver_fetch_attempts_total"]+1,
	)
}
