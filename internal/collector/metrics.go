package collector

import (
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// counterPrefix namespaces every counter this package registers.
const counterPrefix = "archiver_"

var (
	// TotalAttempts tracks every strategy attempt, including retries.
	TotalAttempts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "archiver_fetch_attempts_total",
		Help: "The total number of transport strategy attempts.",
	})
	// TotalFallbacks tracks how often a forum advanced past a failed strategy.
	TotalFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "archiver_strategy_fallbacks_total",
		Help: "The total number of advances to a lower-priority strategy.",
	})
	// TotalAccepted tracks payloads that passed validation.
	TotalAccepted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "archiver_payloads_accepted_total",
		Help: "The total number of validated payloads.",
	})
	// TotalExhausted tracks forums whose whole fallback chain failed.
	TotalExhausted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "archiver_forums_exhausted_total",
		Help: "The total number of forums with no successful strategy.",
	})
	// TotalWriteFailures tracks accepted payloads that failed to persist.
	TotalWriteFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "archiver_archive_write_failures_total",
		Help: "The total number of archive write failures.",
	})
)

// GatherCounters snapshots the archiver counters from the default
// registry. The process is a batch job with no scrape endpoint, so the
// run summary reports the values instead.
func GatherCounters() (map[string]float64, error) {
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		return nil, fmt.Errorf("gather metrics: %w", err)
	}
	counters := make(map[string]float64)
	for _, mf := range families {
		if !strings.HasPrefix(mf.GetName(), counterPrefix) {
			continue
		}
		var total float64
		for _, m := range mf.GetMetric() {
			total += m.GetCounter().GetValue()
		}
		counters[mf.GetName()] = total
	}
	return counters, nil
}
