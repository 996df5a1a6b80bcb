package collector

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Orchestrator runs one sequential batch pass: for each resolved forum
// it tries the transport strategies in priority order through the
// retry policy, validates the first successful response, and hands the
// accepted payload to the archive writer. Forums are isolated: one
// forum exhausting its chain never aborts the batch.
type Orchestrator struct {
	strategies []Strategy
	retry      RetryPolicy
	validator  Validator
	writer     ArchiveWriter
	pacer      *rate.Limiter
	logger     *zap.Logger
	now        func() time.Time
}

// NewOrchestrator wires the pipeline. pacer spaces forum-to-forum
// processing; pass a rate.Inf limiter (or nil) to disable pacing.
func NewOrchestrator(
	strategies []Strategy,
	retry RetryPolicy,
	validator Validator,
	writer ArchiveWriter,
	pacer *rate.Limiter,
	logger *zap.Logger,
) *Orchestrator {
	if pacer == nil {
		pacer = rate.NewLimiter(rate.Inf, 1)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		strategies: strategies,
		retry:      retry,
		validator:  validator,
		writer:     writer,
		pacer:      pacer,
		logger:     logger,
		now:        time.Now,
	}
}

// Run processes the forums in order and returns the run summary. The
// returned error is non-nil iff at least one forum failed, so callers
// can map it straight to the process exit status.
func (o *Orchestrator) Run(ctx context.Context, forums []ForumID) (Summary, error) {
	summary := Summary{
		RunID: uuid.NewString(),
		Date:  o.now().UTC(),
	}
	o.logger.Info("starting collection run",
		zap.String("run_id", summary.RunID),
		zap.Int("forums", len(forums)),
	)

	for _, forum := range forums {
		if err := o.pacer.Wait(ctx); err != nil {
			return summary, fmt.Errorf("run interrupted: %w", err)
		}
		outcome := o.collectForum(ctx, forum)
		summary.Outcomes = append(summary.Outcomes, outcome)
	}

	o.logSummary(summary)
	if failed := summary.Failed(); failed > 0 {
		return summary, fmt.Errorf("%d of %d forums failed", failed, len(summary.Outcomes))
	}
	return summary, nil
}

func (o *Orchestrator) collectForum(ctx context.Context, forum ForumID) FetchOutcome {
	outcome := FetchOutcome{Forum: forum, Status: StatusExhausted}

	for i, strat := range o.strategies {
		if i > 0 {
			TotalFallbacks.Inc()
		}

		var accepted AcceptedPayload
		err := o.retry.Do(ctx, func(ctx context.Context) error {
			raw, ferr := strat.Fetch(ctx, forum)
			if ferr != nil {
				return ferr
			}
			payload, verr := o.validator.Validate(raw)
			if verr != nil {
				return verr
			}
			accepted = payload
			return nil
		}, func(attempt int, err error) {
			TotalAttempts.Inc()
			outcome.Attempts = append(outcome.Attempts, Attempt{
				Strategy: strat.Name(),
				Number:   attempt,
				Err:      err,
			})
		})
		if err != nil {
			o.logger.Warn("strategy failed",
				zap.String("forum", string(forum)),
				zap.String("strategy", strat.Name()),
				zap.Error(err),
			)
			continue
		}

		TotalAccepted.Inc()
		outcome.SucceededVia = strat.Name()
		path, werr := o.writer.Write(ctx, accepted, o.now().UTC())
		if werr != nil {
			TotalWriteFailures.Inc()
			outcome.Status = StatusWriteFailed
			outcome.Err = fmt.Errorf("archive write for %s: %w", forum, werr)
			o.logger.Error("archive write failed",
				zap.String("forum", string(forum)),
				zap.Error(werr),
			)
			return outcome
		}

		outcome.Status = StatusSucceeded
		outcome.ArchivePath = path
		o.logger.Info("forum archived",
			zap.String("forum", string(forum)),
			zap.String("strategy", strat.Name()),
			zap.Int("posts", len(accepted.Posts)),
			zap.String("path", path),
		)
		return outcome
	}

	TotalExhausted.Inc()
	outcome.Err = fmt.Errorf("%s: %w", forum, ErrAllStrategiesExhausted)
	return outcome
}

// logSummary emits the per-run report: every forum's terminal state
// and, for failures, the full attempts log.
func (o *Orchestrator) logSummary(summary Summary) {
	for _, out := range summary.Outcomes {
		fields := []zap.Field{
			zap.String("run_id", summary.RunID),
			zap.String("forum", string(out.Forum)),
			zap.String("status", string(out.Status)),
			zap.Int("attempts", len(out.Attempts)),
		}
		if out.Status == StatusSucceeded {
			fields = append(fields, zap.String("via", out.SucceededVia))
			o.logger.Info("forum outcome", fields...)
			continue
		}
		for _, a := range out.Attempts {
			o.logger.Warn("failed attempt",
				zap.String("forum", string(out.Forum)),
				zap.String("strategy", a.Strategy),
				zap.Int("attempt", a.Number),
				zap.Error(a.Err),
			)
		}
		fields = append(fields, zap.Error(out.Err))
		o.logger.Error("forum outcome", fields...)
	}
	o.logger.Info("collection run finished",
		zap.String("run_id", summary.RunID),
		zap.Int("succeeded", len(summary.Outcomes)-summary.Failed()),
		zap.Int("failed", summary.Failed()),
	)

	counters, err := GatherCounters()
	if err != nil {
		o.logger.Warn("metrics snapshot failed", zap.Error(err))
		return
	}
	names := make([]string, 0, len(counters))
	for name := range counters {
		names = append(names, name)
	}
	sort.Strings(names)
	fields := make([]zap.Field, 0, len(names)+1)
	fields = append(fields, zap.String("run_id", summary.RunID))
	for _, name := range names {
		fields = append(fields, zap.Float64(name, counters[name]))
	}
	o.logger.Info("run counters", fields...)
}
