package collector

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// zeroDelayPolicy lets retry tests run without sleeping.
func zeroDelayPolicy(maxAttempts int) RetryPolicy {
	return RetryPolicy{MaxAttempts: maxAttempts}
}

func TestRetryDo_SucceedsAfterTransientFailures(t *testing.T) {
	t.Parallel()

	calls := 0
	var attempts []int
	err := zeroDelayPolicy(3).Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return &FetchError{Cause: CauseTimeout}
		}
		return nil
	}, func(attempt int, _ error) {
		attempts = append(attempts, attempt)
	})

	require.NoError(t, err)
	require.Equal(t, 3, calls)
	require.Equal(t, []int{1, 2, 3}, attempts)
}

func TestRetryDo_ExhaustsAttempts(t *testing.T) {
	t.Parallel()

	calls := 0
	err := zeroDelayPolicy(3).Do(context.Background(), func(context.Context) error {
		calls++
		return StatusError(http.StatusServiceUnavailable)
	}, nil)

	require.Equal(t, 3, calls)
	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	require.Equal(t, CauseHTTPStatus, fe.Cause)
	require.Equal(t, http.StatusServiceUnavailable, fe.StatusCode)
}

func TestRetryDo_NonRetryableAbortsImmediately(t *testing.T) {
	t.Parallel()

	for name, failure := range map[string]error{
		"auth rejected": AuthError(http.StatusForbidden, nil),
		"not found":     StatusError(http.StatusNotFound),
		"malformed":     &FetchError{Cause: CauseMalformedResponse},
		"empty":         &FetchError{Cause: CauseEmpty},
		"plain error":   errors.New("not a fetch error"),
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			calls := 0
			err := zeroDelayPolicy(5).Do(context.Background(), func(context.Context) error {
				calls++
				return failure
			}, nil)
			require.Equal(t, 1, calls)
			require.Error(t, err)
		})
	}
}

func TestRetryDo_AttemptTimeoutSetsDeadline(t *testing.T) {
	t.Parallel()

	p := RetryPolicy{MaxAttempts: 1, AttemptTimeout: time.Minute}
	err := p.Do(context.Background(), func(ctx context.Context) error {
		deadline, ok := ctx.Deadline()
		require.True(t, ok)
		require.WithinDuration(t, time.Now().Add(time.Minute), deadline, 5*time.Second)
		return nil
	}, nil)
	require.NoError(t, err)
}

func TestRetryDo_ContextCancelStopsBackoff(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	p := RetryPolicy{MaxAttempts: 3, BaseDelay: time.Hour, MaxDelay: time.Hour}
	calls := 0
	err := p.Do(ctx, func(context.Context) error {
		calls++
		cancel()
		return &FetchError{Cause: CauseNetworkUnreachable}
	}, nil)

	require.Equal(t, 1, calls)
	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	require.Equal(t, CauseNetworkUnreachable, fe.Cause)
}

func TestBackoff_GrowsAndCaps(t *testing.T) {
	t.Parallel()

	p := RetryPolicy{MaxAttempts: 5, BaseDelay: 100 * time.Millisecond, MaxDelay: 400 * time.Millisecond}
	for attempt := 1; attempt <= 5; attempt++ {
		d := p.Backoff(attempt)
		require.GreaterOrEqual(t, d, time.Duration(0))
		require.LessOrEqual(t, d, 400*time.Millisecond)
	}
}

func TestIsRetryable_Classification(t *testing.T) {
	t.Parallel()

	require.True(t, IsRetryable(&FetchError{Cause: CauseNetworkUnreachable}))
	require.True(t, IsRetryable(&FetchError{Cause: CauseTimeout}))
	require.True(t, IsRetryable(StatusError(http.StatusTooManyRequests)))
	require.True(t, IsRetryable(StatusError(http.StatusBadGateway)))
	require.False(t, IsRetryable(StatusError(http.StatusNotFound)))
	require.False(t, IsRetryable(AuthError(http.StatusUnauthorized, nil)))
	require.False(t, IsRetryable(&FetchError{Cause: CauseMalformedResponse}))
	require.False(t, IsRetryable(errors.New("opaque")))
}
