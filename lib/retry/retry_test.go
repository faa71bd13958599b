package retry

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type timeoutErr struct{}

func (timeoutErr) Error() string { return "timed out" }
func (timeoutErr) Timeout() bool { return true }

var errLogic = errors.New("selector missing")

func TestClassify(t *testing.T) {
	testCases := []struct {
		err    error
		expect Outcome
	}{
		{err: nil, expect: Ok},
		{err: context.DeadlineExceeded, expect: Transient},
		{err: fmt.Errorf("wait for title: %w", context.DeadlineExceeded), expect: Transient},
		{err: fmt.Errorf("open: %w", timeoutErr{}), expect: Transient},
		{err: &net.OpError{Op: "dial", Err: timeoutErr{}}, expect: Transient},
		{err: context.Canceled, expect: Fatal},
		{err: errLogic, expect: Fatal},
	}
	for _, test := range testCases {
		require.Equal(t, test.expect, Classify(test.err), fmt.Sprint(test.err))
	}
}

func TestRunSucceedsFirstTry(t *testing.T) {
	calls := 0
	res := Run(context.Background(), Policy{Attempts: 3}, "ok", func(ctx context.Context) (string, error) {
		calls++
		return "ready", nil
	})
	require.True(t, res.Ok())
	require.Equal(t, "ready", res.Value)
	require.Equal(t, 1, res.Attempts)
	require.Equal(t, 1, calls)
}

func TestRunRetriesTransient(t *testing.T) {
	calls := 0
	value, ok := Do(context.Background(), Policy{Attempts: 3}, "flaky", func(ctx context.Context) (int, error) {
		calls++
		if calls < 3 {
			return 0, timeoutErr{}
		}
		return 42, nil
	})
	require.True(t, ok)
	require.Equal(t, 42, value)
	require.Equal(t, 3, calls)
}

func TestRunExhaustion(t *testing.T) {
	const attempts = 4

	calls := 0
	start := time.Now()
	res := Run(context.Background(), Policy{Attempts: attempts, Delay: 5 * time.Millisecond}, "always times out", func(ctx context.Context) (bool, error) {
		calls++
		return true, context.DeadlineExceeded
	})

	require.Equal(t, attempts, calls)
	require.Equal(t, attempts, res.Attempts)
	require.False(t, res.Ok())
	require.False(t, res.Value)
	require.Equal(t, Transient, res.Outcome)
	// no wait after the final attempt
	require.GreaterOrEqual(t, time.Since(start), 3*5*time.Millisecond)
}

func TestRunFatalIsNotRetried(t *testing.T) {
	calls := 0
	res := Run(context.Background(), Policy{Attempts: 5}, "logic error", func(ctx context.Context) (int, error) {
		calls++
		return 7, errLogic
	})
	require.Equal(t, 1, calls)
	require.Equal(t, Fatal, res.Outcome)
	require.ErrorIs(t, res.Err, errLogic)
	require.Zero(t, res.Value)
}

func TestRunCancelledDuringDelay(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	ok := DoErr(ctx, Policy{Attempts: 3, Delay: time.Hour}, "cancelled", func(ctx context.Context) error {
		calls++
		cancel()
		return timeoutErr{}
	})
	require.False(t, ok)
	require.Equal(t, 1, calls)
}

func TestRunCancelledBetweenAttempts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := 0
	res := Run(ctx, Policy{Attempts: 3, Delay: time.Hour}, "cancelled while waiting", func(ctx context.Context) (int, error) {
		calls++
		time.AfterFunc(10*time.Millisecond, cancel)
		return 0, timeoutErr{}
	})
	require.Equal(t, 1, calls)
	require.Equal(t, 1, res.Attempts)
	require.False(t, res.Ok())
	require.ErrorIs(t, res.Err, context.Canceled)
}

func TestPolicyMinimumOneAttempt(t *testing.T) {
	calls := 0
	DoErr(context.Background(), Policy{}, "zero", func(ctx context.Context) error {
		calls++
		return timeoutErr{}
	})
	require.Equal(t, 1, calls)
}
