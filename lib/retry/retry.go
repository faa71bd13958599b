// Package retry runs an action under a bounded-attempt policy with a fixed
// delay between attempts. Only timeout-class failures are retried.
package retry

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Outcome tags the result of a single attempt.
type Outcome int

const (
	Ok Outcome = iota
	Transient
	Fatal
)

func (o Outcome) String() string {
	switch o {
	case Ok:
		return "ok"
	case Transient:
		return "transient"
	case Fatal:
		return "fatal"
	}
	return "unknown"
}

type timeout interface {
	Timeout() bool
}

// Classify tags `err`. Errors reporting Timeout() == true anywhere in their
// chain (context.DeadlineExceeded, net.Error, render.ErrTimeout) are
// transient, everything else is fatal.
func Classify(err error) Outcome {
	if err == nil {
		return Ok
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return Transient
	}
	var t timeout
	if errors.As(err, &t) && t.Timeout() {
		return Transient
	}
	return Fatal
}

type Policy struct {
	// total number of attempts, values < 1 are treated as 1
	Attempts int
	// fixed wait between attempts
	Delay time.Duration
}

func (p Policy) attempts() int {
	if p.Attempts < 1 {
		return 1
	}
	return p.Attempts
}

// Result is the full record of a Run.
type Result[T any] struct {
	Value T
	// Outcome of the last attempt
	Outcome Outcome
	// number of times the action was invoked
	Attempts int
	// error of the last attempt, nil when Outcome is Ok
	Err error
}

func (r Result[T]) Ok() bool {
	return r.Outcome == Ok
}

var meter = otel.Meter("reviewharvest/lib/retry")
var attemptCounter, _ = meter.Int64Counter(
	"retry_attempts",
	metric.WithDescription("number of failed attempts, by outcome"),
)

func (p Policy) backOff(ctx context.Context) backoff.BackOffContext {
	return backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(p.Delay), uint64(p.attempts()-1)),
		ctx,
	)
}

func countAttempt(ctx context.Context, label string, outcome Outcome) {
	attemptCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("label", label),
		attribute.String("outcome", outcome.String()),
	))
}

// Run invokes `action` until it succeeds, fails with a fatal error, or the
// policy's attempts are used up. It never panics or returns an error itself,
// the caller decides what an absent value means.
func Run[T any](ctx context.Context, policy Policy, label string, action func(ctx context.Context) (T, error)) Result[T] {
	var result Result[T]

	operation := func() (T, error) {
		result.Attempts++
		value, err := action(ctx)
		result.Outcome = Classify(err)
		result.Err = err

		switch result.Outcome {
		case Ok:
			return value, nil
		case Fatal:
			countAttempt(ctx, label, Fatal)
			slog.ErrorContext(ctx, "unexpected error, not retrying", "action", label, "err", err)
			return value, backoff.Permanent(err)
		}
		countAttempt(ctx, label, Transient)
		return value, err
	}
	notify := func(err error, wait time.Duration) {
		slog.DebugContext(ctx, "attempt failed, retrying", "action", label, "attempt", result.Attempts, "wait", wait, "err", err)
	}

	value, err := backoff.RetryNotifyWithData(operation, policy.backOff(ctx), notify)
	switch {
	case err == nil:
		result.Value = value
	case result.Outcome == Fatal:
		// logged by the attempt
	case ctx.Err() != nil && errors.Is(err, ctx.Err()):
		result.Err = err
		result.Outcome = Classify(err)
		slog.InfoContext(ctx, "action cancelled while waiting to retry", "action", label, "attempts", result.Attempts)
	default:
		slog.InfoContext(ctx, "action failed after all attempts", "action", label, "attempts", result.Attempts)
	}
	return result
}

// Do is Run for callers that only care about the value.
func Do[T any](ctx context.Context, policy Policy, label string, action func(ctx context.Context) (T, error)) (T, bool) {
	result := Run(ctx, policy, label, action)
	return result.Value, result.Ok()
}

// DoErr is Do for actions without a value.
func DoErr(ctx context.Context, policy Policy, label string, action func(ctx context.Context) error) bool {
	_, ok := Do(ctx, policy, label, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, action(ctx)
	})
	return ok
}
