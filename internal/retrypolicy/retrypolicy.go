// Package retrypolicy holds the single shared exponential-backoff policy
// every external-call client (analyser, catalogue) retries under, plus the
// generic helper that runs an operation under it. Per the design notes'
// re-architecture of the source's decorator-based retry, the policy is a
// small value, not a decorator — construct it once and pass it to Run.
package retrypolicy

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// Policy describes an exponential backoff: initial delay, multiplier, and
// attempt budget. It carries no state of its own — Run builds a fresh
// backoff.BackOff from it on every call, so a Policy value is safe to share
// across goroutines and reuse across calls.
type Policy struct {
	InitialInterval time.Duration
	Multiplier      float64
	MaxTries        uint
}

// Default is the backoff policy specified for both the analyser and the
// catalogue client: 1s initial delay, factor 2, capped at 5 attempts.
var Default = Policy{
	InitialInterval: 1 * time.Second,
	Multiplier:      2,
	MaxTries:        5,
}

// Run executes operation under p, retrying failures with exponential
// backoff until it succeeds, permanently fails, the attempt budget is
// exhausted, or ctx is cancelled. operation signals a permanent (non-retried)
// failure by returning an error wrapped in backoff.Permanent. onRetry, if
// non-nil, is called once per attempt after the first — callers use it to
// bump a retries-total metric without duplicating the attempt-counting logic.
func Run[T any](ctx context.Context, p Policy, onRetry func(), operation func() (T, error)) (T, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = p.InitialInterval
	bo.Multiplier = p.Multiplier

	first := true
	wrapped := func() (T, error) {
		if !first && onRetry != nil {
			onRetry()
		}
		first = false
		return operation()
	}

	return backoff.Retry(ctx, wrapped, backoff.WithBackOff(bo), backoff.WithMaxTries(p.MaxTries))
}
