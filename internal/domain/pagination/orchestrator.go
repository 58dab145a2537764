package pagination

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"
)

// Reason explains why a fetch run terminated.
type Reason string

const (
	// ReasonTargetReached means the requested item count was satisfied.
	ReasonTargetReached Reason = "target_reached"
	// ReasonExhausted means the source ran out of items or pages.
	ReasonExhausted Reason = "exhausted"
	// ReasonRemoteError means a mid-run page fetch failed and the run
	// degraded to the items accumulated before it.
	ReasonRemoteError Reason = "remote_error"
	// ReasonCapReached means the configured hard cap cut an unbounded or
	// oversized request short.
	ReasonCapReached Reason = "cap_reached"
)

// ValidationError reports invalid fetch parameters. It is returned before
// any page fetch happens.
type ValidationError struct {
	Field  string
	Detail string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid pagination parameter %s: %s", e.Field, e.Detail)
}

// Page is one fetched page. An empty NextToken means the source has no
// further pages.
type Page[T any] struct {
	Items     []T
	NextToken string
}

// PageFunc fetches one page of up to count items at the given offset. The
// token is the opaque cursor returned by the previous page, empty on the
// first call. Sources may return more than count items; the orchestrator
// truncates to the exact target.
type PageFunc[T any] func(ctx context.Context, offset, count int, token string) (Page[T], error)

// Config controls one fetch run.
type Config struct {
	// Target is the requested item count. Ignored when Unbounded.
	Target int
	// Unbounded fetches until the source is exhausted (or HardCap hits).
	Unbounded bool
	// BatchSize is the source-imposed page size.
	BatchSize int
	// MinDelay and MaxDelay bound the randomized pacing sleep applied
	// between successful page fetches.
	MinDelay time.Duration
	MaxDelay time.Duration
	// HardCap, when positive, is an absolute maximum independent of Target.
	// It is the only bound applied to unbounded runs.
	HardCap int
}

func (c Config) validate() error {
	if c.BatchSize <= 0 {
		return &ValidationError{Field: "batch_size", Detail: "must be positive"}
	}
	if !c.Unbounded && c.Target < 0 {
		return &ValidationError{Field: "target", Detail: "must not be negative"}
	}
	if c.HardCap < 0 {
		return &ValidationError{Field: "hard_cap", Detail: "must not be negative"}
	}
	if c.MinDelay < 0 || c.MaxDelay < 0 {
		return &ValidationError{Field: "delay", Detail: "must not be negative"}
	}
	if c.MinDelay > c.MaxDelay {
		return &ValidationError{Field: "delay", Detail: "min exceeds max"}
	}
	return nil
}

// limit resolves the effective item bound. capped reports whether the bound
// came from HardCap rather than the caller's target.
func (c Config) limit() (bound int, bounded, capped bool) {
	if c.Unbounded {
		if c.HardCap > 0 {
			return c.HardCap, true, true
		}
		return 0, false, false
	}
	if c.HardCap > 0 && c.HardCap < c.Target {
		return c.HardCap, true, true
	}
	return c.Target, true, false
}

// Result is the outcome of one fetch run.
type Result[T any] struct {
	Items  []T
	Pages  int
	Reason Reason
}

// Fetch drives repeated page fetches until the target is met, the source is
// exhausted, or a mid-run error degrades the run to partial results. Pages
// within one run are strictly sequential; the pacing sleep is applied only
// between successful fetches, never before the first page or after the
// terminal one.
func Fetch[T any](ctx context.Context, cfg Config, fetch PageFunc[T]) (*Result[T], error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	bound, bounded, capped := cfg.limit()
	reachedReason := ReasonTargetReached
	if capped {
		reachedReason = ReasonCapReached
	}

	var accumulated []T
	offset := 0
	token := ""
	pages := 0

	for {
		if bounded && bound-len(accumulated) <= 0 {
			return &Result[T]{Items: accumulated, Pages: pages, Reason: reachedReason}, nil
		}

		batch := cfg.BatchSize
		if bounded && bound-len(accumulated) < batch {
			batch = bound - len(accumulated)
		}

		page, err := fetch(ctx, offset, batch, token)
		if err != nil {
			if len(accumulated) > 0 {
				// Partial results beat a hard failure for a run already in
				// progress. The first page is different: nothing useful to
				// return, so the error propagates.
				return &Result[T]{Items: accumulated, Pages: pages, Reason: ReasonRemoteError}, nil
			}
			return nil, err
		}
		pages++

		if len(page.Items) == 0 {
			return &Result[T]{Items: accumulated, Pages: pages, Reason: ReasonExhausted}, nil
		}

		accumulated = append(accumulated, page.Items...)
		if bounded && len(accumulated) >= bound {
			accumulated = accumulated[:bound]
			return &Result[T]{Items: accumulated, Pages: pages, Reason: reachedReason}, nil
		}

		if page.NextToken == "" {
			return &Result[T]{Items: accumulated, Pages: pages, Reason: ReasonExhausted}, nil
		}

		if err := pace(ctx, cfg.MinDelay, cfg.MaxDelay); err != nil {
			return nil, err
		}
		offset += batch
		token = page.NextToken
	}
}

// pace sleeps a duration drawn uniformly from [min, max], honoring context
// cancellation.
func pace(ctx context.Context, min, max time.Duration) error {
	d := jitter(min, max)
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func jitter(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(rand.Int64N(int64(max-min)+1))
}
