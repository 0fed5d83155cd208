package llm

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"
)

// RetryProvider resends a generation after transient upstream failures,
// waiting with capped exponential backoff and jitter between attempts.
type RetryProvider struct {
	inner  Provider
	config RetryConfig
}

// WithRetry wraps a Provider with retry logic.
func WithRetry(p Provider, cfg RetryConfig) Provider {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	return &RetryProvider{inner: p, config: cfg}
}

type verdict int

const (
	giveUp verdict = iota
	again
	// againOnce allows a single extra attempt per Generate call.
	againOnce
)

// classify decides whether err is worth another attempt.
//
// Exhausted credits, truncated replies and requests the upstream refused
// (4xx) fail the same way every time. An unusable reply gets one more
// sample. Throttling, outages and network errors are retried.
func classify(err error) verdict {
	var (
		payment     *ErrPaymentRequired
		maxTok      *ErrMaxTokensExceeded
		invalid     *ErrInvalidResponse
		unavailable *ErrProviderUnavailable
	)
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return giveUp
	case errors.As(err, &payment), errors.As(err, &maxTok):
		return giveUp
	case errors.As(err, &invalid):
		return againOnce
	case errors.As(err, &unavailable) && unavailable.permanent():
		return giveUp
	}
	return again
}

func (r *RetryProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	resampled := false

	for attempt := 0; ; attempt++ {
		resp, err := r.inner.Generate(ctx, req)
		if err == nil {
			return resp, nil
		}

		switch classify(err) {
		case giveUp:
			return nil, err
		case againOnce:
			if resampled {
				return nil, err
			}
			resampled = true
		}
		if attempt+1 >= r.config.MaxAttempts {
			return nil, err
		}

		wait := r.backoff(attempt, err)
		// A Retry-After past the deadline cannot be honoured; report the
		// throttle rather than time out waiting for it.
		if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < wait {
			var rl *ErrRateLimit
			if errors.As(err, &rl) {
				return nil, err
			}
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
}

func (r *RetryProvider) ModelID() string {
	return r.inner.ModelID()
}

// backoff returns the wait before attempt+1. An upstream Retry-After wins
// over the computed delay.
func (r *RetryProvider) backoff(attempt int, err error) time.Duration {
	var rl *ErrRateLimit
	if errors.As(err, &rl) && rl.RetryAfter > 0 {
		return rl.RetryAfter
	}

	wait := min(
		float64(r.config.InitialWait)*math.Pow(r.config.Multiplier, float64(attempt)),
		float64(r.config.MaxWait),
	)
	// ±20% jitter.
	wait *= 0.8 + 0.4*rand.Float64()
	return time.Duration(max(wait, 0))
}
