package llm

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

type contextKey string

const purposeKey contextKey = "llm_purpose"

// WithPurpose attaches a purpose label, such as PurposeRoadmap, to the
// context for request logging.
func WithPurpose(ctx context.Context, purpose string) context.Context {
	return context.WithValue(ctx, purposeKey, purpose)
}

// PurposeFrom extracts the purpose label from the context.
func PurposeFrom(ctx context.Context) string {
	if v, ok := ctx.Value(purposeKey).(string); ok {
		return v
	}
	return PurposeUnknown
}

// LoggingProvider is a decorator that logs every LLM request.
type LoggingProvider struct {
	inner  Provider
	logger *slog.Logger
}

// WithLogging wraps a Provider with structured request logging.
func WithLogging(p Provider, logger *slog.Logger) Provider {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingProvider{inner: p, logger: logger}
}

func (l *LoggingProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	resp, err := l.inner.Generate(ctx, req)

	attrs := []any{
		"model", l.inner.ModelID(),
		"purpose", PurposeFrom(ctx),
		"latency_ms", time.Since(start).Milliseconds(),
	}
	if resp != nil {
		attrs = append(attrs,
			"served_by", resp.Model,
			"input_tokens", resp.Usage.InputTokens,
			"output_tokens", resp.Usage.OutputTokens,
			"stop_reason", resp.StopReason,
		)
	}

	if err != nil {
		kind := errorKind(err)
		attrs = append(attrs, "kind", kind, "error", err)
		if kind == "payment_required" {
			l.logger.ErrorContext(ctx, "llm: AI credits exhausted", attrs...)
		} else {
			l.logger.WarnContext(ctx, "llm: request failed", attrs...)
		}
		return nil, err
	}
	l.logger.InfoContext(ctx, "llm: request completed", attrs...)
	return resp, nil
}

func (l *LoggingProvider) ModelID() string {
	return l.inner.ModelID()
}

// errorKind names the class of a gateway failure for log filtering.
func errorKind(err error) string {
	var (
		rateLimit   *ErrRateLimit
		payment     *ErrPaymentRequired
		invalid     *ErrInvalidResponse
		maxTok      *ErrMaxTokensExceeded
		unavailable *ErrProviderUnavailable
	)
	switch {
	case errors.As(err, &rateLimit):
		return "rate_limit"
	case errors.As(err, &payment):
		return "payment_required"
	case errors.As(err, &invalid):
		return "invalid_reply"
	case errors.As(err, &maxTok):
		return "truncated"
	case errors.As(err, &unavailable):
		return "unavailable"
	}
	return "other"
}
