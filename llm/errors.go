package llm

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// ErrRateLimit means the upstream throttled the request (429).
type ErrRateLimit struct {
	// RetryAfter is the wait the upstream asked for, zero when it gave none.
	RetryAfter time.Duration
	Err        error
}

func (e *ErrRateLimit) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited, retry after %s: %v", e.RetryAfter, e.Err)
	}
	return fmt.Sprintf("rate limited: %v", e.Err)
}

func (e *ErrRateLimit) Unwrap() error { return e.Err }

// ErrPaymentRequired means the workspace behind the key has no AI credits
// left: a 402 from the gateway, or a quota error a backend reports as 429.
type ErrPaymentRequired struct {
	Err error
}

func (e *ErrPaymentRequired) Error() string {
	return fmt.Sprintf("AI credits exhausted: %v", e.Err)
}

func (e *ErrPaymentRequired) Unwrap() error { return e.Err }

// ErrInvalidResponse means the model answered but the reply is not a
// usable roadmap document.
type ErrInvalidResponse struct {
	Content json.RawMessage
	Err     error
}

func (e *ErrInvalidResponse) Error() string {
	return fmt.Sprintf("unusable model reply: %v", e.Err)
}

func (e *ErrInvalidResponse) Unwrap() error { return e.Err }

// ErrProviderUnavailable covers every other upstream failure. Status is the
// HTTP status when the upstream answered, zero for network errors.
type ErrProviderUnavailable struct {
	Status int
	Err    error
}

func (e *ErrProviderUnavailable) Error() string {
	switch {
	case e.Status != 0 && e.Err != nil:
		return fmt.Sprintf("AI gateway error (%d): %v", e.Status, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("AI gateway unreachable: %v", e.Err)
	}
	return "AI gateway unavailable"
}

func (e *ErrProviderUnavailable) Unwrap() error { return e.Err }

// permanent reports whether the upstream rejected the request itself, so
// sending it again cannot succeed.
func (e *ErrProviderUnavailable) permanent() bool {
	switch e.Status {
	case http.StatusRequestTimeout, http.StatusConflict:
		return false
	}
	return e.Status >= 400 && e.Status < 500
}

// ErrMaxTokensExceeded means the reply was cut off at the token limit, so
// the roadmap JSON is incomplete.
type ErrMaxTokensExceeded struct {
	Content json.RawMessage
}

func (e *ErrMaxTokensExceeded) Error() string {
	return "model reply truncated at the token limit"
}

// statusError maps an upstream HTTP status onto the typed errors.
func statusError(code int, retryAfter time.Duration, err error) error {
	switch code {
	case http.StatusTooManyRequests:
		return &ErrRateLimit{RetryAfter: retryAfter, Err: err}
	case http.StatusPaymentRequired:
		return &ErrPaymentRequired{Err: err}
	}
	return &ErrProviderUnavailable{Status: code, Err: err}
}

// parseRetryAfter reads a Retry-After header given in seconds.
func parseRetryAfter(h http.Header) time.Duration {
	if h == nil {
		return 0
	}
	secs, err := strconv.Atoi(h.Get("Retry-After"))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
