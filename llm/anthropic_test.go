package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAnthropicProvider(t *testing.T, handler http.HandlerFunc) *AnthropicProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	p, err := NewAnthropicProvider(AnthropicConfig{
		APIKey:  "test-key",
		Model:   "claude-haiku",
		BaseURL: server.URL,
	})
	require.NoError(t, err)
	return p
}

func anthropicMessage(text, stopReason string) map[string]any {
	return map[string]any{
		"id":            "msg_test",
		"type":          "message",
		"role":          "assistant",
		"model":         "claude-haiku-4-5",
		"content":       []map[string]any{{"type": "text", "text": text}},
		"stop_reason":   stopReason,
		"stop_sequence": nil,
		"usage":         map[string]any{"input_tokens": 20, "output_tokens": 9},
	}
}

func anthropicError(status int, errType string, header http.Header) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		for k, v := range header {
			w.Header()[k] = v
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]any{
			"type":  "error",
			"error": map[string]any{"type": errType, "message": errType},
		})
	}
}

func TestAnthropicProvider_HappyPath(t *testing.T) {
	var got map[string]any
	p := newTestAnthropicProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(anthropicMessage(`{"title":"Go"}`, "end_turn"))
	})

	assert.Equal(t, "claude-haiku-4-5", p.ModelID())

	resp, err := p.Generate(context.Background(), Request{
		System:   "You are an expert career advisor.",
		Messages: []Message{{Role: RoleUser, Content: "Become a Go developer"}},
	})
	require.NoError(t, err)

	assert.JSONEq(t, `{"title":"Go"}`, string(resp.Content))
	assert.Equal(t, Usage{InputTokens: 20, OutputTokens: 9, TotalTokens: 29}, resp.Usage)
	assert.Equal(t, "claude-haiku-4-5", resp.Model)
	assert.Equal(t, "end", resp.StopReason)

	assert.Equal(t, "claude-haiku-4-5", got["model"])
	assert.EqualValues(t, defaultAnthropicMaxTokens, got["max_tokens"])
	messages, ok := got["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 1)
	assert.Equal(t, "user", messages[0].(map[string]any)["role"])
	system, ok := got["system"].([]any)
	require.True(t, ok)
	assert.Equal(t, "You are an expert career advisor.", system[0].(map[string]any)["text"])
}

func TestAnthropicProvider_Truncated(t *testing.T) {
	p := newTestAnthropicProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(anthropicMessage(`{"title": "G`, "max_tokens"))
	})

	_, err := p.Generate(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "test"}}})
	var maxTok *ErrMaxTokensExceeded
	require.ErrorAs(t, err, &maxTok)
	assert.Equal(t, `{"title": "G`, string(maxTok.Content))
}

func TestAnthropicProvider_NoText(t *testing.T) {
	p := newTestAnthropicProvider(t, func(w http.ResponseWriter, r *http.Request) {
		msg := anthropicMessage("", "end_turn")
		msg["content"] = []map[string]any{}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(msg)
	})

	_, err := p.Generate(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "test"}}})
	var inv *ErrInvalidResponse
	assert.ErrorAs(t, err, &inv)
}

func TestAnthropicProvider_SchemaValidated(t *testing.T) {
	p := newTestAnthropicProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(anthropicMessage(`{"nodes": "none"}`, "end_turn"))
	})

	_, err := p.Generate(context.Background(), Request{
		Messages: []Message{{Role: RoleUser, Content: "test"}},
		Schema: &Schema{
			Name: "anthropic-test-nodes",
			Definition: map[string]any{
				"type":       "object",
				"properties": map[string]any{"nodes": map[string]any{"type": "array"}},
				"required":   []string{"nodes"},
			},
		},
	})
	var inv *ErrInvalidResponse
	assert.ErrorAs(t, err, &inv)
}

func TestAnthropicProvider_StatusMapping(t *testing.T) {
	t.Run("rate limit carries retry-after", func(t *testing.T) {
		p := newTestAnthropicProvider(t, anthropicError(http.StatusTooManyRequests, "rate_limit_error", http.Header{"Retry-After": {"7"}}))
		_, err := p.Generate(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "test"}}})
		var rl *ErrRateLimit
		require.ErrorAs(t, err, &rl)
		assert.Equal(t, 7*time.Second, rl.RetryAfter)
	})

	t.Run("billing", func(t *testing.T) {
		p := newTestAnthropicProvider(t, anthropicError(http.StatusPaymentRequired, "billing_error", nil))
		_, err := p.Generate(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "test"}}})
		var pr *ErrPaymentRequired
		assert.ErrorAs(t, err, &pr)
	})

	t.Run("overloaded is transient", func(t *testing.T) {
		p := newTestAnthropicProvider(t, anthropicError(529, "overloaded_error", nil))
		_, err := p.Generate(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "test"}}})
		var unavail *ErrProviderUnavailable
		require.ErrorAs(t, err, &unavail)
		assert.Equal(t, 529, unavail.Status)
		assert.Equal(t, again, classify(err))
	})

	t.Run("bad key is final", func(t *testing.T) {
		p := newTestAnthropicProvider(t, anthropicError(http.StatusUnauthorized, "authentication_error", nil))
		_, err := p.Generate(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "test"}}})
		assert.Equal(t, giveUp, classify(err))
	})
}

func TestAnthropicProvider_SDKDoesNotRetry(t *testing.T) {
	var calls atomic.Int32
	p := newTestAnthropicProvider(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		anthropicError(http.StatusServiceUnavailable, "api_error", nil)(w, r)
	})

	_, err := p.Generate(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "test"}}})
	require.Error(t, err)
	assert.EqualValues(t, 1, calls.Load())
}

func TestNewAnthropicProvider_RequiresKey(t *testing.T) {
	_, err := NewAnthropicProvider(AnthropicConfig{})
	assert.Error(t, err)
}
