package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGeminiProvider(t *testing.T, handler http.HandlerFunc) *GeminiProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	p, err := NewGeminiProvider(context.Background(), GeminiConfig{
		APIKey:  "test-key",
		Model:   "gemini-flash",
		BaseURL: server.URL,
	})
	require.NoError(t, err)
	return p
}

func geminiReply(text, finishReason string) map[string]any {
	return map[string]any{
		"candidates": []map[string]any{
			{
				"content": map[string]any{
					"role":  "model",
					"parts": []map[string]any{{"text": text}},
				},
				"finishReason": finishReason,
			},
		},
		"usageMetadata": map[string]any{
			"promptTokenCount":     30,
			"candidatesTokenCount": 12,
			"totalTokenCount":      42,
		},
		"modelVersion": "gemini-2.5-flash-001",
	}
}

func geminiError(status int, code, message string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"code": status, "message": message, "status": code},
		})
	}
}

func TestGeminiProvider_HappyPath(t *testing.T) {
	var body []byte
	p := newTestGeminiProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1beta/models/gemini-2.5-flash:generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))
		body, _ = io.ReadAll(r.Body)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(geminiReply(`{"title":"Go"}`, "STOP"))
	})

	assert.Equal(t, "gemini-2.5-flash", p.ModelID())

	resp, err := p.Generate(context.Background(), Request{
		System:   "You are an expert career advisor.",
		Messages: []Message{{Role: RoleUser, Content: "Become a Go developer"}},
	})
	require.NoError(t, err)

	assert.JSONEq(t, `{"title":"Go"}`, string(resp.Content))
	assert.Equal(t, Usage{InputTokens: 30, OutputTokens: 12, TotalTokens: 42}, resp.Usage)
	assert.Equal(t, "gemini-2.5-flash-001", resp.Model)
	assert.Equal(t, "end", resp.StopReason)

	assert.Contains(t, string(body), "Become a Go developer")
	assert.Contains(t, string(body), "You are an expert career advisor.")
}

func TestGeminiProvider_SchemaRequested(t *testing.T) {
	var body []byte
	p := newTestGeminiProvider(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(geminiReply(`{"title": 5}`, "STOP"))
	})

	_, err := p.Generate(context.Background(), Request{
		Messages: []Message{{Role: RoleUser, Content: "test"}},
		Schema: &Schema{
			Name: "gemini-test-title",
			Definition: map[string]any{
				"type":       "object",
				"properties": map[string]any{"title": map[string]any{"type": "string", "minLength": 1}},
				"required":   []string{"title"},
			},
		},
	})
	var inv *ErrInvalidResponse
	assert.ErrorAs(t, err, &inv, "reply is validated against the full schema")
	assert.Contains(t, string(body), "application/json")
}

func TestGeminiProvider_FinishReasons(t *testing.T) {
	t.Run("max tokens", func(t *testing.T) {
		p := newTestGeminiProvider(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(geminiReply(`{"title": "G`, "MAX_TOKENS"))
		})
		_, err := p.Generate(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "test"}}})
		var maxTok *ErrMaxTokensExceeded
		require.ErrorAs(t, err, &maxTok)
		assert.Equal(t, `{"title": "G`, string(maxTok.Content))
	})

	t.Run("safety", func(t *testing.T) {
		p := newTestGeminiProvider(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(geminiReply("", "SAFETY"))
		})
		_, err := p.Generate(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "test"}}})
		var inv *ErrInvalidResponse
		require.ErrorAs(t, err, &inv)
		assert.Contains(t, err.Error(), "safety")
	})

	t.Run("blocked prompt", func(t *testing.T) {
		p := newTestGeminiProvider(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]any{
				"promptFeedback": map[string]any{"blockReason": "SAFETY"},
			})
		})
		_, err := p.Generate(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "test"}}})
		var inv *ErrInvalidResponse
		require.ErrorAs(t, err, &inv)
		assert.Contains(t, err.Error(), "prompt blocked")
	})
}

func TestGeminiProvider_StatusMapping(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		check   func(t *testing.T, err error)
	}{
		{"rate limit", geminiError(http.StatusTooManyRequests, "RESOURCE_EXHAUSTED", "Resource has been exhausted"), func(t *testing.T, err error) {
			var rl *ErrRateLimit
			assert.ErrorAs(t, err, &rl)
		}},
		{"billing quota", geminiError(http.StatusTooManyRequests, "RESOURCE_EXHAUSTED", "Quota exceeded, check your plan and billing details"), func(t *testing.T, err error) {
			var pr *ErrPaymentRequired
			assert.ErrorAs(t, err, &pr)
		}},
		{"bad key", geminiError(http.StatusBadRequest, "INVALID_ARGUMENT", "API key not valid"), func(t *testing.T, err error) {
			var unavail *ErrProviderUnavailable
			require.ErrorAs(t, err, &unavail)
			assert.Equal(t, http.StatusBadRequest, unavail.Status)
		}},
		{"outage", geminiError(http.StatusServiceUnavailable, "UNAVAILABLE", "The model is overloaded"), func(t *testing.T, err error) {
			var unavail *ErrProviderUnavailable
			require.ErrorAs(t, err, &unavail)
			assert.Equal(t, http.StatusServiceUnavailable, unavail.Status)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestGeminiProvider(t, tt.handler)
			_, err := p.Generate(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "test"}}})
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestGeminiSchema(t *testing.T) {
	s := geminiSchema(map[string]any{
		"type":     "object",
		"required": []any{"nodes"},
		"properties": map[string]any{
			"nodes": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "object", "properties": map[string]any{"status": map[string]any{"type": "string", "enum": []string{"locked", "active"}}}},
			},
			"progress": map[string]any{"type": "integer", "minimum": 0},
		},
	})

	assert.Equal(t, []string{"nodes"}, s.Required)
	require.Contains(t, s.Properties, "nodes")
	item := s.Properties["nodes"].Items
	require.NotNil(t, item)
	assert.Equal(t, []string{"locked", "active"}, item.Properties["status"].Enum)
	assert.EqualValues(t, "INTEGER", s.Properties["progress"].Type)
}

func TestNewGeminiProvider_RequiresKey(t *testing.T) {
	_, err := NewGeminiProvider(context.Background(), GeminiConfig{})
	assert.Error(t, err)
}
