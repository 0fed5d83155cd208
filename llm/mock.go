package llm

import (
	"context"
	"encoding/json"
	"sync"
)

// OfflineRoadmap is the reply the "mock" provider gives when no gateway is
// configured: a four-module linear path that passes roadmap validation.
const OfflineRoadmap = `{
  "title": "Starter Roadmap",
  "description": "A generic path used while the AI gateway is offline.",
  "nodes": [
    {"id": "1", "label": "Fundamentals", "description": "Core vocabulary and tools", "status": "active", "progress": 0},
    {"id": "2", "label": "Core Concepts", "description": "The ideas everything else builds on", "status": "locked", "progress": 0},
    {"id": "3", "label": "Hands-on Practice", "description": "Small exercises", "status": "locked", "progress": 0},
    {"id": "4", "label": "Capstone Project", "description": "Build something end to end", "status": "locked", "progress": 0}
  ],
  "edges": [
    {"source": "1", "target": "2"},
    {"source": "2", "target": "3"},
    {"source": "3", "target": "4"}
  ]
}`

// MockResponse is one scripted reply: Content, or Err when set.
type MockResponse struct {
	Content json.RawMessage
	Usage   Usage
	Err     error
}

// MockProvider replays scripted replies in order and records every request.
// Once the script runs out it answers with Fallback, or with
// ErrProviderUnavailable when Fallback is empty.
type MockProvider struct {
	mu       sync.Mutex
	script   []MockResponse
	Fallback json.RawMessage
	Calls    []Request
}

// NewMockProvider returns a MockProvider that plays responses in order.
func NewMockProvider(responses ...MockResponse) *MockProvider {
	return &MockProvider{script: responses}
}

// NewOfflineProvider returns a MockProvider that answers every request with
// OfflineRoadmap.
func NewOfflineProvider() *MockProvider {
	return &MockProvider{Fallback: json.RawMessage(OfflineRoadmap)}
}

func (m *MockProvider) Generate(_ context.Context, req Request) (*Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, req)

	var next MockResponse
	switch {
	case len(m.script) > 0:
		next, m.script = m.script[0], m.script[1:]
	case len(m.Fallback) > 0:
		next = MockResponse{Content: m.Fallback}
	default:
		return nil, &ErrProviderUnavailable{}
	}
	if next.Err != nil {
		return nil, next.Err
	}
	if err := ValidateContent(req.Schema, next.Content); err != nil {
		return nil, err
	}

	return &Response{
		Content:    next.Content,
		Usage:      next.Usage,
		Model:      "mock",
		StopReason: "end",
	}, nil
}

func (m *MockProvider) ModelID() string { return "mock" }

// AddResponse appends a scripted reply.
func (m *MockProvider) AddResponse(resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, resp)
}

// CallCount returns how many requests the provider has received.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
