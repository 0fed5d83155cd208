// Package llm is the gateway to the language models that draft roadmaps.
// Backends sit behind Provider; retry and logging are decorators.
package llm

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Purpose labels tag requests in the gateway logs.
const (
	PurposeRoadmap = "roadmap-generation"
	PurposeUnknown = "unknown"
)

// Provider drafts content from a prompt. Implementations return the typed
// errors in errors.go so callers can tell throttling, exhausted credits and
// unusable replies apart.
type Provider interface {
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID is the model requests are sent to, after short-name
	// resolution.
	ModelID() string
}

// Request is one prompt. Roadmap generation sends a system prompt and a
// single user turn describing the learner's goal.
type Request struct {
	System   string
	Messages []Message

	// Schema, when set, asks the backend for JSON and validates the reply
	// against it. Leave nil to get the raw text back.
	Schema *Schema

	// Zero values leave the backend defaults.
	MaxTokens   int
	Temperature float64
}

type Message struct {
	Role    Role
	Content string
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Schema is a named JSON Schema. Share it by pointer: the compiled
// validator is cached on first use.
type Schema struct {
	// Name is kebab-case, e.g. "learning-roadmap"; some backends send it
	// with the request.
	Name        string
	Description string
	Definition  map[string]any

	once     sync.Once
	compiled *jsonschema.Schema
	err      error
}

// Response is a successful reply.
type Response struct {
	// Content is the reply text; valid JSON whenever a Schema was given.
	Content json.RawMessage
	Usage   Usage

	// Model is the model that actually served the request, which may be a
	// dated version of ModelID.
	Model string

	// StopReason is always "end"; truncated replies surface as
	// *ErrMaxTokensExceeded instead.
	StopReason string
}

type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}
