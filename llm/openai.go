package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// gatewayModels maps short names to the vendor-prefixed ids the AI gateway
// routes on. Roadmaps were first drafted with google/gemini-2.5-flash.
var gatewayModels = map[string]string{
	"gemini-flash":      "google/gemini-2.5-flash",
	"gemini-flash-lite": "google/gemini-2.5-flash-lite",
	"gemini-pro":        "google/gemini-2.5-pro",
	"gpt-mini":          "openai/gpt-5-mini",
	"gpt":               "openai/gpt-5",
}

// OpenAIProvider implements Provider over the chat completions API. The
// hosted AI gateway and OpenAI itself both speak it.
type OpenAIProvider struct {
	client *openai.Client
	model  string
	// jsonMode asks for a bare JSON object instead of a strict schema;
	// the gateway forwards to vendors that reject json_schema.
	jsonMode bool
}

// NewGatewayProvider creates a provider for the hosted AI gateway. An empty
// BaseURL means DefaultGatewayURL; short model names go through
// gatewayModels.
func NewGatewayProvider(cfg OpenAIConfig) (*OpenAIProvider, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultGatewayURL
	}
	cfg.Model = resolveModel(cfg.Model, gatewayModels)
	p, err := NewOpenAIProvider(cfg)
	if err != nil {
		return nil, err
	}
	p.jsonMode = true
	return p, nil
}

// NewOpenAIProvider creates a provider for an OpenAI-compatible endpoint.
// The model id is sent as given.
func NewOpenAIProvider(cfg OpenAIConfig) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai API key is required")
	}

	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}
	return &OpenAIProvider{client: openai.NewClientWithConfig(config), model: cfg.Model}, nil
}

func (p *OpenAIProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	chat, err := p.chatRequest(req)
	if err != nil {
		return nil, err
	}

	out, err := p.client.CreateChatCompletion(ctx, chat)
	if err != nil {
		return nil, mapOpenAIError(err)
	}
	if len(out.Choices) == 0 {
		return nil, &ErrInvalidResponse{Err: errors.New("reply has no choices")}
	}

	choice := out.Choices[0]
	content := json.RawMessage(choice.Message.Content)
	switch choice.FinishReason {
	case openai.FinishReasonLength:
		return nil, &ErrMaxTokensExceeded{Content: content}
	case openai.FinishReasonContentFilter:
		return nil, &ErrInvalidResponse{Content: content, Err: errors.New("reply withheld: content_filter")}
	}
	if err := ValidateContent(req.Schema, content); err != nil {
		return nil, err
	}

	return &Response{
		Content: content,
		Usage: Usage{
			InputTokens:  out.Usage.PromptTokens,
			OutputTokens: out.Usage.CompletionTokens,
			TotalTokens:  out.Usage.TotalTokens,
		},
		Model:      out.Model,
		StopReason: "end",
	}, nil
}

func (p *OpenAIProvider) ModelID() string {
	return p.model
}

func (p *OpenAIProvider) chatRequest(req Request) (openai.ChatCompletionRequest, error) {
	chat := openai.ChatCompletionRequest{
		Model:               p.model,
		MaxCompletionTokens: req.MaxTokens,
		Temperature:         float32(req.Temperature),
	}
	if req.System != "" {
		chat.Messages = append(chat.Messages, openai.ChatCompletionMessage{
			Role: openai.ChatMessageRoleSystem, Content: req.System,
		})
	}
	for _, m := range req.Messages {
		role := openai.ChatMessageRoleUser
		if m.Role == RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		chat.Messages = append(chat.Messages, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}

	switch {
	case req.Schema == nil:
	case p.jsonMode:
		chat.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	default:
		def, err := json.Marshal(req.Schema.Definition)
		if err != nil {
			return chat, fmt.Errorf("encode schema %q: %w", req.Schema.Name, err)
		}
		chat.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:        req.Schema.Name,
				Description: req.Schema.Description,
				Schema:      json.RawMessage(def),
				Strict:      true,
			},
		}
	}
	return chat, nil
}

// insufficientQuota is the error code OpenAI sends, with a 429, when the
// account is out of credit.
const insufficientQuota = "insufficient_quota"

func mapOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if code, _ := apiErr.Code.(string); code == insufficientQuota {
			return &ErrPaymentRequired{Err: err}
		}
		return statusError(apiErr.HTTPStatusCode, 0, err)
	}
	// Non-JSON error bodies, e.g. a bare 402 page from the gateway.
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return statusError(reqErr.HTTPStatusCode, 0, err)
	}
	return &ErrProviderUnavailable{Err: err}
}
