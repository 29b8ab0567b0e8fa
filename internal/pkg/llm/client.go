// Package llm wraps an OpenAI-compatible chat completion API behind a small
// interface so services can be tested against fakes. The default target is a
// DeepSeek endpoint, which speaks the OpenAI wire format.
package llm

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

var (
	// ErrNotConfigured means the client was built without an API key or with
	// the feature disabled in config.
	ErrNotConfigured = errors.New("llm service not configured")
	// ErrServiceUnavailable covers transport failures, timeouts and malformed
	// upstream responses. Callers treat it as a signal to fall back.
	ErrServiceUnavailable = errors.New("llm service unavailable")
)

// Message is a single chat message sent upstream.
type Message struct {
	Role    string
	Content string
}

// Chat message roles.
const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// CompletionRequest describes one chat completion call.
type CompletionRequest struct {
	Messages    []Message
	Temperature float32
	MaxTokens   int
	JSONMode    bool
}

// CompletionResponse carries the assistant message content.
type CompletionResponse struct {
	Content string
}

// Client is the completion interface the advisor pipeline depends on.
type Client interface {
	// Complete performs a chat completion. It honors ctx cancellation and
	// returns ErrServiceUnavailable (wrapped) on any upstream failure.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
	// Available reports whether the client can serve requests at all.
	Available() bool
}

// Config holds the upstream endpoint settings.
type Config struct {
	Enabled bool
	APIKey  string
	BaseURL string
	Model   string
}

type openAIClient struct {
	api     *openai.Client
	model   string
	enabled bool
}

// NewClient builds a Client for the configured OpenAI-compatible endpoint.
func NewClient(cfg Config) Client {
	apiCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = cfg.BaseURL + "/v1"
	}
	return &openAIClient{
		api:     openai.NewClientWithConfig(apiCfg),
		model:   cfg.Model,
		enabled: cfg.Enabled && cfg.APIKey != "",
	}
}

func (c *openAIClient) Available() bool {
	return c.enabled
}

func (c *openAIClient) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	if !c.enabled {
		return nil, ErrNotConfigured
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	apiReq := openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}
	if req.JSONMode {
		apiReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := c.api.CreateChatCompletion(ctx, apiReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: empty choices", ErrServiceUnavailable)
	}

	return &CompletionResponse{Content: resp.Choices[0].Message.Content}, nil
}
