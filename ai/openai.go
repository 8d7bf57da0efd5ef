package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
)

const defaultModel = openai.GPT4oMini

// OpenAIOptions configures the OpenAI-backed client. The zero value is
// usable with a valid key.
type OpenAIOptions struct {
	// Model overrides the default chat model.
	Model string

	// BaseURL overrides the API endpoint (tests, proxies).
	BaseURL string

	// HTTPClient overrides the transport.
	HTTPClient *http.Client
}

// OpenAI implements Client against the OpenAI chat completions API.
type OpenAI struct {
	api   *openai.Client
	model string
}

// NewOpenAI validates the credential and builds a client. The key is kept in
// memory for the session only.
func NewOpenAI(apiKey string, opts OpenAIOptions) (*OpenAI, error) {
	if !ValidAPIKey(apiKey) {
		return nil, errors.New("ai: malformed API key")
	}

	cfg := openai.DefaultConfig(apiKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}
	if opts.HTTPClient != nil {
		cfg.HTTPClient = opts.HTTPClient
	}

	model := opts.Model
	if model == "" {
		model = defaultModel
	}

	return &OpenAI{
		api:   openai.NewClientWithConfig(cfg),
		model: model,
	}, nil
}

func (c *OpenAI) Complete(ctx context.Context, system, user string) (string, error) {
	return c.complete(ctx, system, user, nil)
}

func (c *OpenAI) CompleteJSON(ctx context.Context, system, user string, out any) error {
	format := &openai.ChatCompletionResponseFormat{
		Type: openai.ChatCompletionResponseFormatTypeJSONObject,
	}
	raw, err := c.complete(ctx, system, user, format)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return fmt.Errorf("ai: decode JSON completion: %w", err)
	}
	return nil
}

func (c *OpenAI) complete(ctx context.Context, system, user string, format *openai.ChatCompletionResponseFormat) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:          c.model,
		ResponseFormat: format,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	})
	if err != nil {
		return "", fmt.Errorf("ai: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("ai: empty choice list in response")
	}
	return resp.Choices[0].Message.Content, nil
}
