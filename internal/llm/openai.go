package llm

import (
	"context"
	"errors"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIClient implements Client for OpenAI-compatible chat completion APIs.
// Groq, Together and local gateways are reached by setting Config.BaseURL.
type OpenAIClient struct {
	client *openai.Client
	config *Config
}

// NewOpenAIClient creates a client for an OpenAI-compatible endpoint
func NewOpenAIClient(config *Config) *OpenAIClient {
	cfg := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		cfg.BaseURL = config.BaseURL
	}
	return &OpenAIClient{
		client: openai.NewClientWithConfig(cfg),
		config: config,
	}
}

// GenerateContent returns a free-text completion
func (c *OpenAIClient) GenerateContent(ctx context.Context, prompt string, opts CallOptions) (string, error) {
	return c.complete(ctx, prompt, opts, nil)
}

// GenerateJSON requests JSON object mode and strips any markdown wrapper
func (c *OpenAIClient) GenerateJSON(ctx context.Context, prompt string, opts CallOptions) (string, error) {
	text, err := c.complete(ctx, prompt, opts, &openai.ChatCompletionResponseFormat{
		Type: openai.ChatCompletionResponseFormatTypeJSONObject,
	})
	if err != nil {
		return "", err
	}
	return CleanJSONBlock(text), nil
}

func (c *OpenAIClient) complete(ctx context.Context, prompt string, opts CallOptions, format *openai.ChatCompletionResponseFormat) (string, error) {
	ctx, cancel := withCallTimeout(ctx, opts, c.config.Timeout)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model: c.config.ModelName(),
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature:    opts.Temperature,
		MaxTokens:      opts.MaxTokens,
		ResponseFormat: format,
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", classifyOpenAIError(err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", &ServiceError{Kind: KindServer, Provider: ProviderOpenAI, Message: "empty response"}
	}
	return resp.Choices[0].Message.Content, nil
}

// Model returns the configured model name
func (c *OpenAIClient) Model() string {
	return c.config.ModelName()
}

// Close is a no-op; the HTTP client holds no long-lived resources
func (c *OpenAIClient) Close() error {
	return nil
}

func classifyOpenAIError(err error) error {
	if isTimeout(err) {
		return &ServiceError{Kind: KindTimeout, Provider: ProviderOpenAI, Cause: err}
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &ServiceError{
			Kind:       kindForStatus(apiErr.HTTPStatusCode),
			Provider:   ProviderOpenAI,
			StatusCode: apiErr.HTTPStatusCode,
			Cause:      err,
		}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &ServiceError{
			Kind:       kindForStatus(reqErr.HTTPStatusCode),
			Provider:   ProviderOpenAI,
			StatusCode: reqErr.HTTPStatusCode,
			Cause:      err,
		}
	}

	return newServiceError(ProviderOpenAI, err)
}
