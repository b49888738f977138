package llm

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicClient implements Client for the Anthropic Messages API
type AnthropicClient struct {
	client anthropic.Client
	config *Config
}

// NewAnthropicClient creates an Anthropic client
func NewAnthropicClient(config *Config) *AnthropicClient {
	opts := []anthropicoption.RequestOption{
		anthropicoption.WithAPIKey(config.APIKey),
		// retries are owned by RetryClient
		anthropicoption.WithMaxRetries(0),
	}
	if config.BaseURL != "" {
		opts = append(opts, anthropicoption.WithBaseURL(config.BaseURL))
	}
	return &AnthropicClient{
		client: anthropic.NewClient(opts...),
		config: config,
	}
}

// GenerateContent returns a free-text completion
func (c *AnthropicClient) GenerateContent(ctx context.Context, prompt string, opts CallOptions) (string, error) {
	return c.complete(ctx, prompt, opts)
}

// GenerateJSON returns a completion with markdown wrappers and preamble removed
func (c *AnthropicClient) GenerateJSON(ctx context.Context, prompt string, opts CallOptions) (string, error) {
	text, err := c.complete(ctx, prompt, opts)
	if err != nil {
		return "", err
	}
	return CleanJSONBlock(text), nil
}

func (c *AnthropicClient) complete(ctx context.Context, prompt string, opts CallOptions) (string, error) {
	ctx, cancel := withCallTimeout(ctx, opts, c.config.Timeout)
	defer cancel()

	maxTokens := int64(opts.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = 2000
	}

	msg, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(c.config.ModelName()),
		MaxTokens:   maxTokens,
		Temperature: anthropic.Float(float64(opts.Temperature)),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", classifyAnthropicError(err)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", &ServiceError{Kind: KindServer, Provider: ProviderAnthropic, Message: "empty response"}
	}
	return sb.String(), nil
}

// Model returns the configured model name
func (c *AnthropicClient) Model() string {
	return c.config.ModelName()
}

// Close is a no-op
func (c *AnthropicClient) Close() error {
	return nil
}

func classifyAnthropicError(err error) error {
	if isTimeout(err) {
		return &ServiceError{Kind: KindTimeout, Provider: ProviderAnthropic, Cause: err}
	}

	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		se := &ServiceError{
			Kind:       kindForStatus(apiErr.StatusCode),
			Provider:   ProviderAnthropic,
			StatusCode: apiErr.StatusCode,
			Cause:      err,
		}
		// 529 is Anthropic's overloaded status; it behaves like a rate limit
		if apiErr.StatusCode == 529 {
			se.Kind = KindRateLimit
		}
		if apiErr.Response != nil {
			se.RetryAfter = parseRetryAfter(apiErr.Response.Header.Get("retry-after"), time.Now())
		}
		return se
	}

	return newServiceError(ProviderAnthropic, err)
}
