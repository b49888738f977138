package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/googleapis/gax-go/v2/apierror"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
)

// GeminiClient implements Client for Google Gemini
type GeminiClient struct {
	client *genai.Client
	config *Config
}

// NewGeminiClient creates a new Gemini client
func NewGeminiClient(ctx context.Context, config *Config) (*GeminiClient, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	opts := []option.ClientOption{option.WithAPIKey(config.APIKey)}
	if config.BaseURL != "" {
		opts = append(opts, option.WithEndpoint(config.BaseURL))
	}

	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiClient{
		client: client,
		config: config,
	}, nil
}

// GenerateContent returns a free-text completion
func (c *GeminiClient) GenerateContent(ctx context.Context, prompt string, opts CallOptions) (string, error) {
	return c.generate(ctx, prompt, opts, false)
}

// GenerateJSON returns a JSON completion using Gemini's JSON response mode
func (c *GeminiClient) GenerateJSON(ctx context.Context, prompt string, opts CallOptions) (string, error) {
	text, err := c.generate(ctx, prompt, opts, true)
	if err != nil {
		return "", err
	}
	return CleanJSONBlock(text), nil
}

func (c *GeminiClient) generate(ctx context.Context, prompt string, opts CallOptions, jsonMode bool) (string, error) {
	ctx, cancel := withCallTimeout(ctx, opts, c.config.Timeout)
	defer cancel()

	model := c.client.GenerativeModel(c.config.ModelName())
	model.SetTemperature(opts.Temperature)
	if opts.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(opts.MaxTokens))
	}
	if jsonMode {
		model.ResponseMIMEType = "application/json"
	}

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", classifyGeminiError(err)
	}

	text, err := extractTextFromResponse(resp)
	if err != nil {
		return "", &ServiceError{Kind: KindServer, Provider: ProviderGemini, Message: "empty response", Cause: err}
	}
	return text, nil
}

// Model returns the configured model name
func (c *GeminiClient) Model() string {
	return c.config.ModelName()
}

// Close releases resources held by the client
func (c *GeminiClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// extractTextFromResponse extracts text from Gemini API response
func extractTextFromResponse(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates in response")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("no content in response")
	}

	var parts []string
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			parts = append(parts, string(text))
		}
	}

	if len(parts) == 0 {
		return "", fmt.Errorf("no text parts in response")
	}

	return strings.Join(parts, ""), nil
}

// classifyGeminiError maps gRPC and REST failures onto ServiceError.
// RESOURCE_EXHAUSTED responses carry a RetryInfo detail that becomes RetryAfter.
func classifyGeminiError(err error) error {
	if isTimeout(err) {
		return &ServiceError{Kind: KindTimeout, Provider: ProviderGemini, Cause: err}
	}

	var apiErr *apierror.APIError
	if errors.As(err, &apiErr) {
		se := &ServiceError{Kind: KindServer, Provider: ProviderGemini, Cause: err}
		if st := apiErr.GRPCStatus(); st != nil {
			se.Kind = kindForGRPCCode(st.Code())
		} else if code := apiErr.HTTPCode(); code > 0 {
			se.StatusCode = code
			se.Kind = kindForStatus(code)
		}
		if info := apiErr.Details().RetryInfo; info != nil {
			se.RetryAfter = info.GetRetryDelay().AsDuration()
		}
		return se
	}

	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		return &ServiceError{Kind: kindForStatus(gErr.Code), Provider: ProviderGemini, StatusCode: gErr.Code, Cause: err}
	}

	return newServiceError(ProviderGemini, err)
}

func kindForGRPCCode(code codes.Code) ErrorKind {
	switch code {
	case codes.ResourceExhausted:
		return KindRateLimit
	case codes.Unauthenticated, codes.PermissionDenied:
		return KindAuth
	case codes.DeadlineExceeded:
		return KindTimeout
	default:
		return KindServer
	}
}
