// Package llm provides the external text-understanding client abstraction, its
// provider implementations and the decorators (retry, concurrency cap, cache,
// metrics) that every pipeline stage calls through.
package llm

import (
	"fmt"
	"time"
)

// Provider represents an LLM provider
type Provider string

// Provider constants define supported LLM providers
const (
	// ProviderGemini is the Google Gemini provider
	ProviderGemini Provider = "gemini"
	// ProviderOpenAI is any OpenAI-compatible chat completion API (OpenAI, Groq, ...)
	ProviderOpenAI Provider = "openai"
	// ProviderAnthropic is the Anthropic/Claude provider
	ProviderAnthropic Provider = "anthropic"
)

// DefaultModels maps each provider to the model used when Config.Model is empty
var DefaultModels = map[Provider]string{
	ProviderGemini:    "gemini-2.5-flash",
	ProviderOpenAI:    "llama-3.3-70b-versatile",
	ProviderAnthropic: "claude-sonnet-4-5",
}

// Config selects and configures the provider explicitly. Nothing is read from the environment here.
type Config struct {
	Provider Provider
	APIKey   string
	Model    string
	// BaseURL overrides the provider endpoint. For ProviderOpenAI this is how Groq and
	// other compatible services are reached.
	BaseURL string
	// Timeout is the default per-call timeout when CallOptions.Timeout is zero.
	Timeout time.Duration
}

// DefaultConfig returns a Gemini configuration with the given API key
func DefaultConfig(apiKey string) *Config {
	return &Config{
		Provider: ProviderGemini,
		APIKey:   apiKey,
		Model:    DefaultModels[ProviderGemini],
		Timeout:  DefaultTimeout,
	}
}

// ModelName returns the configured model or the provider default
func (c *Config) ModelName() string {
	if c.Model != "" {
		return c.Model
	}
	return DefaultModels[c.Provider]
}

// Validate checks that the configuration can build a client
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderGemini, ProviderOpenAI, ProviderAnthropic:
	default:
		return fmt.Errorf("unsupported provider %q", c.Provider)
	}
	if c.APIKey == "" {
		return fmt.Errorf("API key is required for provider %s", c.Provider)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative")
	}
	return nil
}
