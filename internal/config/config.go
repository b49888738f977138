// Package config loads CLI configuration from an optional file, the
// environment and command-line flags.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/jonathan/candidate-intel/internal/llm"
	"github.com/jonathan/candidate-intel/internal/logging"
)

// EnvPrefix is prepended to every environment override, with dots and
// dashes in the key replaced by underscores: CANDIDATE_INTEL_LLM_API_KEY.
const EnvPrefix = "CANDIDATE_INTEL"

// Config is the full runtime configuration
type Config struct {
	LLM      LLM      `mapstructure:"llm"`
	Database Database `mapstructure:"database"`
	Redis    Redis    `mapstructure:"redis"`
	Pipeline Pipeline `mapstructure:"pipeline"`
	Log      Log      `mapstructure:"log"`
	Metrics  Metrics  `mapstructure:"metrics"`
}

// LLM selects the text-understanding provider
type LLM struct {
	Provider string `mapstructure:"provider" validate:"oneof=gemini openai anthropic"`
	// APIKey is checked when a client is built, so commands that never call
	// the service run without one.
	APIKey         string        `mapstructure:"api_key"`
	Model          string        `mapstructure:"model"`
	BaseURL        string        `mapstructure:"base_url" validate:"omitempty,url"`
	Timeout        time.Duration `mapstructure:"timeout" validate:"gte=0"`
	MaxConcurrency int           `mapstructure:"max_concurrency" validate:"gte=1"`
	MaxAttempts    int           `mapstructure:"max_attempts" validate:"gte=1,lte=10"`
}

// Database configures candidate storage. An empty URL keeps everything in memory.
type Database struct {
	URL      string `mapstructure:"url"`
	MaxConns int32  `mapstructure:"max_conns" validate:"gte=1"`
}

// Redis configures the completion cache. An empty address disables it.
type Redis struct {
	Addr     string        `mapstructure:"addr" validate:"omitempty,hostname_port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db" validate:"gte=0"`
	CacheTTL time.Duration `mapstructure:"cache_ttl" validate:"gte=0"`
}

// Pipeline tunes batch processing
type Pipeline struct {
	Workers          int    `mapstructure:"workers" validate:"gte=1,lte=64"`
	FallbackProfiles bool   `mapstructure:"fallback_profiles"`
	DedupWindow      int    `mapstructure:"dedup_window" validate:"gte=1"`
	DedupPolicy      string `mapstructure:"dedup_policy" validate:"oneof=open closed"`
	Questions        bool   `mapstructure:"questions"`
}

// Log configures the zap logger
type Log struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=json console"`
}

// Metrics configures the prometheus endpoint. An empty address disables it.
type Metrics struct {
	Addr string `mapstructure:"addr" validate:"omitempty,hostname_port"`
}

// ConfigError reports a configuration that could not be read or is invalid
type ConfigError struct {
	Field   string
	Message string
	Cause   error
}

func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("config error: %s: %s", e.Field, e.Message)
	}
	if e.Cause != nil {
		return fmt.Sprintf("config error: %s: %v", e.Message, e.Cause)
	}
	return "config error: " + e.Message
}

func (e *ConfigError) Unwrap() error {
	return e.Cause
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("llm.provider", string(llm.ProviderGemini))
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.model", "")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.timeout", llm.DefaultTimeout)
	v.SetDefault("llm.max_concurrency", 4)
	v.SetDefault("llm.max_attempts", llm.DefaultRetryPolicy().MaxAttempts)

	v.SetDefault("database.url", "")
	v.SetDefault("database.max_conns", 10)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.cache_ttl", 24*time.Hour)

	v.SetDefault("pipeline.workers", 4)
	v.SetDefault("pipeline.fallback_profiles", true)
	v.SetDefault("pipeline.dedup_window", 50)
	v.SetDefault("pipeline.dedup_policy", "open")
	v.SetDefault("pipeline.questions", false)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetDefault("metrics.addr", "")
}

// Loader reads configuration layers in precedence order: flags, environment,
// config file, defaults.
type Loader struct {
	v *viper.Viper
}

// NewLoader returns a Loader with defaults and environment overrides applied
func NewLoader() *Loader {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return &Loader{v: v}
}

// BindFlag makes a command-line flag override key when the flag is set
func (l *Loader) BindFlag(key string, flag *pflag.Flag) error {
	if flag == nil {
		return &ConfigError{Field: key, Message: "flag not defined"}
	}
	return l.v.BindPFlag(key, flag)
}

// Load reads path, when given, and returns the validated configuration.
// The file format follows its extension (yaml, json, toml).
func (l *Loader) Load(path string) (*Config, error) {
	if path != "" {
		l.v.SetConfigFile(path)
		if err := l.v.ReadInConfig(); err != nil {
			return nil, &ConfigError{Message: "failed to read " + path, Cause: err}
		}
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, &ConfigError{Message: "failed to decode configuration", Cause: err}
	}
	cfg.LLM.Provider = strings.ToLower(strings.TrimSpace(cfg.LLM.Provider))
	cfg.Log.Level = strings.ToLower(cfg.Log.Level)
	cfg.Pipeline.DedupPolicy = strings.ToLower(cfg.Pipeline.DedupPolicy)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Load is a shorthand for NewLoader().Load(path)
func Load(path string) (*Config, error) {
	return NewLoader().Load(path)
}

// Validate checks every field against its constraints and reports the first failure
func (c *Config) Validate() error {
	err := validator.New().Struct(c)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return &ConfigError{
			Field:   configKey(fe.Namespace()),
			Message: describe(fe),
			Cause:   err,
		}
	}
	return &ConfigError{Message: "invalid configuration", Cause: err}
}

// configKey turns "Config.LLM.APIKey" into "llm.apikey"
func configKey(namespace string) string {
	namespace = strings.TrimPrefix(namespace, "Config.")
	return strings.ToLower(namespace)
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return fmt.Sprintf("must be one of [%s], got %q", fe.Param(), fmt.Sprint(fe.Value()))
	case "gte":
		return "must be at least " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	case "url":
		return "must be a URL"
	case "hostname_port":
		return "must be host:port"
	default:
		return "failed " + fe.Tag() + " check"
	}
}

// LLMConfig converts the llm section into a provider configuration
func (c *Config) LLMConfig() *llm.Config {
	return &llm.Config{
		Provider: llm.Provider(c.LLM.Provider),
		APIKey:   c.LLM.APIKey,
		Model:    c.LLM.Model,
		BaseURL:  c.LLM.BaseURL,
		Timeout:  c.LLM.Timeout,
	}
}

// RetryPolicy returns the default backoff schedule with the configured attempt count
func (c *Config) RetryPolicy() llm.RetryPolicy {
	p := llm.DefaultRetryPolicy()
	p.MaxAttempts = c.LLM.MaxAttempts
	return p
}

// LoggingConfig converts the log section for logging.New
func (c *Config) LoggingConfig() logging.Config {
	return logging.Config{Level: c.Log.Level, Format: c.Log.Format}
}
