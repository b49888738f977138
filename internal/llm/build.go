package llm

import (
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Stack configures the decorators Build wraps around a provider client
type Stack struct {
	Retry          RetryPolicy
	MaxConcurrency int
	// Redis enables the completion cache when non-nil
	Redis    redis.UniversalClient
	CacheTTL time.Duration
	Recorder Recorder
	Logger   *zap.Logger
}

// DefaultStack returns the default retry policy with four concurrent calls and no cache
func DefaultStack() Stack {
	return Stack{
		Retry:          DefaultRetryPolicy(),
		MaxConcurrency: 4,
	}
}

// Build wraps base as Instrumented(Cached(Retry(Limit(base)))).
// The cache sits outside retries so hits cost no call slot, and each retry
// attempt takes its own slot.
func Build(base Client, s Stack) Client {
	var c Client = NewLimitClient(base, s.MaxConcurrency)
	c = NewRetryClient(c, s.Retry, s.Logger).WithRecorder(s.Recorder)
	if s.Redis != nil {
		c = NewCachedClient(c, s.Redis, s.CacheTTL, s.Logger).WithRecorder(s.Recorder)
	}
	return NewInstrumentedClient(c, s.Recorder)
}
