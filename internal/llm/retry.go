package llm

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// RetryPolicy bounds retries of rate-limited calls. Other error kinds are never retried.
type RetryPolicy struct {
	// MaxAttempts is the total number of attempts, including the first
	MaxAttempts int
	// Backoff holds the wait before retry i (0-based). The last entry repeats.
	// A provider-reported RetryAfter takes precedence.
	Backoff []time.Duration
}

// DefaultRetryPolicy allows three attempts with 20s then 40s waits
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		Backoff:     []time.Duration{20 * time.Second, 40 * time.Second},
	}
}

// Delay returns the wait before retry number retry (0-based) after err
func (p RetryPolicy) Delay(retry int, err *ServiceError) time.Duration {
	if err != nil && err.RetryAfter > 0 {
		return err.RetryAfter
	}
	if len(p.Backoff) == 0 {
		return 0
	}
	if retry >= len(p.Backoff) {
		return p.Backoff[len(p.Backoff)-1]
	}
	return p.Backoff[retry]
}

// SleepFunc waits for d or until ctx is done
type SleepFunc func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// RetryClient retries rate-limited calls according to a RetryPolicy
type RetryClient struct {
	next     Client
	policy   RetryPolicy
	sleep    SleepFunc
	logger   *zap.Logger
	recorder Recorder
}

// NewRetryClient wraps next with rate-limit retries. A nil logger disables logging.
func NewRetryClient(next Client, policy RetryPolicy, logger *zap.Logger) *RetryClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	return &RetryClient{
		next:     next,
		policy:   policy,
		sleep:    sleepContext,
		logger:   logger,
		recorder: nopRecorder{},
	}
}

// WithSleep replaces the wait function, for tests
func (c *RetryClient) WithSleep(sleep SleepFunc) *RetryClient {
	c.sleep = sleep
	return c
}

// WithRecorder reports retries to r
func (c *RetryClient) WithRecorder(r Recorder) *RetryClient {
	if r != nil {
		c.recorder = r
	}
	return c
}

// GenerateContent calls the wrapped client, retrying rate-limit errors
func (c *RetryClient) GenerateContent(ctx context.Context, prompt string, opts CallOptions) (string, error) {
	return c.do(ctx, opts, func() (string, error) {
		return c.next.GenerateContent(ctx, prompt, opts)
	})
}

// GenerateJSON calls the wrapped client, retrying rate-limit errors
func (c *RetryClient) GenerateJSON(ctx context.Context, prompt string, opts CallOptions) (string, error) {
	return c.do(ctx, opts, func() (string, error) {
		return c.next.GenerateJSON(ctx, prompt, opts)
	})
}

func (c *RetryClient) do(ctx context.Context, opts CallOptions, call func() (string, error)) (string, error) {
	var lastErr error
	for attempt := 0; attempt < c.policy.MaxAttempts; attempt++ {
		out, err := call()
		if err == nil {
			return out, nil
		}
		lastErr = err

		se, ok := AsServiceError(err)
		if !ok || !se.Retryable() || attempt == c.policy.MaxAttempts-1 {
			return "", err
		}

		delay := c.policy.Delay(attempt, se)
		c.logger.Warn("rate limited, retrying",
			zap.String("operation", opts.Operation),
			zap.Int("attempt", attempt+1),
			zap.Int("max_attempts", c.policy.MaxAttempts),
			zap.Duration("delay", delay),
		)
		c.recorder.ObserveRetry(opts.Operation)

		if err := c.sleep(ctx, delay); err != nil {
			return "", &ServiceError{Kind: KindTimeout, Provider: se.Provider, Message: "cancelled while waiting to retry", Cause: err}
		}
	}
	return "", lastErr
}

// Model returns the wrapped client's model
func (c *RetryClient) Model() string {
	return c.next.Model()
}

// Close closes the wrapped client
func (c *RetryClient) Close() error {
	return c.next.Close()
}
