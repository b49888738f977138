package llm

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// LimitClient caps the number of in-flight calls to the wrapped client
type LimitClient struct {
	next Client
	sem  *semaphore.Weighted
}

// NewLimitClient allows at most n concurrent calls. n < 1 is treated as 1.
func NewLimitClient(next Client, n int) *LimitClient {
	if n < 1 {
		n = 1
	}
	return &LimitClient{next: next, sem: semaphore.NewWeighted(int64(n))}
}

// GenerateContent waits for a slot, then calls the wrapped client
func (c *LimitClient) GenerateContent(ctx context.Context, prompt string, opts CallOptions) (string, error) {
	if err := c.acquire(ctx); err != nil {
		return "", err
	}
	defer c.sem.Release(1)
	return c.next.GenerateContent(ctx, prompt, opts)
}

// GenerateJSON waits for a slot, then calls the wrapped client
func (c *LimitClient) GenerateJSON(ctx context.Context, prompt string, opts CallOptions) (string, error) {
	if err := c.acquire(ctx); err != nil {
		return "", err
	}
	defer c.sem.Release(1)
	return c.next.GenerateJSON(ctx, prompt, opts)
}

func (c *LimitClient) acquire(ctx context.Context) error {
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return &ServiceError{Kind: KindTimeout, Message: "waiting for a call slot", Cause: err}
	}
	return nil
}

// Model returns the wrapped client's model
func (c *LimitClient) Model() string {
	return c.next.Model()
}

// Close closes the wrapped client
func (c *LimitClient) Close() error {
	return c.next.Close()
}
