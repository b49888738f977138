package llm

import (
	"context"
	"time"
)

// DefaultTimeout bounds a single completion. Generation of a few thousand tokens
// routinely takes minutes on shared providers.
const DefaultTimeout = 5 * time.Minute

// CallOptions tunes a single completion request
type CallOptions struct {
	// Operation names the prompt protocol, e.g. "profile.extract". Used for cache keys, logs and metrics.
	Operation   string
	Temperature float32
	MaxTokens   int
	// Timeout overrides the client default when non-zero
	Timeout time.Duration
	// NoCache bypasses any completion cache for this call
	NoCache bool
}

func withCallTimeout(ctx context.Context, opts CallOptions, fallback time.Duration) (context.Context, context.CancelFunc) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = fallback
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return context.WithTimeout(ctx, timeout)
}
