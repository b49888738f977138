package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DefaultCacheTTL is how long cached completions live
const DefaultCacheTTL = 24 * time.Hour

const cacheKeyPrefix = "candidate-intel:llm:"

// CachedClient serves repeated identical completions from Redis.
// Cache failures never fail a call: they are logged and the wrapped client is used.
type CachedClient struct {
	next     Client
	rdb      redis.UniversalClient
	ttl      time.Duration
	logger   *zap.Logger
	recorder Recorder
}

// NewCachedClient wraps next with a Redis-backed completion cache
func NewCachedClient(next Client, rdb redis.UniversalClient, ttl time.Duration, logger *zap.Logger) *CachedClient {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedClient{next: next, rdb: rdb, ttl: ttl, logger: logger, recorder: nopRecorder{}}
}

// WithRecorder reports cache hits to r
func (c *CachedClient) WithRecorder(r Recorder) *CachedClient {
	if r != nil {
		c.recorder = r
	}
	return c
}

// GenerateContent returns a cached completion or calls the wrapped client
func (c *CachedClient) GenerateContent(ctx context.Context, prompt string, opts CallOptions) (string, error) {
	return c.cached(ctx, "text", prompt, opts, func() (string, error) {
		return c.next.GenerateContent(ctx, prompt, opts)
	})
}

// GenerateJSON returns a cached completion or calls the wrapped client
func (c *CachedClient) GenerateJSON(ctx context.Context, prompt string, opts CallOptions) (string, error) {
	return c.cached(ctx, "json", prompt, opts, func() (string, error) {
		return c.next.GenerateJSON(ctx, prompt, opts)
	})
}

func (c *CachedClient) cached(ctx context.Context, mode, prompt string, opts CallOptions, call func() (string, error)) (string, error) {
	if opts.NoCache {
		return call()
	}

	key := c.key(mode, prompt, opts)
	hit, err := c.rdb.Get(ctx, key).Result()
	switch {
	case err == nil:
		c.logger.Debug("llm cache hit", zap.String("operation", opts.Operation))
		c.recorder.ObserveCall(opts.Operation, OutcomeCached, 0)
		return hit, nil
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("llm cache read failed", zap.String("operation", opts.Operation), zap.Error(err))
	}

	out, err := call()
	if err != nil {
		return "", err
	}

	if err := c.rdb.Set(ctx, key, out, c.ttl).Err(); err != nil {
		c.logger.Warn("llm cache write failed", zap.String("operation", opts.Operation), zap.Error(err))
	}
	return out, nil
}

// key hashes everything that can change the completion
func (c *CachedClient) key(mode, prompt string, opts CallOptions) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%s\x00%s\x00%.3f\x00%d\x00", c.next.Model(), mode, opts.Operation, opts.Temperature, opts.MaxTokens)
	h.Write([]byte(prompt))
	return cacheKeyPrefix + opts.Operation + ":" + hex.EncodeToString(h.Sum(nil))
}

// Model returns the wrapped client's model
func (c *CachedClient) Model() string {
	return c.next.Model()
}

// Close closes the wrapped client. The Redis connection is owned by the caller.
func (c *CachedClient) Close() error {
	return c.next.Close()
}
