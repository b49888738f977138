package llm

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type blockingClient struct {
	fakeClient
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (b *blockingClient) GenerateJSON(context.Context, string, CallOptions) (string, error) {
	n := b.inFlight.Add(1)
	for {
		p := b.peak.Load()
		if n <= p || b.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(10 * time.Millisecond)
	b.inFlight.Add(-1)
	return "{}", nil
}

func TestLimitClient_CapsConcurrency(t *testing.T) {
	inner := &blockingClient{}
	client := NewLimitClient(inner, 2)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := client.GenerateJSON(context.Background(), "p", CallOptions{})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, inner.peak.Load(), int32(2))
}

func TestLimitClient_ContextCancelledWhileWaiting(t *testing.T) {
	client := NewLimitClient(&fakeClient{}, 1)
	require.NoError(t, client.sem.Acquire(context.Background(), 1))
	defer client.sem.Release(1)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := client.GenerateJSON(ctx, "p", CallOptions{})
	se, ok := AsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, KindTimeout, se.Kind)
}
