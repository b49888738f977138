package llm

import (
	"context"
	"sync"
	"time"
)

// fakeClient returns queued results in order, then repeats the last one
type fakeClient struct {
	mu      sync.Mutex
	results []fakeResult
	calls   int
}

type fakeResult struct {
	text string
	err  error
}

func (f *fakeClient) next() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if len(f.results) == 0 {
		return "", nil
	}
	idx := f.calls - 1
	if idx >= len(f.results) {
		idx = len(f.results) - 1
	}
	r := f.results[idx]
	return r.text, r.err
}

func (f *fakeClient) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeClient) GenerateContent(context.Context, string, CallOptions) (string, error) {
	return f.next()
}

func (f *fakeClient) GenerateJSON(context.Context, string, CallOptions) (string, error) {
	return f.next()
}

func (f *fakeClient) Model() string { return "fake" }
func (f *fakeClient) Close() error  { return nil }

type recordedCall struct {
	operation string
	outcome   string
}

type fakeRecorder struct {
	mu      sync.Mutex
	calls   []recordedCall
	retries map[string]int
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{retries: make(map[string]int)}
}

func (r *fakeRecorder) ObserveCall(operation, outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, recordedCall{operation: operation, outcome: outcome})
}

func (r *fakeRecorder) ObserveRetry(operation string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.retries[operation]++
}
