package llm

import (
	"context"
	"time"
)

// Call outcomes reported to a Recorder
const (
	OutcomeSuccess = "success"
	OutcomeCached  = "cached"
)

// Recorder receives call telemetry. observability.Metrics implements it.
type Recorder interface {
	ObserveCall(operation, outcome string, duration time.Duration)
	ObserveRetry(operation string)
}

type nopRecorder struct{}

func (nopRecorder) ObserveCall(string, string, time.Duration) {}
func (nopRecorder) ObserveRetry(string)                       {}

// OutcomeOf returns the outcome label for err: "success" or the ServiceError kind
func OutcomeOf(err error) string {
	if err == nil {
		return OutcomeSuccess
	}
	if se, ok := AsServiceError(err); ok {
		return string(se.Kind)
	}
	return string(KindServer)
}

// InstrumentedClient reports the duration and outcome of every call
type InstrumentedClient struct {
	next     Client
	recorder Recorder
	now      func() time.Time
}

// NewInstrumentedClient wraps next so every call is reported to recorder
func NewInstrumentedClient(next Client, recorder Recorder) *InstrumentedClient {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &InstrumentedClient{next: next, recorder: recorder, now: time.Now}
}

// GenerateContent calls the wrapped client and records the outcome
func (c *InstrumentedClient) GenerateContent(ctx context.Context, prompt string, opts CallOptions) (string, error) {
	start := c.now()
	out, err := c.next.GenerateContent(ctx, prompt, opts)
	c.recorder.ObserveCall(opts.Operation, OutcomeOf(err), c.now().Sub(start))
	return out, err
}

// GenerateJSON calls the wrapped client and records the outcome
func (c *InstrumentedClient) GenerateJSON(ctx context.Context, prompt string, opts CallOptions) (string, error) {
	start := c.now()
	out, err := c.next.GenerateJSON(ctx, prompt, opts)
	c.recorder.ObserveCall(opts.Operation, OutcomeOf(err), c.now().Sub(start))
	return out, err
}

// Model returns the wrapped client's model
func (c *InstrumentedClient) Model() string {
	return c.next.Model()
}

// Close closes the wrapped client
func (c *InstrumentedClient) Close() error {
	return c.next.Close()
}
