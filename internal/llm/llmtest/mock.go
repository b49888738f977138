// Package llmtest provides test doubles for llm.Client.
package llmtest

import (
	"context"
	"fmt"
	"sync"

	"github.com/jonathan/candidate-intel/internal/llm"
)

// MockClient implements llm.Client with overridable funcs
type MockClient struct {
	GenerateContentFunc func(ctx context.Context, prompt string, opts llm.CallOptions) (string, error)
	GenerateJSONFunc    func(ctx context.Context, prompt string, opts llm.CallOptions) (string, error)
	ModelFunc           func() string
	CloseFunc           func() error
}

// GenerateContent calls GenerateContentFunc or returns ""
func (m *MockClient) GenerateContent(ctx context.Context, prompt string, opts llm.CallOptions) (string, error) {
	if m.GenerateContentFunc != nil {
		return m.GenerateContentFunc(ctx, prompt, opts)
	}
	return "", nil
}

// GenerateJSON calls GenerateJSONFunc or returns "{}"
func (m *MockClient) GenerateJSON(ctx context.Context, prompt string, opts llm.CallOptions) (string, error) {
	if m.GenerateJSONFunc != nil {
		return m.GenerateJSONFunc(ctx, prompt, opts)
	}
	return "{}", nil
}

// Model calls ModelFunc or returns "mock-model"
func (m *MockClient) Model() string {
	if m.ModelFunc != nil {
		return m.ModelFunc()
	}
	return "mock-model"
}

// Close calls CloseFunc or returns nil
func (m *MockClient) Close() error {
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

// Reply is a canned response for one operation
type Reply struct {
	Text string
	Err  error
}

// Scripted answers by CallOptions.Operation and records every call.
// Operations without a script fail with a server error.
type Scripted struct {
	mu      sync.Mutex
	replies map[string]func(prompt string) Reply
	calls   map[string]int
	prompts map[string][]string
}

// NewScripted creates an empty script
func NewScripted() *Scripted {
	return &Scripted{
		replies: make(map[string]func(string) Reply),
		calls:   make(map[string]int),
		prompts: make(map[string][]string),
	}
}

// On sets a fixed reply for an operation
func (s *Scripted) On(operation, text string) *Scripted {
	return s.OnFunc(operation, func(string) Reply { return Reply{Text: text} })
}

// Fail makes an operation return err
func (s *Scripted) Fail(operation string, err error) *Scripted {
	return s.OnFunc(operation, func(string) Reply { return Reply{Err: err} })
}

// OnFunc computes the reply for an operation from the prompt
func (s *Scripted) OnFunc(operation string, fn func(prompt string) Reply) *Scripted {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replies[operation] = fn
	return s
}

// Calls returns how often an operation was invoked
func (s *Scripted) Calls(operation string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[operation]
}

// Prompts returns the prompts sent for an operation
func (s *Scripted) Prompts(operation string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.prompts[operation]...)
}

func (s *Scripted) reply(prompt string, opts llm.CallOptions) (string, error) {
	s.mu.Lock()
	s.calls[opts.Operation]++
	s.prompts[opts.Operation] = append(s.prompts[opts.Operation], prompt)
	fn, ok := s.replies[opts.Operation]
	s.mu.Unlock()

	if !ok {
		return "", &llm.ServiceError{Kind: llm.KindServer, Message: fmt.Sprintf("no script for %q", opts.Operation)}
	}
	r := fn(prompt)
	return r.Text, r.Err
}

// GenerateContent returns the scripted reply
func (s *Scripted) GenerateContent(_ context.Context, prompt string, opts llm.CallOptions) (string, error) {
	return s.reply(prompt, opts)
}

// GenerateJSON returns the scripted reply passed through llm.CleanJSONBlock
func (s *Scripted) GenerateJSON(_ context.Context, prompt string, opts llm.CallOptions) (string, error) {
	out, err := s.reply(prompt, opts)
	if err != nil {
		return "", err
	}
	return llm.CleanJSONBlock(out), nil
}

// Model returns "scripted"
func (s *Scripted) Model() string { return "scripted" }

// Close returns nil
func (s *Scripted) Close() error { return nil }
