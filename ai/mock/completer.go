package mock

import (
	"context"
	"sync"

	"github.com/poiesic/graphrag/ai"
)

// MockCompleter is a test double for ai.Completer.
// It allows custom behavior injection via function fields.
type MockCompleter struct {
	// CompleteFunc is called by Complete if set.
	// If nil, Complete echoes a fixed acknowledgement.
	CompleteFunc func(ctx context.Context, prompt string, opts ...ai.CompleteOption) (string, error)

	// ReasonFunc is called by Reason if set.
	// If nil, Reason falls back to the same default as Complete.
	ReasonFunc func(ctx context.Context, prompt string) (string, error)

	mu            sync.Mutex
	completeCalls int
	reasonCalls   int
	prompts       []string
}

// NewMockCompleter creates a mock completer with default behavior.
func NewMockCompleter() *MockCompleter {
	return &MockCompleter{}
}

// Complete returns a canned completion unless CompleteFunc is set.
func (m *MockCompleter) Complete(ctx context.Context, prompt string, opts ...ai.CompleteOption) (string, error) {
	m.mu.Lock()
	m.completeCalls++
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()

	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, prompt, opts...)
	}
	return "mock completion", nil
}

// Reason returns a canned response unless ReasonFunc is set.
func (m *MockCompleter) Reason(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	m.reasonCalls++
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()

	if m.ReasonFunc != nil {
		return m.ReasonFunc(ctx, prompt)
	}
	return "mock reasoning", nil
}

// CompleteCallCount returns the number of times Complete was called.
func (m *MockCompleter) CompleteCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.completeCalls
}

// ReasonCallCount returns the number of times Reason was called.
func (m *MockCompleter) ReasonCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reasonCalls
}

// Prompts returns a copy of every prompt seen, in call order.
func (m *MockCompleter) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.prompts))
	copy(out, m.prompts)
	return out
}

// Reset clears call counts, recorded prompts, and custom functions.
func (m *MockCompleter) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.completeCalls = 0
	m.reasonCalls = 0
	m.prompts = nil
	m.CompleteFunc = nil
	m.ReasonFunc = nil
}
