package llm

import (
	"context"
	"sync"
)

// MockClient is a Client for tests. Without CompleteFunc it answers every
// request with Response.
type MockClient struct {
	CompleteFunc func(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)
	Response     string

	// Track calls for testing
	Calls []CompletionRequest

	mu sync.Mutex
}

// NewMockClient creates a mock that always answers with response.
func NewMockClient(response string) *MockClient {
	return &MockClient{Response: response}
}

// Name returns the provider name.
func (m *MockClient) Name() string {
	return "mock"
}

// Complete records the request and answers it.
func (m *MockClient) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, *req)
	fn := m.CompleteFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, req)
	}
	return &CompletionResponse{Content: m.Response, Model: "mock"}, nil
}

// CallCount returns how many requests were made.
func (m *MockClient) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// LastCall returns the most recent request.
func (m *MockClient) LastCall() CompletionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Calls) == 0 {
		return CompletionRequest{}
	}
	return m.Calls[len(m.Calls)-1]
}
