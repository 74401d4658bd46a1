package discovery

import (
	"context"
	"sync"

	"djangify/internal/llm"
)

// MockLLMClient answers requests through a function and records every request.
type MockLLMClient struct {
	CompleteFunc func(ctx context.Context, req llm.Request) (string, error)

	mu       sync.Mutex
	requests []llm.Request
}

func (m *MockLLMClient) Complete(ctx context.Context, req llm.Request) (llm.Response, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if m.CompleteFunc == nil {
		return llm.Response{Text: "{}"}, nil
	}
	text, err := m.CompleteFunc(ctx, req)
	if err != nil {
		return llm.Response{}, err
	}
	return llm.Response{Text: text}, nil
}

func (m *MockLLMClient) Requests() []llm.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]llm.Request(nil), m.requests...)
}

// sequence returns a CompleteFunc answering with the given texts in call order.
func sequence(texts ...string) func(context.Context, llm.Request) (string, error) {
	var mu sync.Mutex
	i := 0
	return func(context.Context, llm.Request) (string, error) {
		mu.Lock()
		defer mu.Unlock()
		if i >= len(texts) {
			return "{}", nil
		}
		t := texts[i]
		i++
		return t, nil
	}
}
