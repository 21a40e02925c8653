package extract_test

import (
	"context"

	"autodraft.app/assistant/common/llm"
)

type mockLLM struct {
	completeFn func(ctx context.Context, req llm.Request) (*llm.Response, error)
	requests   []llm.Request
}

func (m *mockLLM) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	m.requests = append(m.requests, req)
	if m.completeFn != nil {
		return m.completeFn(ctx, req)
	}
	return &llm.Response{Content: "{}"}, nil
}

func (m *mockLLM) Model() string {
	return "mock"
}

func replying(content string) *mockLLM {
	return &mockLLM{completeFn: func(context.Context, llm.Request) (*llm.Response, error) {
		return &llm.Response{Content: content}, nil
	}}
}
