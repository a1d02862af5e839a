package llm

import (
	"context"
	"fmt"
	"time"
)

// MockClient is a mock implementation of LLMClient for testing and for
// running the relay without an upstream API. The function fields, when set,
// override the canned behavior.
type MockClient struct {
	ChatFn   func(ctx context.Context, req *ChatCompletionRequest) (*ChatCompletionResponse, error)
	ImageFn  func(ctx context.Context, req *ImageRequest) (*ImageResponse, error)
	ModelsFn func(ctx context.Context) ([]Model, error)
}

// NewMockClient creates a new mock LLM client.
func NewMockClient() *MockClient {
	return &MockClient{}
}

// Ensure MockClient implements LLMClient interface.
var _ LLMClient = (*MockClient)(nil)

// CreateChatCompletion returns a mock response.
func (m *MockClient) CreateChatCompletion(ctx context.Context, req *ChatCompletionRequest) (*ChatCompletionResponse, error) {
	if m.ChatFn != nil {
		return m.ChatFn(ctx, req)
	}

	last := ""
	if len(req.Messages) > 0 {
		last = req.Messages[len(req.Messages)-1].Content
	}
	content := fmt.Sprintf("mock reply to: %s", last)

	return &ChatCompletionResponse{
		ID:      fmt.Sprintf("mock-chatcmpl-%d", time.Now().UnixNano()),
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   req.Model,
		Choices: []Choice{
			{
				Index: 0,
				Message: &ChatMessage{
					Role:    "assistant",
					Content: content,
				},
				FinishReason: "stop",
			},
		},
		Usage: &Usage{
			PromptTokens:     len(req.Messages),
			CompletionTokens: len(content) / 4,
			TotalTokens:      len(req.Messages) + len(content)/4,
		},
	}, nil
}

// CreateImage returns a mock artifact reference.
func (m *MockClient) CreateImage(ctx context.Context, req *ImageRequest) (*ImageResponse, error) {
	if m.ImageFn != nil {
		return m.ImageFn(ctx, req)
	}
	return &ImageResponse{
		Created: time.Now().Unix(),
		Data: []ImageData{
			{URL: "https://example.invalid/mock.png", RevisedPrompt: req.Prompt},
		},
	}, nil
}

// ListModels returns a list of mock models.
func (m *MockClient) ListModels(ctx context.Context) ([]Model, error) {
	if m.ModelsFn != nil {
		return m.ModelsFn(ctx)
	}
	return []Model{
		{ID: "mock-gpt-4", Object: "model", Created: time.Now().Unix(), OwnedBy: "mock"},
		{ID: "mock-gpt-3.5-turbo", Object: "model", Created: time.Now().Unix(), OwnedBy: "mock"},
	}, nil
}
