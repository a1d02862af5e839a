// Package llm provides an abstraction for the completion/image API client.
package llm

import "context"

// LLMClient defines the interface for the upstream completion API.
type LLMClient interface {
	// CreateChatCompletion sends an ordered sequence of role-tagged turns
	// and returns a single assistant turn.
	CreateChatCompletion(ctx context.Context, req *ChatCompletionRequest) (*ChatCompletionResponse, error)

	// CreateImage generates an image from a prompt and returns an
	// artifact reference.
	CreateImage(ctx context.Context, req *ImageRequest) (*ImageResponse, error)

	// ListModels retrieves the list of available models.
	ListModels(ctx context.Context) ([]Model, error)
}

// Ensure Client implements LLMClient interface.
var _ LLMClient = (*Client)(nil)
