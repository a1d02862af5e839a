package service

import (
	"context"
	"fmt"
	"log"

	"chatrelay/internal/adapter/llm"
	"chatrelay/internal/domain"
)

// ImageResult is the outcome of one image generation turn.
type ImageResult struct {
	SessionID string
	Model     string
	URL       string
}

// GenerateImage runs one image turn. The prompt and the resulting artifact
// reference are archived as two ordered messages through the same storage
// path as text turns, so history listing and replay treat them uniformly.
func (s *Service) GenerateImage(ctx context.Context, userID, username, prompt string) (*ImageResult, error) {
	session, err := s.EnsureSession(ctx, userID, username)
	if err != nil {
		return nil, err
	}

	if err := s.appendMessage(ctx, session.SessionID, domain.RoleUser, domain.KindImagePrompt, prompt); err != nil {
		return nil, fmt.Errorf("failed to persist image prompt: %w", err)
	}

	window, err := s.store.ListMessages(ctx, session.SessionID, s.config.ContextWindow)
	if err != nil {
		return nil, err
	}

	log.Printf("Session %s | Model: %s | Image prompt: %.50s", session.SessionID, session.Model, prompt)

	resp, err := s.llmClient.CreateImage(ctx, &llm.ImageRequest{
		Model:  session.Model,
		Prompt: prompt,
		N:      1,
	})
	if err != nil {
		return nil, &UpstreamError{Err: err}
	}
	if len(resp.Data) == 0 || resp.Data[0].URL == "" {
		return nil, &UpstreamError{Err: fmt.Errorf("image API returned no artifact")}
	}
	ref := resp.Data[0].URL

	// The reference plus the echoed prompt, so a later turn can recall
	// what was drawn.
	content := fmt.Sprintf("%s\nprompt: %s", ref, prompt)
	if err := s.appendMessage(ctx, session.SessionID, domain.RoleAssistant, domain.KindImageResult, content); err != nil {
		return nil, fmt.Errorf("failed to persist image result: %w", err)
	}

	// An image-only session still gets a generated title.
	if len(window) == 1 {
		go s.autoTitle(session.SessionID, "image request: "+prompt, "image generated")
	}

	return &ImageResult{
		SessionID: session.SessionID,
		Model:     session.Model,
		URL:       ref,
	}, nil
}
