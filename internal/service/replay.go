package service

import (
	"context"
	"fmt"

	"chatrelay/internal/adapter/llm"
	"chatrelay/internal/domain"
)

// BuildWindow assembles the replay window for a session about to be sent
// upstream: the most recent ContextWindow messages in chronological order,
// mapped to role-tagged chat turns. A fixed-size sliding window, no
// summarization; context loss beyond the window is an accepted tradeoff.
// A brand-new session yields an empty window.
func (s *Service) BuildWindow(ctx context.Context, sessionID string) ([]llm.ChatMessage, error) {
	messages, err := s.store.ListMessages(ctx, sessionID, s.config.ContextWindow)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	window := make([]llm.ChatMessage, 0, len(messages))
	for _, m := range messages {
		window = append(window, toChatMessage(m))
	}
	return window, nil
}

// toChatMessage maps a stored turn to an upstream chat turn. Image turns
// participate in replay identically to text turns, so a later text-only
// exchange can refer back to a generated image.
func toChatMessage(m domain.Message) llm.ChatMessage {
	switch m.Kind {
	case domain.KindText:
		return llm.ChatMessage{Role: string(m.Role), Content: m.Content}
	case domain.KindImagePrompt:
		return llm.ChatMessage{Role: string(m.Role), Content: "[image request] " + m.Content}
	case domain.KindImageResult:
		return llm.ChatMessage{Role: string(m.Role), Content: "[image generated] " + m.Content}
	default:
		return llm.ChatMessage{Role: string(m.Role), Content: m.Content}
	}
}
