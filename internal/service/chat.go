package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"chatrelay/internal/adapter/llm"
	"chatrelay/internal/domain"
)

// ChatResult is the outcome of one text turn.
type ChatResult struct {
	SessionID string
	Model     string
	Reply     string
}

// UpstreamError marks a completion/model/image API failure. The user's turn
// that triggered it may already be persisted; the assistant turn never is.
type UpstreamError struct {
	Err error
}

func (e *UpstreamError) Error() string { return e.Err.Error() }
func (e *UpstreamError) Unwrap() error { return e.Err }

// ChatTurn runs one text turn: resolve the session, persist the user turn,
// replay the context window, call the completion API, persist the assistant
// turn. The session id is captured at request time — a late reply lands in
// the session that was active when the request was issued.
func (s *Service) ChatTurn(ctx context.Context, userID, username, text string) (*ChatResult, error) {
	session, err := s.EnsureSession(ctx, userID, username)
	if err != nil {
		return nil, err
	}

	if err := s.appendMessage(ctx, session.SessionID, domain.RoleUser, domain.KindText, text); err != nil {
		return nil, fmt.Errorf("failed to persist user turn: %w", err)
	}

	window, err := s.BuildWindow(ctx, session.SessionID)
	if err != nil {
		return nil, err
	}

	log.Printf("Session %s | Model: %s | User: %.50s", session.SessionID, session.Model, text)

	resp, err := s.llmClient.CreateChatCompletion(ctx, &llm.ChatCompletionRequest{
		Model:    session.Model,
		Messages: window,
	})
	if err != nil {
		return nil, &UpstreamError{Err: err}
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message == nil {
		return nil, &UpstreamError{Err: fmt.Errorf("completion returned no choices")}
	}
	reply := resp.Choices[0].Message.Content

	if err := s.appendMessage(ctx, session.SessionID, domain.RoleAssistant, domain.KindText, reply); err != nil {
		return nil, fmt.Errorf("failed to persist assistant turn: %w", err)
	}

	log.Printf("Session %s | Reply: %.50s", session.SessionID, reply)

	// First exchange in the session: the window held only the user turn.
	if len(window) == 1 {
		go s.autoTitle(session.SessionID, text, reply)
	}

	return &ChatResult{
		SessionID: session.SessionID,
		Model:     session.Model,
		Reply:     reply,
	}, nil
}

func (s *Service) appendMessage(ctx context.Context, sessionID string, role domain.Role, kind domain.MessageKind, content string) error {
	return s.store.AppendMessage(ctx, &domain.Message{
		MessageID: "msg_" + uuid.New().String(),
		SessionID: sessionID,
		Role:      role,
		Kind:      kind,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	})
}
