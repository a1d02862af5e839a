package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"chatrelay/internal/adapter/llm"
	"chatrelay/internal/domain"
)

const titleMaxLen = 60

// EnsureSession resolves the user's current session, creating user and
// session lazily on first contact or when the pointer dangles. The returned
// session id is the one the caller must use for the whole turn, even if the
// pointer moves while an upstream call is in flight.
func (s *Service) EnsureSession(ctx context.Context, userID, username string) (*domain.Session, error) {
	if err := s.store.UpsertUser(ctx, userID, username); err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}

	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user != nil && user.CurrentSessionID != "" {
		session, err := s.store.GetSession(ctx, user.CurrentSessionID)
		if err != nil {
			return nil, fmt.Errorf("failed to get session: %w", err)
		}
		if session != nil {
			return session, nil
		}
		// Dangling pointer: the session row is gone. Recover locally.
		log.Printf("WARN: user %s points at missing session %s, creating a new one", userID, user.CurrentSessionID)
	}

	return s.createSession(ctx, userID)
}

// NewSession always creates a fresh session and makes it current. This is
// the only explicit context-reset path.
func (s *Service) NewSession(ctx context.Context, userID, username string) (*domain.Session, error) {
	if err := s.store.UpsertUser(ctx, userID, username); err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}
	return s.createSession(ctx, userID)
}

func (s *Service) createSession(ctx context.Context, userID string) (*domain.Session, error) {
	now := time.Now().UTC()
	session := &domain.Session{
		SessionID:    "sess_" + uuid.New().String(),
		UserID:       userID,
		Title:        domain.PlaceholderTitle,
		Model:        s.config.DefaultModel,
		CreatedAt:    now,
		LastActiveAt: now,
	}
	if err := s.store.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return session, nil
}

// ListRecentSessions returns the user's sessions for the history listing.
func (s *Service) ListRecentSessions(ctx context.Context, userID string) ([]domain.Session, error) {
	return s.store.ListRecentSessions(ctx, userID, s.config.HistoryLimit)
}

// SwitchSession activates a previously created session and returns it with
// its replay window. No state from the previous session leaks in: the window
// is re-queried from storage.
func (s *Service) SwitchSession(ctx context.Context, userID, sessionID string) (*domain.Session, []domain.Message, error) {
	if err := s.store.SetCurrentSession(ctx, userID, sessionID); err != nil {
		return nil, nil, err
	}
	if err := s.store.TouchSession(ctx, sessionID); err != nil {
		return nil, nil, err
	}
	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	if session == nil {
		return nil, nil, domain.ErrNotFound
	}
	messages, err := s.store.ListMessages(ctx, sessionID, s.config.ContextWindow)
	if err != nil {
		return nil, nil, err
	}
	return session, messages, nil
}

// RenameCurrentSession sets a user-supplied title on the active session.
// A user title always wins: auto-naming can never overwrite it afterwards.
func (s *Service) RenameCurrentSession(ctx context.Context, userID, title string) error {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil || user.CurrentSessionID == "" {
		return domain.ErrNotFound
	}
	return s.store.RenameSession(ctx, userID, user.CurrentSessionID, title)
}

// RenameSession sets a user-supplied title on an explicitly named session.
func (s *Service) RenameSession(ctx context.Context, userID, sessionID, title string) error {
	return s.store.RenameSession(ctx, userID, sessionID, title)
}

// SessionMessages returns the most recent limit messages of a session the
// user owns, oldest first.
func (s *Service) SessionMessages(ctx context.Context, userID, sessionID string, limit int) ([]domain.Message, error) {
	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, domain.ErrNotFound
	}
	if session.UserID != userID {
		return nil, domain.ErrNotOwner
	}
	return s.store.ListMessages(ctx, sessionID, limit)
}

// autoTitle derives a short session title from the first exchange via a
// secondary completion call and persists it only while the placeholder is
// still in place. Runs detached from the main reply; failure leaves the
// placeholder, which is recoverable, not an error.
func (s *Service) autoTitle(sessionID, question, answer string) {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.LLMTimeout)
	defer cancel()

	maxTokens := 30
	prompt := fmt.Sprintf(
		"User: %s\nAI: %s\n\nSummarize the topic of this exchange in at most six words. Reply with the title only, no quotes.",
		question, answer)

	resp, err := s.llmClient.CreateChatCompletion(ctx, &llm.ChatCompletionRequest{
		Model:     s.config.DefaultModel,
		Messages:  []llm.ChatMessage{{Role: "user", Content: prompt}},
		MaxTokens: &maxTokens,
	})
	if err != nil {
		log.Printf("WARN: auto title for session %s failed: %v", sessionID, err)
		return
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message == nil {
		log.Printf("WARN: auto title for session %s returned no choices", sessionID)
		return
	}

	title := strings.TrimSpace(resp.Choices[0].Message.Content)
	title = strings.Trim(title, `"'`)
	if title == "" {
		return
	}
	if runes := []rune(title); len(runes) > titleMaxLen {
		title = string(runes[:titleMaxLen])
	}

	renamed, err := s.store.RenameSessionIfPlaceholder(ctx, sessionID, title)
	if err != nil {
		log.Printf("WARN: failed to persist auto title for session %s: %v", sessionID, err)
		return
	}
	if renamed {
		log.Printf("Session %s auto-titled: %s", sessionID, title)
	}
}
