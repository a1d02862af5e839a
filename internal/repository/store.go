// Package store provides durable persistence for users, sessions and messages.
package store

import (
	"context"

	"chatrelay/internal/domain"
)

// Store is the storage gateway. It owns the schema invariants: a session
// exclusively owns its messages, appending a message and bumping the parent
// session's last_active_at is atomic, and every mutation of a session is
// ownership-checked against the requesting user.
type Store interface {
	// UpsertUser inserts the user if absent and refreshes the username.
	UpsertUser(ctx context.Context, userID, username string) error

	// GetUser returns nil, nil when the user does not exist.
	GetUser(ctx context.Context, userID string) (*domain.User, error)

	// CreateSession inserts the session and atomically makes it the
	// owner's current session.
	CreateSession(ctx context.Context, session *domain.Session) error

	// GetSession returns nil, nil when the session does not exist.
	GetSession(ctx context.Context, sessionID string) (*domain.Session, error)

	// SetCurrentSession moves the user's current-session pointer.
	// Returns domain.ErrNotFound / domain.ErrNotOwner.
	SetCurrentSession(ctx context.Context, userID, sessionID string) error

	// TouchSession bumps the session's last_active_at so a switched-to
	// session surfaces first in the history listing.
	TouchSession(ctx context.Context, sessionID string) error

	// AppendMessage inserts the message and bumps the parent session's
	// last_active_at in a single transaction.
	AppendMessage(ctx context.Context, message *domain.Message) error

	// ListRecentSessions returns the user's sessions ordered by
	// last_active_at descending.
	ListRecentSessions(ctx context.Context, userID string, limit int) ([]domain.Session, error)

	// ListMessages returns the most recent limit messages of the session
	// in ascending chronological order. limit <= 0 returns all.
	ListMessages(ctx context.Context, sessionID string, limit int) ([]domain.Message, error)

	// RenameSession sets the title. Ownership-checked.
	RenameSession(ctx context.Context, userID, sessionID, title string) error

	// RenameSessionIfPlaceholder sets the title only while it is still the
	// placeholder. Reports whether the rename took effect.
	RenameSessionIfPlaceholder(ctx context.Context, sessionID, title string) (bool, error)

	// SetSessionModel sets the active model. Ownership-checked.
	SetSessionModel(ctx context.Context, userID, sessionID, model string) error

	Close() error
}
