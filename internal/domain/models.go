package domain

import "time"

// User is an external identity. It exists as the foreign-key scope for
// sessions and carries the per-user current-session pointer.
type User struct {
	UserID           string    `json:"user_id"`
	Username         string    `json:"username,omitempty"`
	CurrentSessionID string    `json:"current_session_id,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// Session is one conversation thread.
type Session struct {
	SessionID    string    `json:"session_id"`
	UserID       string    `json:"user_id"`
	Title        string    `json:"title"`
	Model        string    `json:"model"`
	CreatedAt    time.Time `json:"created_at"`
	LastActiveAt time.Time `json:"last_active_at"`
}

// Message is a single conversation turn belonging to exactly one session.
// Messages within a session are totally ordered by created_at, insertion
// order breaking ties.
type Message struct {
	MessageID string      `json:"message_id"`
	SessionID string      `json:"session_id"`
	Role      Role        `json:"role"`
	Kind      MessageKind `json:"kind"`
	Content   string      `json:"content"`
	CreatedAt time.Time   `json:"created_at"`
}
