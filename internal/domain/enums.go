// Package domain defines the core domain models for the chat relay.
package domain

// Role identifies who authored a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// MessageKind is the tagged variant of a conversation turn.
type MessageKind string

const (
	KindText        MessageKind = "text"
	KindImagePrompt MessageKind = "image_prompt"
	KindImageResult MessageKind = "image_result"
)

// PlaceholderTitle is the title a session carries until it is auto-named
// or renamed by the user.
const PlaceholderTitle = "New Chat"
