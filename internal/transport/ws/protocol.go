// Package ws provides the WebSocket chat gateway: the transport that
// delivers inbound text, commands and button presses, and renders replies.
package ws

import (
	"chatrelay/internal/domain"
)

// Message types
const (
	TypeHello    = "hello"
	TypeHelloAck = "hello_ack"
	TypeChat     = "chat"
	TypeButton   = "button"
	TypeReply    = "reply"
	TypeError    = "error"
)

// Inbound is a frame received from a chat client.
type Inbound struct {
	Type     string `json:"type"`
	Ts       int64  `json:"ts,omitempty"`
	UserID   string `json:"user_id,omitempty"`
	Username string `json:"username,omitempty"`
	// Text carries the message or slash command for chat frames.
	Text string `json:"text,omitempty"`
	// Data carries the button payload for button frames.
	Data string `json:"data,omitempty"`
}

// Outbound is a rendering frame sent to a chat client.
type Outbound struct {
	Type     string            `json:"type"`
	Ts       int64             `json:"ts"`
	Text     string            `json:"text,omitempty"`
	Buttons  [][]domain.Button `json:"buttons,omitempty"`
	ImageURL string            `json:"image_url,omitempty"`
}
