package domain

// Button is one inline choice offered to the user. Data is the opaque
// payload the transport sends back when the button is pressed.
type Button struct {
	Text string `json:"text"`
	Data string `json:"data"`
}

// Reply is the rendering instruction a command handler returns to the
// transport layer: text, optional button rows, optional image.
type Reply struct {
	Text     string     `json:"text"`
	Buttons  [][]Button `json:"buttons,omitempty"`
	ImageURL string     `json:"image_url,omitempty"`
}

// TextReply builds a plain text reply.
func TextReply(text string) *Reply {
	return &Reply{Text: text}
}
