package session

import "time"

// SessionResponse represents a chat session in responses.
// MessageCount is only populated on the detail endpoint.
type SessionResponse struct {
	ID            string     `json:"id"`
	ContactID     string     `json:"contact_id"`
	ContactName   string     `json:"contact_name,omitempty"`
	Platform      string     `json:"platform"`
	LastMessageAt *time.Time `json:"last_message_at,omitempty"`
	MessageCount  *int64     `json:"message_count,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// MessageResponse represents a chat message with its envelope decoded
// for display. Type is "text", a media kind, or "unknown" when the
// stored payload could not be decoded. Sentiment is present only for
// messages that have a stored analysis.
type MessageResponse struct {
	ID        string            `json:"id"`
	SessionID string            `json:"session_id"`
	Direction string            `json:"direction"`
	Type      string            `json:"type"`
	Text      string            `json:"text,omitempty"`
	MediaURL  string            `json:"media_url,omitempty"`
	MimeType  string            `json:"mime_type,omitempty"`
	Caption   string            `json:"caption,omitempty"`
	Sentiment *MessageSentiment `json:"sentiment,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// MessageSentiment is the compact analysis summary attached to a
// message in the conversation view
type MessageSentiment struct {
	Sentiment  string  `json:"sentiment"`
	Confidence float64 `json:"confidence"`
	Source     string  `json:"source"`
}
