package entities

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// MessageDirection tells whether a message came from the customer or staff
type MessageDirection string

const (
	DirectionInbound  MessageDirection = "inbound"
	DirectionOutbound MessageDirection = "outbound"
)

// ChatMessage is one message of a conversation. Payload holds the raw
// transport envelope as stored by the ingest webhook; DecodeEnvelope
// turns it into a typed MessageEnvelope.
type ChatMessage struct {
	ID        uuid.UUID        `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	SessionID uuid.UUID        `json:"session_id" gorm:"type:uuid;not null;index"`
	Direction MessageDirection `json:"direction" gorm:"type:varchar(10);not null;index"`
	Payload   datatypes.JSON   `json:"payload" gorm:"type:jsonb;not null"`
	CreatedAt time.Time        `json:"created_at" gorm:"autoCreateTime;index"`
}

// TableName specifies the table name for GORM
func (ChatMessage) TableName() string {
	return "chat_messages"
}

// NewChatMessage creates a message with an already-encoded payload
func NewChatMessage(sessionID uuid.UUID, direction MessageDirection, payload datatypes.JSON) *ChatMessage {
	return &ChatMessage{
		ID:        uuid.New(),
		SessionID: sessionID,
		Direction: direction,
		Payload:   payload,
		CreatedAt: time.Now(),
	}
}

// EnvelopeKind is the decoded payload variant
type EnvelopeKind string

const (
	EnvelopeKindText  EnvelopeKind = "text"
	EnvelopeKindMedia EnvelopeKind = "media"
)

// MessageEnvelope is the typed form of a message payload. Exactly one
// variant is populated according to Kind.
type MessageEnvelope struct {
	Kind      EnvelopeKind `json:"kind"`
	Text      string       `json:"text,omitempty"`
	MediaType string       `json:"media_type,omitempty"` // image, video, audio, document
	MediaURL  string       `json:"media_url,omitempty"`
	MimeType  string       `json:"mime_type,omitempty"`
	Caption   string       `json:"caption,omitempty"`
}

// wire shapes of the stored payload
type envelopePayload struct {
	Type string `json:"type"`
	Text *struct {
		Body string `json:"body"`
	} `json:"text,omitempty"`
	Media *struct {
		URL      string `json:"url"`
		MimeType string `json:"mime_type"`
		Caption  string `json:"caption"`
	} `json:"media,omitempty"`
}

// DecodeEnvelope decodes a stored payload into its typed variant.
// The type tag is dispatched exactly once here; a payload whose tag is
// missing or unknown yields ErrUnrecognizedEnvelope rather than being
// probed field by field downstream.
func DecodeEnvelope(raw []byte) (*MessageEnvelope, error) {
	if len(raw) == 0 {
		return nil, ErrUnrecognizedEnvelope
	}
	var p envelopePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, ErrUnrecognizedEnvelope
	}
	switch p.Type {
	case "text":
		env := &MessageEnvelope{Kind: EnvelopeKindText}
		if p.Text != nil {
			env.Text = p.Text.Body
		}
		return env, nil
	case "image", "video", "audio", "document":
		env := &MessageEnvelope{Kind: EnvelopeKindMedia, MediaType: p.Type}
		if p.Media != nil {
			env.MediaURL = p.Media.URL
			env.MimeType = p.Media.MimeType
			env.Caption = p.Media.Caption
		}
		return env, nil
	default:
		return nil, ErrUnrecognizedEnvelope
	}
}

// DisplayText returns the analyzable text of the envelope: the body for
// text messages, the caption for media
func (e *MessageEnvelope) DisplayText() string {
	if e == nil {
		return ""
	}
	if e.Kind == EnvelopeKindText {
		return e.Text
	}
	return e.Caption
}

// NewTextEnvelope builds a text envelope, used for outbound replies
func NewTextEnvelope(body string) *MessageEnvelope {
	return &MessageEnvelope{Kind: EnvelopeKindText, Text: body}
}

// Encode marshals the envelope back into its stored payload shape
func (e *MessageEnvelope) Encode() (datatypes.JSON, error) {
	var p envelopePayload
	switch e.Kind {
	case EnvelopeKindText:
		p.Type = "text"
		p.Text = &struct {
			Body string `json:"body"`
		}{Body: e.Text}
	case EnvelopeKindMedia:
		p.Type = e.MediaType
		p.Media = &struct {
			URL      string `json:"url"`
			MimeType string `json:"mime_type"`
			Caption  string `json:"caption"`
		}{URL: e.MediaURL, MimeType: e.MimeType, Caption: e.Caption}
	default:
		return nil, ErrUnrecognizedEnvelope
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}
