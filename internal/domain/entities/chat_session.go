package entities

import (
	"time"

	"github.com/google/uuid"
)

// Platform identifies the messaging transport a conversation arrived on
type Platform string

const (
	PlatformWhatsApp  Platform = "whatsapp"
	PlatformInstagram Platform = "instagram"
	PlatformFacebook  Platform = "facebook"
	PlatformUnknown   Platform = "unknown"
)

// IsKnown reports whether the platform was recognized
func (p Platform) IsKnown() bool {
	switch p {
	case PlatformWhatsApp, PlatformInstagram, PlatformFacebook:
		return true
	}
	return false
}

// ChatSession is one customer conversation. Platform is a derived
// annotation persisted on the row; it is recomputed from ContactID
// when empty and written back.
type ChatSession struct {
	ID            uuid.UUID  `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	ContactID     string     `json:"contact_id" gorm:"type:varchar(255);not null;uniqueIndex"`
	ContactName   string     `json:"contact_name,omitempty" gorm:"type:varchar(255)"`
	Platform      Platform   `json:"platform,omitempty" gorm:"type:varchar(20);index"`
	LastMessageAt *time.Time `json:"last_message_at,omitempty" gorm:"type:timestamp;index"`
	CreatedAt     time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt     time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (ChatSession) TableName() string {
	return "chat_sessions"
}

// NewChatSession creates a session for a contact
func NewChatSession(contactID, contactName string, platform Platform) *ChatSession {
	now := time.Now()
	return &ChatSession{
		ID:          uuid.New(),
		ContactID:   contactID,
		ContactName: contactName,
		Platform:    platform,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// TouchLastMessage bumps the last-activity timestamp
func (s *ChatSession) TouchLastMessage(at time.Time) {
	s.LastMessageAt = &at
	s.UpdatedAt = time.Now()
}
