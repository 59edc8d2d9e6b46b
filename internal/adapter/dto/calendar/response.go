package calendar

import (
	"time"

	"github.com/chatdesk-team/chatdesk/internal/infrastructure/external/google"
)

// AuthURLResponse carries the consent URL to redirect the admin to
type AuthURLResponse struct {
	AuthURL string `json:"auth_url"`
	Linked  bool   `json:"linked"`
}

// EventsResponse represents upcoming events in the linked calendar
type EventsResponse struct {
	From   time.Time              `json:"from"`
	To     time.Time              `json:"to"`
	Events []google.CalendarEvent `json:"events"`
}
