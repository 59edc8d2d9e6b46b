package session

// ListSessionsRequest represents query parameters for listing chat sessions
type ListSessionsRequest struct {
	Platform *string `query:"platform" validate:"omitempty,oneof=whatsapp instagram facebook unknown"`
	Search   string  `query:"search"`
	Page     int     `query:"page" validate:"min=1"`
	PageSize int     `query:"page_size" validate:"min=1,max=100"`
}

// ListMessagesRequest represents query parameters for a session's messages
type ListMessagesRequest struct {
	Direction *string `query:"direction" validate:"omitempty,oneof=inbound outbound"`
	StartDate string  `query:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate   string  `query:"end_date" validate:"omitempty,datetime=2006-01-02"`
	Limit     int     `query:"limit" validate:"min=0,max=500"`
}

// ReplyRequest represents the request to send a staff reply into a session
type ReplyRequest struct {
	Text string `json:"text" validate:"required,min=1,max=4096"`
}
