package sentiment

// StatsRequest represents query parameters for the sentiment dashboard
type StatsRequest struct {
	SessionID *string `query:"session_id" validate:"omitempty,uuid"`
	StartDate string  `query:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate   string  `query:"end_date" validate:"omitempty,datetime=2006-01-02"`
}

// BatchStartRequest represents the request to start a batch analysis job
type BatchStartRequest struct {
	SessionID   *string `json:"session_id,omitempty" validate:"omitempty,uuid"`
	StartDate   string  `json:"start_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	EndDate     string  `json:"end_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	MaxMessages int     `json:"max_messages,omitempty" validate:"min=0,max=10000"`
}
