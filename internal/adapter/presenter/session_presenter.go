package presenter

import (
	"github.com/google/uuid"

	"github.com/chatdesk-team/chatdesk/internal/adapter/dto/common"
	"github.com/chatdesk-team/chatdesk/internal/adapter/dto/session"
	"github.com/chatdesk-team/chatdesk/internal/domain/entities"
)

// ToSessionResponse converts a ChatSession entity to SessionResponse DTO
func ToSessionResponse(s *entities.ChatSession) *session.SessionResponse {
	if s == nil {
		return nil
	}

	platform := string(s.Platform)
	if platform == "" {
		platform = string(entities.PlatformUnknown)
	}

	return &session.SessionResponse{
		ID:            s.ID.String(),
		ContactID:     s.ContactID,
		ContactName:   s.ContactName,
		Platform:      platform,
		LastMessageAt: s.LastMessageAt,
		CreatedAt:     s.CreatedAt,
	}
}

// ToSessionListResponse converts a page of sessions to a ListResponse
func ToSessionListResponse(sessions []*entities.ChatSession, total int64, page, pageSize int) *common.ListResponse {
	responses := make([]*session.SessionResponse, len(sessions))
	for i, s := range sessions {
		responses[i] = ToSessionResponse(s)
	}

	totalPages := int(total) / pageSize
	if int(total)%pageSize != 0 {
		totalPages++
	}

	return &common.ListResponse{
		Data: responses,
		Pagination: &common.PaginationResponse{
			Page:       page,
			PageSize:   pageSize,
			TotalPages: totalPages,
			TotalItems: total,
		},
	}
}

// ToMessageResponse converts a ChatMessage entity to MessageResponse DTO,
// decoding the stored envelope for display. Payloads that fail to decode
// come back with type "unknown" instead of an error; the dashboard still
// shows the message row.
func ToMessageResponse(m *entities.ChatMessage) *session.MessageResponse {
	if m == nil {
		return nil
	}

	response := &session.MessageResponse{
		ID:        m.ID.String(),
		SessionID: m.SessionID.String(),
		Direction: string(m.Direction),
		Type:      "unknown",
		CreatedAt: m.CreatedAt,
	}

	env, err := entities.DecodeEnvelope(m.Payload)
	if err != nil {
		return response
	}

	switch env.Kind {
	case entities.EnvelopeKindText:
		response.Type = string(entities.EnvelopeKindText)
		response.Text = env.Text
	case entities.EnvelopeKindMedia:
		response.Type = env.MediaType
		response.MediaURL = env.MediaURL
		response.MimeType = env.MimeType
		response.Caption = env.Caption
	}

	return response
}

// ToMessageListResponse converts a slice of messages, attaching stored
// sentiment annotations keyed by message ID. A nil map leaves every
// message unannotated.
func ToMessageListResponse(messages []*entities.ChatMessage, analyses map[uuid.UUID]*entities.SentimentAnalysis) []*session.MessageResponse {
	responses := make([]*session.MessageResponse, len(messages))
	for i, m := range messages {
		responses[i] = ToMessageResponse(m)
		if a := analyses[m.ID]; a != nil {
			responses[i].Sentiment = &session.MessageSentiment{
				Sentiment:  string(a.Sentiment),
				Confidence: a.Confidence,
				Source:     string(a.Source),
			}
		}
	}
	return responses
}
