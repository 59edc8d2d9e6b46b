package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/chatdesk-team/chatdesk/internal/domain/entities"
	"github.com/chatdesk-team/chatdesk/internal/domain/repositories"
	"github.com/chatdesk-team/chatdesk/internal/usecase/sentiment"
	"github.com/chatdesk-team/chatdesk/pkg/webhook"
)

type fakeSessionService struct {
	ingested     []string
	lastPayload  datatypes.JSON
	ingestResult *entities.ChatMessage
	ingestErr    error
}

func (f *fakeSessionService) ListSessions(ctx context.Context, filters repositories.SessionFilters) ([]*entities.ChatSession, int64, error) {
	return nil, 0, nil
}

func (f *fakeSessionService) GetSession(ctx context.Context, sessionID uuid.UUID) (*entities.ChatSession, error) {
	return nil, entities.ErrSessionNotFound
}

func (f *fakeSessionService) GetMessages(ctx context.Context, sessionID uuid.UUID, filter repositories.MessageFilter) ([]*entities.ChatMessage, error) {
	return nil, nil
}

func (f *fakeSessionService) CountMessages(ctx context.Context, sessionID uuid.UUID) (int64, error) {
	return 0, nil
}

func (f *fakeSessionService) EnsureSession(ctx context.Context, contactID, contactName string) (*entities.ChatSession, error) {
	return entities.NewChatSession(contactID, contactName, entities.PlatformUnknown), nil
}

func (f *fakeSessionService) IngestInbound(ctx context.Context, contactID, contactName string, payload datatypes.JSON) (*entities.ChatMessage, error) {
	f.ingested = append(f.ingested, contactID)
	f.lastPayload = payload
	if f.ingestErr != nil {
		return nil, f.ingestErr
	}
	return f.ingestResult, nil
}

type fakeSentimentService struct {
	analyzed   []uuid.UUID
	analyzeErr error
}

func (f *fakeSentimentService) AnalyzeMessage(ctx context.Context, messageID, sessionID uuid.UUID, content string) (*entities.SentimentAnalysis, error) {
	return nil, nil
}

func (f *fakeSentimentService) AnalyzeStoredMessage(ctx context.Context, messageID uuid.UUID) (*entities.SentimentAnalysis, error) {
	f.analyzed = append(f.analyzed, messageID)
	if f.analyzeErr != nil {
		return nil, f.analyzeErr
	}
	return &entities.SentimentAnalysis{ID: uuid.New(), MessageID: messageID}, nil
}

func (f *fakeSentimentService) GetStats(ctx context.Context, filter repositories.MessageFilter) (*repositories.SentimentStats, error) {
	return nil, nil
}

func (f *fakeSentimentService) ListSessionAnalyses(ctx context.Context, sessionID uuid.UUID) ([]*entities.SentimentAnalysis, error) {
	return nil, nil
}

func (f *fakeSentimentService) GetTodayUsage(ctx context.Context) (*sentiment.UsageReport, error) {
	return nil, nil
}

func newWebhookTestServer(sessions *fakeSessionService, sentiments *fakeSentimentService, secret string) *echo.Echo {
	e := echo.New()
	h := NewWebhook(sessions, sentiments, secret, zap.NewNop())
	e.POST("/v1/webhook/messages", h.HandleInboundMessage)
	return e
}

func signedDelivery(t *testing.T, secret string) (*bytes.Reader, string) {
	t.Helper()
	body, err := json.Marshal(map[string]interface{}{
		"contact_id":   "6281234567890@s.whatsapp.net",
		"contact_name": "Budi",
		"payload":      map[string]interface{}{"type": "text", "text": map[string]string{"body": "produknya bagus"}},
	})
	if err != nil {
		t.Fatalf("failed to marshal delivery: %v", err)
	}
	return bytes.NewReader(body), webhook.Sign(secret, body)
}

func TestHandleInboundMessage_StoresAndAnalyzes(t *testing.T) {
	message := entities.NewChatMessage(uuid.New(), entities.DirectionInbound, datatypes.JSON(`{}`))
	sessions := &fakeSessionService{ingestResult: message}
	sentiments := &fakeSentimentService{}
	e := newWebhookTestServer(sessions, sentiments, "bridge-secret")

	body, signature := signedDelivery(t, "bridge-secret")
	req := httptest.NewRequest(http.MethodPost, "/v1/webhook/messages", body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set(webhook.SignatureHeader, signature)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(sessions.ingested) != 1 || sessions.ingested[0] != "6281234567890@s.whatsapp.net" {
		t.Fatalf("expected one ingest for the contact, got %v", sessions.ingested)
	}
	if len(sentiments.analyzed) != 1 || sentiments.analyzed[0] != message.ID {
		t.Fatalf("expected inline analysis of the stored message, got %v", sentiments.analyzed)
	}

	var envCheck struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(sessions.lastPayload, &envCheck); err != nil || envCheck.Type != "text" {
		t.Errorf("stored payload should be the raw envelope, got %s", sessions.lastPayload)
	}

	var resp struct {
		Data struct {
			Analyzed bool `json:"analyzed"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.Data.Analyzed {
		t.Error("expected analyzed=true in the ack")
	}
}

func TestHandleInboundMessage_RejectsBadSignature(t *testing.T) {
	sessions := &fakeSessionService{}
	e := newWebhookTestServer(sessions, &fakeSentimentService{}, "bridge-secret")

	body, _ := signedDelivery(t, "bridge-secret")
	req := httptest.NewRequest(http.MethodPost, "/v1/webhook/messages", body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set(webhook.SignatureHeader, webhook.Sign("some-other-secret", []byte("x")))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(sessions.ingested) != 0 {
		t.Fatal("nothing must be stored for an unverified delivery")
	}
}

func TestHandleInboundMessage_MissingSignature(t *testing.T) {
	sessions := &fakeSessionService{}
	e := newWebhookTestServer(sessions, &fakeSentimentService{}, "bridge-secret")

	body, _ := signedDelivery(t, "bridge-secret")
	req := httptest.NewRequest(http.MethodPost, "/v1/webhook/messages", body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(sessions.ingested) != 0 {
		t.Fatal("nothing must be stored without a signature")
	}
}

func TestHandleInboundMessage_MissingContactID(t *testing.T) {
	sessions := &fakeSessionService{}
	e := newWebhookTestServer(sessions, &fakeSentimentService{}, "bridge-secret")

	body := []byte(`{"payload":{"type":"text","text":{"body":"halo"}}}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/webhook/messages", bytes.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set(webhook.SignatureHeader, webhook.Sign("bridge-secret", body))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHandleInboundMessage_AnalysisFailureStillAcks(t *testing.T) {
	message := entities.NewChatMessage(uuid.New(), entities.DirectionInbound, datatypes.JSON(`{}`))
	sessions := &fakeSessionService{ingestResult: message}
	sentiments := &fakeSentimentService{analyzeErr: entities.ErrEmptyMessage}
	e := newWebhookTestServer(sessions, sentiments, "bridge-secret")

	body, signature := signedDelivery(t, "bridge-secret")
	req := httptest.NewRequest(http.MethodPost, "/v1/webhook/messages", body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set(webhook.SignatureHeader, signature)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Data struct {
			Analyzed bool `json:"analyzed"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Data.Analyzed {
		t.Error("expected analyzed=false when the envelope has no text")
	}
}
