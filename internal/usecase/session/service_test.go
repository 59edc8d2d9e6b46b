package session

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/chatdesk-team/chatdesk/internal/domain/entities"
	"github.com/chatdesk-team/chatdesk/internal/domain/repositories"
)

func TestGetSession_BackfillsEmptyPlatform(t *testing.T) {
	repo := newFakeSessionRepo()
	svc := NewSessionService(repo, &fakeMessageRepo{}, nil)

	seeded := entities.NewChatSession("17841405822304914", "Ayu", "")
	if err := repo.Create(context.Background(), seeded); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	got, err := svc.GetSession(context.Background(), seeded.ID)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if got.Platform != entities.PlatformInstagram {
		t.Fatalf("expected instagram, got %s", got.Platform)
	}

	// The annotation must be written back, not just returned.
	stored, _ := repo.FindByID(context.Background(), seeded.ID)
	if stored.Platform != entities.PlatformInstagram {
		t.Fatalf("platform not persisted, stored %q", stored.Platform)
	}
	if repo.platformWrites != 1 {
		t.Fatalf("expected 1 platform write, got %d", repo.platformWrites)
	}
}

func TestGetSession_KnownPlatformNotRewritten(t *testing.T) {
	repo := newFakeSessionRepo()
	svc := NewSessionService(repo, &fakeMessageRepo{}, nil)

	seeded := entities.NewChatSession("6281234567890", "Budi", entities.PlatformWhatsApp)
	if err := repo.Create(context.Background(), seeded); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	if _, err := svc.GetSession(context.Background(), seeded.ID); err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if repo.platformWrites != 0 {
		t.Fatalf("expected no platform writes, got %d", repo.platformWrites)
	}
}

func TestGetSession_NotFound(t *testing.T) {
	svc := NewSessionService(newFakeSessionRepo(), &fakeMessageRepo{}, nil)

	_, err := svc.GetSession(context.Background(), uuid.New())
	if !errors.Is(err, entities.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestEnsureSession_CreatesThenReuses(t *testing.T) {
	repo := newFakeSessionRepo()
	svc := NewSessionService(repo, &fakeMessageRepo{}, nil)

	first, err := svc.EnsureSession(context.Background(), "6281234567890@s.whatsapp.net", "Budi")
	if err != nil {
		t.Fatalf("EnsureSession failed: %v", err)
	}
	if first.Platform != entities.PlatformWhatsApp {
		t.Fatalf("expected whatsapp, got %s", first.Platform)
	}

	second, err := svc.EnsureSession(context.Background(), "6281234567890@s.whatsapp.net", "Budi")
	if err != nil {
		t.Fatalf("second EnsureSession failed: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected the same session, got %s and %s", first.ID, second.ID)
	}
	if len(repo.sessions) != 1 {
		t.Fatalf("expected 1 session, got %d", len(repo.sessions))
	}
}

func TestGetMessages(t *testing.T) {
	sessionRepo := newFakeSessionRepo()
	messageRepo := &fakeMessageRepo{}
	svc := NewSessionService(sessionRepo, messageRepo, nil)

	sess := entities.NewChatSession("6281234567890", "Budi", entities.PlatformWhatsApp)
	if err := sessionRepo.Create(context.Background(), sess); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	other := uuid.New()
	for _, sid := range []uuid.UUID{sess.ID, sess.ID, other} {
		payload, err := entities.NewTextEnvelope("halo").Encode()
		if err != nil {
			t.Fatalf("encode failed: %v", err)
		}
		messageRepo.messages = append(messageRepo.messages, entities.NewChatMessage(sid, entities.DirectionInbound, payload))
	}

	messages, err := svc.GetMessages(context.Background(), sess.ID, repositories.MessageFilter{})
	if err != nil {
		t.Fatalf("GetMessages failed: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(messages))
	}

	_, err = svc.GetMessages(context.Background(), uuid.New(), repositories.MessageFilter{})
	if !errors.Is(err, entities.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestCountMessages(t *testing.T) {
	sessionRepo := newFakeSessionRepo()
	messageRepo := &fakeMessageRepo{}
	svc := NewSessionService(sessionRepo, messageRepo, nil)

	sess := entities.NewChatSession("6281234567890", "Budi", entities.PlatformWhatsApp)
	if err := sessionRepo.Create(context.Background(), sess); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	other := uuid.New()
	for _, sid := range []uuid.UUID{sess.ID, sess.ID, sess.ID, other} {
		payload, err := entities.NewTextEnvelope("halo").Encode()
		if err != nil {
			t.Fatalf("encode failed: %v", err)
		}
		messageRepo.messages = append(messageRepo.messages, entities.NewChatMessage(sid, entities.DirectionInbound, payload))
	}

	count, err := svc.CountMessages(context.Background(), sess.ID)
	if err != nil {
		t.Fatalf("CountMessages failed: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 messages, got %d", count)
	}
}
