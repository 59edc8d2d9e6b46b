package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/chatdesk-team/chatdesk/internal/domain/entities"
	"github.com/chatdesk-team/chatdesk/internal/domain/repositories"
)

type fakeSessionRepo struct {
	sessions       map[uuid.UUID]*entities.ChatSession
	platformWrites int
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[uuid.UUID]*entities.ChatSession)}
}

func (f *fakeSessionRepo) Create(_ context.Context, session *entities.ChatSession) error {
	for _, existing := range f.sessions {
		if existing.ContactID == session.ContactID {
			return errors.New("duplicate contact id")
		}
	}
	cp := *session
	f.sessions[session.ID] = &cp
	return nil
}

func (f *fakeSessionRepo) FindByID(_ context.Context, id uuid.UUID) (*entities.ChatSession, error) {
	session, ok := f.sessions[id]
	if !ok {
		return nil, nil
	}
	cp := *session
	return &cp, nil
}

func (f *fakeSessionRepo) FindByContactID(_ context.Context, contactID string) (*entities.ChatSession, error) {
	for _, session := range f.sessions {
		if session.ContactID == contactID {
			cp := *session
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeSessionRepo) List(_ context.Context, filters repositories.SessionFilters) ([]*entities.ChatSession, int64, error) {
	var out []*entities.ChatSession
	for _, session := range f.sessions {
		if filters.Platform != nil && session.Platform != *filters.Platform {
			continue
		}
		cp := *session
		out = append(out, &cp)
	}
	return out, int64(len(out)), nil
}

func (f *fakeSessionRepo) UpdatePlatform(_ context.Context, id uuid.UUID, platform entities.Platform) error {
	session, ok := f.sessions[id]
	if !ok {
		return errors.New("session not found")
	}
	session.Platform = platform
	f.platformWrites++
	return nil
}

func (f *fakeSessionRepo) TouchLastMessage(_ context.Context, id uuid.UUID, at time.Time) error {
	session, ok := f.sessions[id]
	if !ok {
		return errors.New("session not found")
	}
	session.LastMessageAt = &at
	return nil
}

type fakeMessageRepo struct {
	messages []*entities.ChatMessage
}

func (f *fakeMessageRepo) Create(_ context.Context, message *entities.ChatMessage) error {
	f.messages = append(f.messages, message)
	return nil
}

func (f *fakeMessageRepo) FindByID(_ context.Context, id uuid.UUID) (*entities.ChatMessage, error) {
	for _, m := range f.messages {
		if m.ID == id {
			return m, nil
		}
	}
	return nil, nil
}

func (f *fakeMessageRepo) List(_ context.Context, filter repositories.MessageFilter) ([]*entities.ChatMessage, error) {
	var out []*entities.ChatMessage
	for _, m := range f.messages {
		if filter.SessionID != nil && m.SessionID != *filter.SessionID {
			continue
		}
		if filter.Direction != nil && m.Direction != *filter.Direction {
			continue
		}
		out = append(out, m)
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
	}
	return out, nil
}

func (f *fakeMessageRepo) CountBySession(_ context.Context, sessionID uuid.UUID) (int64, error) {
	var n int64
	for _, m := range f.messages {
		if m.SessionID == sessionID {
			n++
		}
	}
	return n, nil
}
