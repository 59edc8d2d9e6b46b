package calendar

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"testing"
	"time"

	"golang.org/x/oauth2"

	"github.com/chatdesk-team/chatdesk/internal/domain/entities"
	"github.com/chatdesk-team/chatdesk/internal/infrastructure/cache"
	"github.com/chatdesk-team/chatdesk/internal/infrastructure/external/google"
	"github.com/chatdesk-team/chatdesk/internal/infrastructure/external/oauth"
	"github.com/chatdesk-team/chatdesk/pkg/config"
)

type fakeSettingRepo struct {
	values map[string]string
}

func (f *fakeSettingRepo) Get(_ context.Context, key string) (*entities.AppSetting, error) {
	v, ok := f.values[key]
	if !ok {
		return nil, nil
	}
	return entities.NewAppSetting(key, v), nil
}

func (f *fakeSettingRepo) Set(_ context.Context, key, value string) error {
	if f.values == nil {
		f.values = make(map[string]string)
	}
	f.values[key] = value
	return nil
}

func (f *fakeSettingRepo) Delete(_ context.Context, key string) error {
	delete(f.values, key)
	return nil
}

type fakeEventsClient struct {
	events    []google.CalendarEvent
	returned  *oauth2.Token
	gotToken  *oauth2.Token
	callCount int
}

func (f *fakeEventsClient) ListEvents(_ context.Context, token *oauth2.Token, _, _ time.Time, _ int) ([]google.CalendarEvent, *oauth2.Token, error) {
	f.callCount++
	f.gotToken = token
	used := f.returned
	if used == nil {
		used = token
	}
	return f.events, used, nil
}

func newTestService(settings *fakeSettingRepo, client EventsClient) Service {
	provider := oauth.NewGoogleProvider(&config.GoogleOAuthConfig{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURL:  "http://localhost:8080/v1/calendar/callback",
	})
	states := oauth.NewStateManager(cache.NewMemoryStore())
	return NewService(provider, states, client, settings, nil, nil)
}

func seedToken(t *testing.T, settings *fakeSettingRepo, accessToken string) {
	t.Helper()
	raw, err := json.Marshal(&oauth2.Token{
		AccessToken:  accessToken,
		RefreshToken: "refresh-token",
		Expiry:       time.Now().Add(1 * time.Hour),
	})
	if err != nil {
		t.Fatalf("marshal token failed: %v", err)
	}
	if err := settings.Set(context.Background(), entities.SettingKeyGoogleCalendarToken, string(raw)); err != nil {
		t.Fatalf("seed token failed: %v", err)
	}
}

func TestAuthURL_CarriesFreshState(t *testing.T) {
	svc := newTestService(&fakeSettingRepo{}, &fakeEventsClient{})

	authURL, err := svc.AuthURL(context.Background())
	if err != nil {
		t.Fatalf("AuthURL failed: %v", err)
	}

	parsed, err := url.Parse(authURL)
	if err != nil {
		t.Fatalf("auth url does not parse: %v", err)
	}
	if parsed.Query().Get("state") == "" {
		t.Fatal("auth url is missing the state parameter")
	}
	if parsed.Query().Get("client_id") != "client-id" {
		t.Fatalf("unexpected client_id %q", parsed.Query().Get("client_id"))
	}
}

func TestAuthURL_NotConfigured(t *testing.T) {
	provider := oauth.NewGoogleProvider(&config.GoogleOAuthConfig{})
	states := oauth.NewStateManager(cache.NewMemoryStore())
	svc := NewService(provider, states, &fakeEventsClient{}, &fakeSettingRepo{}, nil, nil)

	if _, err := svc.AuthURL(context.Background()); !errors.Is(err, entities.ErrCalendarNotConfigured) {
		t.Fatalf("expected ErrCalendarNotConfigured, got %v", err)
	}
}

func TestHandleCallback_RejectsUnknownState(t *testing.T) {
	svc := newTestService(&fakeSettingRepo{}, &fakeEventsClient{})

	err := svc.HandleCallback(context.Background(), "not-a-state-we-issued", "some-code")
	if !errors.Is(err, entities.ErrOAuthStateMismatch) {
		t.Fatalf("expected ErrOAuthStateMismatch, got %v", err)
	}
}

func TestListEvents_NotLinked(t *testing.T) {
	svc := newTestService(&fakeSettingRepo{}, &fakeEventsClient{})

	_, err := svc.ListEvents(context.Background(), time.Now(), time.Now().Add(time.Hour), 10)
	if !errors.Is(err, entities.ErrCalendarNotLinked) {
		t.Fatalf("expected ErrCalendarNotLinked, got %v", err)
	}
}

func TestListEvents_UsesStoredTokenAndPersistsRotation(t *testing.T) {
	settings := &fakeSettingRepo{}
	seedToken(t, settings, "old-access-token")

	client := &fakeEventsClient{
		events: []google.CalendarEvent{{ID: "evt-1", Summary: "Standup"}},
		returned: &oauth2.Token{
			AccessToken:  "rotated-access-token",
			RefreshToken: "refresh-token",
			Expiry:       time.Now().Add(1 * time.Hour),
		},
	}
	svc := newTestService(settings, client)

	events, err := svc.ListEvents(context.Background(), time.Now(), time.Now().Add(time.Hour), 10)
	if err != nil {
		t.Fatalf("ListEvents failed: %v", err)
	}
	if len(events) != 1 || events[0].ID != "evt-1" {
		t.Fatalf("unexpected events: %+v", events)
	}
	if client.gotToken == nil || client.gotToken.AccessToken != "old-access-token" {
		t.Fatalf("client did not receive the stored token: %+v", client.gotToken)
	}

	stored, _ := settings.Get(context.Background(), entities.SettingKeyGoogleCalendarToken)
	var persisted oauth2.Token
	if err := json.Unmarshal([]byte(stored.Value), &persisted); err != nil {
		t.Fatalf("stored token does not decode: %v", err)
	}
	if persisted.AccessToken != "rotated-access-token" {
		t.Fatalf("rotated token was not persisted, got %q", persisted.AccessToken)
	}
}

func TestListEvents_CorruptStoredToken(t *testing.T) {
	settings := &fakeSettingRepo{}
	_ = settings.Set(context.Background(), entities.SettingKeyGoogleCalendarToken, "{not json")
	svc := newTestService(settings, &fakeEventsClient{})

	if _, err := svc.ListEvents(context.Background(), time.Now(), time.Now().Add(time.Hour), 10); err == nil {
		t.Fatal("expected an error for a corrupt stored token")
	}
}

func TestLinked(t *testing.T) {
	settings := &fakeSettingRepo{}
	svc := newTestService(settings, &fakeEventsClient{})

	linked, err := svc.Linked(context.Background())
	if err != nil {
		t.Fatalf("Linked failed: %v", err)
	}
	if linked {
		t.Fatal("expected not linked")
	}

	seedToken(t, settings, "access-token")
	linked, err = svc.Linked(context.Background())
	if err != nil {
		t.Fatalf("Linked failed: %v", err)
	}
	if !linked {
		t.Fatal("expected linked")
	}
}
