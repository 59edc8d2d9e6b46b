package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/oauth2"

	"github.com/chatdesk-team/chatdesk/internal/infrastructure/external/oauth"
	"github.com/chatdesk-team/chatdesk/pkg/config"
)

func testToken() *oauth2.Token {
	return &oauth2.Token{
		AccessToken: "test-access-token",
		TokenType:   "Bearer",
		Expiry:      time.Now().Add(1 * time.Hour),
	}
}

func testProvider() *oauth.GoogleProvider {
	return oauth.NewGoogleProvider(&config.GoogleOAuthConfig{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURL:  "http://localhost:8080/v1/calendar/callback",
	})
}

func TestListEvents_ParsesTimedAndAllDayEvents(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/calendar/v3/calendars/primary/events" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("singleEvents"); got != "true" {
			t.Errorf("expected singleEvents=true, got %q", got)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-access-token" {
			t.Errorf("unexpected authorization header %q", auth)
		}

		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"items": []map[string]interface{}{
				{
					"id":      "evt-1",
					"summary": "Customer escalation review",
					"status":  "confirmed",
					"start":   map[string]string{"dateTime": "2026-08-24T09:30:00+07:00"},
					"end":     map[string]string{"dateTime": "2026-08-24T10:00:00+07:00"},
				},
				{
					"id":      "evt-2",
					"summary": "Team offsite",
					"status":  "confirmed",
					"start":   map[string]string{"date": "2026-08-25"},
					"end":     map[string]string{"date": "2026-08-26"},
				},
				{
					"id":      "evt-3",
					"summary": "Cancelled sync",
					"status":  "cancelled",
					"start":   map[string]string{"dateTime": "2026-08-24T11:00:00+07:00"},
					"end":     map[string]string{"dateTime": "2026-08-24T11:30:00+07:00"},
				},
			},
		})
	}))
	defer ts.Close()

	client := NewCalendarClient(testProvider(), nil)
	client.baseURL = ts.URL

	from := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 7)

	events, _, err := client.ListEvents(context.Background(), testToken(), from, to, 10)
	if err != nil {
		t.Fatalf("ListEvents failed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}

	if events[0].ID != "evt-1" || events[0].AllDay {
		t.Fatalf("unexpected first event: %+v", events[0])
	}
	if events[0].Start.IsZero() || events[0].End.Before(events[0].Start) {
		t.Fatalf("timed event has bad window: %+v", events[0])
	}

	if events[1].ID != "evt-2" || !events[1].AllDay {
		t.Fatalf("expected all-day second event: %+v", events[1])
	}
}

func TestListEvents_ClientErrorIsNotRetried(t *testing.T) {
	calls := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":{"message":"insufficient permissions"}}`))
	}))
	defer ts.Close()

	client := NewCalendarClient(testProvider(), nil)
	client.baseURL = ts.URL

	_, _, err := client.ListEvents(context.Background(), testToken(), time.Now(), time.Now().Add(time.Hour), 10)
	if err == nil {
		t.Fatal("expected an error")
	}
	if calls != 1 {
		t.Fatalf("4xx must not be retried, got %d calls", calls)
	}
}

func TestListEvents_RetriesServerErrors(t *testing.T) {
	calls := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]interface{}{"items": []interface{}{}})
	}))
	defer ts.Close()

	client := NewCalendarClient(testProvider(), nil)
	client.baseURL = ts.URL

	events, _, err := client.ListEvents(context.Background(), testToken(), time.Now(), time.Now().Add(time.Hour), 10)
	if err != nil {
		t.Fatalf("expected retry to recover, got %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
	if len(events) != 0 {
		t.Fatalf("expected no events, got %d", len(events))
	}
}

func TestListEvents_NilToken(t *testing.T) {
	client := NewCalendarClient(testProvider(), nil)
	if _, _, err := client.ListEvents(context.Background(), nil, time.Now(), time.Now(), 10); err == nil {
		t.Fatal("expected an error for nil token")
	}
}
