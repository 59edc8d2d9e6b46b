package google

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/chatdesk-team/chatdesk/internal/infrastructure/external/oauth"
)

const defaultBaseURL = "https://www.googleapis.com"

// CalendarEvent is one entry from the linked staff calendar, flattened
// from the Calendar API shape into what the dashboard renders.
type CalendarEvent struct {
	ID          string    `json:"id"`
	Summary     string    `json:"summary"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	Status      string    `json:"status"`
	HTMLLink    string    `json:"html_link,omitempty"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	AllDay      bool      `json:"all_day"`
}

// CalendarClient reads events from the Google Calendar REST API using
// tokens obtained through the OAuth provider.
type CalendarClient struct {
	provider *oauth.GoogleProvider
	baseURL  string
	logger   *zap.Logger
}

func NewCalendarClient(provider *oauth.GoogleProvider, logger *zap.Logger) *CalendarClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CalendarClient{
		provider: provider,
		baseURL:  defaultBaseURL,
		logger:   logger,
	}
}

// eventTime mirrors the API's start/end object: timed events carry
// dateTime (RFC3339), all-day events carry date (YYYY-MM-DD).
type eventTime struct {
	DateTime string `json:"dateTime"`
	Date     string `json:"date"`
}

func (t eventTime) resolve() (time.Time, bool, error) {
	if t.DateTime != "" {
		ts, err := time.Parse(time.RFC3339, t.DateTime)
		return ts, false, err
	}
	if t.Date != "" {
		ts, err := time.Parse("2006-01-02", t.Date)
		return ts, true, err
	}
	return time.Time{}, false, nil
}

type calendarEventItem struct {
	ID          string    `json:"id"`
	Summary     string    `json:"summary"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	Status      string    `json:"status"`
	HTMLLink    string    `json:"htmlLink"`
	Start       eventTime `json:"start"`
	End         eventTime `json:"end"`
}

type eventsResponse struct {
	Items []calendarEventItem `json:"items"`
}

// ListEvents fetches events from the primary calendar between from and to.
// The oauth2 client refreshes the access token transparently; the token
// actually used is returned so the caller can persist a rotated one.
func (c *CalendarClient) ListEvents(ctx context.Context, token *oauth2.Token, from, to time.Time, maxResults int) ([]CalendarEvent, *oauth2.Token, error) {
	if token == nil {
		return nil, nil, fmt.Errorf("calendar token cannot be nil")
	}
	if maxResults <= 0 {
		maxResults = 50
	}

	ts := c.provider.TokenSource(ctx, token)
	httpClient := oauth2.NewClient(ctx, ts)
	httpClient.Timeout = 15 * time.Second

	params := url.Values{}
	params.Set("timeMin", from.UTC().Format(time.RFC3339))
	params.Set("timeMax", to.UTC().Format(time.RFC3339))
	params.Set("singleEvents", "true")
	params.Set("orderBy", "startTime")
	params.Set("maxResults", strconv.Itoa(maxResults))
	endpoint := fmt.Sprintf("%s/calendar/v3/calendars/primary/events?%s", c.baseURL, params.Encode())

	var events []CalendarEvent
	fetch := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to create calendar request: %w", err))
		}

		resp, err := httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("calendar request failed: %w", err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to read calendar response: %w", err)
		}

		if resp.StatusCode >= 500 {
			return fmt.Errorf("calendar API returned %d: %s", resp.StatusCode, string(body))
		}
		if resp.StatusCode != http.StatusOK {
			return backoff.Permanent(fmt.Errorf("calendar API returned %d: %s", resp.StatusCode, string(body)))
		}

		var parsed eventsResponse
		if err := json.Unmarshal(body, &parsed); err != nil {
			return backoff.Permanent(fmt.Errorf("failed to parse calendar response: %w", err))
		}

		events = events[:0]
		for _, item := range parsed.Items {
			// singleEvents=true still surfaces cancelled exceptions of
			// recurring events.
			if item.Status == "cancelled" {
				continue
			}

			start, allDay, err := item.Start.resolve()
			if err != nil {
				c.logger.Warn("⚠️ Skipping calendar event with bad start time",
					zap.String("event_id", item.ID),
					zap.Error(err),
				)
				continue
			}
			end, _, err := item.End.resolve()
			if err != nil {
				end = start
			}

			events = append(events, CalendarEvent{
				ID:          item.ID,
				Summary:     item.Summary,
				Description: item.Description,
				Location:    item.Location,
				Status:      item.Status,
				HTMLLink:    item.HTMLLink,
				Start:       start,
				End:         end,
				AllDay:      allDay,
			})
		}
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 1 * time.Second
	bo.MaxInterval = 5 * time.Second

	if err := backoff.Retry(fetch, backoff.WithContext(backoff.WithMaxRetries(bo, 3), ctx)); err != nil {
		return nil, nil, err
	}

	// The token source may have rotated the access token during the call.
	refreshed, err := ts.Token()
	if err != nil {
		c.logger.Warn("⚠️ Could not read refreshed calendar token", zap.Error(err))
		return events, token, nil
	}
	return events, refreshed, nil
}
