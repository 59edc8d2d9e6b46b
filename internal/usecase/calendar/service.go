package calendar

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/chatdesk-team/chatdesk/internal/domain/entities"
	"github.com/chatdesk-team/chatdesk/internal/domain/repositories"
	"github.com/chatdesk-team/chatdesk/internal/infrastructure/cache"
	"github.com/chatdesk-team/chatdesk/internal/infrastructure/external/google"
	"github.com/chatdesk-team/chatdesk/internal/infrastructure/external/oauth"
)

const eventCacheTTL = 5 * time.Minute

// EventsClient is the slice of the Calendar API client this service needs.
type EventsClient interface {
	ListEvents(ctx context.Context, token *oauth2.Token, from, to time.Time, maxResults int) ([]google.CalendarEvent, *oauth2.Token, error)
}

// Service links a Google account to the dashboard and reads its calendar.
// The OAuth token lives in app settings; the JSON stored there is the
// durable token cache the oauth2 client refreshes against.
type Service interface {
	// AuthURL starts the consent flow with a fresh CSRF state token
	AuthURL(ctx context.Context) (string, error)

	// HandleCallback validates state, exchanges the code and stores the token
	HandleCallback(ctx context.Context, state, code string) error

	// Linked reports whether a calendar token is stored
	Linked(ctx context.Context) (bool, error)

	// ListEvents reads events from the linked calendar
	ListEvents(ctx context.Context, from, to time.Time, maxResults int) ([]google.CalendarEvent, error)
}

type service struct {
	provider    *oauth.GoogleProvider
	states      *oauth.StateManager
	client      EventsClient
	settingRepo repositories.SettingRepository
	cache       *cache.RedisCache
	logger      *zap.Logger
}

// NewService creates a new calendar service. cache may be nil; event
// caching is then skipped.
func NewService(
	provider *oauth.GoogleProvider,
	states *oauth.StateManager,
	client EventsClient,
	settingRepo repositories.SettingRepository,
	redisCache *cache.RedisCache,
	logger *zap.Logger,
) Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &service{
		provider:    provider,
		states:      states,
		client:      client,
		settingRepo: settingRepo,
		cache:       redisCache,
		logger:      logger,
	}
}

// AuthURL starts the consent flow with a fresh CSRF state token
func (s *service) AuthURL(ctx context.Context) (string, error) {
	if !s.provider.Configured() {
		return "", entities.ErrCalendarNotConfigured
	}

	state, err := s.states.GenerateState(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to generate oauth state: %w", err)
	}
	return s.provider.GetAuthURL(state), nil
}

// HandleCallback validates state, exchanges the code and stores the token
func (s *service) HandleCallback(ctx context.Context, state, code string) error {
	if !s.provider.Configured() {
		return entities.ErrCalendarNotConfigured
	}

	if !s.states.ValidateState(ctx, state) {
		return entities.ErrOAuthStateMismatch
	}

	token, err := s.provider.ExchangeCode(ctx, code)
	if err != nil {
		return fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	if err := s.storeToken(ctx, token); err != nil {
		return err
	}

	s.logger.Info("📅 Google Calendar linked")
	return nil
}

// Linked reports whether a calendar token is stored
func (s *service) Linked(ctx context.Context) (bool, error) {
	setting, err := s.settingRepo.Get(ctx, entities.SettingKeyGoogleCalendarToken)
	if err != nil {
		return false, fmt.Errorf("failed to load calendar token: %w", err)
	}
	return setting != nil && setting.Value != "", nil
}

// ListEvents reads events from the linked calendar
func (s *service) ListEvents(ctx context.Context, from, to time.Time, maxResults int) ([]google.CalendarEvent, error) {
	token, err := s.loadToken(ctx)
	if err != nil {
		return nil, err
	}

	cacheKey := s.eventCacheKey(from, to, maxResults)
	if s.cache != nil {
		var cached []google.CalendarEvent
		if err := s.cache.GetJSON(ctx, cacheKey, &cached); err == nil {
			return cached, nil
		}
	}

	events, used, err := s.client.ListEvents(ctx, token, from, to, maxResults)
	if err != nil {
		return nil, fmt.Errorf("failed to list calendar events: %w", err)
	}

	// The oauth2 client may have rotated the access token; keep the
	// stored copy current so the next call skips the refresh round trip.
	if used != nil && used.AccessToken != token.AccessToken {
		if err := s.storeToken(ctx, used); err != nil {
			s.logger.Warn("⚠️ Could not persist rotated calendar token", zap.Error(err))
		}
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, cacheKey, events, eventCacheTTL); err != nil {
			s.logger.Warn("⚠️ Could not cache calendar events", zap.Error(err))
		}
	}

	return events, nil
}

// eventCacheKey buckets the window by hour so repeated dashboard polls
// share an entry.
func (s *service) eventCacheKey(from, to time.Time, maxResults int) string {
	return fmt.Sprintf("calendar:events:%d:%d:%d",
		from.Truncate(time.Hour).Unix(),
		to.Truncate(time.Hour).Unix(),
		maxResults,
	)
}

func (s *service) loadToken(ctx context.Context) (*oauth2.Token, error) {
	setting, err := s.settingRepo.Get(ctx, entities.SettingKeyGoogleCalendarToken)
	if err != nil {
		return nil, fmt.Errorf("failed to load calendar token: %w", err)
	}
	if setting == nil || setting.Value == "" {
		return nil, entities.ErrCalendarNotLinked
	}

	var token oauth2.Token
	if err := json.Unmarshal([]byte(setting.Value), &token); err != nil {
		return nil, fmt.Errorf("stored calendar token is corrupt: %w", err)
	}
	return &token, nil
}

func (s *service) storeToken(ctx context.Context, token *oauth2.Token) error {
	raw, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("failed to encode calendar token: %w", err)
	}
	if err := s.settingRepo.Set(ctx, entities.SettingKeyGoogleCalendarToken, string(raw)); err != nil {
		return fmt.Errorf("failed to store calendar token: %w", err)
	}
	return nil
}
