package oauth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/chatdesk-team/chatdesk/internal/infrastructure/cache"
)

// Store persists one-time OAuth state tokens
type Store interface {
	Set(ctx context.Context, key, value string, expiration time.Duration) error
	// Take retrieves and removes a key in one step
	Take(ctx context.Context, key string) (string, bool)
}

// redisStore backs the state store with redis so callbacks can land on
// any instance
type redisStore struct {
	cache *cache.RedisCache
}

// NewRedisStore wraps the shared redis cache as a state store
func NewRedisStore(redisCache *cache.RedisCache) Store {
	return &redisStore{cache: redisCache}
}

func (s *redisStore) Set(ctx context.Context, key, value string, expiration time.Duration) error {
	return s.cache.Set(ctx, key, value, expiration)
}

func (s *redisStore) Take(ctx context.Context, key string) (string, bool) {
	value, err := s.cache.GetDel(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrNotFound) {
			return "", false
		}
		return "", false
	}
	return value, true
}

// StateManager manages OAuth state tokens for CSRF protection
type StateManager struct {
	store      Store
	expiration time.Duration
}

// NewStateManager creates a new state manager
func NewStateManager(store Store) *StateManager {
	return &StateManager{
		store:      store,
		expiration: 15 * time.Minute, // State expires in 15 minutes
	}
}

// GenerateState generates a random state token and stores it
func (sm *StateManager) GenerateState(ctx context.Context) (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	state := base64.URLEncoding.EncodeToString(b)

	key := fmt.Sprintf("oauth:state:%s", state)
	if err := sm.store.Set(ctx, key, "valid", sm.expiration); err != nil {
		return "", fmt.Errorf("failed to store state: %w", err)
	}

	return state, nil
}

// ValidateState validates a state token (one-time use)
func (sm *StateManager) ValidateState(ctx context.Context, state string) bool {
	key := fmt.Sprintf("oauth:state:%s", state)

	value, exists := sm.store.Take(ctx, key)
	return exists && value == "valid"
}
