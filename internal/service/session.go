package service

import (
	"context"
	"fmt"

	"github.com/avelsk/tutor-gateway/internal/domain"
	"github.com/avelsk/tutor-gateway/internal/repository/redis"
	"github.com/rs/zerolog/log"
)

// SessionAPI is the slice of the backend client the session service
// depends on.
type SessionAPI interface {
	CreateSession(ctx context.Context, token string, input domain.SessionCreate) (*domain.ChatSession, error)
	ListSessions(ctx context.Context, token string, limit, offset int) (*domain.SessionList, error)
	GetSession(ctx context.Context, token, id string) (*domain.SessionDetail, error)
	UpdateSession(ctx context.Context, token, id string, input domain.SessionUpdate) (*domain.ChatSession, error)
	DeleteSession(ctx context.Context, token, id string) error
}

// SessionService fronts the backend's session API with a read-through
// detail cache. The cache is optional; a nil cache degrades to direct
// backend calls.
type SessionService struct {
	backend SessionAPI
	cache   *redis.SessionCache
}

// NewSessionService creates a new session service
func NewSessionService(api SessionAPI, cache *redis.SessionCache) *SessionService {
	return &SessionService{backend: api, cache: cache}
}

// Create creates a session on the backend
func (s *SessionService) Create(ctx context.Context, token string, input domain.SessionCreate) (*domain.ChatSession, error) {
	session, err := s.backend.CreateSession(ctx, token, input)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return session, nil
}

// List returns the caller's sessions
func (s *SessionService) List(ctx context.Context, token string, limit, offset int) (*domain.SessionList, error) {
	list, err := s.backend.ListSessions(ctx, token, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return list, nil
}

// Get returns one session with history, read through the cache
func (s *SessionService) Get(ctx context.Context, token, id string) (*domain.SessionDetail, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, id)
		if err != nil {
			log.Warn().Err(err).Str("session_id", id).Msg("Session cache read failed")
		}
		if cached != nil {
			return cached, nil
		}
	}

	detail, err := s.backend.GetSession(ctx, token, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, detail); err != nil {
			log.Warn().Err(err).Str("session_id", id).Msg("Session cache write failed")
		}
	}

	return detail, nil
}

// Update updates a session and invalidates its cached detail
func (s *SessionService) Update(ctx context.Context, token, id string, input domain.SessionUpdate) (*domain.ChatSession, error) {
	session, err := s.backend.UpdateSession(ctx, token, id, input)
	if err != nil {
		return nil, fmt.Errorf("failed to update session: %w", err)
	}
	s.invalidate(ctx, id)
	return session, nil
}

// Delete deletes a session and invalidates its cached detail
func (s *SessionService) Delete(ctx context.Context, token, id string) error {
	if err := s.backend.DeleteSession(ctx, token, id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	s.invalidate(ctx, id)
	return nil
}

// Invalidate drops a session's cached detail. The chat handler calls
// this after a stream completes so the next history read sees the new
// messages.
func (s *SessionService) Invalidate(ctx context.Context, id string) {
	s.invalidate(ctx, id)
}

func (s *SessionService) invalidate(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, id); err != nil {
		log.Warn().Err(err).Str("session_id", id).Msg("Session cache invalidation failed")
	}
}
