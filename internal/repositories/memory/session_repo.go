package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/yoockh/intake/internal/models"
	"github.com/yoockh/intake/internal/repositories"
	"github.com/yoockh/intake/internal/utils"
)

type sessionRepo struct {
	mu       sync.RWMutex
	sessions map[string]*models.Session
}

// NewSessionRepo returns a process-local store. Sessions are deep-copied on
// the way in and out, so callers never share a record.
func NewSessionRepo() repositories.SessionRepository {
	return &sessionRepo{sessions: make(map[string]*models.Session)}
}

func (r *sessionRepo) Get(_ context.Context, sessionID string) (*models.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[sessionID]
	if !ok {
		return nil, utils.ErrNotFound
	}
	return s.Clone(), nil
}

func (r *sessionRepo) Put(_ context.Context, s *models.Session) error {
	if s == nil || s.SessionID == "" {
		return errors.New("session with id is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions[s.SessionID] = s.Clone()
	return nil
}

func (r *sessionRepo) Delete(_ context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, sessionID)
	return nil
}
