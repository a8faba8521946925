package repositories

import (
	"context"

	"github.com/yoockh/intake/internal/models"
)

// SessionRepository is the key-value session store. Get returns a copy the
// caller may mutate; changes become visible to others only through Put.
// Get returns utils.ErrNotFound for unknown ids.
type SessionRepository interface {
	Get(ctx context.Context, sessionID string) (*models.Session, error)
	Put(ctx context.Context, s *models.Session) error
	Delete(ctx context.Context, sessionID string) error
}
