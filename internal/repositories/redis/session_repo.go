package redis

import (
	"context"
	"errors"
	"time"

	"github.com/yoockh/intake/internal/cache"
	"github.com/yoockh/intake/internal/models"
	"github.com/yoockh/intake/internal/repositories"
	"github.com/yoockh/intake/internal/utils"
)

const keyPrefix = "session:"

type sessionRepo struct {
	c   cache.Cache
	ttl time.Duration
}

// NewSessionRepo stores sessions as JSON documents. ttl <= 0 keeps them
// until deleted.
func NewSessionRepo(c cache.Cache, ttl time.Duration) repositories.SessionRepository {
	if ttl < 0 {
		ttl = 0
	}
	return &sessionRepo{c: c, ttl: ttl}
}

func (r *sessionRepo) Get(ctx context.Context, sessionID string) (*models.Session, error) {
	var s models.Session
	hit, err := r.c.GetJSON(ctx, keyPrefix+sessionID, &s)
	if err != nil {
		return nil, err
	}
	if !hit {
		return nil, utils.ErrNotFound
	}
	return &s, nil
}

func (r *sessionRepo) Put(ctx context.Context, s *models.Session) error {
	if s == nil || s.SessionID == "" {
		return errors.New("session with id is required")
	}
	return r.c.SetJSON(ctx, keyPrefix+s.SessionID, s, r.ttl)
}

func (r *sessionRepo) Delete(ctx context.Context, sessionID string) error {
	return r.c.Del(ctx, keyPrefix+sessionID)
}
