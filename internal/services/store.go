package services

import (
	"context"
	"errors"
	"strconv"

	"github.com/yoockh/intake/internal/models"
	"github.com/yoockh/intake/internal/repositories"
	"github.com/yoockh/intake/internal/utils"
)

// errUnchanged lets an update callback skip the write.
var errUnchanged = errors.New("unchanged")

// Store serializes access to sessions held in a SessionRepository.
//
// Question locks keep one pipeline step per (session, question). The session
// lock only covers the short load-mutate-put commit, so slow external calls
// on different questions of the same session never block each other.
type Store struct {
	repo repositories.SessionRepository

	sessions  *keyedMutex
	questions *keyedMutex
	analyses  *keyedMutex
}

func NewStore(repo repositories.SessionRepository) *Store {
	return &Store{
		repo:      repo,
		sessions:  newKeyedMutex(),
		questions: newKeyedMutex(),
		analyses:  newKeyedMutex(),
	}
}

func (s *Store) load(ctx context.Context, op, sessionID string) (*models.Session, error) {
	if sessionID == "" {
		return nil, utils.E(utils.CodeNoActiveSession, op, "no active session", nil)
	}
	sess, err := s.repo.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNoActiveSession, op, "no active session", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to load session", err)
	}
	return sess, nil
}

func (s *Store) create(ctx context.Context, op string, sess *models.Session) error {
	if err := s.repo.Put(ctx, sess); err != nil {
		return utils.E(utils.CodeInternal, op, "failed to save session", err)
	}
	return nil
}

// update applies fn to the latest copy of the session and writes it back.
func (s *Store) update(ctx context.Context, op, sessionID string, fn func(*models.Session) error) (*models.Session, error) {
	unlock := s.sessions.Lock(sessionID)
	defer unlock()

	sess, err := s.load(ctx, op, sessionID)
	if err != nil {
		return nil, err
	}
	if err := fn(sess); err != nil {
		if errors.Is(err, errUnchanged) {
			return sess, nil
		}
		return nil, err
	}
	if err := s.repo.Put(ctx, sess); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to save session", err)
	}
	return sess, nil
}

func (s *Store) lockQuestion(sessionID string, questionID int) func() {
	return s.questions.Lock(sessionID + "#" + strconv.Itoa(questionID))
}

func (s *Store) lockAnalysis(sessionID string) func() {
	return s.analyses.Lock(sessionID)
}
