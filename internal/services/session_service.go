package services

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yoockh/intake/internal/models"
	"github.com/yoockh/intake/internal/storage"
	"github.com/yoockh/intake/internal/utils"
)

type SessionService interface {
	Start(ctx context.Context, testMode bool) (*models.Session, error)
	Get(ctx context.Context, sessionID string) (*models.Session, error)
	State(ctx context.Context, sessionID string) (*SessionState, error)
	Summary(ctx context.Context, sessionID string) (*Summary, error)
	UploadVideo(ctx context.Context, sessionID string, questionID int, contentType string, r io.Reader) (*QuestionState, error)
}

type QuestionState struct {
	QuestionID  int  `json:"question_id"`
	Recorded    bool `json:"recorded"`
	Transcribed bool `json:"transcribed"`
}

type SessionState struct {
	SessionID string               `json:"session_id"`
	Status    models.SessionStatus `json:"status"`
	TestMode  bool                 `json:"test_mode"`
	Questions []QuestionState      `json:"questions"`
	Analysis  *models.Analysis     `json:"analysis"`
}

type QuestionSummary struct {
	QuestionID    int     `json:"question_id"`
	Title         string  `json:"title"`
	Text          string  `json:"text"`
	Transcription *string `json:"transcription"`
}

type Summary struct {
	SessionID string               `json:"session_id"`
	CreatedAt time.Time            `json:"created_at"`
	Status    models.SessionStatus `json:"status"`
	TestMode  bool                 `json:"test_mode"`
	Questions []QuestionSummary    `json:"questions"`
	Analysis  *models.Analysis     `json:"analysis"`
}

type sessionService struct {
	store     *Store
	artifacts storage.ArtifactStore
	catalog   *models.Catalog
	log       *logrus.Logger
	now       func() time.Time
}

func NewSessionService(store *Store, artifacts storage.ArtifactStore, catalog *models.Catalog, l *logrus.Logger) SessionService {
	return &sessionService{store: store, artifacts: artifacts, catalog: catalog, log: l, now: time.Now}
}

func (s *sessionService) Start(ctx context.Context, testMode bool) (*models.Session, error) {
	const op = "SessionService.Start"

	sess := models.NewSession(uuid.NewString(), s.now().UTC(), testMode, s.catalog.QuestionIDs())
	if err := s.store.create(ctx, op, sess); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"session_id": sess.SessionID,
		"test_mode":  testMode,
	}).Info("session started")
	return sess, nil
}

func (s *sessionService) Get(ctx context.Context, sessionID string) (*models.Session, error) {
	return s.store.load(ctx, "SessionService.Get", sessionID)
}

func (s *sessionService) State(ctx context.Context, sessionID string) (*SessionState, error) {
	sess, err := s.store.load(ctx, "SessionService.State", sessionID)
	if err != nil {
		return nil, err
	}

	out := &SessionState{
		SessionID: sess.SessionID,
		Status:    sess.Status,
		TestMode:  sess.TestMode,
		Questions: make([]QuestionState, 0, len(s.catalog.Questions)),
		Analysis:  sess.Analysis,
	}
	for _, q := range s.catalog.Questions {
		out.Questions = append(out.Questions, stateOf(q.ID, sess.Question(q.ID)))
	}
	return out, nil
}

func (s *sessionService) Summary(ctx context.Context, sessionID string) (*Summary, error) {
	sess, err := s.store.load(ctx, "SessionService.Summary", sessionID)
	if err != nil {
		return nil, err
	}

	out := &Summary{
		SessionID: sess.SessionID,
		CreatedAt: sess.CreatedAt,
		Status:    sess.Status,
		TestMode:  sess.TestMode,
		Questions: make([]QuestionSummary, 0, len(s.catalog.Questions)),
		Analysis:  sess.Analysis,
	}
	for _, q := range s.catalog.Questions {
		qs := QuestionSummary{QuestionID: q.ID, Title: q.Title, Text: q.Text}
		if rec := sess.Question(q.ID); rec != nil {
			qs.Transcription = rec.Transcription
		}
		out.Questions = append(out.Questions, qs)
	}
	return out, nil
}

func (s *sessionService) UploadVideo(ctx context.Context, sessionID string, questionID int, contentType string, r io.Reader) (*QuestionState, error) {
	const op = "SessionService.UploadVideo"

	sess, err := s.store.load(ctx, op, sessionID)
	if err != nil {
		return nil, err
	}
	if !s.catalog.HasQuestion(questionID) || sess.Question(questionID) == nil {
		return nil, utils.E(utils.CodeInvalidQuestionID, op, "invalid question_id", nil)
	}
	if r == nil {
		return nil, utils.E(utils.CodeInvalidArgument, op, "no video file provided", nil)
	}

	unlock := s.store.lockQuestion(sessionID, questionID)
	defer unlock()

	ref, err := s.artifacts.Save(ctx, sessionID, VideoName(questionID), contentType, r)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to store video", err)
	}

	var replaced string
	updated, err := s.store.update(ctx, op, sessionID, func(sess *models.Session) error {
		rec := sess.Question(questionID)
		if rec == nil {
			return utils.E(utils.CodeInvalidQuestionID, op, "invalid question_id", nil)
		}
		replaced = rec.RecordVideo(ref, s.now())
		return nil
	})
	if err != nil {
		return nil, err
	}

	log := s.log.WithFields(logrus.Fields{
		"session_id":  sessionID,
		"question_id": questionID,
		"video_ref":   ref,
	})
	if replaced != "" {
		if derr := s.artifacts.Delete(context.WithoutCancel(ctx), replaced); derr != nil {
			log.WithError(derr).WithField("replaced_ref", replaced).Warn("failed to delete replaced video")
		}
	}
	log.Info("video uploaded")

	st := stateOf(questionID, updated.Question(questionID))
	return &st, nil
}

// VideoName is the artifact name of the recording for a question.
func VideoName(questionID int) string {
	return fmt.Sprintf("q%d_video.webm", questionID)
}

func stateOf(id int, rec *models.QuestionRecord) QuestionState {
	st := QuestionState{QuestionID: id}
	if rec != nil {
		st.Recorded = rec.Recorded()
		st.Transcribed = rec.Transcribed()
	}
	return st
}
