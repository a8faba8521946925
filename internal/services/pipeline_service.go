package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/yoockh/intake/internal/models"
	"github.com/yoockh/intake/internal/providers/extractor"
	"github.com/yoockh/intake/internal/providers/stt"
	"github.com/yoockh/intake/internal/storage"
	"github.com/yoockh/intake/internal/utils"
)

type PipelineService interface {
	Transcribe(ctx context.Context, sessionID string, questionID int) (*TranscriptionResult, error)
	TranscribeAll(ctx context.Context, sessionID string) (*BatchResult, error)
}

type TranscriptionResult struct {
	QuestionID    int    `json:"question_id"`
	Transcription string `json:"transcription"`
}

type BatchResult struct {
	Success        bool           `json:"success"`
	Transcriptions map[int]string `json:"transcriptions"`
	Errors         []string       `json:"errors"`
	// already transcribed and nothing new to process
	Skipped []int `json:"skipped,omitempty"`
}

type PipelineOptions struct {
	// KeepAudio leaves extracted audio in storage after a transcription
	// attempt. The record's audio_ref is cleared either way.
	KeepAudio   bool
	Concurrency int
}

type pipelineService struct {
	store       *Store
	artifacts   storage.ArtifactStore
	extractor   extractor.Extractor
	transcriber stt.Transcriber
	catalog     *models.Catalog
	opts        PipelineOptions
	log         *logrus.Logger
	now         func() time.Time
}

func NewPipelineService(
	store *Store,
	artifacts storage.ArtifactStore,
	ex extractor.Extractor,
	tr stt.Transcriber,
	catalog *models.Catalog,
	opts PipelineOptions,
	l *logrus.Logger,
) PipelineService {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	return &pipelineService{
		store:       store,
		artifacts:   artifacts,
		extractor:   ex,
		transcriber: tr,
		catalog:     catalog,
		opts:        opts,
		log:         l,
		now:         time.Now,
	}
}

func (s *pipelineService) Transcribe(ctx context.Context, sessionID string, questionID int) (*TranscriptionResult, error) {
	const op = "PipelineService.Transcribe"

	sess, err := s.store.load(ctx, op, sessionID)
	if err != nil {
		return nil, err
	}
	if !s.catalog.HasQuestion(questionID) || sess.Question(questionID) == nil {
		return nil, utils.E(utils.CodeInvalidQuestionID, op, "invalid question_id", nil)
	}

	unlock := s.store.lockQuestion(sessionID, questionID)
	defer unlock()

	return s.run(ctx, op, sessionID, questionID)
}

func (s *pipelineService) TranscribeAll(ctx context.Context, sessionID string) (*BatchResult, error) {
	const op = "PipelineService.TranscribeAll"

	if _, err := s.store.load(ctx, op, sessionID); err != nil {
		return nil, err
	}

	ids := s.catalog.QuestionIDs()
	outcomes := make([]error, len(ids))
	texts := make([]*string, len(ids))

	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(s.opts.Concurrency)

	for i, qid := range ids {
		g.Go(func() error {
			unlock := s.store.lockQuestion(sessionID, qid)
			defer unlock()

			res, err := s.run(ctx, op, sessionID, qid)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				outcomes[i] = err
				return nil
			}
			texts[i] = &res.Transcription
			return nil
		})
	}
	_ = g.Wait()

	out := &BatchResult{Transcriptions: map[int]string{}, Errors: []string{}}
	for i, qid := range ids {
		switch err := outcomes[i]; {
		case err == nil:
			out.Transcriptions[qid] = *texts[i]
		case utils.IsCode(err, utils.CodeNoVideoRecorded) && s.alreadyTranscribed(ctx, sessionID, qid):
			out.Skipped = append(out.Skipped, qid)
		default:
			out.Errors = append(out.Errors, fmt.Sprintf("Question %d: %s", qid, detail(err)))
		}
	}
	out.Success = len(out.Errors) == 0
	return out, nil
}

// run drives one question through extract -> transcribe. The caller holds
// the question lock.
func (s *pipelineService) run(ctx context.Context, op, sessionID string, questionID int) (*TranscriptionResult, error) {
	sess, err := s.store.load(ctx, op, sessionID)
	if err != nil {
		return nil, err
	}
	rec := sess.Question(questionID)
	if rec == nil {
		return nil, utils.E(utils.CodeInvalidQuestionID, op, "invalid question_id", nil)
	}
	if !rec.HasVideo() {
		return nil, utils.E(utils.CodeNoVideoRecorded, op, "no video recorded for this question", nil)
	}

	log := s.log.WithFields(logrus.Fields{
		"session_id":  sessionID,
		"question_id": questionID,
	})

	videoRef := rec.VideoRef
	var audioRef string
	defer func() { s.tryCleanup(ctx, log, sessionID, questionID, videoRef, audioRef) }()

	audioRef, err = s.extractor.Extract(ctx, videoRef)
	if err != nil {
		log.WithError(err).Error("audio extraction failed")
		return nil, utils.E(utils.CodeExtractionFailed, op, "audio extraction failed", err)
	}

	if _, err := s.store.update(ctx, op, sessionID, func(sess *models.Session) error {
		sess.Question(questionID).AudioRef = audioRef
		return nil
	}); err != nil {
		log.WithError(err).Warn("failed to record audio ref")
	}

	text, err := s.transcriber.Transcribe(ctx, audioRef)
	if err != nil {
		log.WithError(err).Error("transcription failed")
		return nil, utils.E(utils.CodeTranscriptionFailed, op, "transcription failed", err)
	}

	at := s.now()
	if _, err := s.store.update(ctx, op, sessionID, func(sess *models.Session) error {
		q := sess.Question(questionID)
		q.CompleteTranscription(text, at)
		q.ReleaseArtifacts()
		return nil
	}); err != nil {
		return nil, err
	}

	log.WithField("chars", len(text)).Info("question transcribed")
	return &TranscriptionResult{QuestionID: questionID, Transcription: text}, nil
}

// tryCleanup removes the attempt's artifacts and clears their refs. Failures
// are logged and never returned.
func (s *pipelineService) tryCleanup(ctx context.Context, log *logrus.Entry, sessionID string, questionID int, videoRef, audioRef string) {
	ctx = context.WithoutCancel(ctx)

	if err := s.artifacts.Delete(ctx, videoRef); err != nil {
		log.WithError(err).WithField("ref", videoRef).Warn("cleanup: failed to delete video")
	}
	if audioRef != "" && !s.opts.KeepAudio {
		if err := s.artifacts.Delete(ctx, audioRef); err != nil {
			log.WithError(err).WithField("ref", audioRef).Warn("cleanup: failed to delete audio")
		}
	}

	_, err := s.store.update(ctx, "PipelineService.cleanup", sessionID, func(sess *models.Session) error {
		q := sess.Question(questionID)
		if q == nil || (q.VideoRef == "" && q.AudioRef == "") {
			return errUnchanged
		}
		q.ReleaseArtifacts()
		return nil
	})
	if err != nil {
		log.WithError(err).Warn("cleanup: failed to clear artifact refs")
	}
}

func (s *pipelineService) alreadyTranscribed(ctx context.Context, sessionID string, questionID int) bool {
	sess, err := s.store.load(ctx, "PipelineService.TranscribeAll", sessionID)
	if err != nil {
		return false
	}
	rec := sess.Question(questionID)
	return rec != nil && rec.Transcribed()
}

func detail(err error) string {
	var ae *utils.AppError
	if errors.As(err, &ae) {
		return ae.Detail()
	}
	return err.Error()
}
