package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"github.com/yoockh/intake/internal/models"
	"github.com/yoockh/intake/internal/providers/analyzer"
	pgrepo "github.com/yoockh/intake/internal/repositories/postgres"
	"github.com/yoockh/intake/internal/storage"
	"github.com/yoockh/intake/internal/utils"
)

const (
	reasonParseFailed = "Failed to parse analysis"
	reasonCallFailed  = "Analysis service unavailable"
)

type AnalysisService interface {
	// Analyze never fails because of the analyzer itself: analyzer errors
	// produce a degraded result that is stored like any other.
	Analyze(ctx context.Context, sessionID string, testMode bool) (*models.Analysis, error)
	History(ctx context.Context, sessionID string, limit int) ([]models.AnalysisRecord, error)
}

type AnalysisOptions struct {
	AllowReanalysis bool
}

type analysisService struct {
	store     *Store
	artifacts storage.ArtifactStore
	analyzer  analyzer.Analyzer
	archive   pgrepo.AnalysisRepository // optional
	catalog   *models.Catalog
	opts      AnalysisOptions
	log       *logrus.Logger
	now       func() time.Time
}

func NewAnalysisService(
	store *Store,
	artifacts storage.ArtifactStore,
	a analyzer.Analyzer,
	archive pgrepo.AnalysisRepository,
	catalog *models.Catalog,
	opts AnalysisOptions,
	l *logrus.Logger,
) AnalysisService {
	return &analysisService{
		store:     store,
		artifacts: artifacts,
		analyzer:  a,
		archive:   archive,
		catalog:   catalog,
		opts:      opts,
		log:       l,
		now:       time.Now,
	}
}

func (s *analysisService) Analyze(ctx context.Context, sessionID string, testMode bool) (*models.Analysis, error) {
	const op = "AnalysisService.Analyze"

	unlock := s.store.lockAnalysis(sessionID)
	defer unlock()

	sess, err := s.store.load(ctx, op, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Status == models.StatusCompleted && !s.opts.AllowReanalysis {
		return nil, utils.E(utils.CodeConflict, op, "session already analyzed", nil)
	}

	relaxed := testMode || sess.TestMode
	required, err := CheckReady(sess, s.catalog, relaxed)
	if err != nil {
		return nil, err
	}

	transcripts := make(map[int]string, len(required))
	for _, id := range required {
		text := sess.Question(id).Text()
		if text == "" {
			text = models.NoSpeechPlaceholder
		}
		transcripts[id] = text
	}

	log := s.log.WithFields(logrus.Fields{
		"session_id": sessionID,
		"required":   required,
		"test_mode":  relaxed,
	})

	result, err := s.analyzer.Analyze(ctx, transcripts, s.catalog)
	if err != nil {
		reason := reasonCallFailed
		var re *analyzer.ResponseError
		if errors.As(err, &re) {
			reason = reasonParseFailed
		}
		log.WithError(err).WithField("code", utils.CodeAnalysisFailed).Error("analysis degraded")
		result = models.DegradedAnalysis(reason, analyzer.RawResponse(err), s.now())
	}
	if result.AnalyzedAt.IsZero() {
		result.AnalyzedAt = s.now().UTC()
	}

	// no pipeline step may hold an artifact while the session area is swept
	for _, id := range s.catalog.QuestionIDs() {
		release := s.store.lockQuestion(sessionID, id)
		defer release()
	}

	if _, err := s.store.update(ctx, op, sessionID, func(sess *models.Session) error {
		sess.Complete(result)
		for _, q := range sess.Questions {
			q.ReleaseArtifacts()
		}
		return nil
	}); err != nil {
		return nil, err
	}

	if err := s.artifacts.Purge(context.WithoutCancel(ctx), sessionID); err != nil {
		log.WithError(err).Warn("cleanup: failed to purge session artifacts")
	}

	log.WithFields(logrus.Fields{
		"degraded":   result.Degraded(),
		"categories": len(result.MatchedCategories),
	}).Info("session analyzed")

	s.archiveResult(ctx, log, sess, transcripts, result)
	return result, nil
}

func (s *analysisService) History(ctx context.Context, sessionID string, limit int) ([]models.AnalysisRecord, error) {
	const op = "AnalysisService.History"

	if _, err := s.store.load(ctx, op, sessionID); err != nil {
		return nil, err
	}
	if s.archive == nil {
		return []models.AnalysisRecord{}, nil
	}
	rows, err := s.archive.ListBySession(ctx, sessionID, limit)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list analyses", err)
	}
	return rows, nil
}

func (s *analysisService) archiveResult(ctx context.Context, log *logrus.Entry, sess *models.Session, transcripts map[int]string, a *models.Analysis) {
	if s.archive == nil {
		return
	}

	analysisJSON, err := json.Marshal(a)
	if err != nil {
		log.WithError(err).Warn("archive: marshal analysis")
		return
	}
	transcriptsJSON, err := json.Marshal(transcripts)
	if err != nil {
		log.WithError(err).Warn("archive: marshal transcripts")
		return
	}

	ids := make([]string, 0, len(a.MatchedCategories))
	for _, c := range a.MatchedCategories {
		ids = append(ids, c.CategoryID)
	}

	rec := &models.AnalysisRecord{
		ID:               uuid.NewString(),
		SessionID:        sess.SessionID,
		TestMode:         sess.TestMode,
		Degraded:         a.Degraded(),
		ClinicalNotes:    a.ClinicalNotes,
		PriorityConcerns: a.PriorityConcerns,
		CategoryIDs:      ids,
		Analysis:         datatypes.JSON(analysisJSON),
		Transcripts:      datatypes.JSON(transcriptsJSON),
		AnalyzedAt:       a.AnalyzedAt,
	}
	if err := s.archive.Insert(context.WithoutCancel(ctx), rec); err != nil {
		log.WithError(err).Warn("archive: failed to store analysis")
	}
}
