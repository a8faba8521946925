package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yoockh/intake/internal/logger"
	"github.com/yoockh/intake/internal/models"
	"github.com/yoockh/intake/internal/providers/extractor"
	"github.com/yoockh/intake/internal/repositories"
	"github.com/yoockh/intake/internal/repositories/memory"
	"github.com/yoockh/intake/internal/storage"
)

func testCatalog() *models.Catalog {
	return &models.Catalog{
		ClinicName: "Test Clinic",
		Questions: []models.Question{
			{ID: 1, Title: "Main Concerns", Text: "What bothers you most?"},
			{ID: 2, Title: "Timeline", Text: "How long has this been going on?"},
			{ID: 3, Title: "Daily Impact", Text: "How does it affect your day?"},
		},
		Categories: []models.SymptomCategory{
			{ID: "energy_crash", Name: "Low Energy", Description: "Running out of energy."},
			{ID: "orthostatic_intolerance", Name: "Dizziness", Description: "Dizzy when standing."},
		},
	}
}

// fakeExtractor stores a small audio artifact per video, or fails for refs
// listed in fail.
type fakeExtractor struct {
	store storage.ArtifactStore

	mu    sync.Mutex
	fail  map[string]error
	calls []string
	block chan struct{}
}

func (f *fakeExtractor) Extract(ctx context.Context, videoRef string) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, videoRef)
	err := f.fail[videoRef]
	block := f.block
	f.mu.Unlock()

	if block != nil {
		<-block
	}
	if err != nil {
		return "", err
	}
	sid, name, ok := storage.SplitRef(videoRef)
	if !ok {
		return "", storage.ErrInvalidRef
	}
	return f.store.Save(ctx, sid, extractor.AudioName(name), "audio/wav", strings.NewReader("pcm"))
}

func (f *fakeExtractor) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// fakeTranscriber answers with text keyed by audio artifact name.
type fakeTranscriber struct {
	mu    sync.Mutex
	texts map[string]string
	errs  map[string]error
	def   string
}

func (f *fakeTranscriber) Transcribe(_ context.Context, audioRef string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, name, _ := storage.SplitRef(audioRef)
	if err := f.errs[name]; err != nil {
		return "", err
	}
	if t, ok := f.texts[name]; ok {
		return t, nil
	}
	return f.def, nil
}

type fakeAnalyzer struct {
	mu     sync.Mutex
	calls  []map[int]string
	result *models.Analysis
	err    error
}

func (f *fakeAnalyzer) Analyze(_ context.Context, transcripts map[int]string, _ *models.Catalog) (*models.Analysis, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := make(map[int]string, len(transcripts))
	for k, v := range transcripts {
		cp[k] = v
	}
	f.calls = append(f.calls, cp)
	if f.err != nil {
		return nil, f.err
	}
	return f.result.Clone(), nil
}

func (f *fakeAnalyzer) Calls() []map[int]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeArchive struct {
	mu   sync.Mutex
	rows []models.AnalysisRecord
}

func (f *fakeArchive) Insert(_ context.Context, rec *models.AnalysisRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows = append(f.rows, *rec)
	return nil
}

func (f *fakeArchive) ListBySession(_ context.Context, sessionID string, _ int) ([]models.AnalysisRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.AnalysisRecord
	for _, r := range f.rows {
		if r.SessionID == sessionID {
			out = append(out, r)
		}
	}
	return out, nil
}

// flakyStore fails every Delete and Purge.
type flakyStore struct {
	storage.ArtifactStore
}

func (flakyStore) Delete(context.Context, string) error { return errors.New("disk on fire") }
func (flakyStore) Purge(context.Context, string) error  { return errors.New("disk on fire") }

type harness struct {
	t         *testing.T
	repo      repositories.SessionRepository
	artifacts *storage.LocalStore
	root      string
	catalog   *models.Catalog

	extractor   *fakeExtractor
	transcriber *fakeTranscriber
	analyzer    *fakeAnalyzer
	archive     *fakeArchive

	sessions SessionService
	pipeline PipelineService
	analysis AnalysisService
}

type harnessOpts struct {
	keepAudio       bool
	allowReanalysis bool
	flakyDeletes    bool
}

func newHarness(t *testing.T, o harnessOpts) *harness {
	t.Helper()

	root := t.TempDir()
	local, err := storage.NewLocalStore(root)
	require.NoError(t, err)

	var artifacts storage.ArtifactStore = local
	if o.flakyDeletes {
		artifacts = flakyStore{ArtifactStore: local}
	}

	h := &harness{
		t:           t,
		repo:        memory.NewSessionRepo(),
		artifacts:   local,
		root:        root,
		catalog:     testCatalog(),
		extractor:   &fakeExtractor{store: local, fail: map[string]error{}},
		transcriber: &fakeTranscriber{texts: map[string]string{}, errs: map[string]error{}, def: "tired and dizzy"},
		analyzer: &fakeAnalyzer{result: &models.Analysis{
			MatchedCategories: []models.MatchedCategory{{
				CategoryID:         "orthostatic_intolerance",
				CategoryName:       "Dizziness",
				Confidence:         "high",
				PatientSymptoms:    []string{"dizzy"},
				SeverityIndicators: []string{"tired and dizzy"},
			}},
			PriorityConcerns: []string{"dizziness"},
			ClinicalNotes:    "Patient reports fatigue and dizziness.",
		}},
		archive: &fakeArchive{},
	}

	l := logger.NewNop()
	store := NewStore(h.repo)
	h.sessions = NewSessionService(store, artifacts, h.catalog, l)
	h.pipeline = NewPipelineService(store, artifacts, h.extractor, h.transcriber, h.catalog,
		PipelineOptions{KeepAudio: o.keepAudio, Concurrency: 3}, l)
	h.analysis = NewAnalysisService(store, artifacts, h.analyzer, h.archive, h.catalog,
		AnalysisOptions{AllowReanalysis: o.allowReanalysis}, l)
	return h
}

func (h *harness) start(testMode bool) string {
	h.t.Helper()
	sess, err := h.sessions.Start(context.Background(), testMode)
	require.NoError(h.t, err)
	return sess.SessionID
}

func (h *harness) upload(sessionID string, questionID int) {
	h.t.Helper()
	_, err := h.sessions.UploadVideo(context.Background(), sessionID, questionID, "video/webm", strings.NewReader("webm-bytes"))
	require.NoError(h.t, err)
}

func (h *harness) session(sessionID string) *models.Session {
	h.t.Helper()
	s, err := h.repo.Get(context.Background(), sessionID)
	require.NoError(h.t, err)
	return s
}

func (h *harness) exists(ref string) bool {
	rc, err := h.artifacts.Open(context.Background(), ref)
	if err != nil {
		return false
	}
	_, _ = io.Copy(io.Discard, rc)
	_ = rc.Close()
	return true
}
