package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yoockh/intake/internal/services"
	"github.com/yoockh/intake/internal/utils"
)

const multipartMemory = 32 << 20

// Enqueuer hands transcription jobs to background workers.
type Enqueuer interface {
	Enqueue(ctx context.Context, sessionID string, questionIDs []int) error
}

type IntakeHandler struct {
	sessions services.SessionService
	pipeline services.PipelineService
	analysis services.AnalysisService
	queue    Enqueuer // nil when async transcription is disabled

	maxVideoBytes int64
	cookieMaxAge  int
}

func NewIntakeHandler(
	sessions services.SessionService,
	pipeline services.PipelineService,
	analysis services.AnalysisService,
	queue Enqueuer,
	maxVideoBytes int64,
) *IntakeHandler {
	return &IntakeHandler{
		sessions:      sessions,
		pipeline:      pipeline,
		analysis:      analysis,
		queue:         queue,
		maxVideoBytes: maxVideoBytes,
		cookieMaxAge:  24 * 60 * 60,
	}
}

type StartSessionResponse struct {
	SessionID string `json:"session_id"`
	TestMode  bool   `json:"test_mode"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
}

func (h *IntakeHandler) StartSession(c *gin.Context) {
	sess, err := h.sessions.Start(c.Request.Context(), testMode(c))
	if err != nil {
		writeError(c, err)
		return
	}

	c.Set("session_id", sess.SessionID)
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, sess.SessionID, h.cookieMaxAge, "/", "", false, true)
	c.Header(SessionHeader, sess.SessionID)

	writeOK(c, http.StatusOK, StartSessionResponse{
		SessionID: sess.SessionID,
		TestMode:  sess.TestMode,
		Status:    string(sess.Status),
		CreatedAt: sess.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	})
}

func (h *IntakeHandler) State(c *gin.Context) {
	id, ok := requireSessionID(c, "IntakeHandler.State")
	if !ok {
		return
	}
	st, err := h.sessions.State(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	writeOK(c, http.StatusOK, st)
}

func (h *IntakeHandler) UploadVideo(c *gin.Context) {
	const op = "IntakeHandler.UploadVideo"

	id, ok := requireSessionID(c, op)
	if !ok {
		return
	}

	// multipart overhead on top of the video itself
	limit := h.maxVideoBytes + 1<<20
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)

	if err := c.Request.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || c.Request.ContentLength > limit {
			writeError(c, utils.E(utils.CodeInvalidArgument, op, "video exceeds the size limit", err))
			return
		}
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "no video file provided", err))
		return
	}

	qid, err := strconv.Atoi(c.PostForm("question_id"))
	if err != nil {
		writeError(c, utils.E(utils.CodeInvalidQuestionID, op, "invalid question_id", err))
		return
	}

	fh, err := c.FormFile("video")
	if err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "no video file provided", err))
		return
	}
	if fh.Filename == "" || fh.Size == 0 {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "no file selected", nil))
		return
	}
	if fh.Size > h.maxVideoBytes {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "video exceeds the size limit", nil))
		return
	}

	f, err := fh.Open()
	if err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "unreadable video upload", err))
		return
	}
	defer f.Close()

	contentType := fh.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "video/webm"
	}

	st, err := h.sessions.UploadVideo(c.Request.Context(), id, qid, contentType, f)
	if err != nil {
		writeError(c, err)
		return
	}
	writeOK(c, http.StatusOK, st)
}

func (h *IntakeHandler) Transcribe(c *gin.Context) {
	const op = "IntakeHandler.Transcribe"

	id, ok := requireSessionID(c, op)
	if !ok {
		return
	}
	qid, err := strconv.Atoi(c.Param("question_id"))
	if err != nil {
		writeError(c, utils.E(utils.CodeInvalidQuestionID, op, "invalid question_id", err))
		return
	}

	res, err := h.pipeline.Transcribe(c.Request.Context(), id, qid)
	if err != nil {
		writeError(c, err)
		return
	}
	writeOK(c, http.StatusOK, res)
}

func (h *IntakeHandler) TranscribeAll(c *gin.Context) {
	id, ok := requireSessionID(c, "IntakeHandler.TranscribeAll")
	if !ok {
		return
	}

	res, err := h.pipeline.TranscribeAll(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	// per-question failures are reported in the body, not as an HTTP error
	c.JSON(http.StatusOK, res)
}

type QueueResponse struct {
	Queued []int `json:"queued"`
}

func (h *IntakeHandler) QueueTranscription(c *gin.Context) {
	const op = "IntakeHandler.QueueTranscription"

	if h.queue == nil {
		writeError(c, utils.E(utils.CodeUnavailable, op, "async transcription is not enabled", nil))
		return
	}
	id, ok := requireSessionID(c, op)
	if !ok {
		return
	}

	sess, err := h.sessions.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	var pending []int
	for _, q := range sess.Questions {
		if q.HasVideo() {
			pending = append(pending, q.QuestionID)
		}
	}
	if len(pending) == 0 {
		writeError(c, utils.E(utils.CodeNoVideoRecorded, op, "no recorded videos awaiting transcription", nil))
		return
	}

	if err := h.queue.Enqueue(c.Request.Context(), id, pending); err != nil {
		writeError(c, utils.E(utils.CodeUnavailable, op, "failed to enqueue transcription", err))
		return
	}
	writeOK(c, http.StatusAccepted, QueueResponse{Queued: pending})
}

func (h *IntakeHandler) Analyze(c *gin.Context) {
	id, ok := requireSessionID(c, "IntakeHandler.Analyze")
	if !ok {
		return
	}

	a, err := h.analysis.Analyze(c.Request.Context(), id, testMode(c))
	if err != nil {
		writeError(c, err)
		return
	}
	writeOK(c, http.StatusOK, gin.H{"analysis": a})
}

func (h *IntakeHandler) Summary(c *gin.Context) {
	id, ok := requireSessionID(c, "IntakeHandler.Summary")
	if !ok {
		return
	}
	sum, err := h.sessions.Summary(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	writeOK(c, http.StatusOK, sum)
}

func (h *IntakeHandler) History(c *gin.Context) {
	id, ok := requireSessionID(c, "IntakeHandler.History")
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	rows, err := h.analysis.History(c.Request.Context(), id, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	writeOK(c, http.StatusOK, rows)
}
