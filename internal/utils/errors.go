package utils

import (
	"errors"
	"fmt"
	"net/http"
)

type Code string

const (
	CodeInvalidArgument Code = "INVALID_ARGUMENT"
	CodeNotFound        Code = "NOT_FOUND"
	CodeConflict        Code = "CONFLICT"
	CodeUnavailable     Code = "UNAVAILABLE"
	CodeTimeout         Code = "TIMEOUT"
	CodeInternal        Code = "INTERNAL"

	// intake pipeline kinds
	CodeNoActiveSession        Code = "NO_ACTIVE_SESSION"
	CodeInvalidQuestionID      Code = "INVALID_QUESTION_ID"
	CodeNoVideoRecorded        Code = "NO_VIDEO_RECORDED"
	CodeExtractionFailed       Code = "EXTRACTION_FAILED"
	CodeTranscriptionFailed    Code = "TRANSCRIPTION_FAILED"
	CodeQuestionNotTranscribed Code = "QUESTION_NOT_TRANSCRIBED"
	CodeAnalysisFailed         Code = "ANALYSIS_FAILED"
)

// AppError is the unified error contract across layers.
type AppError struct {
	Code    Code
	Op      string // operation name, ex: "PipelineService.Transcribe"
	Message string // safe message
	Err     error  // wrapped error
}

func (e *AppError) Error() string {
	if e == nil {
		return "<nil>"
	}
	switch {
	case e.Op != "" && e.Message != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	case e.Op != "" && e.Message != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	case e.Message != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Err.Error()
	default:
		return "error"
	}
}

func (e *AppError) Unwrap() error { return e.Err }

// Detail is the client-facing text: the safe message plus the wrapped cause
// for kinds whose cause is useful to the caller (external tool output).
func (e *AppError) Detail() string {
	switch e.Code {
	case CodeExtractionFailed, CodeTranscriptionFailed:
		if e.Err != nil {
			return fmt.Sprintf("%s: %v", e.Message, e.Err)
		}
	}
	return e.Message
}

func E(code Code, op, msg string, err error) error {
	return &AppError{Code: code, Op: op, Message: msg, Err: err}
}

func IsCode(err error, code Code) bool {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Code == code
	}
	return false
}

// CodeOf returns the AppError code of err, or CodeInternal.
func CodeOf(err error) Code {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return CodeInternal
}

// QuestionNotTranscribedError names the first required question that has no
// transcription yet.
type QuestionNotTranscribedError struct {
	QuestionID int
}

func (e *QuestionNotTranscribedError) Error() string {
	return fmt.Sprintf("question %d not yet transcribed", e.QuestionID)
}

func NotTranscribed(op string, questionID int) error {
	cause := &QuestionNotTranscribedError{QuestionID: questionID}
	return &AppError{Code: CodeQuestionNotTranscribed, Op: op, Message: cause.Error(), Err: cause}
}

func HTTPStatus(err error) int {
	var ae *AppError
	if errors.As(err, &ae) {
		switch ae.Code {
		case CodeInvalidArgument, CodeInvalidQuestionID, CodeNoVideoRecorded, CodeQuestionNotTranscribed:
			return http.StatusBadRequest
		case CodeNotFound, CodeNoActiveSession:
			return http.StatusNotFound
		case CodeConflict:
			return http.StatusConflict
		case CodeExtractionFailed, CodeTranscriptionFailed:
			return http.StatusBadGateway
		case CodeUnavailable:
			return http.StatusServiceUnavailable
		case CodeTimeout:
			return http.StatusGatewayTimeout
		default:
			return http.StatusInternalServerError
		}
	}
	// fallback
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// Backward-compatible sentinel errors
var (
	ErrNotFound = errors.New("not found")
)
