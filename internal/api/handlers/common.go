package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yoockh/intake/internal/utils"
)

const (
	SessionHeader = "X-Session-Id"
	SessionCookie = "intake_session"
)

type APIError struct {
	Code    utils.Code `json:"code"`
	Message string     `json:"message"`
}

type envelope struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *APIError `json:"error,omitempty"`
}

func writeOK(c *gin.Context, status int, data any) {
	c.JSON(status, envelope{Success: true, Data: data})
}

func writeError(c *gin.Context, err error) {
	status := utils.HTTPStatus(err)
	_ = c.Error(err)

	var ae *utils.AppError
	if errors.As(err, &ae) {
		c.JSON(status, envelope{Error: &APIError{
			Code:    ae.Code,
			Message: ae.Detail(),
		}})
		return
	}

	c.JSON(status, envelope{Error: &APIError{
		Code:    utils.CodeInternal,
		Message: http.StatusText(status),
	}})
}

// sessionID resolves the caller's session from the header, falling back to
// the cookie set by start-session.
func sessionID(c *gin.Context) string {
	if v := c.GetHeader(SessionHeader); v != "" {
		return v
	}
	if v, err := c.Cookie(SessionCookie); err == nil {
		return v
	}
	return ""
}

func requireSessionID(c *gin.Context, op string) (string, bool) {
	id := sessionID(c)
	if id == "" {
		writeError(c, utils.E(utils.CodeNoActiveSession, op, "no active session", nil))
		return "", false
	}
	c.Set("session_id", id)
	return id, true
}

// testMode reports whether ?test was passed, with or without a value.
func testMode(c *gin.Context) bool {
	_, ok := c.GetQuery("test")
	return ok
}
