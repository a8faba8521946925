package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/yoockh/intake/internal/services"
	"github.com/yoockh/intake/internal/utils"
	"github.com/yoockh/intake/internal/workers"
)

// WSHandler streams a session's pipeline status events to the browser.
type WSHandler struct {
	sessions services.SessionService
	redis    *redis.Client
	log      *logrus.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(sessions services.SessionService, rdb *redis.Client, l *logrus.Logger) *WSHandler {
	return &WSHandler{
		sessions: sessions,
		redis:    rdb,
		log:      l,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true }, // TODO: restrict origin once the frontend host is fixed
		},
	}
}

type wsConn struct {
	c  *websocket.Conn
	mu sync.Mutex
}

func (w *wsConn) writeText(b []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.c.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return w.c.WriteMessage(websocket.TextMessage, b)
}

func (w *wsConn) ping() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.c.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
}

func (h *WSHandler) SessionWS(c *gin.Context) {
	const op = "WSHandler.SessionWS"

	id := sessionID(c)
	if id == "" {
		id = c.Query("session_id")
	}
	if id == "" {
		writeError(c, utils.E(utils.CodeNoActiveSession, op, "no active session", nil))
		return
	}
	c.Set("session_id", id)

	if _, err := h.sessions.Get(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// upgrade already wrote response in most cases
		return
	}
	defer conn.Close()

	wc := &wsConn{c: conn}
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	pubsub := h.redis.Subscribe(ctx, workers.StatusChannel(id))
	defer pubsub.Close()

	// reader: only keeps the connection alive and notices close
	go func() {
		defer cancel()
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		conn.SetPongHandler(func(string) error {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			return nil
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(25 * time.Second)
	defer ticker.Stop()

	// writer: Redis Pub/Sub -> WS
	msgs := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := wc.ping(); err != nil {
				return
			}
		case m, ok := <-msgs:
			if !ok {
				return
			}
			if err := wc.writeText([]byte(m.Payload)); err != nil {
				h.log.WithError(err).WithField("session_id", id).Debug("ws write failed")
				return
			}
		}
	}
}
