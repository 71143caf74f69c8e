package ws

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/themobileprof/symptomcheck/internal/api/middleware"
	"github.com/themobileprof/symptomcheck/internal/chat"
	"github.com/themobileprof/symptomcheck/internal/privacy"
	"github.com/themobileprof/symptomcheck/internal/report"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8 << 10
	maxSessionID   = 64
)

// Engine is the part of the chat engine the socket uses
type Engine interface {
	OpenSession(id, lang string) string
	ProcessUtterance(ctx context.Context, sessionID, text string) (*chat.Response, error)
	View(resp *chat.Response) chat.View
	ExportAssessment(ctx context.Context, sessionID string) (report.Record, error)
	ClearSession(sessionID string) error
}

// IncomingMessage represents a message from the client
type IncomingMessage struct {
	Type    string `json:"type"` // "message" (default), "export", "clear"
	Content string `json:"content"`
}

// OutgoingMessage represents a message to the client
type OutgoingMessage struct {
	Type    string      `json:"type"` // "session", "message", "assessment", "emergency", "export", "error", "done"
	Content string      `json:"content,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// ChatHandler handles WebSocket chat connections
type ChatHandler struct {
	engine            Engine
	logger            *zap.Logger
	upgrader          websocket.Upgrader
	messagesPerMinute int
}

// NewChatHandler creates a new chat handler. checkOrigin may be nil to
// allow every origin.
func NewChatHandler(engine Engine, logger *zap.Logger, checkOrigin func(*http.Request) bool, messagesPerMinute int) *ChatHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if checkOrigin == nil {
		checkOrigin = func(r *http.Request) bool { return true }
	}
	if messagesPerMinute <= 0 {
		messagesPerMinute = 30
	}
	return &ChatHandler{
		engine:            engine,
		logger:            logger,
		upgrader:          websocket.Upgrader{CheckOrigin: checkOrigin},
		messagesPerMinute: messagesPerMinute,
	}
}

// HandleChat handles WebSocket chat connections
// GET /ws/chat?session=...&lang=en
func (h *ChatHandler) HandleChat(c *gin.Context) {
	requested := c.Query("session")
	if len(requested) > maxSessionID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid session"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	sessionID := h.engine.OpenSession(requested, strings.ToLower(c.DefaultQuery("lang", "en")))
	h.logger.Info("websocket connected", zap.String("session", sessionID))

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()
	go h.keepAlive(ctx, conn)

	if err := h.write(conn, OutgoingMessage{Type: "session", Data: gin.H{"session_id": sessionID}}); err != nil {
		return
	}

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	limiter := middleware.NewWebSocketLimiter(h.messagesPerMinute)
	for {
		var msg IncomingMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("websocket read failed", zap.String("session", sessionID), zap.Error(err))
			}
			break
		}

		if !limiter.Allow() {
			h.sendError(conn, "Too many messages. Please slow down.")
			continue
		}

		if err := h.processMessage(ctx, conn, sessionID, msg); err != nil {
			h.logger.Error("failed to process message",
				zap.String("session", sessionID),
				zap.String("content", privacy.SanitizeForLogging(msg.Content)),
				zap.Error(err),
			)
			h.sendError(conn, "Something went wrong. Please try again.")
		}
	}
	h.logger.Info("websocket closed", zap.String("session", sessionID))
}

func (h *ChatHandler) processMessage(ctx context.Context, conn *websocket.Conn, sessionID string, msg IncomingMessage) error {
	switch msg.Type {
	case "export":
		rec, err := h.engine.ExportAssessment(ctx, sessionID)
		if err != nil {
			return err
		}
		if err := h.write(conn, OutgoingMessage{Type: "export", Data: rec}); err != nil {
			return err
		}
		return h.write(conn, OutgoingMessage{Type: "done"})

	case "clear":
		if err := h.engine.ClearSession(sessionID); err != nil {
			return err
		}
		return h.write(conn, OutgoingMessage{Type: "done"})

	case "", "message":
	default:
		return h.sendError(conn, "Unknown message type")
	}

	resp, err := h.engine.ProcessUtterance(ctx, sessionID, msg.Content)
	if errors.Is(err, chat.ErrSessionNotFound) {
		// expired while connected
		h.engine.OpenSession(sessionID, "")
		resp, err = h.engine.ProcessUtterance(ctx, sessionID, msg.Content)
	}
	if err != nil {
		return err
	}

	view := h.engine.View(resp)
	if view.Emergency {
		if err := h.write(conn, OutgoingMessage{Type: "emergency", Content: view.Reply, Data: view.RedFlags}); err != nil {
			return err
		}
	}
	if err := h.write(conn, OutgoingMessage{Type: "message", Content: view.Reply}); err != nil {
		return err
	}
	if err := h.write(conn, OutgoingMessage{Type: "assessment", Data: view}); err != nil {
		return err
	}
	return h.write(conn, OutgoingMessage{Type: "done"})
}

// keepAlive pings the client until ctx is done
func (h *ChatHandler) keepAlive(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

func (h *ChatHandler) write(conn *websocket.Conn, msg OutgoingMessage) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(msg)
}

// sendError sends an error message to the client
func (h *ChatHandler) sendError(conn *websocket.Conn, message string) error {
	return h.write(conn, OutgoingMessage{
		Type:    "error",
		Content: message,
	})
}
