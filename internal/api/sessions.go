package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/themobileprof/symptomcheck/internal/chat"
	"github.com/themobileprof/symptomcheck/internal/language"
	"github.com/themobileprof/symptomcheck/internal/report"
	"github.com/themobileprof/symptomcheck/internal/session"
)

// maxUtteranceLength bounds a single utterance in runes
const maxUtteranceLength = 2000

// Engine is the part of the chat engine the HTTP handlers use
type Engine interface {
	StartSession(lang string) string
	EndSession(id string) bool
	ProcessUtterance(ctx context.Context, sessionID, text string) (*chat.Response, error)
	View(resp *chat.Response) chat.View
	GetSessionSymptoms(sessionID string) ([]session.Observation, error)
	RemoveSymptom(sessionID, name string) bool
	ClearSession(sessionID string) error
	ExportAssessment(ctx context.Context, sessionID string) (report.Record, error)
	ModelAvailable() bool
}

// SessionHandler serves the symptom conversation endpoints
type SessionHandler struct {
	engine Engine
	logger *zap.Logger
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(engine Engine, logger *zap.Logger) *SessionHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionHandler{engine: engine, logger: logger}
}

// RegisterRoutes mounts the session endpoints on r
func (h *SessionHandler) RegisterRoutes(r *gin.RouterGroup) {
	sessions := r.Group("/sessions")
	sessions.POST("", h.CreateSession)
	sessions.POST("/:id/utterances", h.PostUtterance)
	sessions.GET("/:id/symptoms", h.GetSymptoms)
	sessions.DELETE("/:id/symptoms", h.ClearSymptoms)
	sessions.DELETE("/:id/symptoms/:name", h.RemoveSymptom)
	sessions.DELETE("/:id", h.EndSession)
	sessions.GET("/:id/export", h.Export)
	r.GET("/languages", h.ListLanguages)
}

// ListLanguages lists the supported conversation languages
// GET /api/languages
func (h *SessionHandler) ListLanguages(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"languages": language.Supported(),
		"default":   language.DefaultLanguage,
	})
}

// CreateSession starts a session
// POST /api/sessions {"language":"es"}
func (h *SessionHandler) CreateSession(c *gin.Context) {
	var req struct {
		Language string `json:"language"`
	}
	// the body is optional
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
	}

	lang := language.Validate(req.Language).Code
	id := h.engine.StartSession(lang)
	c.JSON(http.StatusCreated, gin.H{
		"session_id":      id,
		"language":        lang,
		"model_available": h.engine.ModelAvailable(),
	})
}

// PostUtterance processes one user utterance
// POST /api/sessions/:id/utterances {"text":"..."}
func (h *SessionHandler) PostUtterance(c *gin.Context) {
	var req struct {
		Text string `json:"text"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if len([]rune(req.Text)) > maxUtteranceLength {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Utterance too long"})
		return
	}

	resp, err := h.engine.ProcessUtterance(c.Request.Context(), c.Param("id"), req.Text)
	if err != nil {
		h.fail(c, err, "Failed to process utterance")
		return
	}
	c.JSON(http.StatusOK, h.engine.View(resp))
}

// GetSymptoms lists the tracked symptoms
// GET /api/sessions/:id/symptoms
func (h *SessionHandler) GetSymptoms(c *gin.Context) {
	obs, err := h.engine.GetSessionSymptoms(c.Param("id"))
	if err != nil {
		h.fail(c, err, "Failed to retrieve symptoms")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"symptoms": report.Symptoms(obs),
		"count":    len(obs),
	})
}

// RemoveSymptom stops tracking one symptom
// DELETE /api/sessions/:id/symptoms/:name
func (h *SessionHandler) RemoveSymptom(c *gin.Context) {
	if !h.engine.RemoveSymptom(c.Param("id"), c.Param("name")) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Symptom not tracked"})
		return
	}
	c.Status(http.StatusNoContent)
}

// ClearSymptoms discards every symptom and the transcript
// DELETE /api/sessions/:id/symptoms
func (h *SessionHandler) ClearSymptoms(c *gin.Context) {
	if err := h.engine.ClearSession(c.Param("id")); err != nil {
		h.fail(c, err, "Failed to clear session")
		return
	}
	c.Status(http.StatusNoContent)
}

// EndSession drops a session
// DELETE /api/sessions/:id
func (h *SessionHandler) EndSession(c *gin.Context) {
	if !h.engine.EndSession(c.Param("id")) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

// Export renders the current assessment
// GET /api/sessions/:id/export?format=json|text|pdf
func (h *SessionHandler) Export(c *gin.Context) {
	format := strings.ToLower(c.DefaultQuery("format", "json"))
	if format != "json" && format != "text" && format != "pdf" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "format must be json, text or pdf"})
		return
	}

	rec, err := h.engine.ExportAssessment(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err, "Failed to export assessment")
		return
	}
	writeRecord(c, rec, format, h.logger)
}

func (h *SessionHandler) fail(c *gin.Context, err error, msg string) {
	switch {
	case errors.Is(err, chat.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Request cancelled"})
	default:
		h.logger.Error(msg, zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
	}
}

func writeRecord(c *gin.Context, rec report.Record, format string, logger *zap.Logger) {
	filename := fmt.Sprintf("assessment-%s", rec.GeneratedAt.Format("20060102-150405"))

	switch format {
	case "text":
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename+".txt"))
		c.String(http.StatusOK, rec.Text())
	case "pdf":
		var buf bytes.Buffer
		if err := rec.RenderPDF(&buf); err != nil {
			logger.Error("failed to render pdf", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to render PDF"})
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename+".pdf"))
		c.Data(http.StatusOK, "application/pdf", buf.Bytes())
	default:
		c.JSON(http.StatusOK, rec)
	}
}
