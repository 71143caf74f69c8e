package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/themobileprof/symptomcheck/internal/db"
	"github.com/themobileprof/symptomcheck/internal/report"
)

// HistoryStore reads saved assessments
type HistoryStore interface {
	ListAssessments(ctx context.Context, sessionID string, limit, offset int) ([]db.AssessmentSummary, error)
	GetAssessment(ctx context.Context, id string) (report.Record, error)
	DeleteSessionAssessments(ctx context.Context, sessionID string) (int64, error)
	AssessmentStats(ctx context.Context, top int) (db.AssessmentStats, error)
}

// HistoryHandler serves the assessment history endpoints
type HistoryHandler struct {
	store  HistoryStore
	logger *zap.Logger
}

// NewHistoryHandler creates a new history handler
func NewHistoryHandler(store HistoryStore, logger *zap.Logger) *HistoryHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HistoryHandler{store: store, logger: logger}
}

// RegisterRoutes mounts the history endpoints on r
func (h *HistoryHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/history", h.ListHistory)
	r.GET("/history/stats", h.Stats)
	r.GET("/history/:id", h.GetHistory)
	r.DELETE("/history", h.DeleteHistory)
}

// ListHistory lists saved assessments, newest first
// GET /api/history?session=...&limit=20&offset=0
func (h *HistoryHandler) ListHistory(c *gin.Context) {
	limit := 50
	if l, err := strconv.Atoi(c.Query("limit")); err == nil && l > 0 && l <= 100 {
		limit = l
	}
	offset := 0
	if o, err := strconv.Atoi(c.Query("offset")); err == nil && o >= 0 {
		offset = o
	}

	items, err := h.store.ListAssessments(c.Request.Context(), c.Query("session"), limit, offset)
	if err != nil {
		h.logger.Error("failed to list assessments", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"assessments": items,
		"count":       len(items),
		"limit":       limit,
		"offset":      offset,
	})
}

// Stats aggregates the saved history
// GET /api/history/stats?top=5
func (h *HistoryHandler) Stats(c *gin.Context) {
	top := db.DefaultStatsTop
	if n, err := strconv.Atoi(c.Query("top")); err == nil && n > 0 && n <= 100 {
		top = n
	}

	stats, err := h.store.AssessmentStats(c.Request.Context(), top)
	if err != nil {
		h.logger.Error("failed to aggregate assessments", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve statistics"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// GetHistory returns one saved assessment
// GET /api/history/:id?format=json|text|pdf
func (h *HistoryHandler) GetHistory(c *gin.Context) {
	format := strings.ToLower(c.DefaultQuery("format", "json"))
	if format != "json" && format != "text" && format != "pdf" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "format must be json, text or pdf"})
		return
	}

	rec, err := h.store.GetAssessment(c.Request.Context(), c.Param("id"))
	if errors.Is(err, db.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Assessment not found"})
		return
	}
	if err != nil {
		h.logger.Error("failed to load assessment", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve assessment"})
		return
	}
	writeRecord(c, rec, format, h.logger)
}

// DeleteHistory removes every saved assessment of one session
// DELETE /api/history?session=...
func (h *HistoryHandler) DeleteHistory(c *gin.Context) {
	sessionID := c.Query("session")
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session is required"})
		return
	}

	n, err := h.store.DeleteSessionAssessments(c.Request.Context(), sessionID)
	if err != nil {
		h.logger.Error("failed to delete assessments", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete history"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": n})
}
