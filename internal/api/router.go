package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/themobileprof/symptomcheck/internal/api/middleware"
)

// maxBodyBytes caps JSON request bodies
const maxBodyBytes = 64 << 10

// RouterOptions wires the HTTP front end
type RouterOptions struct {
	Engine         Engine
	History        HistoryStore // optional
	WebSocket      gin.HandlerFunc
	Limiter        *middleware.RateLimiter // optional
	AllowedOrigins []string
	Logger         *zap.Logger
}

// NewRouter builds the gin engine with every route mounted
func NewRouter(opts RouterOptions) *gin.Engine {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestLogger(opts.Logger),
		middleware.SecurityHeaders(),
		middleware.CORS(opts.AllowedOrigins),
		middleware.LimitBodySize(maxBodyBytes),
	)
	if opts.Limiter != nil {
		router.Use(middleware.PerIP(opts.Limiter))
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":          "healthy",
			"time":            time.Now().Unix(),
			"model_available": opts.Engine.ModelAvailable(),
			"history":         opts.History != nil,
		})
	})

	apiGroup := router.Group("/api")
	NewSessionHandler(opts.Engine, opts.Logger).RegisterRoutes(apiGroup)
	if opts.History != nil {
		NewHistoryHandler(opts.History, opts.Logger).RegisterRoutes(apiGroup)
	} else {
		apiGroup.GET("/history", func(c *gin.Context) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "History storage is not configured"})
		})
	}

	if opts.WebSocket != nil {
		router.GET("/ws/chat", opts.WebSocket)
	}
	return router
}
