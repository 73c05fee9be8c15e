// Package handler exposes the dashboard over HTTP with gin.
package handler

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"portfolio-dashboard/internal/service"
)

// RouterConfig dependencies of NewRouter.
type RouterConfig struct {
	Sessions    *service.SessionStore
	History     HistoryReader
	Auth        *Auth
	CORSOrigins []string
	Logger      zerolog.Logger
}

// NewRouter wires middleware and routes.
func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(cfg.Logger))

	if len(cfg.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", SessionHeader},
			ExposeHeaders:    []string{SessionHeader},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	auth := cfg.Auth
	if auth == nil {
		auth = NewAuth("", "")
	}
	h := NewDashboardHandler(cfg.Sessions, cfg.History, cfg.Logger)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "sessions": cfg.Sessions.Len()})
	})

	api := r.Group("/api")
	{
		api.POST("/auth/verify", auth.Verify)

		protected := api.Group("", auth.Middleware())
		protected.POST("/sessions", h.CreateSession)
		protected.GET("/dashboard", h.GetDashboard)
		protected.POST("/dashboard/:capability", h.Action)
		protected.GET("/history", h.History)
	}

	return r
}

// RequestLogger logs one line per request.
func RequestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		ev := log.Info()
		if status >= http.StatusInternalServerError {
			ev = log.Error()
		} else if status >= http.StatusBadRequest {
			ev = log.Warn()
		}
		ev.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Int("bytes", c.Writer.Size()).
			Dur("duration_ms", time.Since(start)).
			Str("session_id", c.Writer.Header().Get(SessionHeader)).
			Msg("HTTP request")
	}
}
