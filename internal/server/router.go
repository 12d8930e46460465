// Package server exposes the focus journal over a small local HTTP API.
package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sadopc/flowtime/internal/history"
	"github.com/sadopc/flowtime/internal/reminder"
)

// Store is what the handlers need from the history store.
type Store interface {
	history.Backend
	reminder.SettingsStore
	Path() string
}

type Options struct {
	Store       Store
	Logger      *slog.Logger
	CORSOrigins []string
	Now         func() time.Time
}

func New(opts Options) *gin.Engine {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	engine := gin.New()
	engine.Use(RequestLogger(opts.Logger), gin.Recovery(), CORS(opts.CORSOrigins))

	h := &Handler{
		store:   opts.Store,
		logger:  opts.Logger,
		now:     opts.Now,
		started: opts.Now(),
	}

	api := engine.Group("/api")
	api.GET("/health", h.Health)

	hist := api.Group("/history")
	hist.GET("", h.ListHistory)
	hist.POST("", h.AddHistory)
	hist.DELETE("", h.ClearHistory)
	hist.DELETE("/:id", h.DeleteHistory)

	api.GET("/stats/daily", h.DailyStats)

	settings := api.Group("/settings")
	settings.GET("/break-reminder", h.GetBreakReminder)
	settings.PUT("/break-reminder", h.UpdateBreakReminder)

	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": gin.H{"code": "not_found", "message": "not found"},
		})
	})

	return engine
}
