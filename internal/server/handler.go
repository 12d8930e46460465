package server

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/sadopc/flowtime/internal/errors"
	"github.com/sadopc/flowtime/internal/history"
	"github.com/sadopc/flowtime/internal/reminder"
	"github.com/sadopc/flowtime/internal/store"
)

// maxStatsDays bounds the /stats/daily window.
const maxStatsDays = 366

type Handler struct {
	store   Store
	logger  *slog.Logger
	now     func() time.Time
	started time.Time
}

type breakReminderRequest struct {
	Enabled         *bool    `json:"enabled"`
	IntervalMinutes *float64 `json:"intervalMinutes"`
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":       "ok",
		"uptime":       h.now().Sub(h.started).Seconds(),
		"databaseFile": h.store.Path(),
	})
}

func (h *Handler) ListHistory(c *gin.Context) {
	entries, err := h.store.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}

	filter := history.ParseFilter(c.DefaultQuery("filter", string(history.FilterAll)))
	weekStart := history.WeekStart(c.DefaultQuery("locale", "de-DE"))
	now := h.now()
	if tz := c.Query("tz"); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			writeError(c, apperrors.BadRequest("invalid_timezone", "unknown time zone"))
			return
		}
		now = now.In(loc)
	}

	visible := history.Apply(entries, filter, now, weekStart)
	c.JSON(http.StatusOK, gin.H{
		"filter":         filter,
		"entries":        visible,
		"totalTrackedMs": history.TotalTracked(visible),
	})
}

func (h *Handler) AddHistory(c *gin.Context) {
	var req store.NewEntry
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperrors.BadRequest("invalid_json", "invalid request body"))
		return
	}

	entry, err := h.store.Add(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"entry": entry})
}

func (h *Handler) DeleteHistory(c *gin.Context) {
	ok, err := h.store.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	if !ok {
		writeError(c, apperrors.NotFound("not_found", "history entry not found"))
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) ClearHistory(c *gin.Context) {
	if _, err := h.store.Clear(c.Request.Context()); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DailyStats returns per-day totals between from and to (epoch ms). The
// default window is the last seven days.
func (h *Handler) DailyStats(c *gin.Context) {
	loc := time.Local
	if tz := c.Query("tz"); tz != "" {
		l, err := time.LoadLocation(tz)
		if err != nil {
			writeError(c, apperrors.BadRequest("invalid_timezone", "unknown time zone"))
			return
		}
		loc = l
	}

	now := h.now().In(loc)
	to := now
	from := history.StartOfDay(now).AddDate(0, 0, -6)

	if v := c.Query("from"); v != "" {
		ms, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeError(c, apperrors.BadRequest("invalid_range", "from must be epoch milliseconds"))
			return
		}
		from = time.UnixMilli(ms).In(loc)
	}
	if v := c.Query("to"); v != "" {
		ms, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeError(c, apperrors.BadRequest("invalid_range", "to must be epoch milliseconds"))
			return
		}
		to = time.UnixMilli(ms).In(loc)
	}
	if to.Before(from) {
		writeError(c, apperrors.BadRequest("invalid_range", "to must not be before from"))
		return
	}
	if to.Sub(from) > maxStatsDays*24*time.Hour {
		writeError(c, apperrors.BadRequest("invalid_range", "range too large"))
		return
	}

	entries, err := h.store.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}

	days := history.DailyTotals(entries, from, to, loc)
	var total int64
	for _, d := range days {
		total += d.TrackedMs
	}
	c.JSON(http.StatusOK, gin.H{
		"from":           from.UnixMilli(),
		"to":             to.UnixMilli(),
		"days":           days,
		"totalTrackedMs": total,
	})
}

func (h *Handler) GetBreakReminder(c *gin.Context) {
	s, err := reminder.LoadSettings(c.Request.Context(), h.store)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": s})
}

func (h *Handler) UpdateBreakReminder(c *gin.Context) {
	var req breakReminderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperrors.BadRequest("invalid_json", "invalid request body"))
		return
	}

	ctx := c.Request.Context()
	current, err := reminder.LoadSettings(ctx, h.store)
	if err != nil {
		h.fail(c, err)
		return
	}
	if req.Enabled != nil {
		current.Enabled = *req.Enabled
	}
	if req.IntervalMinutes != nil {
		current.IntervalMinutes = reminder.ClampInterval(*req.IntervalMinutes)
	}

	saved, err := reminder.SaveSettings(ctx, h.store, current)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": saved})
}

func (h *Handler) fail(c *gin.Context, err error) {
	apiErr := apperrors.FromStore(err)
	if apiErr.Status >= http.StatusInternalServerError {
		h.logger.Error("request failed", "path", c.Request.URL.Path, "err", err)
	}
	writeError(c, apiErr)
}
