package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"autodraft.app/assistant/internal/runlog"
	"autodraft.app/assistant/internal/status"
)

// SnapshotSource is the in-memory view of the daemon.
type SnapshotSource interface {
	Snapshot() status.Snapshot
}

// History is the persisted run log. Nil when no database is configured.
type History interface {
	LastRun(ctx context.Context) ([]runlog.Entry, error)
	ListRecent(ctx context.Context, limit int32) ([]runlog.Entry, error)
}

type StatusHandler struct {
	tracker SnapshotSource
	history History
}

func NewStatusHandler(tracker SnapshotSource, history History) *StatusHandler {
	return &StatusHandler{tracker: tracker, history: history}
}

// Last reports the latest run seen by this process, falling back to the run
// log when this process has not completed a run yet.
func (h *StatusHandler) Last(c *gin.Context) {
	snap := h.tracker.Snapshot()
	if snap.LastRun != nil || h.history == nil {
		if snap.Runs == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "no run yet"})
			return
		}
		c.JSON(http.StatusOK, snap)
		return
	}

	entries, err := h.history.LastRun(c.Request.Context())
	if err != nil {
		if errors.Is(err, runlog.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no run yet"})
			return
		}
		slog.ErrorContext(c.Request.Context(), "reading last run", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read run log"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": snap.Runs, "last_error": snap.LastError, "outcomes": entries})
}

func (h *StatusHandler) Recent(c *gin.Context) {
	if h.history == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "run log not configured"})
		return
	}

	limit := int32(50)
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 32)
		if err != nil || n <= 0 || n > 500 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 500"})
			return
		}
		limit = int32(n)
	}

	entries, err := h.history.ListRecent(c.Request.Context(), limit)
	if err != nil {
		slog.ErrorContext(c.Request.Context(), "listing recent outcomes", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read run log"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"outcomes": entries})
}
