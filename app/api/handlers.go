package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wayspot-tools/contribtrack/app/database"
	"github.com/wayspot-tools/contribtrack/app/processor"
	"github.com/wayspot-tools/contribtrack/app/tasks"
)

// crashReportConsent is shown to the user before the opt-in is enabled.
// Reports never leave the local store; the excerpt is redacted before
// it is written.
const crashReportConsent = "When enabled, emails that crash the import pipeline are stored " +
	"locally with a redacted text excerpt (addresses, links and long digit runs removed) " +
	"so the failure can be diagnosed. Nothing is uploaded. You can disable this at any time " +
	"and clear the stored reports."

func (h *Handler) InterceptManager(c *gin.Context) {
	var req ManagerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	created, updated, err := h.processor.ObserveSubmissions(c.Request.Context(), req.Submissions)
	if err != nil {
		slog.Error("Snapshot observation failed", "submissions", len(req.Submissions), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record snapshot"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"received": len(req.Submissions),
		"created":  created,
		"updated":  updated,
	})
}

func (h *Handler) InterceptAction(c *gin.Context) {
	var req ActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	// The host app acknowledges a successful action with the literal
	// body "DONE". Anything else means the action did not take effect.
	if req.Response != "DONE" {
		slog.Debug("Ignoring unacknowledged action", "action", req.Action, "id", req.ID)
		c.JSON(http.StatusOK, gin.H{"recorded": false})
		return
	}

	if err := h.processor.ObserveAction(c.Request.Context(), req.Action, req.ID); err != nil {
		if errors.Is(err, database.ErrKeyNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Contribution not found"})
			return
		}
		slog.Error("Action observation failed", "action", req.Action, "id", req.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record action"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"recorded": true})
}

func (h *Handler) ListContributions(c *gin.Context) {
	items, err := h.processor.Contributions(c.Request.Context())
	if err != nil {
		slog.Error("Database error", "operation", "list_contributions", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"contributions": items,
		"total":         len(items),
	})
}

func (h *Handler) GetContributionHistory(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing contribution id parameter"})
		return
	}

	stored, err := h.processor.Contribution(c.Request.Context(), id)
	if errors.Is(err, database.ErrKeyNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Contribution not found"})
		return
	}
	if err != nil {
		slog.Error("Database error", "operation", "get_contribution", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":      stored.ID,
		"title":   stored.Title,
		"type":    stored.Type,
		"status":  stored.Status,
		"history": stored.StatusHistory,
	})
}

func (h *Handler) StartImport(c *gin.Context) {
	sourceName := c.Param("source")
	if sourceName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing source name parameter"})
		return
	}

	source, err := h.sources.GetSource(sourceName)
	if err != nil {
		slog.Error("Source configuration not found", "source", sourceName, "error", err)
		c.JSON(http.StatusNotFound, gin.H{"error": "Source configuration not found"})
		return
	}
	if !source.Settings.Enabled {
		c.JSON(http.StatusConflict, gin.H{"error": "Source is disabled"})
		return
	}

	if h.processor.State() == processor.StateRunning {
		c.JSON(http.StatusConflict, gin.H{"error": "Import pass already running"})
		return
	}

	if err := h.scheduler.EnqueueTask(tasks.NewImportPassTask(sourceName, h.processor)); err != nil {
		slog.Error("Failed to enqueue import pass", "source", sourceName, "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Task queue is full"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"source":  sourceName,
		"message": "Import pass enqueued",
	})
}

func (h *Handler) GetImportStatus(c *gin.Context) {
	status := gin.H{"state": h.processor.State()}

	if summary := h.processor.LastSummary(); summary != nil {
		status["last_pass"] = summary
	}

	c.JSON(http.StatusOK, status)
}

func (h *Handler) ListNotifications(c *gin.Context) {
	notifications := h.notifier.Recent()
	c.JSON(http.StatusOK, gin.H{
		"notifications": notifications,
		"total":         len(notifications),
	})
}

func (h *Handler) GetCrashReportSettings(c *gin.Context) {
	enabled, err := h.processor.CrashReportsEnabled()
	if err != nil {
		slog.Error("Database error", "operation", "get_crash_report_setting", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"enabled": enabled,
		"consent": crashReportConsent,
	})
}

func (h *Handler) SetCrashReportSettings(c *gin.Context) {
	var req struct {
		Enabled bool `json:"enabled"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if err := h.processor.SetCrashReports(req.Enabled); err != nil {
		slog.Error("Database error", "operation", "set_crash_report_setting", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	slog.Info("Crash report setting changed", "enabled", req.Enabled)
	c.JSON(http.StatusOK, gin.H{"enabled": req.Enabled})
}

func (h *Handler) ListCrashReports(c *gin.Context) {
	reports, err := h.processor.CrashReports()
	if err != nil {
		slog.Error("Database error", "operation", "list_crash_reports", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"reports": reports,
		"total":   len(reports),
	})
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp":      time.Now().In(time.Local).Format(time.RFC3339),
		"import_state":   h.processor.State(),
		"loaded_sources": h.sources.GetSourceCount(),
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	stats, err := h.processor.CollectStats(c.Request.Context())
	if err != nil {
		slog.Error("Database error", "operation", "collect_stats", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, stats)
}
