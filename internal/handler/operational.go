// Package handler exposes the operational HTTP surface this module ships:
// a health check and manual triggers for the jobs internal/scheduler
// otherwise runs on a cron cadence (spec §1 "HTTP layer is out of scope" —
// these are operator endpoints, not a product API).
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/beacon-labs/wikimind/internal/config"
	"github.com/beacon-labs/wikimind/internal/ingestion"
	"github.com/beacon-labs/wikimind/internal/lifecycle"
	"github.com/beacon-labs/wikimind/internal/logger"
	"github.com/beacon-labs/wikimind/internal/quality"
)

// SystemHandler answers the health check.
type SystemHandler struct{}

// NewSystemHandler builds a SystemHandler.
func NewSystemHandler() *SystemHandler {
	return &SystemHandler{}
}

// GetHealth reports liveness.
func (h *SystemHandler) GetHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// OperationsHandler exposes manual triggers for the scheduled maintenance
// jobs (spec §9), for operators who don't want to wait for the next cron
// tick.
type OperationsHandler struct {
	pipeline *ingestion.Pipeline
	quality  *quality.Engine
	lifecycle *lifecycle.Manager
	cfg      *config.Config
}

// NewOperationsHandler builds an OperationsHandler.
func NewOperationsHandler(pipeline *ingestion.Pipeline, qualityEngine *quality.Engine, lifecycleManager *lifecycle.Manager, cfg *config.Config) *OperationsHandler {
	return &OperationsHandler{pipeline: pipeline, quality: qualityEngine, lifecycle: lifecycleManager, cfg: cfg}
}

// TriggerSync runs sync_spaces against the configured wiki spaces
// immediately rather than waiting for the hourly cron (spec §4.2).
func (h *OperationsHandler) TriggerSync(c *gin.Context) {
	ctx := logger.CloneContext(c.Request.Context())
	counters := h.pipeline.SyncSpaces(ctx, h.cfg.Ingestion.Spaces, c.Query("force") == "true", c.Query("resume") == "true")
	c.JSON(http.StatusOK, gin.H{
		"new":     counters.New,
		"updated": counters.Updated,
		"skipped": counters.Skipped,
		"errors":  counters.Errors,
	})
}

// TriggerRecompute runs the quality recompute pass immediately rather than
// waiting for the daily cron (spec §4.5).
func (h *OperationsHandler) TriggerRecompute(c *gin.Context) {
	ctx := logger.CloneContext(c.Request.Context())
	processed, err := h.quality.RecomputeAll(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"processed": processed})
}

// TriggerArchival runs the lifecycle archival pass immediately rather than
// waiting for the daily cron (spec §4.6).
func (h *OperationsHandler) TriggerArchival(c *gin.Context) {
	ctx := logger.CloneContext(c.Request.Context())
	counters, err := h.lifecycle.RunArchivalPipeline(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"cold_archived": counters.ColdArchived,
		"deprecated":    counters.Deprecated,
		"restored":      counters.Restored,
		"hard_archived": counters.HardArchived,
	})
}
