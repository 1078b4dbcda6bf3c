// Package lifecycle implements the four-state chunk lifecycle, the
// archival pipeline and conflict detection/resolution (spec §4.6).
package lifecycle

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/beacon-labs/wikimind/internal/config"
	"github.com/beacon-labs/wikimind/internal/logger"
	"github.com/beacon-labs/wikimind/internal/types"
	"github.com/beacon-labs/wikimind/internal/types/interfaces"
)

// Manager owns the archival pipeline and conflict workflow.
type Manager struct {
	graph     interfaces.GraphStore
	analytics interfaces.AnalyticsStore
	archive   interfaces.ArchiveFile
	cfg       *config.LifecycleConfig
}

// New wires the GraphStore, AnalyticsStore and hard-archive file sink.
func New(graph interfaces.GraphStore, analytics interfaces.AnalyticsStore, archive interfaces.ArchiveFile, cfg *config.LifecycleConfig) *Manager {
	return &Manager{graph: graph, analytics: analytics, archive: archive, cfg: cfg}
}

// Counters tallies one RunArchivalPipeline pass.
type Counters struct {
	ColdArchived int
	Deprecated   int
	Restored     int
	HardArchived int
}

// RunArchivalPipeline implements spec §4.6 steps 1-5.
func (m *Manager) RunArchivalPipeline(ctx context.Context) (Counters, error) {
	var c Counters

	chunks, err := m.graph.BulkList(ctx, 0, nil)
	if err != nil {
		return c, err
	}
	now := time.Now()

	for _, chunk := range chunks {
		switch chunk.Status {
		case types.ChunkStatusActive, types.ChunkStatusDeprecated:
			if err := m.applyThresholds(ctx, chunk, now, &c); err != nil {
				logger.Warnf(ctx, "archival: threshold step failed for %s: %v", chunk.ChunkID, err)
			}
		}
	}

	// Step 5: hard-archive anything cold long enough, independent of the
	// threshold pass above (a chunk may have been cold_storage for a while).
	cutoff := now.AddDate(0, 0, -m.cfg.ColdArchiveDays).Unix()
	snapshots, err := m.analytics.ListColdArchivedOlderThan(ctx, cutoff)
	if err != nil {
		return c, err
	}
	for _, snap := range snapshots {
		if err := m.hardArchive(ctx, snap, now); err != nil {
			logger.Warnf(ctx, "archival: hard-archive failed for %s: %v", snap.ChunkID, err)
			continue
		}
		c.HardArchived++
	}

	logger.Infof(ctx, "archival pipeline: cold=%d deprecated=%d restored=%d hard=%d",
		c.ColdArchived, c.Deprecated, c.Restored, c.HardArchived)
	return c, nil
}

func (m *Manager) applyThresholds(ctx context.Context, chunk *types.ChunkData, now time.Time, c *Counters) error {
	switch {
	case chunk.QualityScore < m.cfg.ScoreThresholdArchive:
		if err := m.coldArchive(ctx, chunk, now); err != nil {
			return err
		}
		c.ColdArchived++

	case chunk.QualityScore < m.cfg.ScoreThresholdDeprecated && chunk.Status == types.ChunkStatusActive:
		if err := m.graph.UpdateMetadata(ctx, chunk.ChunkID, map[string]any{
			"status": types.ChunkStatusDeprecated, "deprecated_at": &now,
		}); err != nil {
			return err
		}
		c.Deprecated++

	case chunk.QualityScore >= m.cfg.RestoreThreshold && chunk.Status == types.ChunkStatusDeprecated:
		if err := m.graph.UpdateMetadata(ctx, chunk.ChunkID, map[string]any{
			"status": types.ChunkStatusActive, "deprecated_at": (*time.Time)(nil),
		}); err != nil {
			return err
		}
		c.Restored++
	}
	return nil
}

// coldArchive copies a snapshot into the analytics archive table and flips
// the chunk to cold_storage (spec §4.6 step 2).
func (m *Manager) coldArchive(ctx context.Context, chunk *types.ChunkData, now time.Time) error {
	if err := m.analytics.ArchiveChunkSnapshot(ctx, &interfaces.ArchiveSnapshot{
		ChunkID:        chunk.ChunkID,
		Content:        chunk.Content,
		FinalScore:     chunk.QualityScore,
		AccessCount:    chunk.AccessCount,
		FeedbackCount:  chunk.FeedbackCount,
		ColdArchivedAt: now.Unix(),
		Metadata: map[string]any{
			"page_id": chunk.PageID, "space_key": chunk.SpaceKey, "doc_type": chunk.DocType, "owner": chunk.Owner,
		},
	}); err != nil {
		return err
	}
	return m.graph.UpdateMetadata(ctx, chunk.ChunkID, map[string]any{
		"status": types.ChunkStatusColdArchived, "cold_archived_at": &now,
	})
}

// hardArchiveRecord is the complete JSON record written to the
// date-partitioned on-disk path (spec §4.6 step 5).
type hardArchiveRecord struct {
	ChunkID        string         `json:"chunk_id"`
	Content        string         `json:"content"`
	Metadata       map[string]any `json:"metadata"`
	FinalScore     float64        `json:"final_score"`
	AccessCount    int64          `json:"access_count"`
	FeedbackCount  int64          `json:"feedback_count"`
	ColdArchivedAt int64          `json:"cold_archived_at"`
	HardArchivedAt int64          `json:"hard_archived_at"`
	Reason         string         `json:"reason"`
}

func (m *Manager) hardArchive(ctx context.Context, snap *interfaces.ArchiveSnapshot, now time.Time) error {
	record := hardArchiveRecord{
		ChunkID: snap.ChunkID, Content: snap.Content, Metadata: snap.Metadata,
		FinalScore: snap.FinalScore, AccessCount: snap.AccessCount, FeedbackCount: snap.FeedbackCount,
		ColdArchivedAt: snap.ColdArchivedAt, HardArchivedAt: now.Unix(),
		Reason: fmt.Sprintf("cold_archived for over %d days", m.cfg.ColdArchiveDays),
	}
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return err
	}

	path := fmt.Sprintf("%s/%s/%s.json", now.Format("2006"), now.Format("01"), snap.ChunkID)
	if err := m.archive.Write(ctx, path, data); err != nil {
		return err
	}
	if err := m.analytics.DeleteArchiveSnapshot(ctx, snap.ChunkID); err != nil {
		return err
	}
	return m.graph.UpdateMetadata(ctx, snap.ChunkID, map[string]any{
		"status": types.ChunkStatusHardArchived, "hard_archived_at": &now,
	})
}

// DeprecateChunk implements the "deprecate_chunk" primitive used by conflict
// resolution: zeroes quality_score and sets status=deprecated (spec §4.6
// "Conflict resolution").
func (m *Manager) DeprecateChunk(ctx context.Context, chunkID, _ string) error {
	now := time.Now()
	if err := m.graph.UpdateQualityScore(ctx, chunkID, 0, false); err != nil {
		return err
	}
	return m.graph.UpdateMetadata(ctx, chunkID, map[string]any{
		"status": types.ChunkStatusDeprecated, "deprecated_at": &now,
	})
}

// newConflictID mints a random conflict id, grounded on the teacher's use of
// google/uuid for entity identifiers throughout the repository layer.
func newConflictID() string {
	return uuid.New().String()
}
