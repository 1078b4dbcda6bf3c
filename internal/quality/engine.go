package quality

import (
	"context"
	"time"

	"github.com/beacon-labs/wikimind/internal/config"
	"github.com/beacon-labs/wikimind/internal/logger"
	"github.com/beacon-labs/wikimind/internal/types"
	"github.com/beacon-labs/wikimind/internal/types/interfaces"
)

// Engine is the Quality Engine (spec §4.5): the explicit-feedback delta
// write path, the behavioral-signal recorder, and the scheduled composite
// recompute.
type Engine struct {
	graph     interfaces.GraphStore
	analytics interfaces.AnalyticsStore
	cfg       *config.QualityConfig
}

// New wires the two stores the Quality Engine reads/writes.
func New(graph interfaces.GraphStore, analytics interfaces.AnalyticsStore, cfg *config.QualityConfig) *Engine {
	return &Engine{graph: graph, analytics: analytics, cfg: cfg}
}

// RecordFeedback applies the immediate score delta and persists the
// feedback row, idempotent on (chunk_id, user, feedback_type, message_ts)
// (spec §4.5 "Write paths", spec §5 idempotency).
func (e *Engine) RecordFeedback(ctx context.Context, rec *types.FeedbackRecord) error {
	inserted, err := e.analytics.InsertFeedback(ctx, rec)
	if err != nil {
		return err
	}
	if !inserted {
		logger.Debugf(ctx, "duplicate feedback ignored: %s", rec.IdempotencyKey())
		return nil
	}

	chunk, found, err := e.graph.GetChunkByID(ctx, rec.ChunkID)
	if err != nil || !found {
		return err
	}
	delta := FeedbackDelta(e.cfg, rec.FeedbackType)
	newScore := types.ClampScore(chunk.QualityScore + delta)
	return e.graph.UpdateQualityScore(ctx, rec.ChunkID, newScore, true)
}

// RecordSignal persists a behavioral signal without mutating quality_score
// directly (spec §4.5: "record the signal; no immediate score mutation").
// When the signal is a follow-up, it flips the originating BotResponse's
// has_follow_up flag (spec §4.4/§4.8 thread semantics).
func (e *Engine) RecordSignal(ctx context.Context, sig *types.BehavioralSignal) error {
	if err := e.analytics.InsertSignal(ctx, sig); err != nil {
		return err
	}
	if sig.SignalType == types.SignalFollowUp && sig.ResponseRef != "" {
		return e.analytics.SetHasFollowUp(ctx, sig.ResponseRef)
	}
	return nil
}

// RecordAccess increments access_count atomically (spec §4.5 "On access").
func (e *Engine) RecordAccess(ctx context.Context, chunkID string) error {
	return e.graph.UpdateMetadata(ctx, chunkID, map[string]any{"access_count": int64(1)})
}

// RecomputeAll walks every chunk via BulkList and rewrites its composite
// quality_score (spec §4.5 "Scheduled recompute"). Errors on individual
// chunks are logged and skipped so one bad chunk doesn't abort the run.
func (e *Engine) RecomputeAll(ctx context.Context) (processed int, err error) {
	chunks, err := e.graph.BulkList(ctx, 0, nil)
	if err != nil {
		return 0, err
	}

	now := time.Now()
	windowStart := now.AddDate(0, 0, -e.cfg.FeedbackWindowDays).Unix()

	for _, chunk := range chunks {
		if chunk.Deleted() {
			continue
		}
		feedback, ferr := e.analytics.FeedbackSince(ctx, chunk.ChunkID, windowStart)
		if ferr != nil {
			logger.Warnf(ctx, "recompute: feedback lookup failed for %s: %v", chunk.ChunkID, ferr)
			continue
		}
		signals, serr := e.analytics.SignalsSince(ctx, chunk.ChunkID, windowStart)
		if serr != nil {
			logger.Warnf(ctx, "recompute: signal lookup failed for %s: %v", chunk.ChunkID, serr)
			continue
		}

		components := Components{
			Feedback:  FeedbackComponent(feedback),
			Behavior:  BehaviorComponent(signals),
			Relevance: RelevanceComponent(chunk.AccessCount, chunk.AccessCount),
			Freshness: FreshnessComponent(chunk.UpdatedAt, now),
		}
		score := Composite(components, e.cfg)
		score = types.ClampScore(score - DecayPoints(chunk.AccessCount, 1))

		if err := e.graph.UpdateQualityScore(ctx, chunk.ChunkID, score, false); err != nil {
			logger.Warnf(ctx, "recompute: write failed for %s: %v", chunk.ChunkID, err)
			continue
		}
		processed++
	}
	logger.Infof(ctx, "quality recompute processed %d chunks", processed)
	return processed, nil
}
