package quality

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beacon-labs/wikimind/internal/config"
	"github.com/beacon-labs/wikimind/internal/graphstore/memory"
	"github.com/beacon-labs/wikimind/internal/types"
	"github.com/beacon-labs/wikimind/internal/types/interfaces"
)

type fakeAnalytics struct {
	mu        sync.Mutex
	feedback  map[string]*types.FeedbackRecord
	byChunk   map[string][]*types.FeedbackRecord
	signals   map[string][]*types.BehavioralSignal
	followUps map[string]bool
}

func newFakeAnalytics() *fakeAnalytics {
	return &fakeAnalytics{
		feedback:  map[string]*types.FeedbackRecord{},
		byChunk:   map[string][]*types.FeedbackRecord{},
		signals:   map[string][]*types.BehavioralSignal{},
		followUps: map[string]bool{},
	}
}

func (a *fakeAnalytics) InsertFeedback(_ context.Context, rec *types.FeedbackRecord) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	key := rec.IdempotencyKey()
	if _, exists := a.feedback[key]; exists {
		return false, nil
	}
	a.feedback[key] = rec
	a.byChunk[rec.ChunkID] = append(a.byChunk[rec.ChunkID], rec)
	return true, nil
}
func (a *fakeAnalytics) InsertSignal(_ context.Context, sig *types.BehavioralSignal) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, id := range sig.ChunkIDs {
		a.signals[id] = append(a.signals[id], sig)
	}
	return nil
}
func (a *fakeAnalytics) InsertBotResponse(context.Context, *types.BotResponse) (bool, error) {
	return true, nil
}
func (a *fakeAnalytics) GetBotResponse(context.Context, string) (*types.BotResponse, bool, error) {
	return nil, false, nil
}
func (a *fakeAnalytics) SetHasFollowUp(_ context.Context, responseTS string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.followUps[responseTS] = true
	return nil
}
func (a *fakeAnalytics) FeedbackSince(_ context.Context, chunkID string, _ int64) ([]*types.FeedbackRecord, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.byChunk[chunkID], nil
}
func (a *fakeAnalytics) SignalsSince(_ context.Context, chunkID string, _ int64) ([]*types.BehavioralSignal, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.signals[chunkID], nil
}
func (a *fakeAnalytics) NegativeFeedbackCountInWindow(context.Context, string, int64) (int, error) {
	return 0, nil
}
func (a *fakeAnalytics) UpsertCheckpoint(context.Context, *types.IndexingCheckpoint) error { return nil }
func (a *fakeAnalytics) GetCheckpoint(context.Context, string) (*types.IndexingCheckpoint, bool, error) {
	return nil, false, nil
}
func (a *fakeAnalytics) IndexedInSessionOrBefore(context.Context, string) (bool, error) {
	return false, nil
}
func (a *fakeAnalytics) UpsertPage(context.Context, *types.Page) error { return nil }
func (a *fakeAnalytics) GetPage(context.Context, string) (*types.Page, bool, error) {
	return nil, false, nil
}
func (a *fakeAnalytics) InsertConflict(context.Context, *types.ContentConflict) (bool, error) {
	return true, nil
}
func (a *fakeAnalytics) OpenConflictExists(context.Context, string) (bool, error) { return false, nil }
func (a *fakeAnalytics) UpdateConflict(context.Context, *types.ContentConflict) error { return nil }
func (a *fakeAnalytics) ListOpenConflicts(context.Context) ([]*types.ContentConflict, error) {
	return nil, nil
}
func (a *fakeAnalytics) ArchiveChunkSnapshot(context.Context, *interfaces.ArchiveSnapshot) error {
	return nil
}
func (a *fakeAnalytics) GetArchiveSnapshot(context.Context, string) (*interfaces.ArchiveSnapshot, bool, error) {
	return nil, false, nil
}
func (a *fakeAnalytics) DeleteArchiveSnapshot(context.Context, string) error { return nil }
func (a *fakeAnalytics) ListColdArchivedOlderThan(context.Context, int64) ([]*interfaces.ArchiveSnapshot, error) {
	return nil, nil
}
func (a *fakeAnalytics) CacheChunkEmbedding(context.Context, string, []float32) error { return nil }
func (a *fakeAnalytics) SearchEmbeddingCache(context.Context, []float32, int) ([]interfaces.EmbeddingCacheHit, error) {
	return nil, nil
}

func testQualityConfig() *config.QualityConfig {
	return &config.QualityConfig{
		FeedbackWeight: 0.35, BehaviorWeight: 0.25, RelevanceWeight: 0.25, FreshnessWeight: 0.15,
		FeedbackWindowDays: 90,
		ImmediateDeltas: map[string]float64{
			"helpful": 5, "outdated": -20, "incorrect": -25, "confusing": -10,
		},
	}
}

func TestRecordFeedbackAppliesDeltaAndIsIdempotent(t *testing.T) {
	graph := memory.New()
	ctx := context.Background()
	require.NoError(t, graph.UpsertChunk(ctx, &types.ChunkData{ChunkID: "c1", QualityScore: 50}))

	e := New(graph, newFakeAnalytics(), testQualityConfig())
	rec := &types.FeedbackRecord{ChunkID: "c1", UserID: "u1", FeedbackType: types.FeedbackHelpful, MessageTS: "1.0"}

	require.NoError(t, e.RecordFeedback(ctx, rec))
	chunk, _, _ := graph.GetChunkByID(ctx, "c1")
	assert.InDelta(t, 55, chunk.QualityScore, 1e-9)
	assert.Equal(t, int64(1), chunk.FeedbackCount)

	// Duplicate submission (same idempotency key) must not apply the delta twice.
	require.NoError(t, e.RecordFeedback(ctx, rec))
	chunk, _, _ = graph.GetChunkByID(ctx, "c1")
	assert.InDelta(t, 55, chunk.QualityScore, 1e-9)
	assert.Equal(t, int64(1), chunk.FeedbackCount)
}

func TestRecordSignalFlipsHasFollowUp(t *testing.T) {
	graph := memory.New()
	analytics := newFakeAnalytics()
	e := New(graph, analytics, testQualityConfig())
	ctx := context.Background()

	sig := &types.BehavioralSignal{ResponseRef: "resp-1", ChunkIDs: []string{"c1"}, SignalType: types.SignalFollowUp, SignalValue: -0.3}
	require.NoError(t, e.RecordSignal(ctx, sig))
	assert.True(t, analytics.followUps["resp-1"])
	assert.Len(t, analytics.signals["c1"], 1)
}

func TestRecordAccessIncrementsCount(t *testing.T) {
	graph := memory.New()
	ctx := context.Background()
	require.NoError(t, graph.UpsertChunk(ctx, &types.ChunkData{ChunkID: "c1"}))
	e := New(graph, newFakeAnalytics(), testQualityConfig())

	require.NoError(t, e.RecordAccess(ctx, "c1"))
	require.NoError(t, e.RecordAccess(ctx, "c1"))
	chunk, _, _ := graph.GetChunkByID(ctx, "c1")
	assert.Equal(t, int64(2), chunk.AccessCount)
}
