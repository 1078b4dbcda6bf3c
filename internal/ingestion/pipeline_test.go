package ingestion

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beacon-labs/wikimind/internal/config"
	"github.com/beacon-labs/wikimind/internal/types"
	"github.com/beacon-labs/wikimind/internal/types/interfaces"
)

type fakeSource struct {
	pages map[string][]interfaces.WikiSourcePage
	bodies map[string]*interfaces.WikiSourceBody
}

func (f *fakeSource) ListPages(_ context.Context, spaceKey, _ string) ([]interfaces.WikiSourcePage, string, error) {
	return f.pages[spaceKey], "", nil
}

func (f *fakeSource) GetPageBody(_ context.Context, pageID string) (*interfaces.WikiSourceBody, error) {
	return f.bodies[pageID], nil
}

type fakeGraph struct {
	mu     sync.Mutex
	chunks map[string]*types.ChunkData
}

func newFakeGraph() *fakeGraph { return &fakeGraph{chunks: map[string]*types.ChunkData{}} }

func (g *fakeGraph) UpsertChunk(_ context.Context, c *types.ChunkData) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.chunks[c.ChunkID] = c
	return nil
}
func (g *fakeGraph) GetChunkByID(_ context.Context, id string) (*types.ChunkData, bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	c, ok := g.chunks[id]
	return c, ok, nil
}
func (g *fakeGraph) UpdateMetadata(context.Context, string, map[string]any) error { return nil }
func (g *fakeGraph) UpdateQualityScore(context.Context, string, float64, bool) error {
	return nil
}
func (g *fakeGraph) SearchHybrid(context.Context, string, int, types.SearchFilters) ([]types.RawResult, error) {
	return nil, nil
}
func (g *fakeGraph) BulkList(context.Context, int, *int64) ([]*types.ChunkData, error) {
	return nil, nil
}
func (g *fakeGraph) RelatedByEntity(context.Context, string, int) ([]types.RawResult, error) {
	return nil, nil
}
func (g *fakeGraph) CheckHealth(context.Context) bool { return true }

type fakeAnalytics struct {
	mu          sync.Mutex
	pages       map[string]*types.Page
	checkpoints map[string]*types.IndexingCheckpoint
}

func newFakeAnalytics() *fakeAnalytics {
	return &fakeAnalytics{pages: map[string]*types.Page{}, checkpoints: map[string]*types.IndexingCheckpoint{}}
}

func (a *fakeAnalytics) InsertFeedback(context.Context, *types.FeedbackRecord) (bool, error) { return true, nil }
func (a *fakeAnalytics) InsertSignal(context.Context, *types.BehavioralSignal) error          { return nil }
func (a *fakeAnalytics) InsertBotResponse(context.Context, *types.BotResponse) (bool, error) {
	return true, nil
}
func (a *fakeAnalytics) GetBotResponse(context.Context, string) (*types.BotResponse, bool, error) {
	return nil, false, nil
}
func (a *fakeAnalytics) SetHasFollowUp(context.Context, string) error { return nil }
func (a *fakeAnalytics) FeedbackSince(context.Context, string, int64) ([]*types.FeedbackRecord, error) {
	return nil, nil
}
func (a *fakeAnalytics) SignalsSince(context.Context, string, int64) ([]*types.BehavioralSignal, error) {
	return nil, nil
}
func (a *fakeAnalytics) NegativeFeedbackCountInWindow(context.Context, string, int64) (int, error) {
	return 0, nil
}
func (a *fakeAnalytics) UpsertCheckpoint(_ context.Context, cp *types.IndexingCheckpoint) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.checkpoints[cp.ChunkID] = cp
	return nil
}
func (a *fakeAnalytics) GetCheckpoint(_ context.Context, chunkID string) (*types.IndexingCheckpoint, bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	cp, ok := a.checkpoints[chunkID]
	return cp, ok, nil
}
func (a *fakeAnalytics) IndexedInSessionOrBefore(_ context.Context, chunkID string) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	cp, ok := a.checkpoints[chunkID]
	return ok && cp.Status == types.CheckpointIndexed, nil
}
func (a *fakeAnalytics) UpsertPage(_ context.Context, p *types.Page) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.pages[p.PageID] = p
	return nil
}
func (a *fakeAnalytics) GetPage(_ context.Context, pageID string) (*types.Page, bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	p, ok := a.pages[pageID]
	return p, ok, nil
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

func testConfig() (*config.IngestionConfig, *config.ChunkerConfig) {
	return &config.IngestionConfig{Concurrency: 2, BreakerThreshold: 5, BreakerCooldown: time.Minute},
		&config.ChunkerConfig{MaxChunkSize: 1000, MinChunkSize: 10, Overlap: 50}
}

func TestSyncSpacesIngestsNewPage(t *testing.T) {
	ingestionCfg, chunkerCfg := testConfig()
	source := &fakeSource{
		pages: map[string][]interfaces.WikiSourcePage{
			"ENG": {{PageID: "p1", Title: "Doc", Status: "current", UpdatedAt: time.Now().Format(time.RFC3339)}},
		},
		bodies: map[string]*interfaces.WikiSourceBody{
			"p1": {PageID: "p1", HTML: "<html><body><p>" + repeat("hello world ", 10) + "</p></body></html>", Labels: []string{"owner:alice@example.com"}},
		},
	}
	graph := newFakeGraph()
	analytics := newFakeAnalytics()

	pipeline, err := New(ingestionCfg, chunkerCfg, source, graph, analytics, nil, nil)
	require.NoError(t, err)
	defer pipeline.Release()

	counters := pipeline.SyncSpaces(context.Background(), []string{"ENG"}, false, false)
	assert.Equal(t, 1, counters.New)
	assert.Equal(t, 0, counters.Errors)
	assert.NotEmpty(t, graph.chunks)

	for _, c := range graph.chunks {
		assert.Equal(t, "alice@example.com", c.Owner)
		assert.Equal(t, float64(100), c.QualityScore)
	}
}

func TestSyncSpacesSkipsUnchangedPage(t *testing.T) {
	ingestionCfg, chunkerCfg := testConfig()
	updatedAt := time.Now().Add(-time.Hour)
	source := &fakeSource{
		pages: map[string][]interfaces.WikiSourcePage{
			"ENG": {{PageID: "p1", Title: "Doc", Status: "current", UpdatedAt: updatedAt.Format(time.RFC3339)}},
		},
		bodies: map[string]*interfaces.WikiSourceBody{
			"p1": {PageID: "p1", HTML: "<p>" + repeat("hello world ", 10) + "</p>"},
		},
	}
	graph := newFakeGraph()
	analytics := newFakeAnalytics()
	analytics.pages["p1"] = &types.Page{PageID: "p1", UpdatedAt: updatedAt}

	pipeline, err := New(ingestionCfg, chunkerCfg, source, graph, analytics, nil, nil)
	require.NoError(t, err)
	defer pipeline.Release()

	counters := pipeline.SyncSpaces(context.Background(), []string{"ENG"}, false, false)
	assert.Equal(t, 1, counters.Skipped)
	assert.Empty(t, graph.chunks)
}

// TestUpsertBatchResumeSkipsIndexedChunks reproduces the resume scenario:
// 1000 chunks on a page, 600 already checkpointed as indexed from an earlier
// run. Resuming attempts the remaining 400 only; skipped/new are both
// chunk-granular (spec §4.2, §8 resume scenario).
func TestUpsertBatchResumeSkipsIndexedChunks(t *testing.T) {
	ingestionCfg, chunkerCfg := testConfig()
	graph := newFakeGraph()
	analytics := newFakeAnalytics()

	const total = 1000
	const alreadyIndexed = 600
	chunks := make([]*types.ChunkData, 0, total)
	for i := 0; i < total; i++ {
		id := fmt.Sprintf("chunk-%d", i)
		chunks = append(chunks, &types.ChunkData{ChunkID: id, Content: "x"})
		if i < alreadyIndexed {
			analytics.checkpoints[id] = &types.IndexingCheckpoint{
				ChunkID: id,
				Status:  types.CheckpointIndexed,
			}
		}
	}

	pipeline, err := New(ingestionCfg, chunkerCfg, nil, graph, analytics, nil, nil)
	require.NoError(t, err)
	defer pipeline.Release()

	counters := pipeline.upsertBatch(context.Background(), chunks, true)

	assert.Equal(t, alreadyIndexed, counters.Skipped)
	assert.Equal(t, total-alreadyIndexed, counters.New+counters.Updated)
	assert.Equal(t, 0, counters.Errors)
	assert.Len(t, graph.chunks, total-alreadyIndexed)
}

func repeat(s string, n int) string {
	out := ""
	for i := 0; i < n; i++ {
		out += s
	}
	return out
}
