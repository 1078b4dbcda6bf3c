package ingestion

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beacon-labs/wikimind/internal/config"
	"github.com/beacon-labs/wikimind/internal/types"
	"github.com/beacon-labs/wikimind/internal/types/interfaces"
)

type fakeAdhocGraph struct {
	upserted map[string]*types.ChunkData
}

func newFakeAdhocGraph() *fakeAdhocGraph {
	return &fakeAdhocGraph{upserted: map[string]*types.ChunkData{}}
}

func (g *fakeAdhocGraph) UpsertChunk(ctx context.Context, chunk *types.ChunkData) error {
	g.upserted[chunk.ChunkID] = chunk
	return nil
}
func (g *fakeAdhocGraph) GetChunkByID(ctx context.Context, chunkID string) (*types.ChunkData, bool, error) {
	c, ok := g.upserted[chunkID]
	return c, ok, nil
}
func (g *fakeAdhocGraph) UpdateMetadata(ctx context.Context, chunkID string, patch map[string]any) error {
	return nil
}
func (g *fakeAdhocGraph) UpdateQualityScore(ctx context.Context, chunkID string, newScore float64, incrementFeedbackCount bool) error {
	return nil
}
func (g *fakeAdhocGraph) SearchHybrid(ctx context.Context, query string, k int, filters types.SearchFilters) ([]types.RawResult, error) {
	return nil, nil
}
func (g *fakeAdhocGraph) BulkList(ctx context.Context, limit int, sinceEventTime *int64) ([]*types.ChunkData, error) {
	return nil, nil
}
func (g *fakeAdhocGraph) RelatedByEntity(ctx context.Context, chunkID string, limit int) ([]types.RawResult, error) {
	return nil, nil
}
func (g *fakeAdhocGraph) CheckHealth(ctx context.Context) bool { return true }

type fakeAdhocAnalytics struct{}

func (a *fakeAdhocAnalytics) InsertFeedback(ctx context.Context, rec *types.FeedbackRecord) (bool, error) {
	return true, nil
}
func (a *fakeAdhocAnalytics) InsertSignal(ctx context.Context, sig *types.BehavioralSignal) error {
	return nil
}
func (a *fakeAdhocAnalytics) InsertBotResponse(ctx context.Context, resp *types.BotResponse) (bool, error) {
	return true, nil
}
func (a *fakeAdhocAnalytics) GetBotResponse(ctx context.Context, responseTS string) (*types.BotResponse, bool, error) {
	return nil, false, nil
}
func (a *fakeAdhocAnalytics) SetHasFollowUp(ctx context.Context, responseTS string) error { return nil }
func (a *fakeAdhocAnalytics) FeedbackSince(ctx context.Context, chunkID string, since int64) ([]*types.FeedbackRecord, error) {
	return nil, nil
}
func (a *fakeAdhocAnalytics) SignalsSince(ctx context.Context, chunkID string, since int64) ([]*types.BehavioralSignal, error) {
	return nil, nil
}
func (a *fakeAdhocAnalytics) NegativeFeedbackCountInWindow(ctx context.Context, chunkID string, windowStart int64) (int, error) {
	return 0, nil
}
func (a *fakeAdhocAnalytics) UpsertCheckpoint(ctx context.Context, cp *types.IndexingCheckpoint) error {
	return nil
}
func (a *fakeAdhocAnalytics) GetCheckpoint(ctx context.Context, chunkID string) (*types.IndexingCheckpoint, bool, error) {
	return nil, false, nil
}
func (a *fakeAdhocAnalytics) IndexedInSessionOrBefore(ctx context.Context, chunkID string) (bool, error) {
	return false, nil
}
func (a *fakeAdhocAnalytics) UpsertPage(ctx context.Context, page *types.Page) error { return nil }
func (a *fakeAdhocAnalytics) GetPage(ctx context.Context, pageID string) (*types.Page, bool, error) {
	return nil, false, nil
}
func (a *fakeAdhocAnalytics) InsertConflict(ctx context.Context, c *types.ContentConflict) (bool, error) {
	return true, nil
}
func (a *fakeAdhocAnalytics) OpenConflictExists(ctx context.Context, pairKey string) (bool, error) {
	return false, nil
}
func (a *fakeAdhocAnalytics) UpdateConflict(ctx context.Context, c *types.ContentConflict) error {
	return nil
}
func (a *fakeAdhocAnalytics) ListOpenConflicts(ctx context.Context) ([]*types.ContentConflict, error) {
	return nil, nil
}
func (a *fakeAdhocAnalytics) ArchiveChunkSnapshot(ctx context.Context, snapshot *interfaces.ArchiveSnapshot) error {
	return nil
}
func (a *fakeAdhocAnalytics) GetArchiveSnapshot(ctx context.Context, chunkID string) (*interfaces.ArchiveSnapshot, bool, error) {
	return nil, false, nil
}
func (a *fakeAdhocAnalytics) DeleteArchiveSnapshot(ctx context.Context, chunkID string) error {
	return nil
}
func (a *fakeAdhocAnalytics) ListColdArchivedOlderThan(ctx context.Context, cutoff int64) ([]*interfaces.ArchiveSnapshot, error) {
	return nil, nil
}
func (a *fakeAdhocAnalytics) CacheChunkEmbedding(ctx context.Context, chunkID string, vector []float32) error {
	return nil
}
func (a *fakeAdhocAnalytics) SearchEmbeddingCache(ctx context.Context, vector []float32, k int) ([]interfaces.EmbeddingCacheHit, error) {
	return nil, nil
}

func newTestPipeline(t *testing.T) *Pipeline {
	t.Helper()
	chunkerCfg := &config.ChunkerConfig{MaxChunkSize: 1000, MinChunkSize: 20, Overlap: 50}
	p, err := New(&config.IngestionConfig{Concurrency: 2}, chunkerCfg, nil, newFakeAdhocGraph(), &fakeAdhocAnalytics{}, nil, nil)
	require.NoError(t, err)
	t.Cleanup(p.Release)
	return p
}

func TestIngestFactoidCreatesSingleActiveChunk(t *testing.T) {
	p := newTestPipeline(t)

	chunk, err := p.IngestFactoid(context.Background(), "the VPN endpoint is vpn.example.com", "U1", "C1")
	require.NoError(t, err)

	assert.Equal(t, "the VPN endpoint is vpn.example.com", chunk.Content)
	assert.Equal(t, "quick_fact", chunk.DocType)
	assert.Equal(t, "C1", chunk.SpaceKey)
	assert.Equal(t, "U1", chunk.Author)
	assert.Equal(t, types.ChunkStatusActive, chunk.Status)
	assert.True(t, strings.HasPrefix(chunk.PageID, "factoid_"))

	graph := p.graph.(*fakeAdhocGraph)
	_, found := graph.upserted[chunk.ChunkID]
	assert.True(t, found, "expected chunk to be upserted into the graph store")
}

func TestIngestFactoidTruncatesLongTitle(t *testing.T) {
	p := newTestPipeline(t)
	longText := strings.Repeat("a", 200)

	chunk, err := p.IngestFactoid(context.Background(), longText, "U1", "C1")
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(chunk.PageTitle, "…"))
	assert.Less(t, len([]rune(chunk.PageTitle)), len(longText))
}

func TestIngestDocumentChunksAndUpserts(t *testing.T) {
	p := newTestPipeline(t)

	html := "<html><body><h1>Deploy Guide</h1><p>Step one. Step two. Step three goes here to add bulk.</p></body></html>"
	n, err := p.IngestDocument(context.Background(), html, "Deploy Guide", "reference", "internal", "ENG", "U1")
	require.NoError(t, err)
	assert.Greater(t, n, 0)

	graph := p.graph.(*fakeAdhocGraph)
	assert.Len(t, graph.upserted, n)
	for _, chunk := range graph.upserted {
		assert.Equal(t, "ENG", chunk.SpaceKey)
		assert.Equal(t, "reference", chunk.DocType)
		assert.Equal(t, types.Classification("internal"), chunk.Classification)
		assert.Equal(t, types.ChunkStatusActive, chunk.Status)
	}
}

func TestIngestDocumentEmptyMarkupReturnsZero(t *testing.T) {
	p := newTestPipeline(t)

	n, err := p.IngestDocument(context.Background(), "", "Empty", "reference", "", "ENG", "U1")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestTruncateTitleLeavesShortTextUntouched(t *testing.T) {
	assert.Equal(t, "short", truncateTitle("short"))
}
