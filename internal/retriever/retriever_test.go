package retriever

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beacon-labs/wikimind/internal/config"
	"github.com/beacon-labs/wikimind/internal/types"
)

type fakeEngine struct {
	engineType EngineType
	results    []types.RawResult
}

func (e *fakeEngine) EngineType() EngineType { return e.engineType }

func (e *fakeEngine) Retrieve(_ context.Context, _ string, k int, _ types.SearchFilters) ([]types.RawResult, error) {
	if k < len(e.results) {
		return e.results[:k], nil
	}
	return e.results, nil
}

func TestBoostScoreMatchesSpecWorkedExample(t *testing.T) {
	// Spec §8 worked example: same relevance score 0.80, quality 100 vs 25,
	// default w=0.2 -> A=0.96, B=0.72.
	assert.InDelta(t, 0.96, boostScore(0.80, 100, 0.2), 1e-9)
	assert.InDelta(t, 0.72, boostScore(0.80, 25, 0.2), 1e-9)
	assert.InDelta(t, 0.80, boostScore(0.80, 50, 0.2), 1e-9)
}

func TestSearchOrdersByBoostedScoreNotRawScore(t *testing.T) {
	chunkA := &types.ChunkData{ChunkID: "a", QualityScore: 100}
	chunkB := &types.ChunkData{ChunkID: "b", QualityScore: 25}

	engine := &fakeEngine{engineType: EngineSemantic, results: []types.RawResult{
		{ChunkID: "a", Content: "alpha", Score: 0.80, Metadata: chunkA},
		{ChunkID: "b", Content: "beta", Score: 0.80, Metadata: chunkB},
	}}
	registry := NewRegistry()
	require.NoError(t, registry.Register(engine))

	r := New(nil, registry, &config.RetrieverConfig{QualityBoostWeight: 0.2, GraphExpansionM: 5})
	results, err := r.Search(context.Background(), "query", 2, types.SearchFilters{}, true, false)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "a", results[0].ChunkID)
	assert.Equal(t, "b", results[1].ChunkID)
	assert.InDelta(t, 0.96, results[0].Score, 1e-9)
	assert.InDelta(t, 0.72, results[1].Score, 1e-9)
}

func TestSearchDropsDeletedAndFilterMismatches(t *testing.T) {
	active := &types.ChunkData{ChunkID: "keep", SpaceKey: "ENG"}
	deletedAt := &types.ChunkData{ChunkID: "gone", SpaceKey: "ENG", Status: types.ChunkStatusHardArchived}
	wrongSpace := &types.ChunkData{ChunkID: "other-space", SpaceKey: "HR"}

	engine := &fakeEngine{engineType: EngineSemantic, results: []types.RawResult{
		{ChunkID: "keep", Score: 0.5, Metadata: active},
		{ChunkID: "gone", Score: 0.9, Metadata: deletedAt},
		{ChunkID: "other-space", Score: 0.9, Metadata: wrongSpace},
	}}
	registry := NewRegistry()
	require.NoError(t, registry.Register(engine))

	r := New(nil, registry, nil)
	results, err := r.Search(context.Background(), "q", 5, types.SearchFilters{SpaceKey: "ENG"}, false, false)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "keep", results[0].ChunkID)
}

func TestSearchZeroKReturnsNil(t *testing.T) {
	r := New(nil, NewRegistry(), nil)
	results, err := r.Search(context.Background(), "q", 0, types.SearchFilters{}, true, false)
	require.NoError(t, err)
	assert.Nil(t, results)
}
