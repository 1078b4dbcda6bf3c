package retriever

import (
	"context"

	"github.com/beacon-labs/wikimind/internal/types"
	"github.com/beacon-labs/wikimind/internal/types/interfaces"
)

// SemanticEngine is the primary candidate leg: the GraphStore's native
// hybrid index, merged with the pgvector-backed embedding cache as a
// second, swappable candidate source (spec DOMAIN STACK note on
// AnalyticsStore.SearchEmbeddingCache).
type SemanticEngine struct {
	graph     interfaces.GraphStore
	analytics interfaces.AnalyticsStore
	embedder  interfaces.Embedder
}

// NewSemanticEngine wires the GraphStore and, when both analytics and an
// embedder are supplied, the pgvector cache leg.
func NewSemanticEngine(graph interfaces.GraphStore, analytics interfaces.AnalyticsStore, embedder interfaces.Embedder) *SemanticEngine {
	return &SemanticEngine{graph: graph, analytics: analytics, embedder: embedder}
}

func (e *SemanticEngine) EngineType() EngineType { return EngineSemantic }

func (e *SemanticEngine) Retrieve(ctx context.Context, query string, k int, filters types.SearchFilters) ([]types.RawResult, error) {
	results, err := e.graph.SearchHybrid(ctx, query, k, filters)
	if err != nil && isConnectionError(err) {
		// Retry once: the teacher's adapters re-open their own session per
		// call, so the retry alone exercises the driver's reconnect path.
		results, err = e.graph.SearchHybrid(ctx, query, k, filters)
	}
	if err != nil {
		return nil, err
	}

	cacheHits := e.cacheCandidates(ctx, query, k)
	if len(cacheHits) == 0 {
		return results, nil
	}
	return mergeByChunkID(results, cacheHits), nil
}

// cacheCandidates embeds the query and consults the pgvector cache,
// best-effort: a cache miss or embedder failure never fails the search.
func (e *SemanticEngine) cacheCandidates(ctx context.Context, query string, k int) []types.RawResult {
	if e.analytics == nil || e.embedder == nil {
		return nil
	}
	vector, err := e.embedder.EmbedSingle(ctx, query)
	if err != nil {
		return nil
	}
	hits, err := e.analytics.SearchEmbeddingCache(ctx, vector, k)
	if err != nil {
		return nil
	}
	out := make([]types.RawResult, 0, len(hits))
	for _, h := range hits {
		chunk, found, err := e.graph.GetChunkByID(ctx, h.ChunkID)
		if err != nil || !found {
			continue
		}
		out = append(out, types.RawResult{
			ChunkID:  h.ChunkID,
			Content:  chunk.Content,
			Score:    distanceToScore(h.Distance),
			Metadata: chunk,
		})
	}
	return out
}

// distanceToScore maps a cosine distance in [0,2] to a similarity score in
// [0,1], consistent with the native index's 0-1 score range.
func distanceToScore(distance float64) float64 {
	score := 1 - distance/2
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// mergeByChunkID unions two candidate sets, keeping the higher score for
// any chunk_id present in both.
func mergeByChunkID(primary, secondary []types.RawResult) []types.RawResult {
	byID := make(map[string]types.RawResult, len(primary)+len(secondary))
	order := make([]string, 0, len(primary)+len(secondary))
	for _, r := range primary {
		byID[r.ChunkID] = r
		order = append(order, r.ChunkID)
	}
	for _, r := range secondary {
		if existing, ok := byID[r.ChunkID]; !ok {
			byID[r.ChunkID] = r
			order = append(order, r.ChunkID)
		} else if r.Score > existing.Score {
			byID[r.ChunkID] = r
		}
	}
	out := make([]types.RawResult, 0, len(order))
	for _, id := range order {
		out = append(out, byID[id])
	}
	return out
}
