package retriever

import (
	"context"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/beacon-labs/wikimind/internal/config"
	"github.com/beacon-labs/wikimind/internal/types"
	"github.com/beacon-labs/wikimind/internal/types/interfaces"
)

// Retriever is the top-level Search API (spec §4.4): over-fetch, filter,
// quality-boost, optional graph expansion.
type Retriever struct {
	graph    interfaces.GraphStore
	registry *Registry
	cfg      *config.RetrieverConfig
}

// New builds a Retriever over a populated engine registry. Callers register
// the semantic and (optionally) lexical legs before passing the registry in.
func New(graph interfaces.GraphStore, registry *Registry, cfg *config.RetrieverConfig) *Retriever {
	if cfg == nil {
		cfg = &config.RetrieverConfig{QualityBoostWeight: 0.2, GraphExpansionM: 5}
	}
	return &Retriever{graph: graph, registry: registry, cfg: cfg}
}

// Search implements spec §4.4's four-step algorithm.
func (r *Retriever) Search(
	ctx context.Context,
	query string,
	k int,
	filters types.SearchFilters,
	useQualityBoost bool,
	useGraphExpansion bool,
) ([]types.SearchResult, error) {
	if k <= 0 {
		return nil, nil
	}

	// Step 1: over-fetch 3k candidates across every registered leg.
	overFetch := 3 * k
	candidates := fanOutCandidates(ctx, r.registry.All(), query, overFetch, filters)

	// Step 2: filter deleted and re-apply filters defence-in-depth.
	filtered := make([]types.RawResult, 0, len(candidates))
	for _, c := range candidates {
		if c.Metadata == nil {
			filtered = append(filtered, c)
			continue
		}
		if c.Metadata.Deleted() {
			continue
		}
		if !filters.Match(c.Metadata) {
			continue
		}
		filtered = append(filtered, c)
	}

	// Step 3: quality boost, re-sort, truncate to k.
	results := make([]types.SearchResult, 0, len(filtered))
	for _, c := range filtered {
		score := c.Score
		if useQualityBoost && c.Metadata != nil {
			score = boostScore(score, c.Metadata.QualityScore, r.cfg.QualityBoostWeight)
		}
		results = append(results, types.SearchResult{ChunkID: c.ChunkID, Content: c.Content, Score: score, Metadata: c.Metadata})
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if len(results) > k {
		results = results[:k]
	}

	// Step 4: opt-in graph expansion.
	if useGraphExpansion && r.graph != nil {
		expansion, err := r.expand(ctx, results, k)
		if err == nil {
			results = append(results, expansion...)
		}
	}

	return results, nil
}

// boostScore applies spec §4.4's quality-boost transform:
// boostedScore = score * (1 + w * (2*(quality/100) - 1)).
func boostScore(score, quality, w float64) float64 {
	return score * (1 + w*(2*(quality/100)-1))
}

// expand issues one RelatedByEntity call per top-m result and appends up to
// k/3 additional chunks ranked by shared-entity count, deduped against the
// already-selected set (spec §4.4 step 4).
func (r *Retriever) expand(ctx context.Context, top []types.SearchResult, k int) ([]types.SearchResult, error) {
	m := r.cfg.GraphExpansionM
	if m <= 0 {
		m = 5
	}
	if len(top) < m {
		m = len(top)
	}
	if m == 0 {
		return nil, nil
	}

	seen := make(map[string]bool, len(top))
	for _, res := range top {
		seen[res.ChunkID] = true
	}

	var (
		mu      sync.Mutex
		related []types.RawResult
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, res := range top[:m] {
		chunkID := res.ChunkID
		g.Go(func() error {
			hits, err := r.graph.RelatedByEntity(gctx, chunkID, k)
			if err != nil {
				return nil // best-effort: one seed's failure doesn't sink expansion
			}
			mu.Lock()
			defer mu.Unlock()
			related = append(related, hits...)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	byChunk := make(map[string]types.RawResult, len(related))
	for _, h := range related {
		if seen[h.ChunkID] {
			continue
		}
		if existing, ok := byChunk[h.ChunkID]; !ok || h.Score > existing.Score {
			byChunk[h.ChunkID] = h
		}
	}
	merged := make([]types.RawResult, 0, len(byChunk))
	for _, h := range byChunk {
		merged = append(merged, h)
	}
	sort.SliceStable(merged, func(i, j int) bool { return merged[i].Score > merged[j].Score })

	limit := k / 3
	if limit > len(merged) {
		limit = len(merged)
	}
	out := make([]types.SearchResult, 0, limit)
	for _, h := range merged[:limit] {
		out = append(out, types.SearchResult{ChunkID: h.ChunkID, Content: h.Content, Score: h.Score, Metadata: h.Metadata})
	}
	return out, nil
}
