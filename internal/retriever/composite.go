package retriever

import (
	"context"
	"sync"

	"github.com/beacon-labs/wikimind/internal/types"
)

// fanOutCandidates runs every registered leg concurrently and unions their
// candidate sets, generalizing the teacher's concurrentRetrieve helper
// (internal/application/service/retriever/composite.go): best-effort, a
// single leg's failure does not sink the whole search.
func fanOutCandidates(ctx context.Context, engines []Engine, query string, k int, filters types.SearchFilters) []types.RawResult {
	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		merged  []types.RawResult
		byChunk = make(map[string]int) // chunk_id -> index in merged, for dedup-by-best-score
	)

	for _, engine := range engines {
		wg.Add(1)
		e := engine
		go func() {
			defer wg.Done()
			results, err := e.Retrieve(ctx, query, k, filters)
			if err != nil {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			for _, r := range results {
				if idx, ok := byChunk[r.ChunkID]; ok {
					if r.Score > merged[idx].Score {
						merged[idx] = r
					}
					continue
				}
				byChunk[r.ChunkID] = len(merged)
				merged = append(merged, r)
			}
		}()
	}

	wg.Wait()
	return merged
}
