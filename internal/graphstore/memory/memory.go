// Package memory implements interfaces.GraphStore against an in-process
// map, grounded on the teacher's MemoryStreamManager
// (internal/stream/memory_manager.go): a single RWMutex-guarded map keyed
// by identity, used for tests and local demos where no neo4j cluster is
// available.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/beacon-labs/wikimind/internal/types"
	"github.com/beacon-labs/wikimind/internal/types/interfaces"
)

// Store is an in-memory GraphStore. Search ranks by simple token overlap;
// it is not a substitute for the neo4j adapter's full-text + vector score,
// only a stand-in for tests.
type Store struct {
	mu     sync.RWMutex
	chunks map[string]*types.ChunkData
}

// New builds an empty in-memory store.
func New() *Store {
	return &Store{chunks: make(map[string]*types.ChunkData)}
}

var _ interfaces.GraphStore = (*Store)(nil)

// UpsertChunk replaces content and metadata for chunk.ChunkID; idempotent.
func (s *Store) UpsertChunk(_ context.Context, chunk *types.ChunkData) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *chunk
	s.chunks[chunk.ChunkID] = &cp
	return nil
}

// GetChunkByID returns the chunk with the given ID, if present.
func (s *Store) GetChunkByID(_ context.Context, chunkID string) (*types.ChunkData, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.chunks[chunkID]
	if !ok {
		return nil, false, nil
	}
	cp := *c
	return &cp, true, nil
}

// UpdateMetadata merge-updates a subset of fields by name. Only the fields
// the rest of this codebase actually writes through this path are
// supported; unknown keys are ignored rather than erroring, matching the
// port's "preserve unknown keys" contract applied to a fixed schema.
func (s *Store) UpdateMetadata(_ context.Context, chunkID string, patch map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.chunks[chunkID]
	if !ok {
		return nil
	}
	if v, ok := patch["access_count"]; ok {
		if delta, ok := v.(int64); ok {
			c.AccessCount += delta
		}
	}
	if v, ok := patch["status"]; ok {
		if status, ok := v.(types.ChunkStatus); ok {
			c.Status = status
		}
	}
	if v, ok := patch["deleted_at"]; ok {
		if t, ok := v.(*time.Time); ok {
			c.DeletedAt = t
		}
	}
	if v, ok := patch["deprecated_at"]; ok {
		if t, ok := v.(*time.Time); ok {
			c.DeprecatedAt = t
		}
	}
	if v, ok := patch["cold_archived_at"]; ok {
		if t, ok := v.(*time.Time); ok {
			c.ColdArchivedAt = t
		}
	}
	if v, ok := patch["hard_archived_at"]; ok {
		if t, ok := v.(*time.Time); ok {
			c.HardArchivedAt = t
		}
	}
	return nil
}

// UpdateQualityScore clamps newScore to [0,100] and optionally bumps the
// feedback counter atomically with the write.
func (s *Store) UpdateQualityScore(_ context.Context, chunkID string, newScore float64, incrementFeedbackCount bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.chunks[chunkID]
	if !ok {
		return nil
	}
	c.QualityScore = types.ClampScore(newScore)
	if incrementFeedbackCount {
		c.FeedbackCount++
	}
	return nil
}

// SearchHybrid ranks chunks by normalized token overlap with query, as a
// stand-in for the semantic+lexical+graph composite score the neo4j
// adapter computes (spec §4.3).
func (s *Store) SearchHybrid(_ context.Context, query string, k int, filters types.SearchFilters) ([]types.RawResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	terms := tokenize(query)
	var results []types.RawResult
	for _, c := range s.chunks {
		if c.Deleted() || !filters.Match(c) {
			continue
		}
		score := overlapScore(terms, tokenize(c.Content))
		if score <= 0 {
			continue
		}
		cp := *c
		results = append(results, types.RawResult{ChunkID: c.ChunkID, Content: c.Content, Score: score, Metadata: &cp})
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if k > 0 && len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// BulkList enumerates chunks, optionally filtered to those with an event
// time at or after sinceEventTime (unix seconds).
func (s *Store) BulkList(_ context.Context, limit int, sinceEventTime *int64) ([]*types.ChunkData, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*types.ChunkData
	for _, c := range s.chunks {
		if sinceEventTime != nil && c.EventTime.Unix() < *sinceEventTime {
			continue
		}
		cp := *c
		out = append(out, &cp)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ChunkID < out[j].ChunkID })
	return out, nil
}

// RelatedByEntity returns chunks sharing topics with chunkID, ranked by the
// number of shared topics (a stand-in for the neo4j adapter's
// shared-entity graph traversal).
func (s *Store) RelatedByEntity(_ context.Context, chunkID string, limit int) ([]types.RawResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	origin, ok := s.chunks[chunkID]
	if !ok || len(origin.Topics) == 0 {
		return nil, nil
	}
	originTopics := toSet(origin.Topics)

	var results []types.RawResult
	for id, c := range s.chunks {
		if id == chunkID || c.Deleted() {
			continue
		}
		shared := 0
		for _, topic := range c.Topics {
			if originTopics[topic] {
				shared++
			}
		}
		if shared == 0 {
			continue
		}
		cp := *c
		results = append(results, types.RawResult{ChunkID: id, Content: c.Content, Score: float64(shared), Metadata: &cp})
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// CheckHealth always reports healthy; there is no connection to lose.
func (s *Store) CheckHealth(context.Context) bool { return true }

func tokenize(text string) []string {
	return strings.Fields(strings.ToLower(text))
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[item] = true
	}
	return set
}

func overlapScore(query, doc []string) float64 {
	if len(query) == 0 || len(doc) == 0 {
		return 0
	}
	docSet := toSet(doc)
	matched := 0
	for _, q := range query {
		if docSet[q] {
			matched++
		}
	}
	return float64(matched) / float64(len(query))
}
