package lifecycle

import (
	"context"
	"fmt"
	"time"

	"github.com/beacon-labs/wikimind/internal/logger"
	"github.com/beacon-labs/wikimind/internal/types"
	"github.com/beacon-labs/wikimind/internal/types/interfaces"
)

// SimilarChunk is one candidate from an upstream similarity search (the
// Retriever's semantic leg, or a dedicated nearest-neighbor pass) fed into
// conflict detection.
type SimilarChunk struct {
	ChunkID    string
	PageID     string
	Similarity float64
}

// contradictionVerdict is the structured response an LLM checker returns,
// bound via interfaces.LLM.GenerateJSON.
type contradictionVerdict struct {
	IsContradiction bool    `json:"is_contradiction"`
	Confidence      float64 `json:"confidence"`
	Explanation     string  `json:"explanation"`
}

// LLMChecker asks an LLM whether two chunks' content contradicts, used by
// DetectConflictsForChunk as the optional llmCheck collaborator (spec §4.6
// "Conflict detection").
type LLMChecker struct {
	llm interfaces.LLM
}

// NewLLMChecker wraps an LLM port for the conflict-detection prompt.
func NewLLMChecker(llm interfaces.LLM) *LLMChecker {
	return &LLMChecker{llm: llm}
}

// Check returns whether contentA contradicts contentB, per the LLM's
// judgement, using the GenerateJSON contract (spec DOMAIN STACK note on
// go-openai's GenerateJSON).
func (c *LLMChecker) Check(ctx context.Context, contentA, contentB string) (isContradiction bool, confidence float64, explanation string, err error) {
	prompt := fmt.Sprintf(
		"Two knowledge base passages are suspected of describing the same topic "+
			"inconsistently. Passage A:\n%s\n\nPassage B:\n%s\n\n"+
			"Respond with JSON {\"is_contradiction\": bool, \"confidence\": 0..1, \"explanation\": string}.",
		contentA, contentB,
	)
	var verdict contradictionVerdict
	if err := c.llm.GenerateJSON(ctx, prompt, &verdict); err != nil {
		return false, 0, "", err
	}
	return verdict.IsContradiction, verdict.Confidence, verdict.Explanation, nil
}

// DetectConflictsForChunk implements spec §4.6's conflict-detection rule:
// every candidate from a different page above the similarity threshold is
// recorded either as a contradiction (LLM-confirmed) or an
// outdated_duplicate, suppressing symmetric duplicates.
func (m *Manager) DetectConflictsForChunk(
	ctx context.Context,
	chunkID string,
	candidates []SimilarChunk,
	llmCheck *LLMChecker,
) (recorded int, err error) {
	origin, found, err := m.graph.GetChunkByID(ctx, chunkID)
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, nil
	}

	for _, cand := range candidates {
		if cand.Similarity < m.cfg.ConflictSimilarityThreshold || cand.PageID == origin.PageID {
			continue
		}

		conflict := &types.ContentConflict{
			ID: newConflictID(), ChunkAID: chunkID, ChunkBID: cand.ChunkID,
			Status: types.ConflictStatusOpen, SimilarityScore: cand.Similarity,
		}
		exists, err := m.analytics.OpenConflictExists(ctx, conflict.PairKey())
		if err != nil {
			logger.Warnf(ctx, "conflict lookup failed for %s: %v", conflict.PairKey(), err)
			continue
		}
		if exists {
			continue
		}

		if llmCheck != nil {
			candChunk, found, cerr := m.graph.GetChunkByID(ctx, cand.ChunkID)
			if cerr == nil && found {
				isContradiction, confidence, explanation, lerr := llmCheck.Check(ctx, origin.Content, candChunk.Content)
				if lerr == nil && isContradiction && confidence >= m.cfg.ConflictConfidenceThreshold {
					conflict.ConflictType = types.ConflictContradiction
					conflict.ConfidenceScore = confidence
					conflict.AIExplanation = explanation
				}
			}
		}
		if conflict.ConflictType == "" {
			conflict.ConflictType = types.ConflictOutdatedDuplicate
		}

		inserted, err := m.analytics.InsertConflict(ctx, conflict)
		if err != nil {
			logger.Warnf(ctx, "conflict insert failed for %s: %v", conflict.PairKey(), err)
			continue
		}
		if inserted {
			recorded++
		}
	}
	return recorded, nil
}

// ResolveConflict translates the chosen resolution action into chunk state
// changes (spec §4.6 "Conflict resolution"): keep_a/keep_b deprecate the
// losing chunk, archive_both deprecates both, merge makes no automatic
// content change and only marks the conflict resolved for human follow-up.
func (m *Manager) ResolveConflict(ctx context.Context, conflict *types.ContentConflict, resolution types.ConflictResolution, resolvedBy string) error {
	switch resolution {
	case types.ResolutionKeepA:
		if err := m.DeprecateChunk(ctx, conflict.ChunkBID, "conflict resolved: kept "+conflict.ChunkAID); err != nil {
			return err
		}
	case types.ResolutionKeepB:
		if err := m.DeprecateChunk(ctx, conflict.ChunkAID, "conflict resolved: kept "+conflict.ChunkBID); err != nil {
			return err
		}
	case types.ResolutionArchiveBoth:
		if err := m.DeprecateChunk(ctx, conflict.ChunkAID, "conflict resolved: archived both"); err != nil {
			return err
		}
		if err := m.DeprecateChunk(ctx, conflict.ChunkBID, "conflict resolved: archived both"); err != nil {
			return err
		}
	case types.ResolutionMerge:
		// No automatic content merge; human follow-up required.
	}

	now := time.Now()
	conflict.Status = types.ConflictStatusResolved
	conflict.Resolution = resolution
	conflict.ResolvedBy = resolvedBy
	conflict.ResolvedAt = &now
	return m.analytics.UpdateConflict(ctx, conflict)
}
