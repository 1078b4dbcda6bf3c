package ingestion

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/beacon-labs/wikimind/internal/types"
)

// IngestFactoid implements the `<prefix>create-knowledge <text>` chat
// command (spec §6): text becomes the sole chunk's content, doc_type is
// fixed to "quick_fact", and the chunk is upserted through the same
// embed+checkpoint+breaker path as wiki ingestion (spec §4.2's upsert
// path, reused rather than duplicated).
func (p *Pipeline) IngestFactoid(ctx context.Context, text, ownerUserID, channelID string) (*types.ChunkData, error) {
	pageID := "factoid_" + uuid.New().String()
	now := time.Now()
	chunk := &types.ChunkData{
		ChunkID:    pageID + "_0",
		PageID:     pageID,
		ChunkIndex: 0,
		PageTitle:  truncateTitle(text),
		Content:    text,
		ChunkType:  types.ChunkTypeText,
		SpaceKey:   channelID,
		Author:     ownerUserID,
		AuthorName: ownerUserID,
		DocType:    "quick_fact",
		QualityScore: 100,
		EventTime:    now,
		IngestedAt:   now,
		Status:       types.ChunkStatusActive,
	}
	chunk.Normalize()

	if counters := p.upsertBatch(ctx, []*types.ChunkData{chunk}, false); counters.Errors > 0 {
		return nil, fmt.Errorf("ingest factoid: chunk %s failed to upsert", chunk.ChunkID)
	}
	return chunk, nil
}

// IngestDocument implements both the `<prefix>create-doc` modal submit and
// the `<prefix>ingest-doc <url>` command (spec §6): run arbitrary markup
// through the Chunker and upsert every resulting chunk, the same path
// ingestPage uses for wiki pages minus the WikiSource fetch.
func (p *Pipeline) IngestDocument(ctx context.Context, markup, title, docType, classification, spaceKey, ownerUserID string) (int, error) {
	pageID := "doc_" + uuid.New().String()
	chunks, err := p.chunker.Chunk(markup, pageID, title)
	if err != nil {
		return 0, fmt.Errorf("chunk document: %w", err)
	}
	if len(chunks) == 0 {
		return 0, nil
	}

	now := time.Now()
	for _, chunk := range chunks {
		chunk.SpaceKey = spaceKey
		chunk.Author = ownerUserID
		chunk.AuthorName = ownerUserID
		chunk.Owner = ownerUserID
		chunk.DocType = docType
		if classification != "" {
			chunk.Classification = types.Classification(classification)
		}
		chunk.QualityScore = 100
		chunk.EventTime = now
		chunk.IngestedAt = now
		chunk.Status = types.ChunkStatusActive
		chunk.Normalize()
	}

	if counters := p.upsertBatch(ctx, chunks, false); counters.Errors > 0 {
		return 0, fmt.Errorf("ingest document: %d of %d chunks failed to upsert", counters.Errors, len(chunks))
	}
	return len(chunks), nil
}

func truncateTitle(text string) string {
	const max = 80
	r := []rune(text)
	if len(r) <= max {
		return text
	}
	return string(r[:max]) + "…"
}
