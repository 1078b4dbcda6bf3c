// Package neo4j adapts a temporal graph store to interfaces.GraphStore
// (spec §4.3), grounded on the teacher's Neo4jRepository
// (internal/application/repository/retriever/neo4j/repository.go): one
// session per call, MERGE-based idempotent writes, ExecuteWrite/
// ExecuteRead closures.
package neo4j

import (
	"context"
	"strings"
	"time"

	"github.com/neo4j/neo4j-go-driver/v6/neo4j"

	"github.com/beacon-labs/wikimind/internal/logger"
	"github.com/beacon-labs/wikimind/internal/types"
	"github.com/beacon-labs/wikimind/internal/types/interfaces"
)

// Store adapts a Chunk node graph (Chunk)-[:HAS_TOPIC]->(Topic) to the
// GraphStore port.
type Store struct {
	driver neo4j.Driver
}

// New wraps an already-connected neo4j driver.
func New(driver neo4j.Driver) *Store {
	return &Store{driver: driver}
}

var _ interfaces.GraphStore = (*Store)(nil)

// UpsertChunk idempotently MERGEs the chunk node by chunk_id, replacing
// content and metadata and re-linking :HAS_TOPIC edges (spec §4.3).
func (s *Store) UpsertChunk(ctx context.Context, chunk *types.ChunkData) error {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (interface{}, error) {
		props := chunkProps(chunk)
		query := `
			MERGE (c:Chunk {chunk_id: $chunk_id})
			SET c += $props
			WITH c
			OPTIONAL MATCH (c)-[r:HAS_TOPIC]->(:Topic)
			DELETE r
			WITH c
			UNWIND $topics AS topicName
			MERGE (t:Topic {name: topicName})
			MERGE (c)-[:HAS_TOPIC]->(t)
		`
		_, err := tx.Run(ctx, query, map[string]interface{}{
			"chunk_id": chunk.ChunkID,
			"props":    props,
			"topics":   chunk.Topics,
		})
		return nil, err
	})
	if err != nil {
		logger.Errorf(ctx, "upsert chunk %s: %v", chunk.ChunkID, err)
	}
	return err
}

// GetChunkByID fetches one chunk node by identity.
func (s *Store) GetChunkByID(ctx context.Context, chunkID string) (*types.ChunkData, bool, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (interface{}, error) {
		res, err := tx.Run(ctx, `MATCH (c:Chunk {chunk_id: $chunk_id}) RETURN c`, map[string]interface{}{"chunk_id": chunkID})
		if err != nil {
			return nil, err
		}
		if !res.Next(ctx) {
			return nil, nil
		}
		node := res.Record().Values[0].(neo4j.Node)
		return propsToChunk(node.Props), nil
	})
	if err != nil {
		logger.Errorf(ctx, "get chunk %s: %v", chunkID, err)
		return nil, false, err
	}
	if result == nil {
		return nil, false, nil
	}
	return result.(*types.ChunkData), true, nil
}

// UpdateMetadata merge-updates a subset of properties on the chunk node.
func (s *Store) UpdateMetadata(ctx context.Context, chunkID string, patch map[string]any) error {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (interface{}, error) {
		_, err := tx.Run(ctx, `MATCH (c:Chunk {chunk_id: $chunk_id}) SET c += $patch`,
			map[string]interface{}{"chunk_id": chunkID, "patch": normalizePatch(patch)})
		return nil, err
	})
	return err
}

// normalizePatch converts Go-only value types (typed strings, *time.Time)
// in an UpdateMetadata patch into the scalar shapes the neo4j driver can
// bind as query parameters.
func normalizePatch(patch map[string]any) map[string]interface{} {
	out := make(map[string]interface{}, len(patch))
	for k, v := range patch {
		switch val := v.(type) {
		case *time.Time:
			if val == nil {
				out[k] = nil
			} else {
				out[k] = val.Unix()
			}
		case types.ChunkStatus:
			out[k] = string(val)
		default:
			out[k] = v
		}
	}
	return out
}

// UpdateQualityScore clamps and writes the new score; the feedback counter
// increments in the same write when requested (spec §4.3).
func (s *Store) UpdateQualityScore(ctx context.Context, chunkID string, newScore float64, incrementFeedbackCount bool) error {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	clamped := types.ClampScore(newScore)
	query := `MATCH (c:Chunk {chunk_id: $chunk_id}) SET c.quality_score = $score`
	if incrementFeedbackCount {
		query += `, c.feedback_count = coalesce(c.feedback_count, 0) + 1`
	}
	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (interface{}, error) {
		_, err := tx.Run(ctx, query, map[string]interface{}{"chunk_id": chunkID, "score": clamped})
		return nil, err
	})
	return err
}

// SearchHybrid matches chunks whose content contains any query term,
// scored by term-match count, filtered by space/doc_type/min-quality and
// excluding soft-deleted chunks. Production deployments layer a vector
// index and full-text score on top of this predicate (spec §4.3).
func (s *Store) SearchHybrid(ctx context.Context, query string, k int, filters types.SearchFilters) ([]types.RawResult, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return nil, nil
	}

	cypher := `
		MATCH (c:Chunk)
		WHERE coalesce(c.deleted, false) = false
		  AND ($space_key = "" OR c.space_key = $space_key)
		  AND ($doc_type = "" OR c.doc_type = $doc_type)
		  AND coalesce(c.quality_score, 0) >= $min_quality
		WITH c, reduce(score = 0, term IN $terms |
			score + CASE WHEN toLower(c.content) CONTAINS term THEN 1 ELSE 0 END) AS score
		WHERE score > 0
		RETURN c, score
		ORDER BY score DESC
		LIMIT $k
	`
	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (interface{}, error) {
		res, err := tx.Run(ctx, cypher, map[string]interface{}{
			"terms":       terms,
			"space_key":   filters.SpaceKey,
			"doc_type":    filters.DocType,
			"min_quality": filters.MinQualityScore,
			"k":           int64(k),
		})
		if err != nil {
			return nil, err
		}
		var out []types.RawResult
		for res.Next(ctx) {
			record := res.Record()
			node := record.Values[0].(neo4j.Node)
			score := record.Values[1].(int64)
			chunk := propsToChunk(node.Props)
			out = append(out, types.RawResult{ChunkID: chunk.ChunkID, Content: chunk.Content, Score: float64(score), Metadata: chunk})
		}
		return out, res.Err()
	})
	if err != nil {
		logger.Errorf(ctx, "search hybrid: %v", err)
		return nil, err
	}
	return result.([]types.RawResult), nil
}

// BulkList enumerates chunk nodes for the Lifecycle and Quality batch jobs.
func (s *Store) BulkList(ctx context.Context, limit int, sinceEventTime *int64) ([]*types.ChunkData, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	cypher := `MATCH (c:Chunk) WHERE $since IS NULL OR c.event_time >= $since RETURN c ORDER BY c.chunk_id`
	if limit > 0 {
		cypher += ` LIMIT $limit`
	}
	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (interface{}, error) {
		var since interface{}
		if sinceEventTime != nil {
			since = *sinceEventTime
		}
		res, err := tx.Run(ctx, cypher, map[string]interface{}{"since": since, "limit": int64(limit)})
		if err != nil {
			return nil, err
		}
		var out []*types.ChunkData
		for res.Next(ctx) {
			node := res.Record().Values[0].(neo4j.Node)
			out = append(out, propsToChunk(node.Props))
		}
		return out, res.Err()
	})
	if err != nil {
		return nil, err
	}
	return result.([]*types.ChunkData), nil
}

// RelatedByEntity traverses shared :HAS_TOPIC edges to find chunks related
// to chunkID, ranked by number of shared topics (spec §4.4 graph expansion).
func (s *Store) RelatedByEntity(ctx context.Context, chunkID string, limit int) ([]types.RawResult, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	cypher := `
		MATCH (origin:Chunk {chunk_id: $chunk_id})-[:HAS_TOPIC]->(t:Topic)<-[:HAS_TOPIC]-(related:Chunk)
		WHERE related.chunk_id <> $chunk_id
		WITH related, count(DISTINCT t) AS shared
		RETURN related, shared
		ORDER BY shared DESC
		LIMIT $limit
	`
	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (interface{}, error) {
		res, err := tx.Run(ctx, cypher, map[string]interface{}{"chunk_id": chunkID, "limit": int64(limit)})
		if err != nil {
			return nil, err
		}
		var out []types.RawResult
		for res.Next(ctx) {
			record := res.Record()
			node := record.Values[0].(neo4j.Node)
			shared := record.Values[1].(int64)
			chunk := propsToChunk(node.Props)
			out = append(out, types.RawResult{ChunkID: chunk.ChunkID, Content: chunk.Content, Score: float64(shared), Metadata: chunk})
		}
		return out, res.Err()
	})
	if err != nil {
		return nil, err
	}
	return result.([]types.RawResult), nil
}

// CheckHealth pings the driver.
func (s *Store) CheckHealth(ctx context.Context) bool {
	err := s.driver.VerifyConnectivity(ctx)
	return err == nil
}

func chunkProps(chunk *types.ChunkData) map[string]interface{} {
	props := map[string]interface{}{
		"chunk_id":       chunk.ChunkID,
		"page_id":        chunk.PageID,
		"chunk_index":    int64(chunk.ChunkIndex),
		"page_title":     chunk.PageTitle,
		"content":        chunk.Content,
		"chunk_type":     string(chunk.ChunkType),
		"parent_headers": chunk.ParentHeaders,
		"char_count":     int64(chunk.CharCount),
		"space_key":      chunk.SpaceKey,
		"url":            chunk.URL,
		"author":         chunk.Author,
		"author_name":    chunk.AuthorName,
		"owner":          chunk.Owner,
		"reviewed_by":    chunk.ReviewedBy,
		"classification": string(chunk.Classification),
		"doc_type":       chunk.DocType,
		"topics":         chunk.Topics,
		"audience":       chunk.Audience,
		"complexity":     chunk.Complexity,
		"summary":        chunk.Summary,
		"quality_score":  chunk.QualityScore,
		"access_count":   chunk.AccessCount,
		"feedback_count": chunk.FeedbackCount,
		"event_time":     chunk.EventTime.Unix(),
		"ingested_at":    chunk.IngestedAt.Unix(),
		"status":         string(chunk.Status),
		"deleted":        chunk.Deleted(),
		"language":       chunk.Language,
		"token_estimate": int64(chunk.TokenEstimate),
	}
	if chunk.ReviewedAt != nil {
		props["reviewed_at"] = chunk.ReviewedAt.Unix()
	}
	return props
}

func propsToChunk(props map[string]interface{}) *types.ChunkData {
	chunk := &types.ChunkData{
		ChunkID:        stringProp(props, "chunk_id"),
		PageID:         stringProp(props, "page_id"),
		ChunkIndex:     int(int64Prop(props, "chunk_index")),
		PageTitle:      stringProp(props, "page_title"),
		Content:        stringProp(props, "content"),
		ChunkType:      types.ChunkType(stringProp(props, "chunk_type")),
		ParentHeaders:  stringSliceProp(props, "parent_headers"),
		CharCount:      int(int64Prop(props, "char_count")),
		SpaceKey:       stringProp(props, "space_key"),
		URL:            stringProp(props, "url"),
		Author:         stringProp(props, "author"),
		AuthorName:     stringProp(props, "author_name"),
		Owner:          stringProp(props, "owner"),
		ReviewedBy:     stringProp(props, "reviewed_by"),
		Classification: types.Classification(stringProp(props, "classification")),
		DocType:        stringProp(props, "doc_type"),
		Topics:         stringSliceProp(props, "topics"),
		Audience:       stringProp(props, "audience"),
		Complexity:     stringProp(props, "complexity"),
		Summary:        stringProp(props, "summary"),
		QualityScore:   floatProp(props, "quality_score"),
		AccessCount:    int64Prop(props, "access_count"),
		FeedbackCount:  int64Prop(props, "feedback_count"),
		EventTime:      time.Unix(int64Prop(props, "event_time"), 0).UTC(),
		IngestedAt:     time.Unix(int64Prop(props, "ingested_at"), 0).UTC(),
		Status:         types.ChunkStatus(stringProp(props, "status")),
		Language:       stringProp(props, "language"),
		TokenEstimate:  int(int64Prop(props, "token_estimate")),
	}
	if ts, ok := props["reviewed_at"]; ok {
		t := time.Unix(ts.(int64), 0).UTC()
		chunk.ReviewedAt = &t
	}
	return chunk
}

func stringProp(props map[string]interface{}, key string) string {
	if v, ok := props[key].(string); ok {
		return v
	}
	return ""
}

func int64Prop(props map[string]interface{}, key string) int64 {
	switch v := props[key].(type) {
	case int64:
		return v
	case float64:
		return int64(v)
	default:
		return 0
	}
}

func floatProp(props map[string]interface{}, key string) float64 {
	switch v := props[key].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	default:
		return 0
	}
}

func stringSliceProp(props map[string]interface{}, key string) []string {
	raw, ok := props[key].([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
