package analyticsstore

import (
	"context"
	"fmt"
	"time"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/beacon-labs/wikimind/internal/types/interfaces"
)

// embeddingCacheRow is a secondary, swappable hybrid-search candidate
// source: a pgvector column alongside the GraphStore's native full-text
// index, grounded on the teacher's pgVector model
// (internal/application/repository/retriever/postgres/structs.go).
type embeddingCacheRow struct {
	ChunkID   string              `gorm:"column:chunk_id;primarykey"`
	Dimension int                 `gorm:"column:dimension;not null"`
	Embedding pgvector.HalfVector `gorm:"column:embedding;not null"`
	UpdatedAt time.Time           `gorm:"column:updated_at"`
}

func (embeddingCacheRow) TableName() string { return "chunk_embedding_cache" }

// CacheChunkEmbedding upserts a chunk's embedding into the cache.
func (s *Store) CacheChunkEmbedding(ctx context.Context, chunkID string, vector []float32) error {
	row := embeddingCacheRow{
		ChunkID:   chunkID,
		Dimension: len(vector),
		Embedding: pgvector.NewHalfVector(vector),
		UpdatedAt: time.Now(),
	}
	return s.db.WithContext(ctx).Save(&row).Error
}

// SearchEmbeddingCache ranks chunks by cosine distance to vector, grounded
// on the teacher's VectorRetrieve cosine-operator query
// (internal/application/repository/retriever/postgres/repository.go).
func (s *Store) SearchEmbeddingCache(ctx context.Context, vector []float32, k int) ([]interfaces.EmbeddingCacheHit, error) {
	dimension := len(vector)
	if dimension == 0 {
		return nil, nil
	}

	conds := []clause.Expression{
		clause.Expr{SQL: "dimension = ?", Vars: []interface{}{dimension}},
		clause.OrderBy{Expression: clause.Expr{
			SQL:  fmt.Sprintf("embedding::halfvec(%d) <=> ?::halfvec", dimension),
			Vars: []interface{}{pgvector.NewHalfVector(vector)},
		}},
	}

	var rows []struct {
		ChunkID  string
		Distance float64
	}
	err := s.db.WithContext(ctx).Model(&embeddingCacheRow{}).Clauses(conds...).
		Select(fmt.Sprintf("chunk_id, (embedding::halfvec(%d) <=> ?::halfvec) as distance", dimension),
			pgvector.NewHalfVector(vector)).
		Limit(k).
		Find(&rows).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}

	out := make([]interfaces.EmbeddingCacheHit, 0, len(rows))
	for _, r := range rows {
		out = append(out, interfaces.EmbeddingCacheHit{ChunkID: r.ChunkID, Distance: r.Distance})
	}
	return out, nil
}
