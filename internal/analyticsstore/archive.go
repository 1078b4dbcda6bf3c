package analyticsstore

import (
	"context"
	"encoding/json"
	"errors"

	"gorm.io/gorm"

	"github.com/beacon-labs/wikimind/internal/types/interfaces"
)

// ArchiveChunkSnapshot writes the cold-archive row (spec §4.6 step 2:
// "copy a snapshot into an archive table").
func (s *Store) ArchiveChunkSnapshot(ctx context.Context, snapshot *interfaces.ArchiveSnapshot) error {
	metaJSON, err := json.Marshal(snapshot.Metadata)
	if err != nil {
		return err
	}
	row := archiveSnapshotRow{
		ChunkID:        snapshot.ChunkID,
		Content:        snapshot.Content,
		FinalScore:     snapshot.FinalScore,
		AccessCount:    snapshot.AccessCount,
		FeedbackCount:  snapshot.FeedbackCount,
		ColdArchivedAt: snapshot.ColdArchivedAt,
		MetadataJSON:   string(metaJSON),
	}
	return s.db.WithContext(ctx).Save(&row).Error
}

func (s *Store) GetArchiveSnapshot(ctx context.Context, chunkID string) (*interfaces.ArchiveSnapshot, bool, error) {
	var row archiveSnapshotRow
	err := s.db.WithContext(ctx).Where("chunk_id = ?", chunkID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var meta map[string]any
	if row.MetadataJSON != "" {
		if err := json.Unmarshal([]byte(row.MetadataJSON), &meta); err != nil {
			return nil, false, err
		}
	}
	return &interfaces.ArchiveSnapshot{
		ChunkID:        row.ChunkID,
		Content:        row.Content,
		FinalScore:     row.FinalScore,
		AccessCount:    row.AccessCount,
		FeedbackCount:  row.FeedbackCount,
		ColdArchivedAt: row.ColdArchivedAt,
		Metadata:       meta,
	}, true, nil
}

func (s *Store) DeleteArchiveSnapshot(ctx context.Context, chunkID string) error {
	return s.db.WithContext(ctx).Where("chunk_id = ?", chunkID).Delete(&archiveSnapshotRow{}).Error
}

func (s *Store) ListColdArchivedOlderThan(ctx context.Context, cutoff int64) ([]*interfaces.ArchiveSnapshot, error) {
	var rows []archiveSnapshotRow
	if err := s.db.WithContext(ctx).Where("cold_archived_at <= ?", cutoff).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*interfaces.ArchiveSnapshot, 0, len(rows))
	for _, row := range rows {
		var meta map[string]any
		if row.MetadataJSON != "" {
			_ = json.Unmarshal([]byte(row.MetadataJSON), &meta)
		}
		out = append(out, &interfaces.ArchiveSnapshot{
			ChunkID:        row.ChunkID,
			Content:        row.Content,
			FinalScore:     row.FinalScore,
			AccessCount:    row.AccessCount,
			FeedbackCount:  row.FeedbackCount,
			ColdArchivedAt: row.ColdArchivedAt,
			Metadata:       meta,
		})
	}
	return out, nil
}
