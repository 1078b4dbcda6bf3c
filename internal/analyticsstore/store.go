package analyticsstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/beacon-labs/wikimind/internal/types"
	"github.com/beacon-labs/wikimind/internal/types/interfaces"
)

// Store adapts Postgres to the AnalyticsStore port.
type Store struct {
	db *gorm.DB
}

// New wraps an already-migrated *gorm.DB.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

var _ interfaces.AnalyticsStore = (*Store)(nil)

// Migrate creates or updates every table this adapter owns, including the
// pgvector-backed embedding cache (see embedding_cache.go).
func (s *Store) Migrate() error {
	return s.db.AutoMigrate(
		&feedbackRow{}, &signalRow{}, &botResponseRow{}, &checkpointRow{},
		&pageRow{}, &conflictRow{}, &archiveSnapshotRow{}, &embeddingCacheRow{},
	)
}

// InsertFeedback appends a feedback record; a pre-existing idempotency key
// reports inserted=false rather than erroring (spec §5 idempotent feedback).
func (s *Store) InsertFeedback(ctx context.Context, rec *types.FeedbackRecord) (bool, error) {
	row := feedbackRow{
		ChunkID:             rec.ChunkID,
		UserID:              rec.UserID,
		FeedbackType:        string(rec.FeedbackType),
		Comment:             rec.Comment,
		SuggestedCorrection: rec.SuggestedCorrection,
		Evidence:            rec.Evidence,
		QueryContext:        rec.QueryContext,
		ThreadRef:           rec.ThreadRef,
		MessageTS:           rec.MessageTS,
		IdempotencyKey:      rec.IdempotencyKey(),
		CreatedAt:           rec.CreatedAt,
	}
	err := s.db.WithContext(ctx).Create(&row).Error
	if err != nil {
		if isUniqueViolation(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *Store) InsertSignal(ctx context.Context, sig *types.BehavioralSignal) error {
	row := signalRow{
		ResponseRef: sig.ResponseRef,
		ThreadRef:   sig.ThreadRef,
		ChunkID:     strings.Join(sig.ChunkIDs, ","),
		UserID:      sig.UserID,
		SignalType:  string(sig.SignalType),
		SignalValue: sig.SignalValue,
		RawText:     sig.RawText,
		CreatedAt:   sig.CreatedAt,
	}
	return s.db.WithContext(ctx).Create(&row).Error
}

func (s *Store) InsertBotResponse(ctx context.Context, resp *types.BotResponse) (bool, error) {
	row := botResponseRow{
		ResponseTS:   resp.ResponseTS,
		ThreadTS:     resp.ThreadTS,
		ChannelID:    resp.ChannelID,
		UserID:       resp.UserID,
		Query:        resp.Query,
		ResponseText: resp.Response,
		ChunkIDs:     strings.Join(resp.ChunkIDs, ","),
		HasFollowUp:  resp.HasFollowUp,
		CreatedAt:    resp.CreatedAt,
	}
	err := s.db.WithContext(ctx).Create(&row).Error
	if err != nil {
		if isUniqueViolation(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *Store) GetBotResponse(ctx context.Context, responseTS string) (*types.BotResponse, bool, error) {
	var row botResponseRow
	err := s.db.WithContext(ctx).Where("response_ts = ?", responseTS).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return botResponseFromRow(row), true, nil
}

func (s *Store) SetHasFollowUp(ctx context.Context, responseTS string) error {
	return s.db.WithContext(ctx).Model(&botResponseRow{}).
		Where("response_ts = ?", responseTS).
		Update("has_follow_up", true).Error
}

func (s *Store) FeedbackSince(ctx context.Context, chunkID string, since int64) ([]*types.FeedbackRecord, error) {
	var rows []feedbackRow
	cutoff := time.Unix(since, 0)
	if err := s.db.WithContext(ctx).
		Where("chunk_id = ? AND created_at >= ?", chunkID, cutoff).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*types.FeedbackRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, feedbackFromRow(r))
	}
	return out, nil
}

func (s *Store) SignalsSince(ctx context.Context, chunkID string, since int64) ([]*types.BehavioralSignal, error) {
	var rows []signalRow
	cutoff := time.Unix(since, 0)
	if err := s.db.WithContext(ctx).
		Where("chunk_id LIKE ? AND created_at >= ?", "%"+chunkID+"%", cutoff).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*types.BehavioralSignal, 0, len(rows))
	for _, r := range rows {
		out = append(out, signalFromRow(r))
	}
	return out, nil
}

func (s *Store) NegativeFeedbackCountInWindow(ctx context.Context, chunkID string, windowStart int64) (int, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&feedbackRow{}).
		Where("chunk_id = ? AND created_at >= ? AND feedback_type IN ?",
			chunkID, time.Unix(windowStart, 0),
			[]string{string(types.FeedbackOutdated), string(types.FeedbackIncorrect), string(types.FeedbackConfusing)}).
		Count(&count).Error
	return int(count), err
}

func (s *Store) UpsertCheckpoint(ctx context.Context, cp *types.IndexingCheckpoint) error {
	row := checkpointRow{
		ChunkID:          cp.ChunkID,
		SessionID:        cp.SessionID,
		Status:           string(cp.Status),
		RetryCount:       cp.RetryCount,
		Error:            cp.Error,
		SessionStartedAt: cp.SessionStartedAt,
		UpdatedAt:        cp.UpdatedAt,
	}
	return s.db.WithContext(ctx).Save(&row).Error
}

func (s *Store) GetCheckpoint(ctx context.Context, chunkID string) (*types.IndexingCheckpoint, bool, error) {
	var row checkpointRow
	err := s.db.WithContext(ctx).Where("chunk_id = ?", chunkID).
		Order("updated_at DESC").First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return checkpointFromRow(row), true, nil
}

func (s *Store) IndexedInSessionOrBefore(ctx context.Context, chunkID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&checkpointRow{}).
		Where("chunk_id = ? AND status = ?", chunkID, string(types.CheckpointIndexed)).
		Count(&count).Error
	return count > 0, err
}

func (s *Store) UpsertPage(ctx context.Context, page *types.Page) error {
	row := pageRow{
		PageID:        page.PageID,
		SpaceKey:      page.SpaceKey,
		Title:         page.Title,
		FilePath:      page.FilePath,
		VersionNumber: page.VersionNumber,
		Status:        string(page.Status),
		UpdatedAt:     page.UpdatedAt,
		DownloadedAt:  page.DownloadedAt,
		Labels:        strings.Join(page.Labels, ","),
	}
	return s.db.WithContext(ctx).Save(&row).Error
}

func (s *Store) GetPage(ctx context.Context, pageID string) (*types.Page, bool, error) {
	var row pageRow
	err := s.db.WithContext(ctx).Where("page_id = ?", pageID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return pageFromRow(row), true, nil
}

func (s *Store) InsertConflict(ctx context.Context, c *types.ContentConflict) (bool, error) {
	row := conflictRow{
		ID:              c.ID,
		ChunkAID:        c.ChunkAID,
		ChunkBID:        c.ChunkBID,
		PairKey:         c.PairKey(),
		ConflictType:    string(c.ConflictType),
		Status:          string(c.Status),
		Resolution:      string(c.Resolution),
		SimilarityScore: c.SimilarityScore,
		ConfidenceScore: c.ConfidenceScore,
		AIExplanation:   c.AIExplanation,
		DetectedAt:      c.DetectedAt,
		ResolvedAt:      c.ResolvedAt,
		ResolvedBy:      c.ResolvedBy,
		DismissedBy:     c.DismissedBy,
		DismissedReason: c.DismissedReason,
	}
	err := s.db.WithContext(ctx).Create(&row).Error
	if err != nil {
		if isUniqueViolation(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *Store) OpenConflictExists(ctx context.Context, pairKey string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&conflictRow{}).
		Where("pair_key = ? AND status = ?", pairKey, string(types.ConflictStatusOpen)).
		Count(&count).Error
	return count > 0, err
}

func (s *Store) UpdateConflict(ctx context.Context, c *types.ContentConflict) error {
	row := conflictRow{
		ID:              c.ID,
		ChunkAID:        c.ChunkAID,
		ChunkBID:        c.ChunkBID,
		PairKey:         c.PairKey(),
		ConflictType:    string(c.ConflictType),
		Status:          string(c.Status),
		Resolution:      string(c.Resolution),
		SimilarityScore: c.SimilarityScore,
		ConfidenceScore: c.ConfidenceScore,
		AIExplanation:   c.AIExplanation,
		DetectedAt:      c.DetectedAt,
		ResolvedAt:      c.ResolvedAt,
		ResolvedBy:      c.ResolvedBy,
		DismissedBy:     c.DismissedBy,
		DismissedReason: c.DismissedReason,
	}
	return s.db.WithContext(ctx).Save(&row).Error
}

func (s *Store) ListOpenConflicts(ctx context.Context) ([]*types.ContentConflict, error) {
	var rows []conflictRow
	if err := s.db.WithContext(ctx).Where("status = ?", string(types.ConflictStatusOpen)).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*types.ContentConflict, 0, len(rows))
	for _, r := range rows {
		out = append(out, conflictFromRow(r))
	}
	return out, nil
}

func isUniqueViolation(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "unique")
}
