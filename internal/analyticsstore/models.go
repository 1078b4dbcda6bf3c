// Package analyticsstore adapts Postgres (via gorm) to the AnalyticsStore
// port (spec §3, §4.5-§4.8), grounded on the teacher's repository style
// (internal/application/repository/chunk.go: one struct per table, one
// *gorm.DB field, WithContext on every call) and its pgvector-backed
// postgres retriever adapter (internal/application/repository/retriever/
// postgres) for the embedding-cache table.
package analyticsstore

import "time"

type feedbackRow struct {
	ID                  uint      `gorm:"primarykey"`
	ChunkID             string    `gorm:"column:chunk_id;index"`
	UserID              string    `gorm:"column:user_id"`
	FeedbackType        string    `gorm:"column:feedback_type"`
	Comment             string    `gorm:"column:comment"`
	SuggestedCorrection string    `gorm:"column:suggested_correction"`
	Evidence            string    `gorm:"column:evidence"`
	QueryContext        string    `gorm:"column:query_context"`
	ThreadRef           string    `gorm:"column:thread_ref"`
	MessageTS           string    `gorm:"column:message_ts"`
	IdempotencyKey      string    `gorm:"column:idempotency_key;uniqueIndex"`
	CreatedAt           time.Time `gorm:"column:created_at"`
}

func (feedbackRow) TableName() string { return "feedback_records" }

type signalRow struct {
	ID          uint      `gorm:"primarykey"`
	ResponseRef string    `gorm:"column:response_ref"`
	ThreadRef   string    `gorm:"column:thread_ref"`
	ChunkID     string    `gorm:"column:chunk_id;index"`
	UserID      string    `gorm:"column:user_id"`
	SignalType  string    `gorm:"column:signal_type"`
	SignalValue float64   `gorm:"column:signal_value"`
	RawText     string    `gorm:"column:raw_text"`
	CreatedAt   time.Time `gorm:"column:created_at"`
}

func (signalRow) TableName() string { return "behavioral_signals" }

type botResponseRow struct {
	ID           uint      `gorm:"primarykey"`
	ResponseTS   string    `gorm:"column:response_ts;uniqueIndex"`
	ThreadTS     string    `gorm:"column:thread_ts"`
	ChannelID    string    `gorm:"column:channel_id"`
	UserID       string    `gorm:"column:user_id"`
	Query        string    `gorm:"column:query"`
	ResponseText string    `gorm:"column:response_text"`
	ChunkIDs     string    `gorm:"column:chunk_ids"` // comma-joined
	HasFollowUp  bool      `gorm:"column:has_follow_up"`
	CreatedAt    time.Time `gorm:"column:created_at"`
}

func (botResponseRow) TableName() string { return "bot_responses" }

type checkpointRow struct {
	ChunkID          string    `gorm:"column:chunk_id;primarykey"`
	SessionID        string    `gorm:"column:session_id;primarykey"`
	Status           string    `gorm:"column:status"`
	RetryCount       int       `gorm:"column:retry_count"`
	Error            string    `gorm:"column:error"`
	SessionStartedAt time.Time `gorm:"column:session_started_at"`
	UpdatedAt        time.Time `gorm:"column:updated_at"`
}

func (checkpointRow) TableName() string { return "indexing_checkpoints" }

type pageRow struct {
	PageID        string    `gorm:"column:page_id;primarykey"`
	SpaceKey      string    `gorm:"column:space_key"`
	Title         string    `gorm:"column:title"`
	FilePath      string    `gorm:"column:file_path"`
	VersionNumber int       `gorm:"column:version_number"`
	Status        string    `gorm:"column:status"`
	UpdatedAt     time.Time `gorm:"column:updated_at"`
	DownloadedAt  time.Time `gorm:"column:downloaded_at"`
	Labels        string    `gorm:"column:labels"` // comma-joined
}

func (pageRow) TableName() string { return "pages" }

type conflictRow struct {
	ID              string     `gorm:"column:id;primarykey"`
	ChunkAID        string     `gorm:"column:chunk_a_id;index"`
	ChunkBID        string     `gorm:"column:chunk_b_id;index"`
	// PairKey's uniqueness is scoped to Status so a pair can be re-recorded
	// as a new open conflict after a prior occurrence was resolved or
	// dismissed.
	PairKey         string     `gorm:"column:pair_key;uniqueIndex:idx_conflict_pair_status"`
	ConflictType    string     `gorm:"column:conflict_type"`
	Status          string     `gorm:"column:status;uniqueIndex:idx_conflict_pair_status"`
	Resolution      string     `gorm:"column:resolution"`
	SimilarityScore float64    `gorm:"column:similarity_score"`
	ConfidenceScore float64    `gorm:"column:confidence_score"`
	AIExplanation   string     `gorm:"column:ai_explanation"`
	DetectedAt      time.Time  `gorm:"column:detected_at"`
	ResolvedAt      *time.Time `gorm:"column:resolved_at"`
	ResolvedBy      string     `gorm:"column:resolved_by"`
	DismissedBy     string     `gorm:"column:dismissed_by"`
	DismissedReason string     `gorm:"column:dismissed_reason"`
}

func (conflictRow) TableName() string { return "content_conflicts" }

type archiveSnapshotRow struct {
	ChunkID        string    `gorm:"column:chunk_id;primarykey"`
	Content        string    `gorm:"column:content"`
	FinalScore     float64   `gorm:"column:final_score"`
	AccessCount    int64     `gorm:"column:access_count"`
	FeedbackCount  int64     `gorm:"column:feedback_count"`
	ColdArchivedAt int64     `gorm:"column:cold_archived_at"`
	MetadataJSON   string    `gorm:"column:metadata_json"`
}

func (archiveSnapshotRow) TableName() string { return "archive_snapshots" }
