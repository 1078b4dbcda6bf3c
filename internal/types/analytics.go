package types

import "time"

// FeedbackRecord is an append-only analytics row capturing explicit user
// feedback on a chunk (spec §3 "FeedbackRecord (analytics)"). It is owned
// exclusively by the AnalyticsStore; the GraphStore never mirrors it.
type FeedbackRecord struct {
	ID                   string       `json:"id"`
	ChunkID              string       `json:"chunk_id"`
	UserID               string       `json:"user_id"`
	FeedbackType         FeedbackType `json:"feedback_type"`
	Comment              string       `json:"comment,omitempty"`
	SuggestedCorrection  string       `json:"suggested_correction,omitempty"`
	Evidence             string       `json:"evidence,omitempty"`
	QueryContext         string       `json:"query_context,omitempty"`
	ThreadRef            string       `json:"thread_ref"`
	MessageTS            string       `json:"message_ts"`
	CreatedAt            time.Time    `json:"created_at"`
}

// IdempotencyKey identifies the tuple spec §5 requires feedback submission to
// be idempotent on: (chunk_id, user, feedback_type, message_ts).
func (f *FeedbackRecord) IdempotencyKey() string {
	return f.ChunkID + "|" + f.UserID + "|" + string(f.FeedbackType) + "|" + f.MessageTS
}

// IsNegative reports whether this feedback type counts toward auto-escalation
// (spec §4.8: outdated, incorrect, confusing are negative; helpful is not).
func (f *FeedbackRecord) IsNegative() bool {
	switch f.FeedbackType {
	case FeedbackOutdated, FeedbackIncorrect, FeedbackConfusing:
		return true
	default:
		return false
	}
}

// BehavioralSignal is an implicit feedback datum inferred from chat activity
// (spec §3 "BehavioralSignal (analytics)").
type BehavioralSignal struct {
	ID           string     `json:"id"`
	ResponseRef  string     `json:"response_ref"`
	ThreadRef    string     `json:"thread_ref"`
	ChunkIDs     []string   `json:"chunk_ids"`
	UserID       string     `json:"user_id"`
	SignalType   SignalType `json:"signal_type"`
	SignalValue  float64    `json:"signal_value"`
	RawText      string     `json:"raw_text,omitempty"`
	Reaction     string     `json:"reaction,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// BotResponse materializes every emitted answer (spec §3 "BotResponse").
type BotResponse struct {
	ResponseTS  string    `json:"response_ts"`
	ThreadTS    string    `json:"thread_ts"`
	ChannelID   string    `json:"channel_id"`
	UserID      string    `json:"user_id"`
	Query       string    `json:"query"`
	Response    string    `json:"response_text"`
	ChunkIDs    []string  `json:"chunk_ids"`
	HasFollowUp bool      `json:"has_follow_up"`
	CreatedAt   time.Time `json:"created_at"`
}

// ContentConflict records a detected contradiction/duplication between two
// chunks from different pages (spec §3 "ContentConflict (workflow)").
type ContentConflict struct {
	ID               string             `json:"id"`
	ChunkAID         string             `json:"chunk_a_id"`
	ChunkBID         string             `json:"chunk_b_id"`
	ConflictType     ConflictType       `json:"conflict_type"`
	Status           ConflictStatus     `json:"status"`
	Resolution       ConflictResolution `json:"resolution,omitempty"`
	SimilarityScore  float64            `json:"similarity_score"`
	ConfidenceScore  float64            `json:"confidence_score"`
	AIExplanation    string             `json:"ai_explanation,omitempty"`
	DetectedAt       time.Time          `json:"detected_at"`
	ResolvedAt       *time.Time         `json:"resolved_at,omitempty"`
	ResolvedBy       string             `json:"resolved_by,omitempty"`
	DismissedBy      string             `json:"dismissed_by,omitempty"`
	DismissedReason  string             `json:"dismissed_reason,omitempty"`
}

// PairKey returns a canonical, order-independent key for the conflicting
// pair so duplicate detection can be suppressed symmetrically (spec §4.6:
// "never insert (a,b) if (a,b) or (b,a) is open").
func (c *ContentConflict) PairKey() string {
	a, b := c.ChunkAID, c.ChunkBID
	if a > b {
		a, b = b, a
	}
	return a + "|" + b
}

// IndexingCheckpoint tracks per-(chunk,session) ingestion progress, enabling
// resumable sync (spec §3 "IndexingCheckpoint (pipeline state)").
type IndexingCheckpoint struct {
	ChunkID          string           `json:"chunk_id"`
	SessionID        string           `json:"session_id"`
	Status           CheckpointStatus `json:"status"`
	RetryCount       int              `json:"retry_count"`
	Error            string           `json:"error,omitempty"`
	SessionStartedAt time.Time        `json:"session_started_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}
