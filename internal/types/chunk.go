// Package types defines the data structures shared across every component:
// ingestion, retrieval, quality, lifecycle, orchestration and escalation.
package types

import "time"

// ChunkData is the central retrieval unit: a contiguous extracted piece of a
// source page, carrying structural, governance, semantic and quality
// metadata alongside a bi-temporal envelope. It is the payload persisted by
// the GraphStore as an "episode" (see GLOSSARY) and is the unit every other
// component (Retriever, QualityEngine, LifecycleManager) reads and mutates.
type ChunkData struct {
	// Identity
	ChunkID    string `json:"chunk_id"`
	PageID     string `json:"page_id"`
	ChunkIndex int    `json:"chunk_index"`
	PageTitle  string `json:"page_title"`

	// Content
	Content       string    `json:"content"`
	ChunkType     ChunkType `json:"chunk_type"`
	ParentHeaders []string  `json:"parent_headers"`
	CharCount     int       `json:"char_count"`

	// Source
	SpaceKey   string    `json:"space_key"`
	URL        string    `json:"url"`
	Author     string    `json:"author"`
	AuthorName string    `json:"author_name"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	// Governance
	Owner          string         `json:"owner"`
	ReviewedBy     string         `json:"reviewed_by"`
	ReviewedAt     *time.Time     `json:"reviewed_at,omitempty"`
	Classification Classification `json:"classification"`
	DocType        string         `json:"doc_type"`

	// Semantic
	Topics     []string `json:"topics"`
	Audience   string   `json:"audience"`
	Complexity string   `json:"complexity"`
	Summary    string   `json:"summary"`

	// Quality
	QualityScore  float64 `json:"quality_score"`
	AccessCount   int64   `json:"access_count"`
	FeedbackCount int64   `json:"feedback_count"`

	// Temporal envelope (bi-temporal, see GLOSSARY)
	EventTime  time.Time  `json:"event_time"`
	IngestedAt time.Time  `json:"ingested_at"`
	DeletedAt  *time.Time `json:"deleted_at,omitempty"`

	// Lifecycle
	Status         ChunkStatus `json:"status"`
	DeprecatedAt   *time.Time  `json:"deprecated_at,omitempty"`
	ColdArchivedAt *time.Time  `json:"cold_archived_at,omitempty"`
	HardArchivedAt *time.Time  `json:"hard_archived_at,omitempty"`

	// Supplemental (see SPEC_FULL.md §3 — dropped-feature backfill from
	// original_source/knowledge_base/chunking/html_chunker.py)
	Language      string `json:"language,omitempty"`
	TokenEstimate int    `json:"token_estimate"`
}

// Normalize enforces the invariants from spec §3: classification defaults to
// "internal", quality_score clamps to [0,100], char_count tracks content
// length. Called by every write path before persistence so no caller can
// accidentally violate an invariant.
func (c *ChunkData) Normalize() {
	if c.Classification == "" {
		c.Classification = ClassificationInternal
	}
	if c.Status == "" {
		c.Status = ChunkStatusActive
	}
	c.CharCount = len([]rune(c.Content))
	c.TokenEstimate = (c.CharCount + 3) / 4
	c.QualityScore = ClampScore(c.QualityScore)
}

// ClampScore clamps a quality score to the documented [0,100] range.
func ClampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// Deleted reports whether the chunk has been soft- or hard-deleted.
func (c *ChunkData) Deleted() bool {
	return c.DeletedAt != nil || c.Status == ChunkStatusHardArchived
}

// Page tracks wiki sync state only; it is never the source of truth for
// retrieval (spec §3 "Page (sync-tracking only)").
type Page struct {
	PageID        string     `json:"page_id"`
	SpaceKey      string     `json:"space_key"`
	Title         string     `json:"title"`
	FilePath      string     `json:"file_path"`
	VersionNumber int        `json:"version_number"`
	Status        PageStatus `json:"status"`
	UpdatedAt     time.Time  `json:"updated_at"`
	DownloadedAt  time.Time  `json:"downloaded_at"`
	Labels        []string   `json:"labels"`
}

// GovernanceInfo is derived from a page's label set (spec §4.2, §6 label
// conventions: owner:, reviewed_by:, reviewed_at:, classification:, doc_type:).
type GovernanceInfo struct {
	Owner          string
	ReviewedBy     string
	ReviewedAt     *time.Time
	Classification Classification
	DocType        string
	Unparseable    []string
}
