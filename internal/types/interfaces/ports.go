// Package interfaces declares the minimal provider ports (C1 in SPEC_FULL)
// that every external collaborator is reduced to. Production adapters live
// next to the concern they serve (internal/models/llm, internal/graphstore,
// ...); tests use small in-memory fakes against the same interfaces.
package interfaces

import (
	"context"

	"github.com/beacon-labs/wikimind/internal/types"
)

// LLM is the generation provider port (spec §6 "LLM provider contract").
type LLM interface {
	Generate(ctx context.Context, prompt string) (string, error)
	GenerateJSON(ctx context.Context, prompt string, target any) error
	CheckHealth(ctx context.Context) bool
}

// Embedder is the vectorization provider port (spec §6 "Embedder contract").
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedSingle(ctx context.Context, text string) ([]float32, error)
	Dimension() int
	Name() string
}

// Reranker is an optional cross-encoder reranking port (C1).
type Reranker interface {
	Rerank(ctx context.Context, query string, passages []string) ([]RankResult, error)
}

// RankResult is a single reranked passage.
type RankResult struct {
	Index          int
	RelevanceScore float64
}

// WikiSourcePage is a page summary returned while paginating a space.
type WikiSourcePage struct {
	PageID    string
	Title     string
	Status    string // "current" | "draft" | "trashed"
	Version   int
	UpdatedAt string // ISO8601, parsed by the caller
	ParentID  string
	WebURL    string
}

// WikiSourceBody is the full body of one page: storage HTML, labels,
// restrictions and attachment metadata (spec §6 "Wiki source contract").
type WikiSourceBody struct {
	PageID        string
	HTML          string
	Labels        []string
	Restrictions  map[string][]string // operation -> principal emails/groups
	Attachments   []string
	CreatedAt     string
	CreatedBy     string
	CreatedByName string
}

// WikiSource is the wiki adapter port (spec §6 "Wiki source contract").
type WikiSource interface {
	ListPages(ctx context.Context, spaceKey string, pageToken string) (pages []WikiSourcePage, nextToken string, err error)
	GetPageBody(ctx context.Context, pageID string) (*WikiSourceBody, error)
}

// ChatMessage is an inbound question, feedback click, reaction or thread
// message handed to the orchestrator by the chat surface adapter.
type ChatMessage struct {
	ClientMsgID string
	TS          string
	ThreadRef   string
	ChannelID   string
	UserID      string
	Text        string
}

// ChatSurface is the chat platform adapter port (spec §6, out of scope by
// interface). Production wiring supplies a concrete adapter; this module
// ships a loopback adapter used by tests and local demos.
type ChatSurface interface {
	PostMessage(ctx context.Context, channelID, threadRef, text string, actions ...ActionButton) (ts string, err error)
	PostEphemeral(ctx context.Context, channelID, userID, text string) error
	OpenModal(ctx context.Context, triggerRef string, schema ModalSchema) error
	LookupUserByEmail(ctx context.Context, email string) (userID string, found bool, err error)
	PostDirectMessage(ctx context.Context, userID, text string, actions []ActionButton) error
}

// ModalSchema is a feedback modal definition (spec §6 "Modal schemas").
type ModalSchema struct {
	Title  string
	Fields []ModalField
}

// ModalField is a single modal input.
type ModalField struct {
	Key      string
	Label    string
	Required bool
	Options  []string // non-empty for single-select fields
}

// ActionButton is a clickable action attached to a direct message or admin post.
type ActionButton struct {
	Label string
	Value string
}

// GraphStore is the temporal Chunk Store port (spec §4.3).
type GraphStore interface {
	UpsertChunk(ctx context.Context, chunk *types.ChunkData) error
	GetChunkByID(ctx context.Context, chunkID string) (*types.ChunkData, bool, error)
	UpdateMetadata(ctx context.Context, chunkID string, patch map[string]any) error
	UpdateQualityScore(ctx context.Context, chunkID string, newScore float64, incrementFeedbackCount bool) error
	SearchHybrid(ctx context.Context, query string, k int, filters types.SearchFilters) ([]types.RawResult, error)
	BulkList(ctx context.Context, limit int, sinceEventTime *int64) ([]*types.ChunkData, error)
	RelatedByEntity(ctx context.Context, chunkID string, limit int) ([]types.RawResult, error)
	CheckHealth(ctx context.Context) bool
}

// AnalyticsStore is the append-mostly analytics port (spec §3, §4.8, §9).
type AnalyticsStore interface {
	InsertFeedback(ctx context.Context, rec *types.FeedbackRecord) (inserted bool, err error)
	InsertSignal(ctx context.Context, sig *types.BehavioralSignal) error
	InsertBotResponse(ctx context.Context, resp *types.BotResponse) (inserted bool, err error)
	GetBotResponse(ctx context.Context, responseTS string) (*types.BotResponse, bool, error)
	SetHasFollowUp(ctx context.Context, responseTS string) error
	FeedbackSince(ctx context.Context, chunkID string, since int64) ([]*types.FeedbackRecord, error)
	SignalsSince(ctx context.Context, chunkID string, since int64) ([]*types.BehavioralSignal, error)
	NegativeFeedbackCountInWindow(ctx context.Context, chunkID string, windowStart int64) (int, error)

	UpsertCheckpoint(ctx context.Context, cp *types.IndexingCheckpoint) error
	GetCheckpoint(ctx context.Context, chunkID string) (*types.IndexingCheckpoint, bool, error)
	IndexedInSessionOrBefore(ctx context.Context, chunkID string) (bool, error)

	UpsertPage(ctx context.Context, page *types.Page) error
	GetPage(ctx context.Context, pageID string) (*types.Page, bool, error)

	InsertConflict(ctx context.Context, c *types.ContentConflict) (inserted bool, err error)
	OpenConflictExists(ctx context.Context, pairKey string) (bool, error)
	UpdateConflict(ctx context.Context, c *types.ContentConflict) error
	ListOpenConflicts(ctx context.Context) ([]*types.ContentConflict, error)

	ArchiveChunkSnapshot(ctx context.Context, snapshot *ArchiveSnapshot) error
	GetArchiveSnapshot(ctx context.Context, chunkID string) (*ArchiveSnapshot, bool, error)
	DeleteArchiveSnapshot(ctx context.Context, chunkID string) error
	ListColdArchivedOlderThan(ctx context.Context, cutoff int64) ([]*ArchiveSnapshot, error)

	// CacheChunkEmbedding and SearchEmbeddingCache back a secondary,
	// swappable hybrid-search candidate source (a pgvector-backed cache
	// alongside the GraphStore's native index, spec §9 "composite
	// retriever pattern").
	CacheChunkEmbedding(ctx context.Context, chunkID string, vector []float32) error
	SearchEmbeddingCache(ctx context.Context, vector []float32, k int) ([]EmbeddingCacheHit, error)
}

// EmbeddingCacheHit is one result from the pgvector-backed embedding cache.
type EmbeddingCacheHit struct {
	ChunkID  string
	Distance float64
}

// ArchiveSnapshot is the cold-storage row described in spec §4.6 step 2:
// "copy a snapshot into an archive table (content + final score + access /
// feedback totals)".
type ArchiveSnapshot struct {
	ChunkID        string
	Content        string
	FinalScore     float64
	AccessCount    int64
	FeedbackCount  int64
	ColdArchivedAt int64
	Metadata       map[string]any
}

// ArchiveFile is the port used for the hard-archive JSON export; page
// Markdown is not written through it.
type ArchiveFile interface {
	Write(ctx context.Context, relativePath string, data []byte) error
	Read(ctx context.Context, relativePath string) ([]byte, error)
}
