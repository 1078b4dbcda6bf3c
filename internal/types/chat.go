package types

import "time"

// EventType enumerates the answer-orchestrator pipeline stages (spec §4.7),
// generalized from the teacher's chat-pipeline event taxonomy.
type EventType string

const (
	EventDedup          EventType = "dedup"
	EventLoadHistory    EventType = "load_history"
	EventRetrieve       EventType = "retrieve"
	EventAccessCount    EventType = "access_count"
	EventAssemblePrompt EventType = "assemble_prompt"
	EventGenerate       EventType = "generate"
	EventEmit           EventType = "emit"
	EventPersistTurns   EventType = "persist_turns"
)

// Turn is one (question, answer) pair kept in the bounded thread cache
// (spec §4.7 step 2, step 8).
type Turn struct {
	Query    string
	Answer   string
	ChunkIDs []string
}

// AnswerState is the mutable record threaded through the orchestrator's
// plugin chain for a single inbound question (spec §4.7), generalizing the
// teacher's per-turn chat-management object.
type AnswerState struct {
	ClientMsgID string
	MessageTS   string
	ThreadRef   string
	ChannelID   string
	UserID      string
	Query       string

	Duplicate bool
	History   []Turn
	Results   []SearchResult
	Prompt    string
	Answer    string
	Fallback  bool
	ResponseTS string

	CreatedAt time.Time
}
