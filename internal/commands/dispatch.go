// Package commands implements the chat-surface command contract from spec
// §6 (`<prefix>help`, `<prefix>create-knowledge`, `<prefix>create-doc`,
// `<prefix>ingest-doc`) plus the feedback-button action-id dispatch (§6
// "Feedback action ids"). Since ChatSurface is an out-of-scope port (spec
// §1), the command grammar itself — parsing `/create-knowledge foo` out of
// an inbound message, deciding which of the four feedback types opens a
// modal — belongs to this module, not to a platform adapter.
package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hibiken/asynq"

	"github.com/beacon-labs/wikimind/internal/config"
	"github.com/beacon-labs/wikimind/internal/ingestion"
	"github.com/beacon-labs/wikimind/internal/logger"
	"github.com/beacon-labs/wikimind/internal/orchestrator"
	"github.com/beacon-labs/wikimind/internal/scheduler"
	"github.com/beacon-labs/wikimind/internal/types/interfaces"
)

// Background task types dispatched so the orchestrator's 3-second ack
// deadline (spec §5) is met by enqueuing rather than blocking (spec §9
// DOMAIN STACK note on asynq-backed `ingest-doc`/`create-knowledge`).
const (
	TaskCreateKnowledge = "commands:create_knowledge"
	TaskIngestDoc       = "commands:ingest_doc"
	TaskCreateDoc       = "commands:create_doc"
)

// Dispatcher parses inbound chat text for the command grammar and routes
// feedback-button action ids, per spec §6.
type Dispatcher struct {
	prefix    string
	pipeline  *ingestion.Pipeline
	chat      interfaces.ChatSurface
	analytics interfaces.AnalyticsStore
	scheduler *scheduler.Scheduler
	orch      *orchestrator.Orchestrator
}

// New builds a command Dispatcher.
func New(
	cfg *config.Config,
	pipeline *ingestion.Pipeline,
	chat interfaces.ChatSurface,
	analytics interfaces.AnalyticsStore,
	sched *scheduler.Scheduler,
	orch *orchestrator.Orchestrator,
) *Dispatcher {
	prefix := cfg.Server.CommandPrefix
	if prefix == "" {
		prefix = "/"
	}
	return &Dispatcher{prefix: prefix, pipeline: pipeline, chat: chat, analytics: analytics, scheduler: sched, orch: orch}
}

// ParseCommand splits `<prefix>name rest` into (name, rest, ok). It never
// panics on malformed input: anything not starting with prefix, or with no
// command word after it, is not a command (spec §4.1 Chunker-style
// "best-effort, never an error" posture applied to command parsing).
func ParseCommand(text, prefix string) (name, rest string, ok bool) {
	trimmed := strings.TrimSpace(text)
	if prefix == "" || !strings.HasPrefix(trimmed, prefix) {
		return "", "", false
	}
	body := strings.TrimSpace(strings.TrimPrefix(trimmed, prefix))
	if body == "" {
		return "", "", false
	}
	fields := strings.SplitN(body, " ", 2)
	name = fields[0]
	if len(fields) == 2 {
		rest = strings.TrimSpace(fields[1])
	}
	return name, rest, true
}

// Dispatch routes one inbound chat message to a command handler. It
// reports handled=false when the text isn't a recognized command, so the
// caller falls back to treating it as a question (spec §6 "app_mention,
// direct message -> treat as question").
func (d *Dispatcher) Dispatch(ctx context.Context, msg interfaces.ChatMessage) (handled bool, err error) {
	name, rest, ok := ParseCommand(msg.Text, d.prefix)
	if !ok {
		return false, nil
	}

	switch name {
	case "help":
		return true, d.handleHelp(ctx, msg, rest)
	case "create-knowledge":
		return true, d.handleCreateKnowledge(ctx, msg, rest)
	case "create-doc":
		return true, d.handleCreateDoc(ctx, msg)
	case "ingest-doc":
		return true, d.handleIngestDoc(ctx, msg, rest)
	default:
		return true, d.chat.PostEphemeral(ctx, msg.ChannelID, msg.UserID,
			fmt.Sprintf("Unknown command %q. Try %shelp.", name, d.prefix))
	}
}

func (d *Dispatcher) handleHelp(ctx context.Context, msg interfaces.ChatMessage, section string) error {
	return d.chat.PostEphemeral(ctx, msg.ChannelID, msg.UserID, helpText(d.prefix, section))
}

func (d *Dispatcher) handleCreateKnowledge(ctx context.Context, msg interfaces.ChatMessage, text string) error {
	if strings.TrimSpace(text) == "" {
		return d.chat.PostEphemeral(ctx, msg.ChannelID, msg.UserID,
			fmt.Sprintf("Usage: %screate-knowledge <text>", d.prefix))
	}

	payload := createKnowledgePayload{Text: text, UserID: msg.UserID, ChannelID: msg.ChannelID}
	if err := d.enqueue(ctx, TaskCreateKnowledge, payload); err != nil {
		return d.postIngestFailure(ctx, msg, err)
	}
	return d.chat.PostEphemeral(ctx, msg.ChannelID, msg.UserID, "Got it — indexing that now.")
}

func (d *Dispatcher) handleIngestDoc(ctx context.Context, msg interfaces.ChatMessage, url string) error {
	if strings.TrimSpace(url) == "" {
		return d.chat.PostEphemeral(ctx, msg.ChannelID, msg.UserID,
			fmt.Sprintf("Usage: %singest-doc <url>", d.prefix))
	}

	payload := ingestDocPayload{URL: url, UserID: msg.UserID, ChannelID: msg.ChannelID}
	if err := d.enqueue(ctx, TaskIngestDoc, payload); err != nil {
		return d.postIngestFailure(ctx, msg, err)
	}
	return d.chat.PostEphemeral(ctx, msg.ChannelID, msg.UserID, "Processing…")
}

// handleCreateDoc opens the create-doc modal (spec §6); the full ingest
// happens on modal submit via HandleCreateDocSubmit.
func (d *Dispatcher) handleCreateDoc(ctx context.Context, msg interfaces.ChatMessage) error {
	return d.chat.OpenModal(ctx, msg.TS, createDocModalSchema())
}

// HandleCreateDocSubmit processes the create-doc modal's submitted values
// (spec §6 "on submit, create a full document with area/type/classification").
func (d *Dispatcher) HandleCreateDocSubmit(ctx context.Context, userID, channelID string, values map[string]string) error {
	payload := createDocPayload{
		Title:          values["title"],
		Content:        values["content"],
		Area:           values["area"],
		DocType:        values["doc_type"],
		Classification: values["classification"],
		UserID:         userID,
		ChannelID:      channelID,
	}
	if err := d.enqueue(ctx, TaskCreateDoc, payload); err != nil {
		return d.chat.PostEphemeral(ctx, channelID, userID, fmt.Sprintf("Could not ingest document: %s", err.Error()))
	}
	return d.chat.PostEphemeral(ctx, channelID, userID, "Got it — indexing that document now.")
}

func (d *Dispatcher) enqueue(ctx context.Context, taskType string, payload any) error {
	if d.scheduler == nil {
		return fmt.Errorf("background scheduler unavailable")
	}
	return d.scheduler.Enqueue(ctx, taskType, payload)
}

func (d *Dispatcher) postIngestFailure(ctx context.Context, msg interfaces.ChatMessage, err error) error {
	logger.Errorf(ctx, "command enqueue failed: %v", err)
	return d.chat.PostEphemeral(ctx, msg.ChannelID, msg.UserID, fmt.Sprintf("Could not ingest document: %s", err.Error()))
}

type createKnowledgePayload struct {
	Text      string `json:"text"`
	UserID    string `json:"user_id"`
	ChannelID string `json:"channel_id"`
}

type ingestDocPayload struct {
	URL       string `json:"url"`
	UserID    string `json:"user_id"`
	ChannelID string `json:"channel_id"`
}

type createDocPayload struct {
	Title          string `json:"title"`
	Content        string `json:"content"`
	Area           string `json:"area"`
	DocType        string `json:"doc_type"`
	Classification string `json:"classification"`
	UserID         string `json:"user_id"`
	ChannelID      string `json:"channel_id"`
}

// RegisterTasks wires the background handlers for the three enqueued
// commands onto the shared scheduler (spec §9 "Scheduled maintenance" /
// DOMAIN STACK asynq note), following the same HandleFunc registration
// ingestion.Pipeline.RegisterSchedule uses for the cron jobs.
func (d *Dispatcher) RegisterTasks(s *scheduler.Scheduler) {
	s.HandleFunc(TaskCreateKnowledge, d.runCreateKnowledge)
	s.HandleFunc(TaskIngestDoc, d.runIngestDoc)
	s.HandleFunc(TaskCreateDoc, d.runCreateDoc)
}

func (d *Dispatcher) runCreateKnowledge(ctx context.Context, task *asynq.Task) error {
	var p createKnowledgePayload
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		return fmt.Errorf("decode create-knowledge payload: %w", err)
	}
	chunk, err := d.pipeline.IngestFactoid(ctx, p.Text, p.UserID, p.ChannelID)
	if err != nil {
		logger.Errorf(ctx, "create-knowledge failed: %v", err)
		return d.chat.PostEphemeral(ctx, p.ChannelID, p.UserID, fmt.Sprintf("Could not ingest document: %s", err.Error()))
	}
	return d.chat.PostEphemeral(ctx, p.ChannelID, p.UserID, fmt.Sprintf("Indexed as %s.", chunk.ChunkID))
}

func (d *Dispatcher) runIngestDoc(ctx context.Context, task *asynq.Task) error {
	var p ingestDocPayload
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		return fmt.Errorf("decode ingest-doc payload: %w", err)
	}
	converter := ingestion.SelectConverter(p.URL)
	markup, title, err := converter.Convert(ctx, p.URL)
	if err != nil {
		logger.Errorf(ctx, "ingest-doc convert failed: %v", err)
		return d.chat.PostEphemeral(ctx, p.ChannelID, p.UserID, fmt.Sprintf("Could not ingest document: %s", err.Error()))
	}

	n, err := d.pipeline.IngestDocument(ctx, markup, title, "reference", "", p.ChannelID, p.UserID)
	if err != nil {
		logger.Errorf(ctx, "ingest-doc ingest failed: %v", err)
		return d.chat.PostEphemeral(ctx, p.ChannelID, p.UserID, fmt.Sprintf("Could not ingest document: %s", err.Error()))
	}
	return d.chat.PostEphemeral(ctx, p.ChannelID, p.UserID, fmt.Sprintf("Ingested %q as %d chunks.", title, n))
}

func (d *Dispatcher) runCreateDoc(ctx context.Context, task *asynq.Task) error {
	var p createDocPayload
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		return fmt.Errorf("decode create-doc payload: %w", err)
	}
	n, err := d.pipeline.IngestDocument(ctx, p.Content, p.Title, p.DocType, p.Classification, p.Area, p.UserID)
	if err != nil {
		logger.Errorf(ctx, "create-doc ingest failed: %v", err)
		return d.chat.PostEphemeral(ctx, p.ChannelID, p.UserID, fmt.Sprintf("Could not ingest document: %s", err.Error()))
	}
	return d.chat.PostEphemeral(ctx, p.ChannelID, p.UserID, fmt.Sprintf("Indexed %q as %d chunks.", p.Title, n))
}
