package orchestrator

import (
	"context"
	"time"

	"github.com/beacon-labs/wikimind/internal/config"
	"github.com/beacon-labs/wikimind/internal/logger"
	"github.com/beacon-labs/wikimind/internal/quality"
	"github.com/beacon-labs/wikimind/internal/retriever"
	"github.com/beacon-labs/wikimind/internal/types"
	"github.com/beacon-labs/wikimind/internal/types/interfaces"
)

// Escalator is the subset of the escalation manager the orchestrator needs
// after a feedback modal is submitted (spec §4.7 "feedback button click").
type Escalator interface {
	HandleFeedback(ctx context.Context, rec *types.FeedbackRecord) error
}

// answerEvents is the fixed event order for a single inbound question
// (spec §4.7 steps 1-8).
var answerEvents = []types.EventType{
	types.EventDedup,
	types.EventLoadHistory,
	types.EventRetrieve,
	types.EventAccessCount,
	types.EventAssemblePrompt,
	types.EventGenerate,
	types.EventEmit,
	types.EventPersistTurns,
}

// Orchestrator wires the plugin chain and the non-pipeline chat events
// (feedback clicks, reactions, thread messages) described in spec §4.7.
type Orchestrator struct {
	events    *EventManager
	quality   *quality.Engine
	analytics interfaces.AnalyticsStore
	chat      interfaces.ChatSurface
	escalator Escalator
	threads   *threadCache
}

// New builds the full plugin chain and returns the driving Orchestrator.
func New(
	graph interfaces.GraphStore,
	analytics interfaces.AnalyticsStore,
	retr *retriever.Retriever,
	qualityEngine *quality.Engine,
	llm interfaces.LLM,
	chat interfaces.ChatSurface,
	escalator Escalator,
	cfg *config.OrchestratorConfig,
) *Orchestrator {
	events := NewEventManager()
	threads := newThreadCache(cfg.ThreadCacheCapacity, cfg.ThreadHistoryDepth)

	NewPluginDedup(events, cfg.DedupCapacity)
	NewPluginLoadHistory(events, threads)
	NewPluginRetrieve(events, retr, cfg)
	NewPluginAccessCount(events, qualityEngine)
	NewPluginAssemblePrompt(events, cfg)
	NewPluginGenerate(events, llm, cfg)
	NewPluginEmit(events, chat, analytics)
	NewPluginPersistTurns(events, threads)

	return &Orchestrator{
		events: events, quality: qualityEngine, analytics: analytics,
		chat: chat, escalator: escalator, threads: threads,
	}
}

// AnswerQuestion drives the 8-step pipeline for one inbound question
// (spec §4.7).
func (o *Orchestrator) AnswerQuestion(ctx context.Context, msg interfaces.ChatMessage) (*types.AnswerState, error) {
	state := &types.AnswerState{
		ClientMsgID: msg.ClientMsgID, MessageTS: msg.TS, ThreadRef: msg.ThreadRef,
		ChannelID: msg.ChannelID, UserID: msg.UserID, Query: msg.Text, CreatedAt: time.Now(),
	}

	for _, event := range answerEvents {
		if perr := o.events.Trigger(ctx, event, state); perr != nil {
			if perr == ErrDuplicate {
				logger.Infof(ctx, "dropping duplicate inbound event %s", state.ClientMsgID)
				return state, nil
			}
			logger.Errorf(ctx, "orchestrator event %s failed: %s: %v", event, perr.Description, perr.Err)
			return state, perr.Err
		}
	}
	return state, nil
}

// HandleFeedbackClick implements spec §4.7's "helpful" branch: submit
// directly, record feedback, invoke the quality engine's immediate delta.
// The outdated/incorrect/confusing branches open a modal first and call
// this only once the modal is submitted (spec §4.7, §6).
func (o *Orchestrator) HandleFeedbackClick(ctx context.Context, rec *types.FeedbackRecord) error {
	if err := o.quality.RecordFeedback(ctx, rec); err != nil {
		return err
	}
	if rec.IsNegative() && o.escalator != nil {
		return o.escalator.HandleFeedback(ctx, rec)
	}
	return nil
}

// HandleReaction implements spec §4.7's reaction-event branch: classify via
// the signal analyzer and, if positive/negative, record a BehavioralSignal
// with the fixed value.
func (o *Orchestrator) HandleReaction(ctx context.Context, responseTS, threadRef, userID, emoji string, chunkIDs []string) error {
	signalType := quality.ClassifyReaction(emoji)
	if signalType == "" {
		return nil
	}
	return o.quality.RecordSignal(ctx, &types.BehavioralSignal{
		ResponseRef: responseTS, ThreadRef: threadRef, ChunkIDs: chunkIDs, UserID: userID,
		SignalType: signalType, SignalValue: quality.SignalValue(signalType), Reaction: emoji,
		CreatedAt: time.Now(),
	})
}

// HandleThreadMessage implements spec §4.7's thread-message branch: run the
// signal analyzer against a known bot response's thread, flipping
// has_follow_up on a follow_up classification.
func (o *Orchestrator) HandleThreadMessage(ctx context.Context, threadRef, userID, text string) error {
	resp, found, err := o.analytics.GetBotResponse(ctx, threadRef)
	if err != nil || !found {
		return err
	}

	signalType := quality.ClassifyMessage(text)
	if signalType == "" {
		return nil
	}

	if err := o.quality.RecordSignal(ctx, &types.BehavioralSignal{
		ResponseRef: resp.ResponseTS, ThreadRef: threadRef, ChunkIDs: resp.ChunkIDs, UserID: userID,
		SignalType: signalType, SignalValue: quality.SignalValue(signalType), RawText: text,
		CreatedAt: time.Now(),
	}); err != nil {
		return err
	}

	if signalType == types.SignalFollowUp {
		return o.analytics.SetHasFollowUp(ctx, resp.ResponseTS)
	}
	return nil
}
