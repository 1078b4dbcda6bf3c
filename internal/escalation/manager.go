// Package escalation implements spec §4.8: owner notification on negative
// feedback and auto-escalation when a chunk accumulates repeated negative
// feedback within a rolling window.
package escalation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/beacon-labs/wikimind/internal/config"
	"github.com/beacon-labs/wikimind/internal/logger"
	"github.com/beacon-labs/wikimind/internal/types"
	"github.com/beacon-labs/wikimind/internal/types/interfaces"
)

// Manager implements orchestrator.Escalator. It is constructed once per
// process and is safe for concurrent use.
type Manager struct {
	graph   interfaces.GraphStore
	chat    interfaces.ChatSurface
	cfg     *config.EscalationConfig
	tokens  *tokenIssuer
	tracker *autoEscalationTracker
}

// New builds the escalation manager.
func New(graph interfaces.GraphStore, chat interfaces.ChatSurface, cfg *config.EscalationConfig) *Manager {
	return &Manager{
		graph:   graph,
		chat:    chat,
		cfg:     cfg,
		tokens:  newTokenIssuer(cfg),
		tracker: newAutoEscalationTracker(time.Duration(cfg.EscalateWindowHours)*time.Hour, cfg.AutoEscalateThreshold),
	}
}

// HandleFeedback implements spec §4.8: notify the chunk's owner (or the
// admin channel if none is found), then independently check whether this
// chunk has crossed the auto-escalation threshold.
func (m *Manager) HandleFeedback(ctx context.Context, rec *types.FeedbackRecord) error {
	if !rec.IsNegative() {
		return nil
	}

	if err := m.notifyOwner(ctx, rec); err != nil {
		return err
	}

	if m.tracker.Record(rec.ChunkID, rec.CreatedAt) {
		return m.postAutoEscalationAlert(ctx, rec)
	}
	return nil
}

func (m *Manager) notifyOwner(ctx context.Context, rec *types.FeedbackRecord) error {
	chunk, found, err := m.graph.GetChunkByID(ctx, rec.ChunkID)
	if err != nil {
		return err
	}

	var title string
	var owner string
	if found {
		title, owner = chunk.PageTitle, chunk.Owner
	}

	ackToken, err := m.tokens.Issue(DeepLinkClaims{ChunkID: rec.ChunkID, ThreadRef: rec.ThreadRef, Action: "acknowledge"})
	if err != nil {
		return err
	}
	resolveToken, err := m.tokens.Issue(DeepLinkClaims{ChunkID: rec.ChunkID, ThreadRef: rec.ThreadRef, Action: "resolve"})
	if err != nil {
		return err
	}
	viewToken, err := m.tokens.Issue(DeepLinkClaims{ChunkID: rec.ChunkID, ThreadRef: rec.ThreadRef, Action: "view_thread"})
	if err != nil {
		return err
	}
	viewThreadBtn := interfaces.ActionButton{Label: "View Thread", Value: viewToken}

	if owner == "" {
		return m.postAdmin(ctx, rec, title, "no owner assigned", []interfaces.ActionButton{
			viewThreadBtn,
			{Label: "Mark Resolved", Value: resolveToken},
		})
	}

	userID, found, err := m.chat.LookupUserByEmail(ctx, owner)
	if err != nil {
		return err
	}
	if !found {
		return m.postAdmin(ctx, rec, title, "owner not found", []interfaces.ActionButton{
			viewThreadBtn,
			{Label: "Mark Resolved", Value: resolveToken},
		})
	}

	text := notificationText(rec, title)
	return m.chat.PostDirectMessage(ctx, userID, text, []interfaces.ActionButton{
		viewThreadBtn,
		{Label: "Acknowledge", Value: ackToken},
	})
}

func (m *Manager) postAdmin(ctx context.Context, rec *types.FeedbackRecord, title, reason string, actions []interfaces.ActionButton) error {
	text := fmt.Sprintf("%s (%s)", notificationText(rec, title), reason)
	_, err := m.chat.PostMessage(ctx, m.cfg.AdminChannel, "", text, actions...)
	if err != nil {
		logger.Errorf(ctx, "failed to post owner-escalation to admin channel: %v", err)
	}
	return err
}

func (m *Manager) postAutoEscalationAlert(ctx context.Context, rec *types.FeedbackRecord) error {
	text := fmt.Sprintf(
		"Auto-escalation: chunk %s received %d+ negative feedback submissions within %dh.",
		rec.ChunkID, m.cfg.AutoEscalateThreshold, m.cfg.EscalateWindowHours,
	)
	_, err := m.chat.PostMessage(ctx, m.cfg.AdminChannel, "", text)
	if err != nil {
		logger.Errorf(ctx, "failed to post auto-escalation alert: %v", err)
	}
	return err
}

func notificationText(rec *types.FeedbackRecord, title string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Feedback: %s on %q\n", rec.FeedbackType, title)
	if rec.QueryContext != "" {
		fmt.Fprintf(&b, "Original question: %s\n", rec.QueryContext)
	}
	if rec.Comment != "" {
		fmt.Fprintf(&b, "Issue: %s\n", rec.Comment)
	}
	if rec.SuggestedCorrection != "" {
		fmt.Fprintf(&b, "Suggested correction: %s\n", rec.SuggestedCorrection)
	}
	if rec.Evidence != "" {
		fmt.Fprintf(&b, "Evidence: %s\n", rec.Evidence)
	}
	fmt.Fprintf(&b, "Thread: %s", rec.ThreadRef)
	return b.String()
}
