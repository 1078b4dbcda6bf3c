package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/beacon-labs/wikimind/internal/types"
	"github.com/beacon-labs/wikimind/internal/types/interfaces"
)

var feedbackButtons = []interfaces.ActionButton{
	{Label: "Helpful", Value: string(types.FeedbackHelpful)},
	{Label: "Outdated", Value: string(types.FeedbackOutdated)},
	{Label: "Incorrect", Value: string(types.FeedbackIncorrect)},
	{Label: "Confusing", Value: string(types.FeedbackConfusing)},
}

// PluginEmit implements spec §4.7 step 7: post the answer with source
// attributions and the four feedback buttons, then store a BotResponse.
type PluginEmit struct {
	chat      interfaces.ChatSurface
	analytics interfaces.AnalyticsStore
}

// NewPluginEmit registers the emit plugin.
func NewPluginEmit(eventManager *EventManager, chat interfaces.ChatSurface, analytics interfaces.AnalyticsStore) *PluginEmit {
	p := &PluginEmit{chat: chat, analytics: analytics}
	eventManager.Register(p)
	return p
}

func (p *PluginEmit) ActivationEvents() []types.EventType {
	return []types.EventType{types.EventEmit}
}

func (p *PluginEmit) OnEvent(ctx context.Context, _ types.EventType, state *types.AnswerState, next func() *PluginError) *PluginError {
	text := formatAnswer(state)
	ts, err := p.chat.PostMessage(ctx, state.ChannelID, state.ThreadRef, text, feedbackButtons...)
	if err != nil {
		return ErrEmit.WithError(err)
	}
	state.ResponseTS = ts

	chunkIDs := make([]string, 0, len(state.Results))
	for _, r := range state.Results {
		chunkIDs = append(chunkIDs, r.ChunkID)
	}
	if _, err := p.analytics.InsertBotResponse(ctx, &types.BotResponse{
		ResponseTS: ts, ThreadTS: state.ThreadRef, ChannelID: state.ChannelID, UserID: state.UserID,
		Query: state.Query, Response: state.Answer, ChunkIDs: chunkIDs, CreatedAt: time.Now(),
	}); err != nil {
		return ErrEmit.WithError(err)
	}
	return next()
}

func formatAnswer(state *types.AnswerState) string {
	var b strings.Builder
	b.WriteString(state.Answer)
	if len(state.Results) > 0 {
		b.WriteString("\n\nSources:\n")
		for i, r := range state.Results {
			fmt.Fprintf(&b, "[%d] %s\n", i+1, r.PageTitle())
		}
	}
	return b.String()
}
