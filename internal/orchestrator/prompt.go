package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/beacon-labs/wikimind/internal/config"
	"github.com/beacon-labs/wikimind/internal/types"
)

// PluginAssemblePrompt implements spec §4.7 step 5: system preamble, prior
// turns (<=6 trimmed to <=500 chars each), numbered context blocks from the
// top chunks (<=1000 chars each), the question.
type PluginAssemblePrompt struct {
	cfg *config.OrchestratorConfig
}

// NewPluginAssemblePrompt registers the prompt-assembly plugin.
func NewPluginAssemblePrompt(eventManager *EventManager, cfg *config.OrchestratorConfig) *PluginAssemblePrompt {
	p := &PluginAssemblePrompt{cfg: cfg}
	eventManager.Register(p)
	return p
}

func (p *PluginAssemblePrompt) ActivationEvents() []types.EventType {
	return []types.EventType{types.EventAssemblePrompt}
}

func (p *PluginAssemblePrompt) OnEvent(ctx context.Context, _ types.EventType, state *types.AnswerState, next func() *PluginError) *PluginError {
	var b strings.Builder
	b.WriteString(p.cfg.SystemPreamble)
	b.WriteString("\n\n")

	history := state.History
	if len(history) > p.cfg.MaxHistoryTurns {
		history = history[len(history)-p.cfg.MaxHistoryTurns:]
	}
	if len(history) > 0 {
		b.WriteString("Prior conversation:\n")
		for _, turn := range history {
			fmt.Fprintf(&b, "Q: %s\nA: %s\n", truncate(turn.Query, p.cfg.MaxHistoryChars), truncate(turn.Answer, p.cfg.MaxHistoryChars))
		}
		b.WriteString("\n")
	}

	if len(state.Results) > 0 {
		b.WriteString("Context:\n")
		for i, r := range state.Results {
			fmt.Fprintf(&b, "[%d] (%s) %s\n", i+1, r.PageTitle(), truncate(r.Content, p.cfg.MaxContextChars))
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "Question: %s\n", state.Query)
	state.Prompt = b.String()
	return next()
}

func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return s[:max]
}
