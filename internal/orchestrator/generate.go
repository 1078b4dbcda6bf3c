package orchestrator

import (
	"context"

	"github.com/beacon-labs/wikimind/internal/config"
	"github.com/beacon-labs/wikimind/internal/logger"
	"github.com/beacon-labs/wikimind/internal/types"
	"github.com/beacon-labs/wikimind/internal/types/interfaces"
)

// PluginGenerate implements spec §4.7 step 6: call LLM.Generate(prompt) with
// one attempt; on error, fall back to a message acknowledging the sources
// found but apologizing for generation failure.
type PluginGenerate struct {
	llm interfaces.LLM
	cfg *config.OrchestratorConfig
}

// NewPluginGenerate registers the generation plugin.
func NewPluginGenerate(eventManager *EventManager, llm interfaces.LLM, cfg *config.OrchestratorConfig) *PluginGenerate {
	p := &PluginGenerate{llm: llm, cfg: cfg}
	eventManager.Register(p)
	return p
}

func (p *PluginGenerate) ActivationEvents() []types.EventType {
	return []types.EventType{types.EventGenerate}
}

func (p *PluginGenerate) OnEvent(ctx context.Context, _ types.EventType, state *types.AnswerState, next func() *PluginError) *PluginError {
	answer, err := p.llm.Generate(ctx, state.Prompt)
	if err != nil {
		logger.Warnf(ctx, "generation failed, falling back: %v", err)
		state.Answer = p.cfg.FallbackMessage
		state.Fallback = true
		return next()
	}
	state.Answer = answer
	return next()
}
