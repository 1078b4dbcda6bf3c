package orchestrator

import (
	"context"

	"github.com/beacon-labs/wikimind/internal/config"
	"github.com/beacon-labs/wikimind/internal/retriever"
	"github.com/beacon-labs/wikimind/internal/types"
)

// PluginRetrieve implements spec §4.7 step 3:
// Retriever.Search(text, k=5, useQualityBoost=true).
type PluginRetrieve struct {
	retriever *retriever.Retriever
	cfg       *config.OrchestratorConfig
}

// NewPluginRetrieve registers the retrieval plugin.
func NewPluginRetrieve(eventManager *EventManager, r *retriever.Retriever, cfg *config.OrchestratorConfig) *PluginRetrieve {
	p := &PluginRetrieve{retriever: r, cfg: cfg}
	eventManager.Register(p)
	return p
}

func (p *PluginRetrieve) ActivationEvents() []types.EventType {
	return []types.EventType{types.EventRetrieve}
}

func (p *PluginRetrieve) OnEvent(ctx context.Context, _ types.EventType, state *types.AnswerState, next func() *PluginError) *PluginError {
	results, err := p.retriever.Search(ctx, state.Query, p.cfg.TopK, types.SearchFilters{}, p.cfg.UseQualityBoost, p.cfg.UseGraphExpansion)
	if err != nil {
		return ErrRetrieve.WithError(err)
	}
	state.Results = results
	return next()
}
