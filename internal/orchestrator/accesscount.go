package orchestrator

import (
	"context"

	"github.com/beacon-labs/wikimind/internal/logger"
	"github.com/beacon-labs/wikimind/internal/quality"
	"github.com/beacon-labs/wikimind/internal/types"
)

// PluginAccessCount implements spec §4.7 step 4: increment access_count for
// each returned chunk, fire-and-forget.
type PluginAccessCount struct {
	quality *quality.Engine
}

// NewPluginAccessCount registers the access-count plugin.
func NewPluginAccessCount(eventManager *EventManager, q *quality.Engine) *PluginAccessCount {
	p := &PluginAccessCount{quality: q}
	eventManager.Register(p)
	return p
}

func (p *PluginAccessCount) ActivationEvents() []types.EventType {
	return []types.EventType{types.EventAccessCount}
}

func (p *PluginAccessCount) OnEvent(ctx context.Context, _ types.EventType, state *types.AnswerState, next func() *PluginError) *PluginError {
	for _, r := range state.Results {
		chunkID := r.ChunkID
		go func() {
			bgCtx := context.Background()
			if err := p.quality.RecordAccess(bgCtx, chunkID); err != nil {
				logger.Warnf(bgCtx, "access count increment failed for %s: %v", chunkID, err)
			}
		}()
	}
	return next()
}
