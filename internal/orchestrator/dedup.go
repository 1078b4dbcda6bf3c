package orchestrator

import (
	"context"

	"github.com/beacon-labs/wikimind/internal/types"
)

// PluginDedup implements spec §4.7 step 1: de-duplicate the inbound event by
// client_msg_id, falling back to ts when it is empty, against a bounded LRU.
type PluginDedup struct {
	seen *boundedCache
}

// NewPluginDedup registers a dedup plugin with capacity-bound seen set.
func NewPluginDedup(eventManager *EventManager, capacity int) *PluginDedup {
	p := &PluginDedup{seen: newBoundedCache(capacity)}
	eventManager.Register(p)
	return p
}

func (p *PluginDedup) ActivationEvents() []types.EventType {
	return []types.EventType{types.EventDedup}
}

func (p *PluginDedup) OnEvent(ctx context.Context, _ types.EventType, state *types.AnswerState, next func() *PluginError) *PluginError {
	key := state.ClientMsgID
	if key == "" {
		key = state.MessageTS
	}
	if p.seen.Seen(key) {
		state.Duplicate = true
		return ErrDuplicate
	}
	return next()
}
