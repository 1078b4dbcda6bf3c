package orchestrator

import (
	"context"

	"github.com/beacon-labs/wikimind/internal/types"
)

// PluginLoadHistory implements spec §4.7 step 2: load prior turns for
// thread_ref from the bounded thread cache.
type PluginLoadHistory struct {
	cache *threadCache
}

// NewPluginLoadHistory registers the history-loading plugin.
func NewPluginLoadHistory(eventManager *EventManager, cache *threadCache) *PluginLoadHistory {
	p := &PluginLoadHistory{cache: cache}
	eventManager.Register(p)
	return p
}

func (p *PluginLoadHistory) ActivationEvents() []types.EventType {
	return []types.EventType{types.EventLoadHistory}
}

func (p *PluginLoadHistory) OnEvent(ctx context.Context, _ types.EventType, state *types.AnswerState, next func() *PluginError) *PluginError {
	state.History = p.cache.Get(state.ThreadRef)
	return next()
}

// PluginPersistTurns implements spec §4.7 step 8: append (user, assistant)
// turns to the thread cache.
type PluginPersistTurns struct {
	cache *threadCache
}

// NewPluginPersistTurns registers the turn-persistence plugin.
func NewPluginPersistTurns(eventManager *EventManager, cache *threadCache) *PluginPersistTurns {
	p := &PluginPersistTurns{cache: cache}
	eventManager.Register(p)
	return p
}

func (p *PluginPersistTurns) ActivationEvents() []types.EventType {
	return []types.EventType{types.EventPersistTurns}
}

func (p *PluginPersistTurns) OnEvent(ctx context.Context, _ types.EventType, state *types.AnswerState, next func() *PluginError) *PluginError {
	chunkIDs := make([]string, 0, len(state.Results))
	for _, r := range state.Results {
		chunkIDs = append(chunkIDs, r.ChunkID)
	}
	p.cache.Append(state.ThreadRef, types.Turn{Query: state.Query, Answer: state.Answer, ChunkIDs: chunkIDs})
	return next()
}
