package orchestrator

import (
	"sync"

	"github.com/beacon-labs/wikimind/internal/types"
)

// threadCache is the bounded in-memory store of recent turns per thread
// (spec §4.7 step 2: "capacity 500 threads x 10 messages each").
type threadCache struct {
	mu       sync.Mutex
	maxDepth int
	byThread *boundedCache
}

func newThreadCache(threadCapacity, maxDepth int) *threadCache {
	if maxDepth <= 0 {
		maxDepth = 10
	}
	return &threadCache{maxDepth: maxDepth, byThread: newBoundedCache(threadCapacity)}
}

type turnsHolder struct {
	turns []types.Turn
}

func (t *threadCache) Get(threadRef string) []types.Turn {
	t.mu.Lock()
	defer t.mu.Unlock()
	v, ok := t.byThread.Get(threadRef)
	if !ok {
		return nil
	}
	holder := v.(*turnsHolder)
	out := make([]types.Turn, len(holder.turns))
	copy(out, holder.turns)
	return out
}

func (t *threadCache) Append(threadRef string, tn types.Turn) {
	t.mu.Lock()
	defer t.mu.Unlock()
	v, ok := t.byThread.Get(threadRef)
	var holder *turnsHolder
	if ok {
		holder = v.(*turnsHolder)
	} else {
		holder = &turnsHolder{}
	}
	holder.turns = append(holder.turns, tn)
	if len(holder.turns) > t.maxDepth {
		holder.turns = holder.turns[len(holder.turns)-t.maxDepth:]
	}
	t.byThread.Put(threadRef, holder)
}
