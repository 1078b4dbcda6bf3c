// Package retriever implements the hybrid Retriever (spec §4.4): a
// composite of semantic (GraphStore + pgvector cache), lexical
// (Elasticsearch) and graph-expansion legs, generalizing the teacher's
// CompositeRetrieveEngine/RetrieveEngineRegistry registry pattern
// (internal/application/service/retriever/{registry,composite}.go).
package retriever

import (
	"context"
	"sync"

	"github.com/beacon-labs/wikimind/internal/types"
)

// EngineType names one leg of the composite retriever.
type EngineType string

const (
	EngineSemantic EngineType = "semantic"
	EngineLexical  EngineType = "lexical"
)

// Engine is one candidate-producing leg, registered against an EngineType.
type Engine interface {
	EngineType() EngineType
	Retrieve(ctx context.Context, query string, k int, filters types.SearchFilters) ([]types.RawResult, error)
}

// Registry holds the registered legs, keyed by EngineType, mirroring the
// teacher's RetrieveEngineRegistry.
type Registry struct {
	engines map[EngineType]Engine
	mu      sync.RWMutex
}

// NewRegistry creates an empty engine registry.
func NewRegistry() *Registry {
	return &Registry{engines: make(map[EngineType]Engine)}
}

// Register adds a leg, erroring if its EngineType is already taken.
func (r *Registry) Register(e Engine) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.engines[e.EngineType()]; exists {
		return &DuplicateEngineError{Type: e.EngineType()}
	}
	r.engines[e.EngineType()] = e
	return nil
}

// All returns a snapshot of every registered leg.
func (r *Registry) All() []Engine {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Engine, 0, len(r.engines))
	for _, e := range r.engines {
		out = append(out, e)
	}
	return out
}

// DuplicateEngineError reports a second registration attempt for one type.
type DuplicateEngineError struct{ Type EngineType }

func (e *DuplicateEngineError) Error() string {
	return "retriever: engine type " + string(e.Type) + " already registered"
}
