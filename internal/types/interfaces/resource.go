package interfaces

import (
	"context"

	"github.com/beacon-labs/wikimind/internal/types"
)

// ResourceCleaner collects teardown callbacks registered during container
// wiring and runs them in reverse order on shutdown.
type ResourceCleaner interface {
	Register(cleanup types.CleanupFunc)
	RegisterWithName(name string, cleanup types.CleanupFunc)
	Cleanup(ctx context.Context) []error
}
