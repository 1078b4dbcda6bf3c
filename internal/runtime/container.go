// Package runtime holds the process-wide dig container so that factories
// deep in internal/models can reach back into it (the pooled embedder, the
// shared Ollama client) without an import cycle back to internal/container.
package runtime

import (
	"go.uber.org/dig"
)

var container *dig.Container

func init() {
	container = dig.New()
}

// GetContainer returns the global dig container.
func GetContainer() *dig.Container {
	return container
}
