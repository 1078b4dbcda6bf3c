// Package embedding adapts OpenAI-compatible and Ollama embedding APIs to
// the interfaces.Embedder port, pooling batch requests across a shared
// goroutine pool the way the teacher's batch embedder does.
package embedding

import (
	"context"
	"fmt"
	"strings"

	"github.com/beacon-labs/wikimind/internal/models/utils/ollama"
	"github.com/beacon-labs/wikimind/internal/runtime"
	"github.com/beacon-labs/wikimind/internal/types/interfaces"
)

// Source selects which provider backs a configured embedder.
type Source string

const (
	SourceLocal  Source = "local"
	SourceRemote Source = "remote"
)

// Config configures one embedder instance (spec §6 "Embedder contract").
type Config struct {
	Source     Source
	BaseURL    string
	ModelName  string
	APIKey     string
	Dimensions int
}

// Pooler batches single-text embed calls across a goroutine pool.
type Pooler interface {
	BatchEmbedWithPool(ctx context.Context, embed func(ctx context.Context, texts []string) ([][]float32, error), texts []string) ([][]float32, error)
}

// New builds an interfaces.Embedder for the configured provider.
func New(cfg *Config) (interfaces.Embedder, error) {
	switch strings.ToLower(string(cfg.Source)) {
	case string(SourceLocal):
		var (
			embedder interfaces.Embedder
			err      error
		)
		invokeErr := runtime.GetContainer().Invoke(func(pooler Pooler, svc *ollama.OllamaService) {
			embedder, err = NewOllamaEmbedder(cfg, pooler, svc)
		})
		if invokeErr != nil {
			return nil, invokeErr
		}
		return embedder, err
	case string(SourceRemote):
		var (
			embedder interfaces.Embedder
			err      error
		)
		invokeErr := runtime.GetContainer().Invoke(func(pooler Pooler) {
			embedder, err = NewOpenAIEmbedder(cfg, pooler)
		})
		if invokeErr != nil {
			return nil, invokeErr
		}
		return embedder, err
	default:
		return nil, fmt.Errorf("unsupported embedder source: %s", cfg.Source)
	}
}
