package embedding

import (
	"context"
	"fmt"
	"time"

	ollamaapi "github.com/ollama/ollama/api"

	"github.com/beacon-labs/wikimind/internal/logger"
	"github.com/beacon-labs/wikimind/internal/models/utils/ollama"
)

// OllamaEmbedder calls a local Ollama embeddings model.
type OllamaEmbedder struct {
	modelName  string
	dimensions int
	service    *ollama.OllamaService
	pooler     Pooler
}

// NewOllamaEmbedder builds an OllamaEmbedder from the given config.
func NewOllamaEmbedder(cfg *Config, pooler Pooler, svc *ollama.OllamaService) (*OllamaEmbedder, error) {
	modelName := cfg.ModelName
	if modelName == "" {
		modelName = "nomic-embed-text"
	}
	return &OllamaEmbedder{
		modelName:  modelName,
		dimensions: cfg.Dimensions,
		service:    svc,
		pooler:     pooler,
	}, nil
}

// EmbedSingle embeds one piece of text.
func (e *OllamaEmbedder) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("embed text: %w", err)
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("no embedding returned for model %s", e.modelName)
	}
	return vectors[0], nil
}

// Embed embeds a batch of texts, fanning out across the shared pool.
func (e *OllamaEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return e.pooler.BatchEmbedWithPool(ctx, e.batchEmbed, texts)
}

func (e *OllamaEmbedder) batchEmbed(ctx context.Context, texts []string) ([][]float32, error) {
	if err := e.service.EnsureModelAvailable(ctx, e.modelName); err != nil {
		return nil, err
	}
	req := &ollamaapi.EmbedRequest{Model: e.modelName, Input: texts}

	start := time.Now()
	resp, err := e.service.Embeddings(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("get embedding vectors: %w", err)
	}
	logger.Debugf(ctx, "embedding retrieval took: %v", time.Since(start))
	return resp.Embeddings, nil
}

// Dimension returns the configured vector dimensionality.
func (e *OllamaEmbedder) Dimension() int { return e.dimensions }

// Name returns the configured model name.
func (e *OllamaEmbedder) Name() string { return e.modelName }
