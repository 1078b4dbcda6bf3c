package llm

import (
	"context"
	"fmt"

	ollamaapi "github.com/ollama/ollama/api"

	"github.com/beacon-labs/wikimind/internal/common"
	"github.com/beacon-labs/wikimind/internal/logger"
	"github.com/beacon-labs/wikimind/internal/models/utils/ollama"
)

// OllamaLLM calls a local Ollama chat model.
type OllamaLLM struct {
	modelName string
	service   *ollama.OllamaService
}

// NewOllamaLLM builds an OllamaLLM from the given config.
func NewOllamaLLM(cfg *Config, svc *ollama.OllamaService) (*OllamaLLM, error) {
	return &OllamaLLM{modelName: cfg.ModelName, service: svc}, nil
}

// Generate sends a single user prompt and returns the completion text.
func (o *OllamaLLM) Generate(ctx context.Context, prompt string) (string, error) {
	if err := o.service.EnsureModelAvailable(ctx, o.modelName); err != nil {
		return "", err
	}
	streamFlag := false
	req := &ollamaapi.ChatRequest{
		Model: o.modelName,
		Messages: []ollamaapi.Message{
			{Role: "user", Content: prompt},
		},
		Stream: &streamFlag,
	}
	var content string
	err := o.service.Chat(ctx, req, func(resp ollamaapi.ChatResponse) error {
		content = resp.Message.Content
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama chat: %w", err)
	}
	return content, nil
}

// GenerateJSON sends a prompt and decodes the response into target,
// tolerating markdown code-fenced JSON.
func (o *OllamaLLM) GenerateJSON(ctx context.Context, prompt string, target any) error {
	content, err := o.Generate(ctx, prompt)
	if err != nil {
		return err
	}
	return common.ParseLLMJsonResponse(content, target)
}

// CheckHealth reports whether the model responds to a trivial prompt.
func (o *OllamaLLM) CheckHealth(ctx context.Context) bool {
	logger.Debugf(ctx, "checking ollama model health: %s", o.modelName)
	_, err := o.Generate(ctx, "ping")
	return err == nil
}
