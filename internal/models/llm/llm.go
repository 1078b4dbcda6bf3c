// Package llm adapts the provider-specific chat completion APIs (OpenAI-
// compatible remote endpoints and local Ollama) to the interfaces.LLM port
// used by the orchestrator and quality/lifecycle LLM-assist calls.
package llm

import (
	"fmt"
	"strings"

	"github.com/beacon-labs/wikimind/internal/models/utils/ollama"
	"github.com/beacon-labs/wikimind/internal/runtime"
	"github.com/beacon-labs/wikimind/internal/types/interfaces"
)

// Source selects which provider backs a configured model.
type Source string

const (
	SourceLocal  Source = "local"
	SourceRemote Source = "remote"
)

// Config configures one LLM instance (spec §6 "LLM provider contract").
type Config struct {
	Source    Source
	BaseURL   string
	ModelName string
	APIKey    string
}

// Message is a single chat turn.
type Message struct {
	Role    string
	Content string
}

// New builds an interfaces.LLM for the configured provider, resolving the
// shared Ollama service from the DI container the same way the embedder
// factory does.
func New(cfg *Config) (interfaces.LLM, error) {
	switch strings.ToLower(string(cfg.Source)) {
	case string(SourceLocal):
		var (
			chat interfaces.LLM
			err  error
		)
		invokeErr := runtime.GetContainer().Invoke(func(svc *ollama.OllamaService) {
			chat, err = NewOllamaLLM(cfg, svc)
		})
		if invokeErr != nil {
			return nil, invokeErr
		}
		return chat, err
	case string(SourceRemote):
		return NewRemoteLLM(cfg)
	default:
		return nil, fmt.Errorf("unsupported llm source: %s", cfg.Source)
	}
}
