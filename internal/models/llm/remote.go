package llm

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"

	"github.com/beacon-labs/wikimind/internal/common"
)

// RemoteLLM calls an OpenAI-compatible chat completion endpoint.
type RemoteLLM struct {
	modelName string
	client    *openai.Client
}

// NewRemoteLLM builds a RemoteLLM from the given config.
func NewRemoteLLM(cfg *Config) (*RemoteLLM, error) {
	oaiCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oaiCfg.BaseURL = cfg.BaseURL
	}
	return &RemoteLLM{
		modelName: cfg.ModelName,
		client:    openai.NewClientWithConfig(oaiCfg),
	}, nil
}

// Generate sends a single user prompt and returns the completion text.
func (c *RemoteLLM) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.modelName,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from model %s", c.modelName)
	}
	return resp.Choices[0].Message.Content, nil
}

// GenerateJSON sends a prompt and decodes the response into target,
// tolerating markdown code-fenced JSON.
func (c *RemoteLLM) GenerateJSON(ctx context.Context, prompt string, target any) error {
	content, err := c.Generate(ctx, prompt)
	if err != nil {
		return err
	}
	return common.ParseLLMJsonResponse(content, target)
}

// CheckHealth reports whether the endpoint answers a trivial prompt.
func (c *RemoteLLM) CheckHealth(ctx context.Context) bool {
	_, err := c.Generate(ctx, "ping")
	return err == nil
}
