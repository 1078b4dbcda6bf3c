package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/beacon-labs/wikimind/internal/logger"
)

// OpenAIEmbedder calls an OpenAI-compatible embeddings endpoint.
type OpenAIEmbedder struct {
	apiKey     string
	baseURL    string
	modelName  string
	dimensions int
	httpClient *http.Client
	maxRetries int
	pooler     Pooler
}

type openAIEmbedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type openAIEmbedResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
}

// NewOpenAIEmbedder builds an OpenAIEmbedder from the given config.
func NewOpenAIEmbedder(cfg *Config, pooler Pooler) (*OpenAIEmbedder, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	if cfg.ModelName == "" {
		return nil, fmt.Errorf("model name is required")
	}
	return &OpenAIEmbedder{
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		modelName:  cfg.ModelName,
		dimensions: cfg.Dimensions,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		maxRetries: 3,
		pooler:     pooler,
	}, nil
}

// EmbedSingle embeds one piece of text.
func (e *OpenAIEmbedder) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("no embedding returned for model %s", e.modelName)
	}
	return vectors[0], nil
}

// Embed embeds a batch of texts, fanning out across the shared pool.
func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return e.pooler.BatchEmbedWithPool(ctx, e.batchEmbed, texts)
}

func (e *OpenAIEmbedder) batchEmbed(ctx context.Context, texts []string) ([][]float32, error) {
	reqBody := openAIEmbedRequest{Model: e.modelName, Input: texts}
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	resp, err := e.doRequestWithRetry(ctx, jsonData)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embeddings API error: http status %s", resp.Status)
	}

	var parsed openAIEmbedResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	embeddings := make([][]float32, len(parsed.Data))
	for _, d := range parsed.Data {
		embeddings[d.Index] = d.Embedding
	}
	return embeddings, nil
}

func (e *OpenAIEmbedder) doRequestWithRetry(ctx context.Context, jsonData []byte) (*http.Response, error) {
	url := e.baseURL + "/embeddings"
	var resp *http.Response
	var err error

	for i := 0; i <= e.maxRetries; i++ {
		if i > 0 {
			backoff := time.Duration(1<<uint(i-1)) * time.Second
			if backoff > 10*time.Second {
				backoff = 10 * time.Second
			}
			logger.Infof(ctx, "embedder retrying request (%d/%d), waiting %v", i, e.maxRetries, backoff)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		req, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
		if reqErr != nil {
			return nil, reqErr
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+e.apiKey)

		resp, err = e.httpClient.Do(req)
		if err == nil {
			return resp, nil
		}
		logger.Warnf(ctx, "embedder request failed (attempt %d/%d): %v", i+1, e.maxRetries+1, err)
	}
	return nil, err
}

// Dimension returns the configured vector dimensionality.
func (e *OpenAIEmbedder) Dimension() int { return e.dimensions }

// Name returns the configured model name.
func (e *OpenAIEmbedder) Name() string { return e.modelName }
