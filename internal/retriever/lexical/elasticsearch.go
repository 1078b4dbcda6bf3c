// Package lexical implements the Retriever's BM25 leg, grounded on the
// teacher's Elasticsearch v8 repository
// (internal/application/repository/retriever/elasticsearch/v8/repository.go).
package lexical

import (
	"context"
	"encoding/json"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/typedapi/core/search"
	estypes "github.com/elastic/go-elasticsearch/v8/typedapi/types"

	"github.com/beacon-labs/wikimind/internal/logger"
	"github.com/beacon-labs/wikimind/internal/retriever"
	"github.com/beacon-labs/wikimind/internal/types"
)

// Engine is the Elasticsearch BM25 leg (RetrieverConfig.LexicalEngine ==
// "elasticsearch").
type Engine struct {
	client    *elasticsearch.TypedClient
	index     string
	tokenizer *Tokenizer
}

// New wires a typed client against the chunk content index.
func New(client *elasticsearch.TypedClient, index string) *Engine {
	if index == "" {
		index = "wikimind_chunks"
	}
	return &Engine{client: client, index: index, tokenizer: NewTokenizer()}
}

// Close releases the engine's tokenizer dictionary.
func (e *Engine) Close() {
	e.tokenizer.Close()
}

// chunkDoc is the document shape indexed alongside every GraphStore upsert.
type chunkDoc struct {
	ChunkID  string  `json:"chunk_id"`
	Content  string  `json:"content"`
	SpaceKey string  `json:"space_key"`
	DocType  string  `json:"doc_type"`
	Quality  float64 `json:"quality_score"`
}

// Index upserts one chunk's searchable text into the index. The ingestion
// pipeline does not call it.
func (e *Engine) Index(ctx context.Context, chunk *types.ChunkData) error {
	doc := chunkDoc{
		ChunkID:  chunk.ChunkID,
		Content:  chunk.Content,
		SpaceKey: chunk.SpaceKey,
		DocType:  chunk.DocType,
		Quality:  chunk.QualityScore,
	}
	_, err := e.client.Index(e.index).Id(chunk.ChunkID).Request(doc).Do(ctx)
	return err
}

func (e *Engine) EngineType() retriever.EngineType { return retriever.EngineLexical }

// Retrieve runs a BM25 match query against content, filtered by space_key
// and doc_type (spec §4.4 step 1 "lexical leg").
func (e *Engine) Retrieve(ctx context.Context, query string, k int, filters types.SearchFilters) ([]types.RawResult, error) {
	terms := query
	if e.tokenizer != nil {
		terms = e.tokenizer.Terms(query)
	}
	must := []estypes.Query{
		{Match: map[string]estypes.MatchQuery{"content": {Query: terms}}},
	}
	var filter []estypes.Query
	if filters.SpaceKey != "" {
		filter = append(filter, estypes.Query{Terms: &estypes.TermsQuery{
			TermsQuery: map[string]estypes.TermsQueryField{"space_key.keyword": []string{filters.SpaceKey}},
		}})
	}
	if filters.DocType != "" {
		filter = append(filter, estypes.Query{Terms: &estypes.TermsQuery{
			TermsQuery: map[string]estypes.TermsQueryField{"doc_type.keyword": []string{filters.DocType}},
		}})
	}

	size := k
	resp, err := e.client.Search().Index(e.index).Request(&search.Request{
		Query: &estypes.Query{Bool: &estypes.BoolQuery{Must: must, Filter: filter}},
		Size:  &size,
	}).Do(ctx)
	if err != nil {
		logger.Errorf(ctx, "[lexical] search failed for index %s: %v", e.index, err)
		return nil, err
	}

	out := make([]types.RawResult, 0, len(resp.Hits.Hits))
	for _, hit := range resp.Hits.Hits {
		var doc chunkDoc
		if err := json.Unmarshal(hit.Source_, &doc); err != nil {
			continue
		}
		score := 0.0
		if hit.Score_ != nil {
			score = float64(*hit.Score_)
		}
		out = append(out, types.RawResult{ChunkID: doc.ChunkID, Content: doc.Content, Score: score})
	}
	return out, nil
}
