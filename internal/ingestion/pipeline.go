// Package ingestion brings the Chunk Store into sync with the WikiSource
// (spec §4.2), grounded on the teacher's worker-pool batch-embedding
// pattern (internal/models/embedding.Pooler) and its asynq-scheduled job
// style (internal/common/asyncq.go).
package ingestion

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/redis/go-redis/v9"

	"github.com/beacon-labs/wikimind/internal/chunker"
	"github.com/beacon-labs/wikimind/internal/config"
	"github.com/beacon-labs/wikimind/internal/ingestion/breaker"
	"github.com/beacon-labs/wikimind/internal/logger"
	"github.com/beacon-labs/wikimind/internal/types"
	"github.com/beacon-labs/wikimind/internal/types/interfaces"
	"github.com/beacon-labs/wikimind/internal/wikisource"
	"github.com/beacon-labs/wikimind/internal/wikisource/htmltomd"
)

// Counters tallies the outcome of one sync_spaces invocation (spec §4.2
// "Partial failures accumulate counters").
type Counters struct {
	New     int
	Updated int
	Skipped int
	Errors  int
}

// Pipeline fetches, converts, chunks and upserts wiki pages.
type Pipeline struct {
	source   interfaces.WikiSource
	graph    interfaces.GraphStore
	analytic interfaces.AnalyticsStore
	embedder interfaces.Embedder
	chunker  *chunker.Chunker

	pool          *ants.Pool
	embedBreaker  breaker.Interface
	upsertBreaker breaker.Interface
	sessionID     string
}

// New builds a Pipeline wired to its collaborators and a worker pool sized
// per IngestionConfig.Concurrency. redisClient is optional: when non-nil,
// the embed/upsert circuit breakers share their failure counters across
// every process pointed at that Redis instance instead of tracking state
// locally (spec's DOMAIN STACK note on go-redis-backed breaker state).
func New(
	cfg *config.IngestionConfig,
	chunkerCfg *config.ChunkerConfig,
	source interfaces.WikiSource,
	graph interfaces.GraphStore,
	analytic interfaces.AnalyticsStore,
	embedder interfaces.Embedder,
	redisClient *redis.Client,
) (*Pipeline, error) {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 8
	}
	pool, err := ants.NewPool(concurrency)
	if err != nil {
		return nil, fmt.Errorf("build ingestion worker pool: %w", err)
	}

	var embedBreaker, upsertBreaker breaker.Interface
	if redisClient != nil {
		embedBreaker = breaker.NewRedis(redisClient, "wikimind:breaker:embed", cfg.BreakerThreshold, cfg.BreakerCooldown)
		upsertBreaker = breaker.NewRedis(redisClient, "wikimind:breaker:upsert", cfg.BreakerThreshold, cfg.BreakerCooldown)
	} else {
		embedBreaker = breaker.New(cfg.BreakerThreshold, cfg.BreakerCooldown)
		upsertBreaker = breaker.New(cfg.BreakerThreshold, cfg.BreakerCooldown)
	}

	return &Pipeline{
		source:        source,
		graph:         graph,
		analytic:      analytic,
		embedder:      embedder,
		chunker:       chunker.New(chunkerCfg),
		pool:          pool,
		embedBreaker:  embedBreaker,
		upsertBreaker: upsertBreaker,
		sessionID:     fmt.Sprintf("sync_%d", time.Now().UnixNano()),
	}, nil
}

// Release returns the worker pool's goroutines.
func (p *Pipeline) Release() {
	p.pool.Release()
}

// SyncSpaces walks every space's pages, diffing each against the recorded
// Page row, and ingests new or updated pages (spec §4.2 sync_spaces).
func (p *Pipeline) SyncSpaces(ctx context.Context, spaces []string, forceFull, resume bool) Counters {
	var total Counters
	for _, space := range spaces {
		total = addCounters(total, p.syncSpace(ctx, space, forceFull, resume))
	}
	return total
}

func (p *Pipeline) syncSpace(ctx context.Context, spaceKey string, forceFull, resume bool) Counters {
	var counters Counters
	token := ""
	for {
		pages, next, err := p.source.ListPages(ctx, spaceKey, token)
		if err != nil {
			logger.Errorf(ctx, "list pages for space %s: %v", spaceKey, err)
			counters.Errors++
			return counters
		}

		for _, page := range pages {
			counters = addCounters(counters, p.syncOnePage(ctx, spaceKey, page, forceFull, resume))
		}

		if next == "" {
			break
		}
		token = next
	}
	return counters
}

// syncOnePage diffs one page against its recorded Page row and, if it needs
// ingesting, returns the chunk-granular Counters produced by upsertBatch
// (spec §4.2: "partial failures accumulate counters" at chunk granularity).
// Page-level events that never reach chunk ingestion (unchanged, trashed, or
// a failure before any chunk work starts) contribute a single page-level
// count instead.
func (p *Pipeline) syncOnePage(ctx context.Context, spaceKey string, page interfaces.WikiSourcePage, forceFull, resume bool) Counters {
	existing, found, err := p.analytic.GetPage(ctx, page.PageID)
	if err != nil {
		logger.Errorf(ctx, "lookup page %s: %v", page.PageID, err)
		return Counters{Errors: 1}
	}

	if page.Status == "trashed" {
		if found {
			existing.Status = types.PageStatusDeleted
			if err := p.analytic.UpsertPage(ctx, existing); err != nil {
				logger.Errorf(ctx, "mark page %s deleted: %v", page.PageID, err)
				return Counters{Errors: 1}
			}
		}
		return Counters{Skipped: 1}
	}

	updatedAt, _ := time.Parse(time.RFC3339, page.UpdatedAt)
	if found && !updatedAt.After(existing.UpdatedAt) && !forceFull {
		return Counters{Skipped: 1}
	}

	chunkCounters, err := p.ingestPage(ctx, spaceKey, page, updatedAt, resume)
	if err != nil {
		logger.Errorf(ctx, "ingest page %s: %v", page.PageID, err)
		return Counters{Errors: 1}
	}

	record := &types.Page{
		PageID:        page.PageID,
		SpaceKey:      spaceKey,
		Title:         page.Title,
		VersionNumber: page.Version,
		Status:        types.PageStatusActive,
		UpdatedAt:     updatedAt,
		DownloadedAt:  time.Now(),
	}
	if err := p.analytic.UpsertPage(ctx, record); err != nil {
		logger.Errorf(ctx, "record page %s: %v", page.PageID, err)
		return Counters{Errors: 1}
	}

	if chunkCounters == (Counters{}) {
		// No chunks came out of the page (e.g. an empty body): count the
		// page itself rather than reporting nothing.
		if !found {
			return Counters{New: 1}
		}
		return Counters{Updated: 1}
	}
	return chunkCounters
}

// ingestPage fetches one page's body, renders it to Markdown (the rendering
// is not stored), chunks the raw HTML, embeds and upserts each chunk (spec §4.2 "Ingest one
// page"). The returned error only ever reflects a failure before any chunk
// work starts (fetch/convert/chunk); once chunks exist, per-chunk failures
// are folded into the returned Counters instead of aborting the page.
func (p *Pipeline) ingestPage(ctx context.Context, spaceKey string, page interfaces.WikiSourcePage, updatedAt time.Time, resume bool) (Counters, error) {
	body, err := p.source.GetPageBody(ctx, page.PageID)
	if err != nil {
		return Counters{}, fmt.Errorf("fetch body: %w", err)
	}

	// The Markdown rendering is discarded and not written to any page root;
	// only a conversion error is logged. The Chunker consumes body.HTML
	// directly (§4.1).
	if _, err := htmltomd.Convert(body.HTML); err != nil {
		logger.Warnf(ctx, "convert page %s to markdown: %v", page.PageID, err)
	}

	chunks, err := p.chunker.Chunk(body.HTML, page.PageID, page.Title)
	if err != nil {
		return Counters{}, fmt.Errorf("chunk: %w", err)
	}
	if len(chunks) == 0 {
		return Counters{}, nil
	}

	gov := wikisource.ParseGovernance(body.Labels)
	now := time.Now()
	for _, chunk := range chunks {
		chunk.SpaceKey = spaceKey
		chunk.URL = page.WebURL
		chunk.Author = body.CreatedBy
		chunk.AuthorName = body.CreatedByName
		chunk.Owner = gov.Owner
		chunk.ReviewedBy = gov.ReviewedBy
		chunk.ReviewedAt = gov.ReviewedAt
		chunk.Classification = gov.Classification
		chunk.DocType = gov.DocType
		chunk.QualityScore = 100
		chunk.AccessCount = 0
		chunk.FeedbackCount = 0
		chunk.EventTime = updatedAt
		chunk.IngestedAt = now
		chunk.Status = types.ChunkStatusActive
		chunk.Normalize()
	}

	return p.upsertBatch(ctx, chunks, resume), nil
}

// upsertBatch embeds and upserts every chunk concurrently across the worker
// pool, tallying a chunk-granular Counters: a chunk already indexed in the
// current or a prior session (resume=true) counts as skipped, and a chunk
// that fails to embed or upsert counts as an error without stopping its
// siblings (spec §4.2, spec §8 resume scenario).
func (p *Pipeline) upsertBatch(ctx context.Context, chunks []*types.ChunkData, resume bool) Counters {
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		counters Counters
	)

	for _, chunk := range chunks {
		chunk := chunk
		if resume {
			indexed, err := p.analytic.IndexedInSessionOrBefore(ctx, chunk.ChunkID)
			if err == nil && indexed {
				mu.Lock()
				counters.Skipped++
				mu.Unlock()
				continue
			}
		}

		wg.Add(1)
		submitErr := p.pool.Submit(func() {
			defer wg.Done()
			isNew, err := p.upsertOne(ctx, chunk)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				counters.Errors++
				return
			}
			if isNew {
				counters.New++
			} else {
				counters.Updated++
			}
		})
		if submitErr != nil {
			wg.Done()
			mu.Lock()
			counters.Errors++
			mu.Unlock()
		}
	}

	wg.Wait()
	return counters
}

// upsertOne embeds and upserts a single chunk, reporting whether the chunk
// was new (absent from the Chunk Store beforehand) so upsertBatch can
// distinguish new from updated.
func (p *Pipeline) upsertOne(ctx context.Context, chunk *types.ChunkData) (bool, error) {
	_, found, lookupErr := p.graph.GetChunkByID(ctx, chunk.ChunkID)
	if lookupErr != nil {
		logger.Warnf(ctx, "lookup chunk %s before upsert: %v", chunk.ChunkID, lookupErr)
	}
	isNew := !found

	checkpoint := &types.IndexingCheckpoint{
		ChunkID:          chunk.ChunkID,
		SessionID:        p.sessionID,
		Status:           types.CheckpointPending,
		SessionStartedAt: time.Now(),
		UpdatedAt:        time.Now(),
	}
	if err := p.analytic.UpsertCheckpoint(ctx, checkpoint); err != nil {
		logger.Warnf(ctx, "write pending checkpoint for %s: %v", chunk.ChunkID, err)
	}

	err := p.embedBreaker.Call(func() error {
		if p.embedder == nil {
			return nil
		}
		_, embedErr := p.embedder.EmbedSingle(ctx, chunk.Content)
		return embedErr
	})
	if err == nil {
		err = p.upsertBreaker.Call(func() error {
			return p.graph.UpsertChunk(ctx, chunk)
		})
	}

	if err != nil {
		checkpoint.Status = types.CheckpointFailed
		checkpoint.Error = err.Error()
		checkpoint.RetryCount++
		checkpoint.UpdatedAt = time.Now()
		if cpErr := p.analytic.UpsertCheckpoint(ctx, checkpoint); cpErr != nil {
			logger.Warnf(ctx, "write failed checkpoint for %s: %v", chunk.ChunkID, cpErr)
		}
		if errors.Is(err, breaker.ErrOpen) {
			return isNew, fmt.Errorf("circuit open for chunk %s: %w", chunk.ChunkID, err)
		}
		return isNew, fmt.Errorf("upsert chunk %s: %w", chunk.ChunkID, err)
	}

	checkpoint.Status = types.CheckpointIndexed
	checkpoint.UpdatedAt = time.Now()
	if cpErr := p.analytic.UpsertCheckpoint(ctx, checkpoint); cpErr != nil {
		logger.Warnf(ctx, "write indexed checkpoint for %s: %v", chunk.ChunkID, cpErr)
	}
	return isNew, nil
}

func addCounters(a, b Counters) Counters {
	return Counters{
		New:     a.New + b.New,
		Updated: a.Updated + b.Updated,
		Skipped: a.Skipped + b.Skipped,
		Errors:  a.Errors + b.Errors,
	}
}
