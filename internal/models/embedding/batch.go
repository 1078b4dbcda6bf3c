package embedding

import (
	"context"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/beacon-labs/wikimind/internal/models/utils"
)

type pool struct {
	p *ants.Pool
}

// NewPool wraps a shared ants goroutine pool as a Pooler for embedder fan-out.
func NewPool(p *ants.Pool) Pooler {
	return &pool{p: p}
}

type textEmbedding struct {
	text   string
	result []float32
}

// BatchEmbedWithPool shards texts into small batches and submits each batch
// to the shared pool, mirroring the teacher's batchEmbedder concurrency shape.
func (e *pool) BatchEmbedWithPool(
	ctx context.Context,
	embed func(ctx context.Context, texts []string) ([][]float32, error),
	texts []string,
) ([][]float32, error) {
	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error
	const batchSize = 5

	items := utils.MapSlice(texts, func(t string) *textEmbedding { return &textEmbedding{text: t} })

	process := func(batch []*textEmbedding) func() {
		return func() {
			defer wg.Done()
			mu.Lock()
			alreadyFailed := firstErr != nil
			mu.Unlock()
			if alreadyFailed {
				return
			}
			vectors, err := embed(ctx, utils.MapSlice(batch, func(t *textEmbedding) string { return t.text }))
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				return
			}
			mu.Lock()
			for i, t := range batch {
				t.result = vectors[i]
			}
			mu.Unlock()
		}
	}

	for _, batch := range utils.ChunkSlice(items, batchSize) {
		wg.Add(1)
		if err := e.p.Submit(process(batch)); err != nil {
			wg.Done()
			return nil, err
		}
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return utils.MapSlice(items, func(t *textEmbedding) []float32 { return t.result }), nil
}
