package tokenizers

import (
	"context"
	"sync"

	"github.com/ZanzyTHEbar/tokenhub/tokenhub/registry"
	"github.com/sourcegraph/conc/pool"
)

// Prewarm resolves a batch of model records up front so later callers hit the
// memo. Records are submitted concurrently, but resolution itself still
// serializes on the registry lock; the overlap only covers scheduling and
// skipping already-memoized ids. Returns the per-model errors, keyed by the
// record's raw id; successful resolutions are absent from the map.
func Prewarm(ctx context.Context, reg *Registry, recs []registry.ModelRecord) map[string]error {
	var mu sync.Mutex
	failures := make(map[string]error)

	p := pool.New().WithMaxGoroutines(4).WithContext(ctx)
	for _, rec := range recs {
		p.Go(func(ctx context.Context) error {
			if _, err := reg.Resolve(ctx, rec); err != nil {
				mu.Lock()
				failures[rec.ID] = err
				mu.Unlock()
				logger.Error().Err(err).Str("model", rec.ID).Msg("tokenizer prewarm failed")
			}
			// Individual failures are reported via the map, not the pool.
			return nil
		})
	}
	_ = p.Wait()
	return failures
}
