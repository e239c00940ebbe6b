package papersources

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/helixir/scholar-gateway/internal/domain"
)

// DefaultBatchWorkers is the worker pool size used when callers pass zero.
const DefaultBatchWorkers = 5

// PaperResult is the outcome of one lookup in a batch.
type PaperResult struct {
	ID    string
	Paper *domain.Paper
	Error error
}

// SearchResult is the outcome of one keyword search in a batch.
type SearchResult struct {
	Keyword string
	Papers  []*domain.Paper
	Error   error
}

// BatchGetPapers fetches ids through a fixed-size worker pool. Results keep the
// order of ids. A failed lookup is recorded on its item and does not stop the
// others; only context cancellation ends the batch early.
//
// All workers share the adapter's throttle, so the pool bounds concurrency but
// never the provider request rate.
func BatchGetPapers(ctx context.Context, adapter Adapter, ids []string, workers int) ([]PaperResult, error) {
	results := make([]PaperResult, len(ids))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(batchLimit(workers))

	for i, id := range ids {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			paper, err := adapter.GetPaperByID(ctx, id)
			results[i] = PaperResult{ID: id, Paper: paper, Error: err}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

// BatchSearch runs one search per keyword through a fixed-size worker pool.
// params supplies the paging and year filters; its Keyword is replaced.
func BatchSearch(ctx context.Context, adapter Adapter, keywords []string, params SearchParams, workers int) ([]SearchResult, error) {
	results := make([]SearchResult, len(keywords))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(batchLimit(workers))

	for i, keyword := range keywords {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			p := params
			p.Keyword = keyword
			papers, err := adapter.SearchPapers(ctx, p)
			results[i] = SearchResult{Keyword: keyword, Papers: papers, Error: err}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

func batchLimit(workers int) int {
	if workers < 1 {
		return DefaultBatchWorkers
	}
	return workers
}
