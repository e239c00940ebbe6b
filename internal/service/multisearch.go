package service

import (
	"context"
	"strings"

	"github.com/helixir/scholar-gateway/internal/domain"
	"github.com/helixir/scholar-gateway/internal/observability"
	"github.com/helixir/scholar-gateway/internal/papersources"
)

// MaxBatchKeywords bounds the keywords accepted by BatchSearch.
const MaxBatchKeywords = 20

// MultiSearchRequest searches the first page of several sources for one
// keyword. An empty Sources list means every registered source.
type MultiSearchRequest struct {
	Keyword   string
	Sources   []string
	StartYear *int
	EndYear   *int
	PageSize  int

	// Clean deduplicates across sources.
	Clean bool
}

// SourceOutcome reports one source's part in a multi-source search.
type SourceOutcome struct {
	Source domain.SourceType
	Count  int
	Err    error
}

// MultiSearchResult holds the merged papers in source order.
type MultiSearchResult struct {
	Keyword  string
	Outcomes []SourceOutcome
	Papers   []*domain.Paper
}

// SearchSources searches several sources concurrently and merges the results.
// A failing source is reported in its outcome; the call fails only when every
// source failed.
func (s *Service) SearchSources(ctx context.Context, req MultiSearchRequest) (*MultiSearchResult, error) {
	keyword := strings.TrimSpace(req.Keyword)
	if keyword == "" {
		return nil, domain.NewValidationError("keyword", "is required")
	}
	if err := checkYearRange(req.StartYear, req.EndYear); err != nil {
		return nil, err
	}

	adapters, err := s.selectAdapters(req.Sources)
	if err != nil {
		return nil, err
	}

	fanout := papersources.NewRegistry()
	for _, a := range adapters {
		fanout.Register(&cachedSearcher{Adapter: a, svc: s})
	}

	params := papersources.SearchParams{
		Keyword:   keyword,
		StartYear: req.StartYear,
		EndYear:   req.EndYear,
		Page:      1,
		PageSize:  req.PageSize,
	}.Normalize()

	results := fanout.SearchAll(ctx, params)

	out := &MultiSearchResult{
		Keyword:  keyword,
		Outcomes: make([]SourceOutcome, 0, len(results)),
		Papers:   []*domain.Paper{},
	}
	var firstErr error
	for _, r := range results {
		out.Outcomes = append(out.Outcomes, SourceOutcome{Source: r.Source, Count: len(r.Papers), Err: r.Error})
		if r.Error != nil {
			logger := observability.WithSearchContext(s.logger, keyword, string(r.Source))
			logger.Warn().Err(r.Error).Msg("source search failed")
			if firstErr == nil {
				firstErr = r.Error
			}
			continue
		}
		out.Papers = append(out.Papers, r.Papers...)
	}
	if firstErr != nil && allFailed(out.Outcomes) {
		return nil, firstErr
	}

	if req.Clean {
		out.Papers = s.cleaner.Clean(out.Papers)
		if out.Papers == nil {
			out.Papers = []*domain.Paper{}
		}
	}
	return out, nil
}

func allFailed(outcomes []SourceOutcome) bool {
	for _, o := range outcomes {
		if o.Err == nil {
			return false
		}
	}
	return true
}

// selectAdapters resolves source names against the registry.
func (s *Service) selectAdapters(names []string) ([]papersources.Adapter, error) {
	if len(names) == 0 {
		return s.registry.Sources(), nil
	}

	seen := make(map[domain.SourceType]bool, len(names))
	adapters := make([]papersources.Adapter, 0, len(names))
	for _, name := range names {
		st, err := domain.ParseSourceType(strings.ToLower(strings.TrimSpace(name)))
		if err != nil {
			return nil, err
		}
		if seen[st] {
			continue
		}
		seen[st] = true

		adapter, ok := s.registry.Get(st)
		if !ok {
			return nil, domain.NewValidationError("sources", string(st)+" is not configured")
		}
		adapters = append(adapters, adapter)
	}
	return adapters, nil
}

// BatchSearchRequest runs one search per keyword through the current adapter.
type BatchSearchRequest struct {
	Keywords  []string
	StartYear *int
	EndYear   *int
	PageSize  int
	Clean     bool
}

// KeywordOutcome is the first page for one keyword of a batch search.
type KeywordOutcome struct {
	Keyword string
	Papers  []*domain.Paper
	Err     error
}

// BatchSearch searches several keywords concurrently through the cache.
// Failures are reported per keyword.
func (s *Service) BatchSearch(ctx context.Context, req BatchSearchRequest) ([]KeywordOutcome, error) {
	if len(req.Keywords) == 0 {
		return nil, domain.NewValidationError("keywords", "is required")
	}
	if len(req.Keywords) > MaxBatchKeywords {
		return nil, domain.NewValidationError("keywords", "too many keywords")
	}
	keywords := make([]string, len(req.Keywords))
	for i, k := range req.Keywords {
		keywords[i] = strings.TrimSpace(k)
		if keywords[i] == "" {
			return nil, domain.NewValidationError("keywords", "must not contain empty entries")
		}
	}
	if err := checkYearRange(req.StartYear, req.EndYear); err != nil {
		return nil, err
	}

	params := papersources.SearchParams{
		StartYear: req.StartYear,
		EndYear:   req.EndYear,
		Page:      1,
		PageSize:  req.PageSize,
	}.Normalize()

	adapter, _ := s.adapter()
	results, err := papersources.BatchSearch(ctx, &cachedSearcher{Adapter: adapter, svc: s}, keywords, params, s.batchWorkers)
	if err != nil {
		return nil, err
	}

	out := make([]KeywordOutcome, len(results))
	for i, r := range results {
		papers := r.Papers
		if req.Clean && r.Error == nil {
			papers = s.cleaner.Clean(papers)
		}
		if papers == nil {
			papers = []*domain.Paper{}
		}
		out[i] = KeywordOutcome{Keyword: r.Keyword, Papers: papers, Err: r.Error}
	}
	return out, nil
}

// cachedSearcher routes adapter searches through the service cache.
type cachedSearcher struct {
	papersources.Adapter
	svc *Service
}

func (c *cachedSearcher) SearchPapers(ctx context.Context, params papersources.SearchParams) ([]*domain.Paper, error) {
	return c.svc.cachedSearch(ctx, c.Adapter, params)
}
