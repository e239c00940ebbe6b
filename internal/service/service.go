// Package service is the facade the transports call. It resolves the active
// paper source, wraps every adapter call in the response cache and turns
// adapter not-found results into domain.NotFoundError.
package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/helixir/scholar-gateway/internal/cache"
	"github.com/helixir/scholar-gateway/internal/cleaning"
	"github.com/helixir/scholar-gateway/internal/domain"
	"github.com/helixir/scholar-gateway/internal/llm"
	"github.com/helixir/scholar-gateway/internal/papersources"
)

// Cache key prefixes, one per cached operation.
const (
	prefixPaperInfo    = "paper_info"
	prefixSearch       = "search"
	prefixAuthorInfo   = "author_info"
	prefixAuthorPapers = "author_papers"
	prefixCitations    = "citations"
	prefixJournalInfo  = "journal_info"
)

// MaxAnalysisPapers bounds the papers fetched for one LLM analysis.
const MaxAnalysisPapers = 20

// Config holds the service dependencies. Cache, Cleaner and Analyzer are
// optional.
type Config struct {
	Registry       *papersources.Registry
	DefaultAdapter string
	Cache          *cache.Cache
	Cleaner        *cleaning.Cleaner
	Analyzer       *llm.Analyzer
	BatchWorkers   int
}

// Service serves paper, author, journal and citation lookups through the
// current adapter. It is safe for concurrent use.
type Service struct {
	registry     *papersources.Registry
	cache        *cache.Cache
	cleaner      *cleaning.Cleaner
	analyzer     *llm.Analyzer
	batchWorkers int
	logger       zerolog.Logger

	mu      sync.RWMutex
	current domain.SourceType
}

// New creates the service. DefaultAdapter must name a registered adapter.
func New(cfg Config, logger zerolog.Logger) (*Service, error) {
	if cfg.Registry == nil || cfg.Registry.Len() == 0 {
		return nil, fmt.Errorf("%w: no paper sources configured", domain.ErrServiceUnavailable)
	}

	s := &Service{
		registry:     cfg.Registry,
		cache:        cfg.Cache,
		cleaner:      cfg.Cleaner,
		analyzer:     cfg.Analyzer,
		batchWorkers: cfg.BatchWorkers,
		logger:       logger.With().Str("component", "service").Logger(),
	}
	if s.cleaner == nil {
		s.cleaner = cleaning.NewCleaner(cleaning.DefaultAuthorThreshold, logger)
	}

	name := cfg.DefaultAdapter
	if name == "" {
		name = string(domain.SourceTypeOpenAlex)
	}
	if err := s.SwitchAdapter(name); err != nil {
		return nil, err
	}
	return s, nil
}

// CurrentAdapter returns the active source.
func (s *Service) CurrentAdapter() domain.SourceType {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// SupportedAdapters lists the registered sources.
func (s *Service) SupportedAdapters() []domain.SourceType {
	return s.registry.Names()
}

// SwitchAdapter makes name the active source. Names outside the supported
// set, and supported sources that were not configured, are rejected.
func (s *Service) SwitchAdapter(name string) error {
	st, err := domain.ParseSourceType(strings.ToLower(strings.TrimSpace(name)))
	if err != nil {
		return err
	}
	if _, ok := s.registry.Get(st); !ok {
		return domain.NewValidationError("adapter", fmt.Sprintf("source %q is not configured", st))
	}

	s.mu.Lock()
	prev := s.current
	s.current = st
	s.mu.Unlock()

	if prev != st {
		s.logger.Info().Str("from", string(prev)).Str("to", string(st)).Msg("switched paper source")
	}
	return nil
}

func (s *Service) adapter() (papersources.Adapter, domain.SourceType) {
	st := s.CurrentAdapter()
	adapter, _ := s.registry.Get(st)
	return adapter, st
}

type idKey struct {
	Adapter domain.SourceType `json:"adapter"`
	ID      string            `json:"id"`
}

// GetPaperInfo fetches one paper.
func (s *Service) GetPaperInfo(ctx context.Context, paperID string) (*domain.Paper, error) {
	paperID = strings.TrimSpace(paperID)
	if paperID == "" {
		return nil, domain.NewValidationError("paper_id", "is required")
	}

	adapter, st := s.adapter()
	paper, err := cache.Remember(ctx, s.cache, prefixPaperInfo, idKey{Adapter: st, ID: paperID},
		func(ctx context.Context) (*domain.Paper, error) {
			return adapter.GetPaperByID(ctx, paperID)
		})
	if err != nil {
		return nil, err
	}
	if paper == nil {
		return nil, domain.NewNotFoundError("paper", paperID)
	}
	return paper, nil
}

// GetAuthorInfo fetches one author profile.
func (s *Service) GetAuthorInfo(ctx context.Context, authorID string) (*domain.Author, error) {
	authorID = strings.TrimSpace(authorID)
	if authorID == "" {
		return nil, domain.NewValidationError("author_id", "is required")
	}

	adapter, st := s.adapter()
	author, err := cache.Remember(ctx, s.cache, prefixAuthorInfo, idKey{Adapter: st, ID: authorID},
		func(ctx context.Context) (*domain.Author, error) {
			return adapter.GetAuthorInfo(ctx, authorID)
		})
	if err != nil {
		return nil, err
	}
	if author == nil {
		return nil, domain.NewNotFoundError("author", authorID)
	}
	return author, nil
}

// GetJournalInfo fetches one journal profile.
func (s *Service) GetJournalInfo(ctx context.Context, journalID string) (*domain.Journal, error) {
	journalID = strings.TrimSpace(journalID)
	if journalID == "" {
		return nil, domain.NewValidationError("journal_id", "is required")
	}

	adapter, st := s.adapter()
	journal, err := cache.Remember(ctx, s.cache, prefixJournalInfo, idKey{Adapter: st, ID: journalID},
		func(ctx context.Context) (*domain.Journal, error) {
			return adapter.GetJournalInfo(ctx, journalID)
		})
	if err != nil {
		return nil, err
	}
	if journal == nil {
		return nil, domain.NewNotFoundError("journal", journalID)
	}
	return journal, nil
}

type citationKey struct {
	Adapter domain.SourceType `json:"adapter"`
	ID      string            `json:"id"`
	Depth   int               `json:"depth"`
}

// GetCitationRelations returns one hop of the citation graph around paperID.
func (s *Service) GetCitationRelations(ctx context.Context, paperID string, depth int) (*domain.CitationRelations, error) {
	paperID = strings.TrimSpace(paperID)
	if paperID == "" {
		return nil, domain.NewValidationError("paper_id", "is required")
	}
	if depth < 1 {
		depth = 1
	}

	adapter, st := s.adapter()
	relations, err := cache.Remember(ctx, s.cache, prefixCitations, citationKey{Adapter: st, ID: paperID, Depth: depth},
		func(ctx context.Context) (*domain.CitationRelations, error) {
			return adapter.GetCitationRelations(ctx, paperID, depth)
		})
	if err != nil {
		return nil, err
	}
	if relations == nil {
		return nil, domain.NewNotFoundError("paper", paperID)
	}
	return relations, nil
}

// SearchRequest is a keyword search through the current adapter.
type SearchRequest struct {
	Keyword   string
	StartYear *int
	EndYear   *int
	Page      int
	PageSize  int

	// Clean runs the cleaning pass over the page before it is returned.
	Clean bool

	// Filter, when set, drops papers outside the year and citation bounds.
	Filter *cleaning.FilterOptions
}

// SearchResult is one page of search results.
type SearchResult struct {
	Adapter  domain.SourceType `json:"adapter"`
	Keyword  string            `json:"keyword"`
	Page     int               `json:"page"`
	PageSize int               `json:"page_size"`
	Total    int               `json:"total"`
	Papers   []*domain.Paper   `json:"papers"`
}

type searchKey struct {
	Adapter   domain.SourceType `json:"adapter"`
	Keyword   string            `json:"keyword"`
	StartYear *int              `json:"start_year"`
	EndYear   *int              `json:"end_year"`
	Page      int               `json:"page"`
	PageSize  int               `json:"page_size"`
}

// SearchPapers searches the current adapter. The raw page is cached; cleaning
// and filtering run on every call.
func (s *Service) SearchPapers(ctx context.Context, req SearchRequest) (*SearchResult, error) {
	keyword := strings.TrimSpace(req.Keyword)
	if keyword == "" {
		return nil, domain.NewValidationError("keyword", "is required")
	}
	if err := checkYearRange(req.StartYear, req.EndYear); err != nil {
		return nil, err
	}

	params := papersources.SearchParams{
		Keyword:   keyword,
		StartYear: req.StartYear,
		EndYear:   req.EndYear,
		Page:      req.Page,
		PageSize:  req.PageSize,
	}.Normalize()

	adapter, st := s.adapter()
	papers, err := s.cachedSearch(ctx, adapter, params)
	if err != nil {
		return nil, err
	}

	if req.Clean {
		papers = s.cleaner.Clean(papers)
	}
	if req.Filter != nil {
		papers = cleaning.Filter(papers, *req.Filter)
	}
	if papers == nil {
		papers = []*domain.Paper{}
	}

	return &SearchResult{
		Adapter:  st,
		Keyword:  keyword,
		Page:     params.Page,
		PageSize: params.PageSize,
		Total:    len(papers),
		Papers:   papers,
	}, nil
}

// cachedSearch returns one raw search page from adapter through the cache.
func (s *Service) cachedSearch(ctx context.Context, adapter papersources.Adapter, params papersources.SearchParams) ([]*domain.Paper, error) {
	key := searchKey{
		Adapter:   adapter.SourceType(),
		Keyword:   params.Keyword,
		StartYear: params.StartYear,
		EndYear:   params.EndYear,
		Page:      params.Page,
		PageSize:  params.PageSize,
	}
	return cache.Remember(ctx, s.cache, prefixSearch, key,
		func(ctx context.Context) ([]*domain.Paper, error) {
			return adapter.SearchPapers(ctx, params)
		})
}

// AuthorPapersRequest lists an author's papers through the current adapter.
type AuthorPapersRequest struct {
	AuthorID  string
	StartYear *int
	EndYear   *int
	Limit     int
}

type authorPapersKey struct {
	Adapter   domain.SourceType `json:"adapter"`
	AuthorID  string            `json:"author_id"`
	StartYear *int              `json:"start_year"`
	EndYear   *int              `json:"end_year"`
	Limit     int               `json:"limit"`
}

// GetAuthorPapers lists papers by an author. The result is never nil.
func (s *Service) GetAuthorPapers(ctx context.Context, req AuthorPapersRequest) ([]*domain.Paper, error) {
	authorID := strings.TrimSpace(req.AuthorID)
	if authorID == "" {
		return nil, domain.NewValidationError("author_id", "is required")
	}
	if err := checkYearRange(req.StartYear, req.EndYear); err != nil {
		return nil, err
	}

	params := papersources.AuthorPapersParams{
		AuthorID:  authorID,
		StartYear: req.StartYear,
		EndYear:   req.EndYear,
		Limit:     req.Limit,
	}.Normalize()

	adapter, st := s.adapter()
	key := authorPapersKey{
		Adapter:   st,
		AuthorID:  authorID,
		StartYear: params.StartYear,
		EndYear:   params.EndYear,
		Limit:     params.Limit,
	}
	papers, err := cache.Remember(ctx, s.cache, prefixAuthorPapers, key,
		func(ctx context.Context) ([]*domain.Paper, error) {
			return adapter.GetAuthorPapers(ctx, params)
		})
	if err != nil {
		return nil, err
	}
	if papers == nil {
		papers = []*domain.Paper{}
	}
	return papers, nil
}

// GetPapers looks up several papers concurrently through the cache. Unknown
// ids and failed lookups are reported per item.
func (s *Service) GetPapers(ctx context.Context, ids []string) ([]papersources.PaperResult, error) {
	adapter, _ := s.adapter()
	return papersources.BatchGetPapers(ctx, &serviceLookup{Adapter: adapter, svc: s}, ids, s.batchWorkers)
}

// serviceLookup routes batch lookups through the service so every item is
// cached and not-found becomes an error.
type serviceLookup struct {
	papersources.Adapter
	svc *Service
}

func (l *serviceLookup) GetPaperByID(ctx context.Context, id string) (*domain.Paper, error) {
	return l.svc.GetPaperInfo(ctx, id)
}

// ClearCache removes every cached response.
func (s *Service) ClearCache(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	if err := s.cache.Clear(ctx); err != nil {
		return fmt.Errorf("clearing cache: %w", err)
	}
	return nil
}

// CacheStats describes the response cache.
type CacheStats struct {
	Enabled bool   `json:"enabled"`
	Backend string `json:"backend"`
	TTL     string `json:"ttl"`
}

// CacheStats reports the cache configuration in effect.
func (s *Service) CacheStats() CacheStats {
	if s.cache == nil {
		return CacheStats{}
	}
	return CacheStats{
		Enabled: s.cache.Enabled(),
		Backend: s.cache.BackendName(),
		TTL:     s.cache.TTL().String(),
	}
}

func checkYearRange(start, end *int) error {
	if start != nil && end != nil && *start > *end {
		return domain.NewValidationError("start_year", "must not be after end_year")
	}
	return nil
}
