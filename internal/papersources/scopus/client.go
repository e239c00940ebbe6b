package scopus

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/helixir/scholar-gateway/internal/domain"
	"github.com/helixir/scholar-gateway/internal/papersources"
	"github.com/helixir/scholar-gateway/internal/papersources/elsevier"
)

const (
	// DefaultRateLimit is the default rate limit in requests per second.
	DefaultRateLimit = 0.8

	// DefaultRetryDelay is the linear backoff unit between attempts.
	DefaultRetryDelay = 2 * time.Second

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 30 * time.Second

	// MaxPageSize is the largest page Scopus serves per search request.
	MaxPageSize = 25

	// sourceName is the human-readable name for this source.
	sourceName = "Scopus"

	// scopusLinkRel marks the link that points at the Scopus record page.
	scopusLinkRel = "scopus"
)

// Config holds configuration for the Scopus client.
type Config struct {
	// BaseURL is the Elsevier API base URL.
	BaseURL string

	// APIKey is the Elsevier API key. Required for every request.
	APIKey string

	// Timeout is the per-attempt request timeout.
	Timeout time.Duration

	// RateLimit is the maximum requests per second.
	RateLimit float64

	// MaxAttempts is the total number of attempts per request.
	MaxAttempts int

	// RetryDelay is the linear backoff unit.
	RetryDelay time.Duration

	// WaitOnRateLimit sleeps through a 429 until X-RateLimit-Reset, capped
	// by the executor, instead of returning a RateLimitError.
	WaitOnRateLimit bool
}

// applyDefaults sets default values for unset configuration fields.
func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = elsevier.DefaultBaseURL
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.RateLimit == 0 {
		c.RateLimit = DefaultRateLimit
	}
	if c.RetryDelay == 0 {
		c.RetryDelay = DefaultRetryDelay
	}
}

// Client implements papersources.Adapter for Scopus.
type Client struct {
	config     Config
	httpClient *papersources.HTTPClient
	deps       papersources.Deps
	logger     zerolog.Logger
}

// Ensure Client implements the Adapter interface.
var _ papersources.Adapter = (*Client)(nil)

// New creates a new Scopus client with the given configuration.
func New(cfg Config, deps papersources.Deps) *Client {
	cfg.applyDefaults()

	execCfg := elsevier.ExecutorConfig(string(domain.SourceTypeScopus), cfg.BaseURL, cfg.APIKey)
	execCfg.Timeout = cfg.Timeout
	execCfg.RateLimit = cfg.RateLimit
	execCfg.MaxAttempts = cfg.MaxAttempts
	execCfg.RetryDelay = cfg.RetryDelay
	if cfg.WaitOnRateLimit {
		execCfg.RateLimitPolicy = papersources.RateLimitWait
	}

	return NewWithHTTPClient(cfg, papersources.NewHTTPClient(execCfg, deps.ExecutorOptions()...), deps)
}

// NewWithHTTPClient creates a new Scopus client around an existing executor.
// This is useful for testing with mock servers.
func NewWithHTTPClient(cfg Config, httpClient *papersources.HTTPClient, deps papersources.Deps) *Client {
	cfg.applyDefaults()

	return &Client{
		config:     cfg,
		httpClient: httpClient,
		deps:       deps,
		logger:     deps.Logger.With().Str("source", string(domain.SourceTypeScopus)).Logger(),
	}
}

// SourceType returns the source type identifier.
func (c *Client) SourceType() domain.SourceType {
	return domain.SourceTypeScopus
}

// Name returns the human-readable name for this source.
func (c *Client) Name() string {
	return sourceName
}

// GetPaperByID fetches a record from the abstract retrieval API. The id may be
// a bare Scopus id, an EID, "eid:"-prefixed or an API URL.
func (c *Client) GetPaperByID(ctx context.Context, id string) (*domain.Paper, error) {
	eid := elsevier.NormalizeEID(id)
	if eid == "" {
		return nil, domain.NewValidationError("paper_id", "must not be empty")
	}

	body, found, err := c.httpClient.GetJSON(ctx, "abstract/eid/"+url.PathEscape(eid), nil)
	if err != nil {
		return nil, fmt.Errorf("scopus get paper %s: %w", eid, err)
	}
	if !found {
		return nil, nil
	}

	var envelope struct {
		Document json.RawMessage `json:"abstracts-retrieval-response"`
	}
	if err := papersources.DecodeLenient(body, &envelope); err != nil {
		return nil, domain.NewExternalAPIError(string(domain.SourceTypeScopus), 0, "decode abstract response", err)
	}
	if isEmptyJSON(envelope.Document) {
		return nil, nil
	}

	return c.ParsePaper(envelope.Document)
}

// SearchPapers runs a Scopus search with the COMPLETE view.
func (c *Client) SearchPapers(ctx context.Context, params papersources.SearchParams) ([]*domain.Paper, error) {
	params = params.Normalize()
	size := papersources.ClampPageSize(params.PageSize, MaxPageSize)

	query := url.Values{}
	query.Set("query", elsevier.Query(params.Keyword, params.StartYear, params.EndYear))
	query.Set("count", strconv.Itoa(size))
	query.Set("start", strconv.Itoa(elsevier.StartOffset(params.Page, size)))
	query.Set("view", "COMPLETE")

	papers, _, _, err := c.search(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("scopus search: %w", err)
	}
	return papers, nil
}

// GetAuthorPapers lists papers for a Scopus author id, paging with the start
// offset until the limit or the reported total is reached.
func (c *Client) GetAuthorPapers(ctx context.Context, params papersources.AuthorPapersParams) ([]*domain.Paper, error) {
	params = params.Normalize()
	authorID := normalizeAuthorID(params.AuthorID)
	if authorID == "" {
		return nil, domain.NewValidationError("author_id", "must not be empty")
	}

	base := elsevier.Query(fmt.Sprintf("AU-ID(%s)", authorID), params.StartYear, params.EndYear)
	papers := make([]*domain.Paper, 0, min(params.Limit, MaxPageSize))

	for start := 0; len(papers) < params.Limit; {
		query := url.Values{}
		query.Set("query", base)
		query.Set("count", strconv.Itoa(min(params.Limit-len(papers), MaxPageSize)))
		query.Set("start", strconv.Itoa(start))
		query.Set("view", "COMPLETE")

		page, seen, total, err := c.search(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("scopus author papers %s: %w", authorID, err)
		}
		papers = append(papers, page...)

		start += seen
		if seen == 0 || (total >= 0 && start >= total) {
			break
		}
	}

	if len(papers) > params.Limit {
		papers = papers[:params.Limit]
	}
	return papers, nil
}

// GetCitationRelations lists papers whose reference lists contain the given
// EID. Scopus does not expose outgoing references to standard keys, so
// References stays empty.
func (c *Client) GetCitationRelations(ctx context.Context, paperID string, depth int) (*domain.CitationRelations, error) {
	eid := elsevier.NormalizeEID(paperID)
	if eid == "" {
		return nil, domain.NewValidationError("paper_id", "must not be empty")
	}
	if depth > 1 {
		c.logger.Debug().Int("depth", depth).Msg("citation depth above 1 served as 1")
	}

	query := url.Values{}
	query.Set("query", fmt.Sprintf("REF(%s)", eid))
	query.Set("count", strconv.Itoa(MaxPageSize))

	citing, _, _, err := c.search(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("scopus citations %s: %w", eid, err)
	}

	relations := domain.NewCitationRelations(eid)
	relations.AddCitingPapers(citing)
	return relations, nil
}

// GetAuthorInfo fetches an author profile from the author retrieval API.
func (c *Client) GetAuthorInfo(ctx context.Context, authorID string) (*domain.Author, error) {
	authorID = normalizeAuthorID(authorID)
	if authorID == "" {
		return nil, domain.NewValidationError("author_id", "must not be empty")
	}

	body, found, err := c.httpClient.GetJSON(ctx, "author/author_id/"+url.PathEscape(authorID), nil)
	if err != nil {
		return nil, fmt.Errorf("scopus get author %s: %w", authorID, err)
	}
	if !found {
		return nil, nil
	}

	var resp AuthorResponse
	if err := papersources.DecodeLenient(body, &resp); err != nil {
		return nil, domain.NewExternalAPIError(string(domain.SourceTypeScopus), 0, "decode author response", err)
	}
	record, ok := resp.Records.First()
	if !ok {
		return nil, nil
	}

	return recordToAuthor(authorID, &record), nil
}

// GetJournalInfo is not offered by this adapter.
func (c *Client) GetJournalInfo(_ context.Context, journalID string) (*domain.Journal, error) {
	c.logger.Warn().
		Str("journal_id", journalID).
		Msg("journal lookup is not supported by the scopus adapter")
	return nil, nil
}

// ParsePaper normalizes an abstract retrieval record, with or without its
// "abstracts-retrieval-response" envelope.
func (c *Client) ParsePaper(raw json.RawMessage) (*domain.Paper, error) {
	return ParseAbstract(raw)
}

// search runs one search/scopus request and returns the valid papers, the
// number of entries the page carried and the reported total (-1 if unknown).
func (c *Client) search(ctx context.Context, query url.Values) ([]*domain.Paper, int, int, error) {
	body, found, err := c.httpClient.GetJSON(ctx, "search/scopus", query)
	if err != nil {
		return nil, 0, 0, err
	}
	if !found {
		return []*domain.Paper{}, 0, 0, nil
	}

	var resp elsevier.SearchResponse
	if err := papersources.DecodeLenient(body, &resp); err != nil {
		return nil, 0, 0, domain.NewExternalAPIError(string(domain.SourceTypeScopus), 0, "decode search response", err)
	}

	papers := make([]*domain.Paper, 0, len(resp.Results.Entries))
	seen, rejected := 0, 0
	for i := range resp.Results.Entries {
		entry := &resp.Results.Entries[i]
		if entry.Error.Trimmed() != "" {
			continue
		}
		seen++

		paper, err := EntryToPaper(entry)
		if err != nil {
			rejected++
			c.logger.Debug().Err(err).Int("index", i).Msg("skipping invalid search entry")
			continue
		}
		papers = append(papers, paper)
	}
	c.deps.RecordParsed(string(domain.SourceTypeScopus), len(papers), rejected)

	return papers, seen, resp.Results.Total(), nil
}

// normalizeAuthorID strips URL and scheme prefixes from a Scopus author id.
func normalizeAuthorID(id string) string {
	id = papersources.LastPathSegment(id)
	return strings.TrimSpace(papersources.StripPrefixes(id, "AUTHOR_ID:", "au-id:"))
}

func isEmptyJSON(raw json.RawMessage) bool {
	trimmed := strings.TrimSpace(string(raw))
	return trimmed == "" || trimmed == "null" || trimmed == "{}"
}
