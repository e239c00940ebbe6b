package sciencedirect

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
	DefaultRateLimit = 0.5

	// DefaultRetryDelay is the linear backoff unit between attempts.
	DefaultRetryDelay = 2 * time.Second

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 30 * time.Second

	// MaxPageSize is the largest page ScienceDirect serves per search request.
	MaxPageSize = 100

	// sourceName is the human-readable name for this source.
	sourceName = "ScienceDirect"

	// scidirLinkRel marks the public article page among record links.
	scidirLinkRel = "scidir"
)

// Config holds configuration for the ScienceDirect client.
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

// Client implements papersources.Adapter for ScienceDirect.
type Client struct {
	config     Config
	httpClient *papersources.HTTPClient
	deps       papersources.Deps
	logger     zerolog.Logger
}

// Ensure Client implements the Adapter interface.
var _ papersources.Adapter = (*Client)(nil)

// New creates a new ScienceDirect client with the given configuration.
func New(cfg Config, deps papersources.Deps) *Client {
	cfg.applyDefaults()

	execCfg := elsevier.ExecutorConfig(string(domain.SourceTypeScienceDirect), cfg.BaseURL, cfg.APIKey)
	execCfg.Timeout = cfg.Timeout
	execCfg.RateLimit = cfg.RateLimit
	execCfg.MaxAttempts = cfg.MaxAttempts
	execCfg.RetryDelay = cfg.RetryDelay
	if cfg.WaitOnRateLimit {
		execCfg.RateLimitPolicy = papersources.RateLimitWait
	}

	return NewWithHTTPClient(cfg, papersources.NewHTTPClient(execCfg, deps.ExecutorOptions()...), deps)
}

// NewWithHTTPClient creates a new ScienceDirect client around an existing
// executor. This is useful for testing with mock servers.
func NewWithHTTPClient(cfg Config, httpClient *papersources.HTTPClient, deps papersources.Deps) *Client {
	cfg.applyDefaults()

	return &Client{
		config:     cfg,
		httpClient: httpClient,
		deps:       deps,
		logger:     deps.Logger.With().Str("source", string(domain.SourceTypeScienceDirect)).Logger(),
	}
}

// SourceType returns the source type identifier.
func (c *Client) SourceType() domain.SourceType {
	return domain.SourceTypeScienceDirect
}

// Name returns the human-readable name for this source.
func (c *Client) Name() string {
	return sourceName
}

// GetPaperByID fetches an article by DOI, PII or EID. DOIs start with "10."
// or carry a "doi:" scheme; PIIs carry "pii:" or start with "S"; anything
// else is treated as a Scopus EID.
func (c *Client) GetPaperByID(ctx context.Context, id string) (*domain.Paper, error) {
	endpoint, err := articleEndpoint(id)
	if err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("httpAccept", "application/json")

	body, found, err := c.httpClient.GetJSON(ctx, endpoint, query)
	if err != nil {
		return nil, fmt.Errorf("sciencedirect get paper %s: %w", id, err)
	}
	if !found {
		return nil, nil
	}

	var envelope struct {
		Document json.RawMessage `json:"full-text-retrieval-response"`
	}
	if err := papersources.DecodeLenient(body, &envelope); err != nil {
		return nil, domain.NewExternalAPIError(string(domain.SourceTypeScienceDirect), 0, "decode article response", err)
	}
	if isEmptyJSON(envelope.Document) {
		return nil, nil
	}

	return c.ParsePaper(envelope.Document)
}

// SearchPapers runs a ScienceDirect keyword search.
func (c *Client) SearchPapers(ctx context.Context, params papersources.SearchParams) ([]*domain.Paper, error) {
	params = params.Normalize()
	size := papersources.ClampPageSize(params.PageSize, MaxPageSize)

	query := url.Values{}
	query.Set("query", elsevier.Query(params.Keyword, params.StartYear, params.EndYear))
	query.Set("count", strconv.Itoa(size))
	query.Set("start", strconv.Itoa(elsevier.StartOffset(params.Page, size)))
	query.Set("httpAccept", "application/json")

	body, found, err := c.httpClient.GetJSON(ctx, "search/sciencedirect", query)
	if err != nil {
		return nil, fmt.Errorf("sciencedirect search: %w", err)
	}
	if !found {
		return []*domain.Paper{}, nil
	}

	var resp elsevier.SearchResponse
	if err := papersources.DecodeLenient(body, &resp); err != nil {
		return nil, domain.NewExternalAPIError(string(domain.SourceTypeScienceDirect), 0, "decode search response", err)
	}

	papers := make([]*domain.Paper, 0, len(resp.Results.Entries))
	rejected := 0
	for i := range resp.Results.Entries {
		entry := &resp.Results.Entries[i]
		if entry.Error.Trimmed() != "" {
			continue
		}
		paper, err := EntryToPaper(entry)
		if err != nil {
			rejected++
			c.logger.Debug().Err(err).Int("index", i).Msg("skipping invalid search entry")
			continue
		}
		papers = append(papers, paper)
	}
	c.deps.RecordParsed(string(domain.SourceTypeScienceDirect), len(papers), rejected)

	return papers, nil
}

// GetAuthorPapers is not offered by ScienceDirect, which has no author id
// search.
func (c *Client) GetAuthorPapers(_ context.Context, params papersources.AuthorPapersParams) ([]*domain.Paper, error) {
	c.logger.Warn().
		Str("author_id", params.AuthorID).
		Msg("author paper listing is not supported by the sciencedirect adapter")
	return []*domain.Paper{}, nil
}

// GetCitationRelations is not offered by ScienceDirect; it returns empty
// relations for the paper.
func (c *Client) GetCitationRelations(_ context.Context, paperID string, _ int) (*domain.CitationRelations, error) {
	c.logger.Warn().
		Str("paper_id", paperID).
		Msg("citation relations are not supported by the sciencedirect adapter")
	return domain.NewCitationRelations(paperID), nil
}

// GetAuthorInfo is not offered by ScienceDirect.
func (c *Client) GetAuthorInfo(_ context.Context, authorID string) (*domain.Author, error) {
	c.logger.Warn().
		Str("author_id", authorID).
		Msg("author lookup is not supported by the sciencedirect adapter")
	return nil, nil
}

// GetJournalInfo is not offered by ScienceDirect.
func (c *Client) GetJournalInfo(_ context.Context, journalID string) (*domain.Journal, error) {
	c.logger.Warn().
		Str("journal_id", journalID).
		Msg("journal lookup is not supported by the sciencedirect adapter")
	return nil, nil
}

// ParsePaper normalizes a full-text retrieval record, with or without its
// "full-text-retrieval-response" envelope.
func (c *Client) ParsePaper(raw json.RawMessage) (*domain.Paper, error) {
	return ParseArticle(raw)
}

// articleEndpoint routes an identifier to the matching retrieval endpoint.
func articleEndpoint(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", domain.NewValidationError("paper_id", "must not be empty")
	}

	if papersources.IsDOI(id) {
		return "article/doi/" + papersources.BareDOI(id), nil
	}

	// Article and API URLs carry the PII or EID as the last path segment.
	if strings.Contains(id, "://") {
		if u, err := url.Parse(id); err == nil {
			id = u.Path
		}
	}
	if strings.Contains(id, "/") {
		id = papersources.LastPathSegment(id)
	}
	if id == "" {
		return "", domain.NewValidationError("paper_id", "no identifier in URL")
	}

	if pii := papersources.StripPrefixes(id, "pii:"); pii != id {
		return "article/pii/" + url.PathEscape(pii), nil
	}
	if strings.HasPrefix(id, "S") {
		return "article/pii/" + url.PathEscape(id), nil
	}
	return "article/eid/" + url.PathEscape(elsevier.NormalizeEID(id)), nil
}

func isEmptyJSON(raw json.RawMessage) bool {
	trimmed := strings.TrimSpace(string(raw))
	return trimmed == "" || trimmed == "null" || trimmed == "{}"
}
