package openalex

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
)

const (
	// DefaultBaseURL is the default OpenAlex API base URL.
	DefaultBaseURL = "https://api.openalex.org"

	// DefaultRateLimit is the default rate limit for requests per second.
	DefaultRateLimit = 10.0

	// DefaultRetryDelay is the linear backoff unit between attempts.
	DefaultRetryDelay = time.Second

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 30 * time.Second

	// MaxPageSize is the largest per-page value OpenAlex accepts.
	MaxPageSize = 200

	// citingPageSize is how many citing works one citation lookup returns.
	citingPageSize = 100

	// topConcepts caps the research fields taken from x_concepts.
	topConcepts = 5

	// sourceName is the human-readable name for this source.
	sourceName = "OpenAlex"
)

// Config holds configuration for the OpenAlex client.
type Config struct {
	// BaseURL is the OpenAlex API base URL.
	// Defaults to https://api.openalex.org
	BaseURL string

	// Mailto is the contact email for the polite pool. When set it is sent as
	// the mailto query parameter and in the User-Agent.
	// See: https://docs.openalex.org/how-to-use-the-api/rate-limits-and-authentication
	Mailto string

	// Timeout is the per-attempt request timeout.
	Timeout time.Duration

	// RateLimit is the maximum requests per second.
	RateLimit float64

	// MaxAttempts is the total number of attempts per request.
	MaxAttempts int

	// RetryDelay is the linear backoff unit.
	RetryDelay time.Duration
}

// applyDefaults sets default values for unset configuration fields.
func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
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

// Client implements papersources.Adapter for OpenAlex.
type Client struct {
	config     Config
	httpClient *papersources.HTTPClient
	deps       papersources.Deps
	logger     zerolog.Logger
}

// Ensure Client implements the Adapter interface.
var _ papersources.Adapter = (*Client)(nil)

// New creates a new OpenAlex client with the given configuration.
func New(cfg Config, deps papersources.Deps) *Client {
	cfg.applyDefaults()

	userAgent := "ScholarGateway/1.0"
	if cfg.Mailto != "" {
		userAgent += " (mailto:" + cfg.Mailto + ")"
	}

	httpClient := papersources.NewHTTPClient(papersources.HTTPClientConfig{
		Source:          string(domain.SourceTypeOpenAlex),
		BaseURL:         cfg.BaseURL,
		Timeout:         cfg.Timeout,
		RateLimit:       cfg.RateLimit,
		MaxAttempts:     cfg.MaxAttempts,
		RetryDelay:      cfg.RetryDelay,
		UserAgent:       userAgent,
		RateLimitPolicy: papersources.RateLimitWait,
		RateLimitHeader: "Retry-After",
	}, deps.ExecutorOptions()...)

	return NewWithHTTPClient(cfg, httpClient, deps)
}

// NewWithHTTPClient creates a new OpenAlex client around an existing executor.
// This is useful for testing with mock servers.
func NewWithHTTPClient(cfg Config, httpClient *papersources.HTTPClient, deps papersources.Deps) *Client {
	cfg.applyDefaults()

	return &Client{
		config:     cfg,
		httpClient: httpClient,
		deps:       deps,
		logger:     deps.Logger.With().Str("source", string(domain.SourceTypeOpenAlex)).Logger(),
	}
}

// SourceType returns the source type identifier.
func (c *Client) SourceType() domain.SourceType {
	return domain.SourceTypeOpenAlex
}

// Name returns the human-readable name for this source.
func (c *Client) Name() string {
	return sourceName
}

// GetPaperByID retrieves a work by its OpenAlex ID, OpenAlex URL or DOI.
func (c *Client) GetPaperByID(ctx context.Context, id string) (*domain.Paper, error) {
	workID, err := normalizeWorkID(id)
	if err != nil {
		return nil, err
	}

	body, found, err := c.httpClient.GetJSON(ctx, "works/"+workID, c.query())
	if err != nil {
		return nil, fmt.Errorf("openalex get paper %s: %w", id, err)
	}
	if !found || !hasID(body) {
		return nil, nil
	}

	return ParseWork(body)
}

// SearchPapers runs a full-text search over works.
func (c *Client) SearchPapers(ctx context.Context, params papersources.SearchParams) ([]*domain.Paper, error) {
	params = params.Normalize()

	query := c.query()
	query.Set("search", params.Keyword)
	query.Set("per-page", strconv.Itoa(papersources.ClampPageSize(params.PageSize, MaxPageSize)))
	query.Set("page", strconv.Itoa(params.Page))
	if filter := searchYearFilter(params.StartYear, params.EndYear); filter != "" {
		query.Set("filter", filter)
	}

	papers, _, _, err := c.listWorks(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("openalex search: %w", err)
	}
	return papers, nil
}

// GetAuthorPapers lists works by an author, paging until the limit or the
// reported result count is reached.
func (c *Client) GetAuthorPapers(ctx context.Context, params papersources.AuthorPapersParams) ([]*domain.Paper, error) {
	params = params.Normalize()
	authorID := papersources.LastPathSegment(params.AuthorID)
	if authorID == "" {
		return nil, domain.NewValidationError("author_id", "must not be empty")
	}

	filters := []string{"author.id:" + authorID}
	if yf := authorYearFilter(params.StartYear, params.EndYear); yf != "" {
		filters = append(filters, yf)
	}

	perPage := papersources.ClampPageSize(params.Limit, MaxPageSize)
	papers := make([]*domain.Paper, 0, perPage)
	seenTotal := 0

	for page := 1; len(papers) < params.Limit; page++ {
		query := c.query()
		query.Set("filter", strings.Join(filters, ","))
		query.Set("per-page", strconv.Itoa(perPage))
		query.Set("page", strconv.Itoa(page))

		batch, seen, count, err := c.listWorks(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("openalex author papers %s: %w", authorID, err)
		}
		papers = append(papers, batch...)

		seenTotal += seen
		if seen == 0 || seenTotal >= count {
			break
		}
	}

	if len(papers) > params.Limit {
		papers = papers[:params.Limit]
	}
	return papers, nil
}

// GetCitationRelations returns the paper's references and up to one page of
// works citing it. The paper must exist.
func (c *Client) GetCitationRelations(ctx context.Context, paperID string, depth int) (*domain.CitationRelations, error) {
	if depth > 1 {
		c.logger.Debug().Int("depth", depth).Msg("citation depth above 1 served as 1")
	}

	paper, err := c.GetPaperByID(ctx, paperID)
	if err != nil {
		return nil, err
	}
	if paper == nil {
		return nil, domain.NewNotFoundError("paper", paperID)
	}

	query := c.query()
	query.Set("filter", "cites:"+paper.PaperID)
	query.Set("per-page", strconv.Itoa(citingPageSize))

	citing, _, _, err := c.listWorks(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("openalex citations %s: %w", paper.PaperID, err)
	}

	relations := domain.NewCitationRelations(paper.PaperID)
	relations.References = append(relations.References, paper.References...)
	relations.AddCitingPapers(citing)
	return relations, nil
}

// GetAuthorInfo fetches an author profile.
func (c *Client) GetAuthorInfo(ctx context.Context, authorID string) (*domain.Author, error) {
	authorID = papersources.LastPathSegment(authorID)
	if authorID == "" {
		return nil, domain.NewValidationError("author_id", "must not be empty")
	}

	body, found, err := c.httpClient.GetJSON(ctx, "authors/"+url.PathEscape(authorID), c.query())
	if err != nil {
		return nil, fmt.Errorf("openalex get author %s: %w", authorID, err)
	}
	if !found || !hasID(body) {
		return nil, nil
	}

	var record AuthorRecord
	if err := papersources.DecodeLenient(body, &record); err != nil {
		return nil, domain.NewExternalAPIError(string(domain.SourceTypeOpenAlex), 0, "decode author response", err)
	}
	return ParseAuthor(&record), nil
}

// GetJournalInfo fetches a venue from the sources endpoint.
func (c *Client) GetJournalInfo(ctx context.Context, journalID string) (*domain.Journal, error) {
	journalID = papersources.LastPathSegment(journalID)
	if journalID == "" {
		return nil, domain.NewValidationError("journal_id", "must not be empty")
	}

	body, found, err := c.httpClient.GetJSON(ctx, "sources/"+url.PathEscape(journalID), c.query())
	if err != nil {
		return nil, fmt.Errorf("openalex get journal %s: %w", journalID, err)
	}
	if !found || !hasID(body) {
		return nil, nil
	}

	var record SourceRecord
	if err := papersources.DecodeLenient(body, &record); err != nil {
		return nil, domain.NewExternalAPIError(string(domain.SourceTypeOpenAlex), 0, "decode source response", err)
	}
	return ParseSource(&record), nil
}

// ParsePaper normalizes one OpenAlex work record.
func (c *Client) ParsePaper(raw json.RawMessage) (*domain.Paper, error) {
	return ParseWork(raw)
}

// listWorks fetches one page of /works. It returns the valid papers, the
// number of results on the page and meta.count.
func (c *Client) listWorks(ctx context.Context, query url.Values) ([]*domain.Paper, int, int, error) {
	body, found, err := c.httpClient.GetJSON(ctx, "works", query)
	if err != nil {
		return nil, 0, 0, err
	}
	if !found {
		return []*domain.Paper{}, 0, 0, nil
	}

	var resp SearchResponse
	if err := papersources.DecodeLenient(body, &resp); err != nil {
		return nil, 0, 0, domain.NewExternalAPIError(string(domain.SourceTypeOpenAlex), 0, "decode works response", err)
	}

	papers := make([]*domain.Paper, 0, len(resp.Results))
	rejected := 0
	for i, raw := range resp.Results {
		paper, err := ParseWork(raw)
		if err != nil {
			rejected++
			c.logger.Debug().Err(err).Int("index", i).Msg("skipping invalid work")
			continue
		}
		papers = append(papers, paper)
	}
	c.deps.RecordParsed(string(domain.SourceTypeOpenAlex), len(papers), rejected)

	return papers, len(resp.Results), resp.Meta.Count, nil
}

// query returns base query parameters, carrying mailto for the polite pool.
func (c *Client) query() url.Values {
	query := url.Values{}
	if c.config.Mailto != "" {
		query.Set("mailto", c.config.Mailto)
	}
	return query
}

// normalizeWorkID turns an OpenAlex URL into its short id and a DOI in any
// form into the doi: lookup key.
func normalizeWorkID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", domain.NewValidationError("paper_id", "must not be empty")
	}
	if papersources.IsDOI(id) {
		return "doi:" + papersources.BareDOI(id), nil
	}
	return papersources.LastPathSegment(id), nil
}

// searchYearFilter renders the publication_year range filter for search.
func searchYearFilter(startYear, endYear *int) string {
	switch {
	case startYear != nil && endYear != nil:
		return fmt.Sprintf("publication_year:%d-%d", *startYear, *endYear)
	case startYear != nil:
		return fmt.Sprintf("publication_year:%d-", *startYear)
	case endYear != nil:
		return fmt.Sprintf("publication_year:-%d", *endYear)
	default:
		return ""
	}
}

// authorYearFilter renders the publication_year filter for author listings,
// which use comparison operators for open-ended bounds.
func authorYearFilter(startYear, endYear *int) string {
	switch {
	case startYear != nil && endYear != nil:
		return fmt.Sprintf("publication_year:%d-%d", *startYear, *endYear)
	case startYear != nil:
		return fmt.Sprintf("publication_year:>=%d", *startYear)
	case endYear != nil:
		return fmt.Sprintf("publication_year:<=%d", *endYear)
	default:
		return ""
	}
}

// hasID reports whether a single-entity response carries an "id" field.
// OpenAlex answers some unknown ids with an empty object.
func hasID(body json.RawMessage) bool {
	var head struct {
		ID string `json:"id"`
	}
	if err := papersources.DecodeLenient(body, &head); err != nil {
		return false
	}
	return head.ID != ""
}
