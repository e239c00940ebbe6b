package papersources

import (
	"context"
	"encoding/json"

	"github.com/helixir/scholar-gateway/internal/domain"
)

// Default paging values applied when callers leave them unset.
const (
	DefaultPage              = 1
	DefaultPageSize          = 20
	DefaultAuthorPapersLimit = 100
)

// SearchParams contains parameters for a keyword search.
type SearchParams struct {
	// Keyword is the free-text search term.
	Keyword string

	// StartYear filters to papers published in or after this year (inclusive).
	StartYear *int

	// EndYear filters to papers published in or before this year (inclusive).
	EndYear *int

	// Page is the 1-based page number.
	Page int

	// PageSize is the requested number of results per page. Adapters clamp it
	// to the provider maximum instead of failing.
	PageSize int
}

// Normalize fills defaults for unset paging fields.
func (p SearchParams) Normalize() SearchParams {
	if p.Page < 1 {
		p.Page = DefaultPage
	}
	if p.PageSize < 1 {
		p.PageSize = DefaultPageSize
	}
	return p
}

// AuthorPapersParams contains parameters for listing an author's papers.
type AuthorPapersParams struct {
	AuthorID  string
	StartYear *int
	EndYear   *int

	// Limit caps the number of returned papers. Adapters paginate internally
	// until it is reached or the provider runs out of results.
	Limit int
}

// Normalize fills defaults for unset fields.
func (p AuthorPapersParams) Normalize() AuthorPapersParams {
	if p.Limit < 1 {
		p.Limit = DefaultAuthorPapersLimit
	}
	return p
}

// Adapter is the capability contract every provider implements.
//
// Not-found is a valid result rather than an error: lookups return a nil
// record and a nil error when the provider has no such entity. Operations a
// provider cannot serve return empty results and log a warning so callers that
// compose across providers need no provider-specific handling.
//
// Errors returned by an Adapter unwrap to one of the domain sentinels:
// domain.ErrUnauthorized, domain.ErrRateLimited, domain.ErrRequestFailed,
// domain.ErrInvalidInput for bad arguments or domain.ErrInvalidData for
// provider records that fail to normalize.
type Adapter interface {
	// GetPaperByID fetches a paper. The ID may be bare, URL-qualified, a DOI or
	// another identifier scheme the provider recognizes.
	GetPaperByID(ctx context.Context, id string) (*domain.Paper, error)

	// SearchPapers runs a keyword search in provider relevance order.
	SearchPapers(ctx context.Context, params SearchParams) ([]*domain.Paper, error)

	// GetAuthorPapers lists papers by an author, never more than params.Limit.
	GetAuthorPapers(ctx context.Context, params AuthorPapersParams) ([]*domain.Paper, error)

	// GetCitationRelations returns one hop of the citation graph. Depths above
	// one are served as depth one.
	GetCitationRelations(ctx context.Context, paperID string, depth int) (*domain.CitationRelations, error)

	// GetAuthorInfo fetches an author profile.
	GetAuthorInfo(ctx context.Context, authorID string) (*domain.Author, error)

	// GetJournalInfo fetches a journal (venue) profile.
	GetJournalInfo(ctx context.Context, journalID string) (*domain.Journal, error)

	// ParsePaper normalizes a raw provider record. It performs no I/O.
	ParsePaper(raw json.RawMessage) (*domain.Paper, error)

	// SourceType returns the provider identifier.
	SourceType() domain.SourceType

	// Name returns a human-readable provider name.
	Name() string
}
