// Package cleaning normalizes, deduplicates and filters papers returned by
// the providers before they are handed to callers or to analysis.
package cleaning

import (
	"strings"

	"github.com/rs/zerolog"

	"github.com/helixir/scholar-gateway/internal/domain"
	"github.com/helixir/scholar-gateway/internal/papersources"
)

// DefaultAuthorThreshold is the AuthorOverlap score at or above which two
// papers with the same title key are treated as the same work.
const DefaultAuthorThreshold = 0.5

// FilterOptions restricts a paper list. Nil bounds are not applied. Papers
// without a year pass the year bounds; papers without a citation count fail
// MinCitations.
type FilterOptions struct {
	MinYear      *int `json:"min_year,omitempty"`
	MaxYear      *int `json:"max_year,omitempty"`
	MinCitations *int `json:"min_citations,omitempty"`
}

// Cleaner runs the cleaning pass with a fixed configuration.
type Cleaner struct {
	authorThreshold float64
	logger          zerolog.Logger
}

// NewCleaner returns a Cleaner. A non-positive threshold selects
// DefaultAuthorThreshold.
func NewCleaner(authorThreshold float64, logger zerolog.Logger) *Cleaner {
	if authorThreshold <= 0 {
		authorThreshold = DefaultAuthorThreshold
	}
	return &Cleaner{
		authorThreshold: authorThreshold,
		logger:          logger.With().Str("component", "cleaner").Logger(),
	}
}

// Clean normalizes papers and removes duplicates.
func (c *Cleaner) Clean(papers []*domain.Paper) []*domain.Paper {
	cleaned := CleanPapers(papers)
	unique := Deduplicate(cleaned, c.authorThreshold)
	if dropped := len(papers) - len(unique); dropped > 0 {
		c.logger.Debug().
			Int("input", len(papers)).
			Int("invalid", len(papers)-len(cleaned)).
			Int("duplicates", len(cleaned)-len(unique)).
			Msg("cleaned papers")
	}
	return unique
}

// CleanPapers returns normalized copies of papers. Papers that fail
// validation after normalization are dropped, and only the first paper for
// each id is kept. List fields of the copies are never nil.
func CleanPapers(papers []*domain.Paper) []*domain.Paper {
	out := make([]*domain.Paper, 0, len(papers))
	seen := make(map[string]struct{}, len(papers))
	for _, p := range papers {
		if p == nil {
			continue
		}
		cp := cleanPaper(p)
		if cp.Validate() != nil {
			continue
		}
		if _, dup := seen[cp.PaperID]; dup {
			continue
		}
		seen[cp.PaperID] = struct{}{}
		out = append(out, cp)
	}
	return out
}

func cleanPaper(p *domain.Paper) *domain.Paper {
	cp := *p
	cp.PaperID = strings.TrimSpace(p.PaperID)
	cp.Title = NormalizeText(p.Title)
	cp.Abstract = NormalizeText(p.Abstract)
	cp.Journal = NormalizeText(p.Journal)
	cp.DOI = strings.TrimSpace(p.DOI)

	cp.Authors = make([]domain.Author, 0, len(p.Authors))
	for _, a := range p.Authors {
		a.Name = NormalizeText(a.Name)
		if a.Name == "" {
			continue
		}
		a.Affiliation = NormalizeText(a.Affiliation)
		a.Fields = cleanList(a.Fields, false)
		cp.Authors = append(cp.Authors, a)
	}

	cp.Keywords = cleanList(p.Keywords, true)
	cp.Fields = cleanList(p.Fields, true)
	cp.Funding = cleanList(p.Funding, true)
	cp.References = cleanList(p.References, false)
	return &cp
}

// cleanList normalizes entries and drops empties. With fold set, entries
// equal under domain.NormalizeKeyword are collapsed to the first spelling.
func cleanList(items []string, fold bool) []string {
	out := make([]string, 0, len(items))
	var seen map[string]struct{}
	if fold {
		seen = make(map[string]struct{}, len(items))
	}
	for _, item := range items {
		item = NormalizeText(item)
		if item == "" {
			continue
		}
		if fold {
			key := domain.NormalizeKeyword(item)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
		}
		out = append(out, item)
	}
	return out
}

// Deduplicate removes papers describing the same work, keeping the first
// occurrence. Papers sharing a DOI (compared case-insensitively without
// resolver prefixes) are duplicates. Otherwise papers whose title keys match
// are duplicates when their author lists overlap by at least threshold, or
// when neither lists any authors.
func Deduplicate(papers []*domain.Paper, threshold float64) []*domain.Paper {
	out := make([]*domain.Paper, 0, len(papers))
	byDOI := make(map[string]struct{}, len(papers))
	byTitle := make(map[string][]*domain.Paper, len(papers))

	for _, p := range papers {
		if p == nil {
			continue
		}
		doi := doiKey(p.DOI)
		if doi != "" {
			if _, dup := byDOI[doi]; dup {
				continue
			}
		}

		title := TitleKey(p.Title)
		if title != "" && sameWorkListed(byTitle[title], p, threshold) {
			continue
		}

		if doi != "" {
			byDOI[doi] = struct{}{}
		}
		if title != "" {
			byTitle[title] = append(byTitle[title], p)
		}
		out = append(out, p)
	}
	return out
}

func sameWorkListed(kept []*domain.Paper, p *domain.Paper, threshold float64) bool {
	for _, k := range kept {
		if len(k.Authors) == 0 && len(p.Authors) == 0 {
			return true
		}
		if AuthorOverlap(k.Authors, p.Authors) >= threshold {
			return true
		}
	}
	return false
}

func doiKey(doi string) string {
	return strings.ToLower(papersources.BareDOI(doi))
}

// Filter returns the papers matching opts, preserving order.
func Filter(papers []*domain.Paper, opts FilterOptions) []*domain.Paper {
	out := make([]*domain.Paper, 0, len(papers))
	for _, p := range papers {
		if p != nil && opts.Match(p) {
			out = append(out, p)
		}
	}
	return out
}

// Match reports whether p satisfies every set bound.
func (o FilterOptions) Match(p *domain.Paper) bool {
	if p.PublishYear != nil {
		if o.MinYear != nil && *p.PublishYear < *o.MinYear {
			return false
		}
		if o.MaxYear != nil && *p.PublishYear > *o.MaxYear {
			return false
		}
	}
	if o.MinCitations != nil {
		if p.Citations == nil || *p.Citations < *o.MinCitations {
			return false
		}
	}
	return true
}
