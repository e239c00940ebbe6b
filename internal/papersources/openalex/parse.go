package openalex

import (
	"encoding/json"
	"strings"

	"github.com/helixir/scholar-gateway/internal/domain"
	"github.com/helixir/scholar-gateway/internal/papersources"
)

// maxAbstractWords bounds the slot array built from an inverted index.
const maxAbstractWords = 100_000

// ParseWork converts an OpenAlex work record into a Paper. It performs no I/O.
func ParseWork(raw json.RawMessage) (*domain.Paper, error) {
	var work Work
	if err := papersources.DecodeLenient(raw, &work); err != nil {
		return nil, domain.NewDataError(sourceName, err)
	}

	authors := make([]domain.Author, 0, len(work.Authorships))
	for _, authorship := range work.Authorships {
		author := domain.Author{
			AuthorID: papersources.LastPathSegment(authorship.Author.ID),
			Name:     strings.TrimSpace(authorship.Author.DisplayName),
			ORCID:    normalizeORCID(authorship.Author.ORCID),
			Source:   domain.SourceTypeOpenAlex,
		}
		if len(authorship.Institutions) > 0 {
			author.Affiliation = authorship.Institutions[0].DisplayName
		}
		authors = append(authors, author)
	}

	keywords := displayNames(work.Concepts, 0)
	if len(keywords) == 0 {
		keywords = displayNames(work.Keywords, 0)
	}

	references := make([]string, 0, len(work.ReferencedWorks))
	for _, ref := range work.ReferencedWorks {
		if id := papersources.LastPathSegment(ref); id != "" {
			references = append(references, id)
		}
	}

	funding := make([]string, 0, len(work.Grants))
	for _, grant := range work.Grants {
		if name := strings.TrimSpace(grant.FunderDisplayName); name != "" {
			funding = append(funding, name)
		}
	}

	paper := &domain.Paper{
		PaperID:     papersources.LastPathSegment(work.ID),
		Title:       strings.TrimSpace(papersources.FirstNonEmpty(work.DisplayName, work.Title)),
		Authors:     authors,
		Journal:     journalName(&work),
		PublishYear: papersources.YearFrom(work.PublicationYear, work.PublicationDate),
		PublishDate: work.PublicationDate,
		Keywords:    keywords,
		Abstract:    abstractText(&work),
		Citations:   work.CitedByCount,
		References:  references,
		DOI:         work.DOI,
		URL:         work.ID,
		Volume:      work.Biblio.Volume,
		Issue:       work.Biblio.Issue,
		Pages:       pageRange(work.Biblio),
		Funding:     funding,
		Fields:      displayNames(work.Topics, 0),
		Source:      domain.SourceTypeOpenAlex,
		Raw:         append(json.RawMessage(nil), raw...),
	}

	if err := paper.Validate(); err != nil {
		return nil, domain.NewDataError(sourceName, err)
	}
	return paper, nil
}

// ParseAuthor converts an /authors record into an Author.
func ParseAuthor(record *AuthorRecord) *domain.Author {
	var affiliation string
	switch {
	case record.LastKnownInstitution != nil:
		affiliation = record.LastKnownInstitution.DisplayName
	case len(record.LastKnownInstitutions) > 0:
		affiliation = record.LastKnownInstitutions[0].DisplayName
	}

	return &domain.Author{
		AuthorID:     papersources.LastPathSegment(record.ID),
		Name:         strings.TrimSpace(record.DisplayName),
		Affiliation:  affiliation,
		HIndex:       record.SummaryStats.HIndex,
		Citations:    record.CitedByCount,
		Publications: record.WorksCount,
		ORCID:        normalizeORCID(record.ORCID),
		Fields:       displayNames(record.XConcepts, topConcepts),
		Source:       domain.SourceTypeOpenAlex,
	}
}

// ParseSource converts a /sources record into a Journal.
func ParseSource(record *SourceRecord) *domain.Journal {
	issn := record.ISSNL
	if issn == "" && len(record.ISSN) > 0 {
		issn = record.ISSN[0]
	}

	return &domain.Journal{
		JournalID: papersources.LastPathSegment(record.ID),
		Name:      strings.TrimSpace(record.DisplayName),
		ISSN:      issn,
		Publisher: record.HostOrganizationName,
		CiteScore: record.SummaryStats.TwoYearMeanCitedness,
		Fields:    displayNames(record.XConcepts, topConcepts),
		Source:    domain.SourceTypeOpenAlex,
	}
}

// ReconstructAbstract rebuilds abstract text from an inverted index. Every
// word is placed at each of its positions in a slot array sized by the largest
// position; unfilled slots stay empty, so gaps show up as doubled spaces.
func ReconstructAbstract(index map[string][]int) string {
	if len(index) == 0 {
		return ""
	}

	maxPos := -1
	for _, positions := range index {
		for _, pos := range positions {
			if pos > maxPos {
				maxPos = pos
			}
		}
	}
	if maxPos < 0 || maxPos >= maxAbstractWords {
		return ""
	}

	slots := make([]string, maxPos+1)
	for word, positions := range index {
		for _, pos := range positions {
			if pos >= 0 {
				slots[pos] = word
			}
		}
	}
	return strings.Join(slots, " ")
}

func abstractText(work *Work) string {
	if text := ReconstructAbstract(work.AbstractInvertedIndex); text != "" {
		return text
	}
	return strings.TrimSpace(work.Abstract)
}

// journalName prefers the primary location's source over the legacy
// host_venue field.
func journalName(work *Work) string {
	if loc := work.PrimaryLocation; loc != nil && loc.Source != nil && loc.Source.DisplayName != "" {
		return loc.Source.DisplayName
	}
	if work.HostVenue != nil {
		return work.HostVenue.DisplayName
	}
	return ""
}

func pageRange(b Biblio) string {
	switch {
	case b.FirstPage != "" && b.LastPage != "" && b.FirstPage != b.LastPage:
		return b.FirstPage + "-" + b.LastPage
	default:
		return papersources.FirstNonEmpty(b.FirstPage, b.LastPage)
	}
}

// displayNames collects non-empty display names, keeping at most limit
// entries when limit is positive.
func displayNames(items []Concept, limit int) []string {
	names := make([]string, 0, len(items))
	for _, item := range items {
		if limit > 0 && len(names) == limit {
			break
		}
		if name := strings.TrimSpace(item.DisplayName); name != "" {
			names = append(names, name)
		}
	}
	return names
}

func normalizeORCID(orcid string) string {
	return papersources.StripPrefixes(strings.TrimSpace(orcid), "https://orcid.org/", "http://orcid.org/")
}
