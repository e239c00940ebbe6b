package scopus

import (
	"encoding/json"
	"strings"

	"github.com/helixir/scholar-gateway/internal/domain"
	"github.com/helixir/scholar-gateway/internal/papersources"
	"github.com/helixir/scholar-gateway/internal/papersources/elsevier"
)

// ParseAbstract converts an abstract retrieval record into a Paper. It accepts
// the record with or without its envelope and performs no I/O.
func ParseAbstract(raw json.RawMessage) (*domain.Paper, error) {
	var envelope struct {
		Document json.RawMessage `json:"abstracts-retrieval-response"`
	}
	if err := papersources.DecodeLenient(raw, &envelope); err != nil {
		return nil, domain.NewDataError(sourceName, err)
	}
	if !isEmptyJSON(envelope.Document) {
		raw = envelope.Document
	}

	var doc AbstractDocument
	if err := papersources.DecodeLenient(raw, &doc); err != nil {
		return nil, domain.NewDataError(sourceName, err)
	}

	core := &doc.Coredata
	affiliations := elsevier.AffiliationNames(doc.Affiliations)

	authors := make([]domain.Author, 0, len(doc.Authors.Author))
	for _, a := range doc.Authors.Author {
		authors = append(authors, domain.Author{
			AuthorID:    papersources.FirstNonEmpty(a.AuthID.String(), a.AUID.String()),
			Name:        abstractAuthorName(&a),
			Affiliation: firstAffiliation(a.Affiliations, affiliations),
			Source:      domain.SourceTypeScopus,
		})
	}

	keywords := []string(core.AuthKeywords)
	if len(keywords) == 0 {
		keywords = []string(doc.AuthKeywords)
	}

	paper := &domain.Paper{
		PaperID:     core.EID.Trimmed(),
		Title:       core.Title.Trimmed(),
		Authors:     authors,
		Journal:     core.PublicationName.Trimmed(),
		PublishYear: papersources.ParseYear(core.CoverDate.String()),
		PublishDate: core.CoverDate.Trimmed(),
		Keywords:    nonNil(keywords),
		Abstract:    core.Description.Trimmed(),
		Citations:   core.CitedByCount.Ptr(),
		References:  []string{},
		DOI:         core.DOI.Trimmed(),
		URL:         elsevier.Href(core.Link, scopusLinkRel),
		Volume:      core.Volume.Trimmed(),
		Issue:       core.Issue.Trimmed(),
		Pages:       core.PageRange.Trimmed(),
		Fields:      subjectAreas(doc.SubjectAreas),
		Source:      domain.SourceTypeScopus,
		Raw:         append(json.RawMessage(nil), raw...),
	}

	if err := paper.Validate(); err != nil {
		return nil, domain.NewDataError(sourceName, err)
	}
	return paper, nil
}

// EntryToPaper converts a search result row into a Paper. Author data is only
// present when the search ran with the COMPLETE view.
func EntryToPaper(entry *elsevier.RawEntry) (*domain.Paper, error) {
	affiliations := elsevier.AffiliationNames(entry.Affiliations)

	authors := make([]domain.Author, 0, len(entry.Authors))
	for _, a := range entry.Authors {
		var affiliation string
		for _, id := range a.AfID {
			if name := affiliations[id.Trimmed()]; name != "" {
				affiliation = name
				break
			}
		}
		authors = append(authors, domain.Author{
			AuthorID:    a.AuthID.Trimmed(),
			Name:        a.Name(),
			Affiliation: affiliation,
			Source:      domain.SourceTypeScopus,
		})
	}

	paper := &domain.Paper{
		PaperID:     entry.EID.Trimmed(),
		Title:       entry.Title.Trimmed(),
		Authors:     authors,
		Journal:     entry.PublicationName.Trimmed(),
		PublishYear: papersources.ParseYear(entry.CoverDate.String()),
		PublishDate: entry.CoverDate.Trimmed(),
		Keywords:    nonNil(entry.AuthKeywords),
		Abstract:    entry.Description.Trimmed(),
		Citations:   entry.CitedByCount.Ptr(),
		References:  []string{},
		DOI:         entry.DOI.Trimmed(),
		URL:         elsevier.Href(entry.Link, scopusLinkRel),
		Volume:      entry.Volume.Trimmed(),
		Issue:       entry.Issue.Trimmed(),
		Pages:       entry.PageRange.Trimmed(),
		Source:      domain.SourceTypeScopus,
		Raw:         entry.Raw,
	}

	if err := paper.Validate(); err != nil {
		return nil, domain.NewDataError(sourceName, err)
	}
	return paper, nil
}

// recordToAuthor converts an author retrieval record.
func recordToAuthor(authorID string, r *AuthorRecord) *domain.Author {
	name := r.Profile.PreferredName.IndexedName.Trimmed()
	if name == "" {
		name = strings.TrimSpace(r.Profile.PreferredName.GivenName.Trimmed() + " " + r.Profile.PreferredName.Surname.Trimmed())
	}

	affiliation := r.Profile.AffiliationCurrent.AffiliationName.Trimmed()
	if affiliation == "" {
		if current, ok := r.Profile.AffiliationCurrent.Affiliation.First(); ok {
			affiliation = papersources.FirstNonEmpty(current.IPDoc.DisplayName.String(), current.IPDoc.PreferredName.String())
		}
	}

	hIndex := r.Coredata.HIndex.Ptr()
	if hIndex == nil {
		hIndex = r.HIndex.Ptr()
	}
	citations := r.Coredata.CitationCount.Ptr()
	if citations == nil {
		citations = r.Coredata.CitedByCount.Ptr()
	}

	return &domain.Author{
		AuthorID:     authorID,
		Name:         name,
		Affiliation:  affiliation,
		HIndex:       hIndex,
		Citations:    citations,
		Publications: r.Coredata.DocumentCount.Ptr(),
		ORCID:        r.Coredata.ORCID.Trimmed(),
		Fields:       subjectAreas(r.SubjectAreas),
		Source:       domain.SourceTypeScopus,
	}
}

func abstractAuthorName(a *AbstractAuthor) string {
	if name := papersources.FirstNonEmpty(a.AuthName.String(), a.IndexedName.String()); name != "" {
		return name
	}
	return strings.TrimSpace(a.GivenName.Trimmed() + " " + a.Surname.Trimmed())
}

// firstAffiliation returns the first affiliation name, resolving ids through
// the record-level affiliation list when the author entry carries no name.
func firstAffiliation(affs []elsevier.Affiliation, names map[string]string) string {
	for _, a := range affs {
		if name := a.AffilName.Trimmed(); name != "" {
			return name
		}
		if name := names[a.ID()]; name != "" {
			return name
		}
	}
	return ""
}

func subjectAreas(s SubjectAreas) []string {
	fields := make([]string, 0, len(s.SubjectArea))
	for _, area := range s.SubjectArea {
		if v := area.Trimmed(); v != "" {
			fields = append(fields, v)
		}
	}
	return fields
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
