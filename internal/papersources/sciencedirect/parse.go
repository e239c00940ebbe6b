package sciencedirect

import (
	"encoding/json"

	"github.com/helixir/scholar-gateway/internal/domain"
	"github.com/helixir/scholar-gateway/internal/papersources"
	"github.com/helixir/scholar-gateway/internal/papersources/elsevier"
)

// ParseArticle converts a full-text retrieval record into a Paper. It accepts
// the record with or without its envelope and performs no I/O.
func ParseArticle(raw json.RawMessage) (*domain.Paper, error) {
	var envelope struct {
		Document json.RawMessage `json:"full-text-retrieval-response"`
	}
	if err := papersources.DecodeLenient(raw, &envelope); err != nil {
		return nil, domain.NewDataError(sourceName, err)
	}
	if !isEmptyJSON(envelope.Document) {
		raw = envelope.Document
	}

	var doc ArticleDocument
	if err := papersources.DecodeLenient(raw, &doc); err != nil {
		return nil, domain.NewDataError(sourceName, err)
	}
	core := &doc.Coredata

	authors := make([]domain.Author, 0, len(doc.Authors.Author))
	for _, a := range doc.Authors.Author {
		authors = append(authors, domain.Author{
			AuthorID: a.ID.Trimmed(),
			Name:     a.Name(),
			Source:   domain.SourceTypeScienceDirect,
		})
	}
	if len(authors) == 0 {
		for _, creator := range core.Creators {
			if name := creator.Trimmed(); name != "" {
				authors = append(authors, domain.Author{Name: name, Source: domain.SourceTypeScienceDirect})
			}
		}
	}

	keywords := make([]string, 0, len(doc.SubjectAreas.SubjectArea))
	for _, area := range doc.SubjectAreas.SubjectArea {
		if v := area.Trimmed(); v != "" {
			keywords = append(keywords, v)
		}
	}

	abstract := doc.Abstract.String()
	if abstract == "" {
		abstract = core.Description.Trimmed()
	}

	paper := &domain.Paper{
		PaperID:     paperID(core.EID, core.Identifier),
		Title:       core.Title.Trimmed(),
		Authors:     authors,
		Journal:     core.PublicationName.Trimmed(),
		PublishYear: papersources.ParseYear(core.CoverDate.String()),
		PublishDate: core.CoverDate.Trimmed(),
		Keywords:    keywords,
		Abstract:    abstract,
		References:  []string{},
		DOI:         core.DOI.Trimmed(),
		URL:         elsevier.Href(core.Link, scidirLinkRel),
		Volume:      core.Volume.Trimmed(),
		Issue:       core.Issue.Trimmed(),
		Pages:       core.PageRange.Trimmed(),
		Source:      domain.SourceTypeScienceDirect,
		Raw:         append(json.RawMessage(nil), raw...),
	}

	if err := paper.Validate(); err != nil {
		return nil, domain.NewDataError(sourceName, err)
	}
	return paper, nil
}

// EntryToPaper converts a search result row into a Paper. Search rows carry no
// author list.
func EntryToPaper(entry *elsevier.RawEntry) (*domain.Paper, error) {
	paper := &domain.Paper{
		PaperID:     paperID(entry.EID, entry.Identifier),
		Title:       entry.Title.Trimmed(),
		Authors:     []domain.Author{},
		Journal:     entry.PublicationName.Trimmed(),
		PublishYear: papersources.ParseYear(entry.CoverDate.String()),
		PublishDate: entry.CoverDate.Trimmed(),
		Keywords:    []string{},
		Abstract:    entry.Description.Trimmed(),
		References:  []string{},
		DOI:         entry.DOI.Trimmed(),
		URL:         elsevier.Href(entry.Link, scidirLinkRel),
		Volume:      entry.Volume.Trimmed(),
		Issue:       entry.Issue.Trimmed(),
		Pages:       entry.PageRange.Trimmed(),
		Source:      domain.SourceTypeScienceDirect,
		Raw:         entry.Raw,
	}

	if err := paper.Validate(); err != nil {
		return nil, domain.NewDataError(sourceName, err)
	}
	return paper, nil
}

// paperID prefers the EID and falls back to the dc:identifier without its
// "doi:" scheme.
func paperID(eid, identifier papersources.FlexString) string {
	if id := eid.Trimmed(); id != "" {
		return id
	}
	return papersources.StripPrefixes(identifier.Trimmed(), "doi:")
}
