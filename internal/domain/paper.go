package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Author represents a paper author as reported by a provider.
// AuthorID may be empty when the provider omits author identifiers (lightweight
// search results); Name is then only a display value.
type Author struct {
	AuthorID     string     `json:"author_id"`
	Name         string     `json:"name"`
	Affiliation  string     `json:"affiliation,omitempty"`
	Email        string     `json:"email,omitempty"`
	HIndex       *int       `json:"h_index,omitempty"`
	Citations    *int       `json:"citations,omitempty"`
	Publications *int       `json:"publications,omitempty"`
	ORCID        string     `json:"orcid,omitempty"`
	Fields       []string   `json:"fields"`
	Source       SourceType `json:"source,omitempty"`
}

// String returns a formatted string representation of the author.
func (a Author) String() string {
	var sb strings.Builder
	sb.WriteString(a.Name)

	if a.Affiliation != "" {
		sb.WriteString(" (")
		sb.WriteString(a.Affiliation)
		sb.WriteString(")")
	}

	if a.ORCID != "" {
		sb.WriteString(" [")
		sb.WriteString(a.ORCID)
		sb.WriteString("]")
	}

	return sb.String()
}

// ShortAffiliation returns the affiliation truncated to maxLen runes, with an
// ellipsis when truncated.
func (a Author) ShortAffiliation(maxLen int) string {
	if a.Affiliation == "" {
		return ""
	}
	runes := []rune(a.Affiliation)
	if maxLen <= 3 || len(runes) <= maxLen {
		return a.Affiliation
	}
	return string(runes[:maxLen-3]) + "..."
}

// ToMap flattens the author into a map keyed by snake_case attribute names.
func (a Author) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"author_id":    a.AuthorID,
		"name":         a.Name,
		"affiliation":  optionalString(a.Affiliation),
		"email":        optionalString(a.Email),
		"h_index":      optionalInt(a.HIndex),
		"citations":    optionalInt(a.Citations),
		"publications": optionalInt(a.Publications),
		"orcid":        optionalString(a.ORCID),
		"fields":       nonNilStrings(a.Fields),
		"source":       string(a.Source),
	}
}

// Paper is the canonical record every provider normalizer produces.
type Paper struct {
	PaperID     string     `json:"paper_id"`
	Title       string     `json:"title"`
	Authors     []Author   `json:"authors"`
	Journal     string     `json:"journal,omitempty"`
	PublishYear *int       `json:"publish_year,omitempty"`
	PublishDate string     `json:"publish_date,omitempty"`
	Keywords    []string   `json:"keywords"`
	Abstract    string     `json:"abstract,omitempty"`
	Citations   *int       `json:"citations,omitempty"`
	References  []string   `json:"references"`
	DOI         string     `json:"doi,omitempty"`
	URL         string     `json:"url,omitempty"`
	Volume      string     `json:"volume,omitempty"`
	Issue       string     `json:"issue,omitempty"`
	Pages       string     `json:"pages,omitempty"`
	Funding     []string   `json:"funding"`
	Fields      []string   `json:"fields"`
	Source      SourceType `json:"source"`

	// Raw is the provider payload the record was built from. It is kept for
	// debugging only and is never serialized.
	Raw json.RawMessage `json:"-"`
}

// Validate reports whether the paper carries both required fields.
func (p *Paper) Validate() error {
	if strings.TrimSpace(p.PaperID) == "" {
		return NewValidationError("paper_id", "must not be empty")
	}
	if strings.TrimSpace(p.Title) == "" {
		return NewValidationError("title", "must not be empty")
	}
	return nil
}

// AuthorNames returns author names in authorship order.
func (p *Paper) AuthorNames() []string {
	names := make([]string, 0, len(p.Authors))
	for _, a := range p.Authors {
		names = append(names, a.Name)
	}
	return names
}

// FirstAuthor returns the first listed author, or nil when there are none.
func (p *Paper) FirstAuthor() *Author {
	if len(p.Authors) == 0 {
		return nil
	}
	return &p.Authors[0]
}

// String returns a short citation-like representation of the paper.
func (p *Paper) String() string {
	var sb strings.Builder
	if first := p.FirstAuthor(); first != nil {
		sb.WriteString(first.Name)
		if len(p.Authors) > 1 {
			sb.WriteString(" et al")
		}
		sb.WriteString(". ")
	}
	sb.WriteString(p.Title)
	if p.Journal != "" {
		sb.WriteString(". ")
		sb.WriteString(p.Journal)
	}
	if p.PublishYear != nil {
		sb.WriteString(fmt.Sprintf(" (%d)", *p.PublishYear))
	}
	return sb.String()
}

// ToMap flattens the paper into a map keyed by snake_case attribute names.
// Unset optional scalars map to nil; authors are flattened with Author.ToMap.
func (p *Paper) ToMap() map[string]interface{} {
	authors := make([]map[string]interface{}, 0, len(p.Authors))
	for _, a := range p.Authors {
		authors = append(authors, a.ToMap())
	}

	return map[string]interface{}{
		"paper_id":     p.PaperID,
		"title":        p.Title,
		"authors":      authors,
		"journal":      optionalString(p.Journal),
		"publish_year": optionalInt(p.PublishYear),
		"publish_date": optionalString(p.PublishDate),
		"keywords":     nonNilStrings(p.Keywords),
		"abstract":     optionalString(p.Abstract),
		"citations":    optionalInt(p.Citations),
		"references":   nonNilStrings(p.References),
		"doi":          optionalString(p.DOI),
		"url":          optionalString(p.URL),
		"volume":       optionalString(p.Volume),
		"issue":        optionalString(p.Issue),
		"pages":        optionalString(p.Pages),
		"funding":      nonNilStrings(p.Funding),
		"fields":       nonNilStrings(p.Fields),
		"source":       string(p.Source),
	}
}

func optionalString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func optionalInt(v *int) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func optionalFloat(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
