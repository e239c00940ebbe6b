package elsevier

import (
	"encoding/json"
	"strings"

	"github.com/helixir/scholar-gateway/internal/papersources"
)

// Link is one entry of an Elsevier link list. Retrieval records name the
// relation "@rel" while search entries use "@ref".
type Link struct {
	Rel  string `json:"@rel"`
	Ref  string `json:"@ref"`
	Href string `json:"@href"`
}

// Relation returns the link relation whichever key carried it.
func (l Link) Relation() string {
	if l.Rel != "" {
		return l.Rel
	}
	return l.Ref
}

// Links decodes the "link" field, which is either one object or a list.
type Links = papersources.OneOrMany[Link]

// Href returns the href of the first link with the given rel. An empty rel, or
// no match, falls back to the first link that has an href.
func Href(links Links, rel string) string {
	if rel != "" {
		for _, l := range links {
			if l.Relation() == rel && l.Href != "" {
				return l.Href
			}
		}
	}
	for _, l := range links {
		if l.Href != "" {
			return l.Href
		}
	}
	return ""
}

// SearchResponse is the envelope of search/scopus and search/sciencedirect.
type SearchResponse struct {
	Results SearchResults `json:"search-results"`
}

// SearchResults carries one page of search entries.
type SearchResults struct {
	TotalResults papersources.FlexInt `json:"opensearch:totalResults"`
	StartIndex   papersources.FlexInt `json:"opensearch:startIndex"`
	ItemsPerPage papersources.FlexInt `json:"opensearch:itemsPerPage"`
	Entries      []RawEntry           `json:"entry"`
}

// Total returns the provider's result count, or -1 when it is unknown.
func (r SearchResults) Total() int {
	if v := r.TotalResults.Ptr(); v != nil {
		return *v
	}
	return -1
}

// RawEntry is a search entry together with its undecoded JSON.
type RawEntry struct {
	Entry
	Raw json.RawMessage
}

// UnmarshalJSON implements json.Unmarshaler. Fields of unexpected type are
// left empty so one malformed entry cannot fail the page.
func (e *RawEntry) UnmarshalJSON(data []byte) error {
	e.Raw = append(json.RawMessage(nil), data...)
	e.Entry = Entry{}
	_ = json.Unmarshal(data, &e.Entry)
	return nil
}

// Entry is a search result row. Scopus COMPLETE view adds the author list and
// keywords; other views leave them empty.
type Entry struct {
	EID             papersources.FlexString             `json:"eid"`
	Identifier      papersources.FlexString             `json:"dc:identifier"`
	PII             papersources.FlexString             `json:"pii"`
	Title           papersources.FlexString             `json:"dc:title"`
	Creator         papersources.FlexString             `json:"dc:creator"`
	PublicationName papersources.FlexString             `json:"prism:publicationName"`
	CoverDate       papersources.FlexString             `json:"prism:coverDate"`
	Description     papersources.FlexString             `json:"dc:description"`
	CitedByCount    papersources.FlexInt                `json:"citedby-count"`
	DOI             papersources.FlexString             `json:"prism:doi"`
	Volume          papersources.FlexString             `json:"prism:volume"`
	Issue           papersources.FlexString             `json:"prism:issueIdentifier"`
	PageRange       papersources.FlexString             `json:"prism:pageRange"`
	Link            Links                               `json:"link"`
	AuthKeywords    papersources.Keywords               `json:"authkeywords"`
	Authors         papersources.OneOrMany[EntryAuthor] `json:"author"`
	Affiliations    papersources.OneOrMany[Affiliation] `json:"affiliation"`
	Error           papersources.FlexString             `json:"error"`
}

// EntryAuthor is an author row of a COMPLETE-view search entry.
type EntryAuthor struct {
	AuthID    papersources.FlexString                         `json:"authid"`
	AuthName  papersources.FlexString                         `json:"authname"`
	GivenName papersources.FlexString                         `json:"given-name"`
	Surname   papersources.FlexString                         `json:"surname"`
	AfID      papersources.OneOrMany[papersources.FlexString] `json:"afid"`
}

// Name returns the indexed author name, falling back to given name + surname.
func (a EntryAuthor) Name() string {
	if name := a.AuthName.Trimmed(); name != "" {
		return name
	}
	return strings.TrimSpace(a.GivenName.Trimmed() + " " + a.Surname.Trimmed())
}

// Affiliation is an affiliation row.
type Affiliation struct {
	AfID      papersources.FlexString `json:"afid"`
	AffilID   papersources.FlexString `json:"@id"`
	AffilName papersources.FlexString `json:"affilname"`
	City      papersources.FlexString `json:"affiliation-city"`
	Country   papersources.FlexString `json:"affiliation-country"`
}

// ID returns the affiliation identifier regardless of which key carried it.
func (a Affiliation) ID() string {
	return papersources.FirstNonEmpty(a.AfID.String(), a.AffilID.String())
}

// AffiliationNames maps affiliation ids to names.
func AffiliationNames(affs []Affiliation) map[string]string {
	names := make(map[string]string, len(affs))
	for _, a := range affs {
		if id := a.ID(); id != "" {
			names[id] = a.AffilName.Trimmed()
		}
	}
	return names
}
