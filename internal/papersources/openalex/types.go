// Package openalex provides an adapter for the OpenAlex API.
//
// OpenAlex is a free, open catalog of scholarly papers, authors, venues,
// institutions, and concepts. It needs no API key; callers that supply a
// contact email join the polite pool.
//
// API Documentation: https://docs.openalex.org/
package openalex

import "encoding/json"

// SearchResponse represents the top-level response of list endpoints such as
// /works. Results are kept raw so each paper can carry its source payload.
type SearchResponse struct {
	Meta    Meta              `json:"meta"`
	Results []json.RawMessage `json:"results"`
}

// Meta contains metadata about the results including pagination info.
type Meta struct {
	Count   int `json:"count"`
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
}

// Work represents an academic work (paper) in OpenAlex.
type Work struct {
	ID              string       `json:"id"`
	DOI             string       `json:"doi"`
	Title           string       `json:"title"`
	DisplayName     string       `json:"display_name"`
	PublicationYear *int         `json:"publication_year"`
	PublicationDate string       `json:"publication_date"`
	Type            string       `json:"type"`
	CitedByCount    *int         `json:"cited_by_count"`
	Authorships     []Authorship `json:"authorships"`
	PrimaryLocation *Location    `json:"primary_location"`
	HostVenue       *Source      `json:"host_venue"`
	ReferencedWorks []string     `json:"referenced_works"`
	Concepts        []Concept    `json:"concepts"`
	Keywords        []Concept    `json:"keywords"`
	Topics          []Concept    `json:"topics"`
	Grants          []Grant      `json:"grants"`
	Biblio          Biblio       `json:"biblio"`
	Abstract        string       `json:"abstract"`

	// AbstractInvertedIndex maps each abstract word to the positions it
	// occupies.
	AbstractInvertedIndex map[string][]int `json:"abstract_inverted_index"`
}

// Authorship represents an author's contribution to a work.
type Authorship struct {
	AuthorPosition string        `json:"author_position"`
	Author         AuthorInfo    `json:"author"`
	Institutions   []Institution `json:"institutions"`
}

// AuthorInfo contains basic author information.
type AuthorInfo struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	ORCID       string `json:"orcid"`
}

// Institution represents an academic institution.
type Institution struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// Location represents where a work is available.
type Location struct {
	Source *Source `json:"source"`
	PDFURL string  `json:"pdf_url"`
}

// Source represents a publication venue (journal, repository, etc.).
type Source struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Type        string `json:"type"`
}

// Concept is any tagged entity with a display name: concepts, keywords and
// topics share this shape.
type Concept struct {
	ID          string   `json:"id"`
	DisplayName string   `json:"display_name"`
	Score       *float64 `json:"score"`
}

// Grant is one funding record of a work.
type Grant struct {
	Funder            string `json:"funder"`
	FunderDisplayName string `json:"funder_display_name"`
	AwardID           string `json:"award_id"`
}

// Biblio holds the bibliographic position of a work inside its venue.
type Biblio struct {
	Volume    string `json:"volume"`
	Issue     string `json:"issue"`
	FirstPage string `json:"first_page"`
	LastPage  string `json:"last_page"`
}

// SummaryStats holds the derived metrics OpenAlex attaches to authors and
// sources.
type SummaryStats struct {
	HIndex               *int     `json:"h_index"`
	I10Index             *int     `json:"i10_index"`
	TwoYearMeanCitedness *float64 `json:"2yr_mean_citedness"`
}

// AuthorRecord is the response of /authors/{id}.
type AuthorRecord struct {
	ID                    string        `json:"id"`
	DisplayName           string        `json:"display_name"`
	ORCID                 string        `json:"orcid"`
	WorksCount            *int          `json:"works_count"`
	CitedByCount          *int          `json:"cited_by_count"`
	SummaryStats          SummaryStats  `json:"summary_stats"`
	LastKnownInstitution  *Institution  `json:"last_known_institution"`
	LastKnownInstitutions []Institution `json:"last_known_institutions"`
	XConcepts             []Concept     `json:"x_concepts"`
}

// SourceRecord is the response of /sources/{id}.
type SourceRecord struct {
	ID                   string       `json:"id"`
	DisplayName          string       `json:"display_name"`
	ISSNL                string       `json:"issn_l"`
	ISSN                 []string     `json:"issn"`
	HostOrganizationName string       `json:"host_organization_name"`
	SummaryStats         SummaryStats `json:"summary_stats"`
	XConcepts            []Concept    `json:"x_concepts"`
}
