// Package scopus provides an adapter for the Elsevier Scopus API.
//
// Scopus is a curated abstract and citation database. Every request needs an
// Elsevier API key. Search results come from search/scopus; full records come
// from the abstract retrieval API, whose JSON mixes single objects and lists
// for the same field depending on cardinality.
//
// API Documentation: https://dev.elsevier.com/sc_apis.html
package scopus

import (
	"github.com/helixir/scholar-gateway/internal/papersources"
	"github.com/helixir/scholar-gateway/internal/papersources/elsevier"
)

// AbstractResponse is the envelope of the abstract retrieval API.
type AbstractResponse struct {
	Document *AbstractDocument `json:"abstracts-retrieval-response"`
}

// AbstractDocument is a full Scopus record.
type AbstractDocument struct {
	Coredata     Coredata                                     `json:"coredata"`
	Authors      AuthorGroup                                  `json:"authors"`
	AuthKeywords papersources.Keywords                        `json:"authkeywords"`
	Affiliations papersources.OneOrMany[elsevier.Affiliation] `json:"affiliation"`
	SubjectAreas SubjectAreas                                 `json:"subject-areas"`
}

// Coredata holds the bibliographic core of an abstract record.
type Coredata struct {
	EID             papersources.FlexString `json:"eid"`
	Identifier      papersources.FlexString `json:"dc:identifier"`
	Title           papersources.FlexString `json:"dc:title"`
	PublicationName papersources.FlexString `json:"prism:publicationName"`
	CoverDate       papersources.FlexString `json:"prism:coverDate"`
	Description     papersources.FlexString `json:"dc:description"`
	CitedByCount    papersources.FlexInt    `json:"citedby-count"`
	DOI             papersources.FlexString `json:"prism:doi"`
	Volume          papersources.FlexString `json:"prism:volume"`
	Issue           papersources.FlexString `json:"prism:issueIdentifier"`
	PageRange       papersources.FlexString `json:"prism:pageRange"`
	Link            elsevier.Links          `json:"link"`
	AuthKeywords    papersources.Keywords   `json:"authkeywords"`
}

// AuthorGroup wraps the author field of abstract records.
type AuthorGroup struct {
	Author papersources.OneOrMany[AbstractAuthor] `json:"author"`
}

// AbstractAuthor is one author of an abstract record. Older payloads use
// authid/authname; the current API uses @auid and ce:indexed-name.
type AbstractAuthor struct {
	AuthID       papersources.FlexString                      `json:"authid"`
	AUID         papersources.FlexString                      `json:"@auid"`
	AuthName     papersources.FlexString                      `json:"authname"`
	IndexedName  papersources.FlexString                      `json:"ce:indexed-name"`
	GivenName    papersources.FlexString                      `json:"ce:given-name"`
	Surname      papersources.FlexString                      `json:"ce:surname"`
	Affiliations papersources.OneOrMany[elsevier.Affiliation] `json:"affiliation"`
}

// SubjectAreas wraps the subject classification of a record.
type SubjectAreas struct {
	SubjectArea papersources.OneOrMany[papersources.FlexString] `json:"subject-area"`
}

// AuthorResponse is the envelope of the author retrieval API. The payload is a
// list even for a single author.
type AuthorResponse struct {
	Records papersources.OneOrMany[AuthorRecord] `json:"author-retrieval-response"`
}

// AuthorRecord is one author profile.
type AuthorRecord struct {
	Coredata     AuthorCoredata       `json:"coredata"`
	HIndex       papersources.FlexInt `json:"h-index"`
	Profile      AuthorProfile        `json:"author-profile"`
	SubjectAreas SubjectAreas         `json:"subject-areas"`
}

// AuthorCoredata holds the author metrics.
type AuthorCoredata struct {
	Identifier    papersources.FlexString `json:"dc:identifier"`
	HIndex        papersources.FlexInt    `json:"h-index"`
	CitationCount papersources.FlexInt    `json:"citation-count"`
	CitedByCount  papersources.FlexInt    `json:"cited-by-count"`
	DocumentCount papersources.FlexInt    `json:"document-count"`
	ORCID         papersources.FlexString `json:"orcid"`
}

// AuthorProfile holds the author's names and current affiliation.
type AuthorProfile struct {
	PreferredName      PreferredName      `json:"preferred-name"`
	AffiliationCurrent AffiliationCurrent `json:"affiliation-current"`
}

// PreferredName is the author's preferred name variant.
type PreferredName struct {
	IndexedName papersources.FlexString `json:"indexed-name"`
	GivenName   papersources.FlexString `json:"given-name"`
	Surname     papersources.FlexString `json:"surname"`
}

// AffiliationCurrent is the author's current affiliation, flat in older
// payloads and nested under affiliation/ip-doc in newer ones.
type AffiliationCurrent struct {
	AffiliationName papersources.FlexString                    `json:"affiliation-name"`
	Affiliation     papersources.OneOrMany[CurrentAffiliation] `json:"affiliation"`
}

// CurrentAffiliation is one nested current affiliation.
type CurrentAffiliation struct {
	IPDoc struct {
		DisplayName   papersources.FlexString `json:"afdispname"`
		PreferredName papersources.FlexString `json:"preferred-name"`
	} `json:"ip-doc"`
}
