// Package sciencedirect provides an adapter for the Elsevier ScienceDirect
// full-text API.
//
// ScienceDirect serves Elsevier journal and book content. It shares the
// Elsevier gateway and API key with Scopus but exposes no author, citation or
// journal endpoints, so only paper lookup and keyword search are backed by
// requests.
//
// API Documentation: https://dev.elsevier.com/sd_apis.html
package sciencedirect

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/helixir/scholar-gateway/internal/papersources"
	"github.com/helixir/scholar-gateway/internal/papersources/elsevier"
)

// ArticleDocument is a full-text retrieval record.
type ArticleDocument struct {
	Coredata     Coredata     `json:"coredata"`
	Authors      AuthorGroup  `json:"authors"`
	SubjectAreas SubjectAreas `json:"subject-areas"`
	Abstract     Abstract     `json:"abstract"`
}

// Coredata holds the bibliographic core of an article record.
type Coredata struct {
	EID             papersources.FlexString                         `json:"eid"`
	Identifier      papersources.FlexString                         `json:"dc:identifier"`
	PII             papersources.FlexString                         `json:"pii"`
	Title           papersources.FlexString                         `json:"dc:title"`
	PublicationName papersources.FlexString                         `json:"prism:publicationName"`
	CoverDate       papersources.FlexString                         `json:"prism:coverDate"`
	Description     papersources.FlexString                         `json:"dc:description"`
	DOI             papersources.FlexString                         `json:"prism:doi"`
	Volume          papersources.FlexString                         `json:"prism:volume"`
	Issue           papersources.FlexString                         `json:"prism:issueIdentifier"`
	PageRange       papersources.FlexString                         `json:"prism:pageRange"`
	Link            elsevier.Links                                  `json:"link"`
	Creators        papersources.OneOrMany[papersources.FlexString] `json:"dc:creator"`
}

// AuthorGroup wraps the author field of article records.
type AuthorGroup struct {
	Author papersources.OneOrMany[ArticleAuthor] `json:"author"`
}

// ArticleAuthor is one author of an article record: either a {"$": name}
// wrapper or a structured given-name/surname object.
type ArticleAuthor struct {
	Value     papersources.FlexString `json:"$"`
	ID        papersources.FlexString `json:"@id"`
	GivenName papersources.FlexString `json:"given-name"`
	Surname   papersources.FlexString `json:"surname"`
}

// Name returns the author's display name.
func (a ArticleAuthor) Name() string {
	if v := a.Value.Trimmed(); v != "" {
		return v
	}
	return strings.TrimSpace(a.GivenName.Trimmed() + " " + a.Surname.Trimmed())
}

// SubjectAreas wraps the subject classification of a record.
type SubjectAreas struct {
	SubjectArea papersources.OneOrMany[papersources.FlexString] `json:"subject-area"`
}

// Abstract decodes the abstract field, which is plain text, a {"$": text}
// wrapper or a structured {"abstract-sec": {"simple-para": ...}} object with
// one or more sections.
type Abstract string

// UnmarshalJSON implements json.Unmarshaler.
func (a *Abstract) UnmarshalJSON(data []byte) error {
	*a = ""

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		var s papersources.FlexString
		_ = s.UnmarshalJSON(trimmed)
		*a = Abstract(s.Trimmed())
		return nil
	}

	var structured struct {
		Value    papersources.FlexString `json:"$"`
		Sections papersources.OneOrMany[struct {
			SimplePara papersources.FlexString `json:"simple-para"`
		}] `json:"abstract-sec"`
	}
	if json.Unmarshal(trimmed, &structured) != nil {
		return nil
	}

	paras := make([]string, 0, len(structured.Sections))
	for _, sec := range structured.Sections {
		if p := sec.SimplePara.Trimmed(); p != "" {
			paras = append(paras, p)
		}
	}
	if len(paras) == 0 {
		*a = Abstract(structured.Value.Trimmed())
		return nil
	}
	*a = Abstract(strings.Join(paras, " "))
	return nil
}

// String returns the abstract text.
func (a Abstract) String() string {
	return string(a)
}
