package domain

import "strings"

// Journal describes a publication venue.
type Journal struct {
	JournalID    string     `json:"journal_id,omitempty"`
	Name         string     `json:"name"`
	ISSN         string     `json:"issn,omitempty"`
	EISSN        string     `json:"e_issn,omitempty"`
	Publisher    string     `json:"publisher,omitempty"`
	ImpactFactor *float64   `json:"impact_factor,omitempty"`
	CiteScore    *float64   `json:"cite_score,omitempty"`
	SNIP         *float64   `json:"snip,omitempty"`
	SJR          *float64   `json:"sjr,omitempty"`
	Fields       []string   `json:"fields"`
	Source       SourceType `json:"source,omitempty"`
}

// Impact tiers derived from the impact factor.
const (
	TierQ1      = "Q1"
	TierQ2      = "Q2"
	TierQ3      = "Q3"
	TierQ4      = "Q4"
	TierUnknown = "Unknown"
)

// ImpactTier classifies the journal by impact factor.
func (j *Journal) ImpactTier() string {
	if j.ImpactFactor == nil {
		return TierUnknown
	}
	switch f := *j.ImpactFactor; {
	case f >= 10:
		return TierQ1
	case f >= 5:
		return TierQ2
	case f >= 2:
		return TierQ3
	default:
		return TierQ4
	}
}

// Metrics returns every bibliometric indicator keyed by name. Missing values are nil.
func (j *Journal) Metrics() map[string]*float64 {
	return map[string]*float64{
		"impact_factor": j.ImpactFactor,
		"cite_score":    j.CiteScore,
		"snip":          j.SNIP,
		"sjr":           j.SJR,
	}
}

// String returns the journal name with its ISSN when known.
func (j *Journal) String() string {
	var sb strings.Builder
	sb.WriteString(j.Name)
	if j.ISSN != "" {
		sb.WriteString(" (ISSN: ")
		sb.WriteString(j.ISSN)
		sb.WriteString(")")
	}
	return sb.String()
}

// ToMap flattens the journal into a map keyed by snake_case attribute names.
func (j *Journal) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"journal_id":    optionalString(j.JournalID),
		"name":          j.Name,
		"issn":          optionalString(j.ISSN),
		"e_issn":        optionalString(j.EISSN),
		"publisher":     optionalString(j.Publisher),
		"impact_factor": optionalFloat(j.ImpactFactor),
		"cite_score":    optionalFloat(j.CiteScore),
		"snip":          optionalFloat(j.SNIP),
		"sjr":           optionalFloat(j.SJR),
		"fields":        nonNilStrings(j.Fields),
		"source":        string(j.Source),
	}
}
