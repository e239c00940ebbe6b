package domain

// CitationRelations holds one hop of the citation graph around a paper.
// Providers that cannot supply a field leave it as an empty list.
type CitationRelations struct {
	PaperID        string   `json:"paper_id"`
	References     []string `json:"references"`
	Citations      []string `json:"citations"`
	CitationPapers []*Paper `json:"citation_papers"`
	CitationCount  int      `json:"citation_count"`
}

// NewCitationRelations returns relations for paperID with every list empty.
func NewCitationRelations(paperID string) *CitationRelations {
	return &CitationRelations{
		PaperID:        paperID,
		References:     []string{},
		Citations:      []string{},
		CitationPapers: []*Paper{},
	}
}

// AddCitingPapers appends papers that cite this one and updates the count.
func (c *CitationRelations) AddCitingPapers(papers []*Paper) {
	for _, p := range papers {
		c.Citations = append(c.Citations, p.PaperID)
		c.CitationPapers = append(c.CitationPapers, p)
	}
	c.CitationCount = len(c.CitationPapers)
}
