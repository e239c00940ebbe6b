package analysis

import (
	"fmt"

	"github.com/helixir/scholar-gateway/internal/domain"
)

// Action names a statistics report.
type Action string

const (
	ActionPublicationStats    Action = "author_publication_stats"
	ActionCitationStats       Action = "author_citation_stats"
	ActionJournalDistribution Action = "journal_distribution"
	ActionYearDistribution    Action = "year_distribution"
	ActionKeywordDistribution Action = "keyword_distribution"
	ActionCoauthorStats       Action = "coauthor_stats"
)

// Actions lists every report in a stable order.
func Actions() []Action {
	return []Action{
		ActionPublicationStats,
		ActionCitationStats,
		ActionJournalDistribution,
		ActionYearDistribution,
		ActionKeywordDistribution,
		ActionCoauthorStats,
	}
}

// ParseAction validates s.
func ParseAction(s string) (Action, error) {
	for _, a := range Actions() {
		if string(a) == s {
			return a, nil
		}
	}
	return "", domain.NewValidationError("action", fmt.Sprintf("unknown statistics action %q", s))
}

// ByKeyword reports whether the action runs over a keyword search instead
// of an author's papers.
func (a Action) ByKeyword() bool {
	return a == ActionYearDistribution
}

// Subject identifies what a report was computed over.
type Subject struct {
	AuthorID string `json:"author_id,omitempty"`
	Keyword  string `json:"keyword,omitempty"`
}

// Report is the outcome of one statistics action.
type Report struct {
	Action  Action      `json:"action"`
	Subject Subject     `json:"subject"`
	Papers  int         `json:"total_papers"`
	Result  interface{} `json:"result"`
}

// Compute runs action over papers. topN applies to ranked distributions;
// zero selects the per-action default.
func Compute(action Action, subject Subject, papers []*domain.Paper, topN int) (*Report, error) {
	report := &Report{Action: action, Subject: subject, Papers: len(papers)}

	switch action {
	case ActionPublicationStats, ActionYearDistribution:
		report.Result = YearDistribution(papers)
	case ActionCitationStats:
		report.Result = CitationSummary(papers)
	case ActionJournalDistribution:
		report.Result = JournalDistribution(papers, topN)
	case ActionKeywordDistribution:
		report.Result = KeywordDistribution(papers, topN)
	case ActionCoauthorStats:
		report.Result = Coauthors(papers, subject.AuthorID, topN)
	default:
		return nil, domain.NewValidationError("action", fmt.Sprintf("unknown statistics action %q", action))
	}
	return report, nil
}
