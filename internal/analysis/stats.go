// Package analysis computes descriptive statistics over paper lists:
// publication years, journals, keywords, co-authors and citations.
package analysis

import (
	"slices"
	"sort"

	"github.com/helixir/scholar-gateway/internal/domain"
)

// Default result sizes for the ranked distributions.
const (
	DefaultTopJournals  = 10
	DefaultTopKeywords  = 20
	DefaultTopCoauthors = 10
)

// Count is one entry of a ranked distribution.
type Count struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// YearStats summarizes publication years.
type YearStats struct {
	TotalPapers  int         `json:"total_papers"`
	Distribution map[int]int `json:"yearly_distribution"`
	First        *int        `json:"first_publication"`
	Latest       *int        `json:"latest_publication"`
}

// YearDistribution counts papers per publication year. Papers without a
// year count toward TotalPapers only.
func YearDistribution(papers []*domain.Paper) YearStats {
	stats := YearStats{TotalPapers: len(papers), Distribution: make(map[int]int)}
	for _, p := range papers {
		if p == nil || p.PublishYear == nil {
			continue
		}
		y := *p.PublishYear
		stats.Distribution[y]++
		if stats.First == nil || y < *stats.First {
			stats.First = domain.IntPtr(y)
		}
		if stats.Latest == nil || y > *stats.Latest {
			stats.Latest = domain.IntPtr(y)
		}
	}
	return stats
}

// Years returns the distribution's years in ascending order.
func (s YearStats) Years() []int {
	years := make([]int, 0, len(s.Distribution))
	for y := range s.Distribution {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

// RankedStats is a top-N distribution plus the number of distinct keys.
type RankedStats struct {
	Distinct int     `json:"distinct"`
	Top      []Count `json:"top"`
}

// JournalDistribution ranks journals by paper count.
func JournalDistribution(papers []*domain.Paper, topN int) RankedStats {
	var c counter
	for _, p := range papers {
		if p != nil && p.Journal != "" {
			c.add(p.Journal)
		}
	}
	return c.ranked(topN, DefaultTopJournals)
}

// KeywordDistribution ranks keywords, compared in normalized form, by the
// number of papers listing them.
func KeywordDistribution(papers []*domain.Paper, topN int) RankedStats {
	var c counter
	for _, p := range papers {
		if p == nil {
			continue
		}
		seen := make(map[string]struct{}, len(p.Keywords))
		for _, kw := range p.Keywords {
			key := domain.NormalizeKeyword(kw)
			if key == "" {
				continue
			}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			c.add(key)
		}
	}
	return c.ranked(topN, DefaultTopKeywords)
}

// CoauthorStats summarizes who an author publishes with.
type CoauthorStats struct {
	AuthorID            string  `json:"author_id"`
	TotalCoauthors      int     `json:"total_coauthors"`
	TotalCollaborations int     `json:"total_collaborations"`
	Top                 []Count `json:"top_coauthors"`
}

// Coauthors counts the co-authors of authorID across papers, by name.
// Authors whose id equals authorID are excluded.
func Coauthors(papers []*domain.Paper, authorID string, topN int) CoauthorStats {
	var c counter
	collaborations := 0
	for _, p := range papers {
		if p == nil {
			continue
		}
		for _, a := range p.Authors {
			if a.Name == "" || (authorID != "" && a.AuthorID == authorID) {
				continue
			}
			c.add(a.Name)
			collaborations++
		}
	}
	ranked := c.ranked(topN, DefaultTopCoauthors)
	return CoauthorStats{
		AuthorID:            authorID,
		TotalCoauthors:      ranked.Distinct,
		TotalCollaborations: collaborations,
		Top:                 ranked.Top,
	}
}

// CitationStats summarizes citation counts.
type CitationStats struct {
	TotalCitations int     `json:"total_citations"`
	Average        float64 `json:"average_citations"`
	Max            *int    `json:"max_citations,omitempty"`
	Min            *int    `json:"min_citations,omitempty"`
	HIndex         int     `json:"h_index"`
	WithCitations  int     `json:"publications_with_citations"`
}

// CitationSummary aggregates citation counts. Papers without a count are
// ignored; the h-index is the largest h such that h papers have at least h
// citations each.
func CitationSummary(papers []*domain.Paper) CitationStats {
	counts := make([]int, 0, len(papers))
	for _, p := range papers {
		if p != nil && p.Citations != nil {
			counts = append(counts, *p.Citations)
		}
	}
	if len(counts) == 0 {
		return CitationStats{}
	}

	slices.Sort(counts)
	slices.Reverse(counts)

	var stats CitationStats
	for i, c := range counts {
		stats.TotalCitations += c
		if c >= i+1 {
			stats.HIndex = i + 1
		}
	}
	stats.WithCitations = len(counts)
	stats.Average = float64(stats.TotalCitations) / float64(len(counts))
	stats.Max = domain.IntPtr(counts[0])
	stats.Min = domain.IntPtr(counts[len(counts)-1])
	return stats
}

// counter tallies keys and remembers first-seen order so ties rank stably.
type counter struct {
	order  []string
	counts map[string]int
}

func (c *counter) add(key string) {
	if c.counts == nil {
		c.counts = make(map[string]int)
	}
	if _, ok := c.counts[key]; !ok {
		c.order = append(c.order, key)
	}
	c.counts[key]++
}

func (c *counter) ranked(topN, fallback int) RankedStats {
	if topN <= 0 {
		topN = fallback
	}
	all := make([]Count, len(c.order))
	for i, k := range c.order {
		all[i] = Count{Key: k, Count: c.counts[k]}
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].Count > all[j].Count })
	if len(all) > topN {
		all = all[:topN]
	}
	return RankedStats{Distinct: len(c.order), Top: all}
}
