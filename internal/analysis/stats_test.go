package analysis

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/scholar-gateway/internal/domain"
)

func fixturePapers() []*domain.Paper {
	return []*domain.Paper{
		{
			PaperID:     "W1",
			Journal:     "Nature",
			PublishYear: domain.IntPtr(2019),
			Keywords:    []string{"Deep Learning", "deep  learning", "Vision"},
			Citations:   domain.IntPtr(10),
			Authors: []domain.Author{
				{AuthorID: "A1", Name: "Ada Lovelace"},
				{AuthorID: "A2", Name: "Alan Turing"},
			},
		},
		{
			PaperID:     "W2",
			Journal:     "Science",
			PublishYear: domain.IntPtr(2021),
			Keywords:    []string{"vision", "robotics"},
			Citations:   domain.IntPtr(3),
			Authors: []domain.Author{
				{AuthorID: "A1", Name: "Ada Lovelace"},
				{AuthorID: "A3", Name: "Grace Hopper"},
				{AuthorID: "A2", Name: "Alan Turing"},
			},
		},
		{
			PaperID:     "W3",
			Journal:     "Nature",
			PublishYear: domain.IntPtr(2019),
			Citations:   domain.IntPtr(5),
			Authors:     []domain.Author{{AuthorID: "A1", Name: "Ada Lovelace"}},
		},
		{PaperID: "W4", Keywords: []string{"Robotics"}},
		nil,
	}
}

func TestYearDistribution(t *testing.T) {
	stats := YearDistribution(fixturePapers())
	assert.Equal(t, 5, stats.TotalPapers)
	assert.Equal(t, map[int]int{2019: 2, 2021: 1}, stats.Distribution)
	require.NotNil(t, stats.First)
	require.NotNil(t, stats.Latest)
	assert.Equal(t, 2019, *stats.First)
	assert.Equal(t, 2021, *stats.Latest)
	assert.Equal(t, []int{2019, 2021}, stats.Years())

	empty := YearDistribution(nil)
	assert.Nil(t, empty.First)
	assert.Empty(t, empty.Distribution)

	data, err := json.Marshal(stats)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"yearly_distribution":{"2019":2,"2021":1}`)
}

func TestJournalDistribution(t *testing.T) {
	stats := JournalDistribution(fixturePapers(), 0)
	assert.Equal(t, 2, stats.Distinct)
	assert.Equal(t, []Count{{Key: "Nature", Count: 2}, {Key: "Science", Count: 1}}, stats.Top)

	top1 := JournalDistribution(fixturePapers(), 1)
	assert.Equal(t, 2, top1.Distinct)
	assert.Equal(t, []Count{{Key: "Nature", Count: 2}}, top1.Top)
}

func TestKeywordDistribution(t *testing.T) {
	stats := KeywordDistribution(fixturePapers(), 0)
	assert.Equal(t, 3, stats.Distinct)
	assert.Equal(t, []Count{
		{Key: "vision", Count: 2},
		{Key: "robotics", Count: 2},
		{Key: "deep learning", Count: 1},
	}, stats.Top)
}

func TestCoauthors(t *testing.T) {
	stats := Coauthors(fixturePapers(), "A1", 0)
	assert.Equal(t, "A1", stats.AuthorID)
	assert.Equal(t, 2, stats.TotalCoauthors)
	assert.Equal(t, 3, stats.TotalCollaborations)
	assert.Equal(t, []Count{{Key: "Alan Turing", Count: 2}, {Key: "Grace Hopper", Count: 1}}, stats.Top)
}

func TestCitationSummary(t *testing.T) {
	stats := CitationSummary(fixturePapers())
	assert.Equal(t, 18, stats.TotalCitations)
	assert.InDelta(t, 6.0, stats.Average, 1e-9)
	assert.Equal(t, 10, *stats.Max)
	assert.Equal(t, 3, *stats.Min)
	assert.Equal(t, 3, stats.HIndex)
	assert.Equal(t, 3, stats.WithCitations)

	assert.Equal(t, CitationStats{}, CitationSummary([]*domain.Paper{{PaperID: "x"}}))
}

func TestCitationSummary_HIndex(t *testing.T) {
	tests := []struct {
		name   string
		counts []int
		want   int
	}{
		{name: "all zero", counts: []int{0, 0, 0}, want: 0},
		{name: "classic", counts: []int{3, 0, 6, 1, 5}, want: 3},
		{name: "one big paper", counts: []int{100}, want: 1},
		{name: "uniform", counts: []int{4, 4, 4, 4}, want: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			papers := make([]*domain.Paper, len(tt.counts))
			for i, c := range tt.counts {
				papers[i] = &domain.Paper{Citations: domain.IntPtr(c)}
			}
			assert.Equal(t, tt.want, CitationSummary(papers).HIndex)
		})
	}
}

func TestCompute(t *testing.T) {
	for _, action := range Actions() {
		t.Run(string(action), func(t *testing.T) {
			report, err := Compute(action, Subject{AuthorID: "A1"}, fixturePapers(), 0)
			require.NoError(t, err)
			assert.Equal(t, action, report.Action)
			assert.Equal(t, 5, report.Papers)
			assert.NotNil(t, report.Result)
		})
	}

	_, err := Compute(Action("nope"), Subject{}, nil, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestParseAction(t *testing.T) {
	a, err := ParseAction("coauthor_stats")
	require.NoError(t, err)
	assert.Equal(t, ActionCoauthorStats, a)
	assert.False(t, a.ByKeyword())
	assert.True(t, ActionYearDistribution.ByKeyword())

	_, err = ParseAction("h_index")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
