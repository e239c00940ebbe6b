package openalex

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/scholar-gateway/internal/domain"
	"github.com/helixir/scholar-gateway/internal/papersources"
)

func loadFixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return data
}

// newTestClient creates a client pointed at a test server with a high rate
// limit and a tiny backoff.
func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return New(Config{
		BaseURL:    server.URL,
		Mailto:     "test@example.com",
		RateLimit:  1000,
		RetryDelay: time.Millisecond,
	}, papersources.Deps{Logger: zerolog.Nop()})
}

func intPtr(v int) *int {
	return &v
}

func TestNew(t *testing.T) {
	c := New(Config{}, papersources.Deps{Logger: zerolog.Nop()})

	assert.Equal(t, domain.SourceTypeOpenAlex, c.SourceType())
	assert.Equal(t, "OpenAlex", c.Name())
	assert.Equal(t, DefaultBaseURL, c.config.BaseURL)
	assert.Equal(t, 10.0, c.config.RateLimit)
	assert.Equal(t, time.Second, c.config.RetryDelay)

	execCfg := c.httpClient.Config()
	assert.Equal(t, papersources.RateLimitWait, execCfg.RateLimitPolicy)
	assert.Equal(t, "Retry-After", execCfg.RateLimitHeader)
	assert.Equal(t, "ScholarGateway/1.0", execCfg.UserAgent)

	polite := New(Config{Mailto: "me@example.org"}, papersources.Deps{Logger: zerolog.Nop()})
	assert.Equal(t, "ScholarGateway/1.0 (mailto:me@example.org)", polite.httpClient.Config().UserAgent)
}

func TestNormalizeWorkID(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"W2741809807", "W2741809807"},
		{"https://openalex.org/W2741809807", "W2741809807"},
		{"10.7717/peerj.4375", "doi:10.7717/peerj.4375"},
		{"https://doi.org/10.7717/peerj.4375", "doi:10.7717/peerj.4375"},
		{"doi:10.7717/peerj.4375", "doi:10.7717/peerj.4375"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := normalizeWorkID(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)

			again, err := normalizeWorkID(got)
			require.NoError(t, err)
			assert.Equal(t, got, again)
		})
	}

	_, err := normalizeWorkID(" ")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestGetPaperByID(t *testing.T) {
	fixture := loadFixture(t, "work.json")

	var gotPath, gotMailto string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotMailto = r.URL.Query().Get("mailto")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(fixture)
	})

	paper, err := c.GetPaperByID(context.Background(), "https://openalex.org/W2741809807")
	require.NoError(t, err)
	require.NotNil(t, paper)

	assert.Equal(t, "/works/W2741809807", gotPath)
	assert.Equal(t, "test@example.com", gotMailto)

	assert.Equal(t, "W2741809807", paper.PaperID)
	assert.Equal(t, "The state of OA: a large-scale analysis of the prevalence and impact of Open Access articles", paper.Title)
	assert.Equal(t, "PeerJ", paper.Journal)
	assert.Equal(t, intPtr(2018), paper.PublishYear)
	assert.Equal(t, "2018-02-13", paper.PublishDate)
	assert.Equal(t, []string{"Citation", "Library science"}, paper.Keywords)
	assert.Equal(t, "Despite growing interest in Open Access", paper.Abstract)
	assert.Equal(t, intPtr(742), paper.Citations)
	assert.Equal(t, []string{"W1491283306", "W1965162131"}, paper.References)
	assert.Equal(t, "https://doi.org/10.7717/peerj.4375", paper.DOI)
	assert.Equal(t, "https://openalex.org/W2741809807", paper.URL)
	assert.Equal(t, "6", paper.Volume)
	assert.Empty(t, paper.Issue)
	assert.Equal(t, "e4375", paper.Pages)
	assert.Equal(t, []string{"Alfred P. Sloan Foundation"}, paper.Funding)
	assert.Equal(t, []string{"scientometrics and bibliometrics research"}, paper.Fields)
	assert.Equal(t, domain.SourceTypeOpenAlex, paper.Source)
	assert.JSONEq(t, string(fixture), string(paper.Raw))

	require.Len(t, paper.Authors, 2)
	assert.Equal(t, domain.Author{
		AuthorID:    "A5023888391",
		Name:        "Heather Piwowar",
		Affiliation: "Impactstory",
		ORCID:       "0000-0003-1613-5981",
		Source:      domain.SourceTypeOpenAlex,
	}, paper.Authors[0])
	assert.Empty(t, paper.Authors[1].Affiliation)
}

func TestGetPaperByID_DOILookup(t *testing.T) {
	var gotPath string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write(loadFixture(t, "work.json"))
	})

	_, err := c.GetPaperByID(context.Background(), "https://doi.org/10.7717/peerj.4375")
	require.NoError(t, err)
	assert.Equal(t, "/works/doi:10.7717/peerj.4375", gotPath)
}

func TestGetPaperByID_NotFound(t *testing.T) {
	t.Run("404", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})

		paper, err := c.GetPaperByID(context.Background(), "W404")
		require.NoError(t, err)
		assert.Nil(t, paper)
	})

	t.Run("empty object", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{}`))
		})

		paper, err := c.GetPaperByID(context.Background(), "W404")
		require.NoError(t, err)
		assert.Nil(t, paper)
	})
}

func TestGetPaperByID_RateLimitedThenSuccess(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write(loadFixture(t, "work.json"))
	})

	paper, err := c.GetPaperByID(context.Background(), "W2741809807")
	require.NoError(t, err)
	require.NotNil(t, paper)
	assert.Equal(t, int32(2), calls.Load())
}

func TestGetPaperByID_ServerErrorExhausted(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := c.GetPaperByID(context.Background(), "W1")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrRequestFailed)

	var apiErr *domain.ExternalAPIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)
	assert.Equal(t, int32(3), calls.Load())
}

func TestSearchPapers(t *testing.T) {
	fixture := loadFixture(t, "works.json")

	var gotQuery map[string]string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/works", r.URL.Path)
		q := r.URL.Query()
		gotQuery = map[string]string{
			"search":   q.Get("search"),
			"per-page": q.Get("per-page"),
			"page":     q.Get("page"),
			"filter":   q.Get("filter"),
		}
		_, _ = w.Write(fixture)
	})

	papers, err := c.SearchPapers(context.Background(), papersources.SearchParams{
		Keyword:   "open access",
		StartYear: intPtr(2018),
		EndYear:   intPtr(2021),
		Page:      3,
		PageSize:  500,
	})
	require.NoError(t, err)

	assert.Equal(t, "open access", gotQuery["search"])
	assert.Equal(t, "200", gotQuery["per-page"])
	assert.Equal(t, "3", gotQuery["page"])
	assert.Equal(t, "publication_year:2018-2021", gotQuery["filter"])

	// W3 has no title and is skipped.
	require.Len(t, papers, 2)

	assert.Equal(t, "W1", papers[0].PaperID)
	assert.Equal(t, "Legacy Venue", papers[0].Journal)
	assert.Equal(t, intPtr(2020), papers[0].PublishYear)
	assert.Equal(t, "The quick  fox", papers[0].Abstract)

	assert.Equal(t, "W2", papers[1].PaperID)
	assert.Equal(t, "Plain abstract.", papers[1].Abstract)
	assert.Equal(t, []string{}, papers[1].Keywords)
	assert.Equal(t, []string{}, papers[1].References)
}

func TestSearchYearFilter(t *testing.T) {
	assert.Equal(t, "publication_year:2018-2020", searchYearFilter(intPtr(2018), intPtr(2020)))
	assert.Equal(t, "publication_year:2018-", searchYearFilter(intPtr(2018), nil))
	assert.Equal(t, "publication_year:-2020", searchYearFilter(nil, intPtr(2020)))
	assert.Equal(t, "", searchYearFilter(nil, nil))

	assert.Equal(t, "publication_year:>=2018", authorYearFilter(intPtr(2018), nil))
	assert.Equal(t, "publication_year:<=2020", authorYearFilter(nil, intPtr(2020)))
	assert.Equal(t, "publication_year:2018-2020", authorYearFilter(intPtr(2018), intPtr(2020)))
}

// worksPage renders a /works page with ids offset+1..offset+n and the given
// meta.count.
func worksPage(t *testing.T, offset, n, count int) []byte {
	t.Helper()
	results := make([]map[string]interface{}, 0, n)
	for i := 1; i <= n; i++ {
		id := offset + i
		results = append(results, map[string]interface{}{
			"id":           "https://openalex.org/W" + strconv.Itoa(id),
			"display_name": "Work " + strconv.Itoa(id),
		})
	}
	data, err := json.Marshal(map[string]interface{}{
		"meta":    map[string]int{"count": count},
		"results": results,
	})
	require.NoError(t, err)
	return data
}

func TestGetAuthorPapers_PaginatesToLimit(t *testing.T) {
	var pages []string
	var perPage string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "author.id:A1,publication_year:>=2019", q.Get("filter"))
		pages = append(pages, q.Get("page"))
		perPage = q.Get("per-page")

		page, _ := strconv.Atoi(q.Get("page"))
		_, _ = w.Write(worksPage(t, (page-1)*200, 200, 1000))
	})

	papers, err := c.GetAuthorPapers(context.Background(), papersources.AuthorPapersParams{
		AuthorID:  "https://openalex.org/A1",
		StartYear: intPtr(2019),
		Limit:     250,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"1", "2"}, pages)
	assert.Equal(t, "200", perPage)
	require.Len(t, papers, 250)
	assert.Equal(t, "W1", papers[0].PaperID)
	assert.Equal(t, "W250", papers[249].PaperID)
}

func TestGetAuthorPapers_StopsAtCount(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write(worksPage(t, 0, 3, 3))
	})

	papers, err := c.GetAuthorPapers(context.Background(), papersources.AuthorPapersParams{AuthorID: "A1"})
	require.NoError(t, err)
	assert.Len(t, papers, 3)
	assert.Equal(t, int32(1), calls.Load())
}

func TestGetAuthorPapers_EmptyID(t *testing.T) {
	c := New(Config{}, papersources.Deps{Logger: zerolog.Nop()})
	_, err := c.GetAuthorPapers(context.Background(), papersources.AuthorPapersParams{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestGetCitationRelations(t *testing.T) {
	work := loadFixture(t, "work.json")
	var citesFilter, citesPerPage string

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/works/W2741809807":
			_, _ = w.Write(work)
		case "/works":
			citesFilter = r.URL.Query().Get("filter")
			citesPerPage = r.URL.Query().Get("per-page")
			_, _ = w.Write(worksPage(t, 10, 2, 2))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	})

	rel, err := c.GetCitationRelations(context.Background(), "https://openalex.org/W2741809807", 1)
	require.NoError(t, err)

	assert.Equal(t, "cites:W2741809807", citesFilter)
	assert.Equal(t, "100", citesPerPage)
	assert.Equal(t, "W2741809807", rel.PaperID)
	assert.Equal(t, []string{"W1491283306", "W1965162131"}, rel.References)
	assert.Equal(t, []string{"W11", "W12"}, rel.Citations)
	assert.Len(t, rel.CitationPapers, 2)
	assert.Equal(t, 2, rel.CitationCount)
}

func TestGetCitationRelations_MissingPaper(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := c.GetCitationRelations(context.Background(), "W404", 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGetAuthorInfo(t *testing.T) {
	fixture := loadFixture(t, "author.json")
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/authors/A5023888391", r.URL.Path)
		_, _ = w.Write(fixture)
	})

	author, err := c.GetAuthorInfo(context.Background(), "https://openalex.org/A5023888391")
	require.NoError(t, err)
	require.NotNil(t, author)

	assert.Equal(t, "A5023888391", author.AuthorID)
	assert.Equal(t, "Heather Piwowar", author.Name)
	assert.Equal(t, "OurResearch", author.Affiliation)
	assert.Equal(t, intPtr(19), author.HIndex)
	assert.Equal(t, intPtr(4821), author.Citations)
	assert.Equal(t, intPtr(56), author.Publications)
	assert.Equal(t, "0000-0003-1613-5981", author.ORCID)
	assert.Equal(t, []string{"Computer science", "Library science", "World Wide Web", "Citation", "Political science"}, author.Fields)
}

func TestParseAuthor_LastKnownInstitutionPreferred(t *testing.T) {
	author := ParseAuthor(&AuthorRecord{
		ID:                    "A1",
		DisplayName:           "N",
		LastKnownInstitution:  &Institution{DisplayName: "Legacy"},
		LastKnownInstitutions: []Institution{{DisplayName: "Current"}},
	})
	assert.Equal(t, "Legacy", author.Affiliation)
	assert.Equal(t, []string{}, author.Fields)
}

func TestGetJournalInfo(t *testing.T) {
	fixture := loadFixture(t, "source.json")
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sources/S1983995261", r.URL.Path)
		_, _ = w.Write(fixture)
	})

	journal, err := c.GetJournalInfo(context.Background(), "S1983995261")
	require.NoError(t, err)
	require.NotNil(t, journal)

	assert.Equal(t, "S1983995261", journal.JournalID)
	assert.Equal(t, "PeerJ", journal.Name)
	assert.Equal(t, "2167-8359", journal.ISSN)
	assert.Equal(t, "PeerJ, Inc.", journal.Publisher)
	require.NotNil(t, journal.CiteScore)
	assert.InDelta(t, 2.38, *journal.CiteScore, 1e-9)
	assert.Nil(t, journal.ImpactFactor)
	assert.Equal(t, []string{"Biology", "Medicine"}, journal.Fields)
}

func TestGetJournalInfo_NotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	journal, err := c.GetJournalInfo(context.Background(), "S0")
	require.NoError(t, err)
	assert.Nil(t, journal)
}

func TestLookups_NotFound(t *testing.T) {
	responses := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"404", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}},
		{"empty object", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{}`))
		}},
	}

	for _, resp := range responses {
		t.Run("author/"+resp.name, func(t *testing.T) {
			c := newTestClient(t, resp.handler)
			author, err := c.GetAuthorInfo(context.Background(), "A404")
			require.NoError(t, err)
			assert.Nil(t, author)
		})

		t.Run("journal/"+resp.name, func(t *testing.T) {
			c := newTestClient(t, resp.handler)
			journal, err := c.GetJournalInfo(context.Background(), "S404")
			require.NoError(t, err)
			assert.Nil(t, journal)
		})
	}
}

func TestReconstructAbstract(t *testing.T) {
	tests := []struct {
		name     string
		index    map[string][]int
		expected string
	}{
		{"nil", nil, ""},
		{"in order", map[string][]int{"a": {0}, "b": {1}}, "a b"},
		{"repeated word", map[string][]int{"the": {0, 2}, "cat": {1}, "sat": {3}}, "the cat the sat"},
		{"gap", map[string][]int{"The": {0}, "quick": {1}, "fox": {3}}, "The quick  fox"},
		{"too large", map[string][]int{"x": {maxAbstractWords}}, ""},
		{"negative position ignored", map[string][]int{"x": {-1, 0}}, "x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ReconstructAbstract(tt.index))
		})
	}
}

func TestParseWork(t *testing.T) {
	t.Run("year from date", func(t *testing.T) {
		paper, err := ParseWork(json.RawMessage(`{"id": "W1", "title": "T", "publication_date": "1999-12-31"}`))
		require.NoError(t, err)
		assert.Equal(t, intPtr(1999), paper.PublishYear)
		assert.Equal(t, "T", paper.Title)
	})

	t.Run("keywords fall back to keyword entities", func(t *testing.T) {
		paper, err := ParseWork(json.RawMessage(`{"id": "W1", "display_name": "T", "keywords": [{"display_name": "graphs"}]}`))
		require.NoError(t, err)
		assert.Equal(t, []string{"graphs"}, paper.Keywords)
	})

	t.Run("page range", func(t *testing.T) {
		paper, err := ParseWork(json.RawMessage(`{"id": "W1", "display_name": "T", "biblio": {"first_page": "10", "last_page": "19"}}`))
		require.NoError(t, err)
		assert.Equal(t, "10-19", paper.Pages)
	})

	t.Run("wrong field types degrade", func(t *testing.T) {
		paper, err := ParseWork(json.RawMessage(`{"id": "W1", "display_name": "T", "cited_by_count": "many", "concepts": {}}`))
		require.NoError(t, err)
		assert.Nil(t, paper.Citations)
		assert.Empty(t, paper.Keywords)
	})

	t.Run("invalid", func(t *testing.T) {
		_, err := ParseWork(json.RawMessage(`{"id": "W1"}`))
		assert.ErrorIs(t, err, domain.ErrInvalidData)
		assert.NotErrorIs(t, err, domain.ErrInvalidInput)
		var de *domain.DataError
		require.True(t, errors.As(err, &de))
		var ve *domain.ValidationError
		require.True(t, errors.As(de.Cause, &ve))
		assert.Equal(t, "title", ve.Field)

		_, err = ParseWork(json.RawMessage(`not json`))
		assert.ErrorIs(t, err, domain.ErrInvalidData)
		require.True(t, errors.As(err, &de))
		assert.Equal(t, sourceName, de.Source)
	})
}

func TestParsePaper_MatchesParseWork(t *testing.T) {
	c := New(Config{}, papersources.Deps{Logger: zerolog.Nop()})
	raw := loadFixture(t, "work.json")

	viaClient, err := c.ParsePaper(raw)
	require.NoError(t, err)
	direct, err := ParseWork(raw)
	require.NoError(t, err)
	assert.Equal(t, direct, viaClient)
}
