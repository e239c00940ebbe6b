package sciencedirect

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
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

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return New(Config{
		BaseURL:    server.URL,
		APIKey:     "test-key",
		RateLimit:  1000,
		RetryDelay: time.Millisecond,
	}, papersources.Deps{Logger: zerolog.Nop()})
}

func TestNew(t *testing.T) {
	c := New(Config{}, papersources.Deps{Logger: zerolog.Nop()})

	assert.Equal(t, domain.SourceTypeScienceDirect, c.SourceType())
	assert.Equal(t, "ScienceDirect", c.Name())
	assert.Equal(t, "https://api.elsevier.com/content", c.config.BaseURL)
	assert.Equal(t, DefaultRateLimit, c.config.RateLimit)
	assert.Equal(t, DefaultRetryDelay, c.config.RetryDelay)
	assert.Equal(t, papersources.RateLimitSurface, c.httpClient.Config().RateLimitPolicy)

	waiting := New(Config{WaitOnRateLimit: true}, papersources.Deps{Logger: zerolog.Nop()})
	assert.Equal(t, papersources.RateLimitWait, waiting.httpClient.Config().RateLimitPolicy)
}

func TestArticleEndpoint(t *testing.T) {
	tests := []struct {
		id       string
		expected string
	}{
		{"10.1016/j.cell.2021.01.002", "article/doi/10.1016/j.cell.2021.01.002"},
		{"doi:10.1016/j.cell.2021.01.002", "article/doi/10.1016/j.cell.2021.01.002"},
		{"https://doi.org/10.1016/j.cell.2021.01.002", "article/doi/10.1016/j.cell.2021.01.002"},
		{"pii:S0140673620301835", "article/pii/S0140673620301835"},
		{"S0140673620301835", "article/pii/S0140673620301835"},
		{"2-s2.0-85012345678", "article/eid/2-s2.0-85012345678"},
		{"85012345678", "article/eid/2-s2.0-85012345678"},
		{"1-s2.0-S0140673620301835", "article/eid/1-s2.0-S0140673620301835"},
		{"https://www.sciencedirect.com/science/article/pii/S0140673620301835", "article/pii/S0140673620301835"},
		{"https://www.sciencedirect.com/science/article/pii/S0140673620301835?via%3Dihub", "article/pii/S0140673620301835"},
		{"https://api.elsevier.com/content/article/pii/S0140673620301835", "article/pii/S0140673620301835"},
		{"https://api.elsevier.com/content/article/eid/1-s2.0-S0140673620301835", "article/eid/1-s2.0-S0140673620301835"},
		{"https://api.elsevier.com/content/article/eid/2-s2.0-85012345678/", "article/eid/2-s2.0-85012345678"},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			endpoint, err := articleEndpoint(tt.id)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, endpoint)
		})
	}

	_, err := articleEndpoint("  ")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = articleEndpoint("https://www.sciencedirect.com/")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestArticleEndpoint_URLFormsMatchBareID(t *testing.T) {
	bare, err := articleEndpoint("S0140673620301835")
	require.NoError(t, err)

	for _, id := range []string{
		"pii:S0140673620301835",
		"https://www.sciencedirect.com/science/article/pii/S0140673620301835",
		"https://api.elsevier.com/content/article/pii/S0140673620301835",
	} {
		got, err := articleEndpoint(id)
		require.NoError(t, err, id)
		assert.Equal(t, bare, got, id)
	}
}

func TestGetPaperByID(t *testing.T) {
	fixture := loadFixture(t, "article.json")

	var gotPath, gotAccept, gotKey string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAccept = r.URL.Query().Get("httpAccept")
		gotKey = r.Header.Get("X-ELS-APIKey")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(fixture)
	})

	paper, err := c.GetPaperByID(context.Background(), "S0140673620301835")
	require.NoError(t, err)
	require.NotNil(t, paper)

	assert.Equal(t, "/article/pii/S0140673620301835", gotPath)
	assert.Equal(t, "application/json", gotAccept)
	assert.Equal(t, "test-key", gotKey)

	assert.Equal(t, "1-s2.0-S0140673620301835", paper.PaperID)
	assert.Equal(t, "The Lancet", paper.Journal)
	assert.Equal(t, 2020, *paper.PublishYear)
	assert.Equal(t, "10.1016/S0140-6736(20)30183-5", paper.DOI)
	assert.Equal(t, "https://www.sciencedirect.com/science/article/pii/S0140673620301835", paper.URL)
	assert.Equal(t, "497-506", paper.Pages)
	assert.Equal(t, []string{"Medicine (all)"}, paper.Keywords)
	assert.Equal(t, []string{"Chaolin Huang", "Yeming Wang"}, paper.AuthorNames())
	assert.Equal(t, "au1", paper.Authors[0].AuthorID)
	assert.Equal(t,
		"Background A cluster of pneumonia cases was reported. Findings 41 patients were admitted.",
		paper.Abstract)
	assert.Nil(t, paper.Citations)
	assert.Equal(t, domain.SourceTypeScienceDirect, paper.Source)
}

func TestGetPaperByID_DOIRoute(t *testing.T) {
	var gotPath string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write(loadFixture(t, "article.json"))
	})

	_, err := c.GetPaperByID(context.Background(), "doi:10.1016/S0140-6736(20)30183-5")
	require.NoError(t, err)
	assert.Equal(t, "/article/doi/10.1016/S0140-6736(20)30183-5", gotPath)
}

func TestGetPaperByID_NotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	paper, err := c.GetPaperByID(context.Background(), "S0000000000000000")
	require.NoError(t, err)
	assert.Nil(t, paper)
}

func TestGetPaperByID_EmptyEnvelope(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"full-text-retrieval-response": {}}`))
	})

	paper, err := c.GetPaperByID(context.Background(), "S0000000000000000")
	require.NoError(t, err)
	assert.Nil(t, paper)
}

func TestGetPaperByID_Unauthorized(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := c.GetPaperByID(context.Background(), "S0000000000000000")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.Equal(t, int32(1), calls.Load())
}

func TestParseArticle_AbstractShapes(t *testing.T) {
	tests := []struct {
		name     string
		abstract string
		expected string
	}{
		{"plain string", `"  A plain abstract. "`, "A plain abstract."},
		{"dollar wrapper", `{"$": "Wrapped abstract"}`, "Wrapped abstract"},
		{"single section", `{"abstract-sec": {"simple-para": "Only section"}}`, "Only section"},
		{"null falls back to description", `null`, "Described"},
		{"empty sections fall back to description", `{"abstract-sec": []}`, "Described"},
		{"number", `42`, "42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := `{"coredata": {"eid": "1-s2.0-X", "dc:title": "T", "dc:description": "Described"}, "abstract": ` + tt.abstract + `}`
			paper, err := ParseArticle(json.RawMessage(raw))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, paper.Abstract)
		})
	}
}

func TestParseArticle_CreatorFallback(t *testing.T) {
	raw := `{"coredata": {"dc:identifier": "doi:10.1/abc", "dc:title": "T", "dc:creator": {"$": "Doe, Jane"}}}`

	paper, err := ParseArticle(json.RawMessage(raw))
	require.NoError(t, err)
	assert.Equal(t, "10.1/abc", paper.PaperID)
	assert.Equal(t, []string{"Doe, Jane"}, paper.AuthorNames())
	assert.Empty(t, paper.Authors[0].AuthorID)
	assert.Equal(t, []string{}, paper.Keywords)
}

func TestParseArticle_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		field string
	}{
		{"malformed json", `{"coredata": `, ""},
		{"missing id", `{"coredata": {"dc:title": "T"}}`, "paper_id"},
		{"missing title", `{"coredata": {"eid": "1-s2.0-X"}}`, "title"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseArticle(json.RawMessage(tt.raw))
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrInvalidData)
			assert.NotErrorIs(t, err, domain.ErrInvalidInput)

			var de *domain.DataError
			require.True(t, errors.As(err, &de))
			var ve *domain.ValidationError
			if tt.field == "" {
				assert.False(t, errors.As(de.Cause, &ve), "decode failures carry the decoder error")
				return
			}
			require.True(t, errors.As(de.Cause, &ve))
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestSearchPapers(t *testing.T) {
	fixture := loadFixture(t, "search.json")

	var query map[string]string
	var gotPath string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		query = map[string]string{
			"query":      r.URL.Query().Get("query"),
			"count":      r.URL.Query().Get("count"),
			"start":      r.URL.Query().Get("start"),
			"httpAccept": r.URL.Query().Get("httpAccept"),
		}
		_, _ = w.Write(fixture)
	})

	start, end := 2018, 2021
	papers, err := c.SearchPapers(context.Background(), papersources.SearchParams{
		Keyword:   "graph networks",
		StartYear: &start,
		EndYear:   &end,
		Page:      2,
		PageSize:  500,
	})
	require.NoError(t, err)

	assert.Equal(t, "/search/sciencedirect", gotPath)
	assert.Equal(t, "graph networks AND PUBYEAR > 2017 AND PUBYEAR < 2022", query["query"])
	assert.Equal(t, "100", query["count"])
	assert.Equal(t, "100", query["start"])
	assert.Equal(t, "application/json", query["httpAccept"])

	require.Len(t, papers, 2)
	assert.Equal(t, "1-s2.0-S0893608019301984", papers[0].PaperID)
	assert.Equal(t, "https://www.sciencedirect.com/science/article/pii/S0893608019301984", papers[0].URL)
	assert.Empty(t, papers[0].Authors)
	assert.Equal(t, 2019, *papers[0].PublishYear)
	assert.NotEmpty(t, papers[0].Raw)

	assert.Equal(t, "10.1016/j.cell.2021.01.002", papers[1].PaperID)
	assert.Equal(t, 2021, *papers[1].PublishYear)
}

func TestSearchPapers_ServerError(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := c.SearchPapers(context.Background(), papersources.SearchParams{Keyword: "x"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrRequestFailed)
	assert.Equal(t, int32(3), calls.Load())
}

func TestUnsupportedOperations(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	})
	ctx := context.Background()

	papers, err := c.GetAuthorPapers(ctx, papersources.AuthorPapersParams{AuthorID: "A1"})
	require.NoError(t, err)
	assert.NotNil(t, papers)
	assert.Empty(t, papers)

	rel, err := c.GetCitationRelations(ctx, "S1", 10)
	require.NoError(t, err)
	assert.Equal(t, "S1", rel.PaperID)
	assert.Empty(t, rel.Citations)
	assert.Empty(t, rel.References)

	author, err := c.GetAuthorInfo(ctx, "A1")
	require.NoError(t, err)
	assert.Nil(t, author)

	journal, err := c.GetJournalInfo(ctx, "J1")
	require.NoError(t, err)
	assert.Nil(t, journal)

	assert.Equal(t, int32(0), calls.Load())
}
