package elsevier

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/scholar-gateway/internal/papersources"
)

func intPtr(v int) *int {
	return &v
}

func TestNormalizeEID(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"85012345678", "2-s2.0-85012345678"},
		{"2-s2.0-85012345678", "2-s2.0-85012345678"},
		{"eid:2-s2.0-85012345678", "2-s2.0-85012345678"},
		{"SCOPUS_ID:85012345678", "2-s2.0-85012345678"},
		{"scopus_id:85012345678", "2-s2.0-85012345678"},
		{"https://api.elsevier.com/content/abstract/scopus_id/85012345678", "2-s2.0-85012345678"},
		{"https://api.elsevier.com/content/abstract/eid/2-s2.0-85012345678", "2-s2.0-85012345678"},
		{"1-s2.0-S0140673620301835", "1-s2.0-S0140673620301835"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := NormalizeEID(tt.input)
			assert.Equal(t, tt.expected, got)
			assert.Equal(t, got, NormalizeEID(got))
		})
	}
}

func TestYearClause(t *testing.T) {
	assert.Equal(t, "PUBYEAR > 2017 AND PUBYEAR < 2021", YearClause(intPtr(2018), intPtr(2020)))
	assert.Equal(t, "PUBYEAR > 2017", YearClause(intPtr(2018), nil))
	assert.Equal(t, "PUBYEAR < 2021", YearClause(nil, intPtr(2020)))
	assert.Equal(t, "", YearClause(nil, nil))

	assert.Equal(t, "graphs AND PUBYEAR > 2017", Query("graphs", intPtr(2018), nil))
	assert.Equal(t, "graphs", Query("graphs", nil, nil))
}

func TestStartOffset(t *testing.T) {
	assert.Equal(t, 0, StartOffset(1, 25))
	assert.Equal(t, 50, StartOffset(3, 25))
	assert.Equal(t, 0, StartOffset(0, 25))
}

func TestExecutorConfig(t *testing.T) {
	cfg := ExecutorConfig("scopus", "", "key")
	assert.Equal(t, DefaultBaseURL, cfg.BaseURL)
	assert.Equal(t, "X-ELS-APIKey", cfg.APIKeyHeader)
	assert.Equal(t, "key", cfg.APIKey)
	assert.Equal(t, papersources.RateLimitSurface, cfg.RateLimitPolicy)
	assert.Equal(t, "X-RateLimit-Reset", cfg.RateLimitHeader)
}

func TestHref(t *testing.T) {
	var single Links
	require.NoError(t, json.Unmarshal([]byte(`{"@rel":"self","@href":"https://a"}`), &single))
	assert.Equal(t, "https://a", Href(single, "scopus"))

	var list Links
	require.NoError(t, json.Unmarshal([]byte(`[
		{"@rel":"self","@href":"https://self"},
		{"@rel":"scopus","@href":"https://scopus"}
	]`), &list))
	assert.Equal(t, "https://scopus", Href(list, "scopus"))
	assert.Equal(t, "https://self", Href(list, ""))
	assert.Equal(t, "", Href(nil, "scopus"))

	var searchLinks Links
	require.NoError(t, json.Unmarshal([]byte(`[
		{"@_fa":"true","@ref":"self","@href":"https://self"},
		{"@_fa":"true","@ref":"scopus","@href":"https://record"}
	]`), &searchLinks))
	assert.Equal(t, "https://record", Href(searchLinks, "scopus"))
}

func TestSearchResponse_Decode(t *testing.T) {
	payload := `{
		"search-results": {
			"opensearch:totalResults": "1234",
			"opensearch:startIndex": "0",
			"opensearch:itemsPerPage": "2",
			"entry": [
				{
					"eid": "2-s2.0-1",
					"dc:title": "First",
					"citedby-count": "17",
					"prism:coverDate": "2019-05-01",
					"author": [{"authid": "A1", "authname": "Doe J."}],
					"affiliation": {"afid": "60000001", "affilname": "MIT"}
				},
				{"error": "Result set was empty"}
			]
		}
	}`

	var resp SearchResponse
	require.NoError(t, json.Unmarshal([]byte(payload), &resp))

	assert.Equal(t, 1234, resp.Results.Total())
	require.Len(t, resp.Results.Entries, 2)

	first := resp.Results.Entries[0]
	assert.Equal(t, "2-s2.0-1", first.EID.String())
	assert.Contains(t, string(first.Raw), `"dc:title": "First"`)
	assert.Equal(t, "First", first.Title.String())
	assert.Equal(t, 17, *first.CitedByCount.Ptr())
	require.Len(t, first.Authors, 1)
	assert.Equal(t, "Doe J.", first.Authors[0].Name())
	assert.Equal(t, map[string]string{"60000001": "MIT"}, AffiliationNames(first.Affiliations))

	assert.Equal(t, "Result set was empty", resp.Results.Entries[1].Error.String())
	assert.Equal(t, -1, SearchResults{}.Total())
}

func TestEntryAuthor_Name(t *testing.T) {
	a := EntryAuthor{GivenName: "Jane", Surname: "Doe"}
	assert.Equal(t, "Jane Doe", a.Name())
}
