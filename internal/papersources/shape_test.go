package papersources

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type affiliation struct {
	Name FlexString `json:"affilname"`
}

func TestOneOrMany(t *testing.T) {
	type holder struct {
		Affiliation OneOrMany[affiliation] `json:"affiliation"`
	}

	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{name: "single object", input: `{"affiliation":{"affilname":"MIT"}}`, expected: []string{"MIT"}},
		{name: "array", input: `{"affiliation":[{"affilname":"MIT"},{"affilname":"CMU"}]}`, expected: []string{"MIT", "CMU"}},
		{name: "null", input: `{"affiliation":null}`, expected: nil},
		{name: "absent", input: `{}`, expected: nil},
		{name: "scalar degrades to empty", input: `{"affiliation":"MIT"}`, expected: nil},
		{name: "mixed array keeps decodable members", input: `{"affiliation":[{"affilname":"MIT"},"junk"]}`, expected: []string{"MIT"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var h holder
			require.NoError(t, json.Unmarshal([]byte(tt.input), &h))

			var names []string
			for _, a := range h.Affiliation.Items() {
				names = append(names, a.Name.String())
			}
			assert.Equal(t, tt.expected, names)
		})
	}
}

func TestOneOrMany_First(t *testing.T) {
	var o OneOrMany[affiliation]
	_, ok := o.First()
	assert.False(t, ok)

	require.NoError(t, json.Unmarshal([]byte(`{"affilname":"ETH"}`), &o))
	first, ok := o.First()
	require.True(t, ok)
	assert.Equal(t, "ETH", first.Name.String())
}

func TestFlexString(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{`"plain"`, "plain"},
		{`42`, "42"},
		{`3.5`, "3.5"},
		{`{"$":"wrapped"}`, "wrapped"},
		{`{"$":17}`, "17"},
		{`{"@_fa":"true"}`, ""},
		{`null`, ""},
		{`true`, ""},
		{`["a"]`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var s FlexString
			require.NoError(t, json.Unmarshal([]byte(tt.input), &s))
			assert.Equal(t, tt.expected, s.String())
		})
	}
}

func TestFlexInt(t *testing.T) {
	tests := []struct {
		input    string
		expected *int
	}{
		{`12`, intPtr(12)},
		{`"34"`, intPtr(34)},
		{`" 7 "`, intPtr(7)},
		{`12.0`, intPtr(12)},
		{`12.5`, nil},
		{`"n/a"`, nil},
		{`null`, nil},
		{`{"$":"9"}`, intPtr(9)},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var i FlexInt
			require.NoError(t, json.Unmarshal([]byte(tt.input), &i))
			assert.Equal(t, tt.expected, i.Ptr())
		})
	}
}

func TestKeywords(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{name: "delimited string", input: `"machine learning | graphs |  | NLP"`, expected: []string{"machine learning", "graphs", "NLP"}},
		{name: "object with list", input: `{"author-keyword":[{"$":"deep learning"},{"$":"vision"}]}`, expected: []string{"deep learning", "vision"}},
		{name: "object with single", input: `{"author-keyword":{"$":"genomics"}}`, expected: []string{"genomics"}},
		{name: "list of strings", input: `["a", " b "]`, expected: []string{"a", "b"}},
		{name: "null", input: `null`, expected: nil},
		{name: "number", input: `5`, expected: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var k Keywords
			require.NoError(t, json.Unmarshal([]byte(tt.input), &k))
			assert.Equal(t, tt.expected, []string(k))
		})
	}
}

func intPtr(v int) *int {
	return &v
}

func TestDecodeLenient(t *testing.T) {
	var v struct {
		Title string `json:"title"`
		Count int    `json:"count"`
	}

	require.NoError(t, DecodeLenient([]byte(`{"title":"kept","count":"not a number"}`), &v))
	assert.Equal(t, "kept", v.Title)
	assert.Equal(t, 0, v.Count)

	assert.Error(t, DecodeLenient([]byte(`{"title":`), &v))
}
