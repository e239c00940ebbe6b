package papersources

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
)

// OneOrMany decodes a JSON value that a provider sends either as a single
// object or as an array of objects. null, an absent field and any other shape
// decode to an empty list; decoding never fails.
type OneOrMany[T any] []T

// UnmarshalJSON implements json.Unmarshaler.
func (o *OneOrMany[T]) UnmarshalJSON(data []byte) error {
	*o = nil

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil
	}

	switch trimmed[0] {
	case '[':
		var items []T
		if err := json.Unmarshal(trimmed, &items); err != nil {
			// Arrays with heterogeneous members keep the members that decode.
			var raw []json.RawMessage
			if json.Unmarshal(trimmed, &raw) != nil {
				return nil
			}
			items = items[:0]
			for _, r := range raw {
				var item T
				if json.Unmarshal(r, &item) == nil {
					items = append(items, item)
				}
			}
		}
		*o = items
	case '{':
		var item T
		if err := json.Unmarshal(trimmed, &item); err == nil {
			*o = OneOrMany[T]{item}
		}
	}
	return nil
}

// Items returns the decoded values as a plain slice.
func (o OneOrMany[T]) Items() []T {
	return []T(o)
}

// First returns the first element and whether one exists.
func (o OneOrMany[T]) First() (T, bool) {
	if len(o) == 0 {
		var zero T
		return zero, false
	}
	return o[0], true
}

// FlexString decodes a value that may be a string, a number, an Elsevier
// {"$": "..."} wrapper or null.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler.
func (s *FlexString) UnmarshalJSON(data []byte) error {
	*s = ""

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil
	}

	switch trimmed[0] {
	case '"':
		var v string
		if json.Unmarshal(trimmed, &v) == nil {
			*s = FlexString(v)
		}
	case '{':
		var wrapped struct {
			Value json.RawMessage `json:"$"`
		}
		if json.Unmarshal(trimmed, &wrapped) == nil && len(wrapped.Value) > 0 {
			return s.UnmarshalJSON(wrapped.Value)
		}
	case 'n', 't', 'f', '[':
		// null, booleans and arrays carry no usable text
	default:
		var n json.Number
		if json.Unmarshal(trimmed, &n) == nil {
			*s = FlexString(n.String())
		}
	}
	return nil
}

// String returns the decoded text.
func (s FlexString) String() string {
	return string(s)
}

// Trimmed returns the decoded text without surrounding whitespace.
func (s FlexString) Trimmed() string {
	return strings.TrimSpace(string(s))
}

// FlexInt decodes an integer sent either as a JSON number or as a numeric
// string. Anything unparsable decodes to nil.
type FlexInt struct {
	Value *int
}

// UnmarshalJSON implements json.Unmarshaler.
func (i *FlexInt) UnmarshalJSON(data []byte) error {
	i.Value = nil

	var s FlexString
	_ = s.UnmarshalJSON(data)
	i.Value = AtoiPtr(s.String())
	return nil
}

// Ptr returns the parsed value or nil.
func (i FlexInt) Ptr() *int {
	return i.Value
}

// AtoiPtr parses s as an integer, accepting a decimal representation of a
// whole number. Empty or malformed input yields nil.
func AtoiPtr(s string) *int {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		return &n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f == float64(int(f)) {
		n := int(f)
		return &n
	}
	return nil
}

// Keywords decodes the author-keyword field of Elsevier records, which comes
// as a " | " delimited string, as an object holding "author-keyword" entries,
// or as a plain list of strings or {"$"} wrappers.
type Keywords []string

// UnmarshalJSON implements json.Unmarshaler.
func (k *Keywords) UnmarshalJSON(data []byte) error {
	*k = nil

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil
	}

	switch trimmed[0] {
	case '"':
		var v string
		if json.Unmarshal(trimmed, &v) == nil {
			*k = SplitKeywords(v)
		}
	case '{':
		var wrapped struct {
			AuthorKeyword OneOrMany[FlexString] `json:"author-keyword"`
		}
		if json.Unmarshal(trimmed, &wrapped) == nil {
			*k = collectKeywords(wrapped.AuthorKeyword)
		}
	case '[':
		var items OneOrMany[FlexString]
		if json.Unmarshal(trimmed, &items) == nil {
			*k = collectKeywords(items)
		}
	}
	return nil
}

// SplitKeywords splits a "|" delimited keyword string, trimming each entry and
// dropping empty ones.
func SplitKeywords(s string) []string {
	var out []string
	for _, part := range strings.Split(s, "|") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func collectKeywords(items []FlexString) []string {
	var out []string
	for _, item := range items {
		if v := item.Trimmed(); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// DecodeLenient unmarshals data into v, tolerating fields of unexpected type.
// encoding/json keeps decoding past a type mismatch, so v holds everything
// that did match. Only malformed JSON is reported.
func DecodeLenient(data []byte, v any) error {
	err := json.Unmarshal(data, v)
	var typeErr *json.UnmarshalTypeError
	if err != nil && !errors.As(err, &typeErr) {
		return err
	}
	return nil
}
