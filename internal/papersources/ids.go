package papersources

import "strings"

// LastPathSegment returns the part of s after the final "/". Bare identifiers
// are returned unchanged, so applying it twice is the same as applying it once.
func LastPathSegment(s string) string {
	s = strings.TrimRight(strings.TrimSpace(s), "/")
	if i := strings.LastIndex(s, "/"); i >= 0 {
		return s[i+1:]
	}
	return s
}

// StripPrefixes removes the first matching prefix, compared case-insensitively.
func StripPrefixes(s string, prefixes ...string) string {
	s = strings.TrimSpace(s)
	lower := strings.ToLower(s)
	for _, p := range prefixes {
		if strings.HasPrefix(lower, strings.ToLower(p)) {
			return s[len(p):]
		}
	}
	return s
}

// IsDOI reports whether id looks like a DOI, bare or resolver qualified.
func IsDOI(id string) bool {
	id = strings.ToLower(strings.TrimSpace(id))
	return strings.HasPrefix(id, "10.") ||
		strings.HasPrefix(id, "doi:") ||
		strings.Contains(id, "doi.org/")
}

// BareDOI strips resolver URLs and the "doi:" scheme from a DOI.
func BareDOI(id string) string {
	id = strings.TrimSpace(id)
	lower := strings.ToLower(id)
	if i := strings.Index(lower, "doi.org/"); i >= 0 {
		return id[i+len("doi.org/"):]
	}
	return StripPrefixes(id, "doi:")
}

// ParseYear returns the leading four-digit year of a date such as
// "2021-03-04", or nil when the input does not start with four digits.
func ParseYear(date string) *int {
	date = strings.TrimSpace(date)
	if len(date) < 4 {
		return nil
	}
	year := 0
	for _, r := range date[:4] {
		if r < '0' || r > '9' {
			return nil
		}
		year = year*10 + int(r-'0')
	}
	return &year
}

// YearFrom prefers a dedicated year field and falls back to the date prefix.
func YearFrom(year *int, date string) *int {
	if year != nil && *year > 0 {
		y := *year
		return &y
	}
	return ParseYear(date)
}

// ClampPageSize bounds size to [1, limit]. A non-positive limit leaves the
// upper bound open.
func ClampPageSize(size, limit int) int {
	if size < 1 {
		return 1
	}
	if limit > 0 && size > limit {
		return limit
	}
	return size
}

// FirstNonEmpty returns the first argument that is not blank.
func FirstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
