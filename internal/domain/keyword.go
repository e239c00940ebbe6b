package domain

import "strings"

// NormalizeKeyword is the comparison form of a keyword or subject term:
// lowercase with whitespace runs collapsed to single spaces. Provider
// spellings such as "Machine  Learning" and "machine learning" compare equal.
func NormalizeKeyword(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
