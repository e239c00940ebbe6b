package cleaning

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var quoteReplacer = strings.NewReplacer(
	"\u2018", "'", "\u2019", "'", "\u201a", "'", "\u201b", "'", "\u2032", "'",
	"\u201c", `"`, "\u201d", `"`, "\u201e", `"`, "\u201f", `"`, "\u2033", `"`,
	"\u00ab", `"`, "\u00bb", `"`,
)

// NormalizeText returns s in NFC form with ASCII quotes, control characters
// removed, and runs of whitespace collapsed to a single space.
func NormalizeText(s string) string {
	if s == "" {
		return ""
	}
	s = quoteReplacer.Replace(norm.NFC.String(s))

	var sb strings.Builder
	sb.Grow(len(s))
	pendingSpace := false
	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
			pendingSpace = true
		case unicode.IsControl(r), r == unicode.ReplacementChar, r == '\u200b', r == '\ufeff':
		default:
			if pendingSpace && sb.Len() > 0 {
				sb.WriteByte(' ')
			}
			pendingSpace = false
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// TitleKey reduces a title to a comparison key: accents folded, lowercase,
// letters and digits only, single spaces.
func TitleKey(title string) string {
	title = strings.ToLower(foldAccents(NormalizeText(title)))
	fields := strings.FieldsFunc(title, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return strings.Join(fields, " ")
}

// foldAccents strips combining marks, so "Gödel" and "Godel" compare equal.
func foldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
