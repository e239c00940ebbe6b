package cleaning

import (
	"strings"
	"unicode"

	"github.com/helixir/scholar-gateway/internal/domain"
)

// Match weights returned by nameSimilarity.
const (
	scoreExact       = 1.0
	scoreInitial     = 0.9
	scoreFamilyOnly  = 0.7
	scoreFamilyClash = 0.3
)

// AuthorOverlap scores how much two author lists agree, between 0 and 1.
// Each name of the shorter list is greedily paired with its most similar
// unpaired name in the longer list; the summed pair scores are divided by
// the size of the union. The score is symmetric and 0 when either list is
// empty.
func AuthorOverlap(a, b []domain.Author) float64 {
	left, right := authorNames(a), authorNames(b)
	if len(left) == 0 || len(right) == 0 {
		return 0
	}
	if len(left) > len(right) {
		left, right = right, left
	}

	taken := make([]bool, len(right))
	var total float64
	pairs := 0
	for _, name := range left {
		best, bestIdx := 0.0, -1
		for j, candidate := range right {
			if taken[j] {
				continue
			}
			if s := nameSimilarity(name, candidate); s > best {
				best, bestIdx = s, j
			}
		}
		if bestIdx < 0 {
			continue
		}
		taken[bestIdx] = true
		total += best
		pairs++
	}

	union := len(left) + len(right) - pairs
	if union <= 0 {
		return 0
	}
	return total / float64(union)
}

// NormalizeName reduces an author name to lowercase letters separated by
// single spaces, folding accents and rewriting "Family, Given" as
// "Given Family".
func NormalizeName(name string) string {
	name = strings.ToLower(foldAccents(strings.TrimSpace(name)))
	if family, given, ok := strings.Cut(name, ","); ok {
		name = strings.TrimSpace(given) + " " + strings.TrimSpace(family)
	}

	var sb strings.Builder
	sb.Grow(len(name))
	for _, r := range name {
		switch {
		case unicode.IsLetter(r):
			sb.WriteRune(r)
		case unicode.IsSpace(r) || r == '-' || r == '.':
			sb.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(sb.String()), " ")
}

// nameSimilarity compares two normalized names by family name (the last
// token) and then by given names.
func nameSimilarity(a, b string) float64 {
	pa, pb := strings.Fields(a), strings.Fields(b)
	if len(pa) == 0 || len(pb) == 0 {
		return 0
	}
	if pa[len(pa)-1] != pb[len(pb)-1] {
		return 0
	}

	givenA, givenB := pa[:len(pa)-1], pb[:len(pb)-1]
	switch {
	case len(givenA) == 0 || len(givenB) == 0:
		return scoreFamilyOnly
	case strings.Join(givenA, " ") == strings.Join(givenB, " "):
		return scoreExact
	case initialOf(givenA[0], givenB[0]) || initialOf(givenB[0], givenA[0]):
		return scoreInitial
	default:
		return scoreFamilyClash
	}
}

// initialOf reports whether short is the one-letter initial of long.
func initialOf(short, long string) bool {
	sr, lr := []rune(short), []rune(long)
	return len(sr) == 1 && len(lr) > 1 && sr[0] == lr[0]
}

func authorNames(authors []domain.Author) []string {
	names := make([]string, 0, len(authors))
	for _, a := range authors {
		if n := NormalizeName(a.Name); n != "" {
			names = append(names, n)
		}
	}
	return names
}
