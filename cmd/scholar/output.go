package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/helixir/scholar-gateway/internal/domain"
)

// Title truncation lengths by context.
const (
	SearchTitleMaxLen = 70
	summaryAuthors    = 3
)

// outputJSON writes a value as formatted JSON to stdout.
func outputJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// output prints v as JSON, or calls human when --human is set.
func output(v interface{}, human func()) error {
	if humanOutput && human != nil {
		human()
		return nil
	}
	return outputJSON(v)
}

// printPaperSummary prints a numbered, multi-line paper summary.
func printPaperSummary(num int, p *domain.Paper) {
	fmt.Printf("[%d] %s\n", num, p.PaperID)
	fmt.Printf("    %s\n", truncateString(p.Title, SearchTitleMaxLen))

	if len(p.Authors) > 0 {
		var names []string
		for i, a := range p.Authors {
			if i >= summaryAuthors {
				names = append(names, "et al.")
				break
			}
			names = append(names, a.Name)
		}
		fmt.Printf("    %s\n", strings.Join(names, ", "))
	}

	var venue []string
	if p.Journal != "" {
		venue = append(venue, p.Journal)
	}
	if p.PublishYear != nil {
		venue = append(venue, fmt.Sprintf("(%d)", *p.PublishYear))
	}
	if p.Citations != nil {
		venue = append(venue, fmt.Sprintf("cited %d", *p.Citations))
	}
	if len(venue) > 0 {
		fmt.Printf("    %s\n", strings.Join(venue, " "))
	}
	if p.DOI != "" {
		fmt.Printf("    doi:%s\n", p.DOI)
	}
	fmt.Println()
}

// printPapers prints a paper list with a header.
func printPapers(papers []*domain.Paper) {
	if len(papers) == 0 {
		fmt.Println("No papers found")
		return
	}
	fmt.Printf("Found %d papers:\n\n", len(papers))
	for i, p := range papers {
		printPaperSummary(i+1, p)
	}
}

// truncateString shortens s to at most n runes with a trailing ellipsis.
func truncateString(s string, n int) string {
	r := []rune(s)
	if len(r) <= n || n <= 3 {
		return s
	}
	return string(r[:n-3]) + "..."
}

// optionalYear returns nil for zero so unset flags are not sent as bounds.
func optionalYear(year int) *int {
	if year == 0 {
		return nil
	}
	return &year
}
