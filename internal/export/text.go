package export

import (
	"bufio"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/helixir/scholar-gateway/internal/domain"
)

// markdownCellMax bounds a Markdown cell, in runes.
const markdownCellMax = 50

var markdownColumns = []string{"title", "authors", "journal", "year", "citations", "doi"}

var cellReplacer = strings.NewReplacer("|", `\|`, "\r", " ", "\n", " ")

func markdownCell(s string) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) > markdownCellMax {
		s = string(r[:markdownCellMax-3]) + "..."
	} else {
		s = string(r)
	}
	return cellReplacer.Replace(s)
}

func writeMarkdown(w io.Writer, papers []*domain.Paper, title string) error {
	bw := bufio.NewWriter(w)
	if title != "" {
		fmt.Fprintf(bw, "## %s\n\n", title)
	}

	fmt.Fprintf(bw, "| %s |\n", strings.Join(markdownColumns, " | "))
	sep := make([]string, len(markdownColumns))
	for i := range sep {
		sep[i] = "---"
	}
	fmt.Fprintf(bw, "| %s |\n", strings.Join(sep, " | "))

	for _, p := range papers {
		var year, citations string
		if p.PublishYear != nil {
			year = fmt.Sprint(*p.PublishYear)
		}
		if p.Citations != nil {
			citations = fmt.Sprint(*p.Citations)
		}
		authors := p.AuthorNames()
		if len(authors) > 3 {
			authors = append(authors[:3:3], "et al.")
		}
		cells := []string{
			markdownCell(p.Title),
			markdownCell(strings.Join(authors, ", ")),
			markdownCell(p.Journal),
			year,
			citations,
			markdownCell(p.DOI),
		}
		fmt.Fprintf(bw, "| %s |\n", strings.Join(cells, " | "))
	}
	return bw.Flush()
}

type xmlPapers struct {
	XMLName xml.Name   `xml:"papers"`
	Count   int        `xml:"count,attr"`
	Papers  []xmlPaper `xml:"paper"`
}

type xmlPaper struct {
	ID        string   `xml:"id,attr"`
	Source    string   `xml:"source,attr,omitempty"`
	Title     string   `xml:"title"`
	Authors   []string `xml:"authors>author,omitempty"`
	Journal   string   `xml:"journal,omitempty"`
	Year      *int     `xml:"year,omitempty"`
	Citations *int     `xml:"citations,omitempty"`
	DOI       string   `xml:"doi,omitempty"`
	URL       string   `xml:"url,omitempty"`
	Keywords  []string `xml:"keywords>keyword,omitempty"`
	Abstract  string   `xml:"abstract,omitempty"`
}

func writeXML(w io.Writer, papers []*domain.Paper) error {
	doc := xmlPapers{Count: len(papers), Papers: make([]xmlPaper, 0, len(papers))}
	for _, p := range papers {
		doc.Papers = append(doc.Papers, xmlPaper{
			ID:        p.PaperID,
			Source:    string(p.Source),
			Title:     p.Title,
			Authors:   p.AuthorNames(),
			Journal:   p.Journal,
			Year:      p.PublishYear,
			Citations: p.Citations,
			DOI:       p.DOI,
			URL:       p.URL,
			Keywords:  p.Keywords,
			Abstract:  p.Abstract,
		})
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}
