// Package export renders paper lists as downloadable files: JSON, JSON
// Lines, CSV, Excel workbooks, Markdown tables and XML.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/helixir/scholar-gateway/internal/domain"
)

// Format is an output file format.
type Format string

const (
	FormatJSON     Format = "json"
	FormatJSONL    Format = "jsonl"
	FormatCSV      Format = "csv"
	FormatExcel    Format = "xlsx"
	FormatMarkdown Format = "markdown"
	FormatXML      Format = "xml"
)

// Formats lists the supported formats in display order.
func Formats() []Format {
	return []Format{FormatJSON, FormatJSONL, FormatCSV, FormatExcel, FormatMarkdown, FormatXML}
}

var formatAliases = map[string]Format{
	"json":     FormatJSON,
	"jsonl":    FormatJSONL,
	"ndjson":   FormatJSONL,
	"csv":      FormatCSV,
	"xlsx":     FormatExcel,
	"excel":    FormatExcel,
	"markdown": FormatMarkdown,
	"md":       FormatMarkdown,
	"xml":      FormatXML,
}

// ParseFormat resolves a format name or alias, case-insensitively.
func ParseFormat(name string) (Format, error) {
	f, ok := formatAliases[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return "", domain.NewValidationError("format", fmt.Sprintf("unsupported format %q", name))
	}
	return f, nil
}

// FormatFromPath infers the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return "", domain.NewValidationError("format", fmt.Sprintf("cannot infer format from %q", path))
	}
	return ParseFormat(ext)
}

// ContentType returns the MIME type served for f.
func (f Format) ContentType() string {
	switch f {
	case FormatJSON:
		return "application/json"
	case FormatJSONL:
		return "application/x-ndjson"
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatExcel:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatMarkdown:
		return "text/markdown; charset=utf-8"
	case FormatXML:
		return "application/xml"
	}
	return "application/octet-stream"
}

// Extension returns the conventional file extension for f, with the dot.
func (f Format) Extension() string {
	if f == FormatMarkdown {
		return ".md"
	}
	return "." + string(f)
}

// Options tunes the rendered output.
type Options struct {
	// Title heads Markdown output and names the Excel sheet.
	Title string
}

// Write renders papers to w in format f.
func Write(w io.Writer, f Format, papers []*domain.Paper, opts Options) error {
	if papers == nil {
		papers = []*domain.Paper{}
	}
	switch f {
	case FormatJSON:
		return writeJSON(w, papers)
	case FormatJSONL:
		return writeJSONL(w, papers)
	case FormatCSV:
		return writeCSV(w, papers)
	case FormatExcel:
		return writeExcel(w, papers, opts.Title)
	case FormatMarkdown:
		return writeMarkdown(w, papers, opts.Title)
	case FormatXML:
		return writeXML(w, papers)
	}
	return domain.NewValidationError("format", fmt.Sprintf("unsupported format %q", f))
}

func writeJSON(w io.Writer, papers []*domain.Paper) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(papers)
}

func writeJSONL(w io.Writer, papers []*domain.Paper) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for _, p := range papers {
		if err := enc.Encode(p); err != nil {
			return fmt.Errorf("encode %s: %w", p.PaperID, err)
		}
	}
	return nil
}

// columns is the flat row layout shared by CSV and Excel.
var columns = []string{
	"paper_id", "title", "authors", "journal", "publish_year", "publish_date",
	"citations", "doi", "url", "keywords", "fields", "source", "abstract",
}

// listSep joins multi-valued fields inside a single cell.
const listSep = "; "

// record returns the paper's cells in column order. Unset numbers are nil.
func record(p *domain.Paper) []interface{} {
	var year, citations interface{}
	if p.PublishYear != nil {
		year = *p.PublishYear
	}
	if p.Citations != nil {
		citations = *p.Citations
	}
	return []interface{}{
		p.PaperID,
		p.Title,
		strings.Join(p.AuthorNames(), listSep),
		p.Journal,
		year,
		p.PublishDate,
		citations,
		p.DOI,
		p.URL,
		strings.Join(p.Keywords, listSep),
		strings.Join(p.Fields, listSep),
		string(p.Source),
		p.Abstract,
	}
}

func cellString(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	}
	return fmt.Sprint(v)
}

func writeCSV(w io.Writer, papers []*domain.Paper) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(columns); err != nil {
		return err
	}
	row := make([]string, len(columns))
	for _, p := range papers {
		for i, v := range record(p) {
			row[i] = cellString(v)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
