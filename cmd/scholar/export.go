package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/helixir/scholar-gateway/internal/domain"
	"github.com/helixir/scholar-gateway/internal/export"
	"github.com/helixir/scholar-gateway/internal/service"
)

var (
	exportOut      string
	exportFormat   string
	exportPages    int
	exportPageSize int
	exportClean    bool
	exportStart    int
	exportEnd      int
)

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "-", "Output file, or - for stdout")
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "", "json, jsonl, csv, xlsx, markdown or xml (default: from --out extension, else json)")
	exportCmd.Flags().IntVar(&exportPages, "pages", 1, "Number of result pages to collect")
	exportCmd.Flags().IntVar(&exportPageSize, "page-size", 50, "Results per page")
	exportCmd.Flags().BoolVar(&exportClean, "clean", true, "Normalize and deduplicate the results")
	exportCmd.Flags().IntVar(&exportStart, "start-year", 0, "Earliest publication year")
	exportCmd.Flags().IntVar(&exportEnd, "end-year", 0, "Latest publication year")

	rootCmd.AddCommand(exportCmd)
}

var exportCmd = &cobra.Command{
	Use:   "export <keyword>",
	Short: "Search papers and write them to a file",
	Long: `Search papers by keyword and write the results as JSON, JSON Lines,
CSV, an Excel workbook, a Markdown table or XML.

Examples:
  scholar export "graph neural networks" -o gnn.xlsx
  scholar export "CRISPR" --pages 3 --format csv > crispr.csv
  scholar --adapter scopus export "protein folding" -o folding.md`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func runExport(cmd *cobra.Command, args []string) error {
	format, err := resolveExportFormat(exportFormat, exportOut)
	if err != nil {
		return err
	}
	if exportPages < 1 {
		return domain.NewValidationError("pages", "must be at least 1")
	}

	papers, err := collectPages(cmd, args[0])
	if err != nil {
		return fmt.Errorf("searching: %w", err)
	}

	var w io.Writer = cmd.OutOrStdout()
	if exportOut != "-" {
		f, err := os.Create(exportOut)
		if err != nil {
			return fmt.Errorf("creating output: %w", err)
		}
		defer f.Close()
		w = f
	}

	if err := export.Write(w, format, papers, export.Options{Title: args[0]}); err != nil {
		return fmt.Errorf("writing %s: %w", format, err)
	}
	if exportOut != "-" {
		fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d papers to %s\n", len(papers), exportOut)
	}
	return nil
}

// resolveExportFormat prefers an explicit --format, then the output file
// extension, then JSON.
func resolveExportFormat(flag, out string) (export.Format, error) {
	if flag != "" {
		return export.ParseFormat(flag)
	}
	if out == "-" || out == "" {
		return export.FormatJSON, nil
	}
	return export.FormatFromPath(out)
}

// collectPages walks result pages until the requested count is reached or a
// page comes back empty. Cleaning can shorten a page, so a short page does
// not end the walk.
func collectPages(cmd *cobra.Command, keyword string) ([]*domain.Paper, error) {
	var papers []*domain.Paper
	for page := 1; page <= exportPages; page++ {
		result, err := svc().SearchPapers(cmd.Context(), service.SearchRequest{
			Keyword:   keyword,
			StartYear: optionalYear(exportStart),
			EndYear:   optionalYear(exportEnd),
			Page:      page,
			PageSize:  exportPageSize,
			Clean:     exportClean,
		})
		if err != nil {
			return nil, err
		}
		papers = append(papers, result.Papers...)
		if len(result.Papers) == 0 {
			break
		}
	}
	return papers, nil
}
