package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/helixir/scholar-gateway/internal/cleaning"
	"github.com/helixir/scholar-gateway/internal/domain"
	"github.com/helixir/scholar-gateway/internal/service"
)

var (
	searchStartYear    int
	searchEndYear      int
	searchPage         int
	searchPageSize     int
	searchClean        bool
	searchMinCitations int
	searchSources      []string
	citationDepth      int
)

func init() {
	searchCmd.Flags().IntVar(&searchStartYear, "start-year", 0, "Earliest publication year")
	searchCmd.Flags().IntVar(&searchEndYear, "end-year", 0, "Latest publication year")
	searchCmd.Flags().IntVar(&searchPage, "page", 1, "Result page, starting at 1")
	searchCmd.Flags().IntVar(&searchPageSize, "page-size", 20, "Results per page")
	searchCmd.Flags().BoolVar(&searchClean, "clean", false, "Normalize and deduplicate the results")
	searchCmd.Flags().IntVar(&searchMinCitations, "min-citations", 0, "Drop papers cited fewer times")
	searchCmd.Flags().StringSliceVar(&searchSources, "sources", nil, "Search these sources concurrently and merge the first pages (use \"all\" for every source)")
	citationsCmd.Flags().IntVar(&citationDepth, "depth", 1, "Citation graph depth (1 or 2)")

	rootCmd.AddCommand(searchCmd, paperCmd, batchCmd, citationsCmd, journalCmd)
}

var searchCmd = &cobra.Command{
	Use:   "search <keyword>",
	Short: "Search papers by keyword",
	Long: `Search papers by keyword through the current source.

Examples:
  scholar search "graph neural networks"
  scholar search "protein folding" --start-year 2020 --clean
  scholar --adapter scopus search "CRISPR" --page 2 --human
  scholar search "graph neural networks" --sources openalex,scopus --clean`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func runSearch(cmd *cobra.Command, args []string) error {
	if len(searchSources) > 0 {
		return runSourcesSearch(cmd, args[0])
	}

	req := service.SearchRequest{
		Keyword:   args[0],
		StartYear: optionalYear(searchStartYear),
		EndYear:   optionalYear(searchEndYear),
		Page:      searchPage,
		PageSize:  searchPageSize,
		Clean:     searchClean,
	}
	if searchMinCitations > 0 {
		minCitations := searchMinCitations
		req.Filter = &cleaning.FilterOptions{MinCitations: &minCitations}
	}

	result, err := svc().SearchPapers(cmd.Context(), req)
	if err != nil {
		return fmt.Errorf("searching: %w", err)
	}
	return output(result, func() {
		fmt.Printf("%s: %d total, page %d\n", result.Adapter, result.Total, result.Page)
		printPapers(result.Papers)
	})
}

func runSourcesSearch(cmd *cobra.Command, keyword string) error {
	sources := searchSources
	if len(sources) == 1 && sources[0] == "all" {
		sources = nil
	}

	result, err := svc().SearchSources(cmd.Context(), service.MultiSearchRequest{
		Keyword:   keyword,
		Sources:   sources,
		StartYear: optionalYear(searchStartYear),
		EndYear:   optionalYear(searchEndYear),
		PageSize:  searchPageSize,
		Clean:     searchClean,
	})
	if err != nil {
		return fmt.Errorf("searching sources: %w", err)
	}

	type outcome struct {
		Source domain.SourceType `json:"source"`
		Count  int               `json:"count"`
		Error  string            `json:"error,omitempty"`
	}
	outcomes := make([]outcome, len(result.Outcomes))
	for i, o := range result.Outcomes {
		outcomes[i] = outcome{Source: o.Source, Count: o.Count}
		if o.Err != nil {
			outcomes[i].Error = o.Err.Error()
		}
	}
	payload := struct {
		Keyword string          `json:"keyword"`
		Sources []outcome       `json:"sources"`
		Papers  []*domain.Paper `json:"papers"`
	}{result.Keyword, outcomes, result.Papers}

	return output(payload, func() {
		for _, o := range outcomes {
			if o.Error != "" {
				fmt.Printf("%s: error: %s\n", o.Source, o.Error)
				continue
			}
			fmt.Printf("%s: %d papers\n", o.Source, o.Count)
		}
		fmt.Println()
		printPapers(result.Papers)
	})
}

var paperCmd = &cobra.Command{
	Use:   "paper <paper-id>",
	Short: "Show one paper",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		paper, err := svc().GetPaperInfo(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("getting paper: %w", err)
		}
		return output(paper, func() { printPaperSummary(1, paper) })
	},
}

var batchCmd = &cobra.Command{
	Use:   "batch <paper-id>...",
	Short: "Fetch several papers concurrently",
	Args:  cobra.RangeArgs(1, 50),
	RunE: func(cmd *cobra.Command, args []string) error {
		results, err := svc().GetPapers(cmd.Context(), args)
		if err != nil {
			return fmt.Errorf("fetching papers: %w", err)
		}

		type item struct {
			PaperID string        `json:"paper_id"`
			Paper   *domain.Paper `json:"paper,omitempty"`
			Error   string        `json:"error,omitempty"`
		}
		items := make([]item, len(results))
		for i, r := range results {
			items[i] = item{PaperID: r.ID, Paper: r.Paper}
			if r.Error != nil {
				items[i].Error = r.Error.Error()
			}
		}

		return output(items, func() {
			for i, it := range items {
				if it.Error != "" {
					fmt.Printf("[%d] %s\n    error: %s\n\n", i+1, it.PaperID, it.Error)
					continue
				}
				printPaperSummary(i+1, it.Paper)
			}
		})
	},
}

var citationsCmd = &cobra.Command{
	Use:   "citations <paper-id>",
	Short: "Show references and citing papers",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		relations, err := svc().GetCitationRelations(cmd.Context(), args[0], citationDepth)
		if err != nil {
			return fmt.Errorf("getting citations: %w", err)
		}
		return output(relations, func() {
			fmt.Printf("%s: %d references, %d citing papers\n\n",
				relations.PaperID, len(relations.References), relations.CitationCount)
			printPapers(relations.CitationPapers)
		})
	},
}

var journalCmd = &cobra.Command{
	Use:   "journal <journal-id>",
	Short: "Show journal metadata",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		journal, err := svc().GetJournalInfo(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("getting journal: %w", err)
		}
		return output(journal, func() {
			fmt.Printf("%s\n", journal.Name)
			if journal.Publisher != "" {
				fmt.Printf("    publisher: %s\n", journal.Publisher)
			}
			if journal.ISSN != "" {
				fmt.Printf("    issn: %s\n", journal.ISSN)
			}
		})
	},
}
