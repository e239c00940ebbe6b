package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/helixir/scholar-gateway/internal/analysis"
	"github.com/helixir/scholar-gateway/internal/llm"
	"github.com/helixir/scholar-gateway/internal/service"
)

var (
	analyzeType    string
	analyzeKeyword string
	analyzeLimit   int

	statsAuthor    string
	statsKeyword   string
	statsStartYear int
	statsEndYear   int
	statsLimit     int
	statsTopN      int
)

func init() {
	analyzeCmd.Flags().StringVar(&analyzeType, "type", string(llm.AnalysisSummary), "Analysis type (summary, trend, gap, compare)")
	analyzeCmd.Flags().StringVar(&analyzeKeyword, "keyword", "", "Analyze search results instead of paper ids")
	analyzeCmd.Flags().IntVar(&analyzeLimit, "limit", service.DefaultAnalysisPapers, "Maximum papers to analyze")

	statsCmd.Flags().StringVar(&statsAuthor, "author", "", "Author id for author reports")
	statsCmd.Flags().StringVar(&statsKeyword, "keyword", "", "Keyword for search-based reports")
	statsCmd.Flags().IntVar(&statsStartYear, "start-year", 0, "Earliest publication year")
	statsCmd.Flags().IntVar(&statsEndYear, "end-year", 0, "Latest publication year")
	statsCmd.Flags().IntVar(&statsLimit, "limit", 0, "Maximum papers to include")
	statsCmd.Flags().IntVar(&statsTopN, "top", 0, "Entries in ranked reports")

	rootCmd.AddCommand(analyzeCmd, statsCmd)
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze [paper-id...]",
	Short: "Run an LLM analysis over papers",
	Long: `Run an LLM analysis over the given papers, or over the cleaned results
of a keyword search. Requires llm.provider and the provider's API key.

Examples:
  scholar analyze W2741809807 W2100837269 --type compare
  scholar analyze --keyword "federated learning" --type trend --limit 15`,
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := svc().Analyze(cmd.Context(), service.AnalyzeRequest{
			PaperIDs:     args,
			Keyword:      analyzeKeyword,
			Limit:        analyzeLimit,
			AnalysisType: analyzeType,
		})
		if err != nil {
			return fmt.Errorf("analyzing: %w", err)
		}
		return output(result, func() {
			fmt.Printf("%s analysis of %d papers (%s %s)\n\n", result.AnalysisType, result.PapersCount, result.Provider, result.Model)
			fmt.Println(result.Result)
		})
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats <action>",
	Short: "Compute publication statistics",
	Long: fmt.Sprintf(`Compute a statistics report over an author's papers or a keyword search.

Actions: %s`, actionList()),
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		report, err := svc().Statistics(cmd.Context(), service.StatsRequest{
			Action:    args[0],
			AuthorID:  statsAuthor,
			Keyword:   statsKeyword,
			StartYear: optionalYear(statsStartYear),
			EndYear:   optionalYear(statsEndYear),
			Limit:     statsLimit,
			TopN:      statsTopN,
		})
		if err != nil {
			return fmt.Errorf("computing statistics: %w", err)
		}
		return outputJSON(report)
	},
}

func actionList() string {
	actions := analysis.Actions()
	names := make([]string, len(actions))
	for i, a := range actions {
		names[i] = string(a)
	}
	return strings.Join(names, ", ")
}
