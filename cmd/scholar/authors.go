package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/helixir/scholar-gateway/internal/service"
)

var (
	authorPapersLimit     int
	authorPapersStartYear int
	authorPapersEndYear   int
)

func init() {
	authorPapersCmd.Flags().IntVar(&authorPapersLimit, "limit", 100, "Maximum papers to return")
	authorPapersCmd.Flags().IntVar(&authorPapersStartYear, "start-year", 0, "Earliest publication year")
	authorPapersCmd.Flags().IntVar(&authorPapersEndYear, "end-year", 0, "Latest publication year")

	authorCmd.AddCommand(authorPapersCmd)
	rootCmd.AddCommand(authorCmd)
}

var authorCmd = &cobra.Command{
	Use:   "author <author-id>",
	Short: "Show author metadata",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		author, err := svc().GetAuthorInfo(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("getting author: %w", err)
		}
		return output(author, func() {
			fmt.Println(author.String())
			if author.HIndex != nil {
				fmt.Printf("    h-index: %d\n", *author.HIndex)
			}
			if author.Citations != nil {
				fmt.Printf("    citations: %d\n", *author.Citations)
			}
		})
	},
}

var authorPapersCmd = &cobra.Command{
	Use:   "papers <author-id>",
	Short: "List an author's papers",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		papers, err := svc().GetAuthorPapers(cmd.Context(), service.AuthorPapersRequest{
			AuthorID:  args[0],
			StartYear: optionalYear(authorPapersStartYear),
			EndYear:   optionalYear(authorPapersEndYear),
			Limit:     authorPapersLimit,
		})
		if err != nil {
			return fmt.Errorf("getting author papers: %w", err)
		}
		return output(papers, func() { printPapers(papers) })
	},
}
