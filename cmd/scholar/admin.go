package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cacheCmd.AddCommand(cacheStatsCmd, cacheClearCmd)
	rootCmd.AddCommand(adaptersCmd, cacheCmd)
}

var adaptersCmd = &cobra.Command{
	Use:   "adapters",
	Short: "List the configured sources",
	Args:  cobra.NoArgs,
	RunE: func(*cobra.Command, []string) error {
		current := svc().CurrentAdapter()
		supported := svc().SupportedAdapters()
		return output(map[string]interface{}{
			"current":   current,
			"supported": supported,
		}, func() {
			for _, name := range supported {
				marker := " "
				if name == current {
					marker = "*"
				}
				fmt.Printf("%s %s\n", marker, name)
			}
		})
	},
}

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the response cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache settings",
	Args:  cobra.NoArgs,
	RunE: func(*cobra.Command, []string) error {
		stats := svc().CacheStats()
		return output(stats, func() {
			fmt.Printf("enabled: %t\nbackend: %s\nttl: %s\n", stats.Enabled, stats.Backend, stats.TTL)
		})
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cached response",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := svc().ClearCache(cmd.Context()); err != nil {
			return err
		}
		return output(map[string]bool{"cleared": true}, func() { fmt.Println("cache cleared") })
	},
}
