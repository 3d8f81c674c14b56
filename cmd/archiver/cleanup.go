package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/fact-archiver/internal/ingest"
)

var (
	cleanupHours  int
	cleanupDryRun bool
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Mark recent non-significant items as filtered",
	Long:  "Re-evaluate significance for recently discovered items and filter the ones that fail, so they never reach clustering. Items are never deleted.",
	RunE:  runCleanup,
}

func init() {
	cleanupCmd.Flags().IntVar(&cleanupHours, "hours", 24, "Lookback window in hours")
	cleanupCmd.Flags().BoolVar(&cleanupDryRun, "dry-run", false, "Report what would be filtered without writing")
	rootCmd.AddCommand(cleanupCmd)
}

func runCleanup(cmd *cobra.Command, _ []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	database, err := connectDB(cmd.Context(), settings)
	if err != nil {
		return err
	}
	defer database.Close()

	cutoff := time.Now().UTC().Add(-time.Duration(cleanupHours) * time.Hour)
	candidates, err := database.ListSourceItemsDiscoveredSince(cmd.Context(), cutoff)
	if err != nil {
		return err
	}
	if len(candidates) == 0 {
		fmt.Println("No recent source items to evaluate.")
		return nil
	}

	filtered := 0
	for i := range candidates {
		item := &candidates[i]

		significant := item.IsSignificant
		if significant == nil {
			title := ""
			if item.Title != nil {
				title = *item.Title
			}
			verdict := ingest.IsSignificant(nil, title, "")
			significant = &verdict
			if !cleanupDryRun && verdict {
				if err := database.SetSourceItemSignificance(cmd.Context(), item.ID, verdict); err != nil {
					return err
				}
			}
		}
		if *significant {
			continue
		}

		if !cleanupDryRun {
			if err := database.MarkSourceItemFiltered(cmd.Context(), item.ID, false); err != nil {
				return err
			}
		}
		filtered++
	}

	if cleanupDryRun {
		fmt.Printf("Dry run: would filter %d source items.\n", filtered)
		return nil
	}
	fmt.Printf("Filtered %d source items.\n", filtered)
	return nil
}
