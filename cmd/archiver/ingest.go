package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/fact-archiver/internal/ingest"
	"github.com/jonathan/fact-archiver/internal/observability"
)

var (
	ingestRSS  bool
	ingestURLs bool
	ingestFile string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Discover source items from RSS feeds or URL lists",
	Long:  "Read the configured feed or URL list files and create pending source items for every new URL. RSS entries are filtered for significance before creation.",
	RunE:  runIngest,
}

func init() {
	ingestCmd.Flags().BoolVar(&ingestRSS, "rss", false, "Ingest from the configured RSS feed list")
	ingestCmd.Flags().BoolVar(&ingestURLs, "urls", false, "Ingest from the configured URL list")
	ingestCmd.Flags().StringVar(&ingestFile, "file", "", "Override the list file path")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, _ []string) error {
	if ingestRSS == ingestURLs {
		return fmt.Errorf("exactly one of --rss or --urls must be provided")
	}

	settings, err := loadSettings()
	if err != nil {
		return err
	}
	database, err := connectDB(cmd.Context(), settings)
	if err != nil {
		return err
	}
	defer database.Close()

	in := ingest.New(database)
	printer := observability.NewPrinter(os.Stdout)

	if ingestRSS {
		path := settings.RSSPath
		if ingestFile != "" {
			path = ingestFile
		}
		result, err := in.IngestRSSFromFile(cmd.Context(), path)
		if err != nil {
			return fmt.Errorf("rss ingest failed: %w", err)
		}
		printer.PrintIngestResult(path, result)
		return nil
	}

	path := settings.URLsPath
	if ingestFile != "" {
		path = ingestFile
	}
	result, err := in.IngestURLsFromFile(cmd.Context(), path)
	if err != nil {
		return fmt.Errorf("url ingest failed: %w", err)
	}
	printer.PrintIngestResult(path, result)
	return nil
}
