package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/fact-archiver/internal/observability"
	"github.com/jonathan/fact-archiver/internal/transparency"
)

var (
	logDate   string
	logVerify bool
)

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Append a daily transparency log entry",
	Long:  "Compute the Merkle root over the given day's records and append it to the hash chain. Appending the same date twice adds a second link.",
	RunE:  runLog,
}

func init() {
	logCmd.Flags().StringVar(&logDate, "date", "", "YYYY-MM-DD (defaults to today UTC)")
	logCmd.Flags().BoolVar(&logVerify, "verify", false, "Verify the whole chain instead of appending")
	rootCmd.AddCommand(logCmd)
}

func runLog(cmd *cobra.Command, _ []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	database, err := connectDB(cmd.Context(), settings)
	if err != nil {
		return err
	}
	defer database.Close()

	tlog := transparency.New(database)
	printer := observability.NewPrinter(os.Stdout)

	if logVerify {
		if err := tlog.Verify(cmd.Context()); err != nil {
			return fmt.Errorf("chain verification failed: %w", err)
		}
		entries, err := database.ListTransparencyEntries(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Println("Chain verified")
		printer.PrintChain(entries)
		return nil
	}

	dateKey := logDate
	if dateKey == "" {
		dateKey = time.Now().UTC().Format("2006-01-02")
	} else if _, err := time.Parse("2006-01-02", dateKey); err != nil {
		return fmt.Errorf("invalid --date %q: %w", dateKey, err)
	}

	entry, err := tlog.AppendDailyEntry(cmd.Context(), dateKey)
	if err != nil {
		return err
	}
	printer.PrintTransparencyEntry(dateKey, entry)
	return nil
}
