// Package main provides the entry point for the fact archiver CLI.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/jonathan/fact-archiver/internal/config"
	"github.com/jonathan/fact-archiver/internal/db"
)

var rootCmd = &cobra.Command{
	Use:   "archiver",
	Short: "News fact archiver",
	Long:  "Archiver ingests news sources, captures evidence, clusters same-day events, extracts and scores claims, and maintains a transparency log over the archive.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadSettings loads and validates environment configuration.
func loadSettings() (*config.Settings, error) {
	settings, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return settings, nil
}

// connectDB opens the Postgres pool for a command run.
func connectDB(ctx context.Context, settings *config.Settings) (*db.DB, error) {
	database, err := db.Connect(ctx, settings.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return database, nil
}
