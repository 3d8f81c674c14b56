package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/fact-archiver/internal/claims"
	"github.com/jonathan/fact-archiver/internal/scoring"
)

var claimsLimit int

var claimsCmd = &cobra.Command{
	Use:   "claims",
	Short: "Extract claims from clustered items and score them",
	RunE:  runClaims,
}

func init() {
	claimsCmd.Flags().IntVar(&claimsLimit, "limit", 0, "Maximum ledger rows to process (0 = all)")
	rootCmd.AddCommand(claimsCmd)
}

func runClaims(cmd *cobra.Command, _ []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	database, err := connectDB(cmd.Context(), settings)
	if err != nil {
		return err
	}
	defer database.Close()

	attacher := claims.NewAttacher(database, scoring.New(database))
	result, err := attacher.Run(cmd.Context(), claimsLimit)
	if err != nil {
		return err
	}

	fmt.Printf("Processed %d items, ensured %d claims\n", result.ItemsProcessed, result.ClaimsEnsured)
	return nil
}
