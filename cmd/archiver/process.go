package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/fact-archiver/internal/claims"
	"github.com/jonathan/fact-archiver/internal/cluster"
	"github.com/jonathan/fact-archiver/internal/dedup"
	"github.com/jonathan/fact-archiver/internal/observability"
	"github.com/jonathan/fact-archiver/internal/pipeline"
	"github.com/jonathan/fact-archiver/internal/scoring"
)

var (
	processNormalize bool
	processCluster   bool
)

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Run the processing pipeline over captured items",
	Long:  "Normalize captured text into the dedup ledger, cluster unclustered items into same-day events, and attach scored claims. With no flags the full pipeline runs; --normalize and --cluster select individual steps.",
	RunE:  runProcess,
}

func init() {
	processCmd.Flags().BoolVar(&processNormalize, "normalize", false, "Only normalize captured items")
	processCmd.Flags().BoolVar(&processCluster, "cluster", false, "Only cluster unclustered items")
	rootCmd.AddCommand(processCmd)
}

func runProcess(cmd *cobra.Command, _ []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	database, err := connectDB(cmd.Context(), settings)
	if err != nil {
		return err
	}
	defer database.Close()

	deduper := dedup.New(database)
	clusterer := cluster.New(database, settings.ClusterThreshold)
	attacher := claims.NewAttacher(database, scoring.New(database))
	p := pipeline.New(database, deduper, clusterer, attacher, 0)

	printer := observability.NewPrinter(os.Stdout)

	// Individual steps when requested; the full run otherwise.
	if processNormalize || processCluster {
		result := &pipeline.Result{}
		if processNormalize {
			normalized, err := p.Normalize(cmd.Context())
			if err != nil {
				return fmt.Errorf("normalize step failed: %w", err)
			}
			result.Normalized = normalized
		}
		if processCluster {
			clustered, err := p.Cluster(cmd.Context())
			if err != nil {
				return fmt.Errorf("cluster step failed: %w", err)
			}
			result.Clustered = clustered
		}
		printer.PrintPipelineResult(result)
		return nil
	}

	result, err := p.Run(cmd.Context())
	if err != nil {
		return err
	}
	printer.PrintPipelineResult(result)
	return nil
}
