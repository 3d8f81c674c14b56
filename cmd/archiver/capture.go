package main

import (
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/fact-archiver/internal/capture"
)

var captureLimit int

var captureCmd = &cobra.Command{
	Use:   "capture",
	Short: "Capture pending source items in a headless browser",
	Long:  "Render each pending source item and archive its screenshot, PDF, and body-text artifacts. Requires Chrome/Chromium on the system.",
	RunE:  runCapture,
}

func init() {
	captureCmd.Flags().IntVar(&captureLimit, "limit", 25, "Maximum items to capture in one run")
	rootCmd.AddCommand(captureCmd)
}

func runCapture(cmd *cobra.Command, _ []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	database, err := connectDB(cmd.Context(), settings)
	if err != nil {
		return err
	}
	defer database.Close()

	limit := captureLimit
	if limit <= 0 {
		limit = 25
	}
	items, err := database.ListSourceItemsByCaptureStatus(cmd.Context(), "pending", limit)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Println("No pending source items to capture.")
		return nil
	}

	capturer := capture.New(
		database,
		capture.NewArtifactStore(settings.ArtifactRoot, settings.MaxCaptureBytes),
		capture.NewPoliteness(2*time.Second),
		time.Duration(settings.CaptureTimeoutMS)*time.Millisecond,
	)

	captured := 0
	for i := range items {
		created, err := capturer.CaptureSourceItem(cmd.Context(), items[i].ID)
		if err != nil {
			// One bad page must not sink the batch.
			log.Printf("[CAPTURE] %s failed: %v", items[i].URL, err)
			continue
		}
		log.Printf("[CAPTURE] %s: %d artifacts", items[i].URL, created)
		captured++
	}

	fmt.Printf("Captured %d of %d source items\n", captured, len(items))
	return nil
}
