package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/fact-archiver/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes the archive's day, event, review, and verification endpoints.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "Port to listen on")
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}

	srv, err := server.New(server.Config{
		Port:        servePort,
		DatabaseURL: settings.DatabaseURL,
		CORSOrigins: settings.CORSOrigins,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Start()
}
