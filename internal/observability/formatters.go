// Package observability provides formatted output utilities for CLI runs.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/fact-archiver/internal/db"
	"github.com/jonathan/fact-archiver/internal/ingest"
	"github.com/jonathan/fact-archiver/internal/pipeline"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxEntriesToShow caps the transparency entries listed in a summary
	maxEntriesToShow = 5
)

// Printer handles formatted output for CLI commands
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintIngestResult outputs the created/skipped tally of an ingest pass.
func (p *Printer) PrintIngestResult(source string, result *ingest.Result) {
	if result == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Source:   %s\n", source))
	sb.WriteString(fmt.Sprintf("Created:  %d\n", result.Created))
	sb.WriteString(fmt.Sprintf("Skipped:  %d", result.Skipped))

	p.printBox("INGEST", sb.String())
}

// PrintPipelineResult outputs the step counts of a processing run.
func (p *Printer) PrintPipelineResult(result *pipeline.Result) {
	if result == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Normalized:       %d\n", result.Normalized))
	sb.WriteString(fmt.Sprintf("Clustered:        %d\n", result.Clustered))
	sb.WriteString(fmt.Sprintf("Items processed:  %d\n", result.ItemsProcessed))
	sb.WriteString(fmt.Sprintf("Claims ensured:   %d", result.ClaimsEnsured))

	p.printBox("PROCESS", sb.String())
}

// PrintTransparencyEntry outputs the chain link an append produced.
func (p *Printer) PrintTransparencyEntry(dateKey string, entry *db.TransparencyLogEntry) {
	if entry == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Date:     %s\n", dateKey))
	sb.WriteString(fmt.Sprintf("Root:     %s\n", shortHash(entry.MerkleRoot)))
	if entry.PreviousRoot != nil {
		sb.WriteString(fmt.Sprintf("Previous: %s", shortHash(*entry.PreviousRoot)))
	} else {
		sb.WriteString("Previous: (genesis)")
	}

	p.printBox("TRANSPARENCY LOG", sb.String())
}

// PrintChain outputs the most recent transparency entries, newest first.
func (p *Printer) PrintChain(entries []db.TransparencyLogEntry) {
	if len(entries) == 0 {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Total entries: %d\n\n", len(entries)))

	shown := 0
	for i := len(entries) - 1; i >= 0 && shown < maxEntriesToShow; i-- {
		entry := entries[i]
		sb.WriteString(fmt.Sprintf("%s  %s\n",
			entry.CreatedAt.UTC().Format("2006-01-02 15:04"), shortHash(entry.MerkleRoot)))
		shown++
	}
	if len(entries) > maxEntriesToShow {
		sb.WriteString(fmt.Sprintf("... and %d more\n", len(entries)-maxEntriesToShow))
	}

	p.printBox("CHAIN", strings.TrimSuffix(sb.String(), "\n"))
}

func shortHash(hash string) string {
	if len(hash) <= 16 {
		return hash
	}
	return hash[:16] + "..."
}
