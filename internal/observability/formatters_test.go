package observability

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/jonathan/fact-archiver/internal/db"
	"github.com/jonathan/fact-archiver/internal/ingest"
	"github.com/jonathan/fact-archiver/internal/pipeline"
)

func TestPrintIngestResult(t *testing.T) {
	var out strings.Builder
	NewPrinter(&out).PrintIngestResult("feeds.txt", &ingest.Result{Created: 4, Skipped: 2})

	text := out.String()
	assert.Contains(t, text, "INGEST")
	assert.Contains(t, text, "Created:  4")
	assert.Contains(t, text, "Skipped:  2")
}

func TestPrintPipelineResult(t *testing.T) {
	var out strings.Builder
	NewPrinter(&out).PrintPipelineResult(&pipeline.Result{
		Normalized: 3, Clustered: 3, ItemsProcessed: 3, ClaimsEnsured: 7,
	})

	text := out.String()
	assert.Contains(t, text, "PROCESS")
	assert.Contains(t, text, "Claims ensured:   7")
}

func TestPrintTransparencyEntry(t *testing.T) {
	var out strings.Builder
	printer := NewPrinter(&out)

	printer.PrintTransparencyEntry("2026-01-07", &db.TransparencyLogEntry{
		ID:         uuid.New(),
		MerkleRoot: strings.Repeat("a", 64),
		CreatedAt:  time.Now(),
	})

	text := out.String()
	assert.Contains(t, text, "2026-01-07")
	assert.Contains(t, text, "aaaaaaaaaaaaaaaa...")
	assert.Contains(t, text, "(genesis)")
}

func TestPrintNilIsQuiet(t *testing.T) {
	var out strings.Builder
	printer := NewPrinter(&out)

	printer.PrintIngestResult("urls.txt", nil)
	printer.PrintPipelineResult(nil)
	printer.PrintTransparencyEntry("2026-01-07", nil)
	printer.PrintChain(nil)

	assert.Empty(t, out.String())
}
