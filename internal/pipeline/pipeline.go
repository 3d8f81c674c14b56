// Package pipeline orchestrates the processing passes that turn captured
// source items into events, claims, and assessments.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/fact-archiver/internal/capture"
	"github.com/jonathan/fact-archiver/internal/claims"
	"github.com/jonathan/fact-archiver/internal/db"
)

// defaultWorkers bounds the normalize step's concurrency. Normalization is
// disk and hash bound; a small pool is plenty.
const defaultWorkers = 4

// Store is the slice of storage the pipeline itself needs; the per-step
// components carry their own narrower interfaces.
type Store interface {
	ListSourceItemsByCaptureStatus(ctx context.Context, status string, limit int) ([]db.SourceItem, error)
	GetTextArtifact(ctx context.Context, sourceItemID uuid.UUID) (*db.Artifact, error)
	GetArtifactByType(ctx context.Context, sourceItemID uuid.UUID, artifactType string) (*db.Artifact, error)
}

// Normalizer records one source item's text in the dedup ledger.
type Normalizer interface {
	Upsert(ctx context.Context, item *db.SourceItem, rawText string) (*db.NormalizedText, error)
}

// Clusterer assigns unclustered items to events.
type Clusterer interface {
	ListUnclustered(ctx context.Context) ([]db.SourceItem, error)
	ClusterItems(ctx context.Context, items []db.SourceItem) (int, error)
}

// Attacher extracts claims and scores them.
type Attacher interface {
	Run(ctx context.Context, limit int) (claims.Result, error)
}

// Result summarizes one pipeline run.
type Result struct {
	Normalized     int
	Clustered      int
	ItemsProcessed int
	ClaimsEnsured  int
}

// Pipeline runs normalize, cluster, and attach in order.
type Pipeline struct {
	store      Store
	normalizer Normalizer
	clusterer  Clusterer
	attacher   Attacher
	workers    int
}

// New creates a Pipeline. workers <= 0 selects the default pool size.
func New(store Store, normalizer Normalizer, clusterer Clusterer, attacher Attacher, workers int) *Pipeline {
	if workers <= 0 {
		workers = defaultWorkers
	}
	return &Pipeline{
		store:      store,
		normalizer: normalizer,
		clusterer:  clusterer,
		attacher:   attacher,
		workers:    workers,
	}
}

// Normalize reads the text artifact of every captured item and upserts it
// into the dedup ledger. Items without a text artifact are skipped; the
// ledger's insert-or-get semantics make the pass safe to parallelize.
func (p *Pipeline) Normalize(ctx context.Context) (int, error) {
	items, err := p.store.ListSourceItemsByCaptureStatus(ctx, "captured", 0)
	if err != nil {
		return 0, fmt.Errorf("failed to list captured items: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	var normalized atomic.Int64

	for i := range items {
		g.Go(func() error {
			item := &items[i]
			text, ok, err := p.loadText(gctx, item)
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
			if _, err := p.normalizer.Upsert(gctx, item, text); err != nil {
				return err
			}
			normalized.Add(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	return int(normalized.Load()), nil
}

// loadText reads an item's text artifact, falling back to tag-stripping
// its html artifact. Returns ok=false when the item has neither or the
// file is unreadable.
func (p *Pipeline) loadText(ctx context.Context, item *db.SourceItem) (string, bool, error) {
	artifact, err := p.store.GetTextArtifact(ctx, item.ID)
	if err != nil {
		return "", false, err
	}
	if artifact != nil {
		raw, err := os.ReadFile(artifact.StorageURI)
		if err != nil {
			log.Printf("[PIPELINE] unreadable text artifact for %s: %v", item.ID, err)
			return "", false, nil
		}
		return string(raw), true, nil
	}

	htmlArtifact, err := p.store.GetArtifactByType(ctx, item.ID, "html")
	if err != nil {
		return "", false, err
	}
	if htmlArtifact == nil {
		return "", false, nil
	}
	raw, err := os.ReadFile(htmlArtifact.StorageURI)
	if err != nil {
		log.Printf("[PIPELINE] unreadable html artifact for %s: %v", item.ID, err)
		return "", false, nil
	}
	text, err := capture.StripHTML(string(raw))
	if err != nil {
		log.Printf("[PIPELINE] unparseable html artifact for %s: %v", item.ID, err)
		return "", false, nil
	}
	return text, true, nil
}

// Cluster assigns every unclustered item to an event.
func (p *Pipeline) Cluster(ctx context.Context) (int, error) {
	items, err := p.clusterer.ListUnclustered(ctx)
	if err != nil {
		return 0, err
	}
	return p.clusterer.ClusterItems(ctx, items)
}

// Run executes normalize, cluster, and attach in order and returns the
// combined counts.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	result := &Result{}

	normalized, err := p.Normalize(ctx)
	if err != nil {
		return nil, fmt.Errorf("normalize step failed: %w", err)
	}
	result.Normalized = normalized

	clustered, err := p.Cluster(ctx)
	if err != nil {
		return nil, fmt.Errorf("cluster step failed: %w", err)
	}
	result.Clustered = clustered

	attach, err := p.attacher.Run(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("attach step failed: %w", err)
	}
	result.ItemsProcessed = attach.ItemsProcessed
	result.ClaimsEnsured = attach.ClaimsEnsured

	return result, nil
}
