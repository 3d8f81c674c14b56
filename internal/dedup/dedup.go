// Package dedup maintains the content-addressed dedup ledger over
// normalized document text.
package dedup

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jonathan/fact-archiver/internal/db"
	"github.com/jonathan/fact-archiver/internal/textutil"
)

// Store is the slice of storage the deduper needs.
type Store interface {
	GetNormalizedTextBySourceItem(ctx context.Context, sourceItemID uuid.UUID) (*db.NormalizedText, error)
	FindCanonicalByHash(ctx context.Context, textHash string) (*db.NormalizedText, error)
	InsertNormalizedText(ctx context.Context, nt *db.NormalizedText) (*db.NormalizedText, error)
}

// Deduper normalizes raw text and records first-seen canonical documents.
type Deduper struct {
	store Store
}

// New creates a Deduper backed by store.
func New(store Store) *Deduper {
	return &Deduper{store: store}
}

// Upsert returns the existing ledger row for the source item if one exists.
// Otherwise it normalizes and hashes rawText, looks up the earliest prior
// row sharing the hash, and inserts exactly one new row pointing its
// canonical reference at that prior row's source item. First-seen wins:
// a duplicate discovered later never re-canonicalizes earlier rows.
func (d *Deduper) Upsert(ctx context.Context, item *db.SourceItem, rawText string) (*db.NormalizedText, error) {
	existing, err := d.store.GetNormalizedTextBySourceItem(ctx, item.ID)
	if err != nil {
		return nil, fmt.Errorf("dedup lookup failed: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	normalized := textutil.Normalize(rawText)
	textHash := textutil.HashText(normalized)

	canonical, err := d.store.FindCanonicalByHash(ctx, textHash)
	if err != nil {
		return nil, fmt.Errorf("canonical lookup failed: %w", err)
	}

	record := &db.NormalizedText{
		SourceItemID:   item.ID,
		TextHash:       textHash,
		NormalizedText: normalized,
	}
	if canonical != nil {
		id := canonical.SourceItemID
		record.CanonicalSourceItemID = &id
	}

	// InsertNormalizedText resolves the check-then-insert race internally:
	// on a unique violation it returns the row the concurrent writer made.
	return d.store.InsertNormalizedText(ctx, record)
}
