// Package transparency maintains the append-only hash chain of daily
// Merkle roots over the archive's records.
package transparency

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/jonathan/fact-archiver/internal/db"
)

// Store is the slice of storage the log needs.
type Store interface {
	ListSourceItemsDiscoveredOn(ctx context.Context, dateKey string) ([]db.SourceItem, error)
	ListArtifactsCreatedOn(ctx context.Context, dateKey string) ([]db.Artifact, error)
	ListAssessmentsCreatedOn(ctx context.Context, dateKey string) ([]db.Assessment, error)
	LatestTransparencyEntry(ctx context.Context) (*db.TransparencyLogEntry, error)
	InsertTransparencyEntry(ctx context.Context, previousRoot *string, merkleRoot string) (*db.TransparencyLogEntry, error)
	ListTransparencyEntries(ctx context.Context) ([]db.TransparencyLogEntry, error)
}

// Log computes daily Merkle roots and appends them to the hash chain.
// Appends are serialized in-process through a mutex; deployments must also
// ensure only one process appends at a time, or the chain forks.
type Log struct {
	store Store
	mu    sync.Mutex
}

// New creates a Log backed by store.
func New(store Store) *Log {
	return &Log{store: store}
}

// DailyLeafHashes hashes a canonical snapshot of every source item,
// artifact, and assessment dated dateKey (UTC). Each record kind's hash
// list is sorted independently, then the three lists concatenate in a
// fixed order, so the result is invariant to insertion order.
func (l *Log) DailyLeafHashes(ctx context.Context, dateKey string) ([]string, error) {
	items, err := l.store.ListSourceItemsDiscoveredOn(ctx, dateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to load source items for %s: %w", dateKey, err)
	}
	itemHashes := make([]string, 0, len(items))
	for i := range items {
		h, err := HashCanonical(sourceItemSnapshot(&items[i]))
		if err != nil {
			return nil, err
		}
		itemHashes = append(itemHashes, h)
	}

	artifacts, err := l.store.ListArtifactsCreatedOn(ctx, dateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to load artifacts for %s: %w", dateKey, err)
	}
	artifactHashes := make([]string, 0, len(artifacts))
	for i := range artifacts {
		h, err := HashCanonical(artifactSnapshot(&artifacts[i]))
		if err != nil {
			return nil, err
		}
		artifactHashes = append(artifactHashes, h)
	}

	assessments, err := l.store.ListAssessmentsCreatedOn(ctx, dateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to load assessments for %s: %w", dateKey, err)
	}
	assessmentHashes := make([]string, 0, len(assessments))
	for i := range assessments {
		payload, err := assessmentSnapshot(&assessments[i])
		if err != nil {
			return nil, err
		}
		h, err := HashCanonical(payload)
		if err != nil {
			return nil, err
		}
		assessmentHashes = append(assessmentHashes, h)
	}

	sort.Strings(itemHashes)
	sort.Strings(artifactHashes)
	sort.Strings(assessmentHashes)

	leaves := make([]string, 0, len(itemHashes)+len(artifactHashes)+len(assessmentHashes))
	leaves = append(leaves, itemHashes...)
	leaves = append(leaves, artifactHashes...)
	leaves = append(leaves, assessmentHashes...)
	return leaves, nil
}

// ComputeDailyRoot computes the Merkle root for one day's records.
func (l *Log) ComputeDailyRoot(ctx context.Context, dateKey string) (string, error) {
	leaves, err := l.DailyLeafHashes(ctx, dateKey)
	if err != nil {
		return "", err
	}
	return MerkleRoot(leaves), nil
}

// AppendDailyEntry computes the root for dateKey and appends a chain entry
// linking to the most recently created entry, whatever its date. The
// operation is deliberately not idempotent: re-running a date appends a
// second link, because the chain records when roots were published, not
// one slot per date.
func (l *Log) AppendDailyEntry(ctx context.Context, dateKey string) (*db.TransparencyLogEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	root, err := l.ComputeDailyRoot(ctx, dateKey)
	if err != nil {
		return nil, err
	}

	previous, err := l.store.LatestTransparencyEntry(ctx)
	if err != nil {
		return nil, err
	}
	var previousRoot *string
	if previous != nil {
		previousRoot = &previous.MerkleRoot
	}

	return l.store.InsertTransparencyEntry(ctx, previousRoot, root)
}

// Verify walks the whole chain and reports the first broken link: every
// entry's previous_root must equal the prior entry's merkle_root, and the
// genesis entry's previous_root must be null.
func (l *Log) Verify(ctx context.Context) error {
	entries, err := l.store.ListTransparencyEntries(ctx)
	if err != nil {
		return err
	}
	for i := range entries {
		if i == 0 {
			if entries[0].PreviousRoot != nil {
				return fmt.Errorf("genesis entry %s has a previous root", entries[0].ID)
			}
			continue
		}
		if entries[i].PreviousRoot == nil || *entries[i].PreviousRoot != entries[i-1].MerkleRoot {
			return fmt.Errorf("entry %s does not link to previous root %s",
				entries[i].ID, entries[i-1].MerkleRoot)
		}
	}
	return nil
}
