// Package cluster assigns source items to same-day events by title
// similarity.
package cluster

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/fact-archiver/internal/db"
)

// DefaultThreshold is the minimum title similarity for joining an existing
// event. Tuned against Ratio; treat as configuration if the similarity
// algorithm ever changes.
const DefaultThreshold = 0.6

// ErrUnsupported marks operations that are deliberately not implemented.
// Callers can branch on it with errors.Is.
var ErrUnsupported = errors.New("unsupported operation")

// Store is the slice of storage the clusterer needs.
type Store interface {
	GetMembershipBySourceItem(ctx context.Context, sourceItemID uuid.UUID) (*db.EventMembership, error)
	ListEventsByDateKey(ctx context.Context, dateKey string) ([]db.Event, error)
	InsertMembership(ctx context.Context, m *db.EventMembership) (*db.EventMembership, error)
	CreateEventWithMembership(ctx context.Context, event *db.Event, confidence float64, sourceItemID uuid.UUID) (*db.EventMembership, error)
	ListUnclusteredSourceItems(ctx context.Context) ([]db.SourceItem, error)
}

// Clusterer buckets source items by discovery day and greedily assigns each
// to the most similar existing event, or seeds a new one.
type Clusterer struct {
	store     Store
	threshold float64
}

// New creates a Clusterer with the given similarity threshold. A threshold
// of 0 selects DefaultThreshold.
func New(store Store, threshold float64) *Clusterer {
	if threshold == 0 {
		threshold = DefaultThreshold
	}
	return &Clusterer{store: store, threshold: threshold}
}

// DateKey renders a timestamp as the UTC YYYY-MM-DD bucket key.
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// ClusterItem assigns one source item to an event. Already-clustered items
// return their existing membership unchanged. Among the day's candidate
// events, the strictly highest similarity at or above the threshold wins;
// ties keep the first candidate in creation order. Items with no
// sufficiently similar candidate, or no title at all, seed a new event
// titled with the item's title or, failing that, its URL.
func (c *Clusterer) ClusterItem(ctx context.Context, item *db.SourceItem) (*db.EventMembership, error) {
	existing, err := c.store.GetMembershipBySourceItem(ctx, item.ID)
	if err != nil {
		return nil, fmt.Errorf("membership lookup failed: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	dateKey := DateKey(item.DiscoveredAt)
	candidates, err := c.store.ListEventsByDateKey(ctx, dateKey)
	if err != nil {
		return nil, fmt.Errorf("candidate lookup failed: %w", err)
	}

	var best *db.Event
	bestScore := 0.0
	if item.Title != nil && *item.Title != "" {
		for i := range candidates {
			score := Ratio(*item.Title, candidates[i].Title)
			if score >= c.threshold && score > bestScore {
				best = &candidates[i]
				bestScore = score
			}
		}
	}

	if best == nil {
		title := item.URL
		if item.Title != nil && *item.Title != "" {
			title = *item.Title
		}
		event := &db.Event{Title: title, DateKey: dateKey}
		return c.store.CreateEventWithMembership(ctx, event, 0.0, item.ID)
	}

	return c.store.InsertMembership(ctx, &db.EventMembership{
		EventID:      best.ID,
		SourceItemID: item.ID,
		Confidence:   bestScore,
	})
}

// ClusterItems clusters each item independently and returns the number of
// items processed, not the number of events created.
func (c *Clusterer) ClusterItems(ctx context.Context, items []db.SourceItem) (int, error) {
	processed := 0
	for i := range items {
		if _, err := c.ClusterItem(ctx, &items[i]); err != nil {
			return processed, err
		}
		processed++
	}
	return processed, nil
}

// ListUnclustered returns every unfiltered source item with no event
// membership.
func (c *Clusterer) ListUnclustered(ctx context.Context) ([]db.SourceItem, error) {
	return c.store.ListUnclusteredSourceItems(ctx)
}

// MergeEvents is a placeholder for review-UI wiring.
func (c *Clusterer) MergeEvents(_ context.Context, sourceEventID, targetEventID uuid.UUID) error {
	return fmt.Errorf("merge events %s into %s: %w", sourceEventID, targetEventID, ErrUnsupported)
}

// SplitEvent is a placeholder for review-UI wiring.
func (c *Clusterer) SplitEvent(_ context.Context, eventID uuid.UUID, _ []uuid.UUID) error {
	return fmt.Errorf("split event %s: %w", eventID, ErrUnsupported)
}
