package cluster

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/fact-archiver/internal/db"
)

// fakeStore keeps events in creation order per date key, matching the
// stable candidate ordering of the real repository.
type fakeStore struct {
	events      []db.Event
	memberships map[uuid.UUID]*db.EventMembership
}

func newFakeStore() *fakeStore {
	return &fakeStore{memberships: make(map[uuid.UUID]*db.EventMembership)}
}

func (f *fakeStore) GetMembershipBySourceItem(_ context.Context, sourceItemID uuid.UUID) (*db.EventMembership, error) {
	return f.memberships[sourceItemID], nil
}

func (f *fakeStore) ListEventsByDateKey(_ context.Context, dateKey string) ([]db.Event, error) {
	var events []db.Event
	for _, e := range f.events {
		if e.DateKey == dateKey {
			events = append(events, e)
		}
	}
	return events, nil
}

func (f *fakeStore) InsertMembership(_ context.Context, m *db.EventMembership) (*db.EventMembership, error) {
	if existing, ok := f.memberships[m.SourceItemID]; ok {
		return existing, nil
	}
	f.memberships[m.SourceItemID] = m
	return m, nil
}

func (f *fakeStore) CreateEventWithMembership(_ context.Context, event *db.Event, confidence float64, sourceItemID uuid.UUID) (*db.EventMembership, error) {
	if existing, ok := f.memberships[sourceItemID]; ok {
		return existing, nil
	}
	event.ID = uuid.New()
	event.CreatedAt = time.Now()
	f.events = append(f.events, *event)
	m := &db.EventMembership{EventID: event.ID, SourceItemID: sourceItemID, Confidence: confidence}
	f.memberships[sourceItemID] = m
	return m, nil
}

func (f *fakeStore) ListUnclusteredSourceItems(_ context.Context) ([]db.SourceItem, error) {
	return nil, nil
}

func itemWithTitle(title string, discovered time.Time) *db.SourceItem {
	item := &db.SourceItem{
		ID:           uuid.New(),
		URL:          "https://example.com/" + uuid.NewString(),
		DiscoveredAt: discovered,
	}
	if title != "" {
		item.Title = &title
	}
	return item
}

var day = time.Date(2026, 1, 7, 9, 30, 0, 0, time.UTC)

func TestSimilarTitlesShareOneEvent(t *testing.T) {
	store := newFakeStore()
	c := New(store, 0)

	first, err := c.ClusterItem(context.Background(), itemWithTitle("Fed raises rates", day))
	require.NoError(t, err)
	assert.Equal(t, 0.0, first.Confidence, "seeding a new event scores zero confidence")

	second, err := c.ClusterItem(context.Background(), itemWithTitle("Fed hikes interest rates", day))
	require.NoError(t, err)

	assert.Equal(t, first.EventID, second.EventID)
	assert.GreaterOrEqual(t, second.Confidence, DefaultThreshold)
	assert.Len(t, store.events, 1)
}

func TestDissimilarTitleSeedsNewEvent(t *testing.T) {
	store := newFakeStore()
	c := New(store, 0)

	first, err := c.ClusterItem(context.Background(), itemWithTitle("Fed raises rates", day))
	require.NoError(t, err)

	second, err := c.ClusterItem(context.Background(), itemWithTitle("Volcano erupts in Iceland", day))
	require.NoError(t, err)

	assert.NotEqual(t, first.EventID, second.EventID)
	assert.Equal(t, 0.0, second.Confidence)
	assert.Len(t, store.events, 2)
}

func TestDifferentDaysNeverCluster(t *testing.T) {
	store := newFakeStore()
	c := New(store, 0)

	first, err := c.ClusterItem(context.Background(), itemWithTitle("Fed raises rates", day))
	require.NoError(t, err)

	second, err := c.ClusterItem(context.Background(),
		itemWithTitle("Fed raises rates", day.Add(24*time.Hour)))
	require.NoError(t, err)

	assert.NotEqual(t, first.EventID, second.EventID)
}

func TestTieKeepsFirstCandidate(t *testing.T) {
	store := newFakeStore()
	c := New(store, 0)

	// Two same-day events with identical titles: the comparison uses
	// strict >, so the first candidate in creation order wins the tie.
	a, err := c.ClusterItem(context.Background(), itemWithTitle("Fed raises rates", day))
	require.NoError(t, err)
	_, err = c.ClusterItem(context.Background(),
		itemWithTitle("Completely unrelated story", day))
	require.NoError(t, err)
	store.events = append(store.events, db.Event{
		ID: uuid.New(), Title: "Fed raises rates", DateKey: DateKey(day),
	})

	m, err := c.ClusterItem(context.Background(), itemWithTitle("Fed raises rates", day))
	require.NoError(t, err)
	assert.Equal(t, a.EventID, m.EventID)
	assert.InDelta(t, 1.0, m.Confidence, 1e-9)
}

func TestUntitledItemSeedsEventNamedByURL(t *testing.T) {
	store := newFakeStore()
	c := New(store, 0)

	item := itemWithTitle("", day)
	m, err := c.ClusterItem(context.Background(), item)
	require.NoError(t, err)

	require.Len(t, store.events, 1)
	assert.Equal(t, item.URL, store.events[0].Title)
	assert.Nil(t, store.events[0].ImportanceScore)
	assert.Nil(t, store.events[0].Tags)
	assert.Equal(t, 0.0, m.Confidence)
}

func TestClusterItemIsIdempotent(t *testing.T) {
	store := newFakeStore()
	c := New(store, 0)

	item := itemWithTitle("Fed raises rates", day)
	first, err := c.ClusterItem(context.Background(), item)
	require.NoError(t, err)

	again, err := c.ClusterItem(context.Background(), item)
	require.NoError(t, err)

	assert.Equal(t, first, again)
	assert.Len(t, store.events, 1)
}

func TestClusterItemsReturnsProcessedCount(t *testing.T) {
	store := newFakeStore()
	c := New(store, 0)

	items := []db.SourceItem{
		*itemWithTitle("Fed raises rates", day),
		*itemWithTitle("Fed hikes interest rates", day),
		*itemWithTitle("Volcano erupts in Iceland", day),
	}
	count, err := c.ClusterItems(context.Background(), items)
	require.NoError(t, err)

	// Count of items processed, not of events created.
	assert.Equal(t, 3, count)
	assert.Len(t, store.events, 2)
}

func TestMergeAndSplitAreUnsupported(t *testing.T) {
	c := New(newFakeStore(), 0)

	err := c.MergeEvents(context.Background(), uuid.New(), uuid.New())
	assert.True(t, errors.Is(err, ErrUnsupported))

	err = c.SplitEvent(context.Background(), uuid.New(), nil)
	assert.True(t, errors.Is(err, ErrUnsupported))
}

func TestDateKeyUsesUTC(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*3600)
	// 07:00 on Jan 8 in UTC+10 is still Jan 7 in UTC.
	local := time.Date(2026, 1, 8, 7, 0, 0, 0, loc)
	assert.Equal(t, "2026-01-07", DateKey(local))
}
