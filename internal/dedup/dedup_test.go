package dedup

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/fact-archiver/internal/db"
)

// fakeStore keeps ledger rows in insertion order, mirroring the
// created_at ordering the real repository uses for canonical lookups.
type fakeStore struct {
	rows []*db.NormalizedText
}

func (f *fakeStore) GetNormalizedTextBySourceItem(_ context.Context, sourceItemID uuid.UUID) (*db.NormalizedText, error) {
	for _, r := range f.rows {
		if r.SourceItemID == sourceItemID {
			return r, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) FindCanonicalByHash(_ context.Context, textHash string) (*db.NormalizedText, error) {
	for _, r := range f.rows {
		if r.TextHash == textHash {
			return r, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) InsertNormalizedText(_ context.Context, nt *db.NormalizedText) (*db.NormalizedText, error) {
	for _, r := range f.rows {
		if r.SourceItemID == nt.SourceItemID {
			return r, nil
		}
	}
	nt.ID = uuid.New()
	f.rows = append(f.rows, nt)
	return nt, nil
}

func item() *db.SourceItem {
	return &db.SourceItem{ID: uuid.New(), URL: "https://example.com/a"}
}

func TestUpsertCreatesLedgerRow(t *testing.T) {
	store := &fakeStore{}
	d := New(store)

	first := item()
	record, err := d.Upsert(context.Background(), first, "Fed raises  rates\n today")
	require.NoError(t, err)

	assert.Equal(t, first.ID, record.SourceItemID)
	assert.Equal(t, "Fed raises rates today", record.NormalizedText)
	assert.Len(t, record.TextHash, 64)
	assert.Nil(t, record.CanonicalSourceItemID, "first-seen document has no canonical reference")
}

func TestUpsertIsIdempotentPerSourceItem(t *testing.T) {
	store := &fakeStore{}
	d := New(store)

	it := item()
	first, err := d.Upsert(context.Background(), it, "some text")
	require.NoError(t, err)

	// A second call, even with different raw text, returns the existing row.
	second, err := d.Upsert(context.Background(), it, "completely different text")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, store.rows, 1)
}

func TestUpsertSharedHashPointsAtFirstSeen(t *testing.T) {
	store := &fakeStore{}
	d := New(store)

	first := item()
	second := item()
	third := item()

	_, err := d.Upsert(context.Background(), first, "Markets   closed\nhigher.")
	require.NoError(t, err)

	// Whitespace differences normalize away, so these are duplicates.
	dup, err := d.Upsert(context.Background(), second, "Markets closed higher.")
	require.NoError(t, err)
	require.NotNil(t, dup.CanonicalSourceItemID)
	assert.Equal(t, first.ID, *dup.CanonicalSourceItemID)

	// A third duplicate still points at the first-created row, not the second.
	dup2, err := d.Upsert(context.Background(), third, "Markets closed higher.")
	require.NoError(t, err)
	require.NotNil(t, dup2.CanonicalSourceItemID)
	assert.Equal(t, first.ID, *dup2.CanonicalSourceItemID)
}

func TestUpsertDistinctTextHasNoCanonical(t *testing.T) {
	store := &fakeStore{}
	d := New(store)

	_, err := d.Upsert(context.Background(), item(), "one story")
	require.NoError(t, err)

	other, err := d.Upsert(context.Background(), item(), "a different story")
	require.NoError(t, err)
	assert.Nil(t, other.CanonicalSourceItemID)
}
