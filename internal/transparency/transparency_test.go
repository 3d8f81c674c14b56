package transparency

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/fact-archiver/internal/db"
)

const emptyHash = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"

func hexHash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

func TestMerkleRootEmpty(t *testing.T) {
	assert.Equal(t, emptyHash, MerkleRoot(nil))
	assert.Equal(t, emptyHash, MerkleRoot([]string{}))
}

func TestMerkleRootSingleLeaf(t *testing.T) {
	h := hexHash("leaf")
	assert.Equal(t, h, MerkleRoot([]string{h}))
}

func TestMerkleRootOddLeafPairsWithItself(t *testing.T) {
	h1, h2, h3 := hexHash("a"), hexHash("b"), hexHash("c")

	// Level 1: (h1,h2) and (h3,h3); level 2 combines the two.
	left := hexHash(h1 + h2)
	right := hexHash(h3 + h3)
	expected := hexHash(left + right)

	assert.Equal(t, expected, MerkleRoot([]string{h1, h2, h3}))
}

func TestMerkleRootSensitiveToLeafOrder(t *testing.T) {
	// The tree itself is order-sensitive; order independence comes from
	// DailyLeafHashes sorting each list before combination.
	h1, h2 := hexHash("a"), hexHash("b")
	assert.NotEqual(t, MerkleRoot([]string{h1, h2}), MerkleRoot([]string{h2, h1}))
}

func TestHashCanonicalDeterministic(t *testing.T) {
	item := &db.SourceItem{ID: uuid.New(), URL: "https://example.com", CaptureTier: 1,
		DiscoveredAt: time.Date(2026, 1, 7, 12, 0, 0, 0, time.UTC)}

	a, err := HashCanonical(sourceItemSnapshot(item))
	require.NoError(t, err)
	b, err := HashCanonical(sourceItemSnapshot(item))
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
}

// logFake is an in-memory Store whose entry list preserves insertion order.
type logFake struct {
	items       []db.SourceItem
	artifacts   []db.Artifact
	assessments []db.Assessment
	entries     []db.TransparencyLogEntry
}

func (f *logFake) ListSourceItemsDiscoveredOn(_ context.Context, dateKey string) ([]db.SourceItem, error) {
	var out []db.SourceItem
	for _, it := range f.items {
		if it.DiscoveredAt.UTC().Format("2006-01-02") == dateKey {
			out = append(out, it)
		}
	}
	return out, nil
}

func (f *logFake) ListArtifactsCreatedOn(_ context.Context, dateKey string) ([]db.Artifact, error) {
	var out []db.Artifact
	for _, a := range f.artifacts {
		if a.CreatedAt.UTC().Format("2006-01-02") == dateKey {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *logFake) ListAssessmentsCreatedOn(_ context.Context, dateKey string) ([]db.Assessment, error) {
	var out []db.Assessment
	for _, a := range f.assessments {
		if a.CreatedAt.UTC().Format("2006-01-02") == dateKey {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *logFake) LatestTransparencyEntry(_ context.Context) (*db.TransparencyLogEntry, error) {
	if len(f.entries) == 0 {
		return nil, nil
	}
	e := f.entries[len(f.entries)-1]
	return &e, nil
}

func (f *logFake) InsertTransparencyEntry(_ context.Context, previousRoot *string, merkleRoot string) (*db.TransparencyLogEntry, error) {
	entry := db.TransparencyLogEntry{
		ID: uuid.New(), PreviousRoot: previousRoot, MerkleRoot: merkleRoot,
		CreatedAt: time.Now().UTC(),
	}
	f.entries = append(f.entries, entry)
	return &entry, nil
}

func (f *logFake) ListTransparencyEntries(_ context.Context) ([]db.TransparencyLogEntry, error) {
	return append([]db.TransparencyLogEntry(nil), f.entries...), nil
}

var logDay = time.Date(2026, 1, 7, 10, 0, 0, 0, time.UTC)

func fakeItem(discovered time.Time, url string) db.SourceItem {
	return db.SourceItem{ID: uuid.New(), URL: url, CaptureTier: 1, DiscoveredAt: discovered}
}

func TestDailyLeafHashesOrderInvariant(t *testing.T) {
	a := fakeItem(logDay, "https://example.com/a")
	b := fakeItem(logDay.Add(time.Hour), "https://example.com/b")

	forward := &logFake{items: []db.SourceItem{a, b}}
	reversed := &logFake{items: []db.SourceItem{b, a}}

	h1, err := New(forward).DailyLeafHashes(context.Background(), "2026-01-07")
	require.NoError(t, err)
	h2, err := New(reversed).DailyLeafHashes(context.Background(), "2026-01-07")
	require.NoError(t, err)

	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 2)
}

func TestDailyLeafHashesFiltersByUTCDate(t *testing.T) {
	inDay := fakeItem(logDay, "https://example.com/a")
	nextDay := fakeItem(logDay.Add(24*time.Hour), "https://example.com/b")
	fake := &logFake{items: []db.SourceItem{inDay, nextDay}}

	leaves, err := New(fake).DailyLeafHashes(context.Background(), "2026-01-07")
	require.NoError(t, err)
	assert.Len(t, leaves, 1)
}

func TestComputeDailyRootEmptyDay(t *testing.T) {
	root, err := New(&logFake{}).ComputeDailyRoot(context.Background(), "2026-01-07")
	require.NoError(t, err)
	assert.Equal(t, emptyHash, root)
}

func TestAppendDailyEntryChainsToLatest(t *testing.T) {
	fake := &logFake{items: []db.SourceItem{fakeItem(logDay, "https://example.com/a")}}
	l := New(fake)

	genesis, err := l.AppendDailyEntry(context.Background(), "2026-01-07")
	require.NoError(t, err)
	assert.Nil(t, genesis.PreviousRoot)

	second, err := l.AppendDailyEntry(context.Background(), "2026-01-08")
	require.NoError(t, err)
	require.NotNil(t, second.PreviousRoot)
	assert.Equal(t, genesis.MerkleRoot, *second.PreviousRoot)

	require.NoError(t, l.Verify(context.Background()))
}

func TestAppendSameDateAppendsAgain(t *testing.T) {
	// Regression pin: re-running a date is not a no-op. The chain links to
	// whatever entry was created last, so the second run for the same date
	// adds a new link whose previous_root is the first run's root.
	fake := &logFake{items: []db.SourceItem{fakeItem(logDay, "https://example.com/a")}}
	l := New(fake)

	first, err := l.AppendDailyEntry(context.Background(), "2026-01-07")
	require.NoError(t, err)

	second, err := l.AppendDailyEntry(context.Background(), "2026-01-07")
	require.NoError(t, err)

	assert.Len(t, fake.entries, 2)
	assert.Equal(t, first.MerkleRoot, second.MerkleRoot, "same evidence, same root")
	require.NotNil(t, second.PreviousRoot)
	assert.Equal(t, first.MerkleRoot, *second.PreviousRoot)

	require.NoError(t, l.Verify(context.Background()))
}

func TestVerifyDetectsBrokenChain(t *testing.T) {
	fake := &logFake{}
	l := New(fake)

	_, err := l.AppendDailyEntry(context.Background(), "2026-01-07")
	require.NoError(t, err)
	_, err = l.AppendDailyEntry(context.Background(), "2026-01-08")
	require.NoError(t, err)

	tampered := "0000000000000000000000000000000000000000000000000000000000000000"
	fake.entries[1].PreviousRoot = &tampered

	assert.Error(t, l.Verify(context.Background()))
}

func TestMixedRecordKindsConcatenateInFixedOrder(t *testing.T) {
	item := fakeItem(logDay, "https://example.com/a")
	artifact := db.Artifact{ID: uuid.New(), SourceItemID: item.ID, Type: "text",
		StorageURI: "/artifacts/a.txt", SHA256: hexHash("body"), CreatedAt: logDay}
	version := "v1"
	score := 0.7
	assessment := db.Assessment{ID: uuid.New(), ClaimID: uuid.New(), ModelVersion: &version,
		CreatedAt: logDay, Status: "Corroborated", Score: &score,
		Rationale:       []string{"Independent sources: 2"},
		ComputedSignals: []byte(`{"independent_sources_count":2,"contradiction_count":0,"primary_evidence_present":false,"correction_or_retraction_seen":false}`)}

	fake := &logFake{
		items:       []db.SourceItem{item},
		artifacts:   []db.Artifact{artifact},
		assessments: []db.Assessment{assessment},
	}

	leaves, err := New(fake).DailyLeafHashes(context.Background(), "2026-01-07")
	require.NoError(t, err)
	require.Len(t, leaves, 3)

	itemHash, err := HashCanonical(sourceItemSnapshot(&item))
	require.NoError(t, err)
	artifactHash, err := HashCanonical(artifactSnapshot(&artifact))
	require.NoError(t, err)
	payload, err := assessmentSnapshot(&assessment)
	require.NoError(t, err)
	assessmentHash, err := HashCanonical(payload)
	require.NoError(t, err)

	// Source items first, then artifacts, then assessments.
	assert.Equal(t, []string{itemHash, artifactHash, assessmentHash}, leaves)
}
