package scoring

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/fact-archiver/internal/db"
)

func TestDeriveStatus(t *testing.T) {
	tests := []struct {
		name         string
		signals      Signals
		expectStatus string
		expectScore  float64
	}{
		{
			name:         "Three sources corroborate",
			signals:      Signals{IndependentSourcesCount: 3},
			expectStatus: StatusCorroborated,
			expectScore:  0.7,
		},
		{
			name:         "Contradiction beats corroboration",
			signals:      Signals{IndependentSourcesCount: 3, ContradictionCount: 1},
			expectStatus: StatusContested,
			expectScore:  0.3,
		},
		{
			name:         "Single source stays unverified",
			signals:      Signals{IndependentSourcesCount: 1},
			expectStatus: StatusUnverified,
			expectScore:  0.2,
		},
		{
			name:         "Exactly two sources corroborate",
			signals:      Signals{IndependentSourcesCount: 2},
			expectStatus: StatusCorroborated,
			expectScore:  0.7,
		},
		{
			name:         "No evidence at all",
			signals:      Signals{},
			expectStatus: StatusUnverified,
			expectScore:  0.2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, score := DeriveStatus(tt.signals)
			assert.Equal(t, tt.expectStatus, status)
			assert.InDelta(t, tt.expectScore, score, 1e-9)
		})
	}
}

func TestRationale(t *testing.T) {
	bullets := Rationale(Signals{IndependentSourcesCount: 2})
	assert.Equal(t, []string{
		"Independent sources: 2",
		"No primary evidence detected",
	}, bullets)

	bullets = Rationale(Signals{IndependentSourcesCount: 3, ContradictionCount: 2})
	assert.Equal(t, []string{
		"Independent sources: 3",
		"Contradictions: 2",
		"No primary evidence detected",
	}, bullets)

	bullets = Rationale(Signals{PrimaryEvidencePresent: true})
	assert.Equal(t, []string{"Independent sources: 0"}, bullets)
}

type scoringFake struct {
	publishers  map[uuid.UUID][]*string
	denials     map[uuid.UUID]int
	assessments []*db.Assessment
}

func newScoringFake() *scoringFake {
	return &scoringFake{
		publishers: make(map[uuid.UUID][]*string),
		denials:    make(map[uuid.UUID]int),
	}
}

func (f *scoringFake) ListAssertionPublishers(_ context.Context, claimID uuid.UUID) ([]*string, error) {
	return f.publishers[claimID], nil
}

func (f *scoringFake) CountAssertionsByPolarity(_ context.Context, claimID uuid.UUID, polarity string) (int, error) {
	if polarity == PolarityDenies {
		return f.denials[claimID], nil
	}
	return 0, nil
}

func (f *scoringFake) HasAssessment(_ context.Context, claimID uuid.UUID) (bool, error) {
	for _, a := range f.assessments {
		if a.ClaimID == claimID {
			return true, nil
		}
	}
	return false, nil
}

func (f *scoringFake) InsertAssessment(_ context.Context, a *db.Assessment) (*db.Assessment, error) {
	a.ID = uuid.New()
	f.assessments = append(f.assessments, a)
	return a, nil
}

func strp(s string) *string { return &s }

func TestComputeSignalsDistinctPublishers(t *testing.T) {
	fake := newScoringFake()
	claimID := uuid.New()
	// Two assertions from Reuters, one from AP, one with no publisher.
	fake.publishers[claimID] = []*string{strp("Reuters"), strp("Reuters"), strp("AP"), nil}
	fake.denials[claimID] = 1

	signals, err := New(fake).ComputeSignals(context.Background(), claimID)
	require.NoError(t, err)

	assert.Equal(t, 2, signals.IndependentSourcesCount)
	assert.Equal(t, 1, signals.ContradictionCount)
	assert.False(t, signals.PrimaryEvidencePresent)
	assert.False(t, signals.CorrectionSeen)
}

func TestCreateAssessmentIfMissing(t *testing.T) {
	fake := newScoringFake()
	scorer := New(fake)
	claimID := uuid.New()
	fake.publishers[claimID] = []*string{strp("Reuters"), strp("AP")}

	created, err := scorer.CreateAssessmentIfMissing(context.Background(), claimID)
	require.NoError(t, err)
	require.NotNil(t, created)

	assert.Equal(t, StatusCorroborated, created.Status)
	require.NotNil(t, created.Score)
	assert.InDelta(t, 0.7, *created.Score, 1e-9)
	require.NotNil(t, created.ModelVersion)
	assert.Equal(t, ModelVersionAuto, *created.ModelVersion)
	assert.Contains(t, created.Rationale, "Independent sources: 2")
	assert.JSONEq(t,
		`{"independent_sources_count":2,"contradiction_count":0,"primary_evidence_present":false,"correction_or_retraction_seen":false}`,
		string(created.ComputedSignals))
}

func TestCreateAssessmentIsIdempotent(t *testing.T) {
	fake := newScoringFake()
	scorer := New(fake)
	claimID := uuid.New()
	fake.publishers[claimID] = []*string{strp("Reuters")}

	first, err := scorer.CreateAssessmentIfMissing(context.Background(), claimID)
	require.NoError(t, err)
	require.NotNil(t, first)

	// Unchanged evidence: the second call is a no-op.
	second, err := scorer.CreateAssessmentIfMissing(context.Background(), claimID)
	require.NoError(t, err)
	assert.Nil(t, second)
	assert.Len(t, fake.assessments, 1)

	// A human override appends regardless; the automatic pass still
	// declines afterwards.
	version := ModelVersionHuman
	_, err = fake.InsertAssessment(context.Background(), &db.Assessment{
		ClaimID: claimID, ModelVersion: &version, Status: StatusCorroborated,
	})
	require.NoError(t, err)

	third, err := scorer.CreateAssessmentIfMissing(context.Background(), claimID)
	require.NoError(t, err)
	assert.Nil(t, third)
	assert.Len(t, fake.assessments, 2)
}
