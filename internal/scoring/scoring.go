// Package scoring aggregates corroboration signals across a claim's
// assertions and derives its truth status.
package scoring

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/jonathan/fact-archiver/internal/db"
)

// Truth statuses, in the priority order the rules evaluate them.
const (
	StatusContested    = "Contested"
	StatusCorroborated = "Corroborated"
	StatusUnverified   = "Unverified"
)

// Status scores are fixed constants tied to the status, not a continuous
// function of the signals.
const (
	scoreContested    = 0.3
	scoreCorroborated = 0.7
	scoreUnverified   = 0.2
)

// PolarityDenies marks an assertion that contradicts its claim.
const PolarityDenies = "denies"

// ModelVersionAuto tags assessments produced by this rule set;
// ModelVersionHuman tags review overrides.
const (
	ModelVersionAuto  = "v1"
	ModelVersionHuman = "human"
)

// Signals are the raw aggregates the status rules consume.
// PrimaryEvidencePresent and CorrectionSeen are reserved for future rules
// and always false in v1.
type Signals struct {
	IndependentSourcesCount int  `json:"independent_sources_count"`
	ContradictionCount      int  `json:"contradiction_count"`
	PrimaryEvidencePresent  bool `json:"primary_evidence_present"`
	CorrectionSeen          bool `json:"correction_or_retraction_seen"`
}

// Store is the slice of storage the scorer needs.
type Store interface {
	ListAssertionPublishers(ctx context.Context, claimID uuid.UUID) ([]*string, error)
	CountAssertionsByPolarity(ctx context.Context, claimID uuid.UUID, polarity string) (int, error)
	HasAssessment(ctx context.Context, claimID uuid.UUID) (bool, error)
	InsertAssessment(ctx context.Context, a *db.Assessment) (*db.Assessment, error)
}

// Scorer computes signals and writes first assessments.
type Scorer struct {
	store Store
}

// New creates a Scorer backed by store.
func New(store Store) *Scorer {
	return &Scorer{store: store}
}

// ComputeSignals aggregates the claim's evidence: distinct non-null
// publishers among its asserting source items, and the count of denying
// assertions.
func (s *Scorer) ComputeSignals(ctx context.Context, claimID uuid.UUID) (Signals, error) {
	var signals Signals

	publishers, err := s.store.ListAssertionPublishers(ctx, claimID)
	if err != nil {
		return signals, fmt.Errorf("failed to compute source signals: %w", err)
	}
	distinct := make(map[string]struct{})
	for _, p := range publishers {
		if p != nil && *p != "" {
			distinct[*p] = struct{}{}
		}
	}
	signals.IndependentSourcesCount = len(distinct)

	contradictions, err := s.store.CountAssertionsByPolarity(ctx, claimID, PolarityDenies)
	if err != nil {
		return signals, fmt.Errorf("failed to compute contradiction signal: %w", err)
	}
	signals.ContradictionCount = contradictions

	return signals, nil
}

// DeriveStatus maps signals to a status and its fixed score, in strict
// priority order: any contradiction contests the claim regardless of how
// many sources corroborate it.
func DeriveStatus(signals Signals) (string, float64) {
	if signals.ContradictionCount >= 1 {
		return StatusContested, scoreContested
	}
	if signals.IndependentSourcesCount >= 2 && !signals.PrimaryEvidencePresent {
		return StatusCorroborated, scoreCorroborated
	}
	return StatusUnverified, scoreUnverified
}

// Rationale renders the signals as ordered human-readable justifications.
func Rationale(signals Signals) []string {
	bullets := []string{
		fmt.Sprintf("Independent sources: %d", signals.IndependentSourcesCount),
	}
	if signals.ContradictionCount >= 1 {
		bullets = append(bullets, fmt.Sprintf("Contradictions: %d", signals.ContradictionCount))
	}
	if !signals.PrimaryEvidencePresent {
		bullets = append(bullets, "No primary evidence detected")
	}
	return bullets
}

// CreateAssessmentIfMissing writes the automatic v1 assessment for a claim
// unless any assessment already exists, in which case it returns (nil, nil).
// First-write-wins for the automatic pass; human overrides append
// unconditionally through the server layer.
func (s *Scorer) CreateAssessmentIfMissing(ctx context.Context, claimID uuid.UUID) (*db.Assessment, error) {
	exists, err := s.store.HasAssessment(ctx, claimID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, nil
	}

	signals, err := s.ComputeSignals(ctx, claimID)
	if err != nil {
		return nil, err
	}
	status, score := DeriveStatus(signals)

	encoded, err := json.Marshal(signals)
	if err != nil {
		return nil, fmt.Errorf("failed to encode signals: %w", err)
	}

	version := ModelVersionAuto
	return s.store.InsertAssessment(ctx, &db.Assessment{
		ClaimID:         claimID,
		ModelVersion:    &version,
		Status:          status,
		Score:           &score,
		Rationale:       Rationale(signals),
		ComputedSignals: encoded,
	})
}
