package claims

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jonathan/fact-archiver/internal/db"
)

// Store is the slice of storage the attacher needs.
type Store interface {
	ListNormalizedTexts(ctx context.Context, limit int) ([]db.NormalizedText, error)
	GetMembershipBySourceItem(ctx context.Context, sourceItemID uuid.UUID) (*db.EventMembership, error)
	GetSourceItem(ctx context.Context, id uuid.UUID) (*db.SourceItem, error)
	EnsureClaim(ctx context.Context, eventID uuid.UUID, normalizedText, claimType string) (*db.Claim, error)
	EnsureAssertion(ctx context.Context, assertion *db.ClaimAssertion) error
}

// Assessor scores a claim once evidence is attached.
type Assessor interface {
	CreateAssessmentIfMissing(ctx context.Context, claimID uuid.UUID) (*db.Assessment, error)
}

// Attacher walks the dedup ledger, extracts claims from each clustered
// item's text, and records claims, assertions, and first assessments.
type Attacher struct {
	store    Store
	assessor Assessor
}

// NewAttacher creates an Attacher.
func NewAttacher(store Store, assessor Assessor) *Attacher {
	return &Attacher{store: store, assessor: assessor}
}

// Result summarizes one attach run.
type Result struct {
	ItemsProcessed int
	ClaimsEnsured  int
}

// Run extracts and records claims for up to limit ledger rows (0 means
// all). Rows without a membership, and filtered or missing source items,
// are skipped. Every operation is insert-or-get, so re-runs are idempotent.
func (a *Attacher) Run(ctx context.Context, limit int) (Result, error) {
	var result Result

	rows, err := a.store.ListNormalizedTexts(ctx, limit)
	if err != nil {
		return result, fmt.Errorf("failed to load ledger rows: %w", err)
	}

	for i := range rows {
		row := &rows[i]
		membership, err := a.store.GetMembershipBySourceItem(ctx, row.SourceItemID)
		if err != nil {
			return result, err
		}
		if membership == nil {
			continue
		}
		item, err := a.store.GetSourceItem(ctx, row.SourceItemID)
		if err != nil {
			return result, err
		}
		if item == nil || item.IsFiltered {
			continue
		}

		for _, extracted := range Extract(row.NormalizedText) {
			claim, err := a.store.EnsureClaim(ctx, membership.EventID,
				extracted.NormalizedText, extracted.ClaimType)
			if err != nil {
				return result, err
			}
			excerpt := extracted.Excerpt
			err = a.store.EnsureAssertion(ctx, &db.ClaimAssertion{
				ClaimID:      claim.ID,
				SourceItemID: row.SourceItemID,
				Excerpt:      &excerpt,
				Polarity:     "supports",
			})
			if err != nil {
				return result, err
			}
			if _, err := a.assessor.CreateAssessmentIfMissing(ctx, claim.ID); err != nil {
				return result, err
			}
			result.ClaimsEnsured++
		}
		result.ItemsProcessed++
	}

	return result, nil
}
