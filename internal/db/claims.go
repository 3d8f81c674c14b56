package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const claimColumns = `id, event_id, normalized_text, claim_type, entities, numeric_fields`

func scanClaim(row pgx.Row) (*Claim, error) {
	var c Claim
	err := row.Scan(&c.ID, &c.EventID, &c.NormalizedText, &c.ClaimType,
		&c.Entities, &c.NumericFields)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetClaim retrieves a claim by ID, or (nil, nil) when no row exists.
func (db *DB) GetClaim(ctx context.Context, id uuid.UUID) (*Claim, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+claimColumns+` FROM claims WHERE id = $1`, id)
	claim, err := scanClaim(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get claim: %w", err)
	}
	return claim, nil
}

func (db *DB) getClaimByKey(ctx context.Context, eventID uuid.UUID, normalizedText, claimType string) (*Claim, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+claimColumns+` FROM claims
		 WHERE event_id = $1 AND normalized_text = $2 AND claim_type = $3`,
		eventID, normalizedText, claimType)
	claim, err := scanClaim(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get claim by key: %w", err)
	}
	return claim, nil
}

// EnsureClaim inserts a claim unless one with the same
// (event, normalized text, type) already exists, returning the surviving
// row either way. Re-extraction is idempotent through the unique
// constraint.
func (db *DB) EnsureClaim(ctx context.Context, eventID uuid.UUID, normalizedText, claimType string) (*Claim, error) {
	row := db.pool.QueryRow(ctx,
		`INSERT INTO claims (event_id, normalized_text, claim_type)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (event_id, normalized_text, claim_type) DO NOTHING
		 RETURNING `+claimColumns,
		eventID, normalizedText, claimType)
	claim, err := scanClaim(row)
	if err != nil {
		// DO NOTHING returns no row when the claim already exists.
		if err == pgx.ErrNoRows {
			return db.getClaimByKey(ctx, eventID, normalizedText, claimType)
		}
		return nil, fmt.Errorf("failed to ensure claim: %w", err)
	}
	return claim, nil
}

// EnsureAssertion links a claim to a source item of evidence unless the
// link already exists. Unique per (claim, source item).
func (db *DB) EnsureAssertion(ctx context.Context, assertion *ClaimAssertion) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO claim_assertions
		   (claim_id, source_item_id, extracted_span, excerpt, polarity, assertion_time)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (claim_id, source_item_id) DO NOTHING`,
		assertion.ClaimID, assertion.SourceItemID, assertion.ExtractedSpan,
		assertion.Excerpt, assertion.Polarity, assertion.AssertionTime)
	if err != nil {
		return fmt.Errorf("failed to ensure claim assertion: %w", err)
	}
	return nil
}

// ListAssertionPublishers returns the publisher of every source item linked
// to the claim, including nulls and duplicates. The caller counts distinct
// non-null values.
func (db *DB) ListAssertionPublishers(ctx context.Context, claimID uuid.UUID) ([]*string, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT s.publisher FROM source_items s
		 JOIN claim_assertions a ON a.source_item_id = s.id
		 WHERE a.claim_id = $1`, claimID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assertion publishers: %w", err)
	}
	defer rows.Close()

	var publishers []*string
	for rows.Next() {
		var p *string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("failed to scan publisher: %w", err)
		}
		publishers = append(publishers, p)
	}
	return publishers, rows.Err()
}

// CountAssertionsByPolarity counts the claim's assertions with the given
// polarity.
func (db *DB) CountAssertionsByPolarity(ctx context.Context, claimID uuid.UUID, polarity string) (int, error) {
	var count int
	err := db.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM claim_assertions WHERE claim_id = $1 AND polarity = $2`,
		claimID, polarity,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count assertions by polarity: %w", err)
	}
	return count, nil
}
