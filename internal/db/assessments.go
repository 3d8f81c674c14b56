package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const assessmentColumns = `id, claim_id, model_version, created_at, status, score, rationale, computed_signals`

func scanAssessment(row pgx.Row) (*Assessment, error) {
	var a Assessment
	var rationale []byte
	err := row.Scan(&a.ID, &a.ClaimID, &a.ModelVersion, &a.CreatedAt,
		&a.Status, &a.Score, &rationale, &a.ComputedSignals)
	if err != nil {
		return nil, err
	}
	if len(rationale) > 0 {
		if err := json.Unmarshal(rationale, &a.Rationale); err != nil {
			return nil, fmt.Errorf("failed to decode assessment rationale: %w", err)
		}
	}
	return &a, nil
}

// InsertAssessment appends one assessment row. Assessments are append-only
// history; callers enforce any first-write-wins semantics themselves.
func (db *DB) InsertAssessment(ctx context.Context, a *Assessment) (*Assessment, error) {
	rationale, err := json.Marshal(a.Rationale)
	if err != nil {
		return nil, fmt.Errorf("failed to encode assessment rationale: %w", err)
	}

	row := db.pool.QueryRow(ctx,
		`INSERT INTO assessments (claim_id, model_version, status, score, rationale, computed_signals)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+assessmentColumns,
		a.ClaimID, a.ModelVersion, a.Status, a.Score, rationale, a.ComputedSignals)
	created, err := scanAssessment(row)
	if err != nil {
		return nil, fmt.Errorf("failed to insert assessment: %w", err)
	}
	return created, nil
}

// HasAssessment reports whether any assessment exists for the claim.
func (db *DB) HasAssessment(ctx context.Context, claimID uuid.UUID) (bool, error) {
	var exists bool
	err := db.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM assessments WHERE claim_id = $1)`, claimID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check assessment existence: %w", err)
	}
	return exists, nil
}

// ClaimStatus pairs a claim with its latest assessment for display.
type ClaimStatus struct {
	Claim      Claim
	Assessment Assessment
}

const latestAssessmentJoin = `
	JOIN (SELECT claim_id, MAX(created_at) AS max_created
	      FROM assessments GROUP BY claim_id) latest
	  ON latest.claim_id = c.id
	JOIN assessments a
	  ON a.claim_id = latest.claim_id AND a.created_at = latest.max_created`

func (db *DB) collectClaimStatuses(ctx context.Context, query string, args ...any) ([]ClaimStatus, error) {
	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var statuses []ClaimStatus
	for rows.Next() {
		var cs ClaimStatus
		var rationale []byte
		err := rows.Scan(
			&cs.Claim.ID, &cs.Claim.EventID, &cs.Claim.NormalizedText,
			&cs.Claim.ClaimType, &cs.Claim.Entities, &cs.Claim.NumericFields,
			&cs.Assessment.ID, &cs.Assessment.ClaimID, &cs.Assessment.ModelVersion,
			&cs.Assessment.CreatedAt, &cs.Assessment.Status, &cs.Assessment.Score,
			&rationale, &cs.Assessment.ComputedSignals,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan claim status: %w", err)
		}
		if len(rationale) > 0 {
			if err := json.Unmarshal(rationale, &cs.Assessment.Rationale); err != nil {
				return nil, fmt.Errorf("failed to decode assessment rationale: %w", err)
			}
		}
		statuses = append(statuses, cs)
	}
	return statuses, rows.Err()
}

// ListClaimStatusesByEvent retrieves every claim of the event with its
// latest assessment.
func (db *DB) ListClaimStatusesByEvent(ctx context.Context, eventID uuid.UUID) ([]ClaimStatus, error) {
	statuses, err := db.collectClaimStatuses(ctx,
		`SELECT c.id, c.event_id, c.normalized_text, c.claim_type, c.entities, c.numeric_fields,
		        a.id, a.claim_id, a.model_version, a.created_at, a.status, a.score, a.rationale, a.computed_signals
		 FROM claims c`+latestAssessmentJoin+`
		 WHERE c.event_id = $1`, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list claim statuses for event: %w", err)
	}
	return statuses, nil
}

// ListReviewQueue retrieves claims on the given day whose latest assessment
// still needs human attention.
func (db *DB) ListReviewQueue(ctx context.Context, dateKey string, statuses []string) ([]ClaimStatus, error) {
	result, err := db.collectClaimStatuses(ctx,
		`SELECT c.id, c.event_id, c.normalized_text, c.claim_type, c.entities, c.numeric_fields,
		        a.id, a.claim_id, a.model_version, a.created_at, a.status, a.score, a.rationale, a.computed_signals
		 FROM claims c`+latestAssessmentJoin+`
		 JOIN events e ON e.id = c.event_id
		 WHERE e.date_key = $1 AND a.status = ANY($2)`, dateKey, statuses)
	if err != nil {
		return nil, fmt.Errorf("failed to list review queue: %w", err)
	}
	return result, nil
}

// ListAssessmentsCreatedOn retrieves assessments whose created_at falls on
// dateKey in UTC.
func (db *DB) ListAssessmentsCreatedOn(ctx context.Context, dateKey string) ([]Assessment, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+assessmentColumns+` FROM assessments
		 WHERE to_char(created_at AT TIME ZONE 'UTC', 'YYYY-MM-DD') = $1
		 ORDER BY created_at`, dateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to list assessments for date: %w", err)
	}
	defer rows.Close()

	var assessments []Assessment
	for rows.Next() {
		a, err := scanAssessment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan assessment: %w", err)
		}
		assessments = append(assessments, *a)
	}
	return assessments, rows.Err()
}
