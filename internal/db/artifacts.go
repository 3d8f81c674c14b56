package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const artifactColumns = `id, source_item_id, type, storage_uri, bytes, sha256, created_at, tool_version`

func scanArtifact(row pgx.Row) (*Artifact, error) {
	var a Artifact
	err := row.Scan(&a.ID, &a.SourceItemID, &a.Type, &a.StorageURI, &a.Bytes,
		&a.SHA256, &a.CreatedAt, &a.ToolVersion)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// CreateArtifact inserts a new artifact record.
func (db *DB) CreateArtifact(ctx context.Context, artifact *Artifact) (*Artifact, error) {
	row := db.pool.QueryRow(ctx,
		`INSERT INTO artifacts (source_item_id, type, storage_uri, bytes, sha256, tool_version)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+artifactColumns,
		artifact.SourceItemID, artifact.Type, artifact.StorageURI,
		artifact.Bytes, artifact.SHA256, artifact.ToolVersion,
	)
	created, err := scanArtifact(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create artifact: %w", err)
	}
	return created, nil
}

// GetTextArtifact retrieves the text artifact for a source item, or
// (nil, nil) when none exists.
func (db *DB) GetTextArtifact(ctx context.Context, sourceItemID uuid.UUID) (*Artifact, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+artifactColumns+` FROM artifacts
		 WHERE source_item_id = $1 AND type = 'text'
		 ORDER BY created_at LIMIT 1`, sourceItemID)
	artifact, err := scanArtifact(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get text artifact: %w", err)
	}
	return artifact, nil
}

// GetArtifactByType retrieves the earliest artifact of the given type for
// a source item, or (nil, nil) when none exists.
func (db *DB) GetArtifactByType(ctx context.Context, sourceItemID uuid.UUID, artifactType string) (*Artifact, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+artifactColumns+` FROM artifacts
		 WHERE source_item_id = $1 AND type = $2
		 ORDER BY created_at LIMIT 1`, sourceItemID, artifactType)
	artifact, err := scanArtifact(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get %s artifact: %w", artifactType, err)
	}
	return artifact, nil
}

// ListArtifactsCreatedOn retrieves artifacts whose created_at falls on
// dateKey in UTC.
func (db *DB) ListArtifactsCreatedOn(ctx context.Context, dateKey string) ([]Artifact, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+artifactColumns+` FROM artifacts
		 WHERE to_char(created_at AT TIME ZONE 'UTC', 'YYYY-MM-DD') = $1
		 ORDER BY created_at`, dateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to list artifacts for date: %w", err)
	}
	defer rows.Close()

	var artifacts []Artifact
	for rows.Next() {
		a, err := scanArtifact(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan artifact: %w", err)
		}
		artifacts = append(artifacts, *a)
	}
	return artifacts, rows.Err()
}
