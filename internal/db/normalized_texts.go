package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const normalizedTextColumns = `id, source_item_id, canonical_source_item_id, text_hash, normalized_text, created_at`

func scanNormalizedText(row pgx.Row) (*NormalizedText, error) {
	var nt NormalizedText
	err := row.Scan(&nt.ID, &nt.SourceItemID, &nt.CanonicalSourceItemID,
		&nt.TextHash, &nt.NormalizedText, &nt.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &nt, nil
}

// GetNormalizedTextBySourceItem retrieves the normalized text for a source
// item, or (nil, nil) when none exists.
func (db *DB) GetNormalizedTextBySourceItem(ctx context.Context, sourceItemID uuid.UUID) (*NormalizedText, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+normalizedTextColumns+` FROM normalized_texts WHERE source_item_id = $1`,
		sourceItemID)
	nt, err := scanNormalizedText(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get normalized text: %w", err)
	}
	return nt, nil
}

// FindCanonicalByHash retrieves the earliest-created normalized text with
// the given hash. First-seen wins: creation order, not content order.
func (db *DB) FindCanonicalByHash(ctx context.Context, textHash string) (*NormalizedText, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+normalizedTextColumns+` FROM normalized_texts
		 WHERE text_hash = $1 ORDER BY created_at, id LIMIT 1`, textHash)
	nt, err := scanNormalizedText(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find canonical text by hash: %w", err)
	}
	return nt, nil
}

// InsertNormalizedText inserts the dedup ledger row for a source item. If a
// concurrent writer already inserted one, the existing row is returned
// instead (the source_item_id unique constraint makes this race safe).
func (db *DB) InsertNormalizedText(ctx context.Context, nt *NormalizedText) (*NormalizedText, error) {
	row := db.pool.QueryRow(ctx,
		`INSERT INTO normalized_texts
		   (source_item_id, canonical_source_item_id, text_hash, normalized_text)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+normalizedTextColumns,
		nt.SourceItemID, nt.CanonicalSourceItemID, nt.TextHash, nt.NormalizedText)
	created, err := scanNormalizedText(row)
	if err != nil {
		if isUniqueViolation(err) {
			return db.GetNormalizedTextBySourceItem(ctx, nt.SourceItemID)
		}
		return nil, fmt.Errorf("failed to insert normalized text: %w", err)
	}
	return created, nil
}

// ListNormalizedTexts retrieves ledger rows in creation order. A limit of 0
// means no limit.
func (db *DB) ListNormalizedTexts(ctx context.Context, limit int) ([]NormalizedText, error) {
	query := `SELECT ` + normalizedTextColumns + ` FROM normalized_texts ORDER BY created_at, id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list normalized texts: %w", err)
	}
	defer rows.Close()

	var texts []NormalizedText
	for rows.Next() {
		nt, err := scanNormalizedText(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan normalized text: %w", err)
		}
		texts = append(texts, *nt)
	}
	return texts, rows.Err()
}
