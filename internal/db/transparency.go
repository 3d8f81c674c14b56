package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

const transparencyColumns = `id, previous_root, merkle_root, created_at`

func scanTransparencyEntry(row pgx.Row) (*TransparencyLogEntry, error) {
	var e TransparencyLogEntry
	err := row.Scan(&e.ID, &e.PreviousRoot, &e.MerkleRoot, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// LatestTransparencyEntry retrieves the most recently created log entry, or
// (nil, nil) when the chain is empty.
func (db *DB) LatestTransparencyEntry(ctx context.Context) (*TransparencyLogEntry, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+transparencyColumns+` FROM transparency_log_entries
		 ORDER BY created_at DESC, id DESC LIMIT 1`)
	entry, err := scanTransparencyEntry(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest transparency entry: %w", err)
	}
	return entry, nil
}

// InsertTransparencyEntry appends one entry to the chain. Callers must
// serialize appends; concurrent writers would fork the chain.
func (db *DB) InsertTransparencyEntry(ctx context.Context, previousRoot *string, merkleRoot string) (*TransparencyLogEntry, error) {
	row := db.pool.QueryRow(ctx,
		`INSERT INTO transparency_log_entries (previous_root, merkle_root)
		 VALUES ($1, $2)
		 RETURNING `+transparencyColumns,
		previousRoot, merkleRoot)
	entry, err := scanTransparencyEntry(row)
	if err != nil {
		return nil, fmt.Errorf("failed to insert transparency entry: %w", err)
	}
	return entry, nil
}

// ListTransparencyEntries retrieves the whole chain, oldest first.
func (db *DB) ListTransparencyEntries(ctx context.Context) ([]TransparencyLogEntry, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+transparencyColumns+` FROM transparency_log_entries
		 ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list transparency entries: %w", err)
	}
	defer rows.Close()

	var entries []TransparencyLogEntry
	for rows.Next() {
		e, err := scanTransparencyEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transparency entry: %w", err)
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}
