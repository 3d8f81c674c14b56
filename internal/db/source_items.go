package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const sourceItemColumns = `id, url, canonical_url, title, publisher, published_at,
	discovered_at, fetch_headers, content_type, language, capture_tier,
	capture_status, is_significant, is_filtered`

func scanSourceItem(row pgx.Row) (*SourceItem, error) {
	var item SourceItem
	err := row.Scan(
		&item.ID, &item.URL, &item.CanonicalURL, &item.Title, &item.Publisher,
		&item.PublishedAt, &item.DiscoveredAt, &item.FetchHeaders,
		&item.ContentType, &item.Language, &item.CaptureTier,
		&item.CaptureStatus, &item.IsSignificant, &item.IsFiltered,
	)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (db *DB) collectSourceItems(ctx context.Context, query string, args ...any) ([]SourceItem, error) {
	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []SourceItem
	for rows.Next() {
		item, err := scanSourceItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan source item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// CreateSourceItem inserts a new source item and returns it with its
// generated ID and discovered_at populated.
func (db *DB) CreateSourceItem(ctx context.Context, item *SourceItem) (*SourceItem, error) {
	row := db.pool.QueryRow(ctx,
		`INSERT INTO source_items
		   (url, canonical_url, title, publisher, published_at, discovered_at,
		    fetch_headers, content_type, language, capture_tier, capture_status,
		    is_significant, is_filtered)
		 VALUES ($1, $2, $3, $4, $5, COALESCE($6, NOW()), $7, $8, $9, $10, $11, $12, $13)
		 RETURNING `+sourceItemColumns,
		item.URL, item.CanonicalURL, item.Title, item.Publisher, item.PublishedAt,
		nullableTime(item.DiscoveredAt), item.FetchHeaders, item.ContentType,
		item.Language, item.CaptureTier, item.CaptureStatus, item.IsSignificant,
		item.IsFiltered,
	)
	created, err := scanSourceItem(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create source item: %w", err)
	}
	return created, nil
}

// GetSourceItem retrieves a source item by ID. Returns (nil, nil) when no
// row exists.
func (db *DB) GetSourceItem(ctx context.Context, id uuid.UUID) (*SourceItem, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+sourceItemColumns+` FROM source_items WHERE id = $1`, id)
	item, err := scanSourceItem(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get source item: %w", err)
	}
	return item, nil
}

// SourceItemExistsByURL reports whether any source item already tracks url.
func (db *DB) SourceItemExistsByURL(ctx context.Context, url string) (bool, error) {
	var exists bool
	err := db.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM source_items WHERE url = $1)`, url,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check source item url: %w", err)
	}
	return exists, nil
}

// ListSourceItemsByCaptureStatus retrieves source items with the given
// capture status, oldest first. A limit of 0 means no limit.
func (db *DB) ListSourceItemsByCaptureStatus(ctx context.Context, status string, limit int) ([]SourceItem, error) {
	query := `SELECT ` + sourceItemColumns + ` FROM source_items
		 WHERE capture_status = $1 ORDER BY discovered_at`
	args := []any{status}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	items, err := db.collectSourceItems(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list source items by capture status: %w", err)
	}
	return items, nil
}

// ListUnclusteredSourceItems retrieves items with no event membership that
// have not been filtered out.
func (db *DB) ListUnclusteredSourceItems(ctx context.Context) ([]SourceItem, error) {
	items, err := db.collectSourceItems(ctx,
		`SELECT `+sourceItemColumns+` FROM source_items
		 WHERE is_filtered = FALSE
		   AND id NOT IN (SELECT source_item_id FROM event_memberships)
		 ORDER BY discovered_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to list unclustered source items: %w", err)
	}
	return items, nil
}

// ListSourceItemsDiscoveredSince retrieves unfiltered items discovered at
// or after cutoff.
func (db *DB) ListSourceItemsDiscoveredSince(ctx context.Context, cutoff time.Time) ([]SourceItem, error) {
	items, err := db.collectSourceItems(ctx,
		`SELECT `+sourceItemColumns+` FROM source_items
		 WHERE discovered_at >= $1 AND is_filtered = FALSE
		 ORDER BY discovered_at`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent source items: %w", err)
	}
	return items, nil
}

// ListSourceItemsDiscoveredOn retrieves items whose discovered_at falls on
// dateKey in UTC.
func (db *DB) ListSourceItemsDiscoveredOn(ctx context.Context, dateKey string) ([]SourceItem, error) {
	items, err := db.collectSourceItems(ctx,
		`SELECT `+sourceItemColumns+` FROM source_items
		 WHERE to_char(discovered_at AT TIME ZONE 'UTC', 'YYYY-MM-DD') = $1
		 ORDER BY discovered_at`, dateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to list source items for date: %w", err)
	}
	return items, nil
}

// ListSourceItemsByEvent retrieves the member items of an event.
func (db *DB) ListSourceItemsByEvent(ctx context.Context, eventID uuid.UUID) ([]SourceItem, error) {
	items, err := db.collectSourceItems(ctx,
		`SELECT `+sourceItemColumns+` FROM source_items s
		 JOIN event_memberships m ON m.source_item_id = s.id
		 WHERE m.event_id = $1
		 ORDER BY s.discovered_at`, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list event members: %w", err)
	}
	return items, nil
}

// UpdateCaptureStatus sets the capture status of one source item.
func (db *DB) UpdateCaptureStatus(ctx context.Context, id uuid.UUID, status string) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE source_items SET capture_status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update capture status: %w", err)
	}
	return nil
}

// MarkSourceItemFiltered flags an item as filtered out of the pipeline and
// records the significance verdict.
func (db *DB) MarkSourceItemFiltered(ctx context.Context, id uuid.UUID, significant bool) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE source_items
		 SET is_significant = $1, is_filtered = TRUE, capture_status = 'filtered'
		 WHERE id = $2`, significant, id)
	if err != nil {
		return fmt.Errorf("failed to mark source item filtered: %w", err)
	}
	return nil
}

// SetSourceItemSignificance records the significance verdict without
// filtering the item.
func (db *DB) SetSourceItemSignificance(ctx context.Context, id uuid.UUID, significant bool) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE source_items SET is_significant = $1 WHERE id = $2`, significant, id)
	if err != nil {
		return fmt.Errorf("failed to set source item significance: %w", err)
	}
	return nil
}

// nullableTime maps the zero time to NULL so column defaults apply.
func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
