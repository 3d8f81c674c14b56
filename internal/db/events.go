package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const eventColumns = `id, title, date_key, created_at, importance_score, tags`

func scanEvent(row pgx.Row) (*Event, error) {
	var e Event
	var tags []byte
	err := row.Scan(&e.ID, &e.Title, &e.DateKey, &e.CreatedAt, &e.ImportanceScore, &tags)
	if err != nil {
		return nil, err
	}
	if len(tags) > 0 {
		if err := json.Unmarshal(tags, &e.Tags); err != nil {
			return nil, fmt.Errorf("failed to decode event tags: %w", err)
		}
	}
	return &e, nil
}

func encodeTags(tags []string) (any, error) {
	if tags == nil {
		return nil, nil
	}
	encoded, err := json.Marshal(tags)
	if err != nil {
		return nil, fmt.Errorf("failed to encode event tags: %w", err)
	}
	return encoded, nil
}

// GetEvent retrieves an event by ID, or (nil, nil) when no row exists.
func (db *DB) GetEvent(ctx context.Context, id uuid.UUID) (*Event, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = $1`, id)
	event, err := scanEvent(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return event, nil
}

// ListEventsByDateKey retrieves the events for one calendar day in creation
// order. Clustering depends on this order being stable so that similarity
// ties resolve to the first candidate.
func (db *DB) ListEventsByDateKey(ctx context.Context, dateKey string) ([]Event, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+eventColumns+` FROM events WHERE date_key = $1 ORDER BY created_at, id`,
		dateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to list events for date: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

// ListEventsByDateKeyDesc retrieves the events for one day, newest first,
// for the day-detail view.
func (db *DB) ListEventsByDateKeyDesc(ctx context.Context, dateKey string) ([]Event, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+eventColumns+` FROM events WHERE date_key = $1 ORDER BY created_at DESC`,
		dateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to list events for date: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

// CountEventsByDateRange returns event counts per date_key for dates in
// [start, end], keyed by date_key. Days with no events are absent.
func (db *DB) CountEventsByDateRange(ctx context.Context, start, end string) (map[string]int, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT date_key, COUNT(id) FROM events
		 WHERE date_key >= $1 AND date_key <= $2
		 GROUP BY date_key`, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to count events by date: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var key string
		var count int
		if err := rows.Scan(&key, &count); err != nil {
			return nil, fmt.Errorf("failed to scan event count: %w", err)
		}
		counts[key] = count
	}
	return counts, rows.Err()
}

// GetMembershipBySourceItem retrieves the event membership of a source
// item, or (nil, nil) when the item is unclustered.
func (db *DB) GetMembershipBySourceItem(ctx context.Context, sourceItemID uuid.UUID) (*EventMembership, error) {
	var m EventMembership
	err := db.pool.QueryRow(ctx,
		`SELECT event_id, source_item_id, confidence FROM event_memberships
		 WHERE source_item_id = $1`, sourceItemID,
	).Scan(&m.EventID, &m.SourceItemID, &m.Confidence)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get event membership: %w", err)
	}
	return &m, nil
}

// InsertMembership assigns a source item to an existing event. If a
// concurrent writer already assigned the item, the existing membership is
// returned (the source_item_id unique constraint makes this race safe).
func (db *DB) InsertMembership(ctx context.Context, m *EventMembership) (*EventMembership, error) {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO event_memberships (event_id, source_item_id, confidence)
		 VALUES ($1, $2, $3)`,
		m.EventID, m.SourceItemID, m.Confidence)
	if err != nil {
		if isUniqueViolation(err) {
			return db.GetMembershipBySourceItem(ctx, m.SourceItemID)
		}
		return nil, fmt.Errorf("failed to insert event membership: %w", err)
	}
	return m, nil
}

// CreateEventWithMembership creates a new event and its first membership in
// one transaction, so a failure leaves no event without members. If a
// concurrent writer clustered the item first, the transaction rolls back
// and the existing membership is returned.
func (db *DB) CreateEventWithMembership(ctx context.Context, event *Event, confidence float64, sourceItemID uuid.UUID) (*EventMembership, error) {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	tags, err := encodeTags(event.Tags)
	if err != nil {
		return nil, err
	}

	var eventID uuid.UUID
	err = tx.QueryRow(ctx,
		`INSERT INTO events (title, date_key, importance_score, tags)
		 VALUES ($1, $2, $3, $4) RETURNING id`,
		event.Title, event.DateKey, event.ImportanceScore, tags,
	).Scan(&eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO event_memberships (event_id, source_item_id, confidence)
		 VALUES ($1, $2, $3)`, eventID, sourceItemID, confidence)
	if err != nil {
		if isUniqueViolation(err) {
			return db.GetMembershipBySourceItem(ctx, sourceItemID)
		}
		return nil, fmt.Errorf("failed to insert event membership: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit event creation: %w", err)
	}

	return &EventMembership{EventID: eventID, SourceItemID: sourceItemID, Confidence: confidence}, nil
}
