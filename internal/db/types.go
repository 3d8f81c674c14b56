package db

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// SourceItem is one discovered document tracked by URL. Capture and
// ingestion mutate capture_status; the processing pipeline only ever sets
// is_filtered. Never deleted.
type SourceItem struct {
	ID            uuid.UUID       `json:"id"`
	URL           string          `json:"url"`
	CanonicalURL  *string         `json:"canonical_url,omitempty"`
	Title         *string         `json:"title,omitempty"`
	Publisher     *string         `json:"publisher,omitempty"`
	PublishedAt   *time.Time      `json:"published_at,omitempty"`
	DiscoveredAt  time.Time       `json:"discovered_at"`
	FetchHeaders  json.RawMessage `json:"fetch_headers,omitempty"`
	ContentType   *string         `json:"content_type,omitempty"`
	Language      *string         `json:"language,omitempty"`
	CaptureTier   int             `json:"capture_tier"`
	CaptureStatus *string         `json:"capture_status,omitempty"`
	IsSignificant *bool           `json:"is_significant,omitempty"`
	IsFiltered    bool            `json:"is_filtered"`
}

// Artifact is one captured representation of a SourceItem (text, html,
// screenshot or pdf) stored outside the database.
type Artifact struct {
	ID           uuid.UUID `json:"id"`
	SourceItemID uuid.UUID `json:"source_item_id"`
	Type         string    `json:"type"`
	StorageURI   string    `json:"storage_uri"`
	Bytes        *int64    `json:"bytes,omitempty"`
	SHA256       string    `json:"sha256"`
	CreatedAt    time.Time `json:"created_at"`
	ToolVersion  *string   `json:"tool_version,omitempty"`
}

// NormalizedText is the dedup ledger: exactly one row per SourceItem,
// immutable after creation. CanonicalSourceItemID points at the first-seen
// item sharing the same text hash, when there is one.
type NormalizedText struct {
	ID                    uuid.UUID  `json:"id"`
	SourceItemID          uuid.UUID  `json:"source_item_id"`
	CanonicalSourceItemID *uuid.UUID `json:"canonical_source_item_id,omitempty"`
	TextHash              string     `json:"text_hash"`
	NormalizedText        string     `json:"normalized_text"`
	CreatedAt             time.Time  `json:"created_at"`
}

// Event is a same-day cluster of SourceItems believed to report one
// happening. The title is fixed at creation and not re-derived as members
// join.
type Event struct {
	ID              uuid.UUID `json:"id"`
	Title           string    `json:"title"`
	DateKey         string    `json:"date_key"`
	CreatedAt       time.Time `json:"created_at"`
	ImportanceScore *float64  `json:"importance_score,omitempty"`
	Tags            []string  `json:"tags,omitempty"`
}

// EventMembership assigns a SourceItem to an Event, at most one per item.
// Confidence is the similarity score that caused the assignment, 0 when
// the item seeded a fresh event.
type EventMembership struct {
	EventID      uuid.UUID `json:"event_id"`
	SourceItemID uuid.UUID `json:"source_item_id"`
	Confidence   float64   `json:"confidence"`
}

// Claim is an atomic factual statement scoped to an Event, unique per
// (event, normalized text, type).
type Claim struct {
	ID             uuid.UUID       `json:"id"`
	EventID        uuid.UUID       `json:"event_id"`
	NormalizedText string          `json:"normalized_text"`
	ClaimType      string          `json:"claim_type"`
	Entities       json.RawMessage `json:"entities,omitempty"`
	NumericFields  json.RawMessage `json:"numeric_fields,omitempty"`
}

// ClaimAssertion links a Claim to one SourceItem of evidence.
type ClaimAssertion struct {
	ID            uuid.UUID  `json:"id"`
	ClaimID       uuid.UUID  `json:"claim_id"`
	SourceItemID  uuid.UUID  `json:"source_item_id"`
	ExtractedSpan *string    `json:"extracted_span,omitempty"`
	Excerpt       *string    `json:"excerpt,omitempty"`
	Polarity      string     `json:"polarity"`
	AssertionTime *time.Time `json:"assertion_time,omitempty"`
}

// Assessment is one scored snapshot of a Claim's truth status. Rows are
// append-only history; the current status is the row with the latest
// created_at.
type Assessment struct {
	ID              uuid.UUID       `json:"id"`
	ClaimID         uuid.UUID       `json:"claim_id"`
	ModelVersion    *string         `json:"model_version,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	Status          string          `json:"status"`
	Score           *float64        `json:"score,omitempty"`
	Rationale       []string        `json:"rationale,omitempty"`
	ComputedSignals json.RawMessage `json:"computed_signals,omitempty"`
}

// TransparencyLogEntry is one link of the hash chain. PreviousRoot is nil
// only for the genesis entry.
type TransparencyLogEntry struct {
	ID           uuid.UUID `json:"id"`
	PreviousRoot *string   `json:"previous_root,omitempty"`
	MerkleRoot   string    `json:"merkle_root"`
	CreatedAt    time.Time `json:"created_at"`
}
