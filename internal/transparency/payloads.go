package transparency

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jonathan/fact-archiver/internal/db"
)

// The payload structs pin the field set covered by the log. Fields are
// declared in lexicographic tag order so the marshalled form is canonical;
// absent values serialize as null rather than being omitted.

type sourceItemPayload struct {
	CanonicalURL  *string    `json:"canonical_url"`
	CaptureStatus *string    `json:"capture_status"`
	CaptureTier   int        `json:"capture_tier"`
	ContentType   *string    `json:"content_type"`
	DiscoveredAt  *time.Time `json:"discovered_at"`
	ID            string     `json:"id"`
	Language      *string    `json:"language"`
	PublishedAt   *time.Time `json:"published_at"`
	Publisher     *string    `json:"publisher"`
	Title         *string    `json:"title"`
	URL           string     `json:"url"`
}

type artifactPayload struct {
	Bytes        *int64     `json:"bytes"`
	CreatedAt    *time.Time `json:"created_at"`
	ID           string     `json:"id"`
	SHA256       string     `json:"sha256"`
	SourceItemID string     `json:"source_item_id"`
	StorageURI   string     `json:"storage_uri"`
	ToolVersion  *string    `json:"tool_version"`
	Type         string     `json:"type"`
}

type assessmentPayload struct {
	ClaimID         string     `json:"claim_id"`
	ComputedSignals any        `json:"computed_signals"`
	CreatedAt       *time.Time `json:"created_at"`
	ID              string     `json:"id"`
	ModelVersion    *string    `json:"model_version"`
	Rationale       []string   `json:"rationale"`
	Score           *float64   `json:"score"`
	Status          string     `json:"status"`
}

func utcTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	u := t.UTC()
	return &u
}

func sourceItemSnapshot(item *db.SourceItem) sourceItemPayload {
	return sourceItemPayload{
		CanonicalURL:  item.CanonicalURL,
		CaptureStatus: item.CaptureStatus,
		CaptureTier:   item.CaptureTier,
		ContentType:   item.ContentType,
		DiscoveredAt:  utcTime(item.DiscoveredAt),
		ID:            item.ID.String(),
		Language:      item.Language,
		PublishedAt:   utcTimePtr(item.PublishedAt),
		Publisher:     item.Publisher,
		Title:         item.Title,
		URL:           item.URL,
	}
}

func artifactSnapshot(artifact *db.Artifact) artifactPayload {
	return artifactPayload{
		Bytes:        artifact.Bytes,
		CreatedAt:    utcTime(artifact.CreatedAt),
		ID:           artifact.ID.String(),
		SHA256:       artifact.SHA256,
		SourceItemID: artifact.SourceItemID.String(),
		StorageURI:   artifact.StorageURI,
		ToolVersion:  artifact.ToolVersion,
		Type:         artifact.Type,
	}
}

func assessmentSnapshot(assessment *db.Assessment) (assessmentPayload, error) {
	signals, err := canonicalRaw(assessment.ComputedSignals)
	if err != nil {
		return assessmentPayload{}, fmt.Errorf("failed to decode computed signals: %w", err)
	}
	return assessmentPayload{
		ClaimID:         assessment.ClaimID.String(),
		ComputedSignals: signals,
		CreatedAt:       utcTime(assessment.CreatedAt),
		ID:              assessment.ID.String(),
		ModelVersion:    assessment.ModelVersion,
		Rationale:       assessment.Rationale,
		Score:           assessment.Score,
		Status:          assessment.Status,
	}, nil
}

// canonicalRaw round-trips stored JSON through a generic value so maps
// re-marshal with sorted keys regardless of how the store returned them.
func canonicalRaw(raw json.RawMessage) (any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}

func utcTimePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
