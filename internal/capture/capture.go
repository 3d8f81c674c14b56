// Package capture renders source items in a headless browser and archives
// the screenshot, PDF, and text evidence they produce.
package capture

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/fact-archiver/internal/db"
)

// Store is the slice of storage capture needs.
type Store interface {
	GetSourceItem(ctx context.Context, id uuid.UUID) (*db.SourceItem, error)
	UpdateCaptureStatus(ctx context.Context, id uuid.UUID, status string) error
	CreateArtifact(ctx context.Context, artifact *db.Artifact) (*db.Artifact, error)
}

// Renderer produces the browser representations of a URL. The package
// default is Render; tests substitute a canned implementation.
type Renderer func(ctx context.Context, url string, timeout time.Duration) (*Rendered, error)

// Capturer drives the capture of individual source items.
type Capturer struct {
	store      Store
	artifacts  *ArtifactStore
	politeness *Politeness
	render     Renderer
	timeout    time.Duration
}

// New creates a Capturer. politeness may be nil to disable robots and rate
// limiting, as in tests.
func New(store Store, artifacts *ArtifactStore, politeness *Politeness, timeout time.Duration) *Capturer {
	return &Capturer{
		store:      store,
		artifacts:  artifacts,
		politeness: politeness,
		render:     Render,
		timeout:    timeout,
	}
}

// CaptureSourceItem renders one source item and records its three
// artifacts. The item's capture status moves pending -> capturing ->
// captured; a failed render resets it to pending so a later pass retries.
func (c *Capturer) CaptureSourceItem(ctx context.Context, id uuid.UUID) (int, error) {
	item, err := c.store.GetSourceItem(ctx, id)
	if err != nil {
		return 0, err
	}
	if item == nil {
		return 0, fmt.Errorf("source item not found: %s", id)
	}

	if c.politeness != nil {
		if err := c.politeness.Acquire(ctx, item.URL); err != nil {
			return 0, fmt.Errorf("capture blocked for %s: %w", item.URL, err)
		}
	}

	if err := c.store.UpdateCaptureStatus(ctx, id, "capturing"); err != nil {
		return 0, err
	}

	rendered, err := c.render(ctx, item.URL, c.timeout)
	if err != nil {
		if resetErr := c.store.UpdateCaptureStatus(ctx, id, "pending"); resetErr != nil {
			log.Printf("[CAPTURE] failed to reset status for %s: %v", id, resetErr)
		}
		return 0, err
	}

	dateKey := DateKeyFor(item.PublishedAt)
	created := 0

	type output struct {
		artifactType string
		ext          string
		data         []byte
	}
	outputs := []output{
		{"screenshot", "png", rendered.Screenshot},
		{"pdf", "pdf", rendered.PDF},
		{"text", "txt", []byte(rendered.BodyText)},
	}
	for _, out := range outputs {
		path := c.artifacts.BuildPath(dateKey, item.Publisher, id.String(), out.artifactType, out.ext)
		size, sha, err := c.artifacts.WriteBytes(path, out.data)
		if err != nil {
			return created, fmt.Errorf("failed to store %s artifact: %w", out.artifactType, err)
		}
		version := toolVersion
		if _, err := c.store.CreateArtifact(ctx, &db.Artifact{
			SourceItemID: id,
			Type:         out.artifactType,
			StorageURI:   path,
			Bytes:        &size,
			SHA256:       sha,
			ToolVersion:  &version,
		}); err != nil {
			return created, err
		}
		created++
	}

	if err := c.store.UpdateCaptureStatus(ctx, id, "captured"); err != nil {
		return created, err
	}
	return created, nil
}
