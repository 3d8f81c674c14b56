// Package ingest discovers source items from URL lists and RSS feeds.
package ingest

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/mmcdole/gofeed"

	"github.com/jonathan/fact-archiver/internal/db"
)

// Result reports how many items an ingestion pass created and skipped.
type Result struct {
	Created int
	Skipped int
}

// Store is the slice of storage ingestion needs.
type Store interface {
	SourceItemExistsByURL(ctx context.Context, url string) (bool, error)
	CreateSourceItem(ctx context.Context, item *db.SourceItem) (*db.SourceItem, error)
}

// Ingester creates pending source items from discovered URLs.
type Ingester struct {
	store  Store
	parser *gofeed.Parser
}

// New creates an Ingester backed by store.
func New(store Store) *Ingester {
	return &Ingester{store: store, parser: gofeed.NewParser()}
}

func pendingItem(url string) *db.SourceItem {
	status := "pending"
	significant := true
	return &db.SourceItem{
		URL:           url,
		CanonicalURL:  &url,
		CaptureTier:   1,
		CaptureStatus: &status,
		IsSignificant: &significant,
		IsFiltered:    false,
	}
}

// IngestURLs creates a pending source item for each URL not already
// tracked. Direct URLs bypass the significance filter; an operator listed
// them deliberately.
func (in *Ingester) IngestURLs(ctx context.Context, urls []string) (*Result, error) {
	result := &Result{}
	for _, url := range urls {
		exists, err := in.store.SourceItemExistsByURL(ctx, url)
		if err != nil {
			return nil, fmt.Errorf("failed to check url %s: %w", url, err)
		}
		if exists {
			result.Skipped++
			continue
		}
		if _, err := in.store.CreateSourceItem(ctx, pendingItem(url)); err != nil {
			return nil, fmt.Errorf("failed to create source item for %s: %w", url, err)
		}
		result.Created++
	}
	return result, nil
}

// IngestRSS fetches each feed and creates pending source items for entries
// that pass the significance filter and are not already tracked. A feed
// that fails to parse is logged and skipped; one broken feed must not sink
// the whole pass.
func (in *Ingester) IngestRSS(ctx context.Context, feedURLs []string) (*Result, error) {
	result := &Result{}
	for _, feedURL := range feedURLs {
		feed, err := in.parser.ParseURLWithContext(feedURL, ctx)
		if err != nil {
			log.Printf("[INGEST] failed to parse feed %s: %v", feedURL, err)
			continue
		}
		var publisher *string
		if feed.Title != "" {
			title := feed.Title
			publisher = &title
		}
		for _, entry := range feed.Items {
			if entry.Link == "" {
				continue
			}
			summary := entry.Description
			if summary == "" {
				summary = entry.Content
			}
			if !IsSignificant(entry.Categories, entry.Title, summary) {
				result.Skipped++
				continue
			}
			exists, err := in.store.SourceItemExistsByURL(ctx, entry.Link)
			if err != nil {
				return nil, fmt.Errorf("failed to check url %s: %w", entry.Link, err)
			}
			if exists {
				result.Skipped++
				continue
			}

			item := pendingItem(entry.Link)
			if entry.Title != "" {
				title := entry.Title
				item.Title = &title
			}
			item.Publisher = publisher
			item.PublishedAt = entry.PublishedParsed
			if _, err := in.store.CreateSourceItem(ctx, item); err != nil {
				return nil, fmt.Errorf("failed to create source item for %s: %w", entry.Link, err)
			}
			result.Created++
		}
	}
	return result, nil
}

// IngestURLsFromFile reads a URL list file and ingests its entries.
func (in *Ingester) IngestURLsFromFile(ctx context.Context, path string) (*Result, error) {
	urls, err := loadLines(path)
	if err != nil {
		return nil, err
	}
	return in.IngestURLs(ctx, urls)
}

// IngestRSSFromFile reads a feed list file and ingests its feeds.
func (in *Ingester) IngestRSSFromFile(ctx context.Context, path string) (*Result, error) {
	feeds, err := loadLines(path)
	if err != nil {
		return nil, err
	}
	return in.IngestRSS(ctx, feeds)
}

// loadLines reads one entry per line, skipping blanks and # comments. A
// missing file is treated as an empty list.
func loadLines(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return lines, nil
}
