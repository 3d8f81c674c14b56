package capture

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ArtifactStore writes captured artifacts to the local filesystem under a
// date/publisher/item directory layout and enforces the size cap.
type ArtifactStore struct {
	root     string
	maxBytes int64
}

// NewArtifactStore creates a store rooted at root with the given per-file
// size limit.
func NewArtifactStore(root string, maxBytes int64) *ArtifactStore {
	return &ArtifactStore{root: root, maxBytes: maxBytes}
}

// BuildPath returns the storage path for one artifact:
// root/dateKey/publisher/sourceItemID/type.ext. A missing publisher maps
// to "unknown"; path separators in publisher names are replaced.
func (s *ArtifactStore) BuildPath(dateKey string, publisher *string, sourceItemID, artifactType, ext string) string {
	safe := "unknown"
	if publisher != nil {
		cleaned := strings.TrimSpace(strings.ReplaceAll(*publisher, "/", "_"))
		if cleaned != "" {
			safe = cleaned
		}
	}
	return filepath.Join(s.root, dateKey, safe, sourceItemID, artifactType+"."+ext)
}

// WriteBytes writes data to path, creating parent directories, and returns
// the size and hex sha256. Files over the size cap are removed and an
// error returned so oversized captures never reach the archive.
func (s *ArtifactStore) WriteBytes(path string, data []byte) (int64, string, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, "", fmt.Errorf("failed to create artifact directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return 0, "", fmt.Errorf("failed to write artifact %s: %w", path, err)
	}

	size := int64(len(data))
	if size > s.maxBytes {
		_ = os.Remove(path)
		return 0, "", fmt.Errorf("artifact exceeds max size: %d bytes", size)
	}

	sum := sha256.Sum256(data)
	return size, hex.EncodeToString(sum[:]), nil
}

// WriteText writes text as UTF-8 bytes.
func (s *ArtifactStore) WriteText(path, text string) (int64, string, error) {
	return s.WriteBytes(path, []byte(text))
}

// DateKeyFor formats t as a UTC date key, using the current time when t is
// nil.
func DateKeyFor(t *time.Time) string {
	if t == nil {
		return time.Now().UTC().Format("2006-01-02")
	}
	return t.UTC().Format("2006-01-02")
}
