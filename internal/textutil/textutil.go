// Package textutil provides whitespace normalization and content hashing
// for document text.
package textutil

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
)

var whitespaceRE = regexp.MustCompile(`\s+`)

// Normalize trims leading and trailing whitespace and collapses every
// internal whitespace run, newlines and tabs included, to a single space.
// Total and idempotent: Normalize(Normalize(x)) == Normalize(x).
func Normalize(raw string) string {
	normalized := strings.TrimSpace(raw)
	return whitespaceRE.ReplaceAllString(normalized, " ")
}

// HashText returns the lowercase hex sha256 digest of the UTF-8 bytes of
// text.
func HashText(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
