// Package claims derives candidate factual claims from normalized document
// text and records them with their supporting evidence.
package claims

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/jonathan/fact-archiver/internal/textutil"
)

// Claim types. A claim is unique per (event, normalized text, type).
const (
	TypeWhat   = "what"
	TypeNumber = "number"
	TypeQuote  = "quote"
)

var (
	quoteRE   = regexp.MustCompile(`"([^"]{3,})"`)
	numericRE = regexp.MustCompile(`\d`)
)

// Extracted is one candidate claim produced by the lexical rules.
type Extracted struct {
	NormalizedText string
	ClaimType      string
	Excerpt        string
}

// splitSentences splits after any of . ! ? followed by whitespace and
// drops empty fragments.
func splitSentences(text string) []string {
	stripped := strings.TrimSpace(text)
	if stripped == "" {
		return nil
	}

	var sentences []string
	var current strings.Builder
	runes := []rune(stripped)
	for i, r := range runes {
		current.WriteRune(r)
		if (r == '.' || r == '!' || r == '?') && i+1 < len(runes) && unicode.IsSpace(runes[i+1]) {
			if s := strings.TrimSpace(current.String()); s != "" {
				sentences = append(sentences, s)
			}
			current.Reset()
		}
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

// Extract applies the shallow lexical rules to text: the headline and lead
// sentences become "what" claims, any sentence containing a digit becomes a
// "number" claim, and double-quoted spans of three or more characters
// become "quote" claims. Duplicates by (normalized text, type) keep the
// first occurrence, preserving what, number, quote order. Empty or
// whitespace-only input yields nil, never an error.
func Extract(text string) []Extracted {
	sentences := splitSentences(text)
	var candidates []Extracted

	if len(sentences) > 0 {
		lead := sentences
		if len(lead) > 3 {
			lead = lead[:3]
		}
		for _, sentence := range lead {
			if normalized := textutil.Normalize(sentence); normalized != "" {
				candidates = append(candidates, Extracted{normalized, TypeWhat, sentence})
			}
		}
	}

	for _, sentence := range sentences {
		if !numericRE.MatchString(sentence) {
			continue
		}
		if normalized := textutil.Normalize(sentence); normalized != "" {
			candidates = append(candidates, Extracted{normalized, TypeNumber, sentence})
		}
	}

	// Quotes are matched against the unsplit text so spans crossing
	// sentence boundaries survive.
	for _, match := range quoteRE.FindAllStringSubmatch(text, -1) {
		quote := strings.TrimSpace(match[1])
		if normalized := textutil.Normalize(quote); normalized != "" {
			candidates = append(candidates, Extracted{normalized, TypeQuote, quote})
		}
	}

	return unique(candidates)
}

func unique(candidates []Extracted) []Extracted {
	type key struct{ text, claimType string }
	seen := make(map[key]struct{}, len(candidates))
	var result []Extracted
	for _, c := range candidates {
		k := key{c.NormalizedText, c.ClaimType}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		result = append(result, c)
	}
	return result
}
