package capture

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// StripHTML extracts the visible text of an HTML document, dropping script
// and style contents. Used when an html artifact has to stand in for a
// text artifact before normalization.
func StripHTML(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse html: %w", err)
	}
	doc.Find("script, style, noscript").Remove()
	return doc.Text(), nil
}
