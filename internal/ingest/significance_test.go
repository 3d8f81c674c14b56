package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsSignificantCategories(t *testing.T) {
	tests := []struct {
		name       string
		categories []string
		title      string
		summary    string
		expect     bool
	}{
		{
			name:       "Whitelisted category token",
			categories: []string{"Politics"},
			expect:     true,
		},
		{
			name:       "Whitelisted category phrase",
			categories: []string{"Public Health"},
			expect:     true,
		},
		{
			name:       "Excluded category",
			categories: []string{"Sports"},
			expect:     false,
		},
		{
			name:       "Exclusion beats whitelist",
			categories: []string{"Politics", "Opinion"},
			expect:     false,
		},
		{
			name:       "Unknown category does not fall back to title",
			categories: []string{"Miscellany"},
			title:      "Election results announced",
			expect:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expect, IsSignificant(tt.categories, tt.title, tt.summary))
		})
	}
}

func TestIsSignificantFallback(t *testing.T) {
	tests := []struct {
		name    string
		title   string
		summary string
		expect  bool
	}{
		{
			name:   "Title token matches whitelist",
			title:  "Inflation hits a ten year high",
			expect: true,
		},
		{
			name:    "Summary phrase matches whitelist",
			title:   "Regulators respond",
			summary: "The central bank raised its benchmark rate.",
			expect:  true,
		},
		{
			name:   "Excluded title",
			title:  "Celebrity couple announces engagement",
			expect: false,
		},
		{
			name:   "No signal at all",
			title:  "Ten things you missed this week",
			expect: false,
		},
		{
			name:   "Empty everything",
			expect: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expect, IsSignificant(nil, tt.title, tt.summary))
		})
	}
}
