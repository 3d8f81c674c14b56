package ingest

import (
	"regexp"
	"strings"
)

// Topic vocabularies for the significance filter. Exclusions always beat
// inclusions; phrases are substring matches, tokens are whole-word matches.
var whitelistPhrases = []string{
	"public health",
	"central bank",
	"central banks",
	"human rights",
	"civil rights",
	"public safety",
	"national security",
	"foreign policy",
}

var whitelistTokens = map[string]struct{}{
	"politics": {}, "government": {}, "election": {}, "elections": {},
	"policy": {}, "economy": {}, "economic": {}, "finance": {},
	"financial": {}, "markets": {}, "inflation": {}, "health": {},
	"outbreak": {}, "outbreaks": {}, "security": {}, "defense": {},
	"war": {}, "conflict": {}, "conflicts": {}, "disaster": {},
	"disasters": {}, "courts": {}, "court": {}, "justice": {},
	"corruption": {}, "environment": {}, "climate": {}, "energy": {},
	"infrastructure": {}, "science": {}, "technology": {}, "tech": {},
	"cyber": {}, "regulation": {}, "regulatory": {}, "sanctions": {},
	"trade": {}, "immigration": {}, "refugees": {},
}

var excludePhrases = []string{
	"opinion",
	"editorial",
	"op-ed",
	"entertainment",
	"celebrity",
	"lifestyle",
	"travel",
	"fashion",
	"food",
	"sports",
	"horoscope",
}

var excludeTokens = map[string]struct{}{
	"opinion": {}, "editorial": {}, "opinionated": {}, "column": {},
	"commentary": {}, "sports": {}, "sport": {}, "entertainment": {},
	"celebrity": {}, "lifestyle": {}, "travel": {}, "fashion": {},
	"food": {}, "horoscope": {}, "culture": {},
}

var tokenRE = regexp.MustCompile(`[a-z0-9]+`)

func tokenize(text string) map[string]struct{} {
	tokens := make(map[string]struct{})
	for _, tok := range tokenRE.FindAllString(strings.ToLower(text), -1) {
		tokens[tok] = struct{}{}
	}
	return tokens
}

func matchesPhrases(text string, phrases []string) bool {
	lowered := strings.ToLower(text)
	for _, phrase := range phrases {
		if strings.Contains(lowered, phrase) {
			return true
		}
	}
	return false
}

func intersects(tokens, vocabulary map[string]struct{}) bool {
	for tok := range tokens {
		if _, ok := vocabulary[tok]; ok {
			return true
		}
	}
	return false
}

func classify(text string) bool {
	if matchesPhrases(text, excludePhrases) {
		return false
	}
	tokens := tokenize(text)
	if intersects(tokens, excludeTokens) {
		return false
	}
	if matchesPhrases(text, whitelistPhrases) {
		return true
	}
	return intersects(tokens, whitelistTokens)
}

// IsSignificant decides whether an item is worth archiving based on its
// feed categories, falling back to the title and summary when the feed
// carries no categories. Items matching nothing are not significant.
func IsSignificant(categories []string, title, summary string) bool {
	categoryText := strings.TrimSpace(strings.Join(categories, " "))
	if categoryText != "" {
		return classify(categoryText)
	}

	fallbackText := strings.TrimSpace(title + " " + summary)
	if fallbackText == "" {
		return false
	}
	return classify(fallbackText)
}
