package adapters

import (
	"regexp"
	"strings"
)

var digitsOnly = regexp.MustCompile(`^[0-9]+$`)

// detectionRule pairs an identifier-shape predicate with the country it
// routes to. Rules are evaluated in priority order; adding a country means
// appending a rule, not editing a branch chain.
type detectionRule struct {
	matches func(identifier string) bool
	country string
}

// detectionRules ordering matters: Hungarian tax numbers (11 digits) and
// Polish NIPs (10 digits) are checked before the 8-digit Slovak IČO shape;
// anything else falls through to the Czech ARES full-text search.
var detectionRules = []detectionRule{
	{matches: digitRule(11), country: "hu"},
	{matches: digitRule(10), country: "pl"},
	{matches: digitRule(8), country: "sk"},
}

const fallbackCountry = "cz"

func digitRule(length int) func(string) bool {
	return func(identifier string) bool {
		return len(identifier) == length && digitsOnly.MatchString(identifier)
	}
}

// DetectCountry resolves which national registry an identifier belongs to.
func DetectCountry(identifier string) string {
	cleaned := NormalizeIdentifier(identifier)
	for _, rule := range detectionRules {
		if rule.matches(cleaned) {
			return rule.country
		}
	}
	return fallbackCountry
}

// NormalizeIdentifier strips whitespace and separator characters before
// shape detection.
func NormalizeIdentifier(identifier string) string {
	cleaned := strings.TrimSpace(identifier)
	cleaned = strings.ReplaceAll(cleaned, "-", "")
	cleaned = strings.ReplaceAll(cleaned, " ", "")
	return cleaned
}
