// Package pattern holds the ordered catalog of sensitive-data text matchers.
package pattern

import (
	"regexp"

	"github.com/cloakshare/safemirror/internal/types"
)

// Entry pairs a sensitive-data category with its text matcher.
type Entry struct {
	Category types.Category
	Regexp   *regexp.Regexp
}

// Scorer assigns a confidence in [0,1] to a matched span. Scoring is
// pluggable so matcher specificity or extraction-engine confidence can be
// incorporated without touching the detection engine.
type Scorer func(category types.Category, text string) float64

// DefaultConfidence is the score assigned by DefaultScorer to every match.
const DefaultConfidence = 0.8

// DefaultScorer returns a flat confidence for every category.
func DefaultScorer(types.Category, string) float64 {
	return DefaultConfidence
}

// Catalog returns the matchers in category-priority order. The most
// specific shapes come first; the same span may later also be claimed by a
// broader category, which is intentional (recall over precision).
//
// CategoryPassword has no entry: passwords have no lexical shape a regex
// can claim, so they are a known detection gap rather than a matcher.
func Catalog() []Entry {
	return []Entry{
		{types.CategoryEmail, reEmail},
		{types.CategoryCreditCard, reCreditCard},
		{types.CategoryNationalID, reNationalID},
		{types.CategoryPhone, rePhone},
		{types.CategoryAPIKey, reAPIKey},
		{types.CategoryIPAddress, reIPAddress},
		{types.CategoryURL, reURL},
		{types.CategoryBankAccount, reBankAccount},
	}
}

var (
	reEmail = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)

	// 13-19 digits in groups of four with optional separators
	reCreditCard = regexp.MustCompile(`\b(?:\d{4}[-\s]?){3}\d{1,7}\b`)

	// US SSN shape (XXX-XX-XXXX)
	reNationalID = regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`)

	rePhone = regexp.MustCompile(`\b(?:\+?1[-.\s]?)?\(?[0-9]{3}\)?[-.\s]?[0-9]{3}[-.\s]?[0-9]{4}\b`)

	// Prefixed secret tokens (sk_, pk_, api_, key_, token_)
	reAPIKey = regexp.MustCompile(`\b(?:sk|pk|api|key|token)_[A-Za-z0-9_]{16,}\b`)

	reIPAddress = regexp.MustCompile(`\b(?:(?:25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)\.){3}(?:25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)\b`)

	reURL = regexp.MustCompile(`\b(?:https?|ftp|ssh)://\S+`)

	// 8-17 consecutive digits
	reBankAccount = regexp.MustCompile(`\b\d{8,17}\b`)
)
