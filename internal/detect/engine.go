// Package detect applies the sensitive-data pattern catalog to extracted
// transcripts and produces match sets with approximate screen geometry.
package detect

import (
	"log/slog"

	"github.com/cloakshare/safemirror/internal/pattern"
	"github.com/cloakshare/safemirror/internal/types"
)

// Engine is the detection engine. It is stateless between calls: Detect is
// a pure function of its input, and its cost is bounded by
// O(patterns x transcript length).
type Engine struct {
	entries []pattern.Entry
	scorer  pattern.Scorer
	locator Locator
}

// Option customizes an Engine.
type Option func(*Engine)

// WithScorer replaces the default flat confidence scorer.
func WithScorer(s pattern.Scorer) Option {
	return func(e *Engine) { e.scorer = s }
}

// WithLocator replaces the default character-cell locator.
func WithLocator(l Locator) Option {
	return func(e *Engine) { e.locator = l }
}

// NewEngine creates a detection engine over the standard pattern catalog.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		entries: pattern.Catalog(),
		scorer:  pattern.DefaultScorer,
		locator: DefaultLocator(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Detect scans text and returns every sensitive span found.
//
// Matchers run independently in catalog priority order. Within one matcher
// matches are non-overlapping and leftmost-first; across matchers
// overlapping spans are all retained, so callers must tolerate duplicate
// rectangles. Detect never fails: empty, malformed, or binary-garbage
// input yields an empty MatchSet.
func (e *Engine) Detect(text string) types.MatchSet {
	if text == "" {
		return nil
	}

	var out types.MatchSet
	for _, entry := range e.entries {
		for _, span := range entry.Regexp.FindAllStringIndex(text, -1) {
			matched := text[span[0]:span[1]]
			out = append(out, types.Match{
				Category:   entry.Category,
				Text:       matched,
				Confidence: e.scorer(entry.Category, matched),
				Rect:       e.locator.Locate(text, span[0], span[1]),
			})
			slog.Debug("sensitive data detected",
				"category", entry.Category.String(),
				"length", span[1]-span[0],
			)
		}
	}
	return out
}
