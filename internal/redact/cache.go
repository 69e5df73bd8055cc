// Package redact holds the redaction state and paints opaque blocks over
// flagged frame regions before presentation.
package redact

import "github.com/cloakshare/safemirror/internal/types"

// Cache holds the most recently observed non-empty match set. It is the
// only pipeline state with cross-tick lifetime and is owned by the
// orchestrator goroutine alone, so it needs no locking.
//
// Core invariant: on ticks where detection did not run, or ran and found
// nothing, there is no positive evidence that flagged content has left the
// screen, so the cached set stays in force. A region is un-redacted only
// by being superseded by a new non-empty set that omits it. This trades
// false positives (stale redactions) for never re-exposing flagged
// content.
type Cache struct {
	matches types.MatchSet
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{}
}

// Update replaces the cached set wholesale when the new set is non-empty.
// An empty set leaves the cache untouched. Returns true if the cache was
// replaced.
func (c *Cache) Update(ms types.MatchSet) bool {
	if len(ms) == 0 {
		return false
	}
	c.matches = ms
	return true
}

// Matches returns the cached set. Callers must not mutate it.
func (c *Cache) Matches() types.MatchSet {
	return c.matches
}

// Len returns the number of cached matches.
func (c *Cache) Len() int {
	return len(c.matches)
}
