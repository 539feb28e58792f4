// Package evidence contains the text heuristics applied to incoming
// transcript and OCR streams before they reach the session context:
// exact-match deduplication, screen-content classification and OCR
// payload compression.
package evidence

import "strings"

// Deduper collapses repeated reads of the same text into empty deltas.
// Each evidence channel (transcript, OCR) owns its own Deduper for the
// lifetime of a session.
type Deduper struct {
	seen map[string]struct{}
}

// NewDeduper creates an empty Deduper.
func NewDeduper() *Deduper {
	return &Deduper{seen: make(map[string]struct{})}
}

// Dedupe trims the candidate and returns it if it has not been seen on
// this channel before, recording it as seen. Returns "" for empty input
// or an exact repeat. Matching is exact, not fuzzy: upstream chunking
// already minimizes duplication.
func (d *Deduper) Dedupe(candidate string) string {
	text := strings.TrimSpace(candidate)
	if text == "" {
		return ""
	}
	if _, ok := d.seen[text]; ok {
		return ""
	}
	d.seen[text] = struct{}{}
	return text
}

// Reset clears the seen set. Called on session (re)start.
func (d *Deduper) Reset() {
	d.seen = make(map[string]struct{})
}
