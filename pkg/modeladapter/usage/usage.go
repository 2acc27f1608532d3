// Package usage tracks token consumption reported by completion APIs.
package usage

import "sync"

// TokenCount holds input and output token counts for a single LLM call.
type TokenCount struct {
	InputTokens  int
	OutputTokens int
}

// Total returns the sum of input and output tokens.
func (tc TokenCount) Total() int {
	return tc.InputTokens + tc.OutputTokens
}

// Tracker accumulates token usage across LLM calls. It keeps running totals
// rather than every entry, so it stays small in a long-lived server.
// It is safe for concurrent use. The zero value is ready to use and a nil
// *Tracker records nothing.
type Tracker struct {
	mu    sync.Mutex
	total TokenCount
	count int
}

// Add records a token count entry.
func (t *Tracker) Add(tc TokenCount) {
	if t == nil {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.total.InputTokens += tc.InputTokens
	t.total.OutputTokens += tc.OutputTokens
	t.count++
}

// Total returns the aggregate token count across all entries.
func (t *Tracker) Total() TokenCount {
	if t == nil {
		return TokenCount{}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	return t.total
}

// Count returns the number of recorded entries.
func (t *Tracker) Count() int {
	if t == nil {
		return 0
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	return t.count
}
