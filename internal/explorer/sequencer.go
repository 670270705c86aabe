// Package explorer holds client-side state for browsing stations: the last
// search shown and the guard that keeps a slow, older response from
// replacing a newer one.
package explorer

import "sync"

// Sequencer numbers requests and lets only the most recently issued one
// apply its result.
type Sequencer struct {
	mu     sync.Mutex
	latest uint64
}

// Next issues a new sequence number; it supersedes every earlier one.
func (s *Sequencer) Next() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest++
	return s.latest
}

// Commit runs fn and returns true when seq is still the latest issued.
// Stale completions are dropped. fn runs under the sequencer lock.
func (s *Sequencer) Commit(seq uint64, fn func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.latest {
		return false
	}
	if fn != nil {
		fn()
	}
	return true
}
