package cache

import (
	"container/list"
	"sync/atomic"
)

// matchGlob reports whether s matches pattern, where '%' matches any
// (possibly empty) sequence and '?' matches exactly one byte. Every
// other byte matches itself literally, so regex metacharacters in key
// prefixes ('.', '(', '[') can never over-match.
//
// Iterative two-pointer matching with single-star backtracking; no
// regex is ever constructed.
func matchGlob(pattern, s string) bool {
	var pi, si int
	star := -1
	mark := 0

	for si < len(s) {
		switch {
		case pi < len(pattern) && (pattern[pi] == '?' || pattern[pi] == s[si]):
			pi++
			si++
		case pi < len(pattern) && pattern[pi] == '%':
			star = pi
			mark = si
			pi++
		case star >= 0:
			// Mismatch after a '%': let the wildcard absorb one
			// more byte and retry.
			pi = star + 1
			mark++
			si = mark
		default:
			return false
		}
	}
	for pi < len(pattern) && pattern[pi] == '%' {
		pi++
	}
	return pi == len(pattern)
}

// DeletePattern removes every key matching the glob and returns the
// count. This is the one O(n) operation on the Store; matches are
// removed in capped batches, releasing the write lock between batches
// so a sweep over a huge namespace cannot starve Get/Set traffic.
func (s *Store) DeletePattern(pattern string) int {
	removed := 0
	for {
		s.mu.Lock()
		batch := make([]*list.Element, 0, patternBatchLimit)
		for _, elem := range s.items {
			if matchGlob(pattern, elem.Value.(*entry).key) {
				batch = append(batch, elem)
				if len(batch) == patternBatchLimit {
					break
				}
			}
		}
		for _, elem := range batch {
			s.removeLocked(elem, elem.Value.(*entry))
		}
		s.mu.Unlock()

		removed += len(batch)
		if len(batch) < patternBatchLimit {
			return removed
		}
	}
}

// SweepExpired removes every logically expired entry, in the same
// capped batches as DeletePattern. Called by the janitor; exported for
// callers that want an eager sweep. Returns the count removed.
func (s *Store) SweepExpired(now int64) int {
	removed := 0
	for {
		s.mu.Lock()
		batch := make([]*list.Element, 0, sweepBatchLimit)
		for _, elem := range s.items {
			if elem.Value.(*entry).expired(now) {
				batch = append(batch, elem)
				if len(batch) == sweepBatchLimit {
					break
				}
			}
		}
		for _, elem := range batch {
			s.removeLocked(elem, elem.Value.(*entry))
		}
		s.mu.Unlock()

		if n := len(batch); n > 0 {
			atomic.AddUint64(&s.stats.expired, uint64(n))
			removed += n
		}
		if len(batch) < sweepBatchLimit {
			return removed
		}
	}
}
