package cache

import "sync/atomic"

// counters holds the per-store counters. All fields are touched with
// sync/atomic only, so snapshots never block the mutation path.
type counters struct {
	hits      uint64
	misses    uint64
	sets      uint64
	evictions uint64
	expired   uint64
}

// Stats is an immutable snapshot of a Store's counters and occupancy.
// It never aliases the live counters.
type Stats struct {
	Hits      uint64 `json:"hits"`
	Misses    uint64 `json:"misses"`
	Sets      uint64 `json:"sets"`
	Evictions uint64 `json:"evictions"`
	Expired   uint64 `json:"expired"`

	Entries        int   `json:"entries"`
	Bytes          int64 `json:"bytes"`
	MaxEntries     int   `json:"max_entries"`
	MaxMemoryBytes int64 `json:"max_memory_bytes"`

	// HitRate is a percentage in [0, 100]; 0 when no reads happened.
	HitRate float64 `json:"hit_rate"`
}

// Stats returns a point-in-time snapshot.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	entries := len(s.items)
	bytes := s.bytes
	s.mu.RUnlock()

	st := Stats{
		Hits:           atomic.LoadUint64(&s.stats.hits),
		Misses:         atomic.LoadUint64(&s.stats.misses),
		Sets:           atomic.LoadUint64(&s.stats.sets),
		Evictions:      atomic.LoadUint64(&s.stats.evictions),
		Expired:        atomic.LoadUint64(&s.stats.expired),
		Entries:        entries,
		Bytes:          bytes,
		MaxEntries:     s.maxEntries,
		MaxMemoryBytes: s.maxMemory,
	}
	if total := st.Hits + st.Misses; total > 0 {
		st.HitRate = float64(st.Hits) / float64(total) * 100
	}
	return st
}
