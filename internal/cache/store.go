package cache

import (
	"container/list"
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"
)

const (
	defaultSweepInterval    = time.Minute
	defaultOversizeFraction = 0.10

	// sweepBatchLimit caps how many expired entries a single janitor
	// lock acquisition may remove, so a sweep over a huge namespace
	// never holds the write lock for the whole pass.
	sweepBatchLimit = 1024

	// patternBatchLimit plays the same role for DeletePattern.
	patternBatchLimit = 256
)

// Config controls the bounds and maintenance behavior of a single Store.
//
// MaxEntries <= 0 means "no entry-count bound"; MaxMemoryBytes <= 0 means
// "no memory bound". SweepInterval 0 uses the default (one minute); a
// negative value disables the janitor entirely (lazy expiry still works).
type Config struct {
	MaxEntries     int
	MaxMemoryBytes int64
	SweepInterval  time.Duration

	// OversizeFraction is the share of MaxMemoryBytes a single value may
	// occupy before Set rejects it. 0 uses the default (0.10). Only
	// enforced when MaxMemoryBytes > 0.
	OversizeFraction float64

	// Sizer estimates a value's in-cache footprint. Nil uses the default
	// JSON byte-length estimator. The estimate is an approximation, not
	// heap accounting.
	Sizer SizerFunc

	Logger *log.Logger
}

// entry is the unit of storage. The list element owns it exclusively;
// prev/next links live inside *list.Element.
type entry struct {
	key       string
	value     any
	size      int64
	expiresAt int64 // unix nanos, 0 = never expires
}

func (e *entry) expired(now int64) bool {
	return e.expiresAt != 0 && now > e.expiresAt
}

// Store is a capacity- and memory-bounded LRU cache with per-entry TTL.
//
// One RWMutex guards the map and the recency list as a single unit: an
// entry is never observable in one but not the other. Counters are
// atomics so stats snapshots never contend with the mutation path.
type Store struct {
	mu    sync.RWMutex
	items map[string]*list.Element
	ll    *list.List // front = most recently used, back = LRU victim
	bytes int64

	maxEntries    int
	maxMemory     int64
	oversizeLimit int64
	sizer         SizerFunc
	logger        *log.Logger

	stats counters

	// Request coalescing for GetOrCompute.
	g singleflight.Group

	// Janitor ownership.
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	closed bool
}

// NewStore builds a Store and starts its janitor (unless disabled).
// The Store owns the janitor goroutine; call Close to stop it.
func NewStore(cfg Config) *Store {
	sweep := cfg.SweepInterval
	if sweep == 0 {
		sweep = defaultSweepInterval
	}
	frac := cfg.OversizeFraction
	if frac <= 0 {
		frac = defaultOversizeFraction
	}
	sizer := cfg.Sizer
	if sizer == nil {
		sizer = JSONSizer
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Store{
		items:      make(map[string]*list.Element),
		ll:         list.New(),
		maxEntries: cfg.MaxEntries,
		maxMemory:  cfg.MaxMemoryBytes,
		sizer:      sizer,
		logger:     logger,
		ctx:        ctx,
		cancel:     cancel,
	}
	if cfg.MaxMemoryBytes > 0 {
		s.oversizeLimit = int64(float64(cfg.MaxMemoryBytes) * frac)
	}

	if sweep > 0 {
		s.wg.Add(1)
		go s.janitorLoop(sweep)
	}
	return s
}

// Get returns the value for key, promoting it to most-recently-used.
// An expired entry is removed on the spot and reported as a miss.
//
// The stored value is returned as-is; callers must treat it as immutable.
// Reading never extends the TTL.
func (s *Store) Get(key string) (any, bool) {
	now := time.Now().UnixNano()

	s.mu.Lock()
	elem, ok := s.items[key]
	if !ok {
		s.mu.Unlock()
		atomic.AddUint64(&s.stats.misses, 1)
		return nil, false
	}
	ent := elem.Value.(*entry)
	if ent.expired(now) {
		s.removeLocked(elem, ent)
		atomic.AddUint64(&s.stats.expired, 1)
		s.mu.Unlock()
		atomic.AddUint64(&s.stats.misses, 1)
		return nil, false
	}
	s.ll.MoveToFront(elem)
	val := ent.value
	s.mu.Unlock()

	atomic.AddUint64(&s.stats.hits, 1)
	return val, true
}

// Set stores value under key with the given TTL (ttl <= 0 = no expiry).
//
// Returns false, without storing anything, when the size estimate fails
// or the value trips the oversize guard. A false return is a soft
// failure: callers recompute the value, nothing is thrown.
func (s *Store) Set(key string, value any, ttl time.Duration) bool {
	size, err := s.sizer(value)
	if err != nil {
		s.logger.Debug("cache: size estimation failed", "key", key, "err", err)
		return false
	}
	if s.oversizeLimit > 0 && size > s.oversizeLimit {
		s.logger.Debug("cache: value rejected by oversize guard",
			"key", key, "size", size, "limit", s.oversizeLimit)
		return false
	}

	var expiresAt int64
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl).UnixNano()
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false
	}

	// Re-set frees the old entry first so its memory credit and list
	// position never double-count.
	if elem, ok := s.items[key]; ok {
		s.removeLocked(elem, elem.Value.(*entry))
	}

	// Evict from the tail until both bounds hold. Both are checked in
	// one loop: freeing an entry for the count bound also frees bytes.
	for (s.maxEntries > 0 && len(s.items) >= s.maxEntries) ||
		(s.maxMemory > 0 && s.bytes+size > s.maxMemory) {
		tail := s.ll.Back()
		if tail == nil {
			break
		}
		s.removeLocked(tail, tail.Value.(*entry))
		atomic.AddUint64(&s.stats.evictions, 1)
	}

	ent := &entry{key: key, value: value, size: size, expiresAt: expiresAt}
	s.items[key] = s.ll.PushFront(ent)
	s.bytes += size
	s.mu.Unlock()

	atomic.AddUint64(&s.stats.sets, 1)
	return true
}

// Has reports whether key is present and unexpired. Like Get it removes
// an entry found expired, but it never promotes LRU order and never
// touches the hit/miss counters (peek, not touch).
func (s *Store) Has(key string) bool {
	now := time.Now().UnixNano()

	s.mu.RLock()
	elem, ok := s.items[key]
	if !ok {
		s.mu.RUnlock()
		return false
	}
	expired := elem.Value.(*entry).expired(now)
	s.mu.RUnlock()

	if !expired {
		return true
	}

	// Upgrade to the write lock and re-check: the entry may have been
	// re-set or removed between locks.
	s.mu.Lock()
	if elem, ok := s.items[key]; ok {
		ent := elem.Value.(*entry)
		if ent.expired(now) {
			s.removeLocked(elem, ent)
			atomic.AddUint64(&s.stats.expired, 1)
		}
	}
	s.mu.Unlock()
	return false
}

// Delete removes key and returns whether it existed.
func (s *Store) Delete(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	elem, ok := s.items[key]
	if !ok {
		return false
	}
	s.removeLocked(elem, elem.Value.(*entry))
	return true
}

// Clear drops every entry. Configuration and counters survive.
func (s *Store) Clear() {
	s.mu.Lock()
	s.items = make(map[string]*list.Element)
	s.ll.Init()
	s.bytes = 0
	s.mu.Unlock()
}

// Len returns the number of live entries, including ones that have
// logically expired but not yet been touched or swept.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// MemoryUsed returns the sum of size estimates over all entries.
func (s *Store) MemoryUsed() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bytes
}

// Close stops the janitor and drops the contents. Safe to call twice;
// the cancel fires exactly once.
func (s *Store) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	// Cancel outside the lock: the janitor acquires the same lock.
	s.cancel()
	s.wg.Wait()
	s.Clear()
}

// removeLocked unlinks an entry from both the map and the list and
// releases its memory credit. Caller holds the write lock.
func (s *Store) removeLocked(elem *list.Element, ent *entry) {
	delete(s.items, ent.key)
	s.ll.Remove(elem)
	s.bytes -= ent.size
}
