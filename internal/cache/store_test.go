package cache

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"
)

// newTestStore builds a store without a janitor so tests control expiry
// removal themselves.
func newTestStore(cfg Config) *Store {
	cfg.SweepInterval = -1
	return NewStore(cfg)
}

func TestSetGetDelete(t *testing.T) {
	s := newTestStore(Config{})
	defer s.Close()

	if !s.Set("hello", "world", time.Minute) {
		t.Fatalf("expected Set to succeed")
	}

	got, ok := s.Get("hello")
	if !ok {
		t.Fatalf("expected key present")
	}
	if got.(string) != "world" {
		t.Fatalf("unexpected value: %v", got)
	}

	if !s.Delete("hello") {
		t.Fatalf("expected Delete to report existing key")
	}
	if s.Delete("hello") {
		t.Fatalf("expected Delete to report missing key")
	}
	if _, ok := s.Get("hello"); ok {
		t.Fatalf("expected key deleted")
	}
}

func TestEvictsExactlyLeastRecentlyUsed(t *testing.T) {
	s := newTestStore(Config{MaxEntries: 3})
	defer s.Close()

	s.Set("a", 1, time.Hour)
	s.Set("b", 2, time.Hour)
	s.Set("c", 3, time.Hour)

	// Touch a and c so b becomes the LRU victim.
	if _, ok := s.Get("a"); !ok {
		t.Fatalf("expected a present")
	}
	if _, ok := s.Get("c"); !ok {
		t.Fatalf("expected c present")
	}

	s.Set("d", 4, time.Hour)

	if _, ok := s.Get("b"); ok {
		t.Fatalf("expected b evicted as LRU victim")
	}
	for _, k := range []string{"a", "c", "d"} {
		if _, ok := s.Get(k); !ok {
			t.Fatalf("expected %q to survive eviction", k)
		}
	}
	if got := s.Stats().Evictions; got != 1 {
		t.Fatalf("expected exactly 1 eviction, got %d", got)
	}
}

func TestTTLLazyExpiry(t *testing.T) {
	s := newTestStore(Config{})
	defer s.Close()

	s.Set("temp", "v", 30*time.Millisecond)

	if _, ok := s.Get("temp"); !ok {
		t.Fatalf("expected key present before expiry")
	}

	time.Sleep(60 * time.Millisecond)

	if s.Has("temp") {
		t.Fatalf("expected Has to report expired key absent")
	}
	// Has removed it physically on first touch.
	if s.Len() != 0 {
		t.Fatalf("expected expired entry physically removed, len=%d", s.Len())
	}
	if _, ok := s.Get("temp"); ok {
		t.Fatalf("expected Get to report expired key absent")
	}
}

func TestHasDoesNotPromote(t *testing.T) {
	s := newTestStore(Config{MaxEntries: 2})
	defer s.Close()

	s.Set("old", 1, time.Hour)
	s.Set("new", 2, time.Hour)

	// Peeking at "old" must not rescue it from the tail.
	if !s.Has("old") {
		t.Fatalf("expected old present")
	}
	s.Set("next", 3, time.Hour)

	if _, ok := s.Get("old"); ok {
		t.Fatalf("expected old evicted despite Has peek")
	}
	if _, ok := s.Get("new"); !ok {
		t.Fatalf("expected new to survive")
	}
}

func TestOversizeGuardRejects(t *testing.T) {
	// 1 MB budget, 10% fraction => anything over ~100 KB is rejected.
	s := newTestStore(Config{MaxMemoryBytes: 1 << 20})
	defer s.Close()

	big := strings.Repeat("x", 200<<10)
	if s.Set("big", big, time.Minute) {
		t.Fatalf("expected oversize value rejected")
	}
	if s.Len() != 0 || s.MemoryUsed() != 0 {
		t.Fatalf("rejected value must not be stored")
	}

	if !s.Set("small", strings.Repeat("x", 1024), time.Minute) {
		t.Fatalf("expected small value accepted")
	}
}

func TestSetUnserializableReturnsFalse(t *testing.T) {
	s := newTestStore(Config{})
	defer s.Close()

	if s.Set("ch", make(chan int), time.Minute) {
		t.Fatalf("expected unserializable value to return false")
	}
	if s.Has("ch") {
		t.Fatalf("failed Set must not leave an entry behind")
	}
}

func TestMemoryBoundEnforcedTogether(t *testing.T) {
	s := newTestStore(Config{MaxEntries: 100, MaxMemoryBytes: 100, OversizeFraction: 1})
	defer s.Close()

	// Each value is a 20-byte string => 22 bytes JSON-encoded.
	for i := 0; i < 10; i++ {
		if !s.Set(fmt.Sprintf("k-%02d", i), strings.Repeat("v", 20), time.Hour) {
			t.Fatalf("set %d failed", i)
		}
		if s.MemoryUsed() > 100 {
			t.Fatalf("memory bound violated after set %d: %d", i, s.MemoryUsed())
		}
	}
	if s.Stats().Evictions == 0 {
		t.Fatalf("expected evictions under memory pressure")
	}
}

func TestResetSameKeyDoesNotDoubleCount(t *testing.T) {
	s := newTestStore(Config{})
	defer s.Close()

	s.Set("k", strings.Repeat("a", 100), time.Minute)
	s.Set("k", strings.Repeat("b", 10), time.Minute)

	if s.Len() != 1 {
		t.Fatalf("expected exactly one entry, got %d", s.Len())
	}
	// JSON encoding of a 10-char string is 12 bytes.
	if got := s.MemoryUsed(); got != 12 {
		t.Fatalf("expected memory counter to track only the new value, got %d", got)
	}

	got, ok := s.Get("k")
	if !ok || got.(string) != strings.Repeat("b", 10) {
		t.Fatalf("expected latest value, got %v", got)
	}
}

func TestClear(t *testing.T) {
	s := newTestStore(Config{})
	defer s.Close()

	for i := 0; i < 5; i++ {
		s.Set(fmt.Sprintf("k-%d", i), i, time.Minute)
	}
	setsBefore := s.Stats().Sets

	s.Clear()

	if s.Len() != 0 || s.MemoryUsed() != 0 {
		t.Fatalf("expected empty store after Clear")
	}
	for i := 0; i < 5; i++ {
		if _, ok := s.Get(fmt.Sprintf("k-%d", i)); ok {
			t.Fatalf("expected key absent after Clear")
		}
	}
	// Counters survive Clear.
	if s.Stats().Sets != setsBefore {
		t.Fatalf("Clear must not reset counters")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	s := NewStore(Config{SweepInterval: 10 * time.Millisecond})
	s.Set("k", "v", time.Minute)

	s.Close()
	s.Close()

	if s.Len() != 0 {
		t.Fatalf("expected contents dropped on Close")
	}
	if s.Set("k", "v", time.Minute) {
		t.Fatalf("expected Set to fail after Close")
	}
}

func TestConcurrentAccess(t *testing.T) {
	s := newTestStore(Config{MaxEntries: 64, MaxMemoryBytes: 1 << 20})
	defer s.Close()

	const goroutines = 32
	const opsPer = 500

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for g := 0; g < goroutines; g++ {
		go func(id int) {
			defer wg.Done()
			for i := 0; i < opsPer; i++ {
				k := fmt.Sprintf("k-%d", i%100)
				s.Set(k, id*opsPer+i, time.Minute)
				s.Get(k)
				if i%10 == 0 {
					s.Delete(k)
				}
				if i%25 == 0 {
					s.Has(k)
				}
			}
		}(g)
	}
	wg.Wait()

	st := s.Stats()
	if st.Entries > 64 {
		t.Fatalf("entry bound violated: %d", st.Entries)
	}
	if st.Bytes != s.MemoryUsed() {
		t.Fatalf("stats bytes diverged from counter")
	}
}
