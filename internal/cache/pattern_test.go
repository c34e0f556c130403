package cache

import (
	"fmt"
	"testing"
	"time"
)

func TestMatchGlob(t *testing.T) {
	cases := []struct {
		pattern string
		s       string
		want    bool
	}{
		{"tenant:1:tickets:search%", "tenant:1:tickets:search:page=1", true},
		{"tenant:1:tickets:search%", "tenant:1:tickets:search", true},
		{"tenant:1:tickets:search%", "tenant:2:tickets:search:page=1", false},
		{"%", "", true},
		{"%", "anything", true},
		{"", "", true},
		{"", "x", false},
		{"a?c", "abc", true},
		{"a?c", "ac", false},
		{"a?c", "abbc", false},
		{"%:ticket:%", "tenant:9:ticket:42", true},
		{"%42", "tenant:9:ticket:42", true},
		{"ticket", "ticket", true},
		{"ticket", "tickets", false},

		// Regex metacharacters must match literally, never as regex.
		{"tenant:1:a.b%", "tenant:1:a.b:x", true},
		{"tenant:1:a.b%", "tenant:1:aXb:x", false},
		{"k[1]%", "k[1]:v", true},
		{"k[1]%", "k1:v", false},
		{"(p)?", "(p)q", true},

		// Multiple wildcards with backtracking.
		{"%abc%abc", "zabcabcabc", true},
		{"%abc%xyz", "zabcabc", false},
	}

	for _, tc := range cases {
		if got := matchGlob(tc.pattern, tc.s); got != tc.want {
			t.Errorf("matchGlob(%q, %q) = %v, want %v", tc.pattern, tc.s, got, tc.want)
		}
	}
}

func TestDeletePatternScopesToPrefix(t *testing.T) {
	s := newTestStore(Config{})
	defer s.Close()

	for tenant := 1; tenant <= 2; tenant++ {
		for page := 0; page < 5; page++ {
			key := fmt.Sprintf("tenant:%d:tickets:search:page=%d", tenant, page)
			s.Set(key, page, time.Minute)
		}
		s.Set(fmt.Sprintf("tenant:%d:user:7", tenant), "u", time.Minute)
	}

	removed := s.DeletePattern("tenant:1:tickets:search%")
	if removed != 5 {
		t.Fatalf("expected 5 removals, got %d", removed)
	}

	// Tenant 2 and non-search tenant 1 keys are untouched.
	for page := 0; page < 5; page++ {
		if !s.Has(fmt.Sprintf("tenant:2:tickets:search:page=%d", page)) {
			t.Fatalf("tenant 2 key removed by tenant 1 pattern")
		}
	}
	if !s.Has("tenant:1:user:7") {
		t.Fatalf("unrelated tenant 1 key removed")
	}
}

func TestDeletePatternLargeBatch(t *testing.T) {
	s := newTestStore(Config{})
	defer s.Close()

	// More matches than one batch so the loop takes several passes.
	n := patternBatchLimit*2 + 17
	for i := 0; i < n; i++ {
		s.Set(fmt.Sprintf("bulk:%d", i), i, time.Minute)
	}
	s.Set("keep:me", 1, time.Minute)

	if removed := s.DeletePattern("bulk:%"); removed != n {
		t.Fatalf("expected %d removals, got %d", n, removed)
	}
	if s.Len() != 1 || !s.Has("keep:me") {
		t.Fatalf("expected only the unmatched key to remain")
	}
}

func TestDeletePatternNoMatches(t *testing.T) {
	s := newTestStore(Config{})
	defer s.Close()

	s.Set("a", 1, time.Minute)
	if removed := s.DeletePattern("z%"); removed != 0 {
		t.Fatalf("expected 0 removals, got %d", removed)
	}
}
