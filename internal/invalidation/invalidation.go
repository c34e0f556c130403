// Package invalidation maps domain entities to the cache keys that must
// die when they change. The mapping is a declarative table, so the cache
// itself stays domain-agnostic and new entity kinds are one table entry,
// not new code.
package invalidation

import (
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/hivedesk/hivecache/internal/cache"
)

// Target names one namespace and the key patterns to drop in it.
// Patterns may contain the {tenant} and {id} placeholders; after
// substitution, a pattern containing '%' or '?' goes through
// DeletePattern, anything else is a plain Delete.
type Target struct {
	Namespace string
	Patterns  []string
}

// Rules maps an entity kind to its invalidation targets.
type Rules map[string][]Target

// DefaultRules covers the helpdesk entities. Key shapes follow the
// tenant-scoped convention used by the query layers:
// "tenant:<tenant>:<entity>:<id>" for single records and
// "tenant:<tenant>:<entity>s:..." for derived lists and searches.
func DefaultRules() Rules {
	return Rules{
		"ticket": {
			{Namespace: cache.DefaultNamespace, Patterns: []string{
				"tenant:{tenant}:ticket:{id}",
				"tenant:{tenant}:tickets:%",
			}},
			{Namespace: "search-results", Patterns: []string{
				"tenant:{tenant}:tickets:search%",
			}},
		},
		"user": {
			{Namespace: cache.DefaultNamespace, Patterns: []string{
				"tenant:{tenant}:user:{id}",
				"tenant:{tenant}:users:%",
			}},
			{Namespace: "search-results", Patterns: []string{
				"tenant:{tenant}:users:search%",
			}},
		},
		// Tenant-wide wipe: everything the tenant ever cached, in
		// every namespace that holds tenant-scoped keys.
		"tenant": {
			{Namespace: cache.DefaultNamespace, Patterns: []string{"tenant:{tenant}:%"}},
			{Namespace: "search-results", Patterns: []string{"tenant:{tenant}:%"}},
			{Namespace: "lookup-tables", Patterns: []string{"tenant:{tenant}:%"}},
		},
		"search": {
			{Namespace: "search-results", Patterns: []string{"tenant:{tenant}:%"}},
		},
	}
}

// Invalidator fans domain invalidations out across the registry.
type Invalidator struct {
	registry *cache.Registry
	rules    Rules
	logger   *log.Logger
}

// New builds an Invalidator. A nil rules table gets DefaultRules.
func New(registry *cache.Registry, rules Rules, logger *log.Logger) *Invalidator {
	if rules == nil {
		rules = DefaultRules()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Invalidator{registry: registry, rules: rules, logger: logger}
}

// Invalidate drops everything related to the given entity in the given
// tenant and returns the number of entries removed. Unknown kinds
// remove nothing; a stale cache entry is always recomputable, so this
// degrades softly instead of failing.
func (inv *Invalidator) Invalidate(kind, id, tenant string) int {
	targets, ok := inv.rules[kind]
	if !ok {
		inv.logger.Warn("invalidation: unknown entity kind", "kind", kind)
		return 0
	}

	start := time.Now()
	total := 0
	for _, target := range targets {
		for _, pattern := range target.Patterns {
			key := expand(pattern, id, tenant)
			if strings.ContainsAny(key, "%?") {
				total += inv.registry.DeletePattern(key, target.Namespace)
			} else if inv.registry.Delete(key, target.Namespace) {
				total++
			}
		}
	}

	inv.logger.Debug("invalidation: done",
		"kind", kind, "id", id, "tenant", tenant,
		"removed", total, "elapsed", time.Since(start))
	return total
}

func expand(pattern, id, tenant string) string {
	pattern = strings.ReplaceAll(pattern, "{tenant}", tenant)
	return strings.ReplaceAll(pattern, "{id}", id)
}
