package cache

import (
	"time"

	"github.com/charmbracelet/log"
)

// DefaultNamespace is the fallback store name used when a caller does
// not specify a namespace (or names one that was never configured).
const DefaultNamespace = "default"

// Registry holds the fixed set of independently bounded Stores, one per
// logical namespace. It is built once at process start and passed by
// reference to consumers; there is no package-level instance. Namespaces
// are never added or resized at runtime.
type Registry struct {
	stores map[string]*Store
	def    *Store
	logger *log.Logger
}

// NewRegistry builds one Store per table entry. A "default" entry is
// created from a zero Config if the table lacks one. The table is fixed:
// lookups for unknown names fall back to the default store rather than
// creating anything.
func NewRegistry(table map[string]Config, logger *log.Logger) *Registry {
	if logger == nil {
		logger = log.Default()
	}

	r := &Registry{
		stores: make(map[string]*Store, len(table)+1),
		logger: logger,
	}
	for name, cfg := range table {
		if cfg.Logger == nil {
			cfg.Logger = logger
		}
		r.stores[name] = NewStore(cfg)
	}
	if _, ok := r.stores[DefaultNamespace]; !ok {
		r.stores[DefaultNamespace] = NewStore(Config{Logger: logger})
	}
	r.def = r.stores[DefaultNamespace]
	return r
}

// Store resolves a namespace to its Store, falling back to the default
// for the empty string or an unconfigured name.
func (r *Registry) Store(namespace string) *Store {
	if namespace == "" {
		return r.def
	}
	if s, ok := r.stores[namespace]; ok {
		return s
	}
	return r.def
}

// Namespaces lists the configured namespace names.
func (r *Registry) Namespaces() []string {
	names := make([]string, 0, len(r.stores))
	for name := range r.stores {
		names = append(names, name)
	}
	return names
}

// Get reads key from the named namespace.
func (r *Registry) Get(key, namespace string) (any, bool) {
	return r.Store(namespace).Get(key)
}

// Set writes key into the named namespace.
func (r *Registry) Set(key string, value any, ttl time.Duration, namespace string) bool {
	return r.Store(namespace).Set(key, value, ttl)
}

// Has peeks at key in the named namespace.
func (r *Registry) Has(key, namespace string) bool {
	return r.Store(namespace).Has(key)
}

// Delete removes key from the named namespace.
func (r *Registry) Delete(key, namespace string) bool {
	return r.Store(namespace).Delete(key)
}

// DeletePattern removes all keys matching the glob from the named
// namespace and returns the count.
func (r *Registry) DeletePattern(pattern, namespace string) int {
	return r.Store(namespace).DeletePattern(pattern)
}

// Clear drops the contents of the named namespace.
func (r *Registry) Clear(namespace string) {
	r.Store(namespace).Clear()
}

// ClearAll drops the contents of every namespace.
func (r *Registry) ClearAll() {
	for _, s := range r.stores {
		s.Clear()
	}
}

// StatsFor returns the snapshot for one namespace; ok is false when the
// name was never configured (no default fallback here, so callers can
// distinguish "unknown namespace" from real numbers).
func (r *Registry) StatsFor(namespace string) (Stats, bool) {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	s, ok := r.stores[namespace]
	if !ok {
		return Stats{}, false
	}
	return s.Stats(), true
}

// StatsAll returns a namespace → snapshot map for every store.
func (r *Registry) StatsAll() map[string]Stats {
	out := make(map[string]Stats, len(r.stores))
	for name, s := range r.stores {
		out[name] = s.Stats()
	}
	return out
}

// Close tears down every store, cancelling each janitor exactly once.
func (r *Registry) Close() {
	for _, s := range r.stores {
		s.Close()
	}
}
