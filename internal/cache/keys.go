package cache

import (
	"fmt"
	"sort"
	"strings"
)

// Params carries the named parameters of a cache key.
type Params map[string]any

// Key builds a deterministic cache key from a prefix and named
// parameters. Parameter names are sorted lexicographically before
// concatenation, so two Params with identical content always produce
// the same key regardless of insertion order.
//
//	Key("tenant:7:tickets:search", Params{"status": "open", "page": 2})
//	→ "tenant:7:tickets:search:page=2:status=open"
func Key(prefix string, params Params) string {
	if len(params) == 0 {
		return prefix
	}

	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(prefix)
	for _, name := range names {
		b.WriteByte(':')
		b.WriteString(name)
		b.WriteByte('=')
		fmt.Fprintf(&b, "%v", params[name])
	}
	return b.String()
}
