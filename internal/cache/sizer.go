package cache

import "encoding/json"

// SizerFunc estimates a value's byte footprint. The estimate drives the
// memory bound and the oversize guard; it is an approximation of the
// serialized size, not true heap cost.
type SizerFunc func(v any) (int64, error)

// JSONSizer is the default estimator: the length of the value's JSON
// encoding. Values that cannot be marshaled (channels, funcs, cyclic
// structures) return an error, which Set turns into a soft false.
func JSONSizer(v any) (int64, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return 0, err
	}
	return int64(len(b)), nil
}
