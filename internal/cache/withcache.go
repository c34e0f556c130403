package cache

import (
	"context"
	"time"
)

// Producer computes a value on a cache miss. It may be slow; it is
// always invoked outside the store's lock.
type Producer func(ctx context.Context) (any, error)

// Options configures a WithCache call.
type Options struct {
	TTL       time.Duration
	Namespace string
}

// WithCache is the read-through helper: a hit returns the cached value
// without invoking the producer; a miss runs the producer, stores the
// result best-effort and returns it. Concurrent misses of the same key
// are coalesced so the producer runs at most once per miss.
func (r *Registry) WithCache(ctx context.Context, key string, producer Producer, opts Options) (any, error) {
	return r.Store(opts.Namespace).GetOrCompute(ctx, key, opts.TTL, producer)
}

// GetOrCompute merges concurrent misses of the same key into a single
// producer call (request coalescing, same mechanics as the usual
// thundering-herd guard). The store lock is held only for the O(1)
// bookkeeping inside Get/Set, never across the producer.
func (s *Store) GetOrCompute(ctx context.Context, key string, ttl time.Duration, producer Producer) (any, error) {
	if v, ok := s.Get(key); ok {
		return v, nil
	}

	// DoChan rather than Do so a cancelled caller can stop waiting
	// without aborting the shared computation.
	ch := s.g.DoChan(key, func() (any, error) {
		v, err := producer(ctx)
		if err != nil {
			return nil, err
		}
		// Best-effort: an oversize or unserializable result is
		// still returned to the caller, just not cached.
		s.Set(key, v, ttl)
		return v, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
