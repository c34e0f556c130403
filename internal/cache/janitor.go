package cache

import "time"

// janitorLoop periodically sweeps lazily-expired entries so dead weight
// between accesses stays bounded. Correctness never depends on it:
// Get/Has detect expiry on their own.
func (s *Store) janitorLoop(interval time.Duration) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			if n := s.SweepExpired(time.Now().UnixNano()); n > 0 {
				s.logger.Debug("cache: janitor sweep", "removed", n)
			}
		}
	}
}
