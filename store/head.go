package store

import (
	"github.com/strandhq/strand/types"
)

// Head returns the most recently appended frame with the given topic, or
// nil when no such frame exists.
//
// Steady state is an O(1) cache hit: the cache entry for a topic is
// rewritten on every append to it. A cold miss falls back to a reverse
// scan (newest first) that stops at the first match, then primes the
// cache.
func (s *Store) Head(topic string) (*types.Frame, error) {
	s.headMu.Lock()
	if f, ok := s.heads[topic]; ok {
		s.headMu.Unlock()
		return f, nil
	}
	s.headMu.Unlock()

	var found *types.Frame
	err := s.part.Scan(nil, true, func(_, value []byte) (bool, error) {
		f, err := decodeRecord(value)
		if err != nil {
			return false, err
		}
		if f.Topic == topic {
			found = f
			return false, nil
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, nil
	}

	s.headMu.Lock()
	// An append may have raced the scan; keep whichever is newer.
	if cached, ok := s.heads[topic]; !ok || lessID(cached.ID, found.ID) {
		s.heads[topic] = found
	}
	found = s.heads[topic]
	s.headMu.Unlock()
	return found, nil
}

// lessID reports a < b in raw-byte (allocation) order.
func lessID(a, b types.FrameID) bool {
	for i := 0; i < len(a); i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}
