package bridge

import (
	"context"
	"sync"
	"time"
)

// seenSet remembers request ids for ttl so a request delivered on several
// transports runs once.
type seenSet struct {
	mu  sync.Mutex
	ttl time.Duration
	ids map[string]time.Time
}

func newSeenSet(ttl time.Duration) *seenSet {
	return &seenSet{ttl: ttl, ids: make(map[string]time.Time)}
}

// add reports whether id is new
func (s *seenSet) add(id string, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if at, ok := s.ids[id]; ok && now.Sub(at) < s.ttl {
		return false
	}
	s.ids[id] = now
	return true
}

func (s *seenSet) sweep(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, at := range s.ids {
		if now.Sub(at) >= s.ttl {
			delete(s.ids, id)
		}
	}
}

func (s *seenSet) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ids)
}

func (s *seenSet) run(ctx context.Context) {
	ticker := time.NewTicker(max(s.ttl/2, time.Millisecond))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.sweep(now)
		}
	}
}
