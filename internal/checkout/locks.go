package checkout

import "sync"

// sessionLocks serializes checkout submissions per session identity. Two
// browser tabs racing the gateway submission for one session take the same
// lock, so the loser observes the already-reset basket and fails its guards
// instead of producing a second order.
type sessionLocks struct {
	mu    sync.Mutex
	locks map[string]*sessionLock
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

func newSessionLocks() *sessionLocks {
	return &sessionLocks{locks: make(map[string]*sessionLock)}
}

// acquire locks the session and returns the release function. Lock entries are
// reference-counted and removed once the last holder releases, keeping the map
// bounded by the number of in-flight sessions.
func (s *sessionLocks) acquire(sessionID string) func() {
	s.mu.Lock()
	l, ok := s.locks[sessionID]
	if !ok {
		l = &sessionLock{}
		s.locks[sessionID] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()

	return func() {
		l.mu.Unlock()

		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, sessionID)
		}
		s.mu.Unlock()
	}
}
