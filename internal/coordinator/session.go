package coordinator

import "sync/atomic"

// Session is the formatting state of one open document. Its latch is held
// for the whole of a pass, including the application of the change.
type Session struct {
	Key  string
	busy atomic.Bool
}

func NewSession(key string) *Session {
	return &Session{Key: key}
}

// Busy reports whether a pass currently holds the latch.
func (s *Session) Busy() bool {
	return s.busy.Load()
}

func (s *Session) tryAcquire() bool {
	return s.busy.CompareAndSwap(false, true)
}

func (s *Session) release() {
	s.busy.Store(false)
}
