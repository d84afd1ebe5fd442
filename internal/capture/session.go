package capture

import "time"

// Session is the ordered, append-only log of key transitions for one
// sentence attempt. The zero-point is the clock reading of the first
// recorded event, so the first event always carries T == 0.
//
// A Session is not safe for concurrent use. It is owned by a single event
// loop; background sources must hand their transitions to that loop.
type Session struct {
	events []KeyEvent
	zero   time.Time
	clock  func() time.Time
}

// Option configures a Session.
type Option func(*Session)

// WithClock overrides the clock used for timestamps. The default is
// time.Now, whose monotonic reading makes elapsed times immune to wall-clock
// adjustments.
func WithClock(clock func() time.Time) Option {
	return func(s *Session) { s.clock = clock }
}

// NewSession creates an empty capture session.
func NewSession(opts ...Option) *Session {
	s := &Session{clock: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// KeyDown records a key press. A press on an empty session starts the
// session clock.
func (s *Session) KeyDown(key string) KeyEvent {
	return s.Record(Down, key)
}

// KeyUp records a key release. A release only starts the clock when it is
// the first event of the session, e.g. a key held across a reset.
func (s *Session) KeyUp(key string) KeyEvent {
	return s.Record(Up, key)
}

// Record appends a transition of the given type and returns the stored event.
func (s *Session) Record(typ EventType, key string) KeyEvent {
	now := s.clock()
	if len(s.events) == 0 {
		s.zero = now
	}

	elapsed := float64(now.Sub(s.zero)) / float64(time.Millisecond)
	if elapsed < 0 {
		elapsed = 0
	}

	e := KeyEvent{Key: key, T: elapsed, Type: typ}
	s.events = append(s.events, e)
	return e
}

// Events returns a copy of the recorded events in insertion order.
func (s *Session) Events() []KeyEvent {
	out := make([]KeyEvent, len(s.events))
	copy(out, s.events)
	return out
}

// Tail returns a copy of at most the last n events.
func (s *Session) Tail(n int) []KeyEvent {
	if n <= 0 || len(s.events) == 0 {
		return nil
	}
	start := len(s.events) - n
	if start < 0 {
		start = 0
	}
	out := make([]KeyEvent, len(s.events)-start)
	copy(out, s.events[start:])
	return out
}

// Len returns the number of recorded events.
func (s *Session) Len() int {
	return len(s.events)
}

// Reset empties the session. The next key press starts a new clock.
func (s *Session) Reset() {
	s.events = nil
}
