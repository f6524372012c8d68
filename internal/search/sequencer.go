package search

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultSessionTTL is how long an idle session is remembered.
	DefaultSessionTTL = 10 * time.Minute

	// DefaultMaxSessions caps the number of sessions tracked at once.
	DefaultMaxSessions = 10000
)

// Ticket identifies one in-flight search issued through a Sequencer.
type Ticket struct {
	Seq uint64
	ID  string
}

type sessionState struct {
	seq       uint64
	expiresAt time.Time
}

// Sequencer hands out monotonically increasing tickets per session key so a
// caller can drop responses that were overtaken by a newer query.
//
// Sessions expire after being idle for the configured TTL. Expired sessions
// are swept lazily from Next, and when the session cap is reached the least
// recently used session is evicted.
type Sequencer struct {
	mu          sync.Mutex
	sessions    map[string]sessionState
	ttl         time.Duration
	maxSessions int
	now         func() time.Time
	nextSweep   time.Time
}

// SequencerOption configures a Sequencer.
type SequencerOption func(*Sequencer)

// WithSessionTTL sets the idle time after which a session is forgotten.
func WithSessionTTL(ttl time.Duration) SequencerOption {
	return func(s *Sequencer) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithMaxSessions caps the number of tracked sessions.
func WithMaxSessions(n int) SequencerOption {
	return func(s *Sequencer) {
		if n > 0 {
			s.maxSessions = n
		}
	}
}

// WithSequencerClock sets the time source.
func WithSequencerClock(now func() time.Time) SequencerOption {
	return func(s *Sequencer) {
		if now != nil {
			s.now = now
		}
	}
}

// NewSequencer creates an empty sequencer.
func NewSequencer(opts ...SequencerOption) *Sequencer {
	s := &Sequencer{
		sessions:    make(map[string]sessionState),
		ttl:         DefaultSessionTTL,
		maxSessions: DefaultMaxSessions,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Next issues a new ticket for session, superseding all earlier ones.
func (s *Sequencer) Next(session string) Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if !now.Before(s.nextSweep) {
		s.evictExpired(now)
		s.nextSweep = now.Add(s.ttl / 2)
	}

	state, ok := s.sessions[session]
	if ok && now.After(state.expiresAt) {
		state = sessionState{}
		ok = false
	}
	if !ok && len(s.sessions) >= s.maxSessions {
		s.evictExpired(now)
		if len(s.sessions) >= s.maxSessions {
			s.evictOldest()
		}
	}

	state.seq++
	state.expiresAt = now.Add(s.ttl)
	s.sessions[session] = state
	return Ticket{Seq: state.seq, ID: uuid.NewString()}
}

// IsLatest reports whether t is still the newest ticket of session.
func (s *Sequencer) IsLatest(session string, t Ticket) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.sessions[session]
	return ok && state.seq == t.Seq && !s.now().After(state.expiresAt)
}

// Forget drops the state of a session.
func (s *Sequencer) Forget(session string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, session)
}

// Len returns the number of tracked sessions, expired ones not yet swept
// included.
func (s *Sequencer) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Sequencer) evictExpired(now time.Time) {
	for key, state := range s.sessions {
		if now.After(state.expiresAt) {
			delete(s.sessions, key)
		}
	}
}

// evictOldest drops the session closest to expiry, which is the one used
// least recently.
func (s *Sequencer) evictOldest() {
	var (
		oldest    string
		oldestExp time.Time
		found     bool
	)
	for key, state := range s.sessions {
		if !found || state.expiresAt.Before(oldestExp) {
			oldest, oldestExp, found = key, state.expiresAt, true
		}
	}
	if found {
		delete(s.sessions, oldest)
	}
}
