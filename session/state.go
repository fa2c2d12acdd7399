package session

import (
	"fmt"
	"relay-chat/domain"
	"relay-chat/domain/event"
	"sync"
	"time"
)

// Snapshot is a consistent, read-only view of a session.
type Snapshot struct {
	Room       string
	Username   string
	Status     domain.Status
	Transcript Transcript
	Closed     bool
}

// state is the single mutable value behind a session. The lifecycle manager
// moves Status, the dispatcher grows Transcript; both go through this lock so
// a reader never sees a state without its matching error.
type state struct {
	mu       sync.RWMutex
	snap     Snapshot
	seq      uint64
	now      func() time.Time
	detached bool
	updates  chan struct{}
}

func newState(room, username string, now func() time.Time) *state {
	return &state{
		snap:    Snapshot{Room: room, Username: username},
		now:     now,
		updates: make(chan struct{}, 1),
	}
}

// apply folds a lifecycle event into the status. Events arriving after
// detach are dropped and false is returned.
func (s *state) apply(e event.Lifecycle) (domain.Status, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.detached {
		return s.snap.Status, false
	}
	s.snap.Status = domain.Apply(s.snap.Status, e)
	s.signal()
	return s.snap.Status, true
}

// fail records an error without touching the connection state.
func (s *state) fail(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.detached {
		return
	}
	s.snap.Status.LastError = msg
	s.signal()
}

// ingest appends one inbound payload. The id and receive time are taken
// under the lock so both follow arrival order.
func (s *state) ingest(p domain.Payload, body string) (domain.Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.detached {
		return domain.Message{}, false
	}
	s.seq++
	sentAt, _ := p.SentAt()
	msg := domain.Message{
		ID:         fmt.Sprintf("%s-%d", p.Username, s.seq),
		Author:     p.Username,
		Body:       body,
		SentAt:     sentAt,
		ReceivedAt: s.now(),
	}
	s.snap.Transcript = s.snap.Transcript.append(msg)
	s.signal()
	return msg, true
}

func (s *state) snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

func (s *state) status() (domain.Status, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.Status, s.detached
}

// detach stops every further mutation and closes the update channel.
// A pending signal is dropped first, so the next receive sees the close.
// It reports whether this call did the detaching.
func (s *state) detach() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.detached {
		return false
	}
	s.detached = true
	s.snap.Closed = true
	select {
	case <-s.updates:
	default:
	}
	close(s.updates)
	return true
}

// signal must be called with mu held. Notifications coalesce: a reader
// woken once picks up every change made before it takes its snapshot.
func (s *state) signal() {
	select {
	case s.updates <- struct{}{}:
	default:
	}
}
