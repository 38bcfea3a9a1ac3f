package state

import (
	"sync"
	"sync/atomic"

	"github.com/hammamikhairi/recipebox/internal/logger"
)

// Listener receives the state snapshot produced by a dispatch.
type Listener func(State)

// Option configures the Store.
type Option func(*Store)

// WithInitialState seeds the store with s instead of Initial().
func WithInitialState(s State) Option {
	return func(st *Store) { st.state = s }
}

type subscription struct {
	id int
	fn Listener
}

// Store owns the state tree. Dispatch is safe from any goroutine. Each
// event is reduced before Dispatch returns, so State always reflects the
// caller's own event. Listeners are called outside the lock, one snapshot
// at a time, in dispatch order and subscription order. A listener may
// dispatch; its snapshot is delivered after the current one.
type Store struct {
	mu        sync.Mutex
	state     State
	pending   []notification
	notifying bool
	listeners []subscription
	nextID    int
	seq       atomic.Uint64
	log       *logger.Logger
}

// notification is a reduced snapshot waiting to be broadcast.
type notification struct {
	ev   Event
	snap State
}

// NewStore creates a store holding Initial().
func NewStore(log *logger.Logger, opts ...Option) *Store {
	s := &Store{state: Initial(), log: log}
	for _, o := range opts {
		o(s)
	}
	return s
}

// State returns the current snapshot.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// NextSeq hands out the sequence number for a new request. Numbers are
// strictly increasing for the lifetime of the store.
func (s *Store) NextSeq() uint64 {
	return s.seq.Add(1)
}

// Subscribe registers fn and returns a function that removes it.
func (s *Store) Subscribe(fn Listener) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := s.nextID
	s.listeners = append(s.listeners, subscription{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			out := make([]subscription, 0, len(s.listeners))
			for _, l := range s.listeners {
				if l.id != id {
					out = append(out, l)
				}
			}
			s.listeners = out
		})
	}
}

// Dispatch applies ev and queues the resulting snapshot. If no other
// dispatch is broadcasting, the caller delivers the queue to the listeners
// before returning.
func (s *Store) Dispatch(ev Event) {
	s.mu.Lock()
	if isStale(s.state, ev) {
		s.mu.Unlock()
		s.log.Debug("store: dropped stale %s %s (seq=%d)", ev.Op, ev.Phase, ev.Seq)
		return
	}
	s.state = Reduce(s.state, ev)
	s.pending = append(s.pending, notification{ev: ev, snap: s.state})
	if s.notifying {
		s.mu.Unlock()
		return
	}
	s.notifying = true

	for len(s.pending) > 0 {
		next := s.pending[0]
		s.pending = s.pending[1:]
		listeners := s.listeners
		s.mu.Unlock()

		s.log.Debug("store: %s %s (seq=%d)", next.ev.Op, next.ev.Phase, next.ev.Seq)
		for _, l := range listeners {
			l.fn(next.snap)
		}

		s.mu.Lock()
	}

	s.pending = nil
	s.notifying = false
	s.mu.Unlock()
}
