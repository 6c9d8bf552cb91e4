// Package statex is a small single-writer state container.
//
// A Store owns one value of type S. Every change is an Action applied by a
// pure Reducer on the store's own goroutine, in dispatch order, so readers
// never observe a half-applied transition and no caller ever writes the
// state directly. Subscribers receive value snapshots after each action.
package statex

import (
	"log/slog"
	"sync"
	"sync/atomic"
)

// Action is a named state transition request.
type Action interface {
	Type() string
}

// Reducer computes the next state. It must not block or mutate state shared
// with the previous value.
type Reducer[S any] func(state S, action Action) S

type envelope[S any] struct {
	action Action
	reply  chan S
}

// Store serialises actions through a Reducer.
type Store[S any] struct {
	reduce  Reducer[S]
	actions chan envelope[S]
	done    chan struct{}
	stopped chan struct{}
	once    sync.Once
	current atomic.Pointer[S]
	logger  *slog.Logger

	mu      sync.Mutex
	subs    map[int]chan S
	nextSub int
}

// Option configures a Store.
type Option func(*options)

type options struct {
	logger *slog.Logger
}

// WithLogger logs every applied action at debug level.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// New starts a store holding initial. Call Close to stop it.
func New[S any](initial S, reduce Reducer[S], opts ...Option) *Store[S] {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	s := &Store[S]{
		reduce:  reduce,
		actions: make(chan envelope[S]),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
		logger:  o.logger,
		subs:    make(map[int]chan S),
	}
	s.current.Store(&initial)

	go s.run(initial)
	return s
}

func (s *Store[S]) run(state S) {
	defer close(s.stopped)

	for {
		select {
		case env := <-s.actions:
			state = s.reduce(state, env.action)
			snapshot := state
			s.current.Store(&snapshot)

			if s.logger != nil {
				s.logger.Debug("state action applied", "action", env.action.Type())
			}

			s.publish(snapshot)
			env.reply <- snapshot
		case <-s.done:
			return
		}
	}
}

// publish hands the latest state to each subscriber. Subscribers that have
// not consumed the previous snapshot get it replaced, never queued.
func (s *Store[S]) publish(state S) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, ch := range s.subs {
		select {
		case ch <- state:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- state:
			default:
			}
		}
	}
}

// Dispatch applies a and returns the resulting state. After Close it returns
// the final state without applying a.
func (s *Store[S]) Dispatch(a Action) S {
	reply := make(chan S, 1)

	select {
	case s.actions <- envelope[S]{action: a, reply: reply}:
	case <-s.done:
		return s.State()
	}

	select {
	case st := <-reply:
		return st
	case <-s.stopped:
		return s.State()
	}
}

// State returns the latest applied state.
func (s *Store[S]) State() S {
	return *s.current.Load()
}

// Subscribe returns a channel that always holds the newest state not yet
// received, and a function that cancels the subscription.
func (s *Store[S]) Subscribe() (<-chan S, func()) {
	ch := make(chan S, 1)

	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if _, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(ch)
			}
		})
	}
	return ch, cancel
}

// Close stops the store and closes every subscription.
func (s *Store[S]) Close() {
	s.once.Do(func() {
		close(s.done)
		<-s.stopped

		s.mu.Lock()
		defer s.mu.Unlock()
		for id, ch := range s.subs {
			delete(s.subs, id)
			close(ch)
		}
	})
}
