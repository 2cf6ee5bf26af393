package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

var ErrStoreStopped = errors.New("session store is stopped")

// Store owns the session state. A single goroutine applies actions in
// arrival order; everything else talks to it through channels.
type Store struct {
	ops      chan op
	quit     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	started  sync.Once

	// owned by run
	state State
	subs  map[*subscriber]struct{}
}

type op struct {
	action Action
	reply  chan State
	sub    *subscriber
	unsub  *subscriber
}

type subscriber struct {
	ch chan State
}

func NewStore(initial State) *Store {
	return &Store{
		ops:   make(chan op),
		quit:  make(chan struct{}),
		done:  make(chan struct{}),
		state: initial,
		subs:  make(map[*subscriber]struct{}),
	}
}

// Start launches the owning goroutine. Calling it more than once is a no-op.
func (s *Store) Start() {
	s.started.Do(func() {
		go s.run()
	})
}

// Stop terminates the owning goroutine and closes every subscription.
func (s *Store) Stop(ctx context.Context) error {
	s.stopOnce.Do(func() {
		close(s.quit)
	})

	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Dispatch applies a and returns the resulting state.
func (s *Store) Dispatch(ctx context.Context, a Action) (State, error) {
	if a == nil {
		return s.Snapshot(ctx)
	}

	return s.send(ctx, op{action: a, reply: make(chan State, 1)})
}

// Snapshot returns the current state without changing it.
func (s *Store) Snapshot(ctx context.Context) (State, error) {
	return s.send(ctx, op{reply: make(chan State, 1)})
}

// Subscribe returns a channel that first receives the current state and then
// every changed state. A slow reader only ever misses intermediate states:
// when its buffer is full the oldest pending state is replaced by the newest.
// The returned cancel func releases the subscription.
func (s *Store) Subscribe(ctx context.Context, buffer int) (<-chan State, func(), error) {
	if buffer < 1 {
		buffer = 1
	}

	sub := &subscriber{ch: make(chan State, buffer)}
	if _, err := s.send(ctx, op{sub: sub, reply: make(chan State, 1)}); err != nil {
		return nil, func() {}, err
	}

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			select {
			case s.ops <- op{unsub: sub}:
			case <-s.done:
			}
		})
	}

	return sub.ch, cancel, nil
}

func (s *Store) send(ctx context.Context, o op) (State, error) {
	select {
	case s.ops <- o:
	case <-s.done:
		return State{}, ErrStoreStopped
	case <-ctx.Done():
		return State{}, ctx.Err()
	}

	// run always answers an op it accepted
	return <-o.reply, nil
}

func (s *Store) run() {
	defer close(s.done)
	defer func() {
		for sub := range s.subs {
			close(sub.ch)
			delete(s.subs, sub)
		}
	}()

	for {
		select {
		case <-s.quit:
			return
		case o := <-s.ops:
			s.handle(o)
		}
	}
}

func (s *Store) handle(o op) {
	switch {
	case o.sub != nil:
		s.subs[o.sub] = struct{}{}
		deliver(o.sub.ch, s.state)
	case o.unsub != nil:
		if _, ok := s.subs[o.unsub]; ok {
			delete(s.subs, o.unsub)
			close(o.unsub.ch)
		}
	case o.action != nil:
		next := o.action.apply(s.state)
		if next != s.state {
			slog.Debug("session transition", "action", o.action.Name(), "generation", next.Generation)
			s.state = next
			for sub := range s.subs {
				deliver(sub.ch, next)
			}
		}
	}

	if o.reply != nil {
		o.reply <- s.state
	}
}

func deliver(ch chan State, st State) {
	select {
	case ch <- st:
		return
	default:
	}

	select {
	case <-ch:
	default:
	}

	select {
	case ch <- st:
	default:
	}
}
