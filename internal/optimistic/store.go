// Package optimistic applies a local state change before the request that
// makes it real, then reconciles with the server's answer or rolls back.
package optimistic

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
)

// Command is one optimistic action on a state of type S whose request
// answers with R.
type Command[S, R any] struct {
	Name string
	// Apply returns the state as if the request had already succeeded.
	Apply func(S) S
	// Send performs the request. It runs without holding the store lock.
	Send func(context.Context) (R, error)
	// Commit folds the server's answer into the current state. Optional.
	Commit func(current S, res R) S
	// Revert undoes Apply after a failed Send. Nil restores snapshot as a whole.
	Revert func(current, snapshot S) S
}

// Store holds an immutable state value. Every change swaps in a new value;
// readers get the value current at the time of the call.
type Store[S any] struct {
	mu    sync.Mutex
	state S
}

func NewStore[S any](initial S) *Store[S] {
	return &Store[S]{state: initial}
}

// State returns the current snapshot.
func (s *Store[S]) State() S {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Update replaces the state with fn(state) and returns the new value.
func (s *Store[S]) Update(fn func(S) S) S {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = fn(s.state)
	return s.state
}

// apply swaps in the optimistic state and returns the snapshot taken before it.
func (s *Store[S]) apply(fn func(S) S) S {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.state
	if fn != nil {
		s.state = fn(s.state)
	}
	return snapshot
}

func finish[S, R any](ctx context.Context, s *Store[S], cmd Command[S, R], snapshot S) (R, error) {
	res, err := cmd.Send(ctx)
	if err != nil {
		s.Update(func(current S) S {
			if cmd.Revert != nil {
				return cmd.Revert(current, snapshot)
			}
			return snapshot
		})
		log.Warn().Err(err).Str("command", cmd.Name).Msg("request failed, local change rolled back")
		return res, err
	}
	if cmd.Commit != nil {
		s.Update(func(current S) S { return cmd.Commit(current, res) })
	}
	return res, nil
}

// Run applies cmd, sends it and waits for the reconcile or rollback.
// There are no retries.
func Run[S, R any](ctx context.Context, s *Store[S], cmd Command[S, R]) (R, error) {
	snapshot := s.apply(cmd.Apply)
	return finish(ctx, s, cmd, snapshot)
}

// Go applies cmd right away and sends it in the background. The request
// outlives the caller's context cancellation; the channel yields its error
// once the state has been reconciled or rolled back.
func Go[S, R any](ctx context.Context, s *Store[S], cmd Command[S, R]) <-chan error {
	snapshot := s.apply(cmd.Apply)
	done := make(chan error, 1)
	bg := context.WithoutCancel(ctx)
	go func() {
		_, err := finish(bg, s, cmd, snapshot)
		done <- err
		close(done)
	}()
	return done
}

// Done returns an already resolved channel, for actions that need no request.
func Done(err error) <-chan error {
	ch := make(chan error, 1)
	ch <- err
	close(ch)
	return ch
}
