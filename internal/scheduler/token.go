package scheduler

import "context"

// CounterToken models exclusive access to the hardware counter subsystem.
// It is injected so tests can assert that no two sessions ever hold it at
// the same time.
type CounterToken interface {
	// Acquire blocks until the token is free or the context is done.
	Acquire(ctx context.Context) error
	// Release frees the token. Panics if the token is not held.
	Release()
}

// NewCounterToken returns the default single-holder token.
func NewCounterToken() CounterToken {
	return &counterToken{slot: make(chan struct{}, 1)}
}

type counterToken struct {
	slot chan struct{}
}

func (t *counterToken) Acquire(ctx context.Context) error {
	select {
	case t.slot <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *counterToken) Release() {
	select {
	case <-t.slot:
	default:
		panic("counter token released without being held")
	}
}
