package util

import (
	"context"
)

// A Gate limits concurrency. Every gate has a maximum number of goroutines
// to allow through at a time. Goroutines enter the gate by calling
// EnterContext(), and signal that they are done by calling Leave().
type Gate struct {
	slots chan struct{}
}

// NewGate returns a Gate which accepts at most n entries at a time. A
// non-positive n is treated as 1.
func NewGate(n int) *Gate {
	if n < 1 {
		n = 1
	}
	return &Gate{slots: make(chan struct{}, n)}
}

// EnterContext is called at the beginning of the section to be protected by
// the gate, and will block the calling goroutine until there are less than
// n goroutines inside or ctx is done. It returns nil if the caller is now
// inside the gate, and ctx.Err() otherwise, in which case the caller must
// not call Leave.
// It is safe to call this from multiple goroutines.
func (g *Gate) EnterContext(ctx context.Context) error {
	// a done context wins over a free slot
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case g.slots <- struct{}{}:
	}
	return nil
}

// Leave marks a goroutine outside the critical section. It is important to
// balance each successful EnterContext with a call to Leave. EnterContext
// and Leave do not need to be called from the same goroutine, necessarily.
func (g *Gate) Leave() {
	<-g.slots
}
