package motion

import "sync"

// Arbiter is the single process-wide mutual-exclusion primitive
// guaranteeing that at most one motor emits step pulses at any instant
// (spec §4.2). A motor holds it for the entire duration of one move or
// home operation, including direction change, enable flip, profile
// execution, and optional auto-disable.
//
// It is non-reentrant and FIFO-fair: motors are served in the order they
// call Acquire, preventing a busy motor's neighbor from starving a
// late-arriving request. Go's sync.Mutex does not guarantee FIFO
// ordering under contention, so fairness is implemented with an explicit
// ticket queue, the same ticketing shape used elsewhere in this codebase
// for ordered access to a single shared resource.
type Arbiter struct {
	mu      sync.Mutex
	locked  bool
	waiters []chan struct{}
}

// NewArbiter creates an unlocked arbiter.
func NewArbiter() *Arbiter {
	return &Arbiter{}
}

// Acquire blocks until the caller holds the arbiter, honoring FIFO order
// among waiters.
func (a *Arbiter) Acquire() {
	a.mu.Lock()
	if !a.locked {
		a.locked = true
		a.mu.Unlock()
		return
	}
	ch := make(chan struct{})
	a.waiters = append(a.waiters, ch)
	a.mu.Unlock()
	<-ch
}

// Release hands the arbiter to the next waiter in line, or unlocks it
// entirely if none are waiting.
func (a *Arbiter) Release() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.waiters) == 0 {
		a.locked = false
		return
	}
	next := a.waiters[0]
	a.waiters = a.waiters[1:]
	close(next)
}
