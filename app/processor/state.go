package processor

import (
	"context"
	"errors"
	"sync"
)

// PassState tracks one processing pass through its lifecycle.
type PassState string

const (
	StateIdle    PassState = "idle"    // no pass has run yet
	StateRunning PassState = "running" // a pass owns the stores
	StateReady   PassState = "ready"   // last pass finished
)

// ErrPassInFlight is returned when a pass is requested while one is running.
// At most one corpus pass may own the store connections at a time.
var ErrPassInFlight = errors.New("import pass already running")

// Gate serializes store writers. A pass holds the writer section for its
// whole run; intercept observers enter it with Acquire for their short
// writes, so a pass and an observer never interleave transactions. Readers
// only wait for a running pass via WaitReady.
type Gate struct {
	mu    sync.Mutex
	state PassState
	done  chan struct{}
	sem   chan struct{}
}

func NewGate() *Gate {
	return &Gate{state: StateIdle, sem: make(chan struct{}, 1)}
}

// State returns the current pass state.
func (g *Gate) State() PassState {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state == "" {
		return StateIdle
	}
	return g.state
}

// Begin transitions to running and claims the writer section, failing if a
// pass is already in flight. An observer currently inside the section is
// waited out.
func (g *Gate) Begin(ctx context.Context) error {
	g.mu.Lock()
	if g.state == StateRunning {
		g.mu.Unlock()
		return ErrPassInFlight
	}
	prev := g.state
	g.state = StateRunning
	done := make(chan struct{})
	g.done = done
	g.mu.Unlock()

	select {
	case g.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		g.mu.Lock()
		g.state = prev
		g.done = nil
		g.mu.Unlock()
		close(done)
		return ctx.Err()
	}
}

// Finish transitions the running pass to ready, releases waiters and frees
// the writer section.
func (g *Gate) Finish() {
	g.mu.Lock()
	if g.state != StateRunning {
		g.mu.Unlock()
		return
	}
	g.state = StateReady
	done := g.done
	g.done = nil
	g.mu.Unlock()

	close(done)
	<-g.sem
}

// Acquire enters the writer section for a short observer write, blocking
// while a pass owns the stores. A pass requested while the section is held
// waits in Begin until Release.
func (g *Gate) Acquire(ctx context.Context) error {
	select {
	case g.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release leaves the writer section.
func (g *Gate) Release() {
	<-g.sem
}

// WaitReady blocks while a pass is running. It returns immediately when the
// gate is idle or ready.
func (g *Gate) WaitReady(ctx context.Context) error {
	g.mu.Lock()
	done := g.done
	g.mu.Unlock()

	if done == nil {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}
