package core

import (
	"fmt"
	"sync"

	"potlottery/core/events"
	"potlottery/core/state"
)

// Executor serializes state transitions. Each Apply runs against the shared
// state overlay and either commits every write together with the events it
// emitted, or discards both.
type Executor struct {
	mu    sync.Mutex
	state *state.Manager
	bus   *events.Bus
}

// NewExecutor wires an executor over the state manager and event bus. A nil
// bus is allowed.
func NewExecutor(st *state.Manager, bus *events.Bus) *Executor {
	return &Executor{state: st, bus: bus}
}

// State exposes the underlying manager for wiring engines.
func (e *Executor) State() *state.Manager { return e.state }

// Apply runs fn exclusively. Writes are committed when fn succeeds and
// discarded otherwise; events are released only after a successful commit.
func (e *Executor) Apply(fn func() error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.bus.Hold()
	if err := fn(); err != nil {
		e.state.Discard()
		e.bus.Discard()
		return err
	}
	if err := e.state.Commit(); err != nil {
		e.state.Discard()
		e.bus.Discard()
		return fmt.Errorf("commit state: %w", err)
	}
	e.bus.Flush()
	return nil
}

// View runs a read-only fn without interleaving with Apply.
func (e *Executor) View(fn func() error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return fn()
}
