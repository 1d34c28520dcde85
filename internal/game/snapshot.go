package game

import "sync/atomic"

// statePublisher holds the most recent end-of-tick State for readers that
// must not contend with the simulation lock (HTTP polling). A published
// State is never modified after Store.
type statePublisher struct {
	latest atomic.Pointer[State]
}

// publish copies the world. Caller holds Engine.mu.
func (e *Engine) publish() {
	s := &State{
		Tick:    e.tickCount,
		Players: e.world.copyPlayers(),
		Bullets: e.world.copyBullets(),
		Cube:    e.world.cube,
	}
	e.published.latest.Store(s)
}

// Published returns the State captured at the end of the last tick without
// taking the engine lock. Before the first tick it falls back to Snapshot.
// The returned slices are shared and must not be modified.
func (e *Engine) Published() State {
	if s := e.published.latest.Load(); s != nil {
		return *s
	}
	return e.Snapshot()
}
