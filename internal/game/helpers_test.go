package game

import (
	"sync"
	"testing"
	"time"
)

type notification struct {
	mode   string // "all", "except", "one"
	target string
	event  string
	data   interface{}
}

// recordingNotifier captures everything the engine emits.
type recordingNotifier struct {
	mu   sync.Mutex
	sent []notification
}

func (r *recordingNotifier) Broadcast(event string, data interface{}) {
	r.add(notification{mode: "all", event: event, data: data})
}

func (r *recordingNotifier) BroadcastExcept(id, event string, data interface{}) {
	r.add(notification{mode: "except", target: id, event: event, data: data})
}

func (r *recordingNotifier) Send(id, event string, data interface{}) {
	r.add(notification{mode: "one", target: id, event: event, data: data})
}

func (r *recordingNotifier) add(n notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
}

func (r *recordingNotifier) events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.sent))
	for _, n := range r.sent {
		out = append(out, n.event)
	}
	return out
}

func (r *recordingNotifier) find(event string) (notification, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.sent {
		if n.event == event {
			return n, true
		}
	}
	return notification{}, false
}

func (r *recordingNotifier) count(event string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := 0
	for _, n := range r.sent {
		if n.event == event {
			c++
		}
	}
	return c
}

func (r *recordingNotifier) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = nil
}

func newTestEngine(t *testing.T) (*Engine, *recordingNotifier) {
	t.Helper()
	e := NewEngine(EngineConfig{RespawnDelay: 20 * time.Millisecond})
	rec := &recordingNotifier{}
	e.SetNotifier(rec)
	t.Cleanup(e.Stop)
	return e, rec
}

func mustConnect(t *testing.T, e *Engine, id string) Player {
	t.Helper()
	init, err := e.Connect(id)
	if err != nil {
		t.Fatalf("Connect(%s): %v", id, err)
	}
	return init.Player
}

// place teleports a player for test setup.
func place(e *Engine, id string, x, y, rotation float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	p := e.world.player(id)
	p.X, p.Y, p.Rotation = x, y, rotation
}

func setHealth(e *Engine, id string, health int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.world.player(id).Health = health
}

func setCube(e *Engine, x, y float64, carrier string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.world.cube = Cube{X: x, Y: y, Carrier: carrier}
}

func bulletCount(e *Engine) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.world.bullets)
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}
