package game

import (
	"log"
	"time"
)

// respawnTask is one pending respawn. Identity matters: a timer that fires
// after its task was cancelled or replaced must do nothing.
type respawnTask struct {
	timer *time.Timer
}

// respawner keeps at most one pending respawn per player id. It has no lock
// of its own; it is only used under Engine.mu.
type respawner struct {
	delay time.Duration
	tasks map[string]*respawnTask
}

func newRespawner(delay time.Duration) *respawner {
	return &respawner{
		delay: delay,
		tasks: make(map[string]*respawnTask),
	}
}

// schedule arms a respawn for id, replacing any pending one. fire runs on
// the timer goroutine and receives the task so it can check it is current.
func (r *respawner) schedule(id string, fire func(task *respawnTask)) {
	r.cancel(id)
	task := &respawnTask{}
	r.tasks[id] = task
	task.timer = time.AfterFunc(r.delay, func() { fire(task) })
}

// cancel stops the pending respawn for id, if any.
func (r *respawner) cancel(id string) {
	if task, ok := r.tasks[id]; ok {
		task.timer.Stop()
		delete(r.tasks, id)
	}
}

func (r *respawner) cancelAll() {
	for id := range r.tasks {
		r.cancel(id)
	}
}

// claim reports whether task is still the live task for id and retires it.
func (r *respawner) claim(id string, task *respawnTask) bool {
	if r.tasks[id] != task {
		return false
	}
	delete(r.tasks, id)
	return true
}

func (r *respawner) pending() int {
	return len(r.tasks)
}

// completeRespawn runs when a respawn timer fires. Players that left in the
// meantime stay gone.
func (e *Engine) completeRespawn(id string, task *respawnTask) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.respawns.claim(id, task) {
		return
	}
	p := e.world.player(id)
	if p == nil {
		return
	}

	p.Respawn(e.arena)
	e.notifier.Broadcast(EventPlayerRespawned, PlayerRespawnedPayload{
		ID:     p.ID,
		X:      p.X,
		Y:      p.Y,
		Health: p.Health,
	})
	e.record(EntryRespawn, id, positionRecord{X: p.X, Y: p.Y})
	log.Printf("✨ %s respawned", id)
}
