package game

import (
	"log"
	"time"
)

// Tick advances the simulation by one step. It is called by the loop
// started with Start, and directly by tests.
func (e *Engine) Tick() {
	e.mu.Lock()
	defer e.mu.Unlock()

	start := time.Now()
	e.tickCount++

	e.updateBullets()
	e.syncCarriedCube()
	e.publish()

	if e.hooks.OnTick != nil {
		e.hooks.OnTick(time.Since(start), e.world.playerCount(), len(e.world.bullets))
	}
}

// updateBullets moves every bullet in creation order, removing those that
// leave the arena or hit someone. Filtering is done in place.
func (e *Engine) updateBullets() {
	if len(e.world.bullets) == 0 {
		return
	}
	e.world.indexPlayers()

	n := 0
	for _, b := range e.world.bullets {
		b.Advance()

		if !e.arena.Contains(b.X, b.Y) {
			e.notifier.Broadcast(EventBulletRemoved, BulletRemovedPayload{BulletID: b.ID})
			continue
		}

		if victim := e.firstHit(b); victim != nil {
			e.applyHit(b, victim)
			continue
		}

		e.world.bullets[n] = b
		n++
	}
	for i := n; i < len(e.world.bullets); i++ {
		e.world.bullets[i] = nil
	}
	e.world.bullets = e.world.bullets[:n]
}

// firstHit returns the earliest-joined player the bullet overlaps; the
// first match in join order wins, not the nearest. The grid only narrows
// the candidates.
func (e *Engine) firstHit(b *Bullet) *Player {
	best := -1
	for _, idx := range e.world.grid.QueryRadius(b.X, b.Y, BulletRadius+PlayerRadius) {
		i := int(idx)
		if best >= 0 && i >= best {
			continue
		}
		if b.Hits(e.world.playerAt(i)) {
			best = i
		}
	}
	if best < 0 {
		return nil
	}
	return e.world.playerAt(best)
}

func (e *Engine) applyHit(b *Bullet, victim *Player) {
	dead := victim.TakeDamage(BulletDamage)

	e.notifier.Broadcast(EventPlayerHit, PlayerHitPayload{
		PlayerID: victim.ID,
		Health:   victim.Health,
		BulletID: b.ID,
	})
	e.record(EntryHit, b.Owner, hitRecord{
		ShooterID: b.Owner,
		VictimID:  victim.ID,
		BulletID:  b.ID,
		Health:    victim.Health,
	})

	if dead {
		e.kill(victim, b.Owner)
	}
}

// kill drops the cube if the victim carried it, announces the death and
// schedules the respawn.
func (e *Engine) kill(victim *Player, shooterID string) {
	cube := &e.world.cube
	if cube.CarriedBy(victim.ID) {
		cube.Drop()
		cube.Follow(victim)
		e.notifier.Broadcast(EventCubeDropped, *cube)
		e.record(EntryDrop, victim.ID, positionRecord{X: cube.X, Y: cube.Y})
	}

	e.notifier.Broadcast(EventPlayerDied, PlayerDiedPayload{PlayerID: victim.ID})
	e.record(EntryDeath, victim.ID, positionRecord{X: victim.X, Y: victim.Y})
	if e.hooks.OnKill != nil {
		e.hooks.OnKill(shooterID, victim.ID)
	}

	id := victim.ID
	e.respawns.schedule(id, func(task *respawnTask) {
		e.completeRespawn(id, task)
	})
	log.Printf("💀 %s killed by %s", victim.ID, shooterID)
}

// syncCarriedCube keeps a carried cube on top of its carrier. A carrier id
// that no longer resolves is cleared.
func (e *Engine) syncCarriedCube() {
	cube := &e.world.cube
	if !cube.Carried() {
		return
	}
	carrier := e.world.player(cube.Carrier)
	if carrier == nil || !carrier.Active() {
		cube.Drop()
		e.notifier.Broadcast(EventCubeDropped, *cube)
		return
	}
	cube.Follow(carrier)
}
