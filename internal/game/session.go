package game

import (
	"log"

	"github.com/pkg/errors"
)

// Connect adds a session to the match. The slot is the current player count
// modulo four and fixes the player's spawn, color and home cashout. The new
// session receives the init snapshot and everyone else playerConnected.
func (e *Engine) Connect(id string) (InitPayload, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.world.player(id) != nil {
		return InitPayload{}, errors.Wrapf(ErrDuplicateSession, "connect %s", id)
	}
	if e.world.playerCount() >= e.maxPlayers {
		return InitPayload{}, errors.Wrapf(ErrMatchFull, "connect %s (%d players)", id, e.maxPlayers)
	}

	slot := e.world.playerCount() % SlotCount
	player := newPlayer(id, slot, e.arena)
	e.world.addPlayer(player)

	init := InitPayload{
		Player:  *player,
		Config:  e.arena,
		Players: make(map[string]Player, e.world.playerCount()),
		Bullets: e.world.copyBullets(),
		Cube:    e.world.cube,
	}
	for pid, p := range e.world.players {
		init.Players[pid] = *p
	}

	e.notifier.Send(id, EventInit, init)
	e.notifier.BroadcastExcept(id, EventPlayerConnected, *player)

	e.record(EntryJoin, id, joinRecord{Slot: slot, Color: player.Color, X: player.X, Y: player.Y})
	log.Printf("👤 Player joined: %s (slot %d, %d online)", id, slot, e.world.playerCount())
	return init, nil
}

// Disconnect removes a session. A carried cube is dropped where it is and
// any pending respawn is cancelled. Unknown ids are ignored.
func (e *Engine) Disconnect(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.world.player(id) == nil {
		return
	}

	if e.world.cube.CarriedBy(id) {
		e.world.cube.Drop()
		e.notifier.Broadcast(EventCubeDropped, e.world.cube)
		e.record(EntryDrop, id, positionRecord{X: e.world.cube.X, Y: e.world.cube.Y})
	}

	e.respawns.cancel(id)
	e.world.removePlayer(id)
	e.notifier.Broadcast(EventPlayerDisconnected, PlayerDisconnectedPayload{ID: id})

	e.record(EntryLeave, id, nil)
	log.Printf("👋 Player left: %s (%d online)", id, e.world.playerCount())
}
