package game

import "log"

// MoveInput is a movement intent. DX and DY are direction components the
// client already normalized; Rotation is the new facing in radians.
type MoveInput struct {
	DX       float64
	DY       float64
	Rotation float64
}

// valid rejects non-finite values and oversized direction vectors.
func (in MoveInput) valid() bool {
	if !finite(in.DX, in.DY, in.Rotation) {
		return false
	}
	return in.DX*in.DX+in.DY*in.DY <= MoveMagnitudeTolerance
}

// Move applies a movement intent. Moves that would leave the arena are
// rejected outright. After an accepted move the cube follows its carrier,
// delivery is checked before pickup, and playerMoved is always broadcast.
func (e *Engine) Move(id string, in MoveInput) {
	e.mu.Lock()
	defer e.mu.Unlock()

	p := e.world.player(id)
	if p == nil || !p.Active() || !in.valid() {
		return
	}

	x := p.X + in.DX*p.Speed
	y := p.Y + in.DY*p.Speed
	if !e.arena.Contains(x, y) {
		return
	}
	p.X = x
	p.Y = y
	p.Rotation = in.Rotation

	cube := &e.world.cube
	if cube.CarriedBy(id) {
		cube.Follow(p)
		e.notifier.Broadcast(EventCubeMoved, *cube)
	}

	e.checkDelivery(p)
	e.checkPickup(p)

	e.notifier.Broadcast(EventPlayerMoved, PlayerMovedPayload{
		ID:       p.ID,
		X:        p.X,
		Y:        p.Y,
		Rotation: p.Rotation,
	})
}

// checkDelivery scores a carrier standing in its own cashout.
func (e *Engine) checkDelivery(p *Player) {
	cube := &e.world.cube
	if !cube.CarriedBy(p.ID) {
		return
	}
	zone := e.arena.Cashouts[p.Cashout]
	if !Collides(p.X, p.Y, DeliveryRadius, zone.X, zone.Y, CashoutRadius) {
		return
	}

	p.Score++
	cube.Reset(e.arena.Cube)
	e.notifier.Broadcast(EventCubeDelivered, CubeDeliveredPayload{
		PlayerID: p.ID,
		Cube:     *cube,
		Score:    p.Score,
	})

	e.record(EntryDelivery, p.ID, deliveryRecord{Score: p.Score})
	if e.hooks.OnDelivery != nil {
		e.hooks.OnDelivery(p.ID, p.Score)
	}
	log.Printf("🏆 %s delivered the cube (score %d)", p.ID, p.Score)
}

// checkPickup hands a free cube to a player touching it.
func (e *Engine) checkPickup(p *Player) {
	cube := &e.world.cube
	if cube.Carried() {
		return
	}
	if !Collides(p.X, p.Y, PlayerRadius, cube.X, cube.Y, CubeRadius) {
		return
	}

	cube.Carrier = p.ID
	e.notifier.Broadcast(EventCubePicked, CubePickedPayload{PlayerID: p.ID})
	e.record(EntryPickup, p.ID, positionRecord{X: cube.X, Y: cube.Y})
}

// Shoot fires a bullet from the player's position along its facing.
func (e *Engine) Shoot(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	p := e.world.player(id)
	if p == nil || !p.Active() {
		return
	}

	e.nextBulletID++
	b := newBullet(e.nextBulletID, p)
	e.world.addBullet(b)
	e.notifier.Broadcast(EventBulletFired, *b)
}
