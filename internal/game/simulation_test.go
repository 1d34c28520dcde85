package game

import (
	"math"
	"testing"
	"time"
)

func TestBulletAdvanceScenario(t *testing.T) {
	e, rec := newTestEngine(t)
	mustConnect(t, e, "a")
	place(e, "a", 100, 100, 0)
	e.Shoot("a")
	rec.reset()

	e.Tick()

	state := e.Snapshot()
	if len(state.Bullets) != 1 {
		t.Fatalf("bullets = %d, want 1", len(state.Bullets))
	}
	if b := state.Bullets[0]; b.X != 100 || b.Y != 93 {
		t.Errorf("bullet at (%v,%v), want (100,93)", b.X, b.Y)
	}
	if len(rec.events()) != 0 {
		t.Errorf("a travelling bullet emitted %v", rec.events())
	}
}

func TestBulletDirection(t *testing.T) {
	b := &Bullet{X: 100, Y: 100, Rotation: math.Pi / 2, Speed: BulletSpeed}
	b.Advance()
	if math.Abs(b.X-107) > 1e-9 || math.Abs(b.Y-100) > 1e-9 {
		t.Errorf("rotation pi/2 should move right, got (%v,%v)", b.X, b.Y)
	}
}

func TestBulletLeavesArena(t *testing.T) {
	e, rec := newTestEngine(t)
	mustConnect(t, e, "a")
	place(e, "a", 100, 5, 0)
	e.Shoot("a")
	rec.reset()

	e.Tick()

	if bulletCount(e) != 0 {
		t.Fatal("bullet should be removed once outside the arena")
	}
	n, ok := rec.find(EventBulletRemoved)
	if !ok {
		t.Fatal("expected bulletRemoved")
	}
	if n.data.(BulletRemovedPayload).BulletID != 1 {
		t.Errorf("bulletRemoved = %+v", n.data)
	}
}

func TestBulletNeverHitsOwner(t *testing.T) {
	e, rec := newTestEngine(t)
	mustConnect(t, e, "a")
	place(e, "a", 100, 100, 0)
	e.Shoot("a")
	rec.reset()

	// Park the owner on the bullet's path.
	place(e, "a", 100, 93, 0)
	e.Tick()

	p, _ := e.Player("a")
	if p.Health != MaxHealth {
		t.Errorf("owner took damage: health %d", p.Health)
	}
	if rec.count(EventPlayerHit) != 0 {
		t.Error("owner was hit")
	}
	if bulletCount(e) != 1 {
		t.Error("bullet should keep flying")
	}
}

func TestBulletHit(t *testing.T) {
	e, rec := newTestEngine(t)
	mustConnect(t, e, "a")
	mustConnect(t, e, "b")
	place(e, "a", 100, 100, 0)
	place(e, "b", 100, 85, 0)
	e.Shoot("a")
	rec.reset()

	e.Tick()

	p, _ := e.Player("b")
	if p.Health != 75 {
		t.Errorf("health = %d, want 75", p.Health)
	}
	if bulletCount(e) != 0 {
		t.Error("bullet should be consumed by the hit")
	}
	events := rec.events()
	if len(events) != 1 || events[0] != EventPlayerHit {
		t.Fatalf("events = %v, want [playerHit]", events)
	}
	n, _ := rec.find(EventPlayerHit)
	hit := n.data.(PlayerHitPayload)
	if hit.PlayerID != "b" || hit.Health != 75 || hit.BulletID != 1 {
		t.Errorf("playerHit = %+v", hit)
	}
}

func TestBulletHitsFirstInJoinOrder(t *testing.T) {
	e, rec := newTestEngine(t)
	mustConnect(t, e, "shooter")
	mustConnect(t, e, "far")
	mustConnect(t, e, "near")
	place(e, "shooter", 100, 100, 0)
	e.Shoot("shooter")
	// Both overlap the bullet after one tick at (100,93); "near" is closer
	// but joined later.
	place(e, "far", 110, 93, 0)
	place(e, "near", 100, 93, 0)
	rec.reset()

	e.Tick()

	if rec.count(EventPlayerHit) != 1 {
		t.Fatalf("a bullet must hit at most once, got %d hits", rec.count(EventPlayerHit))
	}
	n, _ := rec.find(EventPlayerHit)
	if n.data.(PlayerHitPayload).PlayerID != "far" {
		t.Errorf("hit %s, want far", n.data.(PlayerHitPayload).PlayerID)
	}
	near, _ := e.Player("near")
	if near.Health != MaxHealth {
		t.Error("second overlapping player should be untouched")
	}
}

func TestBulletPassesDeadPlayers(t *testing.T) {
	e, rec := newTestEngine(t)
	mustConnect(t, e, "a")
	mustConnect(t, e, "b")
	place(e, "a", 100, 100, 0)
	place(e, "b", 100, 93, 0)
	setHealth(e, "b", 0)
	e.Shoot("a")
	rec.reset()

	e.Tick()

	if rec.count(EventPlayerHit) != 0 || bulletCount(e) != 1 {
		t.Error("dead players must not absorb bullets")
	}
}

func TestDeathScenario(t *testing.T) {
	e, rec := newTestEngine(t)
	mustConnect(t, e, "a")
	mustConnect(t, e, "b")
	place(e, "a", 100, 100, 0)
	place(e, "b", 100, 90, 0)
	setHealth(e, "b", 25)
	setCube(e, 100, 90, "b")
	e.Shoot("a")
	rec.reset()

	e.Tick()

	p, _ := e.Player("b")
	if p.Health != 0 {
		t.Errorf("health = %d, want 0", p.Health)
	}
	events := rec.events()
	want := []string{EventPlayerHit, EventCubeDropped, EventPlayerDied}
	if len(events) != len(want) {
		t.Fatalf("events = %v, want %v", events, want)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Fatalf("events = %v, want %v", events, want)
		}
	}
	n, _ := rec.find(EventPlayerHit)
	if n.data.(PlayerHitPayload).Health != 0 {
		t.Errorf("broadcast health = %d, want 0", n.data.(PlayerHitPayload).Health)
	}
	cube := e.Cube()
	if cube.Carried() || cube.X != 100 || cube.Y != 90 {
		t.Errorf("cube should rest uncarried where b died, got %+v", cube)
	}
	if e.PendingRespawns() != 1 {
		t.Errorf("pending respawns = %d, want 1", e.PendingRespawns())
	}
}

func TestHealthStaysInRange(t *testing.T) {
	e := NewEngine(EngineConfig{RespawnDelay: time.Hour})
	defer e.Stop()
	mustConnect(t, e, "a")
	mustConnect(t, e, "b")
	place(e, "b", 400, 100, 0)

	for i := 0; i < 12; i++ {
		place(e, "a", 400, 107, 0)
		e.Shoot("a")
		e.Tick()

		p, _ := e.Player("b")
		if p.Health < 0 || p.Health > MaxHealth {
			t.Fatalf("shot %d: health %d out of range", i, p.Health)
		}
	}
	p, _ := e.Player("b")
	if p.Health != 0 {
		t.Errorf("health = %d, want 0 after repeated hits", p.Health)
	}
}

func TestTickKeepsCubeOnCarrier(t *testing.T) {
	e, _ := newTestEngine(t)
	mustConnect(t, e, "a")
	setCube(e, 400, 300, "a")
	place(e, "a", 123, 456, 0)

	e.Tick()

	cube := e.Cube()
	if cube.X != 123 || cube.Y != 456 || cube.Carrier != "a" {
		t.Errorf("cube = %+v, want it on its carrier", cube)
	}
}

func TestTickClearsStaleCarrier(t *testing.T) {
	e, rec := newTestEngine(t)
	setCube(e, 10, 20, "ghost")

	e.Tick()

	if e.Cube().Carried() {
		t.Error("carrier pointing at a missing player should be cleared")
	}
	if rec.count(EventCubeDropped) != 1 {
		t.Error("expected cubeDropped")
	}
}
