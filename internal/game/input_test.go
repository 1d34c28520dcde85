package game

import (
	"math"
	"testing"
)

func TestMoveAccepted(t *testing.T) {
	e, rec := newTestEngine(t)
	mustConnect(t, e, "a")
	place(e, "a", 200, 200, 0)
	rec.reset()

	e.Move("a", MoveInput{DX: 1, DY: 0, Rotation: 1.5})

	p, _ := e.Player("a")
	if p.X != 203 || p.Y != 200 || p.Rotation != 1.5 {
		t.Errorf("after move: (%v,%v) rot %v", p.X, p.Y, p.Rotation)
	}
	n, ok := rec.find(EventPlayerMoved)
	if !ok {
		t.Fatal("expected playerMoved")
	}
	moved := n.data.(PlayerMovedPayload)
	if moved.ID != "a" || moved.X != 203 || moved.Rotation != 1.5 {
		t.Errorf("playerMoved = %+v", moved)
	}
}

func TestMoveDiagonal(t *testing.T) {
	e, _ := newTestEngine(t)
	mustConnect(t, e, "a")
	place(e, "a", 200, 200, 0)

	d := 1 / math.Sqrt2
	e.Move("a", MoveInput{DX: d, DY: -d})

	p, _ := e.Player("a")
	if math.Abs(p.X-(200+3*d)) > 1e-9 || math.Abs(p.Y-(200-3*d)) > 1e-9 {
		t.Errorf("diagonal move landed at (%v,%v)", p.X, p.Y)
	}
}

func TestMoveRejected(t *testing.T) {
	tests := []struct {
		name  string
		x, y  float64
		input MoveInput
	}{
		{"leaves left edge", 1, 100, MoveInput{DX: -1}},
		{"leaves bottom edge", 100, 599, MoveInput{DY: 1}},
		{"leaves top-right corner", 799, 1, MoveInput{DX: 0.7, DY: -0.7}},
		{"speed hack", 100, 100, MoveInput{DX: 1, DY: 1}},
		{"oversized axis", 100, 100, MoveInput{DX: 5}},
		{"NaN direction", 100, 100, MoveInput{DX: math.NaN()}},
		{"infinite rotation", 100, 100, MoveInput{DX: 1, Rotation: math.Inf(1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, rec := newTestEngine(t)
			mustConnect(t, e, "a")
			place(e, "a", tt.x, tt.y, 0.25)
			rec.reset()

			e.Move("a", tt.input)

			p, _ := e.Player("a")
			if p.X != tt.x || p.Y != tt.y || p.Rotation != 0.25 {
				t.Errorf("position changed to (%v,%v) rot %v", p.X, p.Y, p.Rotation)
			}
			if len(rec.events()) != 0 {
				t.Errorf("rejected move emitted %v", rec.events())
			}
		})
	}
}

func TestMoveToExactEdgeAccepted(t *testing.T) {
	e, _ := newTestEngine(t)
	mustConnect(t, e, "a")
	place(e, "a", 3, 597, 0)

	e.Move("a", MoveInput{DX: -1})
	e.Move("a", MoveInput{DY: 1})

	p, _ := e.Player("a")
	if p.X != 0 || p.Y != 600 {
		t.Errorf("edge move landed at (%v,%v), want (0,600)", p.X, p.Y)
	}
}

func TestMoveIgnoredForMissingOrDeadPlayer(t *testing.T) {
	e, rec := newTestEngine(t)
	mustConnect(t, e, "a")
	place(e, "a", 100, 100, 0)
	setHealth(e, "a", 0)
	rec.reset()

	e.Move("a", MoveInput{DX: 1})
	e.Move("ghost", MoveInput{DX: 1})

	p, _ := e.Player("a")
	if p.X != 100 {
		t.Error("dead player moved")
	}
	if len(rec.events()) != 0 {
		t.Errorf("unexpected events %v", rec.events())
	}
}

func TestPickupScenario(t *testing.T) {
	e, rec := newTestEngine(t)
	mustConnect(t, e, "a")
	// 20 units from the cube; the move brings the player to 17.
	place(e, "a", 380, 300, 0)
	rec.reset()

	e.Move("a", MoveInput{DX: 1})

	cube := e.Cube()
	if cube.Carrier != "a" {
		t.Fatalf("carrier = %q, want a", cube.Carrier)
	}
	events := rec.events()
	if len(events) != 2 || events[0] != EventCubePicked || events[1] != EventPlayerMoved {
		t.Errorf("events = %v, want [cubePicked playerMoved]", events)
	}
}

func TestPickupOutOfRange(t *testing.T) {
	e, _ := newTestEngine(t)
	mustConnect(t, e, "a")
	place(e, "a", 372, 300, 0)

	e.Move("a", MoveInput{DX: 1}) // 25 away: touching, not overlapping

	if e.Cube().Carried() {
		t.Error("cube picked up from exactly r1+r2")
	}
}

func TestSingleCarrier(t *testing.T) {
	e, rec := newTestEngine(t)
	mustConnect(t, e, "a")
	mustConnect(t, e, "b")
	place(e, "a", 380, 300, 0)
	place(e, "b", 420, 300, 0)

	e.Move("a", MoveInput{DX: 1})
	e.Move("b", MoveInput{DX: -1})

	if c := e.Cube(); c.Carrier != "a" {
		t.Errorf("carrier = %q, want a", c.Carrier)
	}
	if rec.count(EventCubePicked) != 1 {
		t.Errorf("cubePicked emitted %d times", rec.count(EventCubePicked))
	}
}

func TestCarriedCubeFollows(t *testing.T) {
	e, rec := newTestEngine(t)
	mustConnect(t, e, "a")
	place(e, "a", 300, 300, 0)
	setCube(e, 300, 300, "a")
	rec.reset()

	e.Move("a", MoveInput{DY: -1})

	cube := e.Cube()
	if cube.X != 300 || cube.Y != 297 {
		t.Errorf("cube at (%v,%v), want (300,297)", cube.X, cube.Y)
	}
	events := rec.events()
	if len(events) != 2 || events[0] != EventCubeMoved || events[1] != EventPlayerMoved {
		t.Errorf("events = %v, want [cubeMoved playerMoved]", events)
	}
}

func TestDeliveryScenario(t *testing.T) {
	e, rec := newTestEngine(t)
	mustConnect(t, e, "a")
	place(e, "a", 100, 50, 0)
	setCube(e, 100, 50, "a")
	rec.reset()

	// 47 units from cashout 0 at (50,50), inside 20+30.
	e.Move("a", MoveInput{DX: -1})

	p, _ := e.Player("a")
	if p.Score != 1 {
		t.Errorf("score = %d, want 1", p.Score)
	}
	cube := e.Cube()
	if cube.Carried() || cube.X != CubeHomeX || cube.Y != CubeHomeY {
		t.Errorf("cube after delivery = %+v", cube)
	}

	events := rec.events()
	want := []string{EventCubeMoved, EventCubeDelivered, EventPlayerMoved}
	if len(events) != len(want) {
		t.Fatalf("events = %v, want %v", events, want)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Fatalf("events = %v, want %v", events, want)
		}
	}
	n, _ := rec.find(EventCubeDelivered)
	delivered := n.data.(CubeDeliveredPayload)
	if delivered.PlayerID != "a" || delivered.Score != 1 || delivered.Cube.X != CubeHomeX {
		t.Errorf("cubeDelivered = %+v", delivered)
	}
}

func TestDeliveryOnlyAtOwnCashout(t *testing.T) {
	e, _ := newTestEngine(t)
	mustConnect(t, e, "a")
	// Cashout 1 belongs to slot 1.
	place(e, "a", 740, 50, 0)
	setCube(e, 740, 50, "a")

	e.Move("a", MoveInput{DX: 1})

	p, _ := e.Player("a")
	if p.Score != 0 {
		t.Errorf("scored at a foreign cashout")
	}
	if e.Cube().Carrier != "a" {
		t.Error("cube should still be carried")
	}
}

func TestDeliveryChecksBeforePickup(t *testing.T) {
	e, rec := newTestEngine(t)
	e.arena.Cube = Point{X: 60, Y: 60} // home inside the cashout
	mustConnect(t, e, "a")
	place(e, "a", 63, 50, 0)
	setCube(e, 63, 50, "a")
	rec.reset()

	e.Move("a", MoveInput{DX: -1})

	// The reset cube overlaps the scorer, so the pickup check re-picks it
	// in the same move, after the delivery.
	events := rec.events()
	want := []string{EventCubeMoved, EventCubeDelivered, EventCubePicked, EventPlayerMoved}
	if len(events) != len(want) {
		t.Fatalf("events = %v, want %v", events, want)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Fatalf("events = %v, want %v", events, want)
		}
	}
	p, _ := e.Player("a")
	if p.Score != 1 {
		t.Errorf("score = %d, want 1", p.Score)
	}
}

func TestShoot(t *testing.T) {
	e, rec := newTestEngine(t)
	a := mustConnect(t, e, "a")
	place(e, "a", 100, 100, 0.5)
	rec.reset()

	e.Shoot("a")
	e.Shoot("a")

	state := e.Snapshot()
	if len(state.Bullets) != 2 {
		t.Fatalf("bullets = %d, want 2", len(state.Bullets))
	}
	b := state.Bullets[0]
	if b.X != 100 || b.Y != 100 || b.Rotation != 0.5 || b.Speed != BulletSpeed || b.Owner != "a" || b.Color != a.Color {
		t.Errorf("bullet = %+v", b)
	}
	if state.Bullets[1].ID <= b.ID {
		t.Errorf("bullet ids not increasing: %d then %d", b.ID, state.Bullets[1].ID)
	}
	if rec.count(EventBulletFired) != 2 {
		t.Errorf("bulletFired emitted %d times", rec.count(EventBulletFired))
	}
}

func TestShootIgnoredForMissingOrDeadPlayer(t *testing.T) {
	e, rec := newTestEngine(t)
	mustConnect(t, e, "a")
	setHealth(e, "a", 0)
	rec.reset()

	e.Shoot("a")
	e.Shoot("ghost")

	if bulletCount(e) != 0 || len(rec.events()) != 0 {
		t.Error("inactive or missing player fired")
	}
}

func TestDeadPlayerCannotPickUp(t *testing.T) {
	e, _ := newTestEngine(t)
	mustConnect(t, e, "a")
	place(e, "a", 390, 300, 0)
	setHealth(e, "a", 0)

	e.Move("a", MoveInput{DX: 1})

	if e.Cube().Carried() {
		t.Error("dead player picked up the cube")
	}
}
