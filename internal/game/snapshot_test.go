package game

import "testing"

func TestPublishedFallsBackBeforeFirstTick(t *testing.T) {
	e, _ := newTestEngine(t)
	mustConnect(t, e, "a")

	if got := e.Published(); len(got.Players) != 1 || got.Tick != 0 {
		t.Errorf("published before tick = %+v", got)
	}
}

func TestPublishedIsEndOfTickState(t *testing.T) {
	e, _ := newTestEngine(t)
	mustConnect(t, e, "a")
	place(e, "a", 100, 100, 0)
	e.Shoot("a")
	e.Tick()

	first := e.Published()
	if first.Tick != 1 || len(first.Bullets) != 1 || first.Bullets[0].Y != 93 {
		t.Fatalf("published = %+v", first)
	}

	// Changes between ticks are not visible until the next publish.
	mustConnect(t, e, "b")
	if got := e.Published(); len(got.Players) != 1 {
		t.Errorf("published changed mid-tick: %d players", len(got.Players))
	}

	e.Tick()
	second := e.Published()
	if second.Tick != 2 || len(second.Players) != 2 {
		t.Errorf("second publish = %+v", second)
	}
	if first.Bullets[0].Y != 93 {
		t.Error("an earlier published state was mutated")
	}
}
