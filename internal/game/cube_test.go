package game

import "testing"

func TestCubeCarrierQueries(t *testing.T) {
	tests := []struct {
		name    string
		cube    Cube
		carried bool
		byA     bool
	}{
		{"free", Cube{X: 400, Y: 300}, false, false},
		{"held by a", Cube{Carrier: "a"}, true, true},
		{"held by b", Cube{Carrier: "b"}, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cube.Carried(); got != tt.carried {
				t.Errorf("Carried() = %v, want %v", got, tt.carried)
			}
			if got := tt.cube.CarriedBy("a"); got != tt.byA {
				t.Errorf("CarriedBy(a) = %v, want %v", got, tt.byA)
			}
			if tt.cube.CarriedBy("") {
				t.Error("empty id never carries")
			}
		})
	}
}

// Copies handed out by the engine answer carrier queries directly.
func TestCubeCopiesAnswerCarrierQueries(t *testing.T) {
	e, _ := newTestEngine(t)
	mustConnect(t, e, "a")

	if e.Cube().Carried() || e.Snapshot().Cube.Carried() {
		t.Fatal("cube starts free")
	}

	setCube(e, 35, 35, "a")
	if !e.Cube().Carried() || !e.Cube().CarriedBy("a") {
		t.Errorf("cube = %+v, want carried by a", e.Cube())
	}
	if !e.Snapshot().Cube.CarriedBy("a") {
		t.Error("snapshot cube should be carried by a")
	}

	e.Disconnect("a")
	if e.Cube().Carried() {
		t.Errorf("cube = %+v, want dropped after carrier left", e.Cube())
	}
}
