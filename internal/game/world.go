package game

import "cube-arena/internal/game/spatial"

// gridCellSize covers the widest bullet-versus-player query.
const gridCellSize = 50

// world is the authoritative state of the single match. It performs no
// validation and is only touched while Engine.mu is held.
type world struct {
	players map[string]*Player
	order   []string // join order, used as registry iteration order
	bullets []*Bullet
	cube    Cube

	// grid indexes active players by join-order position for hit scans.
	grid *spatial.Grid
}

func newWorld(arena Arena) *world {
	w := &world{
		players: make(map[string]*Player),
		order:   make([]string, 0, SlotCount),
		bullets: make([]*Bullet, 0, 64),
		grid:    spatial.NewGrid(arena.Width, arena.Height, gridCellSize),
	}
	w.cube.Reset(arena.Cube)
	return w
}

func (w *world) player(id string) *Player {
	return w.players[id]
}

func (w *world) addPlayer(p *Player) {
	w.players[p.ID] = p
	w.order = append(w.order, p.ID)
}

func (w *world) removePlayer(id string) {
	if _, ok := w.players[id]; !ok {
		return
	}
	delete(w.players, id)
	for i, pid := range w.order {
		if pid == id {
			w.order = append(w.order[:i], w.order[i+1:]...)
			break
		}
	}
}

func (w *world) addBullet(b *Bullet) {
	w.bullets = append(w.bullets, b)
}

func (w *world) playerCount() int {
	return len(w.players)
}

// copyPlayers returns value copies in join order.
func (w *world) copyPlayers() []Player {
	out := make([]Player, 0, len(w.order))
	for _, id := range w.order {
		out = append(out, *w.players[id])
	}
	return out
}

func (w *world) copyBullets() []Bullet {
	out := make([]Bullet, 0, len(w.bullets))
	for _, b := range w.bullets {
		out = append(out, *b)
	}
	return out
}

// indexPlayers rebuilds the hit-scan grid from active players.
func (w *world) indexPlayers() {
	w.grid.Clear()
	for i, id := range w.order {
		if p := w.players[id]; p.Active() {
			w.grid.Insert(uint32(i), p.X, p.Y)
		}
	}
}

// playerAt returns the player at a join-order position.
func (w *world) playerAt(i int) *Player {
	return w.players[w.order[i]]
}
