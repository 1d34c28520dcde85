package game

// Player is a connected participant. Players live only inside the engine;
// everything handed out of the package is a copy.
type Player struct {
	ID       string  `json:"id"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Radius   float64 `json:"radius"`
	Speed    float64 `json:"speed"`
	Rotation float64 `json:"rotation"`
	Health   int     `json:"health"`
	Color    string  `json:"color"`
	Score    int     `json:"score"`
	Cashout  int     `json:"cashout"`
}

// newPlayer builds a fresh player at the spawn point of its slot.
func newPlayer(id string, slot int, arena Arena) *Player {
	spawn := arena.SpawnPoint(slot)
	return &Player{
		ID:      id,
		X:       spawn.X,
		Y:       spawn.Y,
		Radius:  PlayerRadius,
		Speed:   PlayerSpeed,
		Health:  MaxHealth,
		Color:   arena.Cashouts[slot].Color,
		Cashout: slot,
	}
}

// Active reports whether the player can move, shoot and carry.
func (p *Player) Active() bool {
	return p.Health > 0
}

// TakeDamage lowers health, clamped at zero, and reports whether the hit was lethal.
func (p *Player) TakeDamage(amount int) bool {
	p.Health -= amount
	if p.Health <= 0 {
		p.Health = 0
		return true
	}
	return false
}

// Respawn puts the player back at its slot spawn with full health.
func (p *Player) Respawn(arena Arena) {
	spawn := arena.SpawnPoint(p.Cashout)
	p.X = spawn.X
	p.Y = spawn.Y
	p.Health = MaxHealth
}
