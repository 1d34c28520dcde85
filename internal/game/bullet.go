package game

import "math"

// Bullet travels in a straight line from where its owner stood when firing.
type Bullet struct {
	ID       uint64  `json:"id"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Rotation float64 `json:"rotation"`
	Speed    float64 `json:"speed"`
	Owner    string  `json:"owner"`
	Color    string  `json:"color"`
}

func newBullet(id uint64, owner *Player) *Bullet {
	return &Bullet{
		ID:       id,
		X:        owner.X,
		Y:        owner.Y,
		Rotation: owner.Rotation,
		Speed:    BulletSpeed,
		Owner:    owner.ID,
		Color:    owner.Color,
	}
}

// Advance moves the bullet one tick. Rotation 0 points up (negative Y).
func (b *Bullet) Advance() {
	b.X += math.Sin(b.Rotation) * b.Speed
	b.Y += -math.Cos(b.Rotation) * b.Speed
}

// Hits reports whether the bullet overlaps p. Owners and inactive players are never hit.
func (b *Bullet) Hits(p *Player) bool {
	if p.ID == b.Owner || !p.Active() {
		return false
	}
	return Collides(b.X, b.Y, BulletRadius, p.X, p.Y, p.Radius)
}
