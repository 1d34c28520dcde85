package game

// Arena tuning. These values are shared with clients through the init payload.
const (
	ArenaWidth  = 800.0
	ArenaHeight = 600.0

	CubeHomeX  = 400.0
	CubeHomeY  = 300.0
	CubeRadius = 10.0

	PlayerRadius = 15.0
	PlayerSpeed  = 3.0
	MaxHealth    = 100

	BulletSpeed  = 7.0
	BulletRadius = 5.0
	BulletDamage = 25

	// Delivery uses a wider player radius than pickup.
	DeliveryRadius = 20.0
	CashoutRadius  = 30.0

	SpawnOffset = 20.0
	SlotCount   = 4

	// MoveMagnitudeTolerance allows float error on normalized diagonals.
	MoveMagnitudeTolerance = 1.01
)

// Cashout is a drop-off zone permanently paired with one slot.
type Cashout struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Color string  `json:"color"`
}

// Point is a plain 2D position.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Arena is the static match configuration sent to every client on init.
type Arena struct {
	Width    float64            `json:"width"`
	Height   float64            `json:"height"`
	Cube     Point              `json:"cube"`
	Cashouts [SlotCount]Cashout `json:"cashouts"`
}

// DefaultArena returns the 800x600 map with a cashout in each corner.
func DefaultArena() Arena {
	return Arena{
		Width:  ArenaWidth,
		Height: ArenaHeight,
		Cube:   Point{X: CubeHomeX, Y: CubeHomeY},
		Cashouts: [SlotCount]Cashout{
			{X: 50, Y: 50, Color: "#FF3860"},   // red
			{X: 750, Y: 50, Color: "#2CE8F5"},  // cyan
			{X: 50, Y: 550, Color: "#FFA630"},  // orange
			{X: 750, Y: 550, Color: "#A846A0"}, // purple
		},
	}
}

// SpawnPoint returns the fixed spawn position for a slot.
func (a Arena) SpawnPoint(slot int) Point {
	c := a.Cashouts[slot%SlotCount]
	return Point{X: c.X + SpawnOffset, Y: c.Y + SpawnOffset}
}

// Contains reports whether (x, y) lies inside the arena, edges included.
func (a Arena) Contains(x, y float64) bool {
	return x >= 0 && x <= a.Width && y >= 0 && y <= a.Height
}
