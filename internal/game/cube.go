package game

// Cube is the single shared objective. Carrier is a weak reference to a
// player id; an empty string means nobody holds it.
type Cube struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Carrier string  `json:"carrier,omitempty"`
}

// Carried reports whether somebody holds the cube.
func (c Cube) Carried() bool {
	return c.Carrier != ""
}

// CarriedBy reports whether id holds the cube.
func (c Cube) CarriedBy(id string) bool {
	return c.Carrier != "" && c.Carrier == id
}

// Follow snaps the cube onto its carrier.
func (c *Cube) Follow(p *Player) {
	c.X = p.X
	c.Y = p.Y
}

// Drop clears the carrier. The cube stays where it is.
func (c *Cube) Drop() {
	c.Carrier = ""
}

// Reset returns the cube, uncarried, to the arena's home position.
func (c *Cube) Reset(home Point) {
	c.Carrier = ""
	c.X = home.X
	c.Y = home.Y
}
