package game

import "math"

// Collides reports whether two circles overlap. Touching circles do not collide.
func Collides(x1, y1, r1, x2, y2, r2 float64) bool {
	dx := x1 - x2
	dy := y1 - y2
	return math.Sqrt(dx*dx+dy*dy) < r1+r2
}

func finite(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
