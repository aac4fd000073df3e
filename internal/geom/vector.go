package geom

import "math"

// Vector2 is a displacement or position in a 2D Cartesian plane. It is the
// currency of the motion core: pixel offsets, per-step deltas and angular
// corrections all travel as Vector2 values.
type Vector2 struct {
	X float64
	Y float64
}

// Add returns `v + other`.
func (v Vector2) Add(other Vector2) Vector2 {
	return Vector2{X: v.X + other.X, Y: v.Y + other.Y}
}

// Sub returns `v - other`.
func (v Vector2) Sub(other Vector2) Vector2 {
	return Vector2{X: v.X - other.X, Y: v.Y - other.Y}
}

// Mul returns `v * scalar`.
func (v Vector2) Mul(scalar float64) Vector2 {
	return Vector2{X: v.X * scalar, Y: v.Y * scalar}
}

// Dot returns the scalar product of `v` and `other`.
func (v Vector2) Dot(other Vector2) float64 {
	return v.X*other.X + v.Y*other.Y
}

// MagSq returns the squared magnitude `|v|^2`. Cheaper than Mag when only a
// comparison is needed.
func (v Vector2) MagSq() float64 {
	return v.X*v.X + v.Y*v.Y
}

// Mag returns the Euclidean length `|v|`.
func (v Vector2) Mag() float64 {
	// math.Hypot is stable for very large and very small components.
	return math.Hypot(v.X, v.Y)
}

// Normalize returns the unit vector in the direction of v, or the zero vector
// when v has near-zero magnitude.
func (v Vector2) Normalize() Vector2 {
	mag := v.Mag()
	if mag < 1e-9 {
		return Vector2{}
	}
	return v.Mul(1.0 / mag)
}

// Perp returns the counter-clockwise perpendicular of v. Used to bow a motion
// path sideways without changing its endpoints.
func (v Vector2) Perp() Vector2 {
	return Vector2{X: -v.Y, Y: v.X}
}

// Dist returns the Euclidean distance between the points v and other.
func (v Vector2) Dist(other Vector2) float64 {
	return math.Hypot(v.X-other.X, v.Y-other.Y)
}

// Limit caps the magnitude of v at max, preserving direction.
func (v Vector2) Limit(max float64) Vector2 {
	magSq := v.MagSq()
	if magSq > max*max && magSq > 0 {
		return v.Mul(max / math.Sqrt(magSq))
	}
	return v
}

// Angle returns the angle of v in radians relative to the positive X axis,
// in the range [-Pi, Pi].
func (v Vector2) Angle() float64 {
	return math.Atan2(v.Y, v.X)
}
