package ai

import "math"

// Vec2 is a 2D world-space vector. The simulation is planar; elevation is
// owned by the presentation layer.
type Vec2 struct {
	X, Y float64
}

func (v Vec2) Add(o Vec2) Vec2      { return Vec2{v.X + o.X, v.Y + o.Y} }
func (v Vec2) Sub(o Vec2) Vec2      { return Vec2{v.X - o.X, v.Y - o.Y} }
func (v Vec2) Scale(s float64) Vec2 { return Vec2{v.X * s, v.Y * s} }
func (v Vec2) Dot(o Vec2) float64   { return v.X*o.X + v.Y*o.Y }
func (v Vec2) Len() float64         { return math.Sqrt(v.X*v.X + v.Y*v.Y) }

// Dist returns the distance between v and o.
func (v Vec2) Dist(o Vec2) float64 {
	dx := v.X - o.X
	dy := v.Y - o.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Normalize returns a unit vector, or the zero vector when v is near zero.
func (v Vec2) Normalize() Vec2 {
	l := v.Len()
	if l < 1e-9 {
		return Vec2{}
	}
	return Vec2{v.X / l, v.Y / l}
}

// IsZero reports whether the vector is effectively zero.
func (v Vec2) IsZero() bool {
	return math.Abs(v.X) < 1e-9 && math.Abs(v.Y) < 1e-9
}

// Perp returns the vector rotated 90 degrees counter-clockwise.
func (v Vec2) Perp() Vec2 { return Vec2{-v.Y, v.X} }

// Angle returns the heading of the vector in radians (0 = +X, pi/2 = +Y).
func (v Vec2) Angle() float64 { return math.Atan2(v.Y, v.X) }

// HeadingTo returns the angle in radians from origin toward target.
func HeadingTo(from, to Vec2) float64 {
	return math.Atan2(to.Y-from.Y, to.X-from.X)
}

// normalizeAngle wraps an angle to [-pi, pi].
func normalizeAngle(a float64) float64 {
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	for a < -math.Pi {
		a += 2 * math.Pi
	}
	return a
}

// clamp01 clamps v to [0, 1].
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
