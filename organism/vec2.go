package organism

import "math"

// Vec2 is a 2-D position in simulation units.
type Vec2 struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
}

// V2 is shorthand for Vec2{x, y}.
func V2(x, y float32) Vec2 {
	return Vec2{X: x, Y: y}
}

func (v Vec2) Add(o Vec2) Vec2 {
	return Vec2{v.X + o.X, v.Y + o.Y}
}

func (v Vec2) Sub(o Vec2) Vec2 {
	return Vec2{v.X - o.X, v.Y - o.Y}
}

func (v Vec2) Scale(s float32) Vec2 {
	return Vec2{v.X * s, v.Y * s}
}

// Len returns the Euclidean length.
func (v Vec2) Len() float32 {
	return float32(math.Hypot(float64(v.X), float64(v.Y)))
}

// Angle returns atan2(y, x) in radians.
func (v Vec2) Angle() float32 {
	return float32(math.Atan2(float64(v.Y), float64(v.X)))
}

// Bounds is an axis-aligned box that blueprint joints are kept inside.
type Bounds struct {
	Min Vec2 `json:"min" yaml:"min"`
	Max Vec2 `json:"max" yaml:"max"`
}

// Clamp returns v moved to the nearest point inside b.
func (b Bounds) Clamp(v Vec2) Vec2 {
	return Vec2{clamp(v.X, b.Min.X, b.Max.X), clamp(v.Y, b.Min.Y, b.Max.Y)}
}

// Contains reports whether v lies inside b, edges included.
func (b Bounds) Contains(v Vec2) bool {
	return v.X >= b.Min.X && v.X <= b.Max.X && v.Y >= b.Min.Y && v.Y <= b.Max.Y
}

func clamp(x, lo, hi float32) float32 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
