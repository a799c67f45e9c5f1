package geom

import "math"

type Vec struct {
	X float64
	Y float64
}

func NewVec(x float64, y float64) Vec {
	return Vec{x, y}
}

func (v Vec) IsZero() bool { return v.X == 0 && v.Y == 0 }

func (v Vec) Magnitude() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y)
}

func (v Vec) Add(o Vec) Vec {
	return Vec{v.X + o.X, v.Y + o.Y}
}

func (v Vec) Sub(o Vec) Vec {
	return Vec{v.X - o.X, v.Y - o.Y}
}

func (v Vec) Mul(k float64) Vec {
	return Vec{v.X * k, v.Y * k}
}

// Scale returns v resized to magnitude k. The zero vector is
// returned unchanged.
func (v Vec) Scale(k float64) Vec {
	if mag := v.Magnitude(); mag > 1e-6 {
		return v.Mul(k / mag)
	}
	return v
}

// Angle returns the heading of v in radians.
func (v Vec) Angle() float64 {
	return math.Atan2(v.Y, v.X)
}

// FromAngle returns the unit vector pointing along heading a.
func FromAngle(a float64) Vec {
	return Vec{math.Cos(a), math.Sin(a)}
}

func Distance(from Vec, to Vec) float64 {
	return from.Sub(to).Magnitude()
}

// SegmentDistance returns the distance from p to the segment ab.
func SegmentDistance(p Vec, a Vec, b Vec) float64 {
	ab := b.Sub(a)
	length := ab.Magnitude()
	if length < 1e-9 {
		return Distance(p, a)
	}

	ap := p.Sub(a)
	t := Clamp((ap.X*ab.X+ap.Y*ab.Y)/(length*length), 0, 1)
	return Distance(p, a.Add(ab.Mul(t)))
}

// Lerp returns the point fraction t of the way from a to b.
func Lerp(a Vec, b Vec, t float64) Vec {
	return Vec{a.X + (b.X-a.X)*t, a.Y + (b.Y-a.Y)*t}
}

// Clamp limits x to the range [lo, hi].
func Clamp(x float64, lo float64, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// WrapAngle normalizes a to the range (-pi, pi].
func WrapAngle(a float64) float64 {
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	for a <= -math.Pi {
		a += 2 * math.Pi
	}
	return a
}
