package math

import "github.com/chewxy/math32"

// Box2 is an axis-aligned rectangle, used for parametric domains.
type Box2 struct {
	Min, Max Vec2
}

// Size returns the extent along each axis.
func (b Box2) Size() Vec2 {
	return b.Max.Sub(b.Min)
}

// Center returns the midpoint.
func (b Box2) Center() Vec2 {
	return b.Min.Lerp(b.Max, 0.5)
}

// Lerp maps a normalized [0,1]x[0,1] point into the box.
func (b Box2) Lerp(uv Vec2) Vec2 {
	return Vec2{
		b.Min.X + uv.X*(b.Max.X-b.Min.X),
		b.Min.Y + uv.Y*(b.Max.Y-b.Min.Y),
	}
}

// Box3 is an axis-aligned bounding box.
type Box3 struct {
	Min, Max Vec3
}

// EmptyBox3 returns an inverted box that any AddPoint call will fix up.
func EmptyBox3() Box3 {
	inf := math32.Inf(1)
	return Box3{
		Min: Vec3{inf, inf, inf},
		Max: Vec3{-inf, -inf, -inf},
	}
}

// Valid reports whether Min <= Max on every axis.
func (b Box3) Valid() bool {
	return b.Min.X <= b.Max.X && b.Min.Y <= b.Max.Y && b.Min.Z <= b.Max.Z
}

// AddPoint grows the box to include p.
func (b Box3) AddPoint(p Vec3) Box3 {
	return Box3{
		Min: Vec3{math32.Min(b.Min.X, p.X), math32.Min(b.Min.Y, p.Y), math32.Min(b.Min.Z, p.Z)},
		Max: Vec3{math32.Max(b.Max.X, p.X), math32.Max(b.Max.Y, p.Y), math32.Max(b.Max.Z, p.Z)},
	}
}

// Union returns the smallest box containing both boxes.
func (b Box3) Union(other Box3) Box3 {
	if !other.Valid() {
		return b
	}
	return b.AddPoint(other.Min).AddPoint(other.Max)
}

// Transform returns the box around the eight transformed corners of b.
func (b Box3) Transform(x Xfo) Box3 {
	if !b.Valid() {
		return b
	}
	out := EmptyBox3()
	for i := 0; i < 8; i++ {
		c := b.Min
		if i&1 != 0 {
			c.X = b.Max.X
		}
		if i&2 != 0 {
			c.Y = b.Max.Y
		}
		if i&4 != 0 {
			c.Z = b.Max.Z
		}
		out = out.AddPoint(x.TransformPoint(c))
	}
	return out
}

// Center returns the midpoint.
func (b Box3) Center() Vec3 {
	return b.Min.Lerp(b.Max, 0.5)
}

// Radius returns the radius of the bounding sphere (half the diagonal).
func (b Box3) Radius() float32 {
	if !b.Valid() {
		return 0
	}
	return b.Max.Sub(b.Min).Length() * 0.5
}
