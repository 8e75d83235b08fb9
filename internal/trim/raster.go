package trim

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/midgard-cad/pkg/atlas"
	"github.com/Faultbox/midgard-cad/pkg/math"
)

// edge evaluates the signed area of (a, b, p); positive on the left of a->b.
func edge(a, b, p math.Vec2) float32 {
	return (b.X-a.X)*(p.Y-a.Y) - (b.Y-a.Y)*(p.X-a.X)
}

// topLeft reports whether a->b is a top or left edge of a counter-clockwise
// triangle. Pixels exactly on such edges are covered, on the others they
// are not, so triangles sharing an edge never both cover a pixel.
func topLeft(a, b math.Vec2) bool {
	d := b.Sub(a)
	return (d.Y == 0 && d.X < 0) || d.Y > 0
}

func covers(w float32, tl bool) bool {
	return w > 0 || (w == 0 && tl)
}

// fillTriangle calls plot for every pixel of clip whose centre lies inside
// the triangle. Vertices are in atlas pixel coordinates.
func fillTriangle(a, b, c math.Vec2, clip atlas.Rect, plot func(x, y int)) {
	area := edge(a, b, c)
	if area == 0 {
		return
	}
	if area < 0 {
		b, c = c, b
	}

	minX := max(clip.X, int(math32.Floor(min(a.X, b.X, c.X))))
	maxX := min(clip.X+clip.W-1, int(math32.Ceil(max(a.X, b.X, c.X))))
	minY := max(clip.Y, int(math32.Floor(min(a.Y, b.Y, c.Y))))
	maxY := min(clip.Y+clip.H-1, int(math32.Ceil(max(a.Y, b.Y, c.Y))))

	tlBC, tlCA, tlAB := topLeft(b, c), topLeft(c, a), topLeft(a, b)
	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			p := math.Vec2{X: float32(x) + 0.5, Y: float32(y) + 0.5}
			if covers(edge(b, c, p), tlBC) && covers(edge(c, a, p), tlCA) && covers(edge(a, b, p), tlAB) {
				plot(x, y)
			}
		}
	}
}

// stripGradient returns the edge gradient of pixel centre p for a boundary
// segment a->b drawn as a strip of the given width, and false when p lies
// outside the strip. The gradient is 0.5 on the segment and rises toward
// its left side, which is the inside of a correctly oriented loop.
func stripGradient(a, b, p math.Vec2, width float32) (float32, bool) {
	d := b.Sub(a)
	length := d.Length()
	if length == 0 {
		return 0, false
	}
	dir := d.Scale(1 / length)
	rel := p.Sub(a)
	along := rel.Dot(dir)
	if along < 0 || along > length {
		return 0, false
	}
	offset := dir.Perp().Dot(rel)
	half := width / 2
	if offset < -half || offset > half {
		return 0, false
	}
	return clamp01(0.5 + offset/width), true
}

func clamp01(x float32) float32 {
	return math32.Max(0, math32.Min(1, x))
}
