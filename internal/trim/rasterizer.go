// Package trim rasterizes trim sets into an antialiased inside/outside
// mask atlas.
//
// Stage one draws a triangle fan from the parametric centre to every
// boundary segment of every loop, adding into an 8-bit counter per texel;
// the low bit of the counter is the even-odd fill. Stage two flattens the
// parity into a float mask and draws every boundary segment as a strip,
// once additively and once with min blending, leaving a gradient across
// the edge.
package trim

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-cad/internal/eval"
	"github.com/Faultbox/midgard-cad/internal/layout"
	"github.com/Faultbox/midgard-cad/internal/logger"
	"github.com/Faultbox/midgard-cad/pkg/atlas"
	"github.com/Faultbox/midgard-cad/pkg/math"
)

// DefaultStripWidth is the boundary strip width in texels.
const DefaultStripWidth = 1.5

// fanOrigin is the centre of the normalized parameter domain.
var fanOrigin = math.Vec2{X: 0.5, Y: 0.5}

// Rasterizer renders trim masks on the CPU.
type Rasterizer struct {
	StripWidth float32
	log        *zap.Logger
}

// NewRasterizer returns a rasterizer drawing strips of the given width.
func NewRasterizer(stripWidth float32) *Rasterizer {
	if stripWidth <= 0 {
		stripWidth = DefaultStripWidth
	}
	return &Rasterizer{StripWidth: stripWidth, log: logger.Named("trim")}
}

// segment is one boundary segment in atlas pixel coordinates.
type segment struct {
	trimSet int
	a, b    math.Vec2
}

// Rasterize draws every trim set of res into a fresh mask. Curves must
// already be evaluated into curves.
func (r *Rasterizer) Rasterize(ctx context.Context, res *layout.Result, curves *eval.CurveAtlas) (*Mask, error) {
	tl := &res.TrimSets
	m := NewMask(tl)
	if len(tl.Cells) == 0 {
		return m, nil
	}

	segs, err := r.segments(res, curves)
	if err != nil {
		return nil, err
	}

	// Stage one: fan accumulation.
	for _, s := range segs {
		c := cellPixel(tl, s.trimSet, fanOrigin)
		fillTriangle(c, s.a, s.b, tl.Cells[s.trimSet].Rect, func(x, y int) {
			m.Counts[y*m.Width+x]++
		})
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Stage two: flatten, then add and min the boundary strips.
	for i, n := range m.Counts {
		m.Pix[i] = float32(n & 1)
	}
	r.strips(m, tl, segs, func(dst *float32, g float32) { *dst += g })
	r.strips(m, tl, segs, func(dst *float32, g float32) { *dst = min(*dst, g) })
	for i, v := range m.Pix {
		m.Pix[i] = clamp01(v)
	}

	r.log.Debug("rasterized trim sets",
		zap.Int("trimSets", res.Stats.TrimSets.Packed), zap.Int("segments", len(segs)))
	return m, ctx.Err()
}

func (r *Rasterizer) strips(m *Mask, tl *layout.TrimLayout, segs []segment, blend func(dst *float32, g float32)) {
	for _, s := range segs {
		pad := int(r.StripWidth) + 1
		box := atlas.Rect{
			X: int(min(s.a.X, s.b.X)) - pad,
			Y: int(min(s.a.Y, s.b.Y)) - pad,
		}
		box.W = int(max(s.a.X, s.b.X)) + pad - box.X + 1
		box.H = int(max(s.a.Y, s.b.Y)) + pad - box.Y + 1
		cell := tl.Cells[s.trimSet].Rect
		for y := max(box.Y, cell.Y); y < min(box.Y+box.H, cell.Y+cell.H); y++ {
			for x := max(box.X, cell.X); x < min(box.X+box.W, cell.X+cell.W); x++ {
				p := math.Vec2{X: float32(x) + 0.5, Y: float32(y) + 0.5}
				if g, ok := stripGradient(s.a, s.b, p, r.StripWidth); ok {
					blend(&m.Pix[y*m.Width+x], g)
				}
			}
		}
	}
}

// segments expands every trim curve instance into boundary segments using
// the evaluated curve atlas.
func (r *Rasterizer) segments(res *layout.Result, curves *eval.CurveAtlas) ([]segment, error) {
	tl := &res.TrimSets
	var segs []segment
	for _, detail := range tl.TrimCurveDetails() {
		for _, inst := range tl.CurveDrawSets[detail].Instances {
			ts, id := int(inst.TrimSet), int(inst.Curve)
			if !tl.Cells[ts].Valid() {
				continue
			}
			if curves == nil {
				return nil, fmt.Errorf("trim set %d: curve atlas not evaluated", ts)
			}
			cell := res.Curves.Cells[id]
			pts := make([]math.Vec2, detail+1)
			for x := 0; x <= detail; x++ {
				local := curves.Positions.At(cell.X+x, cell.Y).XYZ().XY()
				pts[x] = cellPixel(tl, ts, inst.Ref.Xfo.TransformPoint(local))
			}
			if inst.Ref.Reversed() {
				for i, j := 0, len(pts)-1; i < j; i, j = i+1, j-1 {
					pts[i], pts[j] = pts[j], pts[i]
				}
			}
			for i := 0; i+1 < len(pts); i++ {
				segs = append(segs, segment{trimSet: ts, a: pts[i], b: pts[i+1]})
			}
		}
	}
	return segs, nil
}

// cellPixel maps a normalized parameter into atlas pixel coordinates of
// the interior of trim set id.
func cellPixel(tl *layout.TrimLayout, id int, uv math.Vec2) math.Vec2 {
	in := tl.Interior(id)
	return math.Vec2{
		X: float32(in.X) + uv.X*float32(in.W),
		Y: float32(in.Y) + uv.Y*float32(in.H),
	}
}
