package gpu

import (
	"fmt"

	"github.com/Faultbox/midgard-cad/internal/layout"
	"github.com/Faultbox/midgard-cad/pkg/cadfmt"
)

// Floats per cell instance: cell rect, data address, detail, curve address.
const cellStride = 4 + 2 + 3 + 2

// Floats per trim segment instance: five vec4 attributes.
const segmentStride = 4 * 5

// CurveAddress resolves the curve record address of a compound surface.
type CurveAddress func(surfaceID int) (x, y int, err error)

// curveInstances builds one cell instance per laid-out curve.
func curveInstances(l *layout.CurveLayout) []float32 {
	out := make([]float32, 0, len(l.Cells)*cellStride)
	for id, c := range l.Cells {
		if !c.Valid() {
			continue
		}
		out = append(out,
			float32(c.X), float32(c.Y), float32(c.W), float32(c.H),
			float32(c.DataX), float32(c.DataY),
			float32(l.Details[id]), 0, 0,
			0, 0,
		)
	}
	return out
}

// surfaceInstances builds the cell instances of one evaluation category.
// Compound surfaces carry the address of their swept curve.
func surfaceInstances(l *layout.SurfaceLayout, cat cadfmt.EvalCategory, curveAddr CurveAddress) ([]float32, error) {
	attrs := l.EvalAttrs[cat]
	out := make([]float32, 0, len(attrs)*cellStride)
	for _, a := range attrs {
		var cx, cy int
		if cat == cadfmt.CategoryCompound {
			var err error
			if cx, cy, err = curveAddr(a.Surface); err != nil {
				return nil, fmt.Errorf("surface %d: %w", a.Surface, err)
			}
		}
		var flipped float32
		if a.Detail.Flipped {
			flipped = 1
		}
		c := a.Cell
		out = append(out,
			float32(c.X), float32(c.Y), float32(c.W), float32(c.H),
			float32(c.DataX), float32(c.DataY),
			float32(a.Detail.U), float32(a.Detail.V), flipped,
			float32(cx), float32(cy),
		)
	}
	return out, nil
}

// trimInstances builds one instance per boundary segment of every trim
// curve. The segment endpoints are fetched from the curve atlas on the
// GPU.
func trimInstances(res *layout.Result) []float32 {
	tl := &res.TrimSets
	var out []float32
	for _, detail := range tl.TrimCurveDetails() {
		for _, inst := range tl.CurveDrawSets[detail].Instances {
			ts, id := int(inst.TrimSet), int(inst.Curve)
			if !tl.Cells[ts].Valid() || !res.Curves.Cells[id].Valid() {
				continue
			}
			curve := res.Curves.Cells[id]
			in := tl.Interior(ts)
			clip := tl.Cells[ts].Rect
			xfo := inst.Ref.Xfo
			var reversed float32
			if inst.Ref.Reversed() {
				reversed = 1
			}
			for i := 0; i < detail; i++ {
				out = append(out,
					float32(curve.X), float32(curve.Y), float32(i), float32(detail),
					xfo.Tr.X, xfo.Tr.Y, reversed, 0,
					xfo.M[0], xfo.M[1], xfo.M[2], xfo.M[3],
					float32(in.X), float32(in.Y), float32(in.W), float32(in.H),
					float32(clip.X), float32(clip.Y), float32(clip.W), float32(clip.H),
				)
			}
		}
	}
	return out
}
