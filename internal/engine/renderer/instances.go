package renderer

import (
	"github.com/Faultbox/midgard-cad/internal/layout"
	"github.com/Faultbox/midgard-cad/pkg/cadfmt"
	"github.com/Faultbox/midgard-cad/pkg/math"
)

// instanceAttribs are the sizes of the per-instance attributes: cell,
// detail, trim interior, trim cell, the world transform of the body
// reference as translation, orientation and scale, then its color.
var instanceAttribs = []int{4, 3, 4, 4, 3, 4, 3, 4}

// instanceStride is the float count of one draw instance.
const instanceStride = 29

// Placement is where and in which color a draw instance is drawn.
type Placement struct {
	Xfo   math.Xfo
	Color math.Vec4
}

// RefPlacement returns the placement of the body reference a draw
// instance was created from.
type RefPlacement func(inst layout.DrawInstance, curve bool) Placement

func appendPlacement(out []float32, p Placement) []float32 {
	x, c := p.Xfo, p.Color
	return append(out,
		x.Tr.X, x.Tr.Y, x.Tr.Z,
		x.Ori.X, x.Ori.Y, x.Ori.Z, x.Ori.W,
		x.Sc.X, x.Sc.Y, x.Sc.Z,
		c.X, c.Y, c.Z, c.W)
}

// surfaceInstances packs the instance buffer of a surface draw set.
func surfaceInstances(res *layout.Result, set *layout.DrawSet, place RefPlacement) []float32 {
	out := make([]float32, 0, len(set.Instances)*instanceStride)
	for _, inst := range set.Instances {
		c := res.Surfaces.Cells[inst.Primitive]
		d := res.Surfaces.Details[inst.Primitive]
		flipped := float32(0)
		if d.Flipped {
			flipped = 1
		}
		out = append(out,
			float32(c.X), float32(c.Y), float32(c.W), float32(c.H),
			float32(d.U), float32(d.V), flipped)
		out = appendTrim(out, &res.TrimSets, int(inst.TrimSet))
		out = appendPlacement(out, place(inst, false))
	}
	return out
}

func appendTrim(out []float32, tl *layout.TrimLayout, id int) []float32 {
	if id < 0 || id >= len(tl.Cells) || !tl.Cells[id].Valid() {
		return append(out, 0, 0, 0, 0, 0, 0, 0, 0)
	}
	in := tl.Interior(id)
	c := tl.Cells[id]
	return append(out,
		float32(in.X), float32(in.Y), float32(in.W), float32(in.H),
		float32(c.X), float32(c.Y), float32(c.W), float32(c.H))
}

// curveInstances packs the instance buffer of a curve draw set.
func curveInstances(res *layout.Result, set *layout.DrawSet, place RefPlacement) []float32 {
	out := make([]float32, 0, len(set.Instances)*instanceStride)
	for _, inst := range set.Instances {
		c := res.Curves.Cells[inst.Primitive]
		out = append(out,
			float32(c.X), float32(c.Y), float32(c.W), float32(c.H),
			float32(res.Curves.Details[inst.Primitive]), 0, 0,
			0, 0, 0, 0, 0, 0, 0, 0)
		out = appendPlacement(out, place(inst, true))
	}
	return out
}

// bodyRefs resolves reference placements from the body library, decoding
// each body once. The reference transform is applied first, then the
// transform of the placing entity; colors multiply.
type bodyRefs struct {
	libs   *cadfmt.Libraries
	res    *layout.Result
	bodies map[int]*cadfmt.Body
}

func newBodyRefs(libs *cadfmt.Libraries, res *layout.Result) *bodyRefs {
	return &bodyRefs{libs: libs, res: res, bodies: make(map[int]*cadfmt.Body)}
}

func (b *bodyRefs) placement(inst layout.DrawInstance, curve bool) Placement {
	bi := b.res.Bodies[inst.Body]
	p := Placement{Xfo: bi.Transform(), Color: bi.Tint()}
	body, ok := b.bodies[bi.BodyID]
	if !ok {
		body, _ = b.libs.Bodies.BodyData(bi.BodyID)
		b.bodies[bi.BodyID] = body
	}
	if body == nil {
		return p
	}
	refs := body.Surfaces
	if curve {
		refs = body.Curves
	}
	if int(inst.Item) >= len(refs) {
		return p
	}
	ref := refs[inst.Item]
	p.Xfo = p.Xfo.Mul(ref.Xfo)
	if ref.Color != (math.Vec4{}) {
		p.Color = p.Color.Mul(ref.Color)
	}
	return p
}

var palette = []math.Vec3{
	{X: 0.70, Y: 0.72, Z: 0.75},
	{X: 0.45, Y: 0.62, Z: 0.80},
	{X: 0.55, Y: 0.75, Z: 0.50},
	{X: 0.80, Y: 0.65, Z: 0.45},
}

var (
	highlightColor = math.Vec3{X: 1.0, Y: 0.55, Z: 0.1}
	curveColor     = math.Vec3{X: 0.1, Y: 0.1, Z: 0.12}
)

// drawColor returns the color of a draw set: a palette entry per shader
// id, replaced by the highlight color for highlighted sets.
func drawColor(key layout.DrawSetKey, curves bool) math.Vec3 {
	switch {
	case key.Highlighted:
		return highlightColor
	case curves:
		return curveColor
	}
	i := key.Shader % len(palette)
	if i < 0 {
		i += len(palette)
	}
	return palette[i]
}
