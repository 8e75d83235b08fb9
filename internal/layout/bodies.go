package layout

import (
	"sort"
)

// buildDrawSets groups every surface and curve reference of every placed
// body into draw sets keyed by shader, shape and highlight state.
func (p *pass) buildDrawSets() {
	r := p.result
	r.SurfaceDrawSets = make(DrawSets)
	r.CurveDrawSets = make(DrawSets)
	stats := &r.Stats.Bodies
	stats.Total = len(r.Bodies)

	failed := make(map[int]bool)
	for i, inst := range r.Bodies {
		if failed[inst.BodyID] {
			stats.Failed++
			continue
		}
		b, err := p.body(inst.BodyID)
		if err != nil {
			failed[inst.BodyID] = true
			p.skip("bodies", inst.BodyID, err)
			stats.Failed++
			continue
		}
		stats.Packed++
		highlighted := r.highlighted[i]

		for item, ref := range b.Surfaces {
			id := ref.ID
			if id < 0 || id >= len(r.Surfaces.Cells) || !r.Surfaces.Cells[id].Valid() {
				continue
			}
			d := r.Surfaces.Details[id]
			key := DrawSetKey{Shader: inst.Shader, Shape: Shape{U: uint16(d.U), V: uint16(d.V)}, Highlighted: highlighted}
			r.SurfaceDrawSets.add(key, DrawInstance{
				Body:      int32(i),
				Item:      int32(item),
				Primitive: int32(id),
				TrimSet:   int32(r.Surfaces.TrimSets[id]),
			})
		}
		for item, ref := range b.Curves {
			id := ref.ID
			if id < 0 || id >= len(r.Curves.Cells) || !r.Curves.Cells[id].Valid() {
				continue
			}
			key := DrawSetKey{Shader: inst.Shader, Shape: Shape{U: uint16(r.Curves.Details[id])}, Highlighted: highlighted}
			r.CurveDrawSets.add(key, DrawInstance{
				Body:      int32(i),
				Item:      int32(item),
				Primitive: int32(id),
				TrimSet:   -1,
			})
		}
	}
}

// Keys returns the draw-set keys in a stable order: shader, then shape,
// then unhighlighted before highlighted.
func (s DrawSets) Keys() []DrawSetKey {
	keys := make([]DrawSetKey, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.Shader != b.Shader {
			return a.Shader < b.Shader
		}
		if a.Shape.U != b.Shape.U {
			return a.Shape.U < b.Shape.U
		}
		if a.Shape.V != b.Shape.V {
			return a.Shape.V < b.Shape.V
		}
		return !a.Highlighted && b.Highlighted
	})
	return keys
}
