package layout

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-cad/pkg/cadfmt"
)

// ErrMissingCurve marks a swept surface whose profile curve was not laid out.
var ErrMissingCurve = errors.New("swept curve not laid out")

func (p *pass) layoutSurfaces() error {
	lib := p.libs.Surfaces
	n := lib.Count()
	out := &p.result.Surfaces
	out.Cells = make([]Cell, n)
	out.Details = make([]SurfaceDetail, n)
	out.TrimSets = make([]int, n)
	stats := &p.result.Stats.Surfaces
	stats.Total = n

	cats := make([]cadfmt.EvalCategory, n)
	minArea := p.req.SurfaceAreaThreshold * lib.TotalArea()

	items := make([]packItem, 0, n)
	for id := 0; id < n; id++ {
		out.TrimSets[id] = -1
		dims, err := lib.SurfaceDims(id)
		if err != nil {
			p.skip("surfaces", id, err)
			stats.Failed++
			continue
		}
		if minArea > 0 && dims.Area() < minArea {
			stats.Culled++
			continue
		}
		x, y, err := lib.TexelAddress(id)
		if err != nil {
			p.skip("surfaces", id, err)
			stats.Failed++
			continue
		}
		if err := p.checkSurface(id); err != nil {
			p.skip("surfaces", id, err)
			stats.Failed++
			continue
		}
		if dims.Trimmed() && (p.libs.TrimSets == nil || dims.TrimSetID >= p.libs.TrimSets.Count()) {
			p.log.Warn("surface references missing trim set, drawing untrimmed",
				zap.Int("id", id), zap.Int("trimSet", dims.TrimSetID))
		} else {
			out.TrimSets[id] = dims.TrimSetID
		}

		cats[id] = dims.Type.Category()
		detail := p.est.SurfaceDetail(dims)
		out.Details[id] = detail
		out.Cells[id] = Cell{DataX: x, DataY: y}
		items = append(items, packItem{id: id, w: detail.U + 1, h: detail.V + 1})
	}

	cells, layout, err := packAtlas("surfaces", items, p.req.MaxTextureSize)
	if err != nil {
		return err
	}
	out.AtlasLayout = layout
	assignCells(out.Cells, cells)
	stats.Packed = len(cells)

	// Category batches in id order so draws are deterministic.
	for id := 0; id < n; id++ {
		if !out.Cells[id].Valid() {
			continue
		}
		cat := cats[id]
		out.EvalAttrs[cat] = append(out.EvalAttrs[cat], EvalAttr{
			Surface: id,
			Cell:    out.Cells[id],
			Detail:  out.Details[id],
		})
		p.result.Stats.SurfacesByCategory[cat]++
	}
	return nil
}

// checkSurface decodes surface id completely and, for swept surfaces,
// requires the profile curve to have a curve atlas cell.
func (p *pass) checkSurface(id int) error {
	s, err := p.libs.Surfaces.SurfaceData(id)
	if err != nil {
		return err
	}
	if s.Type.Category() != cadfmt.CategoryCompound {
		return nil
	}
	cells := p.result.Curves.Cells
	if s.CurveID < 0 || s.CurveID >= len(cells) || !cells[s.CurveID].Valid() {
		return fmt.Errorf("surface %d: curve %d: %w", id, s.CurveID, ErrMissingCurve)
	}
	return nil
}
