package layout

import (
	"github.com/Faultbox/midgard-cad/pkg/atlas"
)

func (p *pass) layoutCurves() error {
	lib := p.libs.Curves
	n := lib.Count()
	out := &p.result.Curves
	out.Cells = make([]Cell, n)
	out.Details = make([]int, n)
	stats := &p.result.Stats.Curves
	stats.Total = n

	items := make([]packItem, 0, n)
	for id := 0; id < n; id++ {
		dims, err := lib.CurveDims(id)
		if err != nil {
			p.skip("curves", id, err)
			stats.Failed++
			continue
		}
		x, y, err := lib.TexelAddress(id)
		if err != nil {
			p.skip("curves", id, err)
			stats.Failed++
			continue
		}
		// The header can be sound while the body is not; evaluators only
		// ever see records that decode completely.
		if _, err := lib.CurveData(id); err != nil {
			p.skip("curves", id, err)
			stats.Failed++
			continue
		}
		detail := p.est.CurveDetail(dims)
		out.Details[id] = detail
		out.Cells[id] = Cell{DataX: x, DataY: y}
		items = append(items, packItem{id: id, w: detail + 1, h: 1})
	}

	cells, layout, err := packAtlas("curves", items, p.req.MaxTextureSize)
	if err != nil {
		return err
	}
	out.AtlasLayout = layout
	assignCells(out.Cells, cells)
	stats.Packed = len(cells)
	return nil
}

func assignCells(dst []Cell, cells map[int]atlas.Rect) {
	for id, r := range cells {
		dst[id].Rect = r
	}
}
