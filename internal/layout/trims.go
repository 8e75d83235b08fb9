package layout

import (
	"fmt"
	"sort"

	"github.com/chewxy/math32"
	"go.uber.org/zap"
)

func (p *pass) layoutTrimSets() error {
	out := &p.result.TrimSets
	out.Border = p.req.TrimBorder
	out.CurveDrawSets = make(map[int]*TrimCurveDrawSet)
	lib := p.libs.TrimSets
	if lib == nil {
		return nil
	}

	n := lib.Count()
	out.Cells = make([]Cell, n)
	stats := &p.result.Stats.TrimSets
	stats.Total = n

	border := p.req.TrimBorder
	maxInterior := p.req.MaxTextureSize - 2*border
	items := make([]packItem, 0, n)
	for id := 0; id < n; id++ {
		ts, err := lib.TrimSetData(id)
		if err != nil {
			p.skip("trimSets", id, err)
			stats.Failed++
			continue
		}
		x, y, err := lib.TexelAddress(id)
		if err != nil {
			p.skip("trimSets", id, err)
			stats.Failed++
			continue
		}

		w := p.trimTexels(ts.SizeU, maxInterior, id)
		h := p.trimTexels(ts.SizeV, maxInterior, id)
		out.Cells[id] = Cell{DataX: x, DataY: y}
		items = append(items, packItem{id: id, w: w + 2*border, h: h + 2*border})

		for loop, refs := range ts.Loops() {
			for _, ref := range refs {
				if ref.CurveID < 0 || ref.CurveID >= len(p.result.Curves.Cells) || !p.result.Curves.Cells[ref.CurveID].Valid() {
					p.skip("trimSets", id, fmt.Errorf("loop %d references unavailable curve %d", loop, ref.CurveID))
					continue
				}
				detail := p.result.Curves.Details[ref.CurveID]
				set, ok := out.CurveDrawSets[detail]
				if !ok {
					set = &TrimCurveDrawSet{Detail: detail}
					out.CurveDrawSets[detail] = set
				}
				set.Instances = append(set.Instances, TrimCurveInstance{
					TrimSet: int32(id),
					Curve:   int32(ref.CurveID),
					Loop:    int32(loop),
					Ref:     ref,
				})
			}
		}
	}

	cells, layout, err := packAtlas("trimSets", items, p.req.MaxTextureSize)
	if err != nil {
		return err
	}
	out.AtlasLayout = layout
	assignCells(out.Cells, cells)
	stats.Packed = len(cells)
	return nil
}

// trimTexels converts a parametric size into a texel count.
func (p *pass) trimTexels(size float32, maxTexels, id int) int {
	if math32.IsNaN(size) || math32.IsInf(size, 0) {
		p.log.Warn("non-finite trim set size", zap.Int("id", id), zap.Float32("size", size))
		size = 0
	}
	n := int(math32.Ceil(math32.Abs(size) / p.req.TrimTexelSize))
	if n > maxTexels {
		p.log.Warn("trim set clamped to texture size",
			zap.Int("id", id), zap.Int("texels", n), zap.Int("max", maxTexels))
		return maxTexels
	}
	return max(n, 1)
}

// TrimCurveDetails returns the details that have trim curve draw sets, in
// ascending order.
func (l *TrimLayout) TrimCurveDetails() []int {
	details := make([]int, 0, len(l.CurveDrawSets))
	for d := range l.CurveDrawSets {
		details = append(details, d)
	}
	sort.Ints(details)
	return details
}
