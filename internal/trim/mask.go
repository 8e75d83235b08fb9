package trim

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/midgard-cad/internal/layout"
)

// Mask is the trim atlas: an 8-bit fan counter and the final float mask
// sharing the trim layout's dimensions.
type Mask struct {
	Width, Height int
	Counts        []uint8
	Pix           []float32

	layout *layout.TrimLayout
}

// NewMask allocates an empty mask for a trim layout.
func NewMask(tl *layout.TrimLayout) *Mask {
	n := tl.Width * tl.Height
	return &Mask{
		Width:  tl.Width,
		Height: tl.Height,
		Counts: make([]uint8, n),
		Pix:    make([]float32, n),
		layout: tl,
	}
}

// Parity returns the even-odd fill of texel (x, y) of trim set id's
// interior after stage one.
func (m *Mask) Parity(id, x, y int) uint8 {
	in := m.layout.Interior(id)
	return m.Counts[(in.Y+y)*m.Width+in.X+x] & 1
}

// Sample bilinearly samples the mask of trim set id at normalized (u, v).
func (m *Mask) Sample(id int, u, v float32) float32 {
	in := m.layout.Interior(id)
	cell := m.layout.Cells[id].Rect
	px := float32(in.X) + u*float32(in.W) - 0.5
	py := float32(in.Y) + v*float32(in.H) - 0.5
	x0, y0 := math32.Floor(px), math32.Floor(py)
	fx, fy := px-x0, py-y0

	at := func(x, y int) float32 {
		x = max(cell.X, min(cell.X+cell.W-1, x))
		y = max(cell.Y, min(cell.Y+cell.H-1, y))
		return m.Pix[y*m.Width+x]
	}
	ix, iy := int(x0), int(y0)
	top := at(ix, iy)*(1-fx) + at(ix+1, iy)*fx
	bottom := at(ix, iy+1)*(1-fx) + at(ix+1, iy+1)*fx
	return top*(1-fy) + bottom*fy
}

// Inside is the final trim test: whether surface point (u, v) of a surface
// trimmed by trim set id is kept. Untrimmed surfaces pass id < 0.
func (m *Mask) Inside(id int, u, v float32) bool {
	if id < 0 || m == nil || id >= len(m.layout.Cells) || !m.layout.Cells[id].Valid() {
		return true
	}
	return m.Sample(id, u, v) >= 0.5
}
