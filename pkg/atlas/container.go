package atlas

import stdmath "math"

// Container is a grid of equally sized cells packed as one block.
type Container struct {
	Cols, Rows    int
	CellW, CellH  int
	Width, Height int
}

// CalcContainerSize arranges n cells of w x h in a near-square grid of
// cells: ceil(sqrt(n)) columns, as many rows as needed. maxWidth, when
// positive, caps the number of columns so the block stays within a texture.
func CalcContainerSize(n, w, h, maxWidth int) Container {
	if n <= 0 {
		return Container{CellW: w, CellH: h}
	}
	cols := int(stdmath.Ceil(stdmath.Sqrt(float64(n))))
	if maxWidth > 0 && w > 0 {
		cols = max(1, min(cols, maxWidth/w))
	}
	return GridContainer(n, cols, w, h)
}

// GridContainer arranges n cells of w x h in a grid with a fixed column
// count.
func GridContainer(n, cols, w, h int) Container {
	cols = max(cols, 1)
	rows := (n + cols - 1) / cols
	return Container{
		Cols:   cols,
		Rows:   rows,
		CellW:  w,
		CellH:  h,
		Width:  cols * w,
		Height: rows * h,
	}
}

// Cell returns the placement of cell i inside a container placed at
// origin.
func (c Container) Cell(origin Rect, i int) Rect {
	return Rect{
		X: origin.X + (i%c.Cols)*c.CellW,
		Y: origin.Y + (i/c.Cols)*c.CellH,
		W: c.CellW,
		H: c.CellH,
	}
}

// Capacity returns how many cells fit.
func (c Container) Capacity() int {
	return c.Cols * c.Rows
}
