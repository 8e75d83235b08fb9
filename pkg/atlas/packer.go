// Package atlas packs rectangles into a growing 2D canvas.
package atlas

// Rect is a placed rectangle in texel units.
type Rect struct {
	X, Y, W, H int
}

// Overlaps reports whether two rectangles share any texel.
func (r Rect) Overlaps(o Rect) bool {
	return r.X < o.X+o.W && o.X < r.X+r.W && r.Y < o.Y+o.H && o.Y < r.Y+r.H
}

// node is a free rectangle, or once used, the split point of its right and
// down remainders.
type node struct {
	x, y, w, h  int
	used        bool
	right, down *node
}

// GrowingPacker places blocks first-fit into a binary tree of free
// rectangles and grows the canvas right or down when nothing fits, keeping
// it close to square. Blocks should be added largest first; the packer
// does no sorting of its own.
type GrowingPacker struct {
	root     *node
	usedArea int
	count    int
}

// NewGrowingPacker returns a packer whose canvas is sized by the first
// block.
func NewGrowingPacker() *GrowingPacker {
	return &GrowingPacker{root: &node{}}
}

// NewGrowingPackerSize returns a packer with an initial canvas.
func NewGrowingPackerSize(width, height int) *GrowingPacker {
	return &GrowingPacker{root: &node{w: width, h: height}}
}

// Width returns the canvas width.
func (p *GrowingPacker) Width() int {
	return p.root.w
}

// Height returns the canvas height.
func (p *GrowingPacker) Height() int {
	return p.root.h
}

// Count returns the number of placed blocks.
func (p *GrowingPacker) Count() int {
	return p.count
}

// Utilization returns the fraction of the canvas covered by blocks.
func (p *GrowingPacker) Utilization() float64 {
	total := p.root.w * p.root.h
	if total == 0 {
		return 0
	}
	return float64(p.usedArea) / float64(total)
}

// AddBlock places a w x h block. It fails only when the block is both
// wider and taller than the current canvas.
func (p *GrowingPacker) AddBlock(w, h int) (Rect, bool) {
	if w <= 0 || h <= 0 {
		return Rect{}, false
	}
	if p.root.w == 0 && p.root.h == 0 {
		p.root.w, p.root.h = w, h
	}

	n := findNode(p.root, w, h)
	if n != nil {
		n = splitNode(n, w, h)
	} else {
		n = p.growNode(w, h)
		if n == nil {
			return Rect{}, false
		}
	}
	p.usedArea += w * h
	p.count++
	return Rect{X: n.x, Y: n.y, W: w, H: h}, true
}

func findNode(root *node, w, h int) *node {
	if root == nil {
		return nil
	}
	if root.used {
		if n := findNode(root.right, w, h); n != nil {
			return n
		}
		return findNode(root.down, w, h)
	}
	if w <= root.w && h <= root.h {
		return root
	}
	return nil
}

func splitNode(n *node, w, h int) *node {
	n.used = true
	n.down = &node{x: n.x, y: n.y + h, w: n.w, h: n.h - h}
	n.right = &node{x: n.x + w, y: n.y, w: n.w - w, h: h}
	return n
}

func (p *GrowingPacker) growNode(w, h int) *node {
	canGrowDown := w <= p.root.w
	canGrowRight := h <= p.root.h

	// Grow along the short side to stay near square.
	shouldGrowRight := canGrowRight && p.root.h >= p.root.w+w
	shouldGrowDown := canGrowDown && p.root.w >= p.root.h+h

	switch {
	case shouldGrowRight:
		return p.growRight(w, h)
	case shouldGrowDown:
		return p.growDown(w, h)
	case canGrowRight:
		return p.growRight(w, h)
	case canGrowDown:
		return p.growDown(w, h)
	}
	return nil
}

func (p *GrowingPacker) growRight(w, h int) *node {
	old := p.root
	p.root = &node{
		used:  true,
		w:     old.w + w,
		h:     old.h,
		down:  old,
		right: &node{x: old.w, w: w, h: old.h},
	}
	if n := findNode(p.root, w, h); n != nil {
		return splitNode(n, w, h)
	}
	return nil
}

func (p *GrowingPacker) growDown(w, h int) *node {
	old := p.root
	p.root = &node{
		used:  true,
		w:     old.w,
		h:     old.h + h,
		down:  &node{y: old.h, w: old.w, h: h},
		right: old,
	}
	if n := findNode(p.root, w, h); n != nil {
		return splitNode(n, w, h)
	}
	return nil
}
