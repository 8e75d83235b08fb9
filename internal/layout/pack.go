package layout

import (
	"errors"
	"fmt"
	"sort"

	"github.com/Faultbox/midgard-cad/pkg/atlas"
)

// ErrPackOverflow means the packed atlas cannot fit the maximum texture
// size. It aborts the whole pass.
var ErrPackOverflow = errors.New("atlas exceeds maximum texture size")

// packItem is one primitive waiting for an atlas cell.
type packItem struct {
	id   int
	w, h int
}

type bucket struct {
	w, h      int
	ids       []int
	container atlas.Container
}

// AtlasLayout is the result of packing one atlas.
type AtlasLayout struct {
	Width, Height int
	// Blocks is the number of packer calls, one per bucket.
	Blocks      int
	Utilization float64
}

// packAtlas buckets items by exact shape, packs each bucket as one grid
// block, and returns the cell of every item by id. Buckets are packed
// largest footprint first.
func packAtlas(name string, items []packItem, maxSize int) (map[int]atlas.Rect, AtlasLayout, error) {
	cells := make(map[int]atlas.Rect, len(items))
	if len(items) == 0 {
		return cells, AtlasLayout{}, nil
	}

	byShape := make(map[[2]int]*bucket)
	var buckets []*bucket
	for _, it := range items {
		if it.w > maxSize || it.h > maxSize {
			return nil, AtlasLayout{}, fmt.Errorf("%w: %s cell %dx%d for id %d, max %d",
				ErrPackOverflow, name, it.w, it.h, it.id, maxSize)
		}
		key := [2]int{it.w, it.h}
		b, ok := byShape[key]
		if !ok {
			b = &bucket{w: it.w, h: it.h}
			byShape[key] = b
			buckets = append(buckets, b)
		}
		b.ids = append(b.ids, it.id)
	}

	if err := sizeBuckets(name, buckets, maxSize); err != nil {
		return nil, AtlasLayout{}, err
	}
	sort.SliceStable(buckets, func(i, j int) bool {
		fi := max(buckets[i].container.Width, buckets[i].container.Height)
		fj := max(buckets[j].container.Width, buckets[j].container.Height)
		if fi != fj {
			return fi > fj
		}
		if buckets[i].w != buckets[j].w {
			return buckets[i].w > buckets[j].w
		}
		return buckets[i].h > buckets[j].h
	})

	packer := atlas.NewGrowingPacker()
	for _, b := range buckets {
		origin, ok := packer.AddBlock(b.container.Width, b.container.Height)
		if !ok {
			return nil, AtlasLayout{}, fmt.Errorf("%w: %s block %dx%d does not fit canvas %dx%d",
				ErrPackOverflow, name, b.container.Width, b.container.Height, packer.Width(), packer.Height())
		}
		for i, id := range b.ids {
			cells[id] = b.container.Cell(origin, i)
		}
	}

	if packer.Width() > maxSize || packer.Height() > maxSize {
		return nil, AtlasLayout{}, fmt.Errorf("%w: %s canvas %dx%d, max %d",
			ErrPackOverflow, name, packer.Width(), packer.Height(), maxSize)
	}
	return cells, AtlasLayout{
		Width:       packer.Width(),
		Height:      packer.Height(),
		Blocks:      packer.Count(),
		Utilization: packer.Utilization(),
	}, nil
}

// sizeBuckets picks each bucket's grid. A near-square grid that would be
// taller than maxSize is widened instead; a bucket that cannot fit even at
// full width overflows.
func sizeBuckets(name string, buckets []*bucket, maxSize int) error {
	for _, b := range buckets {
		n := len(b.ids)
		c := atlas.CalcContainerSize(n, b.w, b.h, maxSize)
		if c.Height > maxSize {
			maxCols := maxSize / b.w
			maxRows := maxSize / b.h
			cols := (n + maxRows - 1) / maxRows
			if cols > maxCols {
				return fmt.Errorf("%w: %s bucket of %d cells %dx%d needs %d columns, max %d",
					ErrPackOverflow, name, n, b.w, b.h, cols, maxCols)
			}
			c = atlas.GridContainer(n, cols, b.w, b.h)
		}
		b.container = c
	}
	return nil
}
