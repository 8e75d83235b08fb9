package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Faultbox/midgard-cad/internal/eval"
	"github.com/Faultbox/midgard-cad/internal/pipeline"
	"github.com/Faultbox/midgard-cad/internal/trim"
)

func TestCompareImagesSkipsUnwrittenTexels(t *testing.T) {
	a := &eval.Image{Width: 2, Height: 1, Pix: []float32{1, 2, 3, 1, 9, 9, 9, 0}}
	b := &eval.Image{Width: 2, Height: 1, Pix: []float32{1, 2.5, 3, 1, 0, 0, 0, 1}}

	d := compareImages("p", a, b)
	assert.Equal(t, 1, d.Texels)
	assert.InDelta(t, 0.5, d.Max, 1e-6)
}

func TestCompareImagesSizeMismatch(t *testing.T) {
	d := compareImages("p", eval.NewImage(1, 1), eval.NewImage(2, 1))
	assert.Zero(t, d.Texels)
}

func TestCompareAtlases(t *testing.T) {
	img := eval.NewImage(1, 1)
	got := &pipeline.Atlases{
		Surfaces: &eval.SurfaceAtlas{Positions: img, Normals: img},
		Trims:    &trim.Mask{Width: 2, Height: 1, Pix: []float32{0, 1}},
	}
	want := &pipeline.Atlases{
		Surfaces: &eval.SurfaceAtlas{Positions: img, Normals: img},
		Trims:    &trim.Mask{Width: 2, Height: 1, Pix: []float32{0.25, 1}},
	}

	diffs := compareAtlases(got, want)
	assert.Len(t, diffs, 3)
	assert.Equal(t, "trim mask", diffs[2].Name)
	assert.InDelta(t, 0.25, diffs[2].Max, 1e-6)
	assert.Equal(t, 2, diffs[2].Texels)
}
