package main

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/midgard-cad/internal/eval"
	"github.com/Faultbox/midgard-cad/internal/pipeline"
)

// Diff is the largest absolute difference between two atlases over the
// texels both wrote.
type Diff struct {
	Name   string
	Max    float32
	Texels int
}

func compareAtlases(got, want *pipeline.Atlases) []Diff {
	var out []Diff
	if got.Curves != nil && want.Curves != nil {
		out = append(out,
			compareImages("curve positions", got.Curves.Positions, want.Curves.Positions),
			compareImages("curve tangents", got.Curves.Tangents, want.Curves.Tangents))
	}
	if got.Surfaces != nil && want.Surfaces != nil {
		out = append(out,
			compareImages("surface positions", got.Surfaces.Positions, want.Surfaces.Positions),
			compareImages("surface normals", got.Surfaces.Normals, want.Surfaces.Normals))
	}
	if got.Trims != nil && want.Trims != nil {
		d := Diff{Name: "trim mask"}
		if len(got.Trims.Pix) == len(want.Trims.Pix) {
			for i, v := range got.Trims.Pix {
				d.Max = max(d.Max, math32.Abs(v-want.Trims.Pix[i]))
				d.Texels++
			}
		}
		out = append(out, d)
	}
	return out
}

// compareImages skips texels with zero alpha in either image.
func compareImages(name string, a, b *eval.Image) Diff {
	d := Diff{Name: name}
	if a == nil || b == nil || a.Width != b.Width || a.Height != b.Height {
		return d
	}
	for i := 0; i+3 < len(a.Pix); i += 4 {
		if a.Pix[i+3] == 0 || b.Pix[i+3] == 0 {
			continue
		}
		for c := 0; c < 3; c++ {
			d.Max = max(d.Max, math32.Abs(a.Pix[i+c]-b.Pix[i+c]))
		}
		d.Texels++
	}
	return d
}
