package eval

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/midgard-cad/internal/layout"
	"github.com/Faultbox/midgard-cad/pkg/math"
)

// TexelIndex recovers the integer texel offset inside a cell from a
// fragment-centre coordinate. Fragment centres sit at +0.5, so flooring the
// difference is exact for any atlas size a float32 can address.
func TexelIndex(fragCoord float32, origin int) int {
	return int(math32.Floor(fragCoord - float32(origin)))
}

// CurveParam is the normalized parameter of texel x in a curve cell of the
// given detail.
func CurveParam(x, detail int) float32 {
	if detail <= 0 {
		return 0
	}
	return float32(x) / float32(detail)
}

// CellUV is the normalized surface parameter of texel (x, y) in a surface
// cell. In a flipped cell the x axis runs along surface V.
func CellUV(x, y int, d layout.SurfaceDetail) math.Vec2 {
	s := CurveParam(x, d.U)
	t := CurveParam(y, d.V)
	if d.Flipped {
		return math.Vec2{X: t, Y: s}
	}
	return math.Vec2{X: s, Y: t}
}
