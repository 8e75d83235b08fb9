package nurbs

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/midgard-cad/pkg/math"
)

// Degenerate spans narrower than this fraction of the domain use the
// control-polygon tangent.
const minSpanFraction = 0.01

// Tangents shorter than this are treated as zero.
const minTangentLength = 1e-6

// Surface is a rational B-spline surface.
type Surface struct {
	DegreeU, DegreeV int
	NumU, NumV       int
	ControlPoints    []math.Vec4 // row-major: v*NumU + u
	KnotsU, KnotsV   []float32
	// Domain is the stored parameter domain normalized coordinates map
	// into. A zero domain means the knot range.
	Domain math.Box2
}

// Fallback flags which tangents were replaced by control-polygon
// differences, and whether the homogeneous weight collapsed.
type Fallback uint8

const (
	FallbackTangentU Fallback = 1 << iota
	FallbackTangentV
	FallbackZeroWeight
)

// SurfacePoint is one evaluated sample.
type SurfacePoint struct {
	Position, Normal   math.Vec3
	TangentU, TangentV math.Vec3
	Fallback           Fallback
}

func (s *Surface) domain() math.Box2 {
	if s.Domain != (math.Box2{}) {
		return s.Domain
	}
	return math.Box2{
		Min: math.Vec2{X: s.KnotsU[s.DegreeU], Y: s.KnotsV[s.DegreeV]},
		Max: math.Vec2{X: s.KnotsU[len(s.KnotsU)-s.DegreeU-1], Y: s.KnotsV[len(s.KnotsV)-s.DegreeV-1]},
	}
}

func (s *Surface) cp(u, v int) math.Vec4 {
	return s.ControlPoints[v*s.NumU+u]
}

// Evaluate computes position, tangents and normal at normalized (u, v) in
// [0,1]x[0,1].
func (s *Surface) Evaluate(uv math.Vec2) SurfacePoint {
	dom := s.domain()
	p := dom.Lerp(uv)
	pu, pv := s.DegreeU, s.DegreeV

	var nu, du, nv, dv [MaxDegree + 1]float32
	spanU := FindSpan(p.X, pu, s.KnotsU)
	spanV := FindSpan(p.Y, pv, s.KnotsV)
	BasisFunsDerivs(spanU, p.X, pu, s.KnotsU, nu[:], du[:])
	BasisFunsDerivs(spanV, p.Y, pv, s.KnotsV, nv[:], dv[:])

	var a, au, av math.Vec3
	var w, wu, wv float32
	for j := 0; j <= pv; j++ {
		for i := 0; i <= pu; i++ {
			cp := s.cp(spanU-pu+i, spanV-pv+j)
			pw := cp.XYZ().Scale(cp.W)
			a = a.Add(pw.Scale(nu[i] * nv[j]))
			au = au.Add(pw.Scale(du[i] * nv[j]))
			av = av.Add(pw.Scale(nu[i] * dv[j]))
			w += cp.W * nu[i] * nv[j]
			wu += cp.W * du[i] * nv[j]
			wv += cp.W * nu[i] * dv[j]
		}
	}

	var out SurfacePoint
	if w == 0 {
		w = 1
		out.Fallback |= FallbackZeroWeight
	}
	out.Position = a.Scale(1 / w)
	out.TangentU = au.Sub(out.Position.Scale(wu)).Scale(1 / w)
	out.TangentV = av.Sub(out.Position.Scale(wv)).Scale(1 / w)

	domSize := dom.Size()
	if spanFraction(s.KnotsU, spanU, domSize.X) < minSpanFraction || out.TangentU.Length() < minTangentLength {
		out.TangentU = s.polygonTangentU(spanU, spanV, nu[:], nv[:])
		out.Fallback |= FallbackTangentU
	}
	if spanFraction(s.KnotsV, spanV, domSize.Y) < minSpanFraction || out.TangentV.Length() < minTangentLength {
		out.TangentV = s.polygonTangentV(spanU, spanV, nu[:], nv[:])
		out.Fallback |= FallbackTangentV
	}
	out.Normal = out.TangentU.Cross(out.TangentV).Normalize()
	return out
}

func spanFraction(knots []float32, span int, domain float32) float32 {
	if domain == 0 {
		return 0
	}
	return math32.Abs(knots[span+1]-knots[span]) / math32.Abs(domain)
}

// polygonTangentU differences adjacent control columns around the
// dominant basis function, blended by the V basis. Rows that collapse to a
// point (poles) are skipped in favour of the nearest non-degenerate row.
func (s *Surface) polygonTangentU(spanU, spanV int, nu, nv []float32) math.Vec3 {
	i := spanU - s.DegreeU + argmax(nu[:s.DegreeU+1])
	i = min(i, s.NumU-2)
	var t math.Vec3
	for j := 0; j <= s.DegreeV; j++ {
		row := spanV - s.DegreeV + j
		t = t.Add(s.cp(i+1, row).XYZ().Sub(s.cp(i, row).XYZ()).Scale(nv[j]))
	}
	if t.Length() >= minTangentLength {
		return t
	}
	center := spanV - s.DegreeV + argmax(nv[:s.DegreeV+1])
	for off := 1; off < s.NumV; off++ {
		for _, row := range [2]int{center - off, center + off} {
			if row < 0 || row >= s.NumV {
				continue
			}
			if d := s.cp(i+1, row).XYZ().Sub(s.cp(i, row).XYZ()); d.Length() >= minTangentLength {
				return d
			}
		}
	}
	return t
}

func (s *Surface) polygonTangentV(spanU, spanV int, nu, nv []float32) math.Vec3 {
	j := spanV - s.DegreeV + argmax(nv[:s.DegreeV+1])
	j = min(j, s.NumV-2)
	var t math.Vec3
	for i := 0; i <= s.DegreeU; i++ {
		col := spanU - s.DegreeU + i
		t = t.Add(s.cp(col, j+1).XYZ().Sub(s.cp(col, j).XYZ()).Scale(nu[i]))
	}
	if t.Length() >= minTangentLength {
		return t
	}
	center := spanU - s.DegreeU + argmax(nu[:s.DegreeU+1])
	for off := 1; off < s.NumU; off++ {
		for _, col := range [2]int{center - off, center + off} {
			if col < 0 || col >= s.NumU {
				continue
			}
			if d := s.cp(col, j+1).XYZ().Sub(s.cp(col, j).XYZ()); d.Length() >= minTangentLength {
				return d
			}
		}
	}
	return t
}

func argmax(vs []float32) int {
	best := 0
	for i, v := range vs {
		if v > vs[best] {
			best = i
		}
	}
	return best
}
