package nurbs

import (
	"github.com/Faultbox/midgard-cad/pkg/math"
)

// Curve is a rational B-spline curve.
type Curve struct {
	Degree        int
	ControlPoints []math.Vec4
	Knots         []float32
}

// Domain returns the parameter range [knots[p], knots[n+1]].
func (c *Curve) Domain() (float32, float32) {
	return c.Knots[c.Degree], c.Knots[len(c.Knots)-c.Degree-1]
}

// Point evaluates the curve at parameter u.
func (c *Curve) Point(u float32) math.Vec3 {
	p, _ := c.PointAndTangent(u)
	return p
}

// PointAndTangent evaluates the position and first derivative at u. Zero
// total weight is treated as weight 1.
func (c *Curve) PointAndTangent(u float32) (math.Vec3, math.Vec3) {
	var n, d [MaxDegree + 1]float32
	span := FindSpan(u, c.Degree, c.Knots)
	BasisFunsDerivs(span, u, c.Degree, c.Knots, n[:], d[:])

	var a, da math.Vec3
	var w, dw float32
	for j := 0; j <= c.Degree; j++ {
		cp := c.ControlPoints[span-c.Degree+j]
		pw := cp.XYZ().Scale(cp.W)
		a = a.Add(pw.Scale(n[j]))
		da = da.Add(pw.Scale(d[j]))
		w += cp.W * n[j]
		dw += cp.W * d[j]
	}
	if w == 0 {
		w = 1
	}
	pos := a.Scale(1 / w)
	tan := da.Sub(pos.Scale(dw)).Scale(1 / w)
	return pos, tan
}
