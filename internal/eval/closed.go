package eval

import (
	"fmt"

	"github.com/chewxy/math32"

	"github.com/Faultbox/midgard-cad/pkg/cadfmt"
	"github.com/Faultbox/midgard-cad/pkg/math"
	"github.com/Faultbox/midgard-cad/pkg/nurbs"
)

// Sample is one evaluated surface point.
type Sample struct {
	Position, Normal math.Vec3
}

// curvePoint evaluates a curve at parameter t in its own domain.
func curvePoint(c *cadfmt.Curve, t float32) (pos, tangent math.Vec3, err error) {
	switch c.Type {
	case cadfmt.CurveTypeLine:
		return math.Vec3{X: t}, math.Vec3{X: 1}, nil
	case cadfmt.CurveTypeCircle:
		s, co := math32.Sin(t), math32.Cos(t)
		return math.Vec3{X: c.Radius * co, Y: c.Radius * s},
			math.Vec3{X: -c.Radius * s, Y: c.Radius * co}, nil
	case cadfmt.CurveTypeEllipse:
		s, co := math32.Sin(t), math32.Cos(t)
		return math.Vec3{X: c.Radius * co, Y: c.MinorRadius * s},
			math.Vec3{X: -c.Radius * s, Y: c.MinorRadius * co}, nil
	case cadfmt.CurveTypeNurbsCurve:
		nc := nurbs.Curve{Degree: c.Degree, ControlPoints: c.ControlPoints, Knots: c.Knots}
		pos, tangent = nc.PointAndTangent(t)
		return pos, tangent, nil
	}
	return math.Vec3{}, math.Vec3{}, fmt.Errorf("%w: %d", cadfmt.ErrUnknownCurveType, c.Type)
}

// curveParam maps a normalized parameter into the curve domain.
func curveParam(c *cadfmt.Curve, s float32) float32 {
	return c.Domain[0] + s*(c.Domain[1]-c.Domain[0])
}

// CurveResolver returns decoded curves for compound surfaces.
type CurveResolver func(id int) (*cadfmt.Curve, error)

// surfacePoint evaluates surface s at normalized uv in [0,1]x[0,1].
// Normals face outward unless the record flips them.
func surfacePoint(s *cadfmt.Surface, uv math.Vec2, curves CurveResolver) (Sample, nurbs.Fallback, error) {
	if s.Flags.Has(cadfmt.SurfaceFlippedUV) {
		uv = math.Vec2{X: uv.Y, Y: uv.X}
	}
	d := s.Domain.Lerp(uv)
	u, v := d.X, d.Y

	var out Sample
	var fb nurbs.Fallback

	switch s.Type {
	case cadfmt.SurfaceTypePlane, cadfmt.SurfaceTypePolyPlane,
		cadfmt.SurfaceTypeFan, cadfmt.SurfaceTypeTrimmedRectSurface:
		out = Sample{Position: math.Vec3{X: u, Y: v}, Normal: math.Vec3{Z: 1}}

	case cadfmt.SurfaceTypeCylinder:
		cu, su := math32.Cos(u), math32.Sin(u)
		out = Sample{
			Position: math.Vec3{X: s.Radius * cu, Y: s.Radius * su, Z: v},
			Normal:   math.Vec3{X: cu, Y: su},
		}

	case cadfmt.SurfaceTypeCone:
		cu, su := math32.Cos(u), math32.Sin(u)
		ca, sa := math32.Cos(s.SemiAngle), math32.Sin(s.SemiAngle)
		r := s.Radius + v*sa
		out = Sample{
			Position: math.Vec3{X: r * cu, Y: r * su, Z: v * ca},
			Normal:   math.Vec3{X: ca * cu, Y: ca * su, Z: -sa},
		}

	case cadfmt.SurfaceTypeSphere:
		// Longitude u about +Y starting at -Z, latitude v.
		cu, su := math32.Cos(u), math32.Sin(u)
		cv, sv := math32.Cos(v), math32.Sin(v)
		n := math.Vec3{X: cv * su, Y: sv, Z: -cv * cu}
		out = Sample{Position: n.Scale(s.Radius), Normal: n}

	case cadfmt.SurfaceTypeTorus:
		cu, su := math32.Cos(u), math32.Sin(u)
		cv, sv := math32.Cos(v), math32.Sin(v)
		r := s.Radius + s.MinorRadius*cv
		out = Sample{
			Position: math.Vec3{X: r * cu, Y: r * su, Z: s.MinorRadius * sv},
			Normal:   math.Vec3{X: cv * cu, Y: cv * su, Z: sv},
		}

	case cadfmt.SurfaceTypeLinearExtrusion, cadfmt.SurfaceTypeOffsetSurface:
		c, err := curves(s.CurveID)
		if err != nil {
			return Sample{}, 0, fmt.Errorf("swept curve %d: %w", s.CurveID, err)
		}
		p, t, err := curvePoint(c, u)
		if err != nil {
			return Sample{}, 0, err
		}
		dir := s.Xfo.Ori.Rotate(math.Vec3{Z: 1})
		pos := s.Xfo.TransformPoint(p).Add(dir.Scale(v))
		n := s.Xfo.Ori.Rotate(t).Cross(dir).Normalize()
		if s.Type == cadfmt.SurfaceTypeOffsetSurface {
			pos = pos.Add(n.Scale(s.Offset))
		}
		out = Sample{Position: pos, Normal: n}

	case cadfmt.SurfaceTypeRevolution, cadfmt.SurfaceTypeRevolutionFlippedDomain:
		if s.Type == cadfmt.SurfaceTypeRevolutionFlippedDomain {
			u, v = v, u
		}
		c, err := curves(s.CurveID)
		if err != nil {
			return Sample{}, 0, fmt.Errorf("profile curve %d: %w", s.CurveID, err)
		}
		p, t, err := curvePoint(c, v)
		if err != nil {
			return Sample{}, 0, err
		}
		p = s.Xfo.TransformPoint(p)
		t = s.Xfo.Ori.Rotate(t)
		cu, su := math32.Cos(u), math32.Sin(u)
		rotate := func(q math.Vec3) math.Vec3 {
			return math.Vec3{X: q.X*cu - q.Y*su, Y: q.X*su + q.Y*cu, Z: q.Z}
		}
		pos := rotate(p)
		du := math.Vec3{X: -pos.Y, Y: pos.X}
		dv := rotate(t)
		n := du.Cross(dv)
		if n.Length() < 1e-6 {
			// On the axis: the normal is the axis itself.
			n = math.Vec3{Z: math32.Copysign(1, -t.X)}
		}
		if s.Type == cadfmt.SurfaceTypeRevolutionFlippedDomain {
			n = n.Neg()
		}
		out = Sample{Position: pos, Normal: n.Normalize()}

	case cadfmt.SurfaceTypeNurbsSurface:
		ns := nurbs.Surface{
			DegreeU: s.DegreeU, DegreeV: s.DegreeV,
			NumU: s.NumU, NumV: s.NumV,
			ControlPoints: s.ControlPoints,
			KnotsU:        s.KnotsU,
			KnotsV:        s.KnotsV,
			Domain:        s.Domain,
		}
		pt := ns.Evaluate(uv)
		out = Sample{Position: pt.Position, Normal: pt.Normal}
		fb = pt.Fallback

	default:
		return Sample{}, 0, fmt.Errorf("%w: %d", cadfmt.ErrUnknownSurfaceType, s.Type)
	}

	if s.Flags.Has(cadfmt.SurfaceFlippedNormal) {
		out.Normal = out.Normal.Neg()
	}
	return out, fb, nil
}
