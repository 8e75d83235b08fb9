package main

import (
	stdmath "math"

	"github.com/Faultbox/midgard-cad/pkg/cadfmt"
	"github.com/Faultbox/midgard-cad/pkg/math"
)

const pi = float32(stdmath.Pi)

// sampleAsset builds a small asset exercising every evaluation category:
// a sphere, a torus, a plane trimmed to a square with a circular hole, a
// cylinder revolved from a line, and a bilinear NURBS patch.
func sampleAsset(name string) *cadfmt.Builder {
	b := &cadfmt.Builder{Name: name}

	line := len(b.Curves)
	b.Curves = append(b.Curves, cadfmt.Curve{CurveDims: cadfmt.CurveDims{
		Type: cadfmt.CurveTypeLine, Domain: [2]float32{0, 1}, Length: 1,
	}})
	circle := len(b.Curves)
	b.Curves = append(b.Curves, cadfmt.Curve{
		CurveDims: cadfmt.CurveDims{
			Type: cadfmt.CurveTypeCircle, Domain: [2]float32{0, 2 * pi},
			Param: 2 * pi, Length: 2 * pi * 0.15,
		},
		Radius: 0.15,
	})
	arc := len(b.Curves)
	w := float32(stdmath.Sqrt2 / 2)
	b.Curves = append(b.Curves, cadfmt.Curve{
		CurveDims: cadfmt.CurveDims{
			Type: cadfmt.CurveTypeNurbsCurve, Domain: [2]float32{0, 1},
			Param: pi / 2, Length: pi / 2,
		},
		Degree: 2,
		ControlPoints: []math.Vec4{
			{X: 1, Y: 0, Z: 0, W: 1},
			{X: 1, Y: 1, Z: 0, W: w},
			{X: 0, Y: 1, Z: 0, W: 1},
		},
		Knots: []float32{0, 0, 0, 1, 1, 1},
	})

	// Trim loop: square perimeter counter-clockwise from unit lines, hole
	// clockwise from the reversed circle.
	square := [][2]math.Vec2{
		{{X: 0.1, Y: 0.1}, {X: 0.9, Y: 0.1}},
		{{X: 0.9, Y: 0.1}, {X: 0.9, Y: 0.9}},
		{{X: 0.9, Y: 0.9}, {X: 0.1, Y: 0.9}},
		{{X: 0.1, Y: 0.9}, {X: 0.1, Y: 0.1}},
	}
	ts := cadfmt.TrimSet{TrimSetDims: cadfmt.TrimSetDims{SizeU: 2, SizeV: 2}}
	for _, e := range square {
		a, c := e[0], e[1]
		ts.Perimeter = append(ts.Perimeter, cadfmt.CurveRef{
			CurveID: line,
			Xfo:     math.Xfo2D{Tr: a, M: [4]float32{c.X - a.X, 0, c.Y - a.Y, 0}},
		})
	}
	ts.Holes = [][]cadfmt.CurveRef{{{
		CurveID: circle,
		Xfo:     math.Xfo2D{Tr: math.Vec2{X: 0.5, Y: 0.5}, M: [4]float32{1, 0, 0, 1}},
		Flags:   cadfmt.CurveRefReversed,
	}}}
	b.TrimSets = append(b.TrimSets, ts)

	untrimmed := func(t cadfmt.SurfaceType, dom math.Box2, ku, kv, su, sv float32) cadfmt.SurfaceDims {
		return cadfmt.SurfaceDims{
			Type: t, TrimSetID: -1, Domain: dom,
			CurvatureU: ku, CurvatureV: kv, SizeU: su, SizeV: sv,
		}
	}
	full := math.Box2{Min: math.Vec2{X: 0, Y: -pi / 2}, Max: math.Vec2{X: 2 * pi, Y: pi / 2}}

	plane := untrimmed(cadfmt.SurfaceTypePlane, math.Box2{Max: math.Vec2{X: 2, Y: 2}}, 0, 0, 2, 2)
	plane.TrimSetID = 0
	b.Surfaces = append(b.Surfaces,
		cadfmt.Surface{SurfaceDims: untrimmed(cadfmt.SurfaceTypeSphere, full, 2*pi, pi, 2*pi, pi), Radius: 1},
		cadfmt.Surface{
			SurfaceDims: untrimmed(cadfmt.SurfaceTypeTorus,
				math.Box2{Max: math.Vec2{X: 2 * pi, Y: 2 * pi}}, 2*pi, 2*pi, 4*pi, pi),
			Radius: 2, MinorRadius: 0.5,
		},
		cadfmt.Surface{SurfaceDims: plane},
		cadfmt.Surface{
			SurfaceDims: untrimmed(cadfmt.SurfaceTypeRevolution,
				math.Box2{Max: math.Vec2{X: 2 * pi, Y: 1}}, 2*pi, 0, 2*pi, 1),
			CurveID: line,
			Xfo: math.Xfo{
				Tr:  math.Vec3{X: 1},
				Ori: math.QuatFromAxisAngle(math.Vec3{Y: 1}, -pi/2),
				Sc:  math.Vec3{X: 1, Y: 1, Z: 1},
			},
		},
		cadfmt.Surface{
			SurfaceDims: untrimmed(cadfmt.SurfaceTypeLinearExtrusion,
				math.Box2{Max: math.Vec2{X: 1, Y: 1}}, pi/2, 0, pi/2, 1),
			CurveID: arc,
			Xfo:     math.IdentityXfo(),
		},
		cadfmt.Surface{
			SurfaceDims: untrimmed(cadfmt.SurfaceTypeNurbsSurface,
				math.Box2{Max: math.Vec2{X: 1, Y: 1}}, 0, 0, 1, 1),
			DegreeU: 1, DegreeV: 1, NumU: 2, NumV: 2,
			ControlPoints: []math.Vec4{
				{X: 0, Y: 0, Z: 0, W: 1}, {X: 1, Y: 0, Z: 0, W: 1},
				{X: 0, Y: 1, Z: 0.5, W: 1}, {X: 1, Y: 1, Z: 0, W: 1},
			},
			KnotsU: []float32{0, 0, 1, 1},
			KnotsV: []float32{0, 0, 1, 1},
		},
	)

	body := cadfmt.Body{BBox: math.Box3{
		Min: math.Vec3{X: -2.5, Y: -2.5, Z: -1},
		Max: math.Vec3{X: 2.5, Y: 2.5, Z: 1},
	}}
	for id := range b.Surfaces {
		body.Surfaces = append(body.Surfaces, cadfmt.BodyRef{
			ID:    id,
			Xfo:   math.IdentityXfo(),
			Color: math.Vec4{X: 0.7, Y: 0.7, Z: 0.75, W: 1},
		})
	}
	body.Curves = []cadfmt.BodyRef{{ID: arc, Xfo: math.IdentityXfo()}}
	b.Bodies = append(b.Bodies, body)
	return b
}
