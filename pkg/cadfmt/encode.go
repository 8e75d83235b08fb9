package cadfmt

import (
	stdmath "math"

	"github.com/Masterminds/semver/v3"

	"github.com/Faultbox/midgard-cad/pkg/binrec"
	"github.com/Faultbox/midgard-cad/pkg/math"
)

// Encoder writes library buffers in the layout the libraries read. Records
// are packed one after another into the raster, each starting on a texel
// boundary. It is used to synthesise assets for tests and tooling.
type Encoder struct {
	dec Decoders
}

// NewEncoder returns an encoder for the given format version.
func NewEncoder(version *semver.Version) *Encoder {
	return &Encoder{dec: DecodersFor(version)}
}

// Version returns the format version being written.
func (e *Encoder) Version() *semver.Version {
	return e.dec.Version
}

func textureWidthFor(texels int) int {
	w := int(stdmath.Ceil(stdmath.Sqrt(float64(texels))))
	return max(w, 1)
}

// raster lays out n records and prepends the header and TOC.
func (e *Encoder) raster(n int, withArea bool, area float32, write func(w *binrec.Writer, i int)) []byte {
	body := binrec.NewWriter()
	addrs := make([]int, n)
	for i := 0; i < n; i++ {
		body.Align(halfTexelBytes)
		addrs[i] = body.Pos() / halfTexelBytes
		write(body, i)
	}
	body.Align(halfTexelBytes)
	width := textureWidthFor(body.Len() / halfTexelBytes)

	out := binrec.NewWriter()
	out.U32(uint32(n))
	out.U32(uint32(width))
	if withArea {
		out.F32(area)
	}
	for _, a := range addrs {
		out.UnsignedF16(float32(a % width))
		out.UnsignedF16(float32(a / width))
	}
	out.Align(halfTexelBytes)
	start := out.Pos()
	out.Pad(start + width*width*halfTexelBytes)
	copy(out.Bytes()[start:], body.Bytes())
	return out.Bytes()
}

// Curves encodes a curve library.
func (e *Encoder) Curves(curves []Curve) []byte {
	return e.raster(len(curves), false, 0, func(w *binrec.Writer, i int) {
		e.writeCurve(w, &curves[i])
	})
}

func (e *Encoder) writeCurve(w *binrec.Writer, c *Curve) {
	w.F16x4(float32(c.Type), c.Domain[0], c.Domain[1], float32(c.Flags))
	w.F16x4(c.Param, c.Length, 0, 0)
	switch c.Type {
	case CurveTypeCircle, CurveTypeEllipse:
		w.F16x4(c.Radius, c.MinorRadius, 0, 0)
	case CurveTypeNurbsCurve:
		w.F16x4(float32(c.Degree), float32(len(c.ControlPoints)), float32(len(c.Knots)), 0)
		writeControlPoints(w, c.ControlPoints)
		e.dec.Knots.Encode(w, c.Knots)
	}
}

// Surfaces encodes a surface library. The total area is stored in the
// header when the format version carries it.
func (e *Encoder) Surfaces(surfaces []Surface) []byte {
	var area float32
	for i := range surfaces {
		area += surfaces[i].Area()
	}
	return e.raster(len(surfaces), e.dec.StoredSurfaceArea, area, func(w *binrec.Writer, i int) {
		e.writeSurface(w, &surfaces[i])
	})
}

func (e *Encoder) writeSurface(w *binrec.Writer, s *Surface) {
	w.F16(float32(s.Type))
	w.F16(float32(s.Flags))
	e.dec.TrimSetID.Encode(w, s.TrimSetID)
	w.F16x4(s.Domain.Min.X, s.Domain.Min.Y, s.Domain.Max.X, s.Domain.Max.Y)
	w.F16x4(s.CurvatureU, s.CurvatureV, s.SizeU, s.SizeV)

	switch s.Type {
	case SurfaceTypeCylinder, SurfaceTypeSphere:
		w.F16x4(s.Radius, 0, 0, 0)
	case SurfaceTypeCone:
		w.F16x4(s.Radius, s.SemiAngle, 0, 0)
	case SurfaceTypeTorus:
		w.F16x4(s.Radius, s.MinorRadius, 0, 0)
	case SurfaceTypeLinearExtrusion, SurfaceTypeRevolution,
		SurfaceTypeRevolutionFlippedDomain, SurfaceTypeOffsetSurface:
		e.dec.CurveID.Encode(w, s.CurveID)
		w.F16(s.Offset)
		w.F16(0)
		ori := s.Xfo.Ori
		if ori == (math.Quat{}) {
			ori = math.QuatIdentity()
		}
		w.F16x4(s.Xfo.Tr.X, s.Xfo.Tr.Y, s.Xfo.Tr.Z, 0)
		w.F16x4(ori.X, ori.Y, ori.Z, ori.W)
	case SurfaceTypeNurbsSurface:
		w.F16x4(float32(s.DegreeU), float32(s.DegreeV), float32(s.NumU), float32(s.NumV))
		w.F16x4(float32(len(s.KnotsU)), float32(len(s.KnotsV)), 0, 0)
		writeControlPoints(w, s.ControlPoints)
		e.dec.Knots.Encode(w, s.KnotsU)
		w.Align(halfTexelBytes)
		e.dec.Knots.Encode(w, s.KnotsV)
	}
}

func writeControlPoints(w *binrec.Writer, cps []math.Vec4) {
	for _, cp := range cps {
		w.F16x4(cp.X, cp.Y, cp.Z, cp.W)
	}
}

// TrimSets encodes a trim-set library.
func (e *Encoder) TrimSets(sets []TrimSet) []byte {
	return e.raster(len(sets), false, 0, func(w *binrec.Writer, i int) {
		ts := &sets[i]
		w.F16x4(float32(len(ts.Perimeter)), float32(len(ts.Holes)), ts.SizeU, ts.SizeV)
		e.writeCurveRefs(w, ts.Perimeter)
		for _, hole := range ts.Holes {
			w.F16x4(float32(len(hole)), 0, 0, 0)
			e.writeCurveRefs(w, hole)
		}
	})
}

func (e *Encoder) writeCurveRefs(w *binrec.Writer, refs []CurveRef) {
	for _, ref := range refs {
		e.dec.CurveID.Encode(w, ref.CurveID)
		w.F16(float32(ref.Flags))
		w.F16(0)
		w.F16x4(ref.Xfo.Tr.X, ref.Xfo.Tr.Y, 0, 0)
		w.F16x4(ref.Xfo.M[0], ref.Xfo.M[1], ref.Xfo.M[2], ref.Xfo.M[3])
	}
}

// Bodies encodes the body raster and its TOC buffer.
func (e *Encoder) Bodies(bodies []Body) (data, toc []byte) {
	body := binrec.NewWriter()
	addrs := make([]int, len(bodies))
	for i := range bodies {
		b := &bodies[i]
		addrs[i] = body.Pos() / floatTexelBytes

		numCurves := 0
		if e.dec.BodyCurveRefs {
			numCurves = len(b.Curves)
		}
		body.F32x4(float32(len(b.Surfaces)), float32(numCurves), 0, 0)
		body.F32x4(b.BBox.Min.X, b.BBox.Min.Y, b.BBox.Min.Z, 0)
		body.F32x4(b.BBox.Max.X, b.BBox.Max.Y, b.BBox.Max.Z, 0)
		writeBodyRefs(body, b.Surfaces)
		writeBodyRefs(body, b.Curves[:numCurves])
	}
	width := textureWidthFor(body.Len() / floatTexelBytes)
	body.Pad(width * width * floatTexelBytes)

	t := binrec.NewWriter()
	t.U32(uint32(len(bodies)))
	t.U32(uint32(width))
	for _, a := range addrs {
		t.U32(uint32(a % width))
		t.U32(uint32(a / width))
	}
	return body.Bytes(), t.Bytes()
}

func writeBodyRefs(w *binrec.Writer, refs []BodyRef) {
	for _, ref := range refs {
		ori, sc := ref.Xfo.Ori, ref.Xfo.Sc
		if ori == (math.Quat{}) {
			ori = math.QuatIdentity()
		}
		if sc == (math.Vec3{}) {
			sc = math.Vec3{X: 1, Y: 1, Z: 1}
		}
		w.F32x4(float32(ref.ID), ref.Xfo.Tr.X, ref.Xfo.Tr.Y, ref.Xfo.Tr.Z)
		w.F32x4(ori.X, ori.Y, ori.Z, ori.W)
		w.F32x4(sc.X, sc.Y, sc.Z, 0)
		w.F32x4(ref.Color.X, ref.Color.Y, ref.Color.Z, ref.Color.W)
	}
}
