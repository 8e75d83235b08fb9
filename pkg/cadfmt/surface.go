package cadfmt

import (
	"fmt"

	"github.com/Masterminds/semver/v3"

	"github.com/Faultbox/midgard-cad/pkg/binrec"
	"github.com/Faultbox/midgard-cad/pkg/math"
)

// SurfaceLibrary gives random access to the surface records of an asset.
type SurfaceLibrary struct {
	rasterLibrary
	totalArea float32
}

// NewSurfaceLibrary opens a surface library buffer. Files older than the
// stored-area format get their total surface area computed here, once.
func NewSurfaceLibrary(data []byte, version *semver.Version) (*SurfaceLibrary, error) {
	dec := DecodersFor(version)
	lib, err := openRasterLibrary("surfaces", data, dec, dec.StoredSurfaceArea)
	if err != nil {
		return nil, err
	}
	s := &SurfaceLibrary{rasterLibrary: lib}
	if lib.hasStoredArea {
		s.totalArea = lib.storedArea
	} else {
		s.totalArea = s.computeTotalArea()
	}
	return s, nil
}

func (l *SurfaceLibrary) computeTotalArea() float32 {
	var total float32
	for id := 0; id < l.count; id++ {
		dims, err := l.SurfaceDims(id)
		if err != nil {
			continue
		}
		total += dims.Area()
	}
	return total
}

// TotalArea returns the sum of all surface areas.
func (l *SurfaceLibrary) TotalArea() float32 {
	return l.totalArea
}

// SurfaceDims reads only the surface header.
func (l *SurfaceLibrary) SurfaceDims(id int) (SurfaceDims, error) {
	r, err := l.recordReader(id)
	if err != nil {
		return SurfaceDims{}, err
	}
	dims := readSurfaceDims(r, l.dec)
	if err := r.Err(); err != nil {
		return SurfaceDims{}, fmt.Errorf("surface %d: %w", id, err)
	}
	if !dims.Type.Valid() {
		return SurfaceDims{}, fmt.Errorf("surface %d: %w: %d", id, ErrUnknownSurfaceType, dims.Type)
	}
	return dims, nil
}

// SurfaceData fully decodes surface id.
func (l *SurfaceLibrary) SurfaceData(id int) (*Surface, error) {
	r, err := l.recordReader(id)
	if err != nil {
		return nil, err
	}
	s, err := readSurface(r, l.dec)
	if err != nil {
		return nil, fmt.Errorf("surface %d: %w", id, err)
	}
	return s, nil
}

func readSurfaceDims(r *binrec.Reader, dec Decoders) SurfaceDims {
	var d SurfaceDims
	d.Type = SurfaceType(r.F16())
	d.Flags = SurfaceFlags(r.F16())
	d.TrimSetID = dec.TrimSetID.Decode(r)

	t1 := r.F16x4()
	d.Domain = math.Box2{
		Min: math.Vec2{X: t1[0], Y: t1[1]},
		Max: math.Vec2{X: t1[2], Y: t1[3]},
	}
	t2 := r.F16x4()
	d.CurvatureU, d.CurvatureV = t2[0], t2[1]
	d.SizeU, d.SizeV = t2[2], t2[3]
	return d
}

func readSurface(r *binrec.Reader, dec Decoders) (*Surface, error) {
	s := &Surface{SurfaceDims: readSurfaceDims(r, dec)}

	switch s.Type {
	case SurfaceTypePlane, SurfaceTypePolyPlane, SurfaceTypeFan, SurfaceTypeTrimmedRectSurface:
	case SurfaceTypeCylinder, SurfaceTypeSphere:
		s.Radius = r.F16x4()[0]
	case SurfaceTypeCone:
		t := r.F16x4()
		s.Radius, s.SemiAngle = t[0], t[1]
	case SurfaceTypeTorus:
		t := r.F16x4()
		s.Radius, s.MinorRadius = t[0], t[1]
	case SurfaceTypeLinearExtrusion, SurfaceTypeRevolution,
		SurfaceTypeRevolutionFlippedDomain, SurfaceTypeOffsetSurface:
		s.CurveID = dec.CurveID.Decode(r)
		s.Offset = r.F16()
		r.F16()
		tr := r.F16x4()
		ori := r.F16x4()
		s.Xfo = math.Xfo{
			Tr:  math.Vec3{X: tr[0], Y: tr[1], Z: tr[2]},
			Ori: math.Quat{X: ori[0], Y: ori[1], Z: ori[2], W: ori[3]}.Normalize(),
			Sc:  math.Vec3{X: 1, Y: 1, Z: 1},
		}
	case SurfaceTypeNurbsSurface:
		if err := readNurbsSurface(r, dec, s); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownSurfaceType, s.Type)
	}

	if err := r.Err(); err != nil {
		return nil, err
	}
	return s, nil
}

func readNurbsSurface(r *binrec.Reader, dec Decoders, s *Surface) error {
	t3 := r.F16x4()
	t4 := r.F16x4()
	s.DegreeU, s.DegreeV = int(t3[0]), int(t3[1])
	s.NumU, s.NumV = int(t3[2]), int(t3[3])
	numKnotsU, numKnotsV := int(t4[0]), int(t4[1])
	if err := r.Err(); err != nil {
		return err
	}

	if err := checkNurbs(s.DegreeU, s.NumU, numKnotsU); err != nil {
		return fmt.Errorf("U: %w", err)
	}
	if err := checkNurbs(s.DegreeV, s.NumV, numKnotsV); err != nil {
		return fmt.Errorf("V: %w", err)
	}

	s.ControlPoints = readControlPoints(r, s.NumU*s.NumV)
	s.KnotsU = dec.Knots.Decode(r, numKnotsU)
	alignTexel(r)
	s.KnotsV = dec.Knots.Decode(r, numKnotsV)
	return nil
}
