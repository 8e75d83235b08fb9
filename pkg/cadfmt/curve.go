package cadfmt

import (
	"fmt"

	"github.com/Masterminds/semver/v3"

	"github.com/Faultbox/midgard-cad/pkg/binrec"
	"github.com/Faultbox/midgard-cad/pkg/math"
)

// CurveLibrary gives random access to the curve records of an asset.
type CurveLibrary struct {
	rasterLibrary
}

// NewCurveLibrary opens a curve library buffer.
func NewCurveLibrary(data []byte, version *semver.Version) (*CurveLibrary, error) {
	lib, err := openRasterLibrary("curves", data, DecodersFor(version), false)
	if err != nil {
		return nil, err
	}
	return &CurveLibrary{rasterLibrary: lib}, nil
}

// CurveDims reads only the curve header.
func (l *CurveLibrary) CurveDims(id int) (CurveDims, error) {
	r, err := l.recordReader(id)
	if err != nil {
		return CurveDims{}, err
	}
	dims := readCurveDims(r)
	if err := r.Err(); err != nil {
		return CurveDims{}, fmt.Errorf("curve %d: %w", id, err)
	}
	if !dims.Type.Valid() {
		return CurveDims{}, fmt.Errorf("curve %d: %w: %d", id, ErrUnknownCurveType, dims.Type)
	}
	return dims, nil
}

// CurveData fully decodes curve id.
func (l *CurveLibrary) CurveData(id int) (*Curve, error) {
	r, err := l.recordReader(id)
	if err != nil {
		return nil, err
	}
	curve, err := readCurve(r, l.dec)
	if err != nil {
		return nil, fmt.Errorf("curve %d: %w", id, err)
	}
	return curve, nil
}

func readCurveDims(r *binrec.Reader) CurveDims {
	t0 := r.F16x4()
	t1 := r.F16x4()
	return CurveDims{
		Type:   CurveType(t0[0]),
		Domain: [2]float32{t0[1], t0[2]},
		Flags:  CurveFlags(t0[3]),
		Param:  t1[0],
		Length: t1[1],
	}
}

func readCurve(r *binrec.Reader, dec Decoders) (*Curve, error) {
	c := &Curve{CurveDims: readCurveDims(r)}

	switch c.Type {
	case CurveTypeLine:
	case CurveTypeCircle:
		c.Radius = r.F16x4()[0]
	case CurveTypeEllipse:
		t := r.F16x4()
		c.Radius, c.MinorRadius = t[0], t[1]
	case CurveTypeNurbsCurve:
		t := r.F16x4()
		c.Degree = int(t[0])
		numCPs, numKnots := int(t[1]), int(t[2])
		if err := r.Err(); err != nil {
			return nil, err
		}
		if err := checkNurbs(c.Degree, numCPs, numKnots); err != nil {
			return nil, err
		}
		c.ControlPoints = readControlPoints(r, numCPs)
		c.Knots = dec.Knots.Decode(r, numKnots)
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownCurveType, c.Type)
	}

	if err := r.Err(); err != nil {
		return nil, err
	}
	return c, nil
}

func readControlPoints(r *binrec.Reader, n int) []math.Vec4 {
	if n*halfTexelBytes > r.Remaining() {
		// Let the reader report the overrun instead of allocating.
		r.Advance(n * halfTexelBytes)
		return nil
	}
	cps := make([]math.Vec4, n)
	for i := range cps {
		t := r.F16x4()
		cps[i] = math.Vec4{X: t[0], Y: t[1], Z: t[2], W: t[3]}
	}
	return cps
}

func checkNurbs(degree, numCPs, numKnots int) error {
	if degree < 1 || degree > MaxDegree {
		return fmt.Errorf("%w: degree %d", ErrInvalidNurbs, degree)
	}
	if numCPs <= degree {
		return fmt.Errorf("%w: %d control points for degree %d", ErrInvalidNurbs, numCPs, degree)
	}
	if numKnots > MaxKnots {
		return fmt.Errorf("%w: %d knots exceeds %d", ErrInvalidNurbs, numKnots, MaxKnots)
	}
	if numKnots != numCPs+degree+1 {
		return fmt.Errorf("%w: %d knots for %d control points of degree %d", ErrInvalidNurbs, numKnots, numCPs, degree)
	}
	return nil
}
