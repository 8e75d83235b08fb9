// Package cadfmt decodes the binary CAD geometry libraries (curves,
// surfaces, trim sets and bodies) that the GPU tessellator consumes.
//
// Curve, surface and trim-set records live in square RGBA16F rasters so the
// evaluation shaders can sample them directly; each library starts with a
// table of contents mapping record ids to texel addresses.
package cadfmt

import (
	"errors"
	"fmt"

	"github.com/Faultbox/midgard-cad/pkg/math"
)

// Library format errors.
var (
	ErrTruncatedHeader    = errors.New("truncated library header")
	ErrInvalidRecordID    = errors.New("record id out of range")
	ErrUnknownCurveType   = errors.New("unknown curve type")
	ErrUnknownSurfaceType = errors.New("unknown surface type")
	ErrInvalidNurbs       = errors.New("inconsistent NURBS definition")
	ErrTextureTooLarge    = errors.New("data texture exceeds addressable size")
)

// MaxDegree is the highest NURBS degree the evaluators support.
const MaxDegree = 8

// MaxKnots bounds the knot vector length per parametric direction.
const MaxKnots = 128

// MaxTextureWidth is the largest raster width addressable through the
// unsigned half-float TOC encoding.
const MaxTextureWidth = 4096

// CurveType tags a curve record.
type CurveType int

// Curve type tags as stored in the first half of a curve record.
const (
	CurveTypeLine       CurveType = 0
	CurveTypeCircle     CurveType = 1
	CurveTypeEllipse    CurveType = 2
	CurveTypeNurbsCurve CurveType = 20
)

// String returns a human-readable curve type name.
func (t CurveType) String() string {
	switch t {
	case CurveTypeLine:
		return "Line"
	case CurveTypeCircle:
		return "Circle"
	case CurveTypeEllipse:
		return "Ellipse"
	case CurveTypeNurbsCurve:
		return "NurbsCurve"
	default:
		return fmt.Sprintf("Unknown(%d)", int(t))
	}
}

// Valid reports whether the tag is a known curve type.
func (t CurveType) Valid() bool {
	switch t {
	case CurveTypeLine, CurveTypeCircle, CurveTypeEllipse, CurveTypeNurbsCurve:
		return true
	}
	return false
}

// SurfaceType tags a surface record.
type SurfaceType int

// Surface type tags as stored in the first half of a surface record.
const (
	SurfaceTypePlane                   SurfaceType = 0
	SurfaceTypeCone                    SurfaceType = 1
	SurfaceTypeCylinder                SurfaceType = 2
	SurfaceTypeSphere                  SurfaceType = 3
	SurfaceTypeTorus                   SurfaceType = 4
	SurfaceTypeLinearExtrusion         SurfaceType = 5
	SurfaceTypeRevolution              SurfaceType = 6
	SurfaceTypeRevolutionFlippedDomain SurfaceType = 7
	SurfaceTypeOffsetSurface           SurfaceType = 8
	SurfaceTypePolyPlane               SurfaceType = 14
	SurfaceTypeFan                     SurfaceType = 15
	SurfaceTypeTrimmedRectSurface      SurfaceType = 16
	SurfaceTypeNurbsSurface            SurfaceType = 20
)

var surfaceTypeNames = map[SurfaceType]string{
	SurfaceTypePlane:                   "Plane",
	SurfaceTypeCone:                    "Cone",
	SurfaceTypeCylinder:                "Cylinder",
	SurfaceTypeSphere:                  "Sphere",
	SurfaceTypeTorus:                   "Torus",
	SurfaceTypeLinearExtrusion:         "LinearExtrusion",
	SurfaceTypeRevolution:              "Revolution",
	SurfaceTypeRevolutionFlippedDomain: "RevolutionFlippedDomain",
	SurfaceTypeOffsetSurface:           "OffsetSurface",
	SurfaceTypePolyPlane:               "PolyPlane",
	SurfaceTypeFan:                     "Fan",
	SurfaceTypeTrimmedRectSurface:      "TrimmedRectSurface",
	SurfaceTypeNurbsSurface:            "NurbsSurface",
}

// String returns a human-readable surface type name.
func (t SurfaceType) String() string {
	if name, ok := surfaceTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Unknown(%d)", int(t))
}

// Valid reports whether the tag is a known surface type.
func (t SurfaceType) Valid() bool {
	_, ok := surfaceTypeNames[t]
	return ok
}

// EvalCategory selects the evaluation shader a surface needs. Each category
// binds different inputs, so surfaces are batched per category.
type EvalCategory int

const (
	// CategorySimple covers closed-form analytic surfaces.
	CategorySimple EvalCategory = iota
	// CategoryCompound covers surfaces swept from a referenced curve.
	CategoryCompound
	// CategoryNurbs covers rational B-spline surfaces.
	CategoryNurbs

	NumCategories = 3
)

// String returns the category name.
func (c EvalCategory) String() string {
	switch c {
	case CategorySimple:
		return "Simple"
	case CategoryCompound:
		return "Compound"
	case CategoryNurbs:
		return "Nurbs"
	default:
		return fmt.Sprintf("Unknown(%d)", int(c))
	}
}

// Category returns the evaluation category for the surface type.
func (t SurfaceType) Category() EvalCategory {
	switch t {
	case SurfaceTypeLinearExtrusion, SurfaceTypeRevolution,
		SurfaceTypeRevolutionFlippedDomain, SurfaceTypeOffsetSurface:
		return CategoryCompound
	case SurfaceTypeNurbsSurface:
		return CategoryNurbs
	default:
		return CategorySimple
	}
}

// CurveFlags are stored in the curve record header.
type CurveFlags uint16

const (
	// CurveCostIsDetail means Param already holds the tessellation detail.
	CurveCostIsDetail CurveFlags = 1 << 0
)

// SurfaceFlags are stored in the surface record header.
type SurfaceFlags uint16

const (
	SurfacePeriodicU     SurfaceFlags = 1 << 0
	SurfacePeriodicV     SurfaceFlags = 1 << 1
	SurfaceFlippedNormal SurfaceFlags = 1 << 2
	SurfaceFlippedUV     SurfaceFlags = 1 << 3
	SurfaceCostIsDetailU SurfaceFlags = 1 << 4
	SurfaceCostIsDetailV SurfaceFlags = 1 << 5
)

// Has reports whether all bits of f are set.
func (s SurfaceFlags) Has(f SurfaceFlags) bool {
	return s&f == f
}

// CurveRefFlags are stored on trim-loop curve references.
type CurveRefFlags uint16

const (
	// CurveRefReversed means the curve is traversed from domain max to min.
	CurveRefReversed CurveRefFlags = 1 << 0
)

// CurveDims is the metadata-only part of a curve record.
type CurveDims struct {
	Type   CurveType
	Domain [2]float32
	Flags  CurveFlags
	// Param is the total turning angle along the curve, or the detail
	// itself when CurveCostIsDetail is set.
	Param  float32
	Length float32
}

// Curve is a fully decoded curve record.
type Curve struct {
	CurveDims

	// Radius is the circle radius or the ellipse major radius.
	Radius      float32
	MinorRadius float32

	Degree        int
	ControlPoints []math.Vec4
	Knots         []float32
}

// SurfaceDims is the metadata-only part of a surface record.
type SurfaceDims struct {
	Type      SurfaceType
	Flags     SurfaceFlags
	TrimSetID int
	Domain    math.Box2

	CurvatureU, CurvatureV float32
	SizeU, SizeV           float32
}

// Area returns the approximate surface area used for culling.
func (d SurfaceDims) Area() float32 {
	return d.SizeU * d.SizeV
}

// Trimmed reports whether the surface carries a trim set.
func (d SurfaceDims) Trimmed() bool {
	return d.TrimSetID >= 0
}

// Surface is a fully decoded surface record.
type Surface struct {
	SurfaceDims

	// Radius is the cylinder/cone/sphere radius or the torus major radius.
	Radius      float32
	MinorRadius float32
	SemiAngle   float32

	// Swept surfaces reference a curve placed by Xfo (scale is unused).
	CurveID int
	Offset  float32
	Xfo     math.Xfo

	DegreeU, DegreeV int
	NumU, NumV       int
	// ControlPoints are row-major: index v*NumU + u, weight in W.
	ControlPoints []math.Vec4
	KnotsU        []float32
	KnotsV        []float32
}

// CurveRef places a curve inside a trim loop.
type CurveRef struct {
	CurveID int
	Xfo     math.Xfo2D
	Flags   CurveRefFlags
}

// Reversed reports whether the curve runs backwards in the loop.
func (c CurveRef) Reversed() bool {
	return c.Flags&CurveRefReversed != 0
}

// TrimSetDims is the metadata-only part of a trim-set record.
type TrimSetDims struct {
	SizeU, SizeV float32
}

// TrimSet is a fully decoded trim-set record.
type TrimSet struct {
	TrimSetDims
	Perimeter []CurveRef
	Holes     [][]CurveRef
}

// Loops returns the perimeter followed by every hole loop.
func (t *TrimSet) Loops() [][]CurveRef {
	loops := make([][]CurveRef, 0, 1+len(t.Holes))
	loops = append(loops, t.Perimeter)
	return append(loops, t.Holes...)
}

// BodyRef places a surface or curve inside a body.
type BodyRef struct {
	ID    int
	Xfo   math.Xfo
	Color math.Vec4
}

// Body is a decoded body record.
type Body struct {
	BBox     math.Box3
	Surfaces []BodyRef
	Curves   []BodyRef
}
