package layout

import (
	stdmath "math"

	"github.com/chewxy/math32"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-cad/pkg/cadfmt"
)

const (
	// MaxDetail bounds the subdivision count of one axis.
	MaxDetail = 1025
	// Non-finite curvature inputs are replaced by this value before the
	// detail formula runs.
	nonFiniteSentinel = 65536
	// Detail used when the radius of curvature is below the tolerance.
	tightRadiusDetail = 6
	// Subdivisions of a circle the size of the bounding sphere at LOD 0.
	baseCircleDetail = 128
)

// ErrorTolerance returns the chord deviation allowed for an asset whose
// bounding sphere has the given radius: the sagitta of one segment of a
// circle of that radius split into 128*2^lod segments.
func ErrorTolerance(bboxRadius float32, lod int) float32 {
	target := float32(baseCircleDetail) * math32.Pow(2, float32(lod))
	return bboxRadius - bboxRadius*math32.Cos(math32.Pi/target)
}

// SurfaceDetail is the subdivision count along both axes of a surface.
// The larger axis is always first; Flipped records that U and V were
// swapped to get there.
type SurfaceDetail struct {
	U, V    int
	Flipped bool
}

// DetailEstimator turns curvature and extent metadata into subdivision
// counts.
type DetailEstimator struct {
	ErrorTolerance float32

	log       *zap.Logger
	clamped   int
	nonFinite int
}

// NewDetailEstimator returns an estimator for one asset.
func NewDetailEstimator(errorTolerance float32, log *zap.Logger) *DetailEstimator {
	if log == nil {
		log = zap.NewNop()
	}
	return &DetailEstimator{ErrorTolerance: errorTolerance, log: log}
}

// Clamped returns how many estimates hit MaxDetail.
func (d *DetailEstimator) Clamped() int {
	return d.clamped
}

// NonFinite returns how many NaN or infinite inputs were replaced.
func (d *DetailEstimator) NonFinite() int {
	return d.nonFinite
}

// Detail computes the subdivision count for a span turning through param
// radians over the given extent.
func (d *DetailEstimator) Detail(param, extent float32) int {
	param = d.finite("param", param)
	extent = d.finite("extent", extent)
	if param == 0 {
		return 1
	}

	param = math32.Abs(param)
	curvature := param / math32.Abs(extent)
	radius := 1 / curvature
	if radius < d.ErrorTolerance {
		return tightRadiusDetail
	}
	a := radius - d.ErrorTolerance
	arcAngle := 2 * math32.Acos(a/radius)
	if !(arcAngle > 0) {
		// Zero tolerance or degenerate input: finest allowed.
		return d.clamp(MaxDetail + 1)
	}
	return d.clamp(d.toDetail(nearestPow2(param / arcAngle)))
}

// CurveDetail returns the detail of a curve record.
func (d *DetailEstimator) CurveDetail(dims cadfmt.CurveDims) int {
	if dims.Flags&cadfmt.CurveCostIsDetail != 0 {
		return d.clamp(d.toDetail(dims.Param))
	}
	return d.Detail(dims.Param, dims.Length)
}

// SurfaceDetail returns the canonical detail of a surface record.
func (d *DetailEstimator) SurfaceDetail(dims cadfmt.SurfaceDims) SurfaceDetail {
	var u, v int
	if dims.Flags.Has(cadfmt.SurfaceCostIsDetailU) {
		u = d.clamp(d.toDetail(dims.CurvatureU))
	} else {
		u = d.Detail(dims.CurvatureU, dims.SizeU)
	}
	if dims.Flags.Has(cadfmt.SurfaceCostIsDetailV) {
		v = d.clamp(d.toDetail(dims.CurvatureV))
	} else {
		v = d.Detail(dims.CurvatureV, dims.SizeV)
	}
	if v > u {
		return SurfaceDetail{U: v, V: u, Flipped: true}
	}
	return SurfaceDetail{U: u, V: v}
}

func (d *DetailEstimator) clamp(detail int) int {
	if detail > MaxDetail {
		d.clamped++
		d.log.Warn("detail clamped", zap.Int("detail", detail), zap.Int("max", MaxDetail))
		return MaxDetail
	}
	return max(detail, 1)
}

// nearestPow2 rounds x to the nearest power of two in log space.
func nearestPow2(x float32) float32 {
	exp := math32.Floor(math32.Log2(x) + 0.5)
	return float32(stdmath.Ldexp(1, int(exp)))
}

// toDetail rounds to an integer, saturating above MaxDetail.
func (d *DetailEstimator) toDetail(x float32) int {
	x = d.finite("detail", x)
	if x > MaxDetail+1 {
		return MaxDetail + 1
	}
	return int(math32.Floor(x + 0.5))
}

// finite replaces a NaN or infinite input with nonFiniteSentinel.
func (d *DetailEstimator) finite(name string, v float32) float32 {
	if !math32.IsNaN(v) && !math32.IsInf(v, 0) {
		return v
	}
	d.nonFinite++
	d.log.Warn("non-finite detail input",
		zap.String("input", name), zap.Float32("value", v), zap.Float32("substitute", nonFiniteSentinel))
	return nonFiniteSentinel
}
