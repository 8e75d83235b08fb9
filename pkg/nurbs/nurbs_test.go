package nurbs

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/midgard-cad/pkg/math"
)

const eps = 1e-4

func TestFindSpan(t *testing.T) {
	knots := []float32{0, 0, 0, 1, 2, 3, 3, 3}
	tests := []struct {
		u    float32
		want int
	}{
		{0, 2},
		{0.5, 2},
		{1, 3},
		{2.5, 4},
		{3, 4},
		{4, 4},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FindSpan(tt.u, 2, knots), "u=%v", tt.u)
	}
}

func TestFindSpanSkipsRepeatedKnots(t *testing.T) {
	knots := []float32{0, 0, 1, 1, 2, 2}
	assert.Equal(t, 3, FindSpan(1, 1, knots))
	assert.Equal(t, 3, FindSpan(2, 1, knots))
}

func TestBasisPartitionOfUnity(t *testing.T) {
	knots := []float32{0, 0, 0, 0, 0.2, 0.5, 0.5, 0.9, 1, 1, 1, 1}
	const p = 3
	for i := 0; i <= 100; i++ {
		u := float32(i) / 100
		span := FindSpan(u, p, knots)

		var n, d, n2 [MaxDegree + 1]float32
		BasisFuns(span, u, p, knots, n[:])
		BasisFunsDerivs(span, u, p, knots, n2[:], d[:])

		var sum, dsum float32
		for j := 0; j <= p; j++ {
			assert.GreaterOrEqual(t, n[j], float32(-eps))
			assert.InDelta(t, n[j], n2[j], eps, "A2.2 and A2.3 disagree at u=%v", u)
			sum += n[j]
			dsum += d[j]
		}
		assert.InDelta(t, 1, sum, eps, "u=%v", u)
		assert.InDelta(t, 0, dsum, 1e-3, "derivatives sum at u=%v", u)
	}
}

func TestBasisDerivativeMatchesFiniteDifference(t *testing.T) {
	knots := []float32{0, 0, 0, 0.3, 0.7, 1, 1, 1}
	const p = 2
	u := float32(0.5)
	const h = 1e-3
	span := FindSpan(u, p, knots)

	var n, d, lo, hi [MaxDegree + 1]float32
	BasisFunsDerivs(span, u, p, knots, n[:], d[:])
	BasisFuns(span, u-h, p, knots, lo[:])
	BasisFuns(span, u+h, p, knots, hi[:])
	for j := 0; j <= p; j++ {
		assert.InDelta(t, (hi[j]-lo[j])/(2*h), d[j], 1e-2)
	}
}

func TestCurveClampedEndpoints(t *testing.T) {
	c := &Curve{
		Degree: 3,
		ControlPoints: []math.Vec4{
			{X: 0, Y: 0, Z: 0, W: 1},
			{X: 1, Y: 2, Z: 0, W: 2},
			{X: 3, Y: 2, Z: 1, W: 0.5},
			{X: 4, Y: 0, Z: 0, W: 1},
			{X: 5, Y: -1, Z: 2, W: 1},
		},
		Knots: []float32{0, 0, 0, 0, 0.5, 1, 1, 1, 1},
	}
	lo, hi := c.Domain()
	assertVec(t, math.Vec3{}, c.Point(lo))
	assertVec(t, math.Vec3{X: 5, Y: -1, Z: 2}, c.Point(hi))
}

func TestCurveRationalQuarterCircle(t *testing.T) {
	w := math32.Sqrt(2) / 2
	c := &Curve{
		Degree: 2,
		ControlPoints: []math.Vec4{
			{X: 1, Y: 0, Z: 0, W: 1},
			{X: 1, Y: 1, Z: 0, W: w},
			{X: 0, Y: 1, Z: 0, W: 1},
		},
		Knots: []float32{0, 0, 0, 1, 1, 1},
	}
	for i := 0; i <= 10; i++ {
		p, tan := c.PointAndTangent(float32(i) / 10)
		assert.InDelta(t, 1, p.Length(), eps)
		assert.InDelta(t, 0, p.Dot(tan), 1e-3, "tangent must be perpendicular to radius")
	}
}

func TestSurfaceBilinearPatch(t *testing.T) {
	s := &Surface{
		DegreeU: 1, DegreeV: 1, NumU: 2, NumV: 2,
		ControlPoints: []math.Vec4{
			{X: 0, Y: 0, Z: 0, W: 1}, {X: 2, Y: 0, Z: 0, W: 1},
			{X: 0, Y: 3, Z: 0, W: 1}, {X: 2, Y: 3, Z: 0, W: 1},
		},
		KnotsU: []float32{0, 0, 1, 1},
		KnotsV: []float32{0, 0, 1, 1},
	}
	pt := s.Evaluate(math.Vec2{X: 0.5, Y: 0.5})
	assertVec(t, math.Vec3{X: 1, Y: 1.5}, pt.Position)
	assertVec(t, math.Vec3{Z: 1}, pt.Normal)
	assert.Zero(t, pt.Fallback)
}

func TestSurfaceStoredDomain(t *testing.T) {
	s := &Surface{
		DegreeU: 1, DegreeV: 1, NumU: 2, NumV: 2,
		ControlPoints: []math.Vec4{
			{X: 0, Y: 0, Z: 0, W: 1}, {X: 4, Y: 0, Z: 0, W: 1},
			{X: 0, Y: 4, Z: 0, W: 1}, {X: 4, Y: 4, Z: 0, W: 1},
		},
		KnotsU: []float32{0, 0, 1, 1},
		KnotsV: []float32{0, 0, 1, 1},
		Domain: math.Box2{Min: math.Vec2{X: 0.5, Y: 0.5}, Max: math.Vec2{X: 1, Y: 1}},
	}
	pt := s.Evaluate(math.Vec2{})
	assertVec(t, math.Vec3{X: 2, Y: 2}, pt.Position)
}

// A patch whose last row collapses to a pole: the analytic U tangent
// vanishes there and the control polygon supplies one instead.
func TestSurfaceDegenerateTangentFallback(t *testing.T) {
	s := &Surface{
		DegreeU: 1, DegreeV: 1, NumU: 2, NumV: 2,
		ControlPoints: []math.Vec4{
			{X: -1, Y: 0, Z: 0, W: 1}, {X: 1, Y: 0, Z: 0, W: 1},
			{X: 0, Y: 1, Z: 1, W: 1}, {X: 0, Y: 1, Z: 1, W: 1},
		},
		KnotsU: []float32{0, 0, 1, 1},
		KnotsV: []float32{0, 0, 1, 1},
	}
	pt := s.Evaluate(math.Vec2{X: 0.5, Y: 1})
	require.NotZero(t, pt.Fallback&FallbackTangentU)
	assert.InDelta(t, 1, pt.Normal.Length(), eps)
	assert.True(t, pt.Normal.IsFinite())
}

func TestSurfaceNarrowSpanFallback(t *testing.T) {
	s := &Surface{
		DegreeU: 1, DegreeV: 1, NumU: 3, NumV: 2,
		ControlPoints: []math.Vec4{
			{X: 0, Y: 0, Z: 0, W: 1}, {X: 1, Y: 0, Z: 0, W: 1}, {X: 2, Y: 0, Z: 0, W: 1},
			{X: 0, Y: 1, Z: 0, W: 1}, {X: 1, Y: 1, Z: 0, W: 1}, {X: 2, Y: 1, Z: 0, W: 1},
		},
		KnotsU: []float32{0, 0, 0.001, 1, 1},
		KnotsV: []float32{0, 0, 1, 1},
	}
	pt := s.Evaluate(math.Vec2{X: 0.0005, Y: 0.5})
	assert.NotZero(t, pt.Fallback&FallbackTangentU)
	assertVec(t, math.Vec3{Z: 1}, pt.Normal)
}

func assertVec(t *testing.T, want, got math.Vec3) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, eps, "x of %v", got)
	assert.InDelta(t, want.Y, got.Y, eps, "y of %v", got)
	assert.InDelta(t, want.Z, got.Z, eps, "z of %v", got)
}
