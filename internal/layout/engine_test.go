package layout

import (
	"errors"
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/midgard-cad/pkg/atlas"
	"github.com/Faultbox/midgard-cad/pkg/cadfmt"
	"github.com/Faultbox/midgard-cad/pkg/math"
)

var fullDetail = cadfmt.SurfaceCostIsDetailU | cadfmt.SurfaceCostIsDetailV

func curveWithDetail(detail float32) cadfmt.Curve {
	return cadfmt.Curve{CurveDims: cadfmt.CurveDims{
		Type:   cadfmt.CurveTypeLine,
		Domain: [2]float32{0, 1},
		Flags:  cadfmt.CurveCostIsDetail,
		Param:  detail,
		Length: 1,
	}}
}

func sphere(detail float32) cadfmt.Surface {
	return cadfmt.Surface{
		SurfaceDims: cadfmt.SurfaceDims{
			Type:      cadfmt.SurfaceTypeSphere,
			Flags:     fullDetail,
			TrimSetID: -1,
			Domain: math.Box2{
				Min: math.Vec2{X: 0, Y: -math32.Pi / 2},
				Max: math.Vec2{X: 2 * math32.Pi, Y: math32.Pi / 2},
			},
			CurvatureU: detail, CurvatureV: detail,
			SizeU: 31.4, SizeV: 15.7,
		},
		Radius: 5,
	}
}

func bodyOf(surfaces []int, curves []int) cadfmt.Body {
	b := cadfmt.Body{BBox: math.Box3{Min: math.Vec3{X: -5, Y: -5, Z: -5}, Max: math.Vec3{X: 5, Y: 5, Z: 5}}}
	for _, id := range surfaces {
		b.Surfaces = append(b.Surfaces, cadfmt.BodyRef{ID: id, Xfo: math.IdentityXfo()})
	}
	for _, id := range curves {
		b.Curves = append(b.Curves, cadfmt.BodyRef{ID: id, Xfo: math.IdentityXfo()})
	}
	return b
}

func open(t *testing.T, b *cadfmt.Builder) *cadfmt.Libraries {
	t.Helper()
	libs, err := b.Build(nil).Open()
	require.NoError(t, err)
	return libs
}

func run(t *testing.T, req Request) *Result {
	t.Helper()
	res, err := NewEngine().Run(req)
	require.NoError(t, err)
	return res
}

func TestSphereGetsOneCell(t *testing.T) {
	libs := open(t, &cadfmt.Builder{
		Surfaces: []cadfmt.Surface{sphere(8)},
		Bodies:   []cadfmt.Body{bodyOf([]int{0}, nil)},
	})
	res := run(t, Request{Libraries: libs})

	cell := res.Surfaces.Cells[0]
	assert.Equal(t, atlas.Rect{X: 0, Y: 0, W: 9, H: 9}, cell.Rect)
	assert.Equal(t, SurfaceDetail{U: 8, V: 8}, res.Surfaces.Details[0])
	assert.Equal(t, 9, res.Surfaces.Width)
	assert.Equal(t, 9, res.Surfaces.Height)

	require.Len(t, res.Surfaces.EvalAttrs[cadfmt.CategorySimple], 1)
	assert.Empty(t, res.Surfaces.EvalAttrs[cadfmt.CategoryNurbs])

	key := DrawSetKey{Shape: Shape{U: 8, V: 8}}
	require.Contains(t, res.SurfaceDrawSets, key)
	assert.Equal(t, []DrawInstance{{Body: 0, Item: 0, Primitive: 0, TrimSet: -1}}, res.SurfaceDrawSets[key].Instances)
}

func TestSameShapeCurvesShareOneBlock(t *testing.T) {
	libs := open(t, &cadfmt.Builder{
		Curves: []cadfmt.Curve{curveWithDetail(4), curveWithDetail(4)},
		Bodies: []cadfmt.Body{bodyOf(nil, []int{0, 1})},
	})
	res := run(t, Request{Libraries: libs})

	assert.Equal(t, 1, res.Curves.Blocks, "both curves packed as one bucket block")
	assert.Equal(t, 10, res.Curves.Width)
	assert.Equal(t, 1, res.Curves.Height)
	assert.Equal(t, atlas.Rect{X: 0, Y: 0, W: 5, H: 1}, res.Curves.Cells[0].Rect)
	assert.Equal(t, atlas.Rect{X: 5, Y: 0, W: 5, H: 1}, res.Curves.Cells[1].Rect)

	key := DrawSetKey{Shape: Shape{U: 4}}
	require.Contains(t, res.CurveDrawSets, key)
	assert.Len(t, res.CurveDrawSets[key].Instances, 2)
}

func TestCellsCarryDataAddress(t *testing.T) {
	libs := open(t, &cadfmt.Builder{
		Curves: []cadfmt.Curve{curveWithDetail(2), curveWithDetail(7)},
	})
	res := run(t, Request{Libraries: libs})
	for id := 0; id < 2; id++ {
		x, y, err := libs.Curves.TexelAddress(id)
		require.NoError(t, err)
		assert.Equal(t, x, res.Curves.Cells[id].DataX)
		assert.Equal(t, y, res.Curves.Cells[id].DataY)
	}
}

func TestMalformedRecordIsSkipped(t *testing.T) {
	bad := curveWithDetail(4)
	bad.Type = 9
	libs := open(t, &cadfmt.Builder{
		Curves: []cadfmt.Curve{curveWithDetail(4), bad, curveWithDetail(2)},
		Bodies: []cadfmt.Body{bodyOf(nil, []int{0, 1, 2})},
	})
	res := run(t, Request{Libraries: libs})

	require.Len(t, res.Errors, 1)
	assert.Equal(t, "curves", res.Errors[0].Library)
	assert.Equal(t, 1, res.Errors[0].ID)
	assert.True(t, errors.Is(res.Errors[0], cadfmt.ErrUnknownCurveType))

	assert.False(t, res.Curves.Cells[1].Valid())
	assert.True(t, res.Curves.Cells[0].Valid())
	assert.True(t, res.Curves.Cells[2].Valid())
	assert.Equal(t, 1, res.Stats.Curves.Failed)
	assert.Equal(t, 2, res.CurveDrawSets.Len(), "skipped curve is not drawn")
}

func badNurbsCurve() cadfmt.Curve {
	return cadfmt.Curve{
		CurveDims: cadfmt.CurveDims{Type: cadfmt.CurveTypeNurbsCurve, Domain: [2]float32{0, 1}, Param: 1, Length: 2},
		Degree:    2,
		ControlPoints: []math.Vec4{
			{X: 0, W: 1}, {X: 1, Y: 1, W: 1}, {X: 2, W: 1},
		},
		Knots: []float32{0, 0.5, 1},
	}
}

func extrusionOf(curve int) cadfmt.Surface {
	return cadfmt.Surface{
		SurfaceDims: cadfmt.SurfaceDims{
			Type: cadfmt.SurfaceTypeLinearExtrusion, Flags: fullDetail, TrimSetID: -1,
			Domain:     math.Box2{Max: math.Vec2{X: 1, Y: 1}},
			CurvatureU: 4, CurvatureV: 1, SizeU: 1, SizeV: 1,
		},
		CurveID: curve,
		Xfo:     math.IdentityXfo(),
	}
}

func TestUndecodableRecordsAreSkipped(t *testing.T) {
	libs := open(t, &cadfmt.Builder{
		Curves:   []cadfmt.Curve{curveWithDetail(4), badNurbsCurve()},
		Surfaces: []cadfmt.Surface{sphere(4), extrusionOf(7), extrusionOf(1), extrusionOf(0)},
		Bodies:   []cadfmt.Body{bodyOf([]int{0, 1, 2, 3}, []int{0, 1})},
	})
	res := run(t, Request{Libraries: libs})

	assert.True(t, res.Curves.Cells[0].Valid())
	assert.False(t, res.Curves.Cells[1].Valid())
	assert.Equal(t, 1, res.Stats.Curves.Failed)

	assert.True(t, res.Surfaces.Cells[0].Valid())
	assert.False(t, res.Surfaces.Cells[1].Valid(), "curve id out of range")
	assert.False(t, res.Surfaces.Cells[2].Valid(), "curve was skipped")
	assert.True(t, res.Surfaces.Cells[3].Valid())
	assert.Equal(t, 2, res.Stats.Surfaces.Failed)

	require.Len(t, res.Errors, 3)
	assert.Equal(t, RecordError{Library: "curves", ID: 1, Err: res.Errors[0].Err}, res.Errors[0])
	assert.ErrorIs(t, res.Errors[0], cadfmt.ErrInvalidNurbs)
	assert.Equal(t, 1, res.Errors[1].ID)
	assert.Equal(t, 2, res.Errors[2].ID)
	assert.ErrorIs(t, res.Errors[1], ErrMissingCurve)
	assert.ErrorIs(t, res.Errors[2], ErrMissingCurve)
	require.Len(t, res.Surfaces.EvalAttrs[cadfmt.CategoryCompound], 1)
	assert.Equal(t, 3, res.Surfaces.EvalAttrs[cadfmt.CategoryCompound][0].Surface)
}

func TestSmallSurfacesAreCulled(t *testing.T) {
	small := sphere(2)
	small.SizeU, small.SizeV = 1, 1
	big := sphere(2)
	big.SizeU, big.SizeV = 10, 10
	libs := open(t, &cadfmt.Builder{
		Surfaces: []cadfmt.Surface{big, small},
		Bodies:   []cadfmt.Body{bodyOf([]int{0, 1}, nil)},
	})
	res := run(t, Request{Libraries: libs, SurfaceAreaThreshold: 0.05})

	assert.True(t, res.Surfaces.Cells[0].Valid())
	assert.False(t, res.Surfaces.Cells[1].Valid())
	assert.Equal(t, 1, res.Stats.Surfaces.Culled)
	assert.Equal(t, 1, res.SurfaceDrawSets.Len())
	assert.Empty(t, res.Errors, "culling is not an error")
}

func TestPackOverflowFailsPass(t *testing.T) {
	libs := open(t, &cadfmt.Builder{Curves: []cadfmt.Curve{curveWithDetail(8)}})
	_, err := NewEngine().Run(Request{Libraries: libs, MaxTextureSize: 4})
	assert.ErrorIs(t, err, ErrPackOverflow)
}

func TestCategoriesAndTrimSets(t *testing.T) {
	rev := cadfmt.Surface{
		SurfaceDims: cadfmt.SurfaceDims{
			Type: cadfmt.SurfaceTypeRevolution, Flags: fullDetail, TrimSetID: 0,
			Domain:     math.Box2{Max: math.Vec2{X: 1, Y: 1}},
			CurvatureU: 16, CurvatureV: 2, SizeU: 4, SizeV: 4,
		},
		CurveID: 0,
	}
	ref := func(id int) cadfmt.CurveRef {
		return cadfmt.CurveRef{CurveID: id, Xfo: math.IdentityXfo2D()}
	}
	libs := open(t, &cadfmt.Builder{
		Curves:   []cadfmt.Curve{curveWithDetail(4), curveWithDetail(4), curveWithDetail(8)},
		Surfaces: []cadfmt.Surface{sphere(4), rev},
		TrimSets: []cadfmt.TrimSet{{
			TrimSetDims: cadfmt.TrimSetDims{SizeU: 1, SizeV: 0.5},
			Perimeter:   []cadfmt.CurveRef{ref(0), ref(1)},
			Holes:       [][]cadfmt.CurveRef{{ref(2)}},
		}},
		Bodies: []cadfmt.Body{bodyOf([]int{0, 1}, nil)},
	})
	res := run(t, Request{Libraries: libs, TrimTexelSize: 0.1, TrimBorder: 1})

	require.Len(t, res.Surfaces.EvalAttrs[cadfmt.CategoryCompound], 1)
	assert.Equal(t, 1, res.Surfaces.EvalAttrs[cadfmt.CategoryCompound][0].Surface)
	assert.Equal(t, 1, res.Stats.SurfacesByCategory[cadfmt.CategorySimple])

	cell := res.TrimSets.Cells[0]
	assert.Equal(t, 12, cell.W)
	assert.Equal(t, 7, cell.H)
	interior := res.TrimSets.Interior(0)
	assert.Equal(t, atlas.Rect{X: cell.X + 1, Y: cell.Y + 1, W: 10, H: 5}, interior)

	assert.Equal(t, []int{4, 8}, res.TrimSets.TrimCurveDetails())
	assert.Len(t, res.TrimSets.CurveDrawSets[4].Instances, 2)
	hole := res.TrimSets.CurveDrawSets[8].Instances
	require.Len(t, hole, 1)
	assert.Equal(t, int32(1), hole[0].Loop)

	key := DrawSetKey{Shape: Shape{U: 16, V: 2}}
	require.Contains(t, res.SurfaceDrawSets, key)
	assert.Equal(t, int32(0), res.SurfaceDrawSets[key].Instances[0].TrimSet)
}

func TestDrawSetsSplitByShaderAndHighlight(t *testing.T) {
	libs := open(t, &cadfmt.Builder{
		Surfaces: []cadfmt.Surface{sphere(4)},
		Bodies:   []cadfmt.Body{bodyOf([]int{0}, nil)},
	})
	res := run(t, Request{
		Libraries:   libs,
		Bodies:      []BodyInstance{{BodyID: 0, Shader: 1}, {BodyID: 0, Shader: 1}, {BodyID: 0, Shader: 2}},
		Highlighted: []int{1},
	})

	shape := Shape{U: 4, V: 4}
	normal := DrawSetKey{Shader: 1, Shape: shape}
	lit := DrawSetKey{Shader: 1, Shape: shape, Highlighted: true}
	other := DrawSetKey{Shader: 2, Shape: shape}
	require.Len(t, res.SurfaceDrawSets, 3)
	assert.Equal(t, int32(0), res.SurfaceDrawSets[normal].Instances[0].Body)
	assert.Equal(t, int32(1), res.SurfaceDrawSets[lit].Instances[0].Body)
	assert.Equal(t, int32(2), res.SurfaceDrawSets[other].Instances[0].Body)
	assert.Equal(t, []DrawSetKey{normal, lit, other}, res.SurfaceDrawSets.Keys())

	touched := res.ApplyHighlight([]int{0}, []int{1})
	assert.ElementsMatch(t, []DrawSetKey{normal, lit}, touched)
	assert.True(t, res.Highlighted(0))
	assert.False(t, res.Highlighted(1))
	assert.Equal(t, int32(1), res.SurfaceDrawSets[normal].Instances[0].Body)
	assert.Equal(t, int32(0), res.SurfaceDrawSets[lit].Instances[0].Body)
	assert.Len(t, res.SurfaceDrawSets[other].Instances, 1)

	assert.Nil(t, res.ApplyHighlight([]int{0}, nil), "no change, nothing touched")
}

func TestHighlightDropsEmptySets(t *testing.T) {
	libs := open(t, &cadfmt.Builder{
		Surfaces: []cadfmt.Surface{sphere(4)},
		Bodies:   []cadfmt.Body{bodyOf([]int{0}, nil)},
	})
	res := run(t, Request{Libraries: libs})
	res.ApplyHighlight([]int{0}, nil)

	require.Len(t, res.SurfaceDrawSets, 1)
	for key := range res.SurfaceDrawSets {
		assert.True(t, key.Highlighted)
	}
}

func TestMissingBodyIsRecorded(t *testing.T) {
	libs := open(t, &cadfmt.Builder{
		Surfaces: []cadfmt.Surface{sphere(4)},
		Bodies:   []cadfmt.Body{bodyOf([]int{0}, nil)},
	})
	res := run(t, Request{Libraries: libs, Bodies: []BodyInstance{{BodyID: 0}, {BodyID: 5}}})
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "bodies", res.Errors[0].Library)
	assert.ErrorIs(t, res.Errors[0], cadfmt.ErrInvalidRecordID)
	assert.Equal(t, 1, res.SurfaceDrawSets.Len())
}
