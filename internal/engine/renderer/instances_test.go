package renderer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/midgard-cad/internal/layout"
	"github.com/Faultbox/midgard-cad/pkg/atlas"
	"github.com/Faultbox/midgard-cad/pkg/cadfmt"
	"github.com/Faultbox/midgard-cad/pkg/math"
)

func testResult() *layout.Result {
	res := &layout.Result{}
	res.Surfaces.Cells = []layout.Cell{
		{Rect: atlas.Rect{X: 0, Y: 0, W: 5, H: 3}},
		{Rect: atlas.Rect{X: 5, Y: 0, W: 3, H: 3}},
	}
	res.Surfaces.Details = []layout.SurfaceDetail{{U: 4, V: 2}, {U: 2, V: 2, Flipped: true}}
	res.Surfaces.TrimSets = []int{-1, 0}
	res.TrimSets.Border = 1
	res.TrimSets.Cells = []layout.Cell{{Rect: atlas.Rect{X: 10, Y: 20, W: 8, H: 6}}}
	res.Curves.Cells = []layout.Cell{{Rect: atlas.Rect{X: 2, Y: 1, W: 9, H: 1}}}
	res.Curves.Details = []int{8}
	return res
}

func identity(layout.DrawInstance, bool) Placement {
	return Placement{Xfo: math.IdentityXfo(), Color: math.Vec4{X: 1, Y: 1, Z: 1, W: 1}}
}

var identityTail = []float32{0, 0, 0, 0, 0, 0, 1, 1, 1, 1, 1, 1, 1, 1}

func TestSurfaceInstances(t *testing.T) {
	res := testResult()
	set := &layout.DrawSet{Instances: []layout.DrawInstance{
		{Primitive: 0, TrimSet: -1},
		{Primitive: 1, TrimSet: 0},
	}}
	got := surfaceInstances(res, set, identity)
	require.Len(t, got, 2*instanceStride)

	assert.Equal(t, []float32{0, 0, 5, 3, 4, 2, 0, 0, 0, 0, 0, 0, 0, 0, 0}, got[:15])
	assert.Equal(t, identityTail, got[15:instanceStride])
	assert.Equal(t, []float32{
		5, 0, 3, 3, 2, 2, 1,
		11, 21, 6, 4,
		10, 20, 8, 6,
	}, got[instanceStride:instanceStride+15])
}

func TestSurfaceInstancesUnknownTrimSet(t *testing.T) {
	res := testResult()
	set := &layout.DrawSet{Instances: []layout.DrawInstance{{Primitive: 1, TrimSet: 7}}}
	got := surfaceInstances(res, set, identity)
	assert.Equal(t, make([]float32, 8), got[7:15])
}

func TestCurveInstances(t *testing.T) {
	res := testResult()
	set := &layout.DrawSet{Instances: []layout.DrawInstance{{Primitive: 0, TrimSet: -1}}}
	var curve bool
	place := func(inst layout.DrawInstance, c bool) Placement {
		curve = c
		x := math.IdentityXfo()
		x.Tr = math.Vec3{X: 1, Y: 2, Z: 3}
		return Placement{Xfo: x, Color: math.Vec4{X: 0.5, W: 1}}
	}
	got := curveInstances(res, set, place)
	require.Len(t, got, instanceStride)
	assert.True(t, curve)
	assert.Equal(t, []float32{2, 1, 9, 1, 8, 0, 0}, got[:7])
	assert.Equal(t, []float32{1, 2, 3, 0, 0, 0, 1, 1, 1, 1, 0.5, 0, 0, 1}, got[15:])
}

func TestInstanceLayout(t *testing.T) {
	n := 0
	for _, s := range instanceAttribs {
		n += s
	}
	assert.Equal(t, instanceStride, n)
}

func TestBodyRefs(t *testing.T) {
	b := &cadfmt.Builder{
		Bodies: []cadfmt.Body{{
			BBox: math.EmptyBox3(),
			Surfaces: []cadfmt.BodyRef{
				{ID: 0},
				{ID: 1, Xfo: math.Xfo{Tr: math.Vec3{X: 4}, Ori: math.QuatIdentity(), Sc: math.Vec3{X: 1, Y: 1, Z: 1}}},
			},
		}},
	}
	libs, err := b.Build(nil).Open()
	require.NoError(t, err)

	res := &layout.Result{Bodies: []layout.BodyInstance{{BodyID: 0}}}
	refs := newBodyRefs(libs, res)
	assert.Equal(t, float32(4), refs.placement(layout.DrawInstance{Body: 0, Item: 1}, false).Xfo.Tr.X)
	assert.Equal(t, math.IdentityXfo(), refs.placement(layout.DrawInstance{Body: 0, Item: 0}, false).Xfo)
	assert.Equal(t, math.IdentityXfo(), refs.placement(layout.DrawInstance{Body: 0, Item: 5}, true).Xfo)
	assert.Equal(t, math.Vec4{X: 1, Y: 1, Z: 1, W: 1}, refs.placement(layout.DrawInstance{Body: 0, Item: 0}, false).Color)
}

func TestBodyRefsApplyEntityPlacement(t *testing.T) {
	b := &cadfmt.Builder{
		Bodies: []cadfmt.Body{{
			BBox: math.EmptyBox3(),
			Surfaces: []cadfmt.BodyRef{{
				ID:    0,
				Xfo:   math.Xfo{Tr: math.Vec3{X: 4}, Ori: math.QuatIdentity(), Sc: math.Vec3{X: 1, Y: 1, Z: 1}},
				Color: math.Vec4{X: 0.5, Y: 1, Z: 1, W: 1},
			}},
		}},
	}
	libs, err := b.Build(nil).Open()
	require.NoError(t, err)

	entity := math.IdentityXfo()
	entity.Tr = math.Vec3{Y: 10}
	entity.Sc = math.Vec3{X: 2, Y: 2, Z: 2}
	res := &layout.Result{Bodies: []layout.BodyInstance{{
		BodyID: 0,
		Xfo:    entity,
		Color:  math.Vec4{X: 1, Y: 0.5, Z: 1, W: 1},
	}}}
	set := &layout.DrawSet{Instances: []layout.DrawInstance{{Body: 0, Item: 0, Primitive: 0, TrimSet: -1}}}

	got := surfaceInstances(testResult(), set, newBodyRefs(libs, res).placement)
	require.Len(t, got, instanceStride)
	// The reference offset is scaled by the entity, then moved with it.
	assert.Equal(t, []float32{8, 10, 0}, got[15:18])
	assert.Equal(t, []float32{2, 2, 2}, got[22:25])
	assert.Equal(t, []float32{0.5, 0.5, 1, 1}, got[25:29])
}

func TestDrawColor(t *testing.T) {
	assert.Equal(t, palette[0], drawColor(layout.DrawSetKey{Shader: 0}, false))
	assert.Equal(t, palette[1], drawColor(layout.DrawSetKey{Shader: 1 + len(palette)}, false))
	assert.Equal(t, palette[len(palette)-1], drawColor(layout.DrawSetKey{Shader: -1}, false))
	assert.Equal(t, curveColor, drawColor(layout.DrawSetKey{}, true))
	assert.Equal(t, highlightColor, drawColor(layout.DrawSetKey{Highlighted: true}, true))
	assert.Equal(t, highlightColor, drawColor(layout.DrawSetKey{Shader: 2, Highlighted: true}, false))
}
