package scene

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/midgard-cad/internal/config"
	"github.com/Faultbox/midgard-cad/internal/layout"
	"github.com/Faultbox/midgard-cad/internal/worker"
	"github.com/Faultbox/midgard-cad/pkg/cadfmt"
	"github.com/Faultbox/midgard-cad/pkg/math"
)

func testAsset(t *testing.T, debounce time.Duration) *Asset {
	t.Helper()
	b := &cadfmt.Builder{
		Name: "bracket",
		Surfaces: []cadfmt.Surface{{
			SurfaceDims: cadfmt.SurfaceDims{
				Type:       cadfmt.SurfaceTypePlane,
				Flags:      cadfmt.SurfaceCostIsDetailU | cadfmt.SurfaceCostIsDetailV,
				TrimSetID:  -1,
				Domain:     math.Box2{Max: math.Vec2{X: 1, Y: 1}},
				CurvatureU: 2, CurvatureV: 2, SizeU: 1, SizeV: 1,
			},
		}},
		Bodies: []cadfmt.Body{{
			BBox:     math.Box3{Max: math.Vec3{X: 1, Y: 1, Z: 1}},
			Surfaces: []cadfmt.BodyRef{{ID: 0, Xfo: math.IdentityXfo()}},
		}},
	}
	pool := worker.NewPool(2)
	t.Cleanup(pool.Close)

	cfg := config.Default()
	cfg.Worker.HighlightDebounce = debounce
	a, err := NewAsset(b.Build(nil), pool, OptionsFrom(cfg, 1))
	require.NoError(t, err)
	return a
}

func TestRelayoutPlacesVisibleEntities(t *testing.T) {
	a := testAsset(t, 0)
	a.AddBody(NewBody(0, 1), 0)
	hidden := NewBody(0, 1)
	hidden.Hidden = true
	a.AddBody(hidden, 0)
	a.AddBody(NewBody(0, 2), 0)

	res, err := a.Relayout(context.Background())
	require.NoError(t, err)
	assert.Same(t, res, a.Result())
	require.Len(t, res.Bodies, 2)
	assert.Equal(t, []int{0, -1, 1}, a.placement)

	shape := layout.Shape{U: 2, V: 2}
	assert.Len(t, res.SurfaceDrawSets[layout.DrawSetKey{Shader: 1, Shape: shape}].Instances, 1)
	assert.Len(t, res.SurfaceDrawSets[layout.DrawSetKey{Shader: 2, Shape: shape}].Instances, 1)
}

func TestStaleLayoutIsDiscarded(t *testing.T) {
	a := testAsset(t, 0)
	a.AddBody(NewBody(0, 0), 0)

	old := a.gen.Next()
	newer := a.gen.Next()

	_, err := a.apply(old, &layout.Result{}, nil)
	assert.ErrorIs(t, err, ErrStale)
	assert.Nil(t, a.Result())

	res := &layout.Result{}
	got, err := a.apply(newer, res, nil)
	require.NoError(t, err)
	assert.Same(t, res, got)
}

func TestHighlightFlushMovesInstances(t *testing.T) {
	a := testAsset(t, 0)
	i := a.AddBody(NewBody(0, 0), 0)
	_, err := a.Relayout(context.Background())
	require.NoError(t, err)

	var changed []layout.DrawSetKey
	a.OnDrawSetsChanged(func(keys []layout.DrawSetKey) { changed = keys })

	a.SetHighlighted(i, true)
	shape := layout.Shape{U: 2, V: 2}
	assert.ElementsMatch(t, []layout.DrawSetKey{
		{Shape: shape},
		{Shape: shape, Highlighted: true},
	}, changed)
	assert.True(t, a.Result().Highlighted(0))

	// Re-applying the same state is a no-op.
	changed = nil
	a.SetHighlighted(i, true)
	assert.Nil(t, changed)
}

func TestHighlightSurvivesRelayout(t *testing.T) {
	a := testAsset(t, time.Hour)
	i := a.AddBody(NewBody(0, 0), 0)
	a.SetHighlighted(i, true)

	res, err := a.Relayout(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Highlighted(0))
	assert.Nil(t, a.FlushHighlight(), "relayout consumed the pending change")
}

func TestHighlightIsDebounced(t *testing.T) {
	a := testAsset(t, 10*time.Millisecond)
	i := a.AddBody(NewBody(0, 0), 0)
	_, err := a.Relayout(context.Background())
	require.NoError(t, err)

	flushed := make(chan []layout.DrawSetKey, 4)
	a.OnDrawSetsChanged(func(keys []layout.DrawSetKey) { flushed <- keys })

	a.SetHighlighted(i, true)
	a.SetHighlighted(i, false)
	a.SetHighlighted(i, true)

	select {
	case keys := <-flushed:
		assert.Len(t, keys, 2)
	case <-time.After(2 * time.Second):
		t.Fatal("highlight change was never flushed")
	}
	assert.True(t, a.Result().Highlighted(0))
	assert.Empty(t, flushed, "changes were coalesced into one flush")
}

func TestFormatVersionOverride(t *testing.T) {
	pool := worker.NewPool(1)
	defer pool.Close()

	asset := (&cadfmt.Builder{Bodies: []cadfmt.Body{{}}}).Build(nil)
	opts := Options{Layout: config.Default().Layout}
	opts.Layout.FormatVersion = "0.0.3"
	_, err := NewAsset(asset, pool, opts)
	assert.ErrorIs(t, err, cadfmt.ErrUnsupportedVersion)

	opts.Layout.FormatVersion = "0.0.28"
	a, err := NewAsset(asset, pool, opts)
	require.NoError(t, err)
	assert.Equal(t, "0.0.28", a.Libraries().Version.String())
}

func TestMeshCache(t *testing.T) {
	c := NewMeshCache()
	quad := c.Get(layout.Shape{U: 2, V: 1})
	assert.Same(t, quad, c.Get(layout.Shape{U: 2, V: 1}))
	assert.Len(t, quad.Vertices, 2*3*2)
	assert.Len(t, quad.Indices, 2*1*6)
	assert.False(t, quad.Lines())

	strip := c.Get(layout.Shape{U: 4})
	assert.True(t, strip.Lines())
	assert.Equal(t, []uint32{0, 1, 2, 3, 4}, strip.Indices)
	assert.Equal(t, float32(1), strip.Vertices[8])

	hits, misses := c.Stats()
	assert.Equal(t, 1, hits)
	assert.Equal(t, 2, misses)
	assert.Equal(t, 2, c.Len())

	assert.Equal(t, 0, NewMeshCache().Len(), "caches are independent")
}

func TestBodyEntity(t *testing.T) {
	var e Entity = NewBody(3, 7)
	assert.True(t, e.Visible())
	assert.Equal(t, 7, e.Material().Shader)
	assert.Equal(t, math.IdentityXfo(), e.Transform())
	assert.False(t, e.BoundingBox().Valid())
}

func TestPlaceAllBodies(t *testing.T) {
	a := testAsset(t, 0)
	a.PlaceAllBodies()

	res, err := a.Relayout(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Bodies, 1)
	assert.Equal(t, layout.BodyInstance{
		BodyID: 0,
		Xfo:    math.IdentityXfo(),
		Color:  math.Vec4{X: 1, Y: 1, Z: 1, W: 1},
	}, res.Bodies[0])
}

func TestEntityPlacementReachesLayout(t *testing.T) {
	a := testAsset(t, 0)
	moved := NewBody(0, 3)
	moved.Xfo.Tr = math.Vec3{X: 10}
	moved.Mat.Color = math.Vec4{X: 1, W: 1}
	a.AddBody(moved, 0)

	boxed := NewBody(0, 0)
	boxed.BBox = math.Box3{Min: math.Vec3{Z: -1}, Max: math.Vec3{X: 1, Y: 1, Z: 0}}
	a.AddBody(boxed, 0)

	hidden := NewBody(0, 0)
	hidden.Hidden = true
	a.AddBody(hidden, 0)

	assert.Nil(t, a.Bounds(), "no layout yet")
	res, err := a.Relayout(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Bodies, 2)
	assert.Equal(t, math.Vec3{X: 10}, res.Bodies[0].Transform().Tr)
	assert.Equal(t, math.Vec4{X: 1, W: 1}, res.Bodies[0].Tint())

	boxes := a.Bounds()
	require.Len(t, boxes, 2)
	assert.Equal(t, math.Box3{Min: math.Vec3{X: 10}, Max: math.Vec3{X: 11, Y: 1, Z: 1}}, boxes[0])
	assert.Equal(t, boxed.BBox, boxes[1], "entity bounding box wins")
}
