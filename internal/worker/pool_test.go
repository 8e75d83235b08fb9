package worker

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/midgard-cad/internal/layout"
	"github.com/Faultbox/midgard-cad/pkg/cadfmt"
	"github.com/Faultbox/midgard-cad/pkg/math"
)

func request(t *testing.T, numCurves int) layout.Request {
	t.Helper()
	b := &cadfmt.Builder{Bodies: []cadfmt.Body{{BBox: math.Box3{Max: math.Vec3{X: 1, Y: 1, Z: 1}}}}}
	for i := 0; i < numCurves; i++ {
		b.Curves = append(b.Curves, cadfmt.Curve{CurveDims: cadfmt.CurveDims{
			Type: cadfmt.CurveTypeLine, Domain: [2]float32{0, 1},
			Flags: cadfmt.CurveCostIsDetail, Param: 4, Length: 1,
		}})
	}
	libs, err := b.Build(nil).Open()
	require.NoError(t, err)
	return layout.Request{Libraries: libs}
}

func TestSubmitAndWait(t *testing.T) {
	p := NewPool(2)
	defer p.Close()

	res, err := p.Submit(context.Background(), request(t, 3)).Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, res.NumCurves)
}

func TestSubmitPropagatesLayoutError(t *testing.T) {
	p := NewPool(1)
	defer p.Close()

	_, err := p.Submit(context.Background(), layout.Request{}).Wait(context.Background())
	assert.Error(t, err)
}

func TestLayoutAllKeepsOrder(t *testing.T) {
	p := NewPool(3)
	defer p.Close()

	reqs := []layout.Request{request(t, 1), request(t, 2), request(t, 3), request(t, 4)}
	results, err := p.LayoutAll(context.Background(), reqs)
	require.NoError(t, err)
	require.Len(t, results, 4)
	for i, res := range results {
		assert.Equal(t, i+1, res.NumCurves)
	}
}

func TestLayoutAllFailsFast(t *testing.T) {
	p := NewPool(2)
	defer p.Close()

	_, err := p.LayoutAll(context.Background(), []layout.Request{request(t, 1), {}})
	assert.Error(t, err)
}

func TestSubmitAfterClose(t *testing.T) {
	p := NewPool(1)
	p.Close()
	p.Close()

	_, err := p.Submit(context.Background(), request(t, 1)).Wait(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
}

func TestCancelledSubmit(t *testing.T) {
	p := NewPool(1)
	defer p.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.Submit(ctx, request(t, 1)).Wait(context.Background())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGenerationLastWriteWins(t *testing.T) {
	var g Generation
	first := g.Next()
	second := g.Next()
	assert.False(t, g.Current(first))
	assert.True(t, g.Current(second))
}
