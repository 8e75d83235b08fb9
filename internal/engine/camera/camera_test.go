package camera

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"

	"github.com/Faultbox/midgard-cad/pkg/math"
)

func TestOrbitPosition(t *testing.T) {
	c := NewOrbitCamera()
	c.Center = math.Vec3{X: 1, Y: 2, Z: 3}
	c.Distance = 2
	c.Pitch = 0
	c.Yaw = 0
	assert.InDelta(t, 3, c.Position().X, 1e-6)
	assert.InDelta(t, 2, c.Position().Y, 1e-6)
	assert.InDelta(t, 3, c.Position().Z, 1e-6)

	c.Pitch = math32.Pi / 2
	assert.InDelta(t, 5, c.Position().Z, 1e-6)
}

func TestViewMatrixLooksAtCenter(t *testing.T) {
	c := NewOrbitCamera()
	c.Center = math.Vec3{X: 4, Y: -1, Z: 2}
	p := c.ViewMatrix().TransformPoint(c.Center)
	assert.InDelta(t, 0, p.X, 1e-4)
	assert.InDelta(t, 0, p.Y, 1e-4)
	assert.InDelta(t, -c.Distance, p.Z, 1e-4)
}

func TestDragClampsPitch(t *testing.T) {
	c := NewOrbitCamera()
	c.HandleDrag(0, 1e6)
	assert.Equal(t, c.MaxPitch, c.Pitch)
	c.HandleDrag(0, -1e6)
	assert.Equal(t, c.MinPitch, c.Pitch)

	yaw := c.Yaw
	c.HandleDrag(100, 0)
	assert.InDelta(t, yaw-100*c.DragSensitivity, c.Yaw, 1e-6)
}

func TestZoomClampsDistance(t *testing.T) {
	c := NewOrbitCamera()
	c.HandleZoom(1e3)
	assert.Equal(t, c.MinDistance, c.Distance)
	c.HandleZoom(-1e9)
	assert.Equal(t, c.MaxDistance, c.Distance)
}

func TestFitToBox(t *testing.T) {
	c := NewOrbitCamera()
	b := math.EmptyBox3().AddPoint(math.Vec3{X: -1, Y: -1, Z: -1}).AddPoint(math.Vec3{X: 1, Y: 1, Z: 1})
	c.FitToBox(b)
	assert.Equal(t, math.Vec3{}, c.Center)
	assert.InDelta(t, b.Radius()/math32.Sin(c.FovY/2), c.Distance, 1e-5)
	assert.Less(t, c.MinDistance, c.Distance)

	before := *c
	c.FitToBox(math.EmptyBox3())
	assert.Equal(t, before, *c)
}
