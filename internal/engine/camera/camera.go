// Package camera provides the orbit camera of the viewer.
package camera

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/midgard-cad/pkg/math"
)

// Up is the world up axis. CAD assets are modelled Z-up.
var Up = math.Vec3{Z: 1}

// OrbitCamera orbits around a center point.
type OrbitCamera struct {
	Center math.Vec3

	// Spherical coordinates
	Distance float32
	Pitch    float32 // elevation above the XY plane, radians
	Yaw      float32 // rotation around Z, radians

	// Constraints
	MinDistance float32
	MaxDistance float32
	MinPitch    float32
	MaxPitch    float32

	// Projection
	FovY float32

	// Sensitivity
	DragSensitivity float32
	ZoomSensitivity float32
}

// NewOrbitCamera creates a new orbit camera with default settings.
func NewOrbitCamera() *OrbitCamera {
	return &OrbitCamera{
		Distance:        5,
		Pitch:           0.5,
		Yaw:             -0.8,
		MinDistance:     0.01,
		MaxDistance:     1e5,
		MinPitch:        -1.5,
		MaxPitch:        1.5,
		FovY:            math32.Pi / 4,
		DragSensitivity: 0.005,
		ZoomSensitivity: 0.1,
	}
}

// Position returns the camera position in world space.
func (c *OrbitCamera) Position() math.Vec3 {
	cp := math32.Cos(c.Pitch)
	return c.Center.Add(math.Vec3{
		X: c.Distance * cp * math32.Cos(c.Yaw),
		Y: c.Distance * cp * math32.Sin(c.Yaw),
		Z: c.Distance * math32.Sin(c.Pitch),
	})
}

// ViewMatrix returns the view matrix for this camera.
func (c *OrbitCamera) ViewMatrix() math.Mat4 {
	return math.LookAt(c.Position(), c.Center, Up)
}

// ProjectionMatrix returns a perspective projection whose clip planes
// bracket the orbit sphere.
func (c *OrbitCamera) ProjectionMatrix(aspect float32) math.Mat4 {
	near := max(c.Distance*0.01, 1e-4)
	far := c.Distance * 10
	return math.Perspective(c.FovY, aspect, near, far)
}

// HandleDrag updates rotation based on mouse drag delta.
func (c *OrbitCamera) HandleDrag(deltaX, deltaY float32) {
	c.Yaw -= deltaX * c.DragSensitivity
	c.Pitch += deltaY * c.DragSensitivity
	c.Pitch = min(max(c.Pitch, c.MinPitch), c.MaxPitch)
}

// HandleZoom updates distance based on scroll wheel delta.
func (c *OrbitCamera) HandleZoom(delta float32) {
	c.Distance -= delta * c.Distance * c.ZoomSensitivity
	c.Distance = min(max(c.Distance, c.MinDistance), c.MaxDistance)
}

// FitToBox centers the camera on b at a distance that keeps its bounding
// sphere in view. Invalid boxes leave the camera unchanged.
func (c *OrbitCamera) FitToBox(b math.Box3) {
	if !b.Valid() {
		return
	}
	c.Center = b.Center()
	r := max(b.Radius(), 1e-3)
	c.Distance = r / math32.Sin(c.FovY/2)
	c.MinDistance = r * 0.05
	c.MaxDistance = c.Distance * 50
}
