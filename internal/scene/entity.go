// Package scene connects CAD assets to a host scene graph.
//
// The host exposes its nodes through Entity; an Asset lays out the bodies
// placed by those entities on a worker pool and keeps the newest layout,
// draw sets and highlight state for the renderer.
package scene

import (
	"github.com/Faultbox/midgard-cad/pkg/math"
)

// Material is the shading state an entity draws with.
type Material struct {
	Shader int
	Color  math.Vec4
}

// Entity is the part of a scene node the CAD layer consumes.
type Entity interface {
	Transform() math.Xfo
	Material() Material
	Visible() bool
	BoundingBox() math.Box3
}

// Body places one library body in the scene.
type Body struct {
	// BodyID is the body's index in the asset's body library.
	BodyID int

	Xfo    math.Xfo
	Mat    Material
	Hidden bool
	BBox   math.Box3
}

// NewBody returns a visible body at the identity transform.
func NewBody(bodyID, shader int) *Body {
	return &Body{
		BodyID: bodyID,
		Xfo:    math.IdentityXfo(),
		Mat:    Material{Shader: shader, Color: math.Vec4{X: 1, Y: 1, Z: 1, W: 1}},
		BBox:   math.EmptyBox3(),
	}
}

func (b *Body) Transform() math.Xfo { return b.Xfo }
func (b *Body) Material() Material { return b.Mat }
func (b *Body) Visible() bool { return !b.Hidden }
func (b *Body) BoundingBox() math.Box3 { return b.BBox }

// placed pairs an entity with the library body it draws.
type placed struct {
	bodyID int
	entity Entity
}
