package eval

import (
	"github.com/Faultbox/midgard-cad/pkg/math"
)

// Image is an RGBA float image, the CPU counterpart of an RGBA32F atlas
// texture.
type Image struct {
	Width, Height int
	Pix           []float32
}

// NewImage allocates a zeroed image.
func NewImage(width, height int) *Image {
	return &Image{Width: width, Height: height, Pix: make([]float32, width*height*4)}
}

// Ensure resizes the image when the dimensions changed and clears it
// otherwise. It returns true when a new buffer was allocated.
func (m *Image) Ensure(width, height int) bool {
	if m.Width == width && m.Height == height && m.Pix != nil {
		clear(m.Pix)
		return false
	}
	*m = *NewImage(width, height)
	return true
}

// At returns the texel at (x, y).
func (m *Image) At(x, y int) math.Vec4 {
	i := (y*m.Width + x) * 4
	return math.Vec4{X: m.Pix[i], Y: m.Pix[i+1], Z: m.Pix[i+2], W: m.Pix[i+3]}
}

// Set writes the texel at (x, y).
func (m *Image) Set(x, y int, v math.Vec4) {
	i := (y*m.Width + x) * 4
	m.Pix[i], m.Pix[i+1], m.Pix[i+2], m.Pix[i+3] = v.X, v.Y, v.Z, v.W
}

// SetVec3 writes xyz with w = 1.
func (m *Image) SetVec3(x, y int, v math.Vec3) {
	m.Set(x, y, math.Vec4{X: v.X, Y: v.Y, Z: v.Z, W: 1})
}
